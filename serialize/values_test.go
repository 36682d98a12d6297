package serialize

import (
	"testing"

	"github.com/holiman/uint256"

	"github.com/alephium/alphvm/vmval"
)

// TestValues_Roundtrip pins the roundtrip-fidelity property for every
// scalar value kind the VM operates on.
func TestValues_Roundtrip(t *testing.T) {
	addr := vmval.Addr{Kind: vmval.LockupContract}
	addr.Hash[0] = 0xab

	values := []vmval.Value{
		vmval.NewBool(true),
		vmval.NewBool(false),
		vmval.NewU256FromUint64(123456789),
		vmval.NewI256FromInt64(-42),
		vmval.NewByteVec([]byte("alephium")),
		vmval.NewByteVec(nil),
		vmval.NewAddress(addr),
	}

	encoded, err := EncodeValuesToBytes(values)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := DecodeValues(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(decoded) != len(values) {
		t.Fatalf("decoded %d values, want %d", len(decoded), len(values))
	}
	for i, v := range values {
		if !decoded[i].Equal(v) {
			t.Errorf("value %d = %v, want %v", i, decoded[i], v)
		}
	}
}

func TestValues_U256PreservesFullWidth(t *testing.T) {
	max := new(uint256.Int).Sub(new(uint256.Int), uint256.NewInt(1))
	v := vmval.NewU256(max)
	encoded, err := EncodeValuesToBytes([]vmval.Value{v})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := DecodeValues(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !decoded[0].Equal(v) {
		t.Errorf("U256.MAX did not round-trip: got %s", decoded[0])
	}
}

func TestDecodeValues_InvalidTagFails(t *testing.T) {
	if _, err := DecodeValues([]byte{1, 0xff}); err == nil {
		t.Fatalf("expected an error decoding an invalid value tag")
	}
}
