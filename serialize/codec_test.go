package serialize

import (
	"bytes"
	"testing"

	"github.com/holiman/uint256"

	"github.com/alephium/alphvm/vm"
	"github.com/alephium/alphvm/vmval"
)

func TestEncodeDecodeInstruction_Roundtrip(t *testing.T) {
	addr := vmval.Addr{Kind: vmval.LockupAsset}
	addr.Hash[3] = 0x7f

	instrs := []vm.Instruction{
		vm.NewConstBool(true),
		vm.NewConstBool(false),
		vm.NewConstU256(uint256.NewInt(9001)),
		vm.NewConstI256(uint256.NewInt(7)),
		vm.NewConstByteVec([]byte{1, 2, 3, 4}),
		vm.NewConstAddress(addr),
		vm.NewPop(),
		vm.NewBinOp(vm.AddU256),
		vm.NewJump(-5),
		vm.NewIfTrue(3),
		vm.NewIfFalse(-1),
		vm.NewReturn(),
		vm.NewCallLocal(2),
		vm.NewCallExternal(vmval.ContractID("Token"), 4),
		vm.NewLoadLocal(1),
		vm.NewStoreLocal(1),
		vm.NewLoadField(0),
		vm.NewStoreField(0),
		vm.NewCrypto(vm.Blake2b),
		vm.NewLog(2),
		vm.NewAssetOp(vm.ApproveAlf),
	}

	for _, instr := range instrs {
		var buf bytes.Buffer
		if err := EncodeInstruction(&buf, instr); err != nil {
			t.Fatalf("encode %s: %v", instr.Op, err)
		}
		got, err := DecodeInstruction(&byteReader{buf: buf.Bytes()})
		if err != nil {
			t.Fatalf("decode %s: %v", instr.Op, err)
		}
		if got.Op != instr.Op {
			t.Errorf("op = %s, want %s", got.Op, instr.Op)
		}
	}
}

func TestDecodeInstruction_InvalidOpcodeFails(t *testing.T) {
	_, err := DecodeInstruction(&byteReader{buf: []byte{0xff}})
	if err == nil {
		t.Fatalf("expected an error decoding an invalid opcode")
	}
}

func sampleMethod() vm.Method {
	return vm.Method{
		IsPublic: true, IsPayable: true,
		ArgsLength: 2, LocalsLength: 3, ReturnLength: 1,
		Instrs: []vm.Instruction{
			vm.NewLoadLocal(0),
			vm.NewLoadLocal(1),
			vm.NewBinOp(vm.AddU256),
			vm.NewReturn(),
		},
	}
}

func TestEncodeDecodeMethod_Roundtrip(t *testing.T) {
	m := sampleMethod()
	var buf bytes.Buffer
	if err := EncodeMethod(&buf, m); err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := decodeMethod(&byteReader{buf: buf.Bytes()})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.IsPublic != m.IsPublic || got.IsPayable != m.IsPayable ||
		got.ArgsLength != m.ArgsLength || got.LocalsLength != m.LocalsLength ||
		got.ReturnLength != m.ReturnLength || len(got.Instrs) != len(m.Instrs) {
		t.Fatalf("decoded method = %+v, want %+v", got, m)
	}
}

// TestStatefulScript_Roundtrip pins the "serialization and deserialization
// must be bit-exact inverses" requirement for a full script.
func TestStatefulScript_Roundtrip(t *testing.T) {
	script, err := vm.NewStatefulScript([]vm.Method{sampleMethod()})
	if err != nil {
		t.Fatalf("build script: %v", err)
	}
	encoded, err := EncodeStatefulScript(script)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := DecodeStatefulScript(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	reencoded, err := EncodeStatefulScript(decoded)
	if err != nil {
		t.Fatalf("re-encode: %v", err)
	}
	if !bytes.Equal(encoded, reencoded) {
		t.Errorf("script did not round-trip bit-exactly")
	}
}

func TestStatelessScript_Roundtrip(t *testing.T) {
	m := sampleMethod()
	m.IsPayable = false
	script, err := vm.NewStatelessScript([]vm.Method{m})
	if err != nil {
		t.Fatalf("build script: %v", err)
	}
	encoded, err := EncodeStatelessScript(script)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := DecodeStatelessScript(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(decoded.Methods) != 1 {
		t.Fatalf("decoded %d methods, want 1", len(decoded.Methods))
	}
}

func TestStatefulContract_Roundtrip(t *testing.T) {
	contract, err := vm.NewStatefulContract(5, []vm.Method{sampleMethod()})
	if err != nil {
		t.Fatalf("build contract: %v", err)
	}
	encoded, err := EncodeStatefulContract(contract)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := DecodeStatefulContract(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.FieldLength != contract.FieldLength {
		t.Errorf("field length = %d, want %d", decoded.FieldLength, contract.FieldLength)
	}
	if len(decoded.Methods) != len(contract.Methods) {
		t.Errorf("methods = %d, want %d", len(decoded.Methods), len(contract.Methods))
	}
}
