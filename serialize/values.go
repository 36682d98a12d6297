package serialize

import (
	"bytes"
	"fmt"
	"io"

	"github.com/holiman/uint256"

	"github.com/alephium/alphvm/vmval"
)

// Value tags used only on the wire; they are independent of vmval.Kind so
// that the runtime value representation can evolve without breaking the
// wire format.
const (
	tagBool byte = iota
	tagU256
	tagI256
	tagByteVec
	tagAddress
)

// EncodeValue appends v's wire encoding to w. Used to persist contract
// field values and script call arguments.
func EncodeValue(w io.Writer, v vmval.Value) error {
	switch v.Type().Kind {
	case vmval.KindBool:
		b := byte(0)
		if v.Bool() {
			b = 1
		}
		_, err := w.Write([]byte{tagBool, b})
		return err
	case vmval.KindU256:
		if _, err := w.Write([]byte{tagU256}); err != nil {
			return err
		}
		b := v.U256().Bytes32()
		_, err := w.Write(b[:])
		return err
	case vmval.KindI256:
		if _, err := w.Write([]byte{tagI256}); err != nil {
			return err
		}
		b := v.I256().Bytes32()
		_, err := w.Write(b[:])
		return err
	case vmval.KindByteVec:
		if _, err := w.Write([]byte{tagByteVec}); err != nil {
			return err
		}
		if err := writeUvarint(w, uint64(len(v.ByteVec()))); err != nil {
			return err
		}
		_, err := w.Write(v.ByteVec())
		return err
	case vmval.KindAddress, vmval.KindContract:
		if _, err := w.Write([]byte{tagAddress}); err != nil {
			return err
		}
		a := v.Address()
		if _, err := w.Write([]byte{byte(a.Kind)}); err != nil {
			return err
		}
		_, err := w.Write(a.Hash[:])
		return err
	default:
		return fmt.Errorf("serialize: cannot encode value of kind %s", v.Type().Kind)
	}
}

func DecodeValue(r *byteReader) (vmval.Value, error) {
	tag, err := r.ReadByte()
	if err != nil {
		return vmval.Value{}, err
	}
	switch tag {
	case tagBool:
		b, err := r.ReadByte()
		if err != nil {
			return vmval.Value{}, err
		}
		return vmval.NewBool(b != 0), nil
	case tagU256:
		b, err := r.readN(32)
		if err != nil {
			return vmval.Value{}, err
		}
		var arr [32]byte
		copy(arr[:], b)
		return vmval.NewU256(new(uint256.Int).SetBytes32(arr[:])), nil
	case tagI256:
		b, err := r.readN(32)
		if err != nil {
			return vmval.Value{}, err
		}
		var arr [32]byte
		copy(arr[:], b)
		return vmval.NewI256(new(uint256.Int).SetBytes32(arr[:])), nil
	case tagByteVec:
		l, err := readUvarint(r)
		if err != nil {
			return vmval.Value{}, err
		}
		b, err := r.readN(int(l))
		if err != nil {
			return vmval.Value{}, err
		}
		return vmval.NewByteVec(b), nil
	case tagAddress:
		kindByte, err := r.ReadByte()
		if err != nil {
			return vmval.Value{}, err
		}
		b, err := r.readN(32)
		if err != nil {
			return vmval.Value{}, err
		}
		var addr vmval.Addr
		addr.Kind = vmval.LockupKind(kindByte)
		copy(addr.Hash[:], b)
		return vmval.NewAddress(addr), nil
	default:
		return vmval.Value{}, fmt.Errorf("serialize: invalid value tag %d", tag)
	}
}

func EncodeValues(w io.Writer, vs []vmval.Value) error {
	if err := writeUvarint(w, uint64(len(vs))); err != nil {
		return err
	}
	for _, v := range vs {
		if err := EncodeValue(w, v); err != nil {
			return err
		}
	}
	return nil
}

func DecodeValues(data []byte) ([]vmval.Value, error) {
	r := &byteReader{buf: data}
	n, err := readUvarint(r)
	if err != nil {
		return nil, err
	}
	out := make([]vmval.Value, 0, n)
	for i := uint64(0); i < n; i++ {
		v, err := DecodeValue(r)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// EncodeValuesToBytes is a convenience wrapper returning a standalone byte
// slice, used where callers persist field values as one blob.
func EncodeValuesToBytes(vs []vmval.Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodeValues(&buf, vs); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
