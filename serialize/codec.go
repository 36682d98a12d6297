// Package serialize implements the bit-exact wire encoding for compiled
// instructions, methods, scripts and contracts: a script's on-chain
// representation is its byte-serialized method array, and serialization
// and deserialization must be bit-exact inverses.
package serialize

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/holiman/uint256"

	"github.com/alephium/alphvm/vm"
	"github.com/alephium/alphvm/vmval"
)

// Each instruction is encoded as: 1 opcode byte, followed by a fixed-layout
// immediate determined entirely by the opcode. There is no length prefix on
// the instruction itself — a decoder always knows how many bytes to consume
// once it has read the opcode.

func writeUvarint(w io.Writer, v uint64) error {
	buf := make([]byte, binary.MaxVarintLen64)
	n := binary.PutUvarint(buf, v)
	_, err := w.Write(buf[:n])
	return err
}

func readUvarint(r io.ByteReader) (uint64, error) {
	return binary.ReadUvarint(r)
}

// byteReader adapts a []byte cursor to io.ByteReader for binary.ReadUvarint.
type byteReader struct {
	buf []byte
	pos int
}

func (b *byteReader) ReadByte() (byte, error) {
	if b.pos >= len(b.buf) {
		return 0, io.EOF
	}
	c := b.buf[b.pos]
	b.pos++
	return c, nil
}

func (b *byteReader) readN(n int) ([]byte, error) {
	if b.pos+n > len(b.buf) {
		return nil, io.ErrUnexpectedEOF
	}
	out := b.buf[b.pos : b.pos+n]
	b.pos += n
	return out, nil
}

// EncodeInstruction appends instr's wire encoding to w.
func EncodeInstruction(w io.Writer, instr vm.Instruction) error {
	if _, err := w.Write([]byte{byte(instr.Op)}); err != nil {
		return err
	}
	switch instr.Op {
	case vm.ConstU256, vm.ConstI256:
		b := instr.Num.Bytes32()
		_, err := w.Write(b[:])
		return err
	case vm.ConstByteVec:
		if err := writeUvarint(w, uint64(len(instr.Bytes))); err != nil {
			return err
		}
		_, err := w.Write(instr.Bytes)
		return err
	case vm.ConstAddress:
		if _, err := w.Write([]byte{byte(instr.Addr.Kind)}); err != nil {
			return err
		}
		_, err := w.Write(instr.Addr.Hash[:])
		return err
	case vm.Jump, vm.IfTrue, vm.IfFalse:
		_, err := w.Write([]byte{byte(instr.Offset)})
		return err
	case vm.CallLocal:
		return writeUvarint(w, uint64(instr.Index))
	case vm.CallExternal:
		if err := writeUvarint(w, uint64(len(instr.ContractID))); err != nil {
			return err
		}
		if _, err := w.Write([]byte(instr.ContractID)); err != nil {
			return err
		}
		return writeUvarint(w, uint64(instr.CalleeIndex))
	case vm.LoadLocal, vm.StoreLocal, vm.LoadField, vm.StoreField:
		return writeUvarint(w, uint64(instr.Index))
	case vm.Log:
		_, err := w.Write([]byte{instr.N})
		return err
	default:
		// No immediate: Pop, arithmetic, comparisons, logical, Return,
		// crypto ops, asset ops.
		return nil
	}
}

// DecodeInstruction reads one instruction from r.
func DecodeInstruction(r *byteReader) (vm.Instruction, error) {
	opByte, err := r.ReadByte()
	if err != nil {
		return vm.Instruction{}, err
	}
	op := vm.OpCode(opByte)
	if !op.IsValid() {
		return vm.Instruction{}, fmt.Errorf("serialize: invalid opcode %d", opByte)
	}
	switch op {
	case vm.ConstU256:
		b, err := r.readN(32)
		if err != nil {
			return vm.Instruction{}, err
		}
		var arr [32]byte
		copy(arr[:], b)
		n := new(uint256.Int).SetBytes32(arr[:])
		return vm.NewConstU256(n), nil
	case vm.ConstI256:
		b, err := r.readN(32)
		if err != nil {
			return vm.Instruction{}, err
		}
		var arr [32]byte
		copy(arr[:], b)
		n := new(uint256.Int).SetBytes32(arr[:])
		return vm.NewConstI256(n), nil
	case vm.ConstByteVec:
		l, err := readUvarint(r)
		if err != nil {
			return vm.Instruction{}, err
		}
		b, err := r.readN(int(l))
		if err != nil {
			return vm.Instruction{}, err
		}
		cp := append([]byte(nil), b...)
		return vm.NewConstByteVec(cp), nil
	case vm.ConstAddress:
		kindByte, err := r.ReadByte()
		if err != nil {
			return vm.Instruction{}, err
		}
		b, err := r.readN(32)
		if err != nil {
			return vm.Instruction{}, err
		}
		var addr vmval.Addr
		addr.Kind = vmval.LockupKind(kindByte)
		copy(addr.Hash[:], b)
		return vm.NewConstAddress(addr), nil
	case vm.Jump, vm.IfTrue, vm.IfFalse:
		b, err := r.ReadByte()
		if err != nil {
			return vm.Instruction{}, err
		}
		return vm.Instruction{Op: op, Offset: int8(b)}, nil
	case vm.CallLocal:
		idx, err := readUvarint(r)
		if err != nil {
			return vm.Instruction{}, err
		}
		return vm.NewCallLocal(uint16(idx)), nil
	case vm.CallExternal:
		l, err := readUvarint(r)
		if err != nil {
			return vm.Instruction{}, err
		}
		idBytes, err := r.readN(int(l))
		if err != nil {
			return vm.Instruction{}, err
		}
		methodIdx, err := readUvarint(r)
		if err != nil {
			return vm.Instruction{}, err
		}
		return vm.NewCallExternal(vmval.ContractID(idBytes), uint16(methodIdx)), nil
	case vm.LoadLocal, vm.StoreLocal, vm.LoadField, vm.StoreField:
		idx, err := readUvarint(r)
		if err != nil {
			return vm.Instruction{}, err
		}
		return vm.Instruction{Op: op, Index: uint16(idx)}, nil
	case vm.Log:
		n, err := r.ReadByte()
		if err != nil {
			return vm.Instruction{}, err
		}
		return vm.NewLog(n), nil
	default:
		return vm.Instruction{Op: op}, nil
	}
}

// EncodeMethod writes a Method's calling convention header followed by its
// instruction stream.
func EncodeMethod(w io.Writer, m vm.Method) error {
	flags := byte(0)
	if m.IsPublic {
		flags |= 1
	}
	if m.IsPayable {
		flags |= 2
	}
	if _, err := w.Write([]byte{flags}); err != nil {
		return err
	}
	for _, v := range []int{m.ArgsLength, m.LocalsLength, m.ReturnLength, len(m.Instrs)} {
		if err := writeUvarint(w, uint64(v)); err != nil {
			return err
		}
	}
	for _, instr := range m.Instrs {
		if err := EncodeInstruction(w, instr); err != nil {
			return err
		}
	}
	return nil
}

func decodeMethod(r *byteReader) (vm.Method, error) {
	flags, err := r.ReadByte()
	if err != nil {
		return vm.Method{}, err
	}
	args, err := readUvarint(r)
	if err != nil {
		return vm.Method{}, err
	}
	locals, err := readUvarint(r)
	if err != nil {
		return vm.Method{}, err
	}
	ret, err := readUvarint(r)
	if err != nil {
		return vm.Method{}, err
	}
	n, err := readUvarint(r)
	if err != nil {
		return vm.Method{}, err
	}
	instrs := make([]vm.Instruction, 0, n)
	for i := uint64(0); i < n; i++ {
		instr, err := DecodeInstruction(r)
		if err != nil {
			return vm.Method{}, err
		}
		instrs = append(instrs, instr)
	}
	return vm.Method{
		IsPublic:     flags&1 != 0,
		IsPayable:    flags&2 != 0,
		ArgsLength:   int(args),
		LocalsLength: int(locals),
		ReturnLength: int(ret),
		Instrs:       instrs,
	}, nil
}

func encodeMethods(w io.Writer, methods []vm.Method) error {
	if err := writeUvarint(w, uint64(len(methods))); err != nil {
		return err
	}
	for _, m := range methods {
		if err := EncodeMethod(w, m); err != nil {
			return err
		}
	}
	return nil
}

func decodeMethods(r *byteReader) ([]vm.Method, error) {
	n, err := readUvarint(r)
	if err != nil {
		return nil, err
	}
	out := make([]vm.Method, 0, n)
	for i := uint64(0); i < n; i++ {
		m, err := decodeMethod(r)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// EncodeStatelessScript / DecodeStatelessScript round-trip a
// StatelessScript. Roundtrip fidelity (deserialize(serialize(x)) == x) is a
// testable property.
func EncodeStatelessScript(s vm.StatelessScript) ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeMethods(&buf, s.Methods); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func DecodeStatelessScript(data []byte) (vm.StatelessScript, error) {
	methods, err := decodeMethods(&byteReader{buf: data})
	if err != nil {
		return vm.StatelessScript{}, err
	}
	return vm.NewStatelessScript(methods)
}

func EncodeStatefulScript(s vm.StatefulScript) ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeMethods(&buf, s.Methods); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func DecodeStatefulScript(data []byte) (vm.StatefulScript, error) {
	methods, err := decodeMethods(&byteReader{buf: data})
	if err != nil {
		return vm.StatefulScript{}, err
	}
	return vm.NewStatefulScript(methods)
}

func EncodeStatefulContract(c vm.StatefulContract) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeUvarint(&buf, uint64(c.FieldLength)); err != nil {
		return nil, err
	}
	if err := encodeMethods(&buf, c.Methods); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func DecodeStatefulContract(data []byte) (vm.StatefulContract, error) {
	r := &byteReader{buf: data}
	fieldLen, err := readUvarint(r)
	if err != nil {
		return vm.StatefulContract{}, err
	}
	methods, err := decodeMethods(r)
	if err != nil {
		return vm.StatefulContract{}, err
	}
	return vm.NewStatefulContract(int(fieldLen), methods)
}
