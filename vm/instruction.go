package vm

import (
	"github.com/holiman/uint256"

	"github.com/alephium/alphvm/vmval"
)

// Instruction is one bytecode instruction: an opcode plus whichever
// immediate fields that opcode uses. Only the fields relevant to Op are
// populated; the rest are zero. A single struct carries heterogeneous
// immediate payloads instead of a per-opcode type.
type Instruction struct {
	Op OpCode

	// ConstU256 / ConstI256
	Num *uint256.Int

	// ConstByteVec
	Bytes []byte

	// ConstAddress
	Addr vmval.Addr

	// Jump / IfTrue / IfFalse: a signed relative offset in instructions.
	// Limited to one byte; this is a protocol-level limit, not an
	// implementation one, so do not silently widen it.
	Offset int8

	// CallLocal: callee method index within the current contract/script.
	// LoadLocal / StoreLocal / LoadField / StoreField: flattened slot index.
	Index uint16

	// CallExternal: statically declared callee contract type, used by the
	// type checker; the concrete callee address is resolved at runtime from
	// the popped contract handle.
	ContractID  vmval.ContractID
	CalleeIndex uint16 // CallExternal: method index on the resolved contract

	// Log: number of value arguments preceding the event-id ByteVec on the
	// operand stack.
	N uint8
}

func opU256(n *uint256.Int) Instruction     { return Instruction{Op: ConstU256, Num: n} }
func opI256(n *uint256.Int) Instruction     { return Instruction{Op: ConstI256, Num: n} }
func opByteVec(b []byte) Instruction        { return Instruction{Op: ConstByteVec, Bytes: b} }
func opAddress(a vmval.Addr) Instruction    { return Instruction{Op: ConstAddress, Addr: a} }
func opSimple(op OpCode) Instruction        { return Instruction{Op: op} }
func opBranch(op OpCode, off int8) Instruction {
	return Instruction{Op: op, Offset: off}
}
func opIndex(op OpCode, idx uint16) Instruction {
	return Instruction{Op: op, Index: idx}
}
func opCallLocal(idx uint16) Instruction { return Instruction{Op: CallLocal, Index: idx} }
func opCallExternal(id vmval.ContractID, methodIdx uint16) Instruction {
	return Instruction{Op: CallExternal, ContractID: id, CalleeIndex: methodIdx}
}
func opLog(n uint8) Instruction { return Instruction{Op: Log, N: n} }

// NewConstBool, NewPop and the other exported constructors give the
// compiler's emitter a stable, typo-proof way to build instructions instead
// of poking struct literals directly.
func NewConstBool(v bool) Instruction {
	if v {
		return opSimple(ConstTrue)
	}
	return opSimple(ConstFalse)
}
func NewConstU256(n *uint256.Int) Instruction  { return opU256(n) }
func NewConstI256(n *uint256.Int) Instruction  { return opI256(n) }
func NewConstByteVec(b []byte) Instruction     { return opByteVec(b) }
func NewConstAddress(a vmval.Addr) Instruction { return opAddress(a) }
func NewPop() Instruction                      { return opSimple(Pop) }
func NewBinOp(op OpCode) Instruction           { return opSimple(op) }
func NewJump(off int8) Instruction             { return opBranch(Jump, off) }
func NewIfTrue(off int8) Instruction           { return opBranch(IfTrue, off) }
func NewIfFalse(off int8) Instruction          { return opBranch(IfFalse, off) }
func NewReturn() Instruction                   { return opSimple(Return) }
func NewCallLocal(idx uint16) Instruction      { return opCallLocal(idx) }
func NewCallExternal(id vmval.ContractID, methodIdx uint16) Instruction {
	return opCallExternal(id, methodIdx)
}
func NewLoadLocal(idx uint16) Instruction   { return opIndex(LoadLocal, idx) }
func NewStoreLocal(idx uint16) Instruction  { return opIndex(StoreLocal, idx) }
func NewLoadField(idx uint16) Instruction   { return opIndex(LoadField, idx) }
func NewStoreField(idx uint16) Instruction  { return opIndex(StoreField, idx) }
func NewCrypto(op OpCode) Instruction       { return opSimple(op) }
func NewLog(n uint8) Instruction            { return opLog(n) }
func NewAssetOp(op OpCode) Instruction      { return opSimple(op) }
