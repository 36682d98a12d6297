package vmval

import (
	"bytes"
	"fmt"

	"github.com/holiman/uint256"
)

// LockupKind distinguishes the two address forms Alephium's lockup scripts
// take: an asset (P2PKH-style) address and a contract address.
type LockupKind uint8

const (
	LockupAsset LockupKind = iota
	LockupContract
)

// Addr is the runtime representation of an Address value: a lockup-script
// kind tag plus the 32-byte hash it locks against. Contract handles reuse
// this representation with LockupContract.
type Addr struct {
	Kind LockupKind
	Hash [32]byte
}

func (a Addr) String() string {
	prefix := "P2PKH"
	if a.Kind == LockupContract {
		prefix = "P2C"
	}
	return fmt.Sprintf("%s:%x", prefix, a.Hash)
}

// Value is a tagged union over the five runtime value kinds the VM operates
// on: Bool, U256, I256, ByteVec, Address. Arrays never appear as a Value —
// the compiler flattens them into contiguous scalar slots.
type Value struct {
	typ   Type
	b     bool
	num   uint256.Int // backs both U256 and I256 (two's complement)
	bytes []byte
	addr  Addr
}

func NewBool(b bool) Value { return Value{typ: Bool, b: b} }

func NewU256(v *uint256.Int) Value {
	var val Value
	val.typ = U256
	val.num.Set(v)
	return val
}

func NewU256Zero() Value { return NewU256(new(uint256.Int)) }

func NewU256FromUint64(v uint64) Value { return NewU256(uint256.NewInt(v)) }

// NewI256 wraps v, interpreted as a two's-complement signed 256-bit value.
func NewI256(v *uint256.Int) Value {
	var val Value
	val.typ = I256
	val.num.Set(v)
	return val
}

func NewI256Zero() Value { return NewI256(new(uint256.Int)) }

func NewI256FromInt64(v int64) Value {
	u := new(uint256.Int)
	if v >= 0 {
		u.SetUint64(uint64(v))
	} else {
		u.SetUint64(uint64(-v))
		u.Sub(new(uint256.Int), u) // two's-complement negation: 0 - |v|
	}
	return NewI256(u)
}

func NewByteVec(b []byte) Value {
	cp := make([]byte, len(b))
	copy(cp, b)
	return Value{typ: ByteVec, bytes: cp}
}

func NewAddress(a Addr) Value { return Value{typ: Address, addr: a} }

// NewContractHandle produces a runtime Value for a Contract-typed
// expression: representation-wise it is an Address value locking a contract,
// but its static Type carries the contract identifier for the checker.
func NewContractHandle(id ContractID, addr Addr) Value {
	v := Value{typ: NewContract(id, true), addr: addr}
	return v
}

func (v Value) Type() Type { return v.typ }

func (v Value) Bool() bool { return v.b }

// U256 returns a pointer to the backing 256-bit word. Callers must not
// retain it past the value's lifetime without copying.
func (v Value) U256() *uint256.Int { return &v.num }

func (v Value) I256() *uint256.Int { return &v.num }

func (v Value) ByteVec() []byte { return v.bytes }

func (v Value) Address() Addr { return v.addr }

// Equal implements structural equality: values compare equal only when
// their static types and payloads match.
func (v Value) Equal(o Value) bool {
	if !v.typ.Equal(o.typ) {
		return false
	}
	switch v.typ.Kind {
	case KindBool:
		return v.b == o.b
	case KindU256, KindI256:
		return v.num.Eq(&o.num)
	case KindByteVec:
		return bytes.Equal(v.bytes, o.bytes)
	case KindAddress, KindContract:
		return v.addr == o.addr
	default:
		return false
	}
}

func (v Value) String() string {
	switch v.typ.Kind {
	case KindBool:
		return fmt.Sprintf("%t", v.b)
	case KindU256:
		return v.num.Dec()
	case KindI256:
		return i256String(&v.num)
	case KindByteVec:
		return fmt.Sprintf("0x%x", v.bytes)
	case KindAddress, KindContract:
		return v.addr.String()
	default:
		return "<invalid value>"
	}
}

// i256Negative reports whether the top bit (bit 255) of the two's-complement
// word is set, i.e. the value is negative.
func i256Negative(v *uint256.Int) bool {
	b := v.Bytes32()
	return b[0]&0x80 != 0
}

func i256String(v *uint256.Int) string {
	if !i256Negative(v) {
		return v.Dec()
	}
	neg := new(uint256.Int).Sub(new(uint256.Int), v)
	return "-" + neg.Dec()
}

// Sign returns -1/0/1 for an I256 value, treating the backing word as
// two's-complement. It is undefined for other kinds.
func (v Value) Sign() int {
	if v.num.IsZero() {
		return 0
	}
	if i256Negative(&v.num) {
		return -1
	}
	return 1
}
