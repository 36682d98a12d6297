// Package vmval defines the value and type domain shared by the compiler and
// the VM: tagged runtime values and the static types the compiler checks
// them against.
package vmval

import (
	"fmt"
	"strings"
)

// Kind is the tag of a Type.
type Kind uint8

const (
	KindBool Kind = iota
	KindU256
	KindI256
	KindByteVec
	KindAddress
	KindFixedSizeArray
	KindContract
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "Bool"
	case KindU256:
		return "U256"
	case KindI256:
		return "I256"
	case KindByteVec:
		return "ByteVec"
	case KindAddress:
		return "Address"
	case KindFixedSizeArray:
		return "FixedSizeArray"
	case KindContract:
		return "Contract"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// ContractID identifies a contract's compiled type (its interface, not a
// specific deployed instance). It is the contract's declared name for
// type-checking purposes.
type ContractID string

// Type is the static type of a Value. FixedSizeArray and Contract carry
// extra data; the rest are singletons constructed by the Bool/U256/... vars
// below.
type Type struct {
	Kind Kind

	// Elem and Length are set only for KindFixedSizeArray.
	Elem   *Type
	Length int

	// ContractID is set only for KindContract.
	ContractID ContractID
	// StackHandle distinguishes the two Contract type forms: true for a
	// contract handle produced on the operand stack (e.g. by ContractConv
	// or a CallExpr result), false for a contract type used as a stored
	// field's declared type.
	StackHandle bool
}

var (
	Bool    = Type{Kind: KindBool}
	U256    = Type{Kind: KindU256}
	I256    = Type{Kind: KindI256}
	ByteVec = Type{Kind: KindByteVec}
	Address = Type{Kind: KindAddress}
)

// NewFixedSizeArray builds a FixedSizeArray(base, length) type. length must
// be >= 1; the compiler is responsible for rejecting smaller lengths at
// parse time.
func NewFixedSizeArray(base Type, length int) Type {
	b := base
	return Type{Kind: KindFixedSizeArray, Elem: &b, Length: length}
}

// NewContract builds a Contract(id) type in one of its two forms.
func NewContract(id ContractID, stackHandle bool) Type {
	return Type{Kind: KindContract, ContractID: id, StackHandle: stackHandle}
}

// Equal reports structural type equality. Arrays are compared recursively by
// base type and length; contract types are compared by identifier only (the
// stack-handle/field distinction does not affect assignability).
func (t Type) Equal(o Type) bool {
	if t.Kind != o.Kind {
		return false
	}
	switch t.Kind {
	case KindFixedSizeArray:
		return t.Length == o.Length && t.Elem.Equal(*o.Elem)
	case KindContract:
		return t.ContractID == o.ContractID
	default:
		return true
	}
}

// FlattenedLength returns the number of contiguous Value slots this type
// occupies once arrays are flattened. Scalars occupy one slot.
func (t Type) FlattenedLength() int {
	if t.Kind != KindFixedSizeArray {
		return 1
	}
	return t.Length * t.Elem.FlattenedLength()
}

// ZeroValue returns this type's zero value. Frame locals are not
// initialized through it: locals not supplied as call arguments start as
// the untyped zero Value.
func (t Type) ZeroValue() Value {
	switch t.Kind {
	case KindBool:
		return NewBool(false)
	case KindU256:
		return NewU256Zero()
	case KindI256:
		return NewI256Zero()
	case KindByteVec:
		return NewByteVec(nil)
	case KindAddress, KindContract:
		return NewAddress(Addr{})
	default:
		panic(fmt.Sprintf("vmval: no scalar zero value for %s", t.Kind))
	}
}

func (t Type) String() string {
	switch t.Kind {
	case KindFixedSizeArray:
		return fmt.Sprintf("[%s;%d]", t.Elem, t.Length)
	case KindContract:
		return fmt.Sprintf("Contract(%s)", t.ContractID)
	default:
		return t.Kind.String()
	}
}

// TypeSeqString renders a Seq<Type> the way diagnostics reference
// multi-value expression types.
func TypeSeqString(ts []Type) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = t.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
