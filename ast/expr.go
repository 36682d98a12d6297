package ast

import "github.com/alephium/alphvm/vmval"

// Expr is any expression node. Every expression yields a Seq<Type> —
// most yield exactly one type, but a CallExpr/ContractCallExpr targeting a
// multi-return method yields more than one.
type Expr interface {
	ID() NodeID
	exprNode()
}

type baseExpr struct{ id NodeID }

func (b baseExpr) ID() NodeID { return b.id }
func (baseExpr) exprNode()    {}

func newBase() baseExpr { return baseExpr{id: nextID()} }

// ConstExpr is a literal value.
type ConstExpr struct {
	baseExpr
	Value vmval.Value
}

func NewConst(v vmval.Value) *ConstExpr { return &ConstExpr{baseExpr: newBase(), Value: v} }

// CreateArrayExpr builds a fixed-size array literal from element
// expressions, all of the same base type.
type CreateArrayExpr struct {
	baseExpr
	Elems []Expr
}

func NewCreateArray(elems []Expr) *CreateArrayExpr {
	return &CreateArrayExpr{baseExpr: newBase(), Elems: elems}
}

// ArrayElementExpr indexes into an array-typed variable at a
// compile-time-constant index.
type ArrayElementExpr struct {
	baseExpr
	Array Expr
	Index int
}

func NewArrayElement(array Expr, index int) *ArrayElementExpr {
	return &ArrayElementExpr{baseExpr: newBase(), Array: array, Index: index}
}

// VariableExpr references a local or field by name; the compiler resolves
// which via its symbol table.
type VariableExpr struct {
	baseExpr
	Name string
}

func NewVariable(name string) *VariableExpr { return &VariableExpr{baseExpr: newBase(), Name: name} }

// UnaryExpr applies a unary operator (currently: "!" for BoolNot, "-" for
// I256 negation).
type UnaryExpr struct {
	baseExpr
	Op string
	X  Expr
}

func NewUnary(op string, x Expr) *UnaryExpr { return &UnaryExpr{baseExpr: newBase(), Op: op, X: x} }

// BinaryExpr applies a binary operator: arithmetic, comparison, or boolean.
type BinaryExpr struct {
	baseExpr
	Op   string
	X, Y Expr
}

func NewBinary(op string, x, y Expr) *BinaryExpr {
	return &BinaryExpr{baseExpr: newBase(), Op: op, X: x, Y: y}
}

// ContractConvExpr converts an Address-typed expression (or an existing
// contract handle) into a typed contract handle. The compiler only retags
// the operand's static type and emits no instruction; a ByteVec operand is
// rejected with a CompileError.
type ContractConvExpr struct {
	baseExpr
	ContractID vmval.ContractID
	X          Expr
}

func NewContractConv(id vmval.ContractID, x Expr) *ContractConvExpr {
	return &ContractConvExpr{baseExpr: newBase(), ContractID: id, X: x}
}

// CallExpr invokes a method on the current contract/script (CallLocal).
type CallExpr struct {
	baseExpr
	Method string
	Args   []Expr
}

func NewCall(method string, args []Expr) *CallExpr {
	return &CallExpr{baseExpr: newBase(), Method: method, Args: args}
}

// ContractCallExpr invokes a method on an external contract handle
// (CallExternal).
type ContractCallExpr struct {
	baseExpr
	Receiver Expr
	Method   string
	Args     []Expr
}

func NewContractCall(receiver Expr, method string, args []Expr) *ContractCallExpr {
	return &ContractCallExpr{baseExpr: newBase(), Receiver: receiver, Method: method, Args: args}
}

// ParenExpr is a parenthesized sub-expression, kept as its own node purely
// for source-position bookkeeping; it type-checks and emits identically to X.
type ParenExpr struct {
	baseExpr
	X Expr
}

func NewParen(x Expr) *ParenExpr { return &ParenExpr{baseExpr: newBase(), X: x} }

// PlaceholderExpr stands in for the current loop counter; legal only inside
// a Loop body, and replaced by a ConstExpr(U256(i)) during unrolling. It
// must never survive into emitted code — the compiler rejects one it finds
// outside a Loop with a CompileError.
type PlaceholderExpr struct{ baseExpr }

func NewPlaceholder() *PlaceholderExpr { return &PlaceholderExpr{baseExpr: newBase()} }
