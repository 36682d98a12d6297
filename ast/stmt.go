package ast

// Stmt is any statement node.
type Stmt interface {
	ID() NodeID
	stmtNode()
}

type baseStmt struct{ id NodeID }

func (b baseStmt) ID() NodeID { return b.id }
func (baseStmt) stmtNode()    {}

func newBaseStmt() baseStmt { return baseStmt{id: nextID()} }

// VarDefStmt binds one or more names from a (possibly tuple-returning)
// expression.
type VarDefStmt struct {
	baseStmt
	Names []string
	Value Expr
}

func NewVarDef(names []string, value Expr) *VarDefStmt {
	return &VarDefStmt{baseStmt: newBaseStmt(), Names: names, Value: value}
}

// AssignTarget is either a plain variable name or an array element at a
// constant index.
type AssignTarget struct {
	Name       string
	HasIndex   bool
	Index      int
}

// AssignStmt stores Value into Target.
type AssignStmt struct {
	baseStmt
	Target AssignTarget
	Value  Expr
}

func NewAssign(target AssignTarget, value Expr) *AssignStmt {
	return &AssignStmt{baseStmt: newBaseStmt(), Target: target, Value: value}
}

// ExprStmt evaluates Call for its side effects, discarding any results
// (FuncCall / ContractCall used as a statement).
type ExprStmt struct {
	baseStmt
	Call Expr
}

func NewExprStmt(call Expr) *ExprStmt { return &ExprStmt{baseStmt: newBaseStmt(), Call: call} }

// IfElseStmt is a conditional; Else may be nil.
type IfElseStmt struct {
	baseStmt
	Cond Expr
	Then []Stmt
	Else []Stmt
}

func NewIfElse(cond Expr, then, els []Stmt) *IfElseStmt {
	return &IfElseStmt{baseStmt: newBaseStmt(), Cond: cond, Then: then, Else: els}
}

// WhileStmt loops while Cond evaluates true.
type WhileStmt struct {
	baseStmt
	Cond Expr
	Body []Stmt
}

func NewWhile(cond Expr, body []Stmt) *WhileStmt {
	return &WhileStmt{baseStmt: newBaseStmt(), Cond: cond, Body: body}
}

// ReturnStmt returns zero or more values from the enclosing method.
type ReturnStmt struct {
	baseStmt
	Values []Expr
}

func NewReturn(values []Expr) *ReturnStmt { return &ReturnStmt{baseStmt: newBaseStmt(), Values: values} }

// EmitEventStmt emits an event declared on the enclosing contract.
type EmitEventStmt struct {
	baseStmt
	EventName string
	Args      []Expr
}

func NewEmitEvent(name string, args []Expr) *EmitEventStmt {
	return &EmitEventStmt{baseStmt: newBaseStmt(), EventName: name, Args: args}
}

// BuiltinCallStmt invokes one of the four stateful, payable-only asset
// primitives — approveAlf, transferAlf, useContractAssets, generateOutput —
// by name. They are modeled as statements rather than ordinary CallExpr
// targets because none of them resolve against a user-declared method
// table; they compile directly to their matching opcode.
type BuiltinCallStmt struct {
	baseStmt
	Name string
	Args []Expr
}

func NewBuiltinCall(name string, args []Expr) *BuiltinCallStmt {
	return &BuiltinCallStmt{baseStmt: newBaseStmt(), Name: name, Args: args}
}

// LoopStmt is unrolled at compile time into floor((End-Start)/Step) copies
// of Body with Placeholder replaced by Const(U256(i)). Nested
// loops and VarDef/ReturnStmt inside Body are rejected by the type checker.
type LoopStmt struct {
	baseStmt
	Start, End, Step int
	Body             []Stmt
}

func NewLoop(start, end, step int, body []Stmt) *LoopStmt {
	return &LoopStmt{baseStmt: newBaseStmt(), Start: start, End: end, Step: step, Body: body}
}
