package ast

import "github.com/alephium/alphvm/vmval"

// Param is a named, typed slot: a method parameter, a contract field, or an
// event field.
type Param struct {
	Name string
	Type vmval.Type
}

// FuncDecl is one method declaration on a contract or script.
type FuncDecl struct {
	Name      string
	IsPublic  bool
	IsPayable bool
	Params    []Param
	Returns   []vmval.Type
	Body      []Stmt
}

// EventDecl declares one event a contract may emit.
type EventDecl struct {
	Name   string
	Fields []vmval.Type
}

// ContractDecl is a full contract source unit: its persisted fields, the
// events it may emit, and its methods.
type ContractDecl struct {
	Name    string
	Fields  []Param
	Events  []EventDecl
	Methods []FuncDecl
}

// ScriptDecl is a script source unit — a stateless asset script or a
// stateful transaction script, distinguished only by whether its body uses
// stateful-only operations (checked by the type checker, not the parser).
type ScriptDecl struct {
	Methods []FuncDecl
}
