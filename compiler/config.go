// Package compiler implements symbol resolution, type checking, array
// flattening, loop unrolling, and code emission: turning a parsed
// ast.ContractDecl or ast.ScriptDecl into a packaged vm.StatefulContract,
// vm.StatefulScript, or vm.StatelessScript.
package compiler

import "github.com/alephium/alphvm/vmval"

// Config is the compiler's only currently honored configuration record
//: a single knob, loopUnrollingLimit, matching the source's own
// external-interface note that nothing else is configurable yet.
type Config struct {
	LoopUnrollingLimit int
}

// DefaultConfig allows a loop to unroll into at most 256 iterations; the
// limit counts iterations, not emitted instructions.
var DefaultConfig = Config{LoopUnrollingLimit: 256}

// Universe resolves external contract declarations by ID for
// ContractCallExpr type checking. A compile unit only has its own
// ast.ContractDecl in hand; any contract it calls externally must be
// registered here first (mirroring how a real toolchain compiles a
// dependency graph bottom-up before its dependents).
type Universe map[vmval.ContractID]*ContractInterface

// ContractInterface is the subset of a compiled contract another compile
// unit needs to type-check calls against: its field layout is irrelevant to
// a caller, only its public method signatures are.
type ContractInterface struct {
	Methods map[string]MethodSig
}

// MethodSig is a method's calling convention, keyed by name for resolution.
type MethodSig struct {
	Index     int
	IsPublic  bool
	IsPayable bool
	Params    []vmval.Type
	Returns   []vmval.Type
}
