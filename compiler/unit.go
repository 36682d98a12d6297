package compiler

import (
	"github.com/alephium/alphvm/ast"
	"github.com/alephium/alphvm/vm"
	"github.com/alephium/alphvm/vmval"
)

func paramTypes(params []ast.Param) []vmval.Type {
	out := make([]vmval.Type, len(params))
	for i, p := range params {
		out[i] = p.Type
	}
	return out
}

func buildSignatures(methods []ast.FuncDecl) map[string]MethodSig {
	out := make(map[string]MethodSig, len(methods))
	for i, m := range methods {
		out[m.Name] = MethodSig{
			Index: i, IsPublic: m.IsPublic, IsPayable: m.IsPayable,
			Params: paramTypes(m.Params), Returns: m.Returns,
		}
	}
	return out
}

func compileMethod(
	fd ast.FuncDecl,
	cfg Config,
	universe Universe,
	fields map[string]varInfo,
	selfMethods map[string]MethodSig,
	isStateful bool,
	contractName string,
	events map[string][]vmval.Type,
) (vm.Method, error) {
	body, err := unrollStmts(fd.Body, cfg)
	if err != nil {
		return vm.Method{}, err
	}
	sym := newSymTab(fields)
	for _, p := range fd.Params {
		sym.declareLocal(p.Name, p.Type)
	}
	argsLength := sym.nextLocalSlot
	mc := &methodCtx{
		cfg: cfg, universe: universe, sym: sym,
		types: map[ast.NodeID][]vmval.Type{},
		returns: fd.Returns, selfMethod: selfMethods,
		isStateful: isStateful, isPayable: fd.IsPayable,
		contractName: contractName, events: events,
	}
	if err := mc.compileStmts(body); err != nil {
		return vm.Method{}, err
	}
	return vm.Method{
		IsPublic: fd.IsPublic, IsPayable: fd.IsPayable,
		ArgsLength: argsLength, LocalsLength: sym.nextLocalSlot,
		ReturnLength: totalFlattenedLength(fd.Returns),
		Instrs:       mc.instrs,
	}, nil
}

func checkNoStatefulOpcodes(methods []vm.Method) error {
	for _, m := range methods {
		for _, instr := range m.Instrs {
			if instr.Op.IsStatefulOnly() {
				return errf(0, "stateful-only opcode %s in a stateless script", instr.Op)
			}
		}
	}
	return nil
}

// CompileStatelessScript compiles a script with no world-state access
//. Any stateful-only opcode reaching emission — which a correctly
// written stateless script body cannot produce, since its symbol table has
// no fields and isStateful is false — is caught here as a defensive second
// check.
func CompileStatelessScript(decl *ast.ScriptDecl, cfg Config, universe Universe) (vm.StatelessScript, error) {
	sigs := buildSignatures(decl.Methods)
	methods := make([]vm.Method, len(decl.Methods))
	for i, fd := range decl.Methods {
		m, err := compileMethod(fd, cfg, universe, nil, sigs, false, "", nil)
		if err != nil {
			return vm.StatelessScript{}, err
		}
		methods[i] = m
	}
	if err := checkNoStatefulOpcodes(methods); err != nil {
		return vm.StatelessScript{}, err
	}
	return vm.NewStatelessScript(methods)
}

// CompileStatefulScript compiles a payable-capable script with world-state
// access but no persisted fields of its own.
func CompileStatefulScript(decl *ast.ScriptDecl, cfg Config, universe Universe) (vm.StatefulScript, error) {
	sigs := buildSignatures(decl.Methods)
	methods := make([]vm.Method, len(decl.Methods))
	for i, fd := range decl.Methods {
		m, err := compileMethod(fd, cfg, universe, nil, sigs, true, "", nil)
		if err != nil {
			return vm.StatefulScript{}, err
		}
		methods[i] = m
	}
	return vm.NewStatefulScript(methods)
}

// CompileContract compiles a deployed contract's declared fields, events,
// and methods into a packaged vm.StatefulContract.
func CompileContract(decl *ast.ContractDecl, cfg Config, universe Universe) (vm.StatefulContract, error) {
	fieldNames := make([]string, len(decl.Fields))
	fieldTypesList := make([]vmval.Type, len(decl.Fields))
	for i, f := range decl.Fields {
		fieldNames[i] = f.Name
		fieldTypesList[i] = f.Type
	}
	fields := flattenFields(fieldNames, fieldTypesList)

	events := make(map[string][]vmval.Type, len(decl.Events))
	for _, ev := range decl.Events {
		events[ev.Name] = ev.Fields
	}

	sigs := buildSignatures(decl.Methods)
	methods := make([]vm.Method, len(decl.Methods))
	for i, fd := range decl.Methods {
		m, err := compileMethod(fd, cfg, universe, fields, sigs, true, decl.Name, events)
		if err != nil {
			return vm.StatefulContract{}, err
		}
		methods[i] = m
	}
	return vm.NewStatefulContract(totalFlattenedLength(fieldTypesList), methods)
}

// Interface reduces a compiled contract's method table to the ContractInterface
// shape another compile unit needs to type-check ContractCallExpr against,
// so a Universe can be built up as contracts are compiled bottom-up.
func Interface(decl *ast.ContractDecl) *ContractInterface {
	sigs := buildSignatures(decl.Methods)
	return &ContractInterface{Methods: sigs}
}
