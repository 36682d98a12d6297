package compiler

import (
	"golang.org/x/crypto/blake2b"

	"github.com/alephium/alphvm/ast"
	"github.com/alephium/alphvm/vm"
	"github.com/alephium/alphvm/vmval"
)

func (mc *methodCtx) compileStmts(stmts []ast.Stmt) error {
	for _, st := range stmts {
		if err := mc.compileStmt(st); err != nil {
			return err
		}
	}
	return nil
}

func (mc *methodCtx) compileStmt(st ast.Stmt) error {
	switch s := st.(type) {
	case *ast.VarDefStmt:
		return mc.compileVarDef(s)
	case *ast.AssignStmt:
		return mc.compileAssign(s)
	case *ast.ExprStmt:
		types, err := mc.emitExpr(s.Call)
		if err != nil {
			return err
		}
		for range types {
			mc.emit(vm.NewPop())
		}
		return nil
	case *ast.IfElseStmt:
		return mc.compileIfElse(s)
	case *ast.WhileStmt:
		return mc.compileWhile(s)
	case *ast.ReturnStmt:
		return mc.compileReturn(s)
	case *ast.EmitEventStmt:
		return mc.compileEmitEvent(s)
	case *ast.BuiltinCallStmt:
		return mc.compileBuiltinCall(s)
	case *ast.LoopStmt:
		return errf(int(s.ID()), "internal: LoopStmt reached code generation without being unrolled")
	default:
		return errf(0, "unsupported statement")
	}
}

func (mc *methodCtx) compileVarDef(s *ast.VarDefStmt) error {
	if arr, ok := s.Value.(*ast.CreateArrayExpr); ok {
		if len(s.Names) != 1 {
			return errf(int(s.ID()), "array initializer must bind exactly one name")
		}
		if len(arr.Elems) == 0 {
			return errf(int(s.ID()), "array literal must have at least one element")
		}
		firstType, err := mc.emitExpr(arr.Elems[0])
		if err != nil {
			return err
		}
		if len(firstType) != 1 {
			return errf(int(arr.ID()), "array elements must be scalar")
		}
		elemType := firstType[0]
		arrType := vmval.NewFixedSizeArray(elemType, len(arr.Elems))
		vi := mc.sym.declareLocal(s.Names[0], arrType)
		mc.emit(vm.NewStoreLocal(uint16(vi.Offset)))
		for i := 1; i < len(arr.Elems); i++ {
			t, err := mc.emitExpr(arr.Elems[i])
			if err != nil {
				return err
			}
			if len(t) != 1 || !t[0].Equal(elemType) {
				return errf(int(arr.Elems[i].ID()), "array elements must share one type")
			}
			mc.emit(vm.NewStoreLocal(uint16(vi.Offset + i)))
		}
		return nil
	}

	types, err := mc.emitExpr(s.Value)
	if err != nil {
		return err
	}
	if len(types) != len(s.Names) {
		return errf(int(s.ID()), "expected %d bindings, got %d values", len(s.Names), len(types))
	}
	offsets := make([]int, len(s.Names))
	for i, name := range s.Names {
		vi := mc.sym.declareLocal(name, types[i])
		offsets[i] = vi.Offset
	}
	for i := len(s.Names) - 1; i >= 0; i-- {
		mc.emit(vm.NewStoreLocal(uint16(offsets[i])))
	}
	return nil
}

func (mc *methodCtx) compileAssign(s *ast.AssignStmt) error {
	vi, ok := mc.sym.lookup(s.Target.Name)
	if !ok {
		return errf(int(s.ID()), "undefined variable %q", s.Target.Name)
	}
	isField, offset, typ := vi.IsField, vi.Offset, vi.Type
	if s.Target.HasIndex {
		if typ.Kind != vmval.KindFixedSizeArray {
			return errf(int(s.ID()), "%q is not an array", s.Target.Name)
		}
		if s.Target.Index < 0 || s.Target.Index >= typ.Length {
			return errf(int(s.ID()), "array index %d out of range", s.Target.Index)
		}
		elemLen := typ.Elem.FlattenedLength()
		offset = offset + s.Target.Index*elemLen
		typ = *typ.Elem
	}
	if typ.FlattenedLength() != 1 {
		return errf(int(s.ID()), "cannot assign to a non-scalar target")
	}
	vt, err := mc.emitExpr(s.Value)
	if err != nil {
		return err
	}
	if len(vt) != 1 || !vt[0].Equal(typ) {
		return errf(int(s.ID()), "assignment type mismatch")
	}
	if isField {
		mc.emit(vm.NewStoreField(uint16(offset)))
	} else {
		mc.emit(vm.NewStoreLocal(uint16(offset)))
	}
	return nil
}

func (mc *methodCtx) compileIfElse(s *ast.IfElseStmt) error {
	ct, err := mc.emitExpr(s.Cond)
	if err != nil {
		return err
	}
	if len(ct) != 1 || !ct[0].Equal(vmval.Bool) {
		return errf(int(s.ID()), "if condition must be exactly Bool")
	}
	ifFalseIdx := mc.emit(vm.NewIfFalse(0))
	if err := mc.compileStmts(s.Then); err != nil {
		return err
	}
	if len(s.Else) > 0 {
		jmpIdx := mc.emit(vm.NewJump(0))
		if err := mc.patchBranch(ifFalseIdx, len(mc.instrs)); err != nil {
			return err
		}
		if err := mc.compileStmts(s.Else); err != nil {
			return err
		}
		return mc.patchBranch(jmpIdx, len(mc.instrs))
	}
	return mc.patchBranch(ifFalseIdx, len(mc.instrs))
}

func (mc *methodCtx) compileWhile(s *ast.WhileStmt) error {
	loopStart := len(mc.instrs)
	ct, err := mc.emitExpr(s.Cond)
	if err != nil {
		return err
	}
	if len(ct) != 1 || !ct[0].Equal(vmval.Bool) {
		return errf(int(s.ID()), "while condition must be exactly Bool")
	}
	ifFalseIdx := mc.emit(vm.NewIfFalse(0))
	if err := mc.compileStmts(s.Body); err != nil {
		return err
	}
	jmpIdx := mc.emit(vm.NewJump(0))
	if err := mc.patchBranch(jmpIdx, loopStart); err != nil {
		return err
	}
	return mc.patchBranch(ifFalseIdx, len(mc.instrs))
}

func (mc *methodCtx) compileReturn(s *ast.ReturnStmt) error {
	var got []vmval.Type
	for _, v := range s.Values {
		t, err := mc.emitExpr(v)
		if err != nil {
			return err
		}
		got = append(got, t...)
	}
	if len(got) != len(mc.returns) {
		return errf(int(s.ID()), "expected %d return values, got %d", len(mc.returns), len(got))
	}
	for i, t := range got {
		if !t.Equal(mc.returns[i]) {
			return errf(int(s.ID()), "return value %d type mismatch", i)
		}
	}
	mc.emit(vm.NewReturn())
	return nil
}

func (mc *methodCtx) compileEmitEvent(s *ast.EmitEventStmt) error {
	if !mc.isStateful {
		return errf(int(s.ID()), "EmitEvent requires a stateful contract")
	}
	fieldTypes, ok := mc.events[s.EventName]
	if !ok {
		return errf(int(s.ID()), "undefined event %q", s.EventName)
	}
	if len(s.Args) != len(fieldTypes) {
		return errf(int(s.ID()), "event %q expects %d arguments, got %d", s.EventName, len(fieldTypes), len(s.Args))
	}
	for i, a := range s.Args {
		t, err := mc.emitExpr(a)
		if err != nil {
			return err
		}
		if len(t) != 1 || !t[0].Equal(fieldTypes[i]) {
			return errf(int(a.ID()), "event argument %d type mismatch", i)
		}
	}
	id := blake2b.Sum256([]byte(mc.contractName + "." + s.EventName))
	mc.emit(vm.NewConstByteVec(id[:]))
	mc.emit(vm.NewLog(uint8(len(s.Args))))
	return nil
}

// compileBuiltinCall checks the argument count and each argument's type for
// one of the four asset primitives, emitting the arguments in the order they
// must be pushed to match the interpreter's pop order, then the AssetOp.
func (mc *methodCtx) compileBuiltinCall(s *ast.BuiltinCallStmt) error {
	if !mc.isStateful || !mc.isPayable {
		return errf(int(s.ID()), "%s requires a stateful, payable method", s.Name)
	}
	checkArg := func(idx int, want vmval.Type) error {
		t, err := mc.emitExpr(s.Args[idx])
		if err != nil {
			return err
		}
		if len(t) != 1 || !t[0].Equal(want) {
			return errf(int(s.Args[idx].ID()), "%s argument %d must be %s", s.Name, idx, want)
		}
		return nil
	}
	switch s.Name {
	case "approveAlf":
		if len(s.Args) != 1 {
			return errf(int(s.ID()), "approveAlf takes exactly one U256 amount")
		}
		if err := checkArg(0, vmval.U256); err != nil {
			return err
		}
		mc.emit(vm.NewAssetOp(vm.ApproveAlf))
	case "transferAlf":
		if len(s.Args) != 2 {
			return errf(int(s.ID()), "transferAlf takes (to Address, amount U256)")
		}
		if err := checkArg(0, vmval.Address); err != nil {
			return err
		}
		if err := checkArg(1, vmval.U256); err != nil {
			return err
		}
		mc.emit(vm.NewAssetOp(vm.TransferAlf))
	case "useContractAssets":
		if len(s.Args) != 0 {
			return errf(int(s.ID()), "useContractAssets takes no arguments")
		}
		mc.emit(vm.NewAssetOp(vm.UseContractAssets))
	case "generateOutput":
		if len(s.Args) != 2 {
			return errf(int(s.ID()), "generateOutput takes (to Address, amount U256)")
		}
		if err := checkArg(0, vmval.Address); err != nil {
			return err
		}
		if err := checkArg(1, vmval.U256); err != nil {
			return err
		}
		mc.emit(vm.NewAssetOp(vm.GenerateOutput))
	default:
		return errf(int(s.ID()), "unknown builtin %q", s.Name)
	}
	return nil
}
