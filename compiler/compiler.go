package compiler

import (
	"github.com/holiman/uint256"

	"github.com/alephium/alphvm/ast"
	"github.com/alephium/alphvm/vm"
	"github.com/alephium/alphvm/vmval"
)

// methodCtx holds one method's compile-time state: its symbol table, its
// node->type memo table, and the instruction sequence being built.
type methodCtx struct {
	cfg      Config
	universe Universe

	sym      *symTab
	types    map[ast.NodeID][]vmval.Type
	instrs   []vm.Instruction

	returns    []vmval.Type
	selfMethod map[string]MethodSig

	isStateful bool
	isPayable  bool

	contractName string
	events       map[string][]vmval.Type
}

func (mc *methodCtx) emit(instr vm.Instruction) int {
	mc.instrs = append(mc.instrs, instr)
	return len(mc.instrs) - 1
}

// patchBranch fills in a previously emitted Jump/IfTrue/IfFalse's relative
// offset once its target position is known, failing "too many instrs for
// branch" if the offset can't fit the one-byte immediate; branches are
// short-only and never silently widened.
func (mc *methodCtx) patchBranch(idx, targetIdx int) error {
	offset := targetIdx - (idx + 1)
	if offset < -128 || offset > 127 {
		return errf(0, "too many instrs for branch")
	}
	mc.instrs[idx].Offset = int8(offset)
	return nil
}

func constInstr(v vmval.Value) vm.Instruction {
	switch v.Type().Kind {
	case vmval.KindBool:
		return vm.NewConstBool(v.Bool())
	case vmval.KindU256:
		return vm.NewConstU256(v.U256())
	case vmval.KindI256:
		return vm.NewConstI256(v.I256())
	case vmval.KindByteVec:
		return vm.NewConstByteVec(v.ByteVec())
	default:
		return vm.NewConstAddress(v.Address())
	}
}

// resolveLValue resolves a variable or (possibly nested) array-element
// expression to its flattened slot, composing offsets across dimensions
//.
func (mc *methodCtx) resolveLValue(e ast.Expr) (isField bool, offset int, typ vmval.Type, err error) {
	switch x := e.(type) {
	case *ast.VariableExpr:
		vi, ok := mc.sym.lookup(x.Name)
		if !ok {
			return false, 0, vmval.Type{}, errf(int(e.ID()), "undefined variable %q", x.Name)
		}
		return vi.IsField, vi.Offset, vi.Type, nil
	case *ast.ArrayElementExpr:
		baseField, baseOffset, baseType, err := mc.resolveLValue(x.Array)
		if err != nil {
			return false, 0, vmval.Type{}, err
		}
		if baseType.Kind != vmval.KindFixedSizeArray {
			return false, 0, vmval.Type{}, errf(int(e.ID()), "index into a non-array value")
		}
		if x.Index < 0 || x.Index >= baseType.Length {
			return false, 0, vmval.Type{}, errf(int(e.ID()), "array index %d out of range [0,%d)", x.Index, baseType.Length)
		}
		elemLen := baseType.Elem.FlattenedLength()
		return baseField, baseOffset + x.Index*elemLen, *baseType.Elem, nil
	default:
		return false, 0, vmval.Type{}, errf(int(e.ID()), "not an addressable location")
	}
}

var arithOps = map[string]bool{"+": true, "-": true, "*": true, "/": true, "%": true}
var compareOps = map[string]bool{"<": true, ">": true, "<=": true, ">=": true}

func arithOpcode(op string, signed bool) vm.OpCode {
	switch {
	case op == "+" && !signed:
		return vm.AddU256
	case op == "+" && signed:
		return vm.AddI256
	case op == "-" && !signed:
		return vm.SubU256
	case op == "-" && signed:
		return vm.SubI256
	case op == "*" && !signed:
		return vm.MulU256
	case op == "*" && signed:
		return vm.MulI256
	case op == "/" && !signed:
		return vm.DivU256
	case op == "/" && signed:
		return vm.DivI256
	case op == "%" && !signed:
		return vm.ModU256
	default:
		return vm.ModI256
	}
}

func compareOpcode(op string, signed bool) vm.OpCode {
	switch {
	case op == "<" && !signed:
		return vm.LtU256
	case op == "<" && signed:
		return vm.LtI256
	case op == ">" && !signed:
		return vm.GtU256
	case op == ">" && signed:
		return vm.GtI256
	case op == "<=" && !signed:
		return vm.LeU256
	case op == "<=" && signed:
		return vm.LeI256
	case op == ">=" && !signed:
		return vm.GeU256
	default:
		return vm.GeI256
	}
}

// emitExpr type-checks e (memoizing its result type in mc.types, keyed by
// NodeID) and emits the instructions that push its
// value(s) onto the operand stack, in one combined recursive pass. A node
// already in mc.types emits nothing, so every emitted occurrence must be a
// distinct node; loop unrolling builds fresh nodes for each copy.
func (mc *methodCtx) emitExpr(e ast.Expr) ([]vmval.Type, error) {
	if t, ok := mc.types[e.ID()]; ok {
		return t, nil
	}
	t, err := mc.emitExprUncached(e)
	if err != nil {
		return nil, err
	}
	mc.types[e.ID()] = t
	return t, nil
}

func (mc *methodCtx) emitExprUncached(e ast.Expr) ([]vmval.Type, error) {
	switch x := e.(type) {
	case *ast.ConstExpr:
		mc.emit(constInstr(x.Value))
		return []vmval.Type{x.Value.Type()}, nil

	case *ast.VariableExpr:
		vi, ok := mc.sym.lookup(x.Name)
		if !ok {
			return nil, errf(int(e.ID()), "undefined variable %q", x.Name)
		}
		if vi.Type.FlattenedLength() != 1 {
			return nil, errf(int(e.ID()), "array %q must be indexed", x.Name)
		}
		if vi.IsField {
			mc.emit(vm.NewLoadField(uint16(vi.Offset)))
		} else {
			mc.emit(vm.NewLoadLocal(uint16(vi.Offset)))
		}
		return []vmval.Type{vi.Type}, nil

	case *ast.ArrayElementExpr:
		isField, offset, rt, err := mc.resolveLValue(x)
		if err != nil {
			return nil, err
		}
		if rt.FlattenedLength() != 1 {
			return nil, errf(int(e.ID()), "array element must be scalar; index further dimensions")
		}
		if isField {
			mc.emit(vm.NewLoadField(uint16(offset)))
		} else {
			mc.emit(vm.NewLoadLocal(uint16(offset)))
		}
		return []vmval.Type{rt}, nil

	case *ast.UnaryExpr:
		if x.Op == "-" {
			mc.emit(vm.NewConstI256(new(uint256.Int)))
			xt, err := mc.emitExpr(x.X)
			if err != nil {
				return nil, err
			}
			if len(xt) != 1 || !xt[0].Equal(vmval.I256) {
				return nil, errf(int(e.ID()), "unary - requires I256")
			}
			mc.emit(vm.NewBinOp(vm.SubI256))
			return []vmval.Type{vmval.I256}, nil
		}
		xt, err := mc.emitExpr(x.X)
		if err != nil {
			return nil, err
		}
		if len(xt) != 1 || !xt[0].Equal(vmval.Bool) {
			return nil, errf(int(e.ID()), "unary ! requires Bool")
		}
		mc.emit(vm.NewBinOp(vm.BoolNot))
		return []vmval.Type{vmval.Bool}, nil

	case *ast.BinaryExpr:
		xt, err := mc.emitExpr(x.X)
		if err != nil {
			return nil, err
		}
		yt, err := mc.emitExpr(x.Y)
		if err != nil {
			return nil, err
		}
		if len(xt) != 1 || len(yt) != 1 {
			return nil, errf(int(e.ID()), "operator %s requires scalar operands", x.Op)
		}
		if !xt[0].Equal(yt[0]) {
			return nil, errf(int(e.ID()), "operator %s type mismatch: %s vs %s", x.Op, xt[0], yt[0])
		}
		switch {
		case arithOps[x.Op]:
			if !xt[0].Equal(vmval.U256) && !xt[0].Equal(vmval.I256) {
				return nil, errf(int(e.ID()), "operator %s requires numeric operands", x.Op)
			}
			mc.emit(vm.NewBinOp(arithOpcode(x.Op, xt[0].Equal(vmval.I256))))
			return []vmval.Type{xt[0]}, nil
		case compareOps[x.Op]:
			if !xt[0].Equal(vmval.U256) && !xt[0].Equal(vmval.I256) {
				return nil, errf(int(e.ID()), "operator %s requires numeric operands", x.Op)
			}
			mc.emit(vm.NewBinOp(compareOpcode(x.Op, xt[0].Equal(vmval.I256))))
			return []vmval.Type{vmval.Bool}, nil
		case x.Op == "==":
			mc.emit(vm.NewBinOp(vm.Eq))
			return []vmval.Type{vmval.Bool}, nil
		case x.Op == "!=":
			mc.emit(vm.NewBinOp(vm.Ne))
			return []vmval.Type{vmval.Bool}, nil
		case x.Op == "&&":
			if !xt[0].Equal(vmval.Bool) {
				return nil, errf(int(e.ID()), "&& requires Bool")
			}
			mc.emit(vm.NewBinOp(vm.BoolAnd))
			return []vmval.Type{vmval.Bool}, nil
		case x.Op == "||":
			if !xt[0].Equal(vmval.Bool) {
				return nil, errf(int(e.ID()), "|| requires Bool")
			}
			mc.emit(vm.NewBinOp(vm.BoolOr))
			return []vmval.Type{vmval.Bool}, nil
		default:
			return nil, errf(int(e.ID()), "unknown operator %q", x.Op)
		}

	case *ast.ContractConvExpr:
		xt, err := mc.emitExpr(x.X)
		if err != nil {
			return nil, err
		}
		if len(xt) != 1 || (!xt[0].Equal(vmval.Address) && xt[0].Kind != vmval.KindContract) {
			return nil, errf(int(e.ID()), "ContractConv requires an Address value")
		}
		// No conversion instruction is emitted: an Address value and a
		// Contract handle share the same runtime representation
		// (vmval.Value's addr field), so this is purely a static retag.
		return []vmval.Type{vmval.NewContract(x.ContractID, true)}, nil

	case *ast.CallExpr:
		sig, ok := mc.selfMethod[x.Method]
		if !ok {
			return nil, errf(int(e.ID()), "undefined method %q", x.Method)
		}
		if err := mc.emitArgs(e.ID(), x.Args, sig.Params); err != nil {
			return nil, err
		}
		mc.emit(vm.NewCallLocal(uint16(sig.Index)))
		return sig.Returns, nil

	case *ast.ContractCallExpr:
		rt, err := mc.emitExpr(x.Receiver)
		if err != nil {
			return nil, err
		}
		if len(rt) != 1 || rt[0].Kind != vmval.KindContract {
			return nil, errf(int(e.ID()), "ContractCall receiver must be a Contract handle")
		}
		iface, ok := mc.universe[rt[0].ContractID]
		if !ok {
			return nil, errf(int(e.ID()), "unknown contract %q", rt[0].ContractID)
		}
		sig, ok := iface.Methods[x.Method]
		if !ok || !sig.IsPublic {
			return nil, errf(int(e.ID()), "undefined public method %q on %q", x.Method, rt[0].ContractID)
		}
		if err := mc.emitArgs(e.ID(), x.Args, sig.Params); err != nil {
			return nil, err
		}
		mc.emit(vm.NewCallExternal(rt[0].ContractID, uint16(sig.Index)))
		return sig.Returns, nil

	case *ast.ParenExpr:
		return mc.emitExpr(x.X)

	case *ast.PlaceholderExpr:
		return nil, errf(int(e.ID()), "Placeholder outside of loop unrolling")

	case *ast.CreateArrayExpr:
		return nil, errf(int(e.ID()), "array literal only allowed as a variable initializer")

	default:
		return nil, errf(int(e.ID()), "unsupported expression")
	}
}

func (mc *methodCtx) emitArgs(nodeID ast.NodeID, args []ast.Expr, params []vmval.Type) error {
	if len(args) != len(params) {
		return errf(int(nodeID), "expected %d arguments, got %d", len(params), len(args))
	}
	for i, a := range args {
		at, err := mc.emitExpr(a)
		if err != nil {
			return err
		}
		if len(at) != 1 || !at[0].Equal(params[i]) {
			return errf(int(a.ID()), "argument %d type mismatch", i)
		}
	}
	return nil
}

