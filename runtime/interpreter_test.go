package runtime

import (
	"testing"

	"github.com/holiman/uint256"

	"github.com/alephium/alphvm/execctx"
	"github.com/alephium/alphvm/vm"
	"github.com/alephium/alphvm/vmval"
)

func addTwoMethod() vm.Method {
	return vm.Method{
		IsPublic: true, ArgsLength: 2, LocalsLength: 2, ReturnLength: 1,
		Instrs: []vm.Instruction{
			vm.NewLoadLocal(0),
			vm.NewLoadLocal(1),
			vm.NewBinOp(vm.AddU256),
			vm.NewReturn(),
		},
	}
}

// TestExecute_AddTwo pins the Add-two end-to-end scenario: calling
// fn add(a,b) with (3,4) returns [7] and charges exactly the sum of the
// named per-instruction gas costs.
func TestExecute_AddTwo(t *testing.T) {
	method := addTwoMethod()
	gasLimit := vm.Gas(10000)
	ctx := execctx.NewStatelessCtx(gasLimit, execctx.BlockEnv{}, &execctx.TxEnv{})

	rets, outcome := Execute(ctx, []vm.Method{method}, 0, []vmval.Value{
		vmval.NewU256FromUint64(3), vmval.NewU256FromUint64(4),
	})
	if outcome.Failed() {
		t.Fatalf("unexpected failure: %v", outcome.Error())
	}
	if len(rets) != 1 || !rets[0].Equal(vmval.NewU256FromUint64(7)) {
		t.Fatalf("add(3,4) = %v, want [7]", rets)
	}

	wantGas := vm.BaseCallCost + 2*vm.LoadLocalCost + vm.AddU256Cost + vm.ReturnCost
	gotGas := gasLimit - ctx.GasRemaining()
	if gotGas != wantGas {
		t.Errorf("gas used = %d, want %d", gotGas, wantGas)
	}
}

// TestExecute_Overflow pins the Overflow scenario: U256.MAX + 1 fails with
// an arithmetic error, and gas is charged up to and including AddU256.
func TestExecute_Overflow(t *testing.T) {
	max := new(uint256.Int).Sub(new(uint256.Int), uint256.NewInt(1))
	method := vm.Method{
		IsPublic: true, ArgsLength: 0, LocalsLength: 0, ReturnLength: 1,
		Instrs: []vm.Instruction{
			vm.NewConstU256(max),
			vm.NewConstU256(uint256.NewInt(1)),
			vm.NewBinOp(vm.AddU256),
			vm.NewReturn(),
		},
	}
	gasLimit := vm.Gas(10000)
	ctx := execctx.NewStatelessCtx(gasLimit, execctx.BlockEnv{}, &execctx.TxEnv{})

	_, outcome := Execute(ctx, []vm.Method{method}, 0, nil)
	if !outcome.Failed() {
		t.Fatalf("expected overflow failure")
	}
	if _, ok := outcome.Exec.(vmval.ErrArithmetic); !ok {
		t.Fatalf("expected ErrArithmetic, got %v (%T)", outcome.Error(), outcome.Exec)
	}

	wantGasFloor := vm.BaseCallCost + 2*vm.ConstCost + vm.AddU256Cost
	gotGas := gasLimit - ctx.GasRemaining()
	if gotGas != wantGasFloor {
		t.Errorf("gas used = %d, want %d (charged up to and including AddU256)", gotGas, wantGasFloor)
	}
}

// TestExecute_DivideByZero pins the Divide-by-zero scenario.
func TestExecute_DivideByZero(t *testing.T) {
	method := vm.Method{
		IsPublic: true, ReturnLength: 1,
		Instrs: []vm.Instruction{
			vm.NewConstU256(uint256.NewInt(10)),
			vm.NewConstU256(uint256.NewInt(0)),
			vm.NewBinOp(vm.DivU256),
			vm.NewReturn(),
		},
	}
	ctx := execctx.NewStatelessCtx(10000, execctx.BlockEnv{}, &execctx.TxEnv{})
	_, outcome := Execute(ctx, []vm.Method{method}, 0, nil)
	if !outcome.Failed() {
		t.Fatalf("expected a divide-by-zero failure")
	}
	if _, ok := outcome.Exec.(vmval.ErrArithmetic); !ok {
		t.Fatalf("expected ErrArithmetic, got %T", outcome.Exec)
	}
}

// TestExecute_StackDisciplineAfterCall verifies the caller's operand stack
// only gains exactly the callee's declared return values after a CallLocal
// returns.
func TestExecute_StackDisciplineAfterCall(t *testing.T) {
	callee := addTwoMethod()
	caller := vm.Method{
		IsPublic: true, ReturnLength: 1,
		Instrs: []vm.Instruction{
			vm.NewConstU256(uint256.NewInt(3)),
			vm.NewConstU256(uint256.NewInt(4)),
			vm.NewCallLocal(1),
			vm.NewReturn(),
		},
	}
	ctx := execctx.NewStatelessCtx(10000, execctx.BlockEnv{}, &execctx.TxEnv{})
	rets, outcome := Execute(ctx, []vm.Method{caller, callee}, 0, nil)
	if outcome.Failed() {
		t.Fatalf("unexpected failure: %v", outcome.Error())
	}
	if len(rets) != 1 || !rets[0].Equal(vmval.NewU256FromUint64(7)) {
		t.Fatalf("caller returned %v, want [7]", rets)
	}
}

// TestExecute_ConstOverflowsOperandStack pushes past operandStackCapacity
// with nothing but ConstU256 and checks the overflow surfaces as
// ErrStackOverflow instead of being silently dropped.
func TestExecute_ConstOverflowsOperandStack(t *testing.T) {
	instrs := make([]vm.Instruction, 0, operandStackCapacity+2)
	for i := 0; i < operandStackCapacity+1; i++ {
		instrs = append(instrs, vm.NewConstU256(uint256.NewInt(1)))
	}
	instrs = append(instrs, vm.NewReturn())
	method := vm.Method{IsPublic: true, ReturnLength: 0, Instrs: instrs}

	ctx := execctx.NewStatelessCtx(1_000_000, execctx.BlockEnv{}, &execctx.TxEnv{})
	_, outcome := Execute(ctx, []vm.Method{method}, 0, nil)
	if !outcome.Failed() || outcome.Exec != vm.ErrStackOverflow {
		t.Fatalf("expected ErrStackOverflow, got %v", outcome.Error())
	}
}

// TestExecute_OutOfGas exercises gas exhaustion mid-run.
func TestExecute_OutOfGas(t *testing.T) {
	method := addTwoMethod()
	ctx := execctx.NewStatelessCtx(vm.BaseCallCost, execctx.BlockEnv{}, &execctx.TxEnv{})
	_, outcome := Execute(ctx, []vm.Method{method}, 0, []vmval.Value{
		vmval.NewU256FromUint64(1), vmval.NewU256FromUint64(2),
	})
	if !outcome.Failed() || outcome.Exec != vm.ErrOutOfGas {
		t.Fatalf("expected ErrOutOfGas, got %v", outcome.Error())
	}
}
