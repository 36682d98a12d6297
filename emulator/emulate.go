package emulator

import (
	"fmt"

	"github.com/alephium/alphvm/execctx"
	"github.com/alephium/alphvm/runtime"
	"github.com/alephium/alphvm/state"
	"github.com/alephium/alphvm/vm"
	"github.com/alephium/alphvm/vmval"
)

// GroupIndexOf derives the shard an input's spent output belongs to: the
// output ref's leading byte modulo the group count, mirroring how a
// lockup script's hash
// determines its group in the real protocol.
func GroupIndexOf(ref state.OutputRef) GroupIndex {
	return GroupIndex(int(ref[0]) % NumGroups)
}

// CheckCodeSize charges a size-proportional gas cost for the script's total
// instruction count against a fresh budget, returning the
// charge or an ExecutionError if it would exceed budget.
func CheckCodeSize(methods []vm.Method, budget vm.Gas) (vm.Gas, error) {
	var total vm.Gas
	for _, m := range methods {
		for _, instr := range m.Instrs {
			total += vm.InstructionGas(instr)
		}
	}
	if total > budget {
		return 0, vm.ErrOutOfGas
	}
	return total, nil
}

// Emulate drives the dry-run pipeline: resolve the chain/group coordinates,
// acquire a dry-run block env and group view from collab, check code size,
// then run the script against a scratch staging world state and report gas
// usage without ever committing state.
func Emulate(collab ChainCollaborator, tmpl TransactionTemplate) (TxScriptEmulationResult, error) {
	if len(tmpl.Inputs) == 0 {
		return TxScriptEmulationResult{}, fmt.Errorf("emulator: transaction template has no inputs")
	}
	group := GroupIndexOf(tmpl.Inputs[0].OutputRef)
	chainIdx := ChainIndex{From: group, To: group}

	blockEnv, err := collab.GetDryrunBlockEnv(chainIdx)
	if err != nil {
		return TxScriptEmulationResult{}, fmt.Errorf("emulator: dry-run block env: %w", err)
	}
	view, err := collab.GetMutableGroupViewIncludePool(group)
	if err != nil {
		return TxScriptEmulationResult{}, fmt.Errorf("emulator: group view: %w", err)
	}

	gasLimit := tmpl.GasLimit
	if gasLimit == 0 {
		gasLimit = MinimalGas
	}

	if _, err := CheckCodeSize(tmpl.Script.Methods, MaximalGasPerTx); err != nil {
		return TxScriptEmulationResult{}, fmt.Errorf("emulator: code size check: %s", err.Error())
	}

	if !tmpl.Script.Methods[0].IsPayable {
		return TxScriptEmulationResult{}, fmt.Errorf("emulator: %s", vm.ErrExpectNonPayableMethod.Error())
	}

	preOutputs := make([]state.AssetOutput, len(tmpl.Inputs))
	for i, in := range tmpl.Inputs {
		preOutputs[i] = in.PrevOutput
	}
	allOutputs := append(append([]state.AssetOutput{}, preOutputs...), tmpl.FixedOutputs...)
	payer := preOutputs[0].LockupScript
	gasFee := vmval.NewU256FromUint64(uint64(gasLimit))
	balances, err := state.FromPreOutputs(allOutputs, payer, gasFee)
	if err != nil {
		return TxScriptEmulationResult{}, fmt.Errorf("emulator: %s", err.Error())
	}

	staging := view.WorldState.Staging()
	pool := state.NewContractPool(staging)

	sigStack := make([][]byte, DummySignatureStackSize)
	for i := range sigStack {
		sigStack[i] = make([]byte, 64)
	}
	txEnv := &execctx.TxEnv{PrevOutputs: preOutputs, SignatureStack: sigStack}

	sctx := execctx.NewStatefulCtx(gasLimit, blockEnv, txEnv, pool, balances)
	sctx.EnterScript(payer)

	rootBefore := view.WorldState.Root()

	rets, outcome := runtime.Execute(sctx, tmpl.Script.Methods, 0, nil)
	if !outcome.Failed() {
		if err := sctx.FinalCheck(); err != nil {
			outcome = vm.ExecOutcome(err)
		}
	}

	// The staging overlay is simply discarded: it was never committed back
	// to view.WorldState, so rootBefore stays valid as this run's proof it
	// touched nothing persisted.
	_ = rootBefore

	gasUsed := gasLimit - sctx.GasRemaining()
	return TxScriptEmulationResult{
		GasUsed: gasUsed,
		Execution: ExecutionResult{
			ReturnValues:     rets,
			GeneratedOutputs: sctx.Outputs,
			Logs:             sctx.Logs,
			Outcome:          outcome,
		},
	}, nil
}
