package emulator

import (
	"crypto/sha256"
	"testing"

	"github.com/holiman/uint256"
	"go.uber.org/mock/gomock"

	"github.com/alephium/alphvm/execctx"
	"github.com/alephium/alphvm/serialize"
	"github.com/alephium/alphvm/state"
	"github.com/alephium/alphvm/vm"
	"github.com/alephium/alphvm/vmval"
)

// seedContract deploys code at addr into a fresh world state, backed by
// output and returns the resulting persisted snapshot. It goes through the
// same Staging/CreateContractUnsafe/Commit path a real deployment would, so
// GetContract exercises the real trie-backed decode path rather than a
// shortcut.
func seedContract(t *testing.T, id vmval.ContractID, addr vmval.Addr, code vm.StatefulContract, fields []vmval.Value, out state.AssetOutput) *state.PersistedWorldState {
	t.Helper()
	encoded, err := serialize.EncodeStatefulContract(code)
	if err != nil {
		t.Fatalf("encode contract: %v", err)
	}
	codeHash := sha256.Sum256(encoded)

	ws := &state.PersistedWorldState{
		OutputTrie:   state.NewMemTrie(),
		ContractTrie: state.NewMemTrie(),
		CodeTrie:     state.NewMemTrie(),
	}
	if err := ws.CodeTrie.Put(codeHash, encoded); err != nil {
		t.Fatalf("put code: %v", err)
	}
	staging := ws.Staging()
	if err := staging.CreateContractUnsafe(id, &code, codeHash, fields, addr, state.OutputRef{}, out); err != nil {
		t.Fatalf("create contract: %v", err)
	}
	committed, err := staging.Commit()
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	return committed
}

func contractAddr(b byte) vmval.Addr {
	var a vmval.Addr
	a.Kind = vmval.LockupContract
	a.Hash[0] = b
	return a
}

func assetAddr(b byte) vmval.Addr {
	var a vmval.Addr
	a.Kind = vmval.LockupAsset
	a.Hash[0] = b
	return a
}

// callerScript builds a one-method StatefulScript whose entry point pushes
// the contract address addr as a constant and dispatches CallExternal at
// methodIdx on it. The entry method takes no arguments, since Emulate runs
// it with none.
func callerScript(t *testing.T, id vmval.ContractID, addr vmval.Addr, methodIdx uint16) vm.StatefulScript {
	t.Helper()
	m := vm.Method{
		IsPublic: true, IsPayable: true, ArgsLength: 0, LocalsLength: 0, ReturnLength: 0,
		Instrs: []vm.Instruction{
			vm.NewConstAddress(addr),
			vm.NewCallExternal(id, methodIdx),
			vm.NewReturn(),
		},
	}
	script, err := vm.NewStatefulScript([]vm.Method{m})
	if err != nil {
		t.Fatalf("build script: %v", err)
	}
	return script
}

func dummyInput(ref state.OutputRef, payer vmval.Addr, alf uint64) TxInput {
	return TxInput{
		OutputRef: ref,
		PrevOutput: state.AssetOutput{
			LockupScript: payer,
			AlfAmount:    vmval.NewU256FromUint64(alf),
			Tokens:       map[state.TokenID]vmval.Value{},
		},
	}
}

// TestEmulate_ContractAssetUnflushed pins scenario 6: a contract method that
// calls UseContractAssets but never flushes it back out via GenerateOutput
// fails FinalCheck, and the dry run leaves the persisted world state
// untouched (the staging-isolation property).
func TestEmulate_ContractAssetUnflushed(t *testing.T) {
	id := vmval.ContractID("Vault")
	addr := contractAddr(1)
	code, err := vm.NewStatefulContract(0, []vm.Method{
		{
			IsPublic: true, IsPayable: true, ReturnLength: 0,
			Instrs: []vm.Instruction{
				vm.NewAssetOp(vm.UseContractAssets),
				vm.NewReturn(),
			},
		},
	})
	if err != nil {
		t.Fatalf("build contract: %v", err)
	}
	backing := state.AssetOutput{LockupScript: addr, AlfAmount: vmval.NewU256FromUint64(1000), Tokens: map[state.TokenID]vmval.Value{}}
	ws := seedContract(t, id, addr, code, nil, backing)
	rootBefore := ws.Root()

	script := callerScript(t, id, addr, 0)

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	collab := NewMockChainCollaborator(ctrl)
	collab.EXPECT().GetDryrunBlockEnv(gomock.Any()).Return(execctx.BlockEnv{}, nil)
	collab.EXPECT().GetMutableGroupViewIncludePool(gomock.Any()).Return(&GroupView{WorldState: ws}, nil)

	tmpl := TransactionTemplate{
		Inputs:   []TxInput{dummyInput(state.OutputRef{0: 1}, assetAddr(2), 1_000_000)},
		Script:   script,
		GasLimit: MinimalGas,
	}

	result, err := Emulate(collab, tmpl)
	if err != nil {
		t.Fatalf("unexpected emulator error: %v", err)
	}
	if !result.Execution.Outcome.Failed() {
		t.Fatalf("expected execution to fail on the unflushed contract asset")
	}
	if result.Execution.Outcome.Exec != vm.ErrContractAssetUnflushed {
		t.Fatalf("outcome = %v, want ErrContractAssetUnflushed", result.Execution.Outcome.Error())
	}

	if got := ws.Root(); got != rootBefore {
		t.Errorf("persisted world state root changed after a dry run: got %x, want %x", got, rootBefore)
	}
}

// TestEmulate_UseThenGenerateOutputFlushesAsset exercises the happy path
// scenario 6 is the failure twin of: a payable method that calls
// UseContractAssets and then GenerateOutput back to its own address flushes
// the asset-use state, so FinalCheck passes and the dry run still leaves
// the persisted world state untouched.
func TestEmulate_UseThenGenerateOutputFlushesAsset(t *testing.T) {
	id := vmval.ContractID("Vault")
	addr := contractAddr(5)
	backingAmount := uint64(1000)
	code, err := vm.NewStatefulContract(0, []vm.Method{
		{
			IsPublic: true, IsPayable: true, ReturnLength: 0,
			Instrs: []vm.Instruction{
				vm.NewAssetOp(vm.UseContractAssets),
				vm.NewConstAddress(addr),
				vm.NewConstU256(uint256.NewInt(backingAmount)),
				vm.NewAssetOp(vm.GenerateOutput),
				vm.NewReturn(),
			},
		},
	})
	if err != nil {
		t.Fatalf("build contract: %v", err)
	}
	backing := state.AssetOutput{LockupScript: addr, AlfAmount: vmval.NewU256FromUint64(backingAmount), Tokens: map[state.TokenID]vmval.Value{}}
	ws := seedContract(t, id, addr, code, nil, backing)
	rootBefore := ws.Root()

	script := callerScript(t, id, addr, 0)

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	collab := NewMockChainCollaborator(ctrl)
	collab.EXPECT().GetDryrunBlockEnv(gomock.Any()).Return(execctx.BlockEnv{}, nil)
	collab.EXPECT().GetMutableGroupViewIncludePool(gomock.Any()).Return(&GroupView{WorldState: ws}, nil)

	tmpl := TransactionTemplate{
		Inputs:   []TxInput{dummyInput(state.OutputRef{0: 5}, assetAddr(6), 1_000_000)},
		Script:   script,
		GasLimit: MinimalGas,
	}

	result, err := Emulate(collab, tmpl)
	if err != nil {
		t.Fatalf("unexpected emulator error: %v", err)
	}
	if result.Execution.Outcome.Failed() {
		t.Fatalf("expected FinalCheck to pass after use+generate flushed the asset, got %v", result.Execution.Outcome.Error())
	}
	if len(result.Execution.GeneratedOutputs) != 1 {
		t.Fatalf("generated outputs = %d, want 1", len(result.Execution.GeneratedOutputs))
	}
	if got := ws.Root(); got != rootBefore {
		t.Errorf("persisted world state root changed after a dry run: got %x, want %x", got, rootBefore)
	}
}

// TestEmulate_ScriptCallsAssetBuiltinAtTopLevel exercises approveAlf/
// generateOutput called directly by a TxScript's own entry method — the
// normal way of funding a call before ever dispatching to a contract —
// with no CallExternal and no deployed contract in play at all.
func TestEmulate_ScriptCallsAssetBuiltinAtTopLevel(t *testing.T) {
	recipient := assetAddr(9)
	amount := uint64(500)
	m := vm.Method{
		IsPublic: true, IsPayable: true, ReturnLength: 0,
		Instrs: []vm.Instruction{
			vm.NewConstAddress(recipient),
			vm.NewConstU256(uint256.NewInt(amount)),
			vm.NewAssetOp(vm.GenerateOutput),
			vm.NewReturn(),
		},
	}
	script, err := vm.NewStatefulScript([]vm.Method{m})
	if err != nil {
		t.Fatalf("build script: %v", err)
	}

	ws := &state.PersistedWorldState{
		OutputTrie:   state.NewMemTrie(),
		ContractTrie: state.NewMemTrie(),
		CodeTrie:     state.NewMemTrie(),
	}

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	collab := NewMockChainCollaborator(ctrl)
	collab.EXPECT().GetDryrunBlockEnv(gomock.Any()).Return(execctx.BlockEnv{}, nil)
	collab.EXPECT().GetMutableGroupViewIncludePool(gomock.Any()).Return(&GroupView{WorldState: ws}, nil)

	payer := assetAddr(8)
	tmpl := TransactionTemplate{
		Inputs:   []TxInput{dummyInput(state.OutputRef{0: 7}, payer, 1_000_000)},
		Script:   script,
		GasLimit: MinimalGas,
	}

	result, err := Emulate(collab, tmpl)
	if err != nil {
		t.Fatalf("unexpected emulator error: %v", err)
	}
	if result.Execution.Outcome.Failed() {
		t.Fatalf("expected the script's own top-level generateOutput to succeed, got %v", result.Execution.Outcome.Error())
	}
	if len(result.Execution.GeneratedOutputs) != 1 {
		t.Fatalf("generated outputs = %d, want 1", len(result.Execution.GeneratedOutputs))
	}
	if got := result.Execution.GeneratedOutputs[0].From; got != payer {
		t.Errorf("generated output From = %v, want the tx's own payer address %v", got, payer)
	}
}

// TestEmulate_GasReport pins scenario 7: a trivial contract call succeeds
// and reports a GasUsed that is positive and below the gas limit.
func TestEmulate_GasReport(t *testing.T) {
	id := vmval.ContractID("Noop")
	addr := contractAddr(3)
	code, err := vm.NewStatefulContract(0, []vm.Method{
		{IsPublic: true, IsPayable: false, ReturnLength: 0, Instrs: []vm.Instruction{vm.NewReturn()}},
	})
	if err != nil {
		t.Fatalf("build contract: %v", err)
	}
	backing := state.AssetOutput{LockupScript: addr, AlfAmount: vmval.NewU256Zero(), Tokens: map[state.TokenID]vmval.Value{}}
	ws := seedContract(t, id, addr, code, nil, backing)

	script := callerScript(t, id, addr, 0)

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	collab := NewMockChainCollaborator(ctrl)
	collab.EXPECT().GetDryrunBlockEnv(gomock.Any()).Return(execctx.BlockEnv{}, nil)
	collab.EXPECT().GetMutableGroupViewIncludePool(gomock.Any()).Return(&GroupView{WorldState: ws}, nil)

	gasLimit := vm.Gas(50000)
	tmpl := TransactionTemplate{
		Inputs:   []TxInput{dummyInput(state.OutputRef{0: 9}, assetAddr(4), 1_000_000)},
		Script:   script,
		GasLimit: gasLimit,
	}

	result, err := Emulate(collab, tmpl)
	if err != nil {
		t.Fatalf("unexpected emulator error: %v", err)
	}
	if result.Execution.Outcome.Failed() {
		t.Fatalf("execution failed: %v", result.Execution.Outcome.Error())
	}
	if result.GasUsed == 0 || result.GasUsed >= gasLimit {
		t.Errorf("gas used = %d, want a positive amount well under the limit %d", result.GasUsed, gasLimit)
	}
}
