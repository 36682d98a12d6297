package execctx

import (
	"crypto/sha256"
	"testing"

	"github.com/alephium/alphvm/serialize"
	"github.com/alephium/alphvm/state"
	"github.com/alephium/alphvm/vm"
	"github.com/alephium/alphvm/vmval"
)

func seedTestContract(t *testing.T, addr vmval.Addr, fields []vmval.Value, alf uint64) *state.ContractPool {
	t.Helper()
	code, err := vm.NewStatefulContract(len(fields), []vm.Method{
		{IsPublic: true, ReturnLength: 1, Instrs: []vm.Instruction{vm.NewLoadField(0), vm.NewReturn()}},
	})
	if err != nil {
		t.Fatalf("build contract: %v", err)
	}
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
		t.Fatalf("seed code: %v", err)
	}
	out := state.AssetOutput{LockupScript: addr, AlfAmount: vmval.NewU256FromUint64(alf), Tokens: map[state.TokenID]vmval.Value{}}
	staging := ws.Staging()
	if err := staging.CreateContractUnsafe("Fixture", &code, codeHash, fields, addr, state.OutputRef{}, out); err != nil {
		t.Fatalf("create: %v", err)
	}
	committed, err := staging.Commit()
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	return state.NewContractPool(committed.Staging())
}

func TestStatefulCtx_EnterExitContract_LoadStoreField(t *testing.T) {
	var addr vmval.Addr
	addr.Hash[0] = 1
	pool := seedTestContract(t, addr, []vmval.Value{vmval.NewU256FromUint64(7)}, 0)
	ctx := NewStatefulCtx(10000, BlockEnv{}, &TxEnv{}, pool, state.NewBalances())

	if _, err := ctx.EnterContract(addr); err != nil {
		t.Fatalf("enter: %v", err)
	}
	v, err := ctx.LoadField(0)
	if err != nil {
		t.Fatalf("load field: %v", err)
	}
	if !v.Equal(vmval.NewU256FromUint64(7)) {
		t.Errorf("field 0 = %v, want 7", v)
	}
	if err := ctx.StoreField(0, vmval.NewU256FromUint64(9)); err != nil {
		t.Fatalf("store field: %v", err)
	}
	v, _ = ctx.LoadField(0)
	if !v.Equal(vmval.NewU256FromUint64(9)) {
		t.Errorf("field 0 after store = %v, want 9", v)
	}
	ctx.ExitContract()
	if _, err := ctx.LoadField(0); err == nil {
		t.Errorf("expected LoadField to fail once no contract is active")
	}
}

func TestStatefulCtx_ApproveThenTransfer(t *testing.T) {
	var contract, recipient vmval.Addr
	contract.Hash[0], recipient.Hash[0] = 1, 2
	pool := seedTestContract(t, contract, nil, 0)

	balances := state.NewBalances()
	if err := balances.AddAlf(contract, vmval.NewU256FromUint64(100)); err != nil {
		t.Fatalf("seed balance: %v", err)
	}
	ctx := NewStatefulCtx(10000, BlockEnv{}, &TxEnv{}, pool, balances)
	if _, err := ctx.EnterContract(contract); err != nil {
		t.Fatalf("enter: %v", err)
	}

	if err := ctx.ApproveAlf(vmval.NewU256FromUint64(40)); err != nil {
		t.Fatalf("approve: %v", err)
	}
	// The contract's spendable balance shrank by the approved amount.
	if got := balances.AlfOf(contract); !got.Equal(vmval.NewU256FromUint64(60)) {
		t.Errorf("contract balance after approve = %v, want 60", got)
	}
	if err := ctx.TransferAlf(recipient, vmval.NewU256FromUint64(40)); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if got := balances.AlfOf(recipient); !got.Equal(vmval.NewU256FromUint64(40)) {
		t.Errorf("recipient balance = %v, want 40", got)
	}
}

func TestStatefulCtx_TransferWithoutApproveFails(t *testing.T) {
	var contract, recipient vmval.Addr
	contract.Hash[0], recipient.Hash[0] = 1, 2
	pool := seedTestContract(t, contract, nil, 0)
	ctx := NewStatefulCtx(10000, BlockEnv{}, &TxEnv{}, pool, state.NewBalances())
	if _, err := ctx.EnterContract(contract); err != nil {
		t.Fatalf("enter: %v", err)
	}
	if err := ctx.TransferAlf(recipient, vmval.NewU256FromUint64(1)); err == nil {
		t.Fatalf("expected transferring un-approved funds to fail")
	}
}

func TestStatefulCtx_UseContractAssetsThenGenerateOutput_PassesFinalCheck(t *testing.T) {
	var contract vmval.Addr
	contract.Hash[0] = 3
	pool := seedTestContract(t, contract, nil, 1000)
	ctx := NewStatefulCtx(10000, BlockEnv{}, &TxEnv{}, pool, state.NewBalances())
	if _, err := ctx.EnterContract(contract); err != nil {
		t.Fatalf("enter: %v", err)
	}

	if _, _, err := ctx.UseContractAssets(); err != nil {
		t.Fatalf("use assets: %v", err)
	}
	if err := ctx.GenerateOutput(contract, vmval.NewU256FromUint64(1000)); err != nil {
		t.Fatalf("generate output: %v", err)
	}
	if err := pool.UpdateContractAsset(contract, state.OutputRef{1: 1}, state.AssetOutput{LockupScript: contract, Tokens: map[state.TokenID]vmval.Value{}}); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if err := ctx.FinalCheck(); err != nil {
		t.Errorf("FinalCheck after flushing = %v, want nil", err)
	}
	if len(ctx.Outputs) != 1 {
		t.Errorf("generated outputs = %d, want 1", len(ctx.Outputs))
	}
}

func TestStatefulCtx_FinalCheck_FailsWithoutFlush(t *testing.T) {
	var contract vmval.Addr
	contract.Hash[0] = 4
	pool := seedTestContract(t, contract, nil, 1000)
	ctx := NewStatefulCtx(10000, BlockEnv{}, &TxEnv{}, pool, state.NewBalances())
	if _, err := ctx.EnterContract(contract); err != nil {
		t.Fatalf("enter: %v", err)
	}
	if _, _, err := ctx.UseContractAssets(); err != nil {
		t.Fatalf("use assets: %v", err)
	}
	if err := ctx.FinalCheck(); err != vm.ErrContractAssetUnflushed {
		t.Fatalf("FinalCheck = %v, want ErrContractAssetUnflushed", err)
	}
}

func TestStatefulCtx_EmitLog(t *testing.T) {
	var contract vmval.Addr
	contract.Hash[0] = 5
	pool := seedTestContract(t, contract, nil, 0)
	ctx := NewStatefulCtx(10000, BlockEnv{}, &TxEnv{}, pool, state.NewBalances())
	if _, err := ctx.EnterContract(contract); err != nil {
		t.Fatalf("enter: %v", err)
	}
	if err := ctx.EmitLog([]byte("event-id"), []vmval.Value{vmval.NewU256FromUint64(1)}); err != nil {
		t.Fatalf("emit: %v", err)
	}
	if len(ctx.Logs) != 1 || ctx.Logs[0].ContractAddr != contract {
		t.Fatalf("logs = %+v", ctx.Logs)
	}
}
