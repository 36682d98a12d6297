package state

import (
	"crypto/sha256"
	"testing"

	"github.com/alephium/alphvm/serialize"
	"github.com/alephium/alphvm/vm"
	"github.com/alephium/alphvm/vmval"
)

func newTestWorldState(t *testing.T) *PersistedWorldState {
	t.Helper()
	return &PersistedWorldState{
		OutputTrie:   NewMemTrie(),
		ContractTrie: NewMemTrie(),
		CodeTrie:     NewMemTrie(),
	}
}

func sampleCode(t *testing.T) (vm.StatefulContract, [32]byte) {
	t.Helper()
	code, err := vm.NewStatefulContract(1, []vm.Method{
		{IsPublic: true, ReturnLength: 1, Instrs: []vm.Instruction{vm.NewLoadField(0), vm.NewReturn()}},
	})
	if err != nil {
		t.Fatalf("build contract: %v", err)
	}
	encoded, err := serialize.EncodeStatefulContract(code)
	if err != nil {
		t.Fatalf("encode contract: %v", err)
	}
	return code, sha256.Sum256(encoded)
}

// TestStagingWorldState_CreateAndReloadContract exercises the full
// create -> commit -> reload cycle a deployment and a subsequent contract
// call would drive.
func TestStagingWorldState_CreateAndReloadContract(t *testing.T) {
	ws := newTestWorldState(t)
	code, codeHash := sampleCode(t)
	encoded, _ := serialize.EncodeStatefulContract(code)
	if err := ws.CodeTrie.Put(codeHash, encoded); err != nil {
		t.Fatalf("seed code trie: %v", err)
	}

	addr := vmval.Addr{Kind: vmval.LockupContract}
	addr.Hash[0] = 5
	fields := []vmval.Value{vmval.NewU256FromUint64(9)}
	out := AssetOutput{LockupScript: addr, AlfAmount: vmval.NewU256FromUint64(100), Tokens: map[TokenID]vmval.Value{}}

	staging := ws.Staging()
	if err := staging.CreateContractUnsafe("Counter", &code, codeHash, fields, addr, OutputRef{}, out); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := staging.GetContract(addr); err != nil {
		t.Fatalf("get within the same staging overlay: %v", err)
	}

	committed, err := staging.Commit()
	if err != nil {
		t.Fatalf("commit: %v", err)
	}

	reloaded := committed.Staging()
	cs, err := reloaded.GetContract(addr)
	if err != nil {
		t.Fatalf("get after reload: %v", err)
	}
	if cs == nil {
		t.Fatalf("contract not found after commit+reload")
	}
	if cs.ID != "Counter" {
		t.Errorf("id = %q, want Counter", cs.ID)
	}
	if len(cs.Fields) != 1 || !cs.Fields[0].Equal(fields[0]) {
		t.Errorf("fields = %+v, want %+v", cs.Fields, fields)
	}
}

func TestStagingWorldState_GetContract_NotFound(t *testing.T) {
	ws := newTestWorldState(t)
	staging := ws.Staging()
	var addr vmval.Addr
	cs, err := staging.GetContract(addr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cs != nil {
		t.Errorf("expected a nil contract for an unknown address")
	}
}

func TestStagingWorldState_RemoveContract_MasksBase(t *testing.T) {
	ws := newTestWorldState(t)
	code, codeHash := sampleCode(t)
	encoded, _ := serialize.EncodeStatefulContract(code)
	ws.CodeTrie.Put(codeHash, encoded)

	var addr vmval.Addr
	addr.Hash[0] = 1
	out := AssetOutput{LockupScript: addr, Tokens: map[TokenID]vmval.Value{}}
	staging := ws.Staging()
	staging.CreateContractUnsafe("X", &code, codeHash, nil, addr, OutputRef{}, out)
	ws2, err := staging.Commit()
	if err != nil {
		t.Fatalf("commit: %v", err)
	}

	staging2 := ws2.Staging()
	if err := staging2.RemoveContract(addr); err != nil {
		t.Fatalf("remove: %v", err)
	}
	cs, err := staging2.GetContract(addr)
	if err != nil {
		t.Fatalf("get after remove: %v", err)
	}
	if cs != nil {
		t.Errorf("expected removed contract to read back as nil within the same overlay")
	}
}

// TestStagingWorldState_CommitLeavesBaseSnapshotUntouched pins the
// persisted/staging split: Commit must return a new, independent snapshot
// rather than mutating the one staging was built over, so any other holder
// of the original base still sees its original root.
func TestStagingWorldState_CommitLeavesBaseSnapshotUntouched(t *testing.T) {
	ws := newTestWorldState(t)

	code, codeHash := sampleCode(t)
	encoded, _ := serialize.EncodeStatefulContract(code)
	ws.CodeTrie.Put(codeHash, encoded)
	before := ws.Root()

	var addr vmval.Addr
	addr.Hash[0] = 6
	out := AssetOutput{LockupScript: addr, Tokens: map[TokenID]vmval.Value{}}

	staging := ws.Staging()
	if err := staging.CreateContractUnsafe("Z", &code, codeHash, nil, addr, OutputRef{}, out); err != nil {
		t.Fatalf("create: %v", err)
	}
	committed, err := staging.Commit()
	if err != nil {
		t.Fatalf("commit: %v", err)
	}

	if got := ws.Root(); got != before {
		t.Errorf("base snapshot root changed after Commit: got %x, want %x", got, before)
	}
	if committed == ws {
		t.Errorf("Commit returned the same *PersistedWorldState the staging overlay was built from")
	}
	if committed.Root() == before {
		t.Errorf("committed snapshot's root should differ from the pre-commit base root")
	}
}

// TestPersistedWorldState_DiscardedStagingLeavesRootUnchanged backs the
// staging-isolation property: writes buffered in a StagingWorldState
// that is never Commit-ed never reach the persisted tries.
func TestPersistedWorldState_DiscardedStagingLeavesRootUnchanged(t *testing.T) {
	ws := newTestWorldState(t)
	before := ws.Root()

	staging := ws.Staging()
	code, codeHash := sampleCode(t)
	var addr vmval.Addr
	addr.Hash[0] = 9
	staging.CreateContractUnsafe("Y", &code, codeHash, nil, addr, OutputRef{}, AssetOutput{LockupScript: addr, Tokens: map[TokenID]vmval.Value{}})
	// staging is discarded without Commit, exactly as a dry run does.

	if got := ws.Root(); got != before {
		t.Errorf("Root changed from an uncommitted staging overlay: got %x, want %x", got, before)
	}
}
