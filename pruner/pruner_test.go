package pruner

import "testing"

// fakeStore is a trivial in-memory NodeStore double for pruner tests.
type fakeStore struct {
	nodes map[[32]byte]bool
}

func newFakeStore(hashes ...[32]byte) *fakeStore {
	s := &fakeStore{nodes: map[[32]byte]bool{}}
	for _, h := range hashes {
		s.nodes[h] = true
	}
	return s
}

func (s *fakeStore) Iterate(fn func(hash [32]byte) error) error {
	for h := range s.nodes {
		if err := fn(h); err != nil {
			return err
		}
	}
	return nil
}

func (s *fakeStore) Delete(hash [32]byte) error {
	delete(s.nodes, hash)
	return nil
}

func hashOf(b byte) [32]byte {
	var h [32]byte
	h[0] = b
	return h
}

// TestPrune_DeletesUnreachableRetainsReachable pins the pruning contract: a
// node reachable from the retained window, or reachable as immutable
// contract code, survives; anything else is deleted.
func TestPrune_DeletesUnreachableRetainsReachable(t *testing.T) {
	reachable := hashOf(1)
	contractCode := hashOf(2)
	unreachable := hashOf(3)

	store := newFakeStore(reachable, contractCode, unreachable)
	p := New(store)

	chains := []Chain{
		{Blocks: []BlockNodes{
			{Height: 1, ReachableHashes: [][32]byte{reachable}, ContractCode: [][32]byte{contractCode}},
		}},
	}

	deleted, err := p.Prune(chains)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}
	if !store.nodes[reachable] {
		t.Errorf("reachable node was deleted")
	}
	if !store.nodes[contractCode] {
		t.Errorf("contract code node was deleted")
	}
	if store.nodes[unreachable] {
		t.Errorf("unreachable node survived pruning")
	}
}

// TestPrune_OnlyRetainsTrailingWindow verifies blocks older than
// RetainedBlocks drop out of the live set: a hash reachable only from a
// block outside the window is treated as unreachable.
func TestPrune_OnlyRetainsTrailingWindow(t *testing.T) {
	stale := hashOf(9)
	fresh := hashOf(10)

	var blocks []BlockNodes
	for i := 0; i < RetainedBlocks; i++ {
		blocks = append(blocks, BlockNodes{Height: int64(i)})
	}
	blocks[0].ReachableHashes = [][32]byte{stale}
	blocks = append(blocks, BlockNodes{Height: int64(RetainedBlocks), ReachableHashes: [][32]byte{fresh}})

	store := newFakeStore(stale, fresh)
	p := New(store)

	if _, err := p.Prune([]Chain{{Blocks: blocks}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.nodes[stale] {
		t.Errorf("hash reachable only outside the retained window survived pruning")
	}
	if !store.nodes[fresh] {
		t.Errorf("hash within the retained window was deleted")
	}
}
