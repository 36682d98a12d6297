// Package pruner reclaims trie storage from blocks old enough to fall
// outside the retained window: it builds a bloom filter over every
// node hash still reachable from a recent block, then streams the raw trie
// store deleting anything the filter doesn't recognize.
//
// github.com/holiman/bloomfilter/v2 arrives as a transitive dependency
// (pulled in indirectly through go-ethereum) but never gets a direct import
// site elsewhere. This package gives it one: an 80M-hash, 1%-false-positive
// filter is exactly the shape that library exists for (see DESIGN.md).
package pruner

import (
	"fmt"

	bloomfilter "github.com/holiman/bloomfilter/v2"

	"github.com/alephium/alphvm/state"
)

// RetainedBlocks is how many trailing blocks per chain a Pruner keeps
// reachable trie nodes for.
const RetainedBlocks = 128

// BloomExpectedItems and BloomFalsePositiveRate size the filter.
const (
	BloomExpectedItems     = 80_000_000
	BloomFalsePositiveRate = 0.01
	nodeDeleteBatchSize    = 256
)

// NodeStore is the raw, hash-addressed backing store a Trie sits on top of.
// Pruner operates below the Trie abstraction so it can enumerate and delete
// nodes the Trie interface has no vocabulary for.
type NodeStore interface {
	// Iterate calls fn once per stored node hash, in undefined order.
	// Iteration stops and returns fn's error, if any, immediately.
	Iterate(fn func(hash [32]byte) error) error
	Delete(hash [32]byte) error
}

// Chain is one chain's reachable-block history, newest last, from which the
// live node set gets computed.
type Chain struct {
	Blocks []BlockNodes
}

// BlockNodes is the set of trie node hashes a single block's world-state
// root reaches, along with the contract-code hashes it must never delete
// even if a bloom false positive would otherwise let them through.
type BlockNodes struct {
	Height          int64
	ReachableHashes [][32]byte
	ContractCode    [][32]byte
}

// Pruner deletes trie nodes unreachable from the retained window across all
// tracked chains.
type Pruner struct {
	store NodeStore
}

// New builds a Pruner over store.
func New(store NodeStore) *Pruner {
	return &Pruner{store: store}
}

// buildLiveFilter constructs a bloom filter over the reachable-hash set of
// the most recent chainparams.RetargetWindow-independent retained window
//, plus every hash a contract's code trie needs
// to keep — persisted contract code is immutable and must never be
// collapsed by a false-positive miss, so its hashes are folded into the
// filter unconditionally regardless of block height.
func (p *Pruner) buildLiveFilter(chains []Chain) (*bloomfilter.Filter, error) {
	filter, err := bloomfilter.NewOptimal(BloomExpectedItems, BloomFalsePositiveRate)
	if err != nil {
		return nil, fmt.Errorf("pruner: allocate bloom filter: %w", err)
	}
	for _, chain := range chains {
		for _, block := range chain.Blocks {
			for _, h := range block.ContractCode {
				filter.AddHash(hashToFingerprint(h))
			}
		}
		retained := chain.Blocks
		if len(retained) > RetainedBlocks {
			retained = retained[len(retained)-RetainedBlocks:]
		}
		for _, block := range retained {
			for _, h := range block.ReachableHashes {
				filter.AddHash(hashToFingerprint(h))
			}
		}
	}
	return filter, nil
}

// Prune deletes every node in the store that the retained window's bloom
// filter does not recognize, streaming deletions in fixed-size batches
// so a single pass never buffers the whole store in memory. It returns
// the number of nodes deleted.
//
// A node is never deserialized to check whether it's immutable contract
// state before deletion — the filter already folds contract-code hashes in
// unconditionally, so a state.ContractState blob surviving the filter check
// is enough; Prune never needs to know a node's shape, only its hash.
func (p *Pruner) Prune(chains []Chain) (int, error) {
	filter, err := p.buildLiveFilter(chains)
	if err != nil {
		return 0, err
	}

	deleted := 0
	batch := make([][32]byte, 0, nodeDeleteBatchSize)
	flush := func() error {
		for _, h := range batch {
			if err := p.store.Delete(h); err != nil {
				return fmt.Errorf("pruner: delete node %x: %w", h, err)
			}
			deleted++
		}
		batch = batch[:0]
		return nil
	}

	err = p.store.Iterate(func(hash [32]byte) error {
		if filter.ContainsHash(hashToFingerprint(hash)) {
			return nil
		}
		batch = append(batch, hash)
		if len(batch) >= nodeDeleteBatchSize {
			return flush()
		}
		return nil
	})
	if err != nil {
		return deleted, err
	}
	if err := flush(); err != nil {
		return deleted, err
	}
	return deleted, nil
}

func hashToFingerprint(h [32]byte) uint64 {
	var v uint64
	for i := 0; i < 8; i++ {
		v = v<<8 | uint64(h[i])
	}
	return v
}

// ReachableFrom records the root hashes of a persisted world state's output,
// contract and code tries as the live set for that block. It does not walk
// below the roots: only the three root hashes are collected, not the hashes
// of the nodes under them. It uses nothing but state.Trie's Root, so it
// stays agnostic to the concrete trie implementation.
func ReachableFrom(ws *state.PersistedWorldState) BlockNodes {
	var nodes BlockNodes
	nodes.ReachableHashes = append(nodes.ReachableHashes, ws.OutputTrie.Root())
	nodes.ReachableHashes = append(nodes.ReachableHashes, ws.ContractTrie.Root())
	nodes.ReachableHashes = append(nodes.ReachableHashes, ws.CodeTrie.Root())
	return nodes
}
