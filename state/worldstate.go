// Package state implements the world-state model: a mutable staging
// overlay over a persisted, trie-backed snapshot, plus the per-execution
// contract pool and its asset-use state machine.
package state

import (
	"bytes"
	"fmt"
	"sync"

	"golang.org/x/crypto/blake2b"

	"github.com/alephium/alphvm/vm"
	"github.com/alephium/alphvm/vmval"
)

// TokenID identifies a fungible token minted by a contract.
type TokenID [32]byte

// OutputRef is a deterministic reference to a transaction output, derived
// from (txId, output, index).
type OutputRef [32]byte

// AssetOutput is a UTXO: a lockup script plus the ALF and token amounts it
// carries.
type AssetOutput struct {
	LockupScript vmval.Addr
	AlfAmount    vmval.Value // U256
	Tokens       map[TokenID]vmval.Value
}

// ContractState is a deployed contract's persisted record: its immutable
// code, its mutable field values, and the asset output backing it.
type ContractState struct {
	ID        vmval.ContractID
	Address   vmval.Addr
	Code      *vm.StatefulContract
	CodeHash  [32]byte
	Fields    []vmval.Value
	OutputRef OutputRef
	Output    AssetOutput
}

// StateHash derives a content hash over the contract's field values and
// code hash. It is not a full Merkle proof — the persistent trie the
// production node uses is out of scope — but it gives staging/commit a
// stable notion of "did this contract's state change".
func (c *ContractState) StateHash() [32]byte {
	var buf bytes.Buffer
	buf.Write(c.CodeHash[:])
	for _, f := range c.Fields {
		fmt.Fprintf(&buf, "%s", f.String())
	}
	return blake2b.Sum256(buf.Bytes())
}

// Trie is the minimal persisted key-value abstraction the world state is
// layered over. A trie-backed store is assumed to exist; this interface is
// the seam a real Merkle-Patricia/Sparse-Merkle trie implementation would
// satisfy. A trivial in-memory implementation is provided for tests and the
// emulator's scratch runs.
type Trie interface {
	Get(key [32]byte) ([]byte, bool, error)
	Put(key [32]byte, value []byte) error
	Delete(key [32]byte) error
	Root() [32]byte
	// Clone deep-copies the trie so Commit can apply writes to an
	// independent copy instead of mutating the snapshot staging was built
	// from.
	Clone() Trie
}

// PersistedWorldState is an immutable snapshot rooted at a Merkle root,
// backing three sparse tries: outputState (UTXOs), contractState (contract
// records), codeState (code hash -> code).
type PersistedWorldState struct {
	OutputTrie   Trie
	ContractTrie Trie
	CodeTrie     Trie
}

// Staging returns a mutable copy-on-write overlay over this snapshot.
func (p *PersistedWorldState) Staging() *StagingWorldState {
	return &StagingWorldState{
		base:          p,
		contracts:     map[vmval.Addr]*ContractState{},
		removed:       map[vmval.Addr]bool{},
		codeCache:     newCodeCache(defaultCodeCacheSize),
		assetStateFor: map[vmval.Addr]ContractAssetState{},
	}
}

// Root reports the current persisted root; used by the staging-isolation
// property test to assert a dry run left it untouched.
func (p *PersistedWorldState) Root() [32]byte {
	// A real implementation would combine the three trie roots into one
	// commitment; XOR-folding them is sufficient to detect any mutation for
	// our purposes without implementing an actual Merkle combiner.
	var out [32]byte
	for i, t := range []Trie{p.OutputTrie, p.ContractTrie, p.CodeTrie} {
		_ = i
		r := t.Root()
		for j := range out {
			out[j] ^= r[j]
		}
	}
	return out
}

// StagingWorldState is the mutable overlay a single transaction execution
// owns exclusively. Reads fall through to the base snapshot; writes are
// buffered here until Commit.
type StagingWorldState struct {
	mu   sync.Mutex
	base *PersistedWorldState

	contracts map[vmval.Addr]*ContractState
	removed   map[vmval.Addr]bool
	codeCache *codeCache

	assetStateFor map[vmval.Addr]ContractAssetState
}

func addrKey(a vmval.Addr) [32]byte { return a.Hash }

// GetContract loads a contract by address, checking the overlay before
// falling through to the persisted contract trie. IO failures are reported
// as IOErrorLoadContract, distinct from "not found" (a nil, nil result).
func (s *StagingWorldState) GetContract(addr vmval.Addr) (*ContractState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.removed[addr] {
		return nil, nil
	}
	if c, ok := s.contracts[addr]; ok {
		return c, nil
	}
	raw, found, err := s.base.ContractTrie.Get(addrKey(addr))
	if err != nil {
		return nil, vm.IOError{Kind: vm.IOErrorLoadContract, Cause: err}
	}
	if !found {
		return nil, nil
	}
	c, err := decodeContractState(raw, s.codeCache, s.base.CodeTrie)
	if err != nil {
		return nil, vm.IOError{Kind: vm.IOErrorLoadContract, Cause: err}
	}
	s.contracts[addr] = c
	return c, nil
}

// CreateContractUnsafe registers a newly deployed contract in the overlay
// without any of the checks (duplicate address, code-size limits, ...) a
// caller performing an actual on-chain create is required to have already
// run — mirroring the "Unsafe" naming convention for a primitive that
// trusts its caller.
func (s *StagingWorldState) CreateContractUnsafe(
	id vmval.ContractID,
	code *vm.StatefulContract,
	codeHash [32]byte,
	fields []vmval.Value,
	addr vmval.Addr,
	outputRef OutputRef,
	output AssetOutput,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contracts[addr] = &ContractState{
		ID: id, Address: addr, Code: code, CodeHash: codeHash,
		Fields: fields, OutputRef: outputRef, Output: output,
	}
	delete(s.removed, addr)
	s.assetStateFor[addr] = NotUsed
	return nil
}

// UpdateContract overwrites a contract's backing output reference/output
// (its asset moved) after its fields were mutated in place via the
// ContractPool.
func (s *StagingWorldState) UpdateContract(addr vmval.Addr, outputRef OutputRef, output AssetOutput) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.contracts[addr]
	if !ok {
		return vm.IOError{Kind: vm.IOErrorUpdateState, Cause: fmt.Errorf("contract %s not loaded", addr)}
	}
	c.OutputRef = outputRef
	c.Output = output
	return nil
}

// RemoveContract destroys a contract: it is deleted from the overlay and
// masked from the base snapshot for the remainder of this execution.
func (s *StagingWorldState) RemoveContract(addr vmval.Addr) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.contracts, addr)
	delete(s.assetStateFor, addr)
	s.removed[addr] = true
	return nil
}

// GetPreOutputsForVM resolves the previous outputs an in-flight
// transaction's inputs reference. In this scratch implementation, the
// transaction is expected to already carry its resolved prevOutputs (as a
// real node's mutable group view would provide); this method exists to give
// callers the same failure surface (IOErrorLoadOutputs) a real trie-backed
// lookup would have.
func (s *StagingWorldState) GetPreOutputsForVM(prevOutputs []AssetOutput, err error) ([]AssetOutput, error) {
	if err != nil {
		return nil, vm.IOError{Kind: vm.IOErrorLoadOutputs, Cause: err}
	}
	return prevOutputs, nil
}

// Commit folds the overlay's contract writes into a fresh copy of the
// contract trie and returns a new, independent snapshot — the base
// PersistedWorldState staging was built over is never mutated, so any other
// holder of it keeps seeing its original root. OutputTrie and CodeTrie carry
// over unchanged since Commit never writes to them. The staging instance
// must not be reused afterwards.
func (s *StagingWorldState) Commit() (*PersistedWorldState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	contractTrie := s.base.ContractTrie.Clone()
	for addr, c := range s.contracts {
		enc := encodeContractState(c)
		if err := contractTrie.Put(addrKey(addr), enc); err != nil {
			return nil, vm.IOError{Kind: vm.IOErrorUpdateState, Cause: err}
		}
	}
	for addr := range s.removed {
		if err := contractTrie.Delete(addrKey(addr)); err != nil {
			return nil, vm.IOError{Kind: vm.IOErrorUpdateState, Cause: err}
		}
	}
	return &PersistedWorldState{
		OutputTrie:   s.base.OutputTrie,
		ContractTrie: contractTrie,
		CodeTrie:     s.base.CodeTrie,
	}, nil
}
