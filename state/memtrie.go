package state

import (
	"sort"
	"sync"

	"golang.org/x/crypto/blake2b"
)

// MemTrie is a trivial in-memory Trie used by tests and the gas-metered
// emulator's scratch runs. It is not a Merkle-Patricia trie — the
// production node's real trie-backed store is out of scope — but it
// satisfies the same seam so callers can't tell the difference except for
// the Root() commitment being a simple content hash of the key set.
type MemTrie struct {
	mu   sync.RWMutex
	data map[[32]byte][]byte
}

func NewMemTrie() *MemTrie {
	return &MemTrie{data: map[[32]byte][]byte{}}
}

func (t *MemTrie) Get(key [32]byte) ([]byte, bool, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.data[key]
	if !ok {
		return nil, false, nil
	}
	cp := make([]byte, len(v))
	copy(cp, v)
	return cp, true, nil
}

func (t *MemTrie) Put(key [32]byte, value []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	cp := make([]byte, len(value))
	copy(cp, value)
	t.data[key] = cp
	return nil
}

func (t *MemTrie) Delete(key [32]byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.data, key)
	return nil
}

// Root hashes the sorted key/value set. Deterministic and order-independent,
// which is all the staging-isolation property test needs: a dry run
// that touches nothing leaves Root() unchanged.
func (t *MemTrie) Root() [32]byte {
	t.mu.RLock()
	defer t.mu.RUnlock()
	keys := make([][32]byte, 0, len(t.data))
	for k := range t.data {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		for b := 0; b < 32; b++ {
			if keys[i][b] != keys[j][b] {
				return keys[i][b] < keys[j][b]
			}
		}
		return false
	})
	h, _ := blake2b.New256(nil)
	for _, k := range keys {
		h.Write(k[:])
		h.Write(t.data[k])
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// Clone deep-copies the trie, useful for constructing a fresh scratch
// snapshot for the emulator's dry runs without disturbing a shared base.
func (t *MemTrie) Clone() Trie {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := NewMemTrie()
	for k, v := range t.data {
		cp := make([]byte, len(v))
		copy(cp, v)
		out.data[k] = cp
	}
	return out
}
