package state

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/alephium/alphvm/vm"
)

// lruCodeCache is a thin wrapper around hashicorp/golang-lru so codec.go can
// swap the eviction policy without touching call sites.
type lruCodeCache struct {
	cache *lru.Cache[[32]byte, *vm.StatefulContract]
}

func newLRUCodeCache(size int) *lruCodeCache {
	c, err := lru.New[[32]byte, *vm.StatefulContract](size)
	if err != nil {
		// Only returns an error for a non-positive size, which is a
		// programmer error at a fixed call site.
		panic(err)
	}
	return &lruCodeCache{cache: c}
}

func (c *lruCodeCache) get(hash [32]byte) (*vm.StatefulContract, bool) {
	return c.cache.Get(hash)
}

func (c *lruCodeCache) add(hash [32]byte, code *vm.StatefulContract) {
	c.cache.Add(hash, code)
}
