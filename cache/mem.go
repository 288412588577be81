package cache

import (
	"sync"

	"github.com/gilad-rubin/hypergraph-sub004/node"
)

// MemCache is an in-memory cache.Backend, thread-safe for concurrent access
// by a concurrent-mode Scheduler's superstep batches: a mutex-guarded map
// keyed by a composite string. Intended for testing and single-process
// use.
type MemCache struct {
	mu      sync.RWMutex
	entries map[string]node.Values
}

// NewMemCache builds an empty MemCache.
func NewMemCache() *MemCache {
	return &MemCache{entries: make(map[string]node.Values)}
}

func (c *MemCache) Get(nodeHash, inputDigest string) (node.Values, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[key(nodeHash, inputDigest)]
	return v, ok
}

func (c *MemCache) Put(nodeHash, inputDigest string, out node.Values) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key(nodeHash, inputDigest)] = out
}

func key(nodeHash, inputDigest string) string { return nodeHash + ":" + inputDigest }
