package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/gilad-rubin/hypergraph-sub004/node"
)

// DiskCache persists one JSON file per cache key under a root directory.
// Entries are written independently, so a single corrupt or evicted entry
// never affects the rest of the cache.
type DiskCache struct {
	mu   sync.Mutex
	root string
}

// NewDiskCache builds a DiskCache rooted at dir, creating it if necessary.
func NewDiskCache(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{root: dir}, nil
}

func (c *DiskCache) Get(nodeHash, inputDigest string) (node.Values, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(c.path(nodeHash, inputDigest))
	if err != nil {
		return nil, false
	}
	var v node.Values
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, false
	}
	return v, true
}

func (c *DiskCache) Put(nodeHash, inputDigest string, out node.Values) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := json.Marshal(out)
	if err != nil {
		return
	}
	_ = os.WriteFile(c.path(nodeHash, inputDigest), data, 0o644)
}

func (c *DiskCache) path(nodeHash, inputDigest string) string {
	return filepath.Join(c.root, key(nodeHash, inputDigest)+".json")
}
