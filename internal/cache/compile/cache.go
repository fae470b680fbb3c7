// Package compile caches successful compile responses. Compilation is
// deterministic, so a response can be replayed for an identical request. Runs
// are never cached.
package compile

import (
	"fmt"
	"sync/atomic"

	"github.com/enitrat/cairo-wasm/internal/gateway/contract"
	lru "github.com/hashicorp/golang-lru/v2"
)

type CacheConfig struct {
	MaxEntries int
}

func DefaultCacheConfig() CacheConfig {
	return CacheConfig{MaxEntries: 256}
}

type Cache struct {
	entries *lru.Cache[string, contract.CompileResponse]
	hits    atomic.Int64
	misses  atomic.Int64
}

func New(cfg CacheConfig) (*Cache, error) {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = DefaultCacheConfig().MaxEntries
	}
	entries, err := lru.New[string, contract.CompileResponse](cfg.MaxEntries)
	if err != nil {
		return nil, fmt.Errorf("compile cache: %w", err)
	}
	return &Cache{entries: entries}, nil
}

func (c *Cache) Get(key string) (contract.CompileResponse, bool) {
	resp, ok := c.entries.Get(key)
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return resp, ok
}

// Add stores resp. Failed responses are ignored.
func (c *Cache) Add(key string, resp contract.CompileResponse) {
	if !resp.Success || resp.Sierra == nil {
		return
	}
	c.entries.Add(key, resp)
}

func (c *Cache) Len() int {
	return c.entries.Len()
}

// Stats returns hit and miss counters since creation.
func (c *Cache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}
