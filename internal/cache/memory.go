package cache

import (
	"bytes"
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryCache holds validation results for the life of the process.
// Values are copied on the way in and out; callers may reuse their buffers.
type MemoryCache struct {
	items  *gocache.Cache
	hits   atomic.Int64
	misses atomic.Int64
}

// NewMemoryCache creates a memory cache; a zero ttl passed to Set uses defaultTTL
func NewMemoryCache(defaultTTL, sweep time.Duration) *MemoryCache {
	return &MemoryCache{items: gocache.New(defaultTTL, sweep)}
}

func (c *MemoryCache) Get(key string) ([]byte, bool) {
	raw, ok := c.items.Get(key)
	if !ok {
		c.misses.Add(1)
		return nil, false
	}
	payload, ok := raw.([]byte)
	if !ok {
		c.items.Delete(key)
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return bytes.Clone(payload), true
}

func (c *MemoryCache) Set(key string, value []byte, ttl time.Duration) error {
	expiry := gocache.DefaultExpiration
	if ttl > 0 {
		expiry = ttl
	}
	c.items.Set(key, bytes.Clone(value), expiry)
	return nil
}

func (c *MemoryCache) Delete(key string) error {
	c.items.Delete(key)
	return nil
}

func (c *MemoryCache) Clear() error {
	c.items.Flush()
	c.hits.Store(0)
	c.misses.Store(0)
	return nil
}

// Stats returns the hit and miss counts since creation or the last Clear
func (c *MemoryCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}
