package rest

import (
	"sync"
	"time"
)

const defaultProductTTL = 30 * time.Second

// productCache keeps recent product listings keyed by the filter that
// produced them. Entries expire after the TTL and are dropped on the read
// that finds them stale. A zero TTL disables caching entirely.
type productCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]productCacheEntry
}

type productCacheEntry struct {
	products []Product
	expires  time.Time
}

func newProductCache(ttl time.Duration) *productCache {
	return &productCache{
		ttl:     ttl,
		entries: make(map[string]productCacheEntry),
	}
}

func (c *productCache) get(key string) ([]Product, bool) {
	if c.ttl <= 0 {
		return nil, false
	}

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expires) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false
	}
	return entry.products, true
}

func (c *productCache) put(key string, products []Product) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	c.entries[key] = productCacheEntry{
		products: products,
		expires:  time.Now().Add(c.ttl),
	}
	c.mu.Unlock()
}

func (c *productCache) invalidate() {
	c.mu.Lock()
	c.entries = make(map[string]productCacheEntry)
	c.mu.Unlock()
}
