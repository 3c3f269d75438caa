// Package cache provides the in-memory TTL cache used by the dedup
// engine. It wraps patrickmn/go-cache and adds prefix invalidation so a
// merge can drop every finder result in one call.
package cache

import (
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Cache is a TTL cache safe for concurrent use. Writes are
// last-write-wins.
type Cache struct {
	store *gocache.Cache
}

// New creates a cache. defaultTTL applies when Set receives a
// non-positive TTL; cleanupInterval is how often expired entries are
// evicted from memory.
func New(defaultTTL, cleanupInterval time.Duration) *Cache {
	return &Cache{
		store: gocache.New(defaultTTL, cleanupInterval),
	}
}

// Get retrieves a value from the cache.
func (c *Cache) Get(key string) (any, bool) {
	return c.store.Get(key)
}

// Set stores a value with the given TTL.
func (c *Cache) Set(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = gocache.DefaultExpiration
	}
	c.store.Set(key, value, ttl)
}

// DeletePrefix removes every entry whose key starts with prefix.
func (c *Cache) DeletePrefix(prefix string) {
	for key := range c.store.Items() {
		if strings.HasPrefix(key, prefix) {
			c.store.Delete(key)
		}
	}
}

// Clear removes all items from the cache.
func (c *Cache) Clear() {
	c.store.Flush()
}

// ItemCount returns the number of items in the cache, including expired
// items not yet evicted.
func (c *Cache) ItemCount() int {
	return c.store.ItemCount()
}
