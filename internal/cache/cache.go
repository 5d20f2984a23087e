package cache

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"
)

// DefaultMaxEntries bounds a cache created with a non-positive size.
const DefaultMaxEntries = 1024

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Cache is a concurrency-safe expiring cache with an LRU size bound.
type Cache[K comparable, V any] struct {
	mu      sync.Mutex
	name    string
	ttl     time.Duration
	entries *simplelru.LRU[K, entry[V]]
	now     func() time.Time
}

// New creates a [Cache]. ttl is the lifetime used by [Cache.SetDefault];
// maxEntries bounds the number of resident entries, least recently used
// first out.
func New[K comparable, V any](name string, ttl time.Duration, maxEntries int) *Cache[K, V] {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	// NewLRU only fails for a non-positive size, which is ruled out above.
	lru, _ := simplelru.NewLRU[K, entry[V]](maxEntries, nil)
	return &Cache[K, V]{
		name:    name,
		ttl:     ttl,
		entries: lru,
		now:     time.Now,
	}
}

// Name identifies the cache in logs.
func (c *Cache[K, V]) Name() string {
	return c.name
}

// TTL returns the default lifetime of entries.
func (c *Cache[K, V]) TTL() time.Duration {
	return c.ttl
}

// Get returns the value for key if it exists and has not expired.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	e, ok := c.entries.Peek(key)
	if !ok || !c.now().Before(e.expiresAt) {
		return zero, false
	}
	// refresh recency only for live entries
	c.entries.Get(key)
	return e.value, true
}

// Set stores value under key for ttl.
func (c *Cache[K, V]) Set(key K, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries.Add(key, entry[V]{value: value, expiresAt: c.now().Add(ttl)})
}

// SetDefault stores value under key for the cache's default TTL.
func (c *Cache[K, V]) SetDefault(key K, value V) {
	c.Set(key, value, c.ttl)
}

// Delete removes key. Missing keys are ignored.
func (c *Cache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries.Remove(key)
}

// Len returns the number of resident entries, expired ones included.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.entries.Len()
}

// Purge removes every entry.
func (c *Cache[K, V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries.Purge()
}

// Sweep removes expired entries and returns how many were removed.
func (c *Cache[K, V]) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for _, key := range c.entries.Keys() {
		e, ok := c.entries.Peek(key)
		if ok && !now.Before(e.expiresAt) {
			c.entries.Remove(key)
			removed++
		}
	}
	return removed
}
