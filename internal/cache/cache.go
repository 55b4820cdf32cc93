// Package cache implements the in-memory TTL store the services read
// through. Expired entries are not evicted; they stop being served by Get but
// stay reachable through GetWithMeta until the next Set replaces them, which
// is what the stale-fallback read path depends on. The keyspace is small and
// bounded, so retention costs nothing.
package cache

import (
	"strings"
	"sync"
	"time"

	"github.com/everdeen7336/airport-live/internal/clock"
)

// Entry pairs a cached value with its write time. Returned by GetWithMeta so
// the stale-fallback path can report how old the data is.
type Entry[T any] struct {
	Data      T
	Timestamp time.Time
}

type item[T any] struct {
	data      T
	timestamp time.Time
	expiresAt time.Time
	// version orders writes for SetIfNewer. It is the record's own
	// timestamp, not the write time, so a late retry carrying old data
	// cannot clobber a fresher record.
	version time.Time
}

// Cache is a keyed TTL store. Values are whole-record replacements; the last
// writer for a key wins and readers always see a complete value.
type Cache[T any] struct {
	mu    sync.RWMutex
	items map[string]item[T]
	clk   clock.Clock
}

// New builds an empty cache against the given clock.
func New[T any](clk clock.Clock) *Cache[T] {
	return &Cache[T]{
		items: make(map[string]item[T]),
		clk:   clk,
	}
}

// Set stores value under key for ttl.
func (c *Cache[T]) Set(key string, value T, ttl time.Duration) {
	now := c.clk.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = item[T]{
		data:      value,
		timestamp: now,
		expiresAt: now.Add(ttl),
		version:   now,
	}
}

// SetIfNewer stores value under key only if no entry with a version after ts
// exists. The check and the write happen under one lock, so two scrapes
// racing on the same key cannot interleave into an older record winning.
// Returns whether the write happened.
func (c *Cache[T]) SetIfNewer(key string, value T, ttl time.Duration, ts time.Time) bool {
	now := c.clk.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	if it, ok := c.items[key]; ok && it.version.After(ts) {
		return false
	}
	c.items[key] = item[T]{
		data:      value,
		timestamp: now,
		expiresAt: now.Add(ttl),
		version:   ts,
	}
	return true
}

// Get returns the fresh value for key, or false. An expired entry reads as a
// miss but is kept for GetWithMeta.
func (c *Cache[T]) Get(key string) (T, bool) {
	now := c.clk.Now()
	c.mu.RLock()
	defer c.mu.RUnlock()
	it, ok := c.items[key]
	if !ok || now.After(it.expiresAt) {
		var zero T
		return zero, false
	}
	return it.data, true
}

// GetFresh returns the entry for key while it is still fresh, or false. One
// snapshot under one lock, so the value and its timestamp cannot come from
// different writes.
func (c *Cache[T]) GetFresh(key string) (Entry[T], bool) {
	now := c.clk.Now()
	c.mu.RLock()
	defer c.mu.RUnlock()
	it, ok := c.items[key]
	if !ok || now.After(it.expiresAt) {
		return Entry[T]{}, false
	}
	return Entry[T]{Data: it.data, Timestamp: it.timestamp}, true
}

// GetWithMeta returns the entry for key regardless of freshness. This is the
// only sanctioned path to stale data; it exists for the service layer's
// scrape-failure fallback and must not serve the hot path.
func (c *Cache[T]) GetWithMeta(key string) (Entry[T], bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	it, ok := c.items[key]
	if !ok {
		return Entry[T]{}, false
	}
	return Entry[T]{Data: it.data, Timestamp: it.timestamp}, true
}

// Invalidate removes a single key.
func (c *Cache[T]) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

// InvalidateByPrefix removes every key in a family, e.g. all forecast
// entries, without the caller knowing the exact keys.
func (c *Cache[T]) InvalidateByPrefix(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k := range c.items {
		if strings.HasPrefix(k, prefix) {
			delete(c.items, k)
			n++
		}
	}
	return n
}

// Clear drops everything.
func (c *Cache[T]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]item[T])
}

// Len reports the number of stored entries, expired ones included.
func (c *Cache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
