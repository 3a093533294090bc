package cache

import (
	"sync"
	"sync/atomic"
	"time"
)

// Config configures cache behavior
type Config struct {
	MaxSize int
}

// Stats tracks cache performance metrics
type Stats struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Sets      int64 `json:"sets"`
	Deletes   int64 `json:"deletes"`
	Evictions int64 `json:"evictions"`
	Size      int   `json:"size"`
}

// Memory is an in-memory map whose entries carry their own expiry.
type Memory[K comparable, V any] struct {
	entries map[K]entry[V]
	mu      sync.RWMutex
	maxSize int
	now     func() time.Time

	// counters
	hits      int64
	misses    int64
	sets      int64
	deletes   int64
	evictions int64
}

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// NewMemory creates a new in-memory cache
func NewMemory[K comparable, V any](c Config) *Memory[K, V] {
	if c.MaxSize == 0 {
		c.MaxSize = 10000
	}

	return &Memory[K, V]{
		entries: make(map[K]entry[V]),
		maxSize: c.MaxSize,
		now:     time.Now,
	}
}

// Get returns the value for key if present and not expired
func (c *Memory[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	e, exists := c.entries[key]
	c.mu.RUnlock()

	if !exists {
		atomic.AddInt64(&c.misses, 1)
		var zero V
		return zero, false
	}

	if now := c.now(); !now.Before(e.expiresAt) {
		atomic.AddInt64(&c.misses, 1)
		c.dropExpired(key, now)
		var zero V
		return zero, false
	}

	atomic.AddInt64(&c.hits, 1)
	return e.value, true
}

// Set stores value under key until expiresAt
func (c *Memory[K, V]) Set(key K, value V, expiresAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxSize {
		c.purgeLocked(c.now())
		if len(c.entries) >= c.maxSize {
			c.evictLocked()
		}
	}

	c.entries[key] = entry[V]{value: value, expiresAt: expiresAt}
	atomic.AddInt64(&c.sets, 1)
}

// Delete removes key from cache
func (c *Memory[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, existed := c.entries[key]; existed {
		delete(c.entries, key)
		atomic.AddInt64(&c.deletes, 1)
	}
}

// dropExpired deletes key only if the entry under it is still expired at
// now; a Set may have replaced it since the read lock was released.
func (c *Memory[K, V]) dropExpired(key K, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, exists := c.entries[key]; exists && !now.Before(e.expiresAt) {
		delete(c.entries, key)
		atomic.AddInt64(&c.evictions, 1)
	}
}

// Purge drops every entry expired at now and returns how many it dropped
func (c *Memory[K, V]) Purge(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.purgeLocked(now)
}

func (c *Memory[K, V]) purgeLocked(now time.Time) int {
	n := 0
	for k, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, k)
			n++
		}
	}
	atomic.AddInt64(&c.evictions, int64(n))
	return n
}

// evictLocked drops the entry closest to expiry
func (c *Memory[K, V]) evictLocked() {
	var (
		victim K
		soonest time.Time
		found   bool
	)
	for k, e := range c.entries {
		if !found || e.expiresAt.Before(soonest) {
			victim, soonest, found = k, e.expiresAt, true
		}
	}
	if found {
		delete(c.entries, victim)
		atomic.AddInt64(&c.evictions, 1)
	}
}

// Len returns the number of cached entries, expired or not
func (c *Memory[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns cache statistics
func (c *Memory[K, V]) Stats() Stats {
	return Stats{
		Hits:      atomic.LoadInt64(&c.hits),
		Misses:    atomic.LoadInt64(&c.misses),
		Sets:      atomic.LoadInt64(&c.sets),
		Deletes:   atomic.LoadInt64(&c.deletes),
		Evictions: atomic.LoadInt64(&c.evictions),
		Size:      c.Len(),
	}
}
