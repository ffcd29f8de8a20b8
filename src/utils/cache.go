package utils

import (
	"sync"
	"time"
)

// purgeThreshold is the entry count at which Set sweeps out expired entries.
const purgeThreshold = 1024

type cacheEntry[T any] struct {
	value      T
	expiration time.Time
}

// Cache is an in-process key/value cache whose entries expire after a fixed TTL.
type Cache[T any] struct {
	entries map[string]cacheEntry[T]
	ttl     time.Duration
	now     func() time.Time
	mutex   sync.RWMutex
}

// NewCache initializes an empty cache whose entries live for ttl.
func NewCache[T any](ttl time.Duration) *Cache[T] {
	return &Cache[T]{
		entries: map[string]cacheEntry[T]{},
		ttl:     ttl,
		now:     time.Now,
	}
}

// Set stores value under key, replacing any previous entry.
func (c *Cache[T]) Set(key string, value T) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := c.now()
	if len(c.entries) >= purgeThreshold {
		c.purgeLocked(now)
	}
	c.entries[key] = cacheEntry[T]{
		value:      value,
		expiration: now.Add(c.ttl),
	}
}

// Get retrieves the cached value, reporting a miss for absent or expired keys.
func (c *Cache[T]) Get(key string) (T, bool) {
	c.mutex.RLock()
	entry, ok := c.entries[key]
	c.mutex.RUnlock()

	if !ok || c.now().After(entry.expiration) {
		var zero T
		return zero, false
	}
	return entry.value, true
}

// Delete removes key from the cache.
func (c *Cache[T]) Delete(key string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	delete(c.entries, key)
}

// Len reports the number of stored entries, expired ones included.
func (c *Cache[T]) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return len(c.entries)
}

func (c *Cache[T]) purgeLocked(now time.Time) {
	for key, entry := range c.entries {
		if now.After(entry.expiration) {
			delete(c.entries, key)
		}
	}
}
