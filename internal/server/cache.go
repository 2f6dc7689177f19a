package server

import (
	"crypto/sha256"
	"sync"
	"time"
)

// resultCache keeps recent scan results keyed by upload content hash, so an
// identical image resubmitted within the TTL skips the pipeline entirely.
type resultCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[[sha256.Size]byte]cacheEntry
}

type cacheEntry struct {
	result  ScanResult
	expires time.Time
}

// newResultCache creates a cache. A non-positive TTL disables caching.
func newResultCache(ttl time.Duration) *resultCache {
	return &resultCache{
		ttl:     ttl,
		entries: make(map[[sha256.Size]byte]cacheEntry),
	}
}

func (c *resultCache) get(data []byte) (*ScanResult, bool) {
	if c.ttl <= 0 {
		return nil, false
	}
	key := sha256.Sum256(data)

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expires) {
		delete(c.entries, key)
		return nil, false
	}
	result := entry.result
	return &result, true
}

func (c *resultCache) put(data []byte, result *ScanResult) {
	if c.ttl <= 0 || result == nil {
		return
	}
	key := sha256.Sum256(data)
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	// Opportunistic pruning keeps the map from growing without bound.
	for k, e := range c.entries {
		if now.After(e.expires) {
			delete(c.entries, k)
		}
	}
	c.entries[key] = cacheEntry{result: *result, expires: now.Add(c.ttl)}
}
