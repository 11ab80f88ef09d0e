// Package cache holds the two process-local valuation caches: a small
// session-scoped LRU used while scanning books in quick succession, and an
// unbounded TTL cache that deduplicates valuation queries for an hour.
// Both are rebuilt empty on restart.
package cache

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/longboxhq/comic-tracker/backend/internal/models"
)

const (
	// DefaultScanCapacity bounds how many recently scanned issues are kept
	DefaultScanCapacity = 50
	// DefaultScanTTL is how long a scan result stays reusable
	DefaultScanTTL = 5 * time.Minute
)

type scanEntry struct {
	value    models.ScanResult
	storedAt time.Time
}

// ScanCache is a fixed-capacity LRU over scan results. Entries expire after
// a TTL and are removed lazily on access; live entries never exceed capacity.
type ScanCache struct {
	entries *lru.Cache[string, scanEntry]
	ttl     time.Duration
	now     func() time.Time
}

// NewScanCache creates a scan cache with the given capacity and TTL.
// Zero or negative arguments fall back to the defaults.
func NewScanCache(capacity int, ttl time.Duration) (*ScanCache, error) {
	if capacity <= 0 {
		capacity = DefaultScanCapacity
	}
	if ttl <= 0 {
		ttl = DefaultScanTTL
	}

	entries, err := lru.New[string, scanEntry](capacity)
	if err != nil {
		return nil, err
	}

	return &ScanCache{
		entries: entries,
		ttl:     ttl,
		now:     time.Now,
	}, nil
}

// Get returns the cached result for key and promotes it to most recently
// used. An expired entry is removed and reported as a miss.
func (c *ScanCache) Get(key string) (models.ScanResult, bool) {
	entry, ok := c.entries.Get(key)
	if !ok {
		return models.ScanResult{}, false
	}
	if c.expired(entry) {
		c.entries.Remove(key)
		return models.ScanResult{}, false
	}
	return entry.value, true
}

// Has reports whether key holds a live entry without touching recency.
func (c *ScanCache) Has(key string) bool {
	entry, ok := c.entries.Peek(key)
	if !ok {
		return false
	}
	if c.expired(entry) {
		c.entries.Remove(key)
		return false
	}
	return true
}

// Put inserts the result as most recently used, evicting the least recently
// used entry if the cache is full.
func (c *ScanCache) Put(key string, value models.ScanResult) {
	c.entries.Add(key, scanEntry{value: value, storedAt: c.now()})
}

// Len returns the number of stored entries, expired or not.
func (c *ScanCache) Len() int {
	return c.entries.Len()
}

// Clear drops all entries.
func (c *ScanCache) Clear() {
	c.entries.Purge()
}

func (c *ScanCache) expired(e scanEntry) bool {
	return c.now().Sub(e.storedAt) > c.ttl
}
