package cache

import (
	"sync"
	"time"

	"github.com/longboxhq/comic-tracker/backend/internal/models"
)

// DefaultQueryTTL is how long a valuation answer is reused before the
// sources are consulted again.
const DefaultQueryTTL = time.Hour

type queryEntry struct {
	value    *models.ValuationResult
	storedAt time.Time
}

// QueryCache is an unbounded TTL cache over valuation results, keyed by the
// case-insensitive (title, issue, publisher) identity. Entries older than
// the TTL are treated as absent and removed on access. Clearing it at any
// time is safe; it only costs repeat lookups.
type QueryCache struct {
	mu      sync.RWMutex
	entries map[string]queryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewQueryCache creates a query cache. A non-positive TTL falls back to
// DefaultQueryTTL.
func NewQueryCache(ttl time.Duration) *QueryCache {
	if ttl <= 0 {
		ttl = DefaultQueryTTL
	}
	return &QueryCache{
		entries: make(map[string]queryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the cached result for key, or false if missing or expired.
func (c *QueryCache) Get(key string) (*models.ValuationResult, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}
	if c.now().Sub(entry.storedAt) > c.ttl {
		c.mu.Lock()
		// A writer may have freshened the key since the read; only
		// remove the entry we actually saw expire.
		if current, ok := c.entries[key]; ok && current.storedAt.Equal(entry.storedAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, false
	}
	return entry.value, true
}

// Put stores the result for key, overwriting any previous entry.
func (c *QueryCache) Put(key string, value *models.ValuationResult) {
	c.mu.Lock()
	c.entries[key] = queryEntry{value: value, storedAt: c.now()}
	c.mu.Unlock()
}

// Invalidate removes a single entry.
func (c *QueryCache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// InvalidateAll clears the cache.
func (c *QueryCache) InvalidateAll() {
	c.mu.Lock()
	c.entries = make(map[string]queryEntry)
	c.mu.Unlock()
}

// Len returns the number of stored entries, expired or not.
func (c *QueryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
