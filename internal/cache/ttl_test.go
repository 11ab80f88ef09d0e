package cache

import (
	"testing"
	"time"

	"github.com/longboxhq/comic-tracker/backend/internal/models"
)

func TestQueryCacheTTL(t *testing.T) {
	c := NewQueryCache(time.Hour)

	base := time.Now()
	c.now = func() time.Time { return base }

	result := &models.ValuationResult{Success: true, Source: "gocollect", FMV: models.FMVTable{"raw": 40}}
	c.Put("amazing fantasy|15|", result)

	c.now = func() time.Time { return base.Add(time.Hour - time.Millisecond) }
	if got, ok := c.Get("amazing fantasy|15|"); !ok || got != result {
		t.Error("entry read just before the TTL should be present")
	}

	c.now = func() time.Time { return base.Add(time.Hour + time.Millisecond) }
	if _, ok := c.Get("amazing fantasy|15|"); ok {
		t.Error("entry read just after the TTL should be absent")
	}
	if c.Len() != 0 {
		t.Errorf("expired entry should be removed on access, len = %d", c.Len())
	}
}

func TestQueryCacheExpiryDoesNotDropFreshWrite(t *testing.T) {
	c := NewQueryCache(time.Hour)

	base := time.Now()
	c.now = func() time.Time { return base }

	stale := &models.ValuationResult{Success: true, Source: "gocollect", FMV: models.FMVTable{"9.8": 100}}
	fresh := &models.ValuationResult{Success: true, Source: "covrprice", FMV: models.FMVTable{"9.8": 120}}
	c.Put("key", stale)

	// Get reads the clock after dropping the read lock and before taking
	// the write lock for the expiry delete. Freshening the key from inside
	// the clock lands a concurrent Put in exactly that window.
	expired := base.Add(time.Hour + time.Millisecond)
	var freshened bool
	c.now = func() time.Time {
		if !freshened {
			freshened = true
			c.Put("key", fresh)
		}
		return expired
	}

	if _, ok := c.Get("key"); ok {
		t.Error("the stale entry should still report a miss")
	}

	got, ok := c.Get("key")
	if !ok {
		t.Fatal("a write racing the expiry delete must survive it")
	}
	if got != fresh {
		t.Errorf("got source %s, want the freshened entry", got.Source)
	}
}

func TestQueryCacheOverwrite(t *testing.T) {
	c := NewQueryCache(time.Hour)

	first := &models.ValuationResult{Success: true, Source: "gocollect", FMV: models.FMVTable{"9.8": 100}}
	second := &models.ValuationResult{Success: true, Source: "covrprice", FMV: models.FMVTable{"9.8": 120}}

	c.Put("key", first)
	c.Put("key", second)

	got, ok := c.Get("key")
	if !ok {
		t.Fatal("key should be present")
	}
	if got.Source != "covrprice" {
		t.Errorf("Put should overwrite: got source %s", got.Source)
	}
}

func TestQueryCacheInvalidate(t *testing.T) {
	c := NewQueryCache(time.Hour)
	result := &models.ValuationResult{Success: true, FMV: models.FMVTable{}}

	c.Put("a", result)
	c.Put("b", result)

	c.Invalidate("a")
	if _, ok := c.Get("a"); ok {
		t.Error("a should be gone after Invalidate")
	}
	if _, ok := c.Get("b"); !ok {
		t.Error("b should survive a single-key Invalidate")
	}

	c.InvalidateAll()
	if c.Len() != 0 {
		t.Errorf("InvalidateAll should empty the cache, len = %d", c.Len())
	}
}
