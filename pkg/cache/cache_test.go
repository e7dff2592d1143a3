package cache_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/easyops/foodrag-go/pkg/cache"
)

// fakeClock provides a controllable time source
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestTTLCache_PutGet(t *testing.T) {
	c := cache.NewTTLCache(10, time.Hour)

	c.Put("apple", "apple context")

	got, ok := c.Get("apple")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if got != "apple context" {
		t.Errorf("Get returned %q, want %q", got, "apple context")
	}
}

func TestTTLCache_MissingKey(t *testing.T) {
	c := cache.NewTTLCache(10, time.Hour)

	if _, ok := c.Get("nothing"); ok {
		t.Error("expected cache miss for unknown key")
	}
}

func TestTTLCache_EmptyValueIsCached(t *testing.T) {
	c := cache.NewTTLCache(10, time.Hour)

	c.Put("no results", "")

	got, ok := c.Get("no results")
	if !ok {
		t.Fatal("empty value should still be a cache hit")
	}
	if got != "" {
		t.Errorf("Get returned %q, want empty", got)
	}
}

func TestTTLCache_Expiry(t *testing.T) {
	clock := newFakeClock()
	c := cache.NewTTLCache(10, time.Hour, cache.WithClock(clock.Now))

	c.Put("apple", "v1")

	clock.Advance(59 * time.Minute)
	if _, ok := c.Get("apple"); !ok {
		t.Fatal("entry should still be live before TTL")
	}

	clock.Advance(time.Minute)
	if _, ok := c.Get("apple"); ok {
		t.Error("entry at exactly TTL age should be expired")
	}
}

func TestTTLCache_ExpiredEntryRemovedLazily(t *testing.T) {
	clock := newFakeClock()
	c := cache.NewTTLCache(10, time.Hour, cache.WithClock(clock.Now))

	c.Put("apple", "v1")
	clock.Advance(2 * time.Hour)

	// Expiry is checked on access, not in the background
	if c.Len() != 1 {
		t.Fatalf("expired entry should persist until accessed, Len = %d", c.Len())
	}

	c.Get("apple")
	if c.Len() != 0 {
		t.Errorf("expired entry should be removed on access, Len = %d", c.Len())
	}
}

func TestTTLCache_OverwriteResetsTTL(t *testing.T) {
	clock := newFakeClock()
	c := cache.NewTTLCache(10, time.Hour, cache.WithClock(clock.Now))

	c.Put("apple", "v1")
	clock.Advance(50 * time.Minute)
	c.Put("apple", "v2")
	clock.Advance(50 * time.Minute)

	got, ok := c.Get("apple")
	if !ok {
		t.Fatal("rewritten entry should have a fresh TTL")
	}
	if got != "v2" {
		t.Errorf("Get returned %q, want %q", got, "v2")
	}
}

func TestTTLCache_LRUEviction(t *testing.T) {
	c := cache.NewTTLCache(2, time.Hour)

	c.Put("a", "1")
	c.Put("b", "2")
	c.Get("a") // refresh "a", making "b" the eviction candidate
	c.Put("c", "3")

	if _, ok := c.Get("a"); !ok {
		t.Error("recently used entry should survive eviction")
	}
	if _, ok := c.Get("b"); ok {
		t.Error("least recently used entry should have been evicted")
	}
	if _, ok := c.Get("c"); !ok {
		t.Error("newly inserted entry should be present")
	}
}

func TestTTLCache_CapacityBound(t *testing.T) {
	c := cache.NewTTLCache(5, time.Hour)

	for i := 0; i < 50; i++ {
		c.Put(fmt.Sprintf("key-%d", i), "value")
	}

	if c.Len() > 5 {
		t.Errorf("cache holds %d entries, want <= 5", c.Len())
	}
}

func TestTTLCache_ConcurrentAccess(t *testing.T) {
	c := cache.NewTTLCache(100, time.Hour)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := fmt.Sprintf("key-%d", j%30)
				c.Put(key, "value")
				c.Get(key)
			}
		}(i)
	}
	wg.Wait()

	if c.Len() > 100 {
		t.Errorf("cache holds %d entries, want <= 100", c.Len())
	}
}
