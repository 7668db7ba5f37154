// Package cache fronts devflow's collectors with a TTL cache and invalidates
// git-derived entries when the repository changes on disk.
//
// Keys are "<kind>:<name>"; the kind labels metrics and is the unit of
// invalidation:
//
//	c := cache.New(cache.NewMetrics())
//	st, err := cache.Load(ctx, c, "git:status", 5*time.Second, collector.Status)
//	c.Invalidate("git:")
package cache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

type entry struct {
	value     any
	expiresAt time.Time
}

// Cache is a concurrency-safe TTL cache. Concurrent loads of the same key
// share one call. Errors are never cached.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
	// loading counts invalidations of each key with a load in flight.
	loading map[string]int
	group   singleflight.Group
	now     func() time.Time
	metrics *Metrics
}

// New creates an empty cache. metrics may be nil.
func New(metrics *Metrics) *Cache {
	return &Cache{
		entries: make(map[string]entry),
		loading: make(map[string]int),
		now:     time.Now,
		metrics: metrics,
	}
}

// Kind returns the metrics label for key: the part before the first colon.
func Kind(key string) string {
	kind, _, _ := strings.Cut(key, ":")
	return kind
}

// Get returns the unexpired value stored under key.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || !c.now().Before(e.expiresAt) {
		if ok {
			c.mu.Lock()
			if cur, still := c.entries[key]; still && !c.now().Before(cur.expiresAt) {
				delete(c.entries, key)
			}
			c.setSize()
			c.mu.Unlock()
		}
		c.metrics.miss(Kind(key))
		return nil, false
	}
	c.metrics.hit(Kind(key))
	return e.value, true
}

// Set stores value under key for ttl. A non-positive ttl stores nothing.
func (c *Cache) Set(key string, value any, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store(key, value, ttl)
}

// store requires c.mu to be held.
func (c *Cache) store(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	c.entries[key] = entry{value: value, expiresAt: c.now().Add(ttl)}
	c.setSize()
}

// Invalidate removes every key starting with one of prefixes. No prefixes
// clears the cache. Loads in flight for a matching key still return their
// result but do not store it.
func (c *Cache) Invalidate(prefixes ...string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key := range c.entries {
		if len(prefixes) == 0 || hasAnyPrefix(key, prefixes) {
			delete(c.entries, key)
			removed++
		}
	}
	for key := range c.loading {
		if len(prefixes) == 0 || hasAnyPrefix(key, prefixes) {
			c.loading[key]++
		}
	}
	c.setSize()
	return removed
}

func (c *Cache) beginLoad(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading[key] = 0
}

// finishLoad stores value unless key was invalidated after beginLoad.
func (c *Cache) finishLoad(key string, value any, ttl time.Duration, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ok && c.loading[key] == 0 {
		c.store(key, value, ttl)
	}
	delete(c.loading, key)
}

// Len returns the number of stored entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// setSize requires c.mu to be held.
func (c *Cache) setSize() {
	c.metrics.size(len(c.entries))
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// Load returns the cached value for key, or calls load and caches its result
// for ttl. A stored value of another type is treated as a miss.
func Load[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	if v, ok := c.Get(key); ok {
		if t, ok := v.(T); ok {
			return t, nil
		}
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		c.beginLoad(key)
		start := c.now()
		val, err := load(ctx)
		c.metrics.load(Kind(key), c.now().Sub(start), err)
		c.finishLoad(key, val, ttl, err == nil)
		if err != nil {
			return nil, err
		}
		return val, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("cache: key %q holds %T", key, v)
	}
	return t, nil
}
