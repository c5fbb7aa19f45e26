package xdom

import (
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// cacheKey identifies a cache entry and the file handle owning it.
type cacheKey interface {
	comparable
	owner() uint32
}

type stampedEntry[V any] struct {
	stamp int64
	val   V
}

// stampedCache memoizes one value per key together with the stamp observed
// when it was computed. A lookup hits only if the current stamp equals the
// captured one; otherwise the whole value is recomputed. Concurrent misses on
// the same key share one computation. Failed computations are never stored.
// A shared computation runs with whatever the first caller's compute
// captured, so its failure (an aborted walk included) reaches every waiter.
type stampedCache[K cacheKey, V any] struct {
	mu      sync.Mutex
	entries map[K]stampedEntry[V]
	group   singleflight.Group
	hits    atomic.Int64
	misses  atomic.Int64
}

func newStampedCache[K cacheKey, V any]() *stampedCache[K, V] {
	return &stampedCache[K, V]{entries: map[K]stampedEntry[V]{}}
}

func (c *stampedCache[K, V]) get(key K, stamp int64, compute func() (V, error)) (V, error) {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok && e.stamp == stamp {
		c.mu.Unlock()
		c.hits.Add(1)
		return e.val, nil
	}
	c.mu.Unlock()
	c.misses.Add(1)

	v, err, _ := c.group.Do(fmt.Sprintf("%v@%d", key, stamp), func() (any, error) {
		// a flight that finished between the miss and Do already stored it
		c.mu.Lock()
		if e, ok := c.entries[key]; ok && e.stamp == stamp {
			c.mu.Unlock()
			return e.val, nil
		}
		c.mu.Unlock()
		val, err := compute()
		if err != nil {
			return val, err
		}
		c.mu.Lock()
		c.entries[key] = stampedEntry[V]{stamp: stamp, val: val}
		c.mu.Unlock()
		return val, nil
	})
	val, _ := v.(V)
	return val, err
}

// peek returns the stored entry regardless of its stamp.
func (c *stampedCache[K, V]) peek(key K) (V, int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	return e.val, e.stamp, ok
}

// evict drops every entry owned by a file handle.
func (c *stampedCache[K, V]) evict(owner uint32) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k := range c.entries {
		if k.owner() == owner {
			delete(c.entries, k)
			n++
		}
	}
	return n
}

func (c *stampedCache[K, V]) stats() CacheStats {
	c.mu.Lock()
	n := len(c.entries)
	c.mu.Unlock()
	return CacheStats{Hits: c.hits.Load(), Misses: c.misses.Load(), Entries: n}
}

// CacheStats reports cache effectiveness.
type CacheStats struct {
	Hits    int64
	Misses  int64
	Entries int
}

func (s CacheStats) add(o CacheStats) CacheStats {
	return CacheStats{Hits: s.Hits + o.Hits, Misses: s.Misses + o.Misses, Entries: s.Entries + o.Entries}
}
