package edge

import (
	"sync"
	"sync/atomic"

	"github.com/papapumpkin/proteo/internal/ppi"
)

// Key identifies one cached value: a weight name and an unordered pair.
type Key struct {
	Weight string
	Pair   ppi.PairKey
}

// Stats reports cache effectiveness.
type Stats struct {
	Entries int
	Hits    uint64
	Misses  uint64
}

// Cache is the keyed store shared by every weight function of an Engine.
// Keys are always built from ppi.NewPairKey, so a value computed for
// (u, v) is returned for (v, u). It is safe for concurrent use.
type Cache struct {
	mu     sync.RWMutex
	values map[Key]float64
	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{values: make(map[Key]float64)}
}

// GetOrCompute returns the cached value for weight on the pair u, v,
// calling compute on a miss. compute runs without the lock held so it
// may itself consult the cache. Two goroutines racing on the same miss
// may both compute; the first stored value wins.
func (c *Cache) GetOrCompute(weight, u, v string, compute func() float64) float64 {
	key := Key{Weight: weight, Pair: ppi.NewPairKey(u, v)}

	c.mu.RLock()
	val, ok := c.values[key]
	c.mu.RUnlock()
	if ok {
		c.hits.Add(1)
		return val
	}

	c.misses.Add(1)
	computed := compute()

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.values[key]; ok {
		return existing
	}
	c.values[key] = computed
	return computed
}

// Len returns the number of cached values.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.values)
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() Stats {
	return Stats{
		Entries: c.Len(),
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
	}
}
