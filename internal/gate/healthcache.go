package gate

import (
	"sync"
	"time"
)

// healthCache amortizes the ontology health probe across requests inside a
// short TTL window. The gate has exactly one ontology client shared by
// every request, so there is a single cached boolean rather than a keyed
// map.
type healthCache struct {
	mu        sync.RWMutex
	healthy   bool
	checkedAt time.Time
	ttl       time.Duration
}

func newHealthCache(ttl time.Duration) *healthCache {
	return &healthCache{ttl: ttl}
}

// get returns the cached health state and true if it is still within TTL.
func (c *healthCache) get() (healthy bool, fresh bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.checkedAt.IsZero() || time.Since(c.checkedAt) > c.ttl {
		return false, false
	}
	return c.healthy, true
}

func (c *healthCache) set(healthy bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.healthy = healthy
	c.checkedAt = time.Now()
}
