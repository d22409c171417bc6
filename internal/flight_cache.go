package internal

import (
	"sync"

	"golang.org/x/sync/singleflight"
)

// flightCache is a process-lifetime cache whose misses are collapsed through a
// singleflight group: concurrent first accesses to one key share a single fetch.
// Reads of a populated key go through sync.Map and take no lock.
type flightCache[V any] struct {
	entries sync.Map
	group   singleflight.Group
}

// get returns the cached value for key or populates it with fill. fill must not
// fail; callers fold fetch errors into a tolerated fallback value before returning.
func (c *flightCache[V]) get(key string, fill func() V) (V, bool) {
	if v, ok := c.entries.Load(key); ok {
		return v.(V), true
	}

	v, _, _ := c.group.Do(key, func() (any, error) {
		// a flight that finished between our Load and Do already stored the value
		if existing, ok := c.entries.Load(key); ok {
			return existing, nil
		}
		value := fill()
		c.entries.Store(key, value)
		return value, nil
	})
	return v.(V), false
}

// invalidate drops the given keys. An in-flight fetch for a dropped key may
// still store its result afterwards.
func (c *flightCache[V]) invalidate(keys ...string) {
	for _, key := range keys {
		c.entries.Delete(key)
		c.group.Forget(key)
	}
}

// invalidateMatching drops every key for which match returns true.
func (c *flightCache[V]) invalidateMatching(match func(key string) bool) {
	c.entries.Range(func(k, _ any) bool {
		if key := k.(string); match(key) {
			c.entries.Delete(key)
			c.group.Forget(key)
		}
		return true
	})
}

// clear drops every entry.
func (c *flightCache[V]) clear() {
	c.invalidateMatching(func(string) bool { return true })
}
