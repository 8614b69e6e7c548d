// Package cache implements a keyed, per-entry-TTL store supporting
// half-open-range queries over ordered keys, used for short-lived
// subscribe-range replay (fetching recently-published groups/objects
// without re-querying the publisher).
package cache

import (
	"cmp"
	"errors"
	"sort"
	"sync"

	"github.com/zsiec/moqt/tick"
)

// ErrInvalidRange is returned by ContainsRange/Get when lo >= hi.
var ErrInvalidRange = errors.New("cache: invalid range")

type entry[K cmp.Ordered, V any] struct {
	key       K
	value     V
	expiresMs int64
}

// Cache maps keys of ordered type K to values of type V, each with its
// own TTL. The zero value is not usable; construct with New.
type Cache[K cmp.Ordered, V any] struct {
	mu      sync.RWMutex
	clock   tick.Service
	entries []entry[K, V] // kept sorted by key
}

// New constructs an empty Cache. clock supplies "now" for lazy TTL
// expiry.
func New[K cmp.Ordered, V any](clock tick.Service) *Cache[K, V] {
	return &Cache[K, V]{clock: clock}
}

// Insert adds or replaces the value for k, expiring ttlMs milliseconds
// from now.
func (c *Cache[K, V]) Insert(k K, v V, ttlMs int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expires := c.clock.NowMillis() + ttlMs
	i := sort.Search(len(c.entries), func(i int) bool { return c.entries[i].key >= k })
	if i < len(c.entries) && c.entries[i].key == k {
		c.entries[i].value = v
		c.entries[i].expiresMs = expires
		return
	}
	c.entries = append(c.entries, entry[K, V]{})
	copy(c.entries[i+1:], c.entries[i:])
	c.entries[i] = entry[K, V]{key: k, value: v, expiresMs: expires}
}

// live reports whether e hasn't yet passed its TTL, given nowMs. Must be
// called with c.mu held.
func (e entry[K, V]) live(nowMs int64) bool {
	return e.expiresMs > nowMs
}

// Contains reports whether k is present and not yet expired.
func (c *Cache[K, V]) Contains(k K) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := c.clock.NowMillis()
	i := sort.Search(len(c.entries), func(i int) bool { return c.entries[i].key >= k })
	return i < len(c.entries) && c.entries[i].key == k && c.entries[i].live(now)
}

// ContainsRange reports whether any live key falls in the half-open
// range [lo, hi). Returns ErrInvalidRange if lo >= hi.
func (c *Cache[K, V]) ContainsRange(lo, hi K) (bool, error) {
	if lo >= hi {
		return false, ErrInvalidRange
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := c.clock.NowMillis()
	start := sort.Search(len(c.entries), func(i int) bool { return c.entries[i].key >= lo })
	for i := start; i < len(c.entries) && c.entries[i].key < hi; i++ {
		if c.entries[i].live(now) {
			return true, nil
		}
	}
	return false, nil
}

// Get returns the live values whose keys fall in the half-open range
// [lo, hi), in ascending key order. Returns ErrInvalidRange if lo >= hi.
func (c *Cache[K, V]) Get(lo, hi K) ([]V, error) {
	if lo >= hi {
		return nil, ErrInvalidRange
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := c.clock.NowMillis()
	start := sort.Search(len(c.entries), func(i int) bool { return c.entries[i].key >= lo })
	var out []V
	for i := start; i < len(c.entries) && c.entries[i].key < hi; i++ {
		if c.entries[i].live(now) {
			out = append(out, c.entries[i].value)
		}
	}
	return out, nil
}

// Len returns the number of entries currently stored, including any not
// yet lazily reaped past their TTL.
func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Prune removes entries that have expired as of now, reclaiming their
// storage. Callers may run this periodically; it is never required for
// correctness since Contains/Get already skip expired entries.
func (c *Cache[K, V]) Prune() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.NowMillis()
	live := c.entries[:0]
	for _, e := range c.entries {
		if e.live(now) {
			live = append(live, e)
		}
	}
	c.entries = live
}
