package session

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

// authorizer memoizes a boolean authorize callback result keyed by an
// arbitrary string (a namespace or full track name), so a burst of
// repeated announce/subscribe/fetch attempts for the same key doesn't
// re-invoke the application callback on every one. singleflight
// collapses concurrent callers for a key that isn't cached yet into one
// in-flight call; go-cache expires the memoized result after ttl so a
// later application-side permission change is eventually observed.
type authorizer struct {
	group singleflight.Group
	cache *gocache.Cache
}

func newAuthorizer(ttl time.Duration) *authorizer {
	return &authorizer{cache: gocache.New(ttl, 2*ttl)}
}

// authorize returns the memoized/deduplicated result of compute() for
// key, calling compute at most once per key within the cache's TTL
// regardless of how many goroutines ask concurrently. A nil compute
// authorizes everything, matching "no callback configured" semantics.
func (a *authorizer) authorize(key string, compute func() bool) bool {
	if compute == nil {
		return true
	}
	if v, ok := a.cache.Get(key); ok {
		return v.(bool)
	}
	v, _, _ := a.group.Do(key, func() (any, error) {
		result := compute()
		a.cache.SetDefault(key, result)
		return result, nil
	})
	return v.(bool)
}
