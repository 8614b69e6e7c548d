package track

import (
	"fmt"

	"github.com/zsiec/moqt/cache"
	"github.com/zsiec/moqt/tick"
)

// CachedObject is one object recorded by a Publisher's replay cache, kept
// around so a later JoiningFetchHandler can backfill a joiner with it
// (§6 SUPPLEMENTED FEATURES: joining-fetch replay from the cache package
// up to the live edge, then handoff to the live subscription).
type CachedObject struct {
	Headers Headers
	Payload []byte
}

// ReplayCache is the shared history a Publisher records into and a
// JoiningFetchHandler replays from. Both handlers for the same track
// alias must be given the same instance for a join to see anything.
type ReplayCache = cache.Cache[string, CachedObject]

// NewReplayCache constructs a ReplayCache using clock for lazy TTL expiry.
func NewReplayCache(clock tick.Service) *ReplayCache {
	return cache.New[string, CachedObject](clock)
}

// cacheKey encodes (groupID, objectID) as a fixed-width hex string so
// lexical string ordering matches numeric (group, object) ordering, which
// ReplayCache's ordered half-open-range queries depend on.
func cacheKey(groupID, objectID uint64) string {
	return fmt.Sprintf("%016x%016x", groupID, objectID)
}

// SetReplayCache attaches c as p's replay history; every subsequent
// PublishObject call with a positive TTLMillis records into it. A nil c
// disables recording, which is the zero-value default.
func (p *Publisher) SetReplayCache(c *ReplayCache) {
	p.replay = c
}

// recordReplay stores h/payload in p's replay cache, if one is attached
// and h requests a positive TTL. Called from PublishObject.
func (p *Publisher) recordReplay(h Headers, payload []byte) {
	if p.replay == nil || h.TTLMillis <= 0 {
		return
	}
	p.replay.Insert(cacheKey(h.GroupID, h.ObjectID), CachedObject{Headers: h, Payload: payload}, h.TTLMillis)
}

// SetReplayCache attaches c as j's backfill source for Replay. A nil c
// makes Replay a no-op, which is the zero-value default.
func (j *JoiningFetchHandler) SetReplayCache(c *ReplayCache) {
	j.replay = c
}

// Replay delivers every live cached object with (group, object) in the
// half-open range [(fromGroup,fromObject), (toGroup,toObject)) to j's
// received callback, in ascending order, then returns. It backfills the
// history a joiner missed; once it returns, the caller hands the joiner
// off to the ordinary live subscription (the same received callback
// continues to receive new objects as HandleStreamData/Subscriber parse
// them). Returns the number of objects delivered.
func (j *JoiningFetchHandler) Replay(fromGroup, fromObject, toGroup, toObject uint64) (int, error) {
	if j.replay == nil {
		return 0, nil
	}
	objs, err := j.replay.Get(cacheKey(fromGroup, fromObject), cacheKey(toGroup, toObject))
	if err != nil {
		return 0, err
	}
	if j.received != nil {
		for _, o := range objs {
			j.received(o.Headers, o.Payload)
		}
	}
	return len(objs), nil
}
