// Package track implements the per-track object publisher and subscriber
// handlers described in §4.7: deciding when a publisher must cut a new
// stream header, and reassembling a subscriber's incoming stream bytes
// back into individual objects. The wire framing itself lives in package
// wire; track only owns the stream-cut and reassembly decisions around it.
package track

import (
	"errors"

	"github.com/zsiec/moqt/wire"
)

// Failure modes for Publisher.PublishObject (§4.7).
var (
	ErrNotAnnounced   = errors.New("track: not announced")
	ErrNotConnected   = errors.New("track: not connected")
	ErrPauseRequested = errors.New("track: pause requested")
	ErrInternal       = errors.New("track: internal error")
)

// Mode controls when a publisher cuts a new object stream, aliasing
// wire.TrackMode so callers need not import both packages for the same
// concept.
type Mode = wire.TrackMode

const (
	ModeDatagram      = wire.TrackModeDatagram
	ModeStreamPerGroup = wire.TrackModeStreamPerGroup
	ModeStreamPerObj  = wire.TrackModeStreamPerObject
	ModeStreamPerTrack = wire.TrackModeStreamPerTrack
)

// Headers carries the per-object metadata passed to PublishObject (§4.7).
// When HasMode is set, Mode overrides the track's configured default for
// this call only.
type Headers struct {
	HasMode           bool
	Mode              Mode
	GroupID           uint64
	ObjectID          uint64
	SubgroupID        uint64
	Priority          byte
	PublisherPriority byte
	Status            wire.ObjectStatus
	TTLMillis         int64
	Extensions        wire.Extensions
}

// Common holds the fields every track handler variant needs: the
// session-scoped alias and announce/connection status. Handlers
// compose Common rather than a shared base type (§9): a Publisher,
// Subscriber, PublishFetchHandler, JoiningFetchHandler and
// SubscribeAnnouncesHandler each embed it directly.
type Common struct {
	TrackAlias uint64
	Announced  bool
	Connected  bool
}

// checkReady returns the standard failure for an unready common track, or
// nil if publish/subscribe traffic may proceed.
func (c *Common) checkReady() error {
	if !c.Announced {
		return ErrNotAnnounced
	}
	if !c.Connected {
		return ErrNotConnected
	}
	return nil
}
