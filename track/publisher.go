package track

import "github.com/zsiec/moqt/wire"

// EmitFunc is the engine-supplied hook a Publisher calls once per object
// (§4.7 step 3). needsHeader tells the engine whether a fresh stream (or
// datagram) header must precede this object's payload; the engine owns
// actually writing bytes to the transport.
type EmitFunc func(priority int, ttlMillis int64, needsHeader bool, groupID, objectID uint64, payload []byte) error

// Publisher decides, for each published object, whether a new stream
// header must be cut before the object (§4.7). It mirrors the teacher's
// moqWriter (distribution/moq_writer.go), generalizing its fixed
// "one subgroup stream per keyframe-bearing group" rule into the full
// TrackMode decision table.
type Publisher struct {
	Common

	mode         Mode
	started      bool
	prevGroupID  uint64
	emit         EmitFunc
	replay       *ReplayCache
}

// NewPublisher returns a Publisher for the given track alias, emitting
// objects through emit according to mode by default.
func NewPublisher(trackAlias uint64, mode Mode, emit EmitFunc) *Publisher {
	return &Publisher{
		Common: Common{TrackAlias: trackAlias, Announced: true, Connected: true},
		mode:   mode,
		emit:   emit,
	}
}

// PublishObject implements the publisher side of §4.7: it decides whether
// a new stream header is needed and forwards to the emit hook.
func (p *Publisher) PublishObject(h Headers, payload []byte) error {
	if err := p.checkReady(); err != nil {
		return err
	}
	if p.emit == nil {
		return ErrInternal
	}

	mode := p.mode
	if h.HasMode {
		mode = h.Mode
	}

	needsHeader := p.needsHeader(mode, h.GroupID)
	p.started = true
	p.prevGroupID = h.GroupID
	p.recordReplay(h, payload)

	return p.emit(int(h.Priority), h.TTLMillis, needsHeader, h.GroupID, h.ObjectID, payload)
}

// needsHeader implements the per-mode cut decision (§4.7 step 2).
func (p *Publisher) needsHeader(mode Mode, groupID uint64) bool {
	switch mode {
	case wire.TrackModeDatagram:
		return false
	case wire.TrackModeStreamPerGroup:
		return !p.started || groupID != p.prevGroupID
	case wire.TrackModeStreamPerObject:
		return true
	case wire.TrackModeStreamPerTrack:
		return !p.started
	default:
		return !p.started || groupID != p.prevGroupID
	}
}
