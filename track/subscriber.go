package track

import (
	"errors"
	"fmt"

	"github.com/zsiec/moqt/streambuf"
	"github.com/zsiec/moqt/wire"
)

// adaptTruncated wraps a wire.Parse* call so its ErrTruncated is also
// recognized by streambuf.TryParse, which only checks its own sentinel.
func adaptTruncated[T any](fn func([]byte) (T, int, error)) streambuf.ParseFunc[T] {
	return func(buf []byte) (T, int, error) {
		v, n, err := fn(buf)
		if err != nil && errors.Is(err, wire.ErrTruncated) {
			return v, n, fmt.Errorf("%w: %v", streambuf.ErrTruncated, err)
		}
		return v, n, err
	}
}

// subgroupParseState is the opaque AnyB slot a Subscriber installs while
// reassembling a subgroup stream: it has not yet seen the header, or it
// has and is waiting for the next object.
type subgroupParseState struct {
	streambuf.Embeddable
	haveHeader bool
	header     wire.SubgroupHeader
}

// ObjectReceivedFunc delivers a fully reassembled object to the
// application (§4.7's object_received(headers, payload) callback).
type ObjectReceivedFunc func(h Headers, payload []byte)

// DeliveryBound restricts Subscriber.deliver to objects whose (group,
// object) coordinate falls within [Start, End] inclusive, resolved from
// a subscribe's filter (§4.8 AbsoluteRange, P8). An absent EndObject
// means the end bound covers the entire EndGroup. The zero value imposes
// no restriction in either direction.
type DeliveryBound struct {
	HasStart             bool
	StartGroup, StartObj uint64
	HasEnd               bool
	EndGroup             uint64
	HasEndObject         bool
	EndObj               uint64
}

// includes reports whether (group, object) falls within b.
func (b DeliveryBound) includes(group, object uint64) bool {
	if b.HasStart && (group < b.StartGroup || (group == b.StartGroup && object < b.StartObj)) {
		return false
	}
	if b.HasEnd {
		if group > b.EndGroup {
			return false
		}
		if group == b.EndGroup && b.HasEndObject && object > b.EndObj {
			return false
		}
	}
	return true
}

// Subscriber reassembles a subgroup stream's bytes back into individual
// objects, delivering each to an ObjectReceivedFunc. Each (group,
// subgroup) stream needs a fresh Subscriber or a HandleStreamData call
// with isStart set, which resets the parse state (§4.7).
type Subscriber struct {
	Common

	buf      streambuf.Buffer
	received ObjectReceivedFunc
	bound    DeliveryBound
}

// NewSubscriber returns a Subscriber delivering reassembled objects to
// received.
func NewSubscriber(trackAlias uint64, received ObjectReceivedFunc) *Subscriber {
	return &Subscriber{
		Common:   Common{TrackAlias: trackAlias, Announced: true, Connected: true},
		received: received,
	}
}

// SetDeliveryBound restricts subsequent deliveries to b, once the
// session has resolved the subscribe's filter (§4.8). The zero
// DeliveryBound, the default, delivers everything.
func (s *Subscriber) SetDeliveryBound(b DeliveryBound) {
	s.bound = b
}

// HandleStreamData feeds newly-arrived stream bytes to the subscriber.
// isStart must be true exactly once, on the first call for a given
// stream, so the subscriber installs a fresh parse state before parsing
// the subgroup header.
func (s *Subscriber) HandleStreamData(isStart bool, data []byte) error {
	if isStart {
		s.buf = streambuf.Buffer{}
		s.buf.InitAnyB(&subgroupParseState{})
	}
	s.buf.Push(data)

	for {
		state, ok := s.buf.AnyBState().(*subgroupParseState)
		if !ok || state == nil {
			return ErrInternal
		}

		if !state.haveHeader {
			h, ok, err := streambuf.TryParse(&s.buf, adaptTruncated(wire.ParseSubgroupHeader))
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			state.haveHeader = true
			state.header = h
			continue
		}

		obj, ok, err := streambuf.TryParse(&s.buf, adaptTruncated(wire.ParseSubgroupObject))
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}

		s.deliver(state.header, obj)
	}
}

func (s *Subscriber) deliver(h wire.SubgroupHeader, obj wire.SubgroupObject) {
	if s.received == nil {
		return
	}
	if !s.bound.includes(h.GroupID, obj.ObjectID) {
		return
	}
	s.received(Headers{
		GroupID:           h.GroupID,
		SubgroupID:        h.SubgroupID,
		ObjectID:          obj.ObjectID,
		PublisherPriority: h.PublisherPriority,
		Status:            obj.Status,
		Extensions:        obj.Extensions,
	}, obj.Payload)
}
