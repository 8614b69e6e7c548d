package session

import (
	"errors"
	"fmt"

	"github.com/zsiec/moqt/track"
	"github.com/zsiec/moqt/trackname"
	"github.com/zsiec/moqt/wire"
)

// nextLocalID allocates an outgoing request id, emitting REQUESTS_BLOCKED
// to the peer when the allocator is exhausted and configured to fail
// rather than queue (§4.8).
func (s *Session) nextLocalID() (uint64, error) {
	id, err := s.localIDs.Next()
	if err != nil {
		if errors.Is(err, ErrRequestIDExhausted) {
			_ = s.writeFrame(wire.MsgRequestsBlocked, wire.AppendRequestsBlocked(nil, wire.RequestsBlocked{
				MaximumRequestID: s.localIDs.Peek(),
			}))
		}
		return 0, err
	}
	return id, nil
}

// Announce sends an ANNOUNCE for ns, consuming the next locally-allocated
// request id (§4.8: "each outgoing subscribe/fetch/announce consumes the
// next request id"). The peer's ANNOUNCE_OK/ANNOUNCE_ERROR response
// updates the entry's status, which is reported through statusChanged.
func (s *Session) Announce(ns trackname.Namespace, statusChanged func(RequestStatus)) error {
	id, err := s.nextLocalID()
	if err != nil {
		return fmt.Errorf("session: announce: %w", err)
	}
	s.requests.Insert(id, &requestEntry{kind: "announce", status: StatusPending, onStatusChanged: statusChanged})
	return s.writeFrame(wire.MsgAnnounce, wire.AppendAnnounce(nil, wire.Announce{RequestID: id, Namespace: toWireNamespace(ns)}))
}

// Unannounce withdraws a previously sent announce.
func (s *Session) Unannounce(ns trackname.Namespace) error {
	return s.writeFrame(wire.MsgUnannounce, wire.AppendUnannounce(nil, wire.Unannounce{Namespace: toWireNamespace(ns)}))
}

// SubscribeRequest describes an outgoing SUBSCRIBE (§4.8 filter types).
type SubscribeRequest struct {
	TrackAlias uint64
	Namespace  trackname.Namespace
	TrackName  []byte
	Priority   byte
	GroupOrder byte
	Forward    byte
	Filter     Start
	FilterType uint64
}

// Subscribe sends a SUBSCRIBE, returning the allocated request id.
func (s *Session) Subscribe(req SubscribeRequest, statusChanged func(RequestStatus)) (uint64, error) {
	id, err := s.nextLocalID()
	if err != nil {
		return 0, fmt.Errorf("session: subscribe: %w", err)
	}
	s.requests.Insert(id, &requestEntry{kind: "subscribe", status: StatusPending, onStatusChanged: statusChanged})

	sub := wire.Subscribe{
		RequestID: id, TrackAlias: req.TrackAlias, Namespace: toWireNamespace(req.Namespace),
		TrackName: req.TrackName, Priority: req.Priority, GroupOrder: req.GroupOrder, Forward: req.Forward,
		FilterType: req.FilterType, StartGroup: req.Filter.Group, StartObj: req.Filter.Object,
		EndGroup: req.Filter.EndGroup, HasEndObj: req.Filter.HasEndObject, EndObj: req.Filter.EndObject,
	}
	if err := s.writeFrame(wire.MsgSubscribe, wire.AppendSubscribe(nil, sub)); err != nil {
		return 0, err
	}
	return id, nil
}

// Unsubscribe cancels an outstanding subscribe by its request id.
func (s *Session) Unsubscribe(requestID uint64) error {
	s.requests.Remove(requestID)
	return s.writeFrame(wire.MsgUnsubscribe, wire.AppendUnsubscribe(nil, wire.Unsubscribe{RequestID: requestID}))
}

// SubscribeBound returns the track.DeliveryBound resolved from an
// incoming subscribe's filter (§4.8, P8), for the application to apply
// via track.Subscriber.SetDeliveryBound once it attaches a Subscriber to
// requestID's stream. The second return is false if requestID names no
// known subscribe.
func (s *Session) SubscribeBound(requestID uint64) (track.DeliveryBound, bool) {
	e, ok := s.requests.Get(requestID)
	if !ok || e.kind != "subscribe" {
		return track.DeliveryBound{}, false
	}
	return e.start.Bound(), true
}

// SubscribeAnnounces registers interest in announces under prefix,
// dispatching matching_namespace and status-changed callbacks through a
// track.SubscribeAnnouncesHandler bound to prefix (§4.7).
func (s *Session) SubscribeAnnounces(prefix trackname.Namespace, onMatching func(trackname.Namespace), onStatusChanged func(status string)) error {
	id, err := s.nextLocalID()
	if err != nil {
		return fmt.Errorf("session: subscribe announces: %w", err)
	}
	handler := track.NewSubscribeAnnouncesHandler(prefix, onMatching, onStatusChanged)
	s.subAnnounces.Insert(id, handler)
	return s.writeFrame(wire.MsgSubscribeAnnounces, wire.AppendSubscribeAnnounces(nil, wire.SubscribeAnnounces{
		RequestID: id, NamespacePrefix: toWireNamespace(prefix),
	}))
}

// UnsubscribeAnnounces withdraws interest in announces under prefix.
func (s *Session) UnsubscribeAnnounces(prefix trackname.Namespace) error {
	s.subAnnounces.Remove(prefix)
	return s.writeFrame(wire.MsgUnsubscribeAnnounces, wire.AppendUnsubscribeAnnounces(nil, wire.UnsubscribeAnnounces{
		NamespacePrefix: toWireNamespace(prefix),
	}))
}

// PublishRequest describes an outgoing publisher-initiated PUBLISH
// (server push style: offering a track without a preceding
// ANNOUNCE/SUBSCRIBE, §6 SUPPLEMENTED FEATURES).
type PublishRequest struct {
	Namespace     trackname.Namespace
	TrackName     []byte
	TrackAlias    uint64
	GroupOrder    byte
	Forward       byte
	ContentExists bool
	LargestGroup  uint64
	LargestObj    uint64
}

// Publish sends a PUBLISH, returning the allocated request id. The
// peer's PUBLISH_OK/PUBLISH_ERROR response updates the entry
// statusChanged reports, the same way Announce/Subscribe do.
func (s *Session) Publish(req PublishRequest, statusChanged func(RequestStatus)) (uint64, error) {
	id, err := s.nextLocalID()
	if err != nil {
		return 0, fmt.Errorf("session: publish: %w", err)
	}
	s.requests.Insert(id, &requestEntry{kind: "publish", status: StatusPending, onStatusChanged: statusChanged})

	p := wire.Publish{
		RequestID: id, Namespace: toWireNamespace(req.Namespace), TrackName: req.TrackName,
		TrackAlias: req.TrackAlias, GroupOrder: req.GroupOrder, ContentExists: req.ContentExists,
		LargestGroup: req.LargestGroup, LargestObj: req.LargestObj, Forward: req.Forward,
	}
	if err := s.writeFrame(wire.MsgPublish, wire.AppendPublish(nil, p)); err != nil {
		return 0, err
	}
	return id, nil
}

// RequestNewGroup sends a NEW_GROUP_REQUEST hint for the subscribe or
// publish identified by requestID, asking the publisher to cut a new
// group immediately (low-latency join). There is no response message.
func (s *Session) RequestNewGroup(requestID uint64) error {
	return s.writeFrame(wire.MsgNewGroupRequest, wire.AppendNewGroupRequest(nil, wire.NewGroupRequest{RequestID: requestID}))
}

// RequestTrackStatus sends a TRACK_STATUS_REQUEST for (ns, trackName).
// The answer, if any, arrives through Callbacks.TrackStatusReceived;
// TRACK_STATUS_REQUEST carries no request id to correlate against.
func (s *Session) RequestTrackStatus(ns trackname.Namespace, trackName []byte) error {
	return s.writeFrame(wire.MsgTrackStatusRequest, wire.AppendTrackStatusRequest(nil, wire.TrackStatusRequest{
		Namespace: toWireNamespace(ns), TrackName: trackName,
	}))
}
