package session

import (
	"github.com/zsiec/moqt/track"
	"github.com/zsiec/moqt/trackname"
	"github.com/zsiec/moqt/wire"
)

// ConnectionStatus mirrors the session's State for the
// connection_status_changed callback (§6), expressed independently of
// the internal state machine so application code isn't coupled to it.
type ConnectionStatus int

const (
	ConnStatusConnecting ConnectionStatus = iota
	ConnStatusReady
	ConnStatusDraining
	ConnStatusClosed
)

// Callbacks are the application-facing hooks of a session (§6). Every
// field is optional; a nil callback is simply skipped. The
// three "_authorize_bool"-suffixed callbacks in the spec (announce,
// subscribe, fetch) are split into their own *_received field returning
// bool, since Go has no natural "callback name with suffix" convention.
//
// Client and server sessions share this one struct. NewConnection and
// ClientSetupReceived are invoked only by a server-role session;
// SubscribeReceived, UnsubscribeReceived and FetchReceived are invoked by
// whichever side receives the SUBSCRIBE, UNSUBSCRIBE or FETCH.
//
// The session engine does not invoke ObjectReceived or StatusChanged:
// request status reaches the statusChanged function passed to Announce,
// Subscribe or Publish, and objects are delivered by a track.Subscriber
// the application attaches to a stream.
type Callbacks struct {
	ConnectionStatusChanged func(status ConnectionStatus, reason string)
	ServerSetupReceived     func(ss wire.ServerSetup)
	AnnounceReceived        func(ns trackname.Namespace) bool
	UnannounceReceived      func(ns trackname.Namespace)
	ObjectReceived          func(trackAlias uint64, h track.Headers, payload []byte)
	StatusChanged           func(requestID uint64, status RequestStatus)

	// NewConnection and ClientSetupReceived are server-only.
	NewConnection       func(connID string, remote string)
	ClientSetupReceived func(cs wire.ClientSetup)
	SubscribeReceived   func(sub wire.Subscribe) bool
	UnsubscribeReceived func(unsub wire.Unsubscribe)
	FetchReceived       func(f wire.Fetch) bool

	// PublishReceived authorizes an incoming publisher-initiated PUBLISH
	// (server push style, no preceding ANNOUNCE/SUBSCRIBE); a nil
	// callback authorizes every publish, matching the other
	// *_received fields' "no callback configured" default.
	PublishReceived func(p wire.Publish) bool

	// AnnounceCancelled reports a peer withdrawing an announce with an
	// error code and reason, as distinct from a graceful UNANNOUNCE.
	AnnounceCancelled func(ns trackname.Namespace, errorCode uint64, reasonPhrase string)

	// NewGroupRequested delivers a peer's hint (by request id of the
	// underlying subscribe or publish) to start a new group immediately,
	// for low-latency join. There is no response message; the
	// application's track handler decides whether and when to act on it.
	NewGroupRequested func(requestID uint64)

	// TrackStatusRequested answers a peer's TRACK_STATUS_REQUEST. A nil
	// callback makes the session report StatusDoesNotExist for every
	// query.
	TrackStatusRequested func(req wire.TrackStatusRequest) wire.TrackStatus

	// TrackStatusReceived delivers the peer's answer to a TRACK_STATUS
	// request this session sent via Session.RequestTrackStatus.
	TrackStatusReceived func(ts wire.TrackStatus)
}

func toTrackname(ns wire.Namespace) trackname.Namespace { return trackname.Namespace(ns) }
func toWireNamespace(ns trackname.Namespace) wire.Namespace { return wire.Namespace(ns) }
