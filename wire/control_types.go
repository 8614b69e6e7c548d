package wire

// Control message type IDs (draft-ietf-moq-transport-15 §6), extended
// from the teacher's partial set to the full catalog named in spec.md
// §2 item 8.
const (
	MsgSubscribeUpdate       uint64 = 0x02
	MsgSubscribe             uint64 = 0x03
	MsgSubscribeOK           uint64 = 0x04
	MsgSubscribeError        uint64 = 0x05
	MsgAnnounce              uint64 = 0x06
	MsgAnnounceOK            uint64 = 0x07
	MsgAnnounceError         uint64 = 0x08
	MsgUnannounce            uint64 = 0x09
	MsgUnsubscribe           uint64 = 0x0a
	MsgSubscribeDone         uint64 = 0x0b
	MsgAnnounceCancel        uint64 = 0x0c
	MsgTrackStatusRequest    uint64 = 0x0d
	MsgTrackStatus           uint64 = 0x0e
	MsgGoAway                uint64 = 0x10
	MsgSubscribeAnnounces    uint64 = 0x11
	MsgSubscribeAnnouncesOK  uint64 = 0x12
	MsgSubscribeAnnouncesErr uint64 = 0x13
	MsgUnsubscribeAnnounces  uint64 = 0x14
	MsgMaxRequestID          uint64 = 0x15
	MsgFetch                 uint64 = 0x16
	MsgFetchCancel           uint64 = 0x17
	MsgFetchOK               uint64 = 0x18
	MsgFetchError            uint64 = 0x19
	MsgRequestsBlocked       uint64 = 0x1a
	MsgNewGroupRequest       uint64 = 0x1b
	MsgPublish               uint64 = 0x1d
	MsgPublishOK             uint64 = 0x1e
	MsgPublishError          uint64 = 0x1f
	MsgClientSetup           uint64 = 0x20
	MsgServerSetup           uint64 = 0x21
)

// Version is the MoQ Transport version this codec implements: draft-15
// uses 0xff000000 + the draft number.
const Version uint64 = 0xff00000f

// Setup parameter keys.
const (
	ParamPath         uint64 = 0x01 // odd -> length-prefixed byte string
	ParamMaxRequestID uint64 = 0x02 // even -> varint value
)

// Subscribe filter types.
const (
	FilterLatestGroup    uint64 = 0x01
	FilterLatestObject   uint64 = 0x02
	FilterAbsoluteStart  uint64 = 0x03
	FilterAbsoluteRange  uint64 = 0x04
)

// GroupOrder values.
const (
	GroupOrderOriginal   byte = 0x00
	GroupOrderAscending  byte = 0x01
	GroupOrderDescending byte = 0x02
)

// ForwardingPreference values.
const (
	ForwardDatagram      byte = 0x00
	ForwardStreamPerTrack byte = 0x01
)

// TrackMode controls how a publisher cuts outgoing objects across QUIC
// streams.
type TrackMode byte

const (
	TrackModeDatagram TrackMode = iota
	TrackModeStreamPerGroup
	TrackModeStreamPerObject
	TrackModeStreamPerTrack
)

// ObjectStatus is the publisher-reported status of an object slot.
type ObjectStatus uint64

const (
	StatusAvailable ObjectStatus = iota
	StatusDoesNotExist
	StatusEndOfGroup
	StatusEndOfSubGroup
	StatusEndOfTrack
)

// ClientSetup is the first message sent by a MoQT client.
type ClientSetup struct {
	Versions     []uint64
	Path         string
	HasPath      bool
	MaxRequestID uint64
}

// ServerSetup answers a ClientSetup.
type ServerSetup struct {
	SelectedVersion uint64
	MaxRequestID    uint64
}

// Subscribe requests delivery of a track, optionally bounded by a
// filter.
type Subscribe struct {
	RequestID  uint64
	TrackAlias uint64
	Namespace  Namespace
	TrackName  []byte
	Priority   byte
	GroupOrder byte
	Forward    byte
	FilterType uint64
	StartGroup uint64 // AbsoluteStart, AbsoluteRange
	StartObj   uint64 // AbsoluteStart, AbsoluteRange
	EndGroup   uint64 // AbsoluteRange
	HasEndObj  bool
	EndObj     uint64 // AbsoluteRange, optional
}

// SubscribeUpdate narrows an existing subscription's bounds or priority.
type SubscribeUpdate struct {
	RequestID  uint64
	StartGroup uint64
	StartObj   uint64
	EndGroup   uint64
	Priority   byte
}

// SubscribeOK confirms a subscription.
type SubscribeOK struct {
	RequestID     uint64
	Expires       uint64
	GroupOrder    byte
	ContentExists bool
	LargestGroup  uint64
	LargestObj    uint64
}

// SubscribeError rejects a subscription.
type SubscribeError struct {
	RequestID    uint64
	ErrorCode    uint64
	ReasonPhrase string
}

// SubscribeDone signals the end of a subscription's lifetime.
type SubscribeDone struct {
	RequestID    uint64
	StatusCode   uint64
	ReasonPhrase string
}

// Unsubscribe cancels a subscription.
type Unsubscribe struct {
	RequestID uint64
}

// Announce publishes a namespace's availability.
type Announce struct {
	RequestID uint64
	Namespace Namespace
}

// AnnounceOK confirms an announce.
type AnnounceOK struct {
	RequestID uint64
}

// AnnounceError rejects an announce.
type AnnounceError struct {
	RequestID    uint64
	ErrorCode    uint64
	ReasonPhrase string
}

// AnnounceCancel withdraws a previously OK'd announce.
type AnnounceCancel struct {
	Namespace    Namespace
	ErrorCode    uint64
	ReasonPhrase string
}

// Unannounce withdraws a namespace.
type Unannounce struct {
	Namespace Namespace
}

// SubscribeAnnounces requests notification of announces under a
// namespace prefix.
type SubscribeAnnounces struct {
	RequestID       uint64
	NamespacePrefix Namespace
}

// SubscribeAnnouncesOK confirms a SubscribeAnnounces.
type SubscribeAnnouncesOK struct {
	RequestID uint64
}

// SubscribeAnnouncesError rejects a SubscribeAnnounces.
type SubscribeAnnouncesError struct {
	RequestID    uint64
	ErrorCode    uint64
	ReasonPhrase string
}

// UnsubscribeAnnounces cancels a SubscribeAnnounces.
type UnsubscribeAnnounces struct {
	NamespacePrefix Namespace
}

// Fetch requests a standalone or joining range of objects.
type Fetch struct {
	RequestID    uint64
	Priority     byte
	GroupOrder   byte
	Joining      bool
	JoiningReqID uint64 // valid when Joining
	PrecedingN   uint64 // valid when Joining: groups preceding the subscription's largest
	Namespace    Namespace
	TrackName    []byte
	StartGroup   uint64
	StartObj     uint64
	EndGroup     uint64
	HasEndObj    bool
	EndObj       uint64
}

// FetchCancel cancels an in-flight fetch.
type FetchCancel struct {
	RequestID uint64
}

// FetchOK confirms a fetch.
type FetchOK struct {
	RequestID    uint64
	GroupOrder   byte
	EndOfTrack   bool
	LargestGroup uint64
	LargestObj   uint64
}

// FetchError rejects a fetch.
type FetchError struct {
	RequestID    uint64
	ErrorCode    uint64
	ReasonPhrase string
}

// TrackStatusRequest asks for the current status of a track.
type TrackStatusRequest struct {
	Namespace Namespace
	TrackName []byte
}

// TrackStatus answers a TrackStatusRequest.
type TrackStatus struct {
	Namespace    Namespace
	TrackName    []byte
	StatusCode   uint64
	LargestGroup uint64
	LargestObj   uint64
}

// GoAway signals a graceful session shutdown, optionally redirecting the
// peer to a new session URI.
type GoAway struct {
	NewSessionURI string
}

// MaxRequestID raises the peer's request-id quota.
type MaxRequestID struct {
	RequestID uint64
}

// RequestsBlocked informs the peer that the local request-id quota was
// exhausted at the time a new request was attempted.
type RequestsBlocked struct {
	MaximumRequestID uint64
}

// NewGroupRequest is a best-effort hint asking a publisher to start a
// new group sooner than it otherwise would (e.g. after a subscriber
// join or a detected gap).
type NewGroupRequest struct {
	RequestID uint64
}

// Publish is sent by a publisher to offer a track directly to a
// subscriber without a preceding ANNOUNCE/SUBSCRIBE handshake.
type Publish struct {
	RequestID     uint64
	Namespace     Namespace
	TrackName     []byte
	TrackAlias    uint64
	GroupOrder    byte
	ContentExists bool
	LargestGroup  uint64
	LargestObj    uint64
	Forward       byte
}

// PublishOK accepts a Publish offer, optionally narrowing its delivery
// bounds the way a Subscribe would.
type PublishOK struct {
	RequestID  uint64
	Forward    byte
	Priority   byte
	GroupOrder byte
	FilterType uint64
	StartGroup uint64
	StartObj   uint64
	EndGroup   uint64
	HasEndObj  bool
	EndObj     uint64
}

// PublishError rejects a Publish offer.
type PublishError struct {
	RequestID    uint64
	ErrorCode    uint64
	ReasonPhrase string
}
