// Package session implements the MoQT connection state machine (§4.8):
// the CLIENT_SETUP/SERVER_SETUP exchange, the request-id-keyed and
// namespace-hash-keyed control dispatch tables, filter evaluation, and
// GOAWAY-driven draining. It is grounded on the teacher's
// internal/distribution/moq_session.go control loop and teardown shape,
// generalized from a handful of hardcoded media track names to the full
// generic announce/subscribe/fetch table model the spec describes.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gofrs/uuid"
	multierror "github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"github.com/zsiec/moqt/trackname"
	"github.com/zsiec/moqt/transport"
	"github.com/zsiec/moqt/wire"
)

// Role distinguishes which side of the CLIENT_SETUP/SERVER_SETUP
// exchange a Session plays.
type Role int

const (
	RoleClient Role = iota
	RoleServer
)

// State is one of the five connection states of §4.8.
type State int

const (
	StateConnecting State = iota
	StateSetup
	StateReady
	StateDraining
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "Connecting"
	case StateSetup:
		return "Setup"
	case StateReady:
		return "Ready"
	case StateDraining:
		return "Draining"
	case StateClosed:
		return "Closed"
	default:
		return "Unknown"
	}
}

// ErrProtocolViolation terminates the session per §7: unknown message
// type, failed validate(), or a version mismatch during setup.
var ErrProtocolViolation = errors.New("session: protocol violation")

// ErrVersionMismatch is a specific ErrProtocolViolation cause raised
// during the setup exchange when no common version is offered.
var ErrVersionMismatch = fmt.Errorf("%w: version mismatch", ErrProtocolViolation)

// Config configures a Session.
type Config struct {
	Role       Role
	Path       string
	EndpointID string

	// InitialMaxRequestID is advertised to the peer in this side's
	// CLIENT_SETUP or SERVER_SETUP and is the ceiling incoming request ids
	// are validated against. This side's own allocator ceiling comes from
	// the peer's setup message and later MAX_REQUEST_ID frames.
	InitialMaxRequestID uint64

	// QueueOnRequestIDExhaustion selects whether an outgoing
	// subscribe/fetch/announce that would exceed the peer's granted
	// max blocks (queued, released once a higher MAX_REQUEST_ID
	// arrives) or fails immediately with ErrRequestIDExhausted (§4.8).
	QueueOnRequestIDExhaustion bool

	// GoAwayGrace bounds how long in-flight subscribes may continue
	// after a GOAWAY before the engine forces Closed (§4.8).
	GoAwayGrace time.Duration

	// UseExtendedTrackNotExist selects the non-standard
	// SubscribeErrorCode 0xF0 the spec flags as "missing in draft"
	// instead of the standard SubscribeErrorTrackDoesNotExist (§9
	// Open Question 3). Defaults to false.
	UseExtendedTrackNotExist bool

	// AuthorizeTTL bounds how long a memoized announce_received/
	// subscribe_received/fetch_received authorize result (Callbacks)
	// is cached before the callback is consulted again (§authorize.go).
	AuthorizeTTL time.Duration
}

const (
	// SubscribeErrorTrackDoesNotExist is the standards-track code for a
	// subscribe naming an unknown track.
	SubscribeErrorTrackDoesNotExist uint64 = 0x04
	// subscribeErrorTrackNotExistExt is the extension code from the
	// original source, 0xF0, selected by Config.UseExtendedTrackNotExist.
	subscribeErrorTrackNotExistExt uint64 = 0xF0
)

// Session drives one MoQT connection's control-message state machine
// over a transport.Connection.
type Session struct {
	id  string
	cfg Config
	log *slog.Logger

	conn       transport.Connection
	control    transport.Stream
	controlMu  sync.Mutex
	controlBuf []byte

	mu    sync.RWMutex
	state State

	localIDs *Allocator // ids this side allocates for its own requests
	peerIDs  *Allocator // validates incoming request ids against the max we've granted the peer (I3)

	announces    *announceTable
	subAnnounces *subscribeAnnouncesTable
	requests     *requestTable

	announceAuth  *authorizer
	subscribeAuth *authorizer
	fetchAuth     *authorizer
	publishAuth   *authorizer

	cb Callbacks

	goAwayOnce sync.Once
	closeOnce  sync.Once
}

// New constructs a Session bound to conn; call Run to drive it.
func New(conn transport.Connection, cfg Config, cb Callbacks) *Session {
	if cfg.GoAwayGrace <= 0 {
		cfg.GoAwayGrace = 10 * time.Second
	}
	if cfg.AuthorizeTTL <= 0 {
		cfg.AuthorizeTTL = 30 * time.Second
	}
	id, err := uuid.NewV4()
	idStr := ""
	if err == nil {
		idStr = id.String()
	}

	s := &Session{
		id:           idStr,
		cfg:          cfg,
		log:          slog.With("session", idStr),
		conn:         conn,
		state:        StateConnecting,
		localIDs:     NewAllocator(0),
		peerIDs:      NewAllocator(cfg.InitialMaxRequestID),
		announces:    newAnnounceTable(),
		subAnnounces: newSubscribeAnnouncesTable(),
		requests:     newRequestTable(),
		cb:           cb,
	}
	s.localIDs.QueueOnExhaustion = cfg.QueueOnRequestIDExhaustion
	s.announceAuth = newAuthorizer(cfg.AuthorizeTTL)
	s.subscribeAuth = newAuthorizer(cfg.AuthorizeTTL)
	s.fetchAuth = newAuthorizer(cfg.AuthorizeTTL)
	s.publishAuth = newAuthorizer(cfg.AuthorizeTTL)
	return s
}

// namespaceKey joins a namespace's elements into a single memoization
// key for the authorize caches; namespace elements are opaque bytes, so
// a NUL-joined string can't collide the way a human-readable separator
// could.
func namespaceKey(ns trackname.Namespace) string {
	key := make([]byte, 0, 32)
	for _, elem := range ns {
		key = append(key, elem...)
		key = append(key, 0)
	}
	return string(key)
}

// ID returns the session's generated connection id (for the server-only
// new_connection(conn_id, remote) callback).
func (s *Session) ID() string { return s.id }

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Session) setState(st State, reason string) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()

	if s.cb.ConnectionStatusChanged == nil {
		return
	}
	var cs ConnectionStatus
	switch st {
	case StateConnecting, StateSetup:
		cs = ConnStatusConnecting
	case StateReady:
		cs = ConnStatusReady
	case StateDraining:
		cs = ConnStatusDraining
	case StateClosed:
		cs = ConnStatusClosed
	}
	s.cb.ConnectionStatusChanged(cs, reason)
}

// Run performs the setup exchange and then drives the control loop until
// ctx is cancelled, the drain after a GOAWAY ends, or a protocol
// violation terminates the session. It mirrors the teacher's
// MoQSession.Run/readControlLoop shape (moq_session.go), generalized
// from a single hardcoded per-viewer session to the full generic table
// model.
func (s *Session) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if s.cfg.Role == RoleServer {
		if s.cb.NewConnection != nil {
			s.cb.NewConnection(s.id, s.conn.RemoteAddr())
		}
		ctrl, err := s.conn.AcceptControlStream(ctx)
		if err != nil {
			return fmt.Errorf("session: accept control stream: %w", err)
		}
		s.control = ctrl
		if err := s.serverSetup(); err != nil {
			s.setState(StateClosed, err.Error())
			return err
		}
	} else {
		ctrl, err := s.conn.OpenControlStream(ctx)
		if err != nil {
			return fmt.Errorf("session: open control stream: %w", err)
		}
		s.control = ctrl
		if err := s.clientSetup(); err != nil {
			s.setState(StateClosed, err.Error())
			return err
		}
	}

	s.setState(StateReady, "")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.controlLoop(gctx) })
	g.Go(func() error {
		<-gctx.Done()
		// A control-stream read does not observe ctx; closing the
		// connection unblocks it.
		_ = s.conn.CloseWithError(0, "session ended")
		return nil
	})

	err := g.Wait()
	return s.teardown(err)
}

// clientSetup sends CLIENT_SETUP and awaits SERVER_SETUP (§4.8).
func (s *Session) clientSetup() error {
	s.setState(StateSetup, "")

	cs := wire.ClientSetup{
		Versions:     []uint64{wire.Version},
		Path:         s.cfg.Path,
		HasPath:      s.cfg.Path != "",
		MaxRequestID: s.cfg.InitialMaxRequestID,
	}
	if err := s.writeFrame(wire.MsgClientSetup, wire.AppendClientSetup(nil, cs)); err != nil {
		return err
	}

	frame, err := s.readFrame()
	if err != nil {
		return fmt.Errorf("session: read SERVER_SETUP: %w", err)
	}
	if frame.Type != wire.MsgServerSetup {
		return fmt.Errorf("%w: expected SERVER_SETUP, got 0x%x", ErrProtocolViolation, frame.Type)
	}
	ss, err := wire.ParseServerSetup(frame.Payload)
	if err != nil {
		return fmt.Errorf("%w: parse SERVER_SETUP: %v", ErrProtocolViolation, err)
	}
	if ss.SelectedVersion != wire.Version {
		return ErrVersionMismatch
	}
	s.localIDs.SetMax(ss.MaxRequestID)
	if s.cb.ServerSetupReceived != nil {
		s.cb.ServerSetupReceived(ss)
	}
	return nil
}

// serverSetup awaits CLIENT_SETUP and answers with SERVER_SETUP (§4.8).
func (s *Session) serverSetup() error {
	s.setState(StateSetup, "")

	frame, err := s.readFrame()
	if err != nil {
		return fmt.Errorf("session: read CLIENT_SETUP: %w", err)
	}
	if frame.Type != wire.MsgClientSetup {
		return fmt.Errorf("%w: expected CLIENT_SETUP, got 0x%x", ErrProtocolViolation, frame.Type)
	}
	cs, err := wire.ParseClientSetup(frame.Payload)
	if err != nil {
		return fmt.Errorf("%w: parse CLIENT_SETUP: %v", ErrProtocolViolation, err)
	}

	versionOK := false
	for _, v := range cs.Versions {
		if v == wire.Version {
			versionOK = true
			break
		}
	}
	if !versionOK {
		return ErrVersionMismatch
	}
	if s.cb.ClientSetupReceived != nil {
		s.cb.ClientSetupReceived(cs)
	}
	s.localIDs.SetMax(cs.MaxRequestID)

	ss := wire.ServerSetup{SelectedVersion: wire.Version, MaxRequestID: s.cfg.InitialMaxRequestID}
	return s.writeFrame(wire.MsgServerSetup, wire.AppendServerSetup(nil, ss))
}

// controlLoop reads and dispatches control messages until ctx is done or
// the peer closes the stream (mirrors readControlLoop in moq_session.go).
func (s *Session) controlLoop(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		frame, err := s.readFrame()
		if err != nil {
			return fmt.Errorf("session: control read: %w", err)
		}

		if err := s.dispatch(frame); err != nil {
			return err
		}
	}
}

func (s *Session) dispatch(frame wire.Frame) error {
	switch frame.Type {
	case wire.MsgAnnounce:
		return s.handleAnnounce(frame.Payload)
	case wire.MsgAnnounceOK:
		return s.handleAnnounceOK(frame.Payload)
	case wire.MsgAnnounceError:
		return s.handleAnnounceError(frame.Payload)
	case wire.MsgUnannounce:
		return s.handleUnannounce(frame.Payload)
	case wire.MsgSubscribe:
		return s.handleSubscribe(frame.Payload)
	case wire.MsgUnsubscribe:
		return s.handleUnsubscribe(frame.Payload)
	case wire.MsgSubscribeOK:
		return s.handleSubscribeOK(frame.Payload)
	case wire.MsgSubscribeError:
		return s.handleSubscribeError(frame.Payload)
	case wire.MsgSubscribeDone:
		return s.handleSubscribeDone(frame.Payload)
	case wire.MsgSubscribeAnnounces:
		return s.handleSubscribeAnnounces(frame.Payload)
	case wire.MsgSubscribeAnnouncesOK:
		return s.handleSubscribeAnnouncesOK(frame.Payload)
	case wire.MsgSubscribeAnnouncesErr:
		return s.handleSubscribeAnnouncesError(frame.Payload)
	case wire.MsgUnsubscribeAnnounces:
		return s.handleUnsubscribeAnnounces(frame.Payload)
	case wire.MsgFetch:
		return s.handleFetch(frame.Payload)
	case wire.MsgFetchCancel:
		return s.handleFetchCancel(frame.Payload)
	case wire.MsgMaxRequestID:
		return s.handleMaxRequestID(frame.Payload)
	case wire.MsgRequestsBlocked:
		return nil // informational; no local action required beyond logging
	case wire.MsgAnnounceCancel:
		return s.handleAnnounceCancel(frame.Payload)
	case wire.MsgTrackStatusRequest:
		return s.handleTrackStatusRequest(frame.Payload)
	case wire.MsgTrackStatus:
		return s.handleTrackStatus(frame.Payload)
	case wire.MsgNewGroupRequest:
		return s.handleNewGroupRequest(frame.Payload)
	case wire.MsgPublish:
		return s.handlePublish(frame.Payload)
	case wire.MsgPublishOK:
		return s.handlePublishOK(frame.Payload)
	case wire.MsgPublishError:
		return s.handlePublishError(frame.Payload)
	case wire.MsgGoAway:
		return s.handleGoAway(frame.Payload)
	default:
		s.log.Debug("unhandled control message", "type", frame.Type)
		return nil
	}
}

func (s *Session) handleAnnounce(payload []byte) error {
	a, err := wire.ParseAnnounce(payload)
	if err != nil {
		return fmt.Errorf("%w: ANNOUNCE: %v", ErrProtocolViolation, err)
	}
	if !s.peerIDs.Allowed(a.RequestID) {
		return fmt.Errorf("%w: ANNOUNCE request id %d exceeds granted max", ErrProtocolViolation, a.RequestID)
	}
	ns := toTrackname(a.Namespace)
	s.announces.Insert(ns)
	s.subAnnounces.NotifyAnnounce(ns)

	var compute func() bool
	if s.cb.AnnounceReceived != nil {
		compute = func() bool { return s.cb.AnnounceReceived(ns) }
	}
	ok := s.announceAuth.authorize(namespaceKey(ns), compute)
	if ok {
		return s.writeFrame(wire.MsgAnnounceOK, wire.AppendAnnounceOK(nil, wire.AnnounceOK{RequestID: a.RequestID}))
	}
	s.announces.Remove(ns)
	return s.writeFrame(wire.MsgAnnounceError, wire.AppendAnnounceError(nil, wire.AnnounceError{
		RequestID: a.RequestID, ErrorCode: 1, ReasonPhrase: "unauthorized",
	}))
}

func (s *Session) handleAnnounceOK(payload []byte) error {
	ok, err := wire.ParseAnnounceOK(payload)
	if err != nil {
		return fmt.Errorf("%w: ANNOUNCE_OK: %v", ErrProtocolViolation, err)
	}
	s.requests.SetStatus(ok.RequestID, StatusOK)
	return nil
}

func (s *Session) handleAnnounceError(payload []byte) error {
	e, err := wire.ParseAnnounceError(payload)
	if err != nil {
		return fmt.Errorf("%w: ANNOUNCE_ERROR: %v", ErrProtocolViolation, err)
	}
	s.requests.SetStatus(e.RequestID, StatusError)
	return nil
}

func (s *Session) handleUnannounce(payload []byte) error {
	u, err := wire.ParseUnannounce(payload)
	if err != nil {
		return fmt.Errorf("%w: UNANNOUNCE: %v", ErrProtocolViolation, err)
	}
	ns := toTrackname(u.Namespace)
	s.announces.Remove(ns)
	if s.cb.UnannounceReceived != nil {
		s.cb.UnannounceReceived(ns)
	}
	return nil
}

func (s *Session) handleSubscribe(payload []byte) error {
	sub, err := wire.ParseSubscribe(payload)
	if err != nil {
		return fmt.Errorf("%w: SUBSCRIBE: %v", ErrProtocolViolation, err)
	}
	if !s.peerIDs.Allowed(sub.RequestID) {
		return fmt.Errorf("%w: SUBSCRIBE request id %d exceeds granted max", ErrProtocolViolation, sub.RequestID)
	}

	var compute func() bool
	if s.cb.SubscribeReceived != nil {
		compute = func() bool { return s.cb.SubscribeReceived(sub) }
	}
	subKey := namespaceKey(toTrackname(sub.Namespace)) + string(sub.TrackName)
	authorized := s.subscribeAuth.authorize(subKey, compute)
	if !authorized {
		code := SubscribeErrorTrackDoesNotExist
		if s.cfg.UseExtendedTrackNotExist {
			code = subscribeErrorTrackNotExistExt
		}
		return s.writeFrame(wire.MsgSubscribeError, wire.AppendSubscribeError(nil, wire.SubscribeError{
			RequestID: sub.RequestID, ErrorCode: code, ReasonPhrase: "unauthorized",
		}))
	}

	start, err := EvaluateFilter(sub, 0, 0)
	if err != nil {
		return s.writeFrame(wire.MsgSubscribeError, wire.AppendSubscribeError(nil, wire.SubscribeError{
			RequestID: sub.RequestID, ErrorCode: 2, ReasonPhrase: "invalid range",
		}))
	}

	s.requests.Insert(sub.RequestID, &requestEntry{kind: "subscribe", status: StatusPending, start: start})
	return s.writeFrame(wire.MsgSubscribeOK, wire.AppendSubscribeOK(nil, wire.SubscribeOK{
		RequestID: sub.RequestID, GroupOrder: wire.GroupOrderAscending,
	}))
}

func (s *Session) handleUnsubscribe(payload []byte) error {
	u, err := wire.ParseUnsubscribe(payload)
	if err != nil {
		return fmt.Errorf("%w: UNSUBSCRIBE: %v", ErrProtocolViolation, err)
	}
	s.requests.Remove(u.RequestID)
	if s.cb.UnsubscribeReceived != nil {
		s.cb.UnsubscribeReceived(u)
	}
	return nil
}

func (s *Session) handleSubscribeOK(payload []byte) error {
	ok, err := wire.ParseSubscribeOK(payload)
	if err != nil {
		return fmt.Errorf("%w: SUBSCRIBE_OK: %v", ErrProtocolViolation, err)
	}
	s.requests.SetStatus(ok.RequestID, StatusOK)
	return nil
}

func (s *Session) handleSubscribeError(payload []byte) error {
	e, err := wire.ParseSubscribeError(payload)
	if err != nil {
		return fmt.Errorf("%w: SUBSCRIBE_ERROR: %v", ErrProtocolViolation, err)
	}
	s.requests.SetStatus(e.RequestID, StatusError)
	s.requests.Remove(e.RequestID)
	return nil
}

func (s *Session) handleSubscribeDone(payload []byte) error {
	d, err := wire.ParseSubscribeDone(payload)
	if err != nil {
		return fmt.Errorf("%w: SUBSCRIBE_DONE: %v", ErrProtocolViolation, err)
	}
	s.requests.SetStatus(d.RequestID, StatusDone)
	s.requests.Remove(d.RequestID)
	return nil
}

func (s *Session) handleSubscribeAnnounces(payload []byte) error {
	sa, err := wire.ParseSubscribeAnnounces(payload)
	if err != nil {
		return fmt.Errorf("%w: SUBSCRIBE_ANNOUNCES: %v", ErrProtocolViolation, err)
	}
	prefix := toTrackname(sa.NamespacePrefix)

	if err := s.writeFrame(wire.MsgSubscribeAnnouncesOK, wire.AppendSubscribeAnnouncesOK(nil, wire.SubscribeAnnouncesOK{RequestID: sa.RequestID})); err != nil {
		return err
	}
	// Replay every already-known matching namespace to the peer as an
	// ANNOUNCE, so its subscribe-announces handler sees it.
	for _, ns := range s.announces.Snapshot() {
		if !prefix.IsPrefixOf(ns) {
			continue
		}
		id, err := s.nextLocalID()
		if err != nil {
			break
		}
		if err := s.writeFrame(wire.MsgAnnounce, wire.AppendAnnounce(nil, wire.Announce{RequestID: id, Namespace: toWireNamespace(ns)})); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) handleSubscribeAnnouncesOK(payload []byte) error {
	ok, err := wire.ParseSubscribeAnnouncesOK(payload)
	if err != nil {
		return fmt.Errorf("%w: SUBSCRIBE_ANNOUNCES_OK: %v", ErrProtocolViolation, err)
	}
	s.subAnnounces.NotifyStatusChanged(ok.RequestID, "ok")
	return nil
}

func (s *Session) handleSubscribeAnnouncesError(payload []byte) error {
	e, err := wire.ParseSubscribeAnnouncesError(payload)
	if err != nil {
		return fmt.Errorf("%w: SUBSCRIBE_ANNOUNCES_ERROR: %v", ErrProtocolViolation, err)
	}
	s.subAnnounces.NotifyStatusChanged(e.RequestID, "error")
	return nil
}

func (s *Session) handleUnsubscribeAnnounces(payload []byte) error {
	u, err := wire.ParseUnsubscribeAnnounces(payload)
	if err != nil {
		return fmt.Errorf("%w: UNSUBSCRIBE_ANNOUNCES: %v", ErrProtocolViolation, err)
	}
	s.subAnnounces.Remove(toTrackname(u.NamespacePrefix))
	return nil
}

func (s *Session) handleFetch(payload []byte) error {
	f, err := wire.ParseFetch(payload)
	if err != nil {
		return fmt.Errorf("%w: FETCH: %v", ErrProtocolViolation, err)
	}
	if !s.peerIDs.Allowed(f.RequestID) {
		return fmt.Errorf("%w: FETCH request id %d exceeds granted max", ErrProtocolViolation, f.RequestID)
	}
	var compute func() bool
	if s.cb.FetchReceived != nil {
		compute = func() bool { return s.cb.FetchReceived(f) }
	}
	fetchKey := namespaceKey(toTrackname(f.Namespace)) + string(f.TrackName)
	authorized := s.fetchAuth.authorize(fetchKey, compute)
	if !authorized {
		return s.writeFrame(wire.MsgFetchError, wire.AppendFetchError(nil, wire.FetchError{
			RequestID: f.RequestID, ErrorCode: 1, ReasonPhrase: "unauthorized",
		}))
	}
	s.requests.Insert(f.RequestID, &requestEntry{kind: "fetch", status: StatusPending})
	return s.writeFrame(wire.MsgFetchOK, wire.AppendFetchOK(nil, wire.FetchOK{RequestID: f.RequestID, GroupOrder: f.GroupOrder}))
}

func (s *Session) handleFetchCancel(payload []byte) error {
	c, err := wire.ParseFetchCancel(payload)
	if err != nil {
		return fmt.Errorf("%w: FETCH_CANCEL: %v", ErrProtocolViolation, err)
	}
	s.requests.Remove(c.RequestID)
	return nil
}

func (s *Session) handleMaxRequestID(payload []byte) error {
	m, err := wire.ParseMaxRequestID(payload)
	if err != nil {
		return fmt.Errorf("%w: MAX_REQUEST_ID: %v", ErrProtocolViolation, err)
	}
	s.localIDs.SetMax(m.RequestID)
	return nil
}

// handleAnnounceCancel withdraws a namespace the peer had announced,
// distinguished from a graceful UNANNOUNCE by carrying an error code and
// reason (§2 item 8's message catalog).
func (s *Session) handleAnnounceCancel(payload []byte) error {
	c, err := wire.ParseAnnounceCancel(payload)
	if err != nil {
		return fmt.Errorf("%w: ANNOUNCE_CANCEL: %v", ErrProtocolViolation, err)
	}
	ns := toTrackname(c.Namespace)
	s.announces.Remove(ns)
	if s.cb.AnnounceCancelled != nil {
		s.cb.AnnounceCancelled(ns, c.ErrorCode, c.ReasonPhrase)
	}
	return nil
}

// trackStatusCodeUnknown is reported for TRACK_STATUS_REQUEST when the
// application hasn't registered a TrackStatusRequested callback.
const trackStatusCodeUnknown = uint64(wire.StatusDoesNotExist)

func (s *Session) handleTrackStatusRequest(payload []byte) error {
	req, err := wire.ParseTrackStatusRequest(payload)
	if err != nil {
		return fmt.Errorf("%w: TRACK_STATUS_REQUEST: %v", ErrProtocolViolation, err)
	}
	status := wire.TrackStatus{Namespace: req.Namespace, TrackName: req.TrackName, StatusCode: trackStatusCodeUnknown}
	if s.cb.TrackStatusRequested != nil {
		status = s.cb.TrackStatusRequested(req)
	}
	return s.writeFrame(wire.MsgTrackStatus, wire.AppendTrackStatus(nil, status))
}

func (s *Session) handleTrackStatus(payload []byte) error {
	ts, err := wire.ParseTrackStatus(payload)
	if err != nil {
		return fmt.Errorf("%w: TRACK_STATUS: %v", ErrProtocolViolation, err)
	}
	if s.cb.TrackStatusReceived != nil {
		s.cb.TrackStatusReceived(ts)
	}
	return nil
}

// handleNewGroupRequest delivers a peer's low-latency-join hint to the
// application; there is no response message (§6 SUPPLEMENTED FEATURES).
func (s *Session) handleNewGroupRequest(payload []byte) error {
	n, err := wire.ParseNewGroupRequest(payload)
	if err != nil {
		return fmt.Errorf("%w: NEW_GROUP_REQUEST: %v", ErrProtocolViolation, err)
	}
	if s.cb.NewGroupRequested != nil {
		s.cb.NewGroupRequested(n.RequestID)
	}
	return nil
}

// handlePublish answers an incoming publisher-initiated PUBLISH (server
// push style) the same way handleSubscribe answers a SUBSCRIBE: authorize
// via the memoized callback, then PUBLISH_OK/PUBLISH_ERROR (§6
// SUPPLEMENTED FEATURES).
func (s *Session) handlePublish(payload []byte) error {
	p, err := wire.ParsePublish(payload)
	if err != nil {
		return fmt.Errorf("%w: PUBLISH: %v", ErrProtocolViolation, err)
	}
	if !s.peerIDs.Allowed(p.RequestID) {
		return fmt.Errorf("%w: PUBLISH request id %d exceeds granted max", ErrProtocolViolation, p.RequestID)
	}

	var compute func() bool
	if s.cb.PublishReceived != nil {
		compute = func() bool { return s.cb.PublishReceived(p) }
	}
	pubKey := namespaceKey(toTrackname(p.Namespace)) + string(p.TrackName)
	if !s.publishAuth.authorize(pubKey, compute) {
		return s.writeFrame(wire.MsgPublishError, wire.AppendPublishError(nil, wire.PublishError{
			RequestID: p.RequestID, ErrorCode: 1, ReasonPhrase: "unauthorized",
		}))
	}

	s.requests.Insert(p.RequestID, &requestEntry{kind: "publish", status: StatusPending})
	return s.writeFrame(wire.MsgPublishOK, wire.AppendPublishOK(nil, wire.PublishOK{
		RequestID: p.RequestID, Forward: 1, GroupOrder: wire.GroupOrderAscending, FilterType: wire.FilterLatestGroup,
	}))
}

func (s *Session) handlePublishOK(payload []byte) error {
	ok, err := wire.ParsePublishOK(payload)
	if err != nil {
		return fmt.Errorf("%w: PUBLISH_OK: %v", ErrProtocolViolation, err)
	}
	s.requests.SetStatus(ok.RequestID, StatusOK)
	return nil
}

func (s *Session) handlePublishError(payload []byte) error {
	e, err := wire.ParsePublishError(payload)
	if err != nil {
		return fmt.Errorf("%w: PUBLISH_ERROR: %v", ErrProtocolViolation, err)
	}
	s.requests.SetStatus(e.RequestID, StatusError)
	s.requests.Remove(e.RequestID)
	return nil
}

// handleGoAway moves the session into Draining; drainAndClose then
// forces Closed and closes the connection, which ends Run, once
// cfg.GoAwayGrace elapses or all in-flight requests finish, whichever
// comes first (§4.8).
func (s *Session) handleGoAway(payload []byte) error {
	if _, err := wire.ParseGoAway(payload); err != nil {
		return fmt.Errorf("%w: GOAWAY: %v", ErrProtocolViolation, err)
	}
	s.goAwayOnce.Do(func() {
		s.setState(StateDraining, "GOAWAY received")
		go s.drainAndClose()
	})
	return nil
}

func (s *Session) drainAndClose() {
	deadline := time.NewTimer(s.cfg.GoAwayGrace)
	defer deadline.Stop()
	poll := time.NewTicker(50 * time.Millisecond)
	defer poll.Stop()

	for {
		select {
		case <-deadline.C:
			s.setState(StateClosed, "GOAWAY grace period elapsed")
			_ = s.conn.CloseWithError(0, "GOAWAY grace period elapsed")
			return
		case <-poll.C:
			if s.requests.Len() == 0 {
				s.setState(StateClosed, "all in-flight requests finished")
				_ = s.conn.CloseWithError(0, "all in-flight requests finished")
				return
			}
		}
	}
}

// teardown aggregates every error observed closing the session, using
// go-multierror the way the teacher aggregates per-subscription teardown
// failures, and always transitions to Closed.
func (s *Session) teardown(runErr error) error {
	var merr *multierror.Error
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		merr = multierror.Append(merr, runErr)
	}

	s.closeOnce.Do(func() {
		if s.State() != StateClosed {
			s.setState(StateClosed, "session ended")
		}
		if err := s.conn.CloseWithError(0, "session ended"); err != nil {
			merr = multierror.Append(merr, err)
		}
	})

	return merr.ErrorOrNil()
}

func (s *Session) writeFrame(msgType uint64, payload []byte) error {
	s.controlMu.Lock()
	defer s.controlMu.Unlock()
	buf := wire.AppendFrame(nil, msgType, payload)
	_, err := s.control.Write(buf)
	return err
}

// readFrame reads exactly one control frame off the control stream. The
// control stream is a reliable bidirectional QUIC stream, so (unlike
// object streams) this package reads and parses frame-by-frame rather
// than accumulating through a streambuf.Buffer: §4.6 only requires the
// engine to "wait" for a complete frame, which a small growable read
// buffer satisfies directly.
func (s *Session) readFrame() (wire.Frame, error) {
	chunk := make([]byte, 4096)
	for {
		frame, n, err := wire.ReadFrame(s.controlBuf)
		if err == nil {
			s.controlBuf = append([]byte(nil), s.controlBuf[n:]...)
			return frame, nil
		}
		if !errors.Is(err, wire.ErrTruncated) {
			return wire.Frame{}, err
		}
		read, rerr := s.control.Read(chunk)
		if read > 0 {
			s.controlBuf = append(s.controlBuf, chunk[:read]...)
		}
		if rerr != nil {
			return wire.Frame{}, rerr
		}
	}
}
