package track

import "github.com/zsiec/moqt/trackname"

// MatchingNamespaceFunc is invoked once per announce whose namespace
// carries the handler's bound prefix (§4.7).
type MatchingNamespaceFunc func(ns trackname.Namespace)

// StatusChangedFunc reports a status transition for the bound
// subscribe-announces request (e.g. OK, Error, or terminated locally).
type StatusChangedFunc func(status string)

// SubscribeAnnouncesHandler is bound to a single namespace prefix and
// receives a callback for every peer announce whose namespace has that
// prefix, plus status changes for the underlying SUBSCRIBE_ANNOUNCES
// request itself (§4.7).
type SubscribeAnnouncesHandler struct {
	Common

	Prefix          trackname.Namespace
	onMatching      MatchingNamespaceFunc
	onStatusChanged StatusChangedFunc
}

// NewSubscribeAnnouncesHandler returns a handler bound to prefix.
func NewSubscribeAnnouncesHandler(prefix trackname.Namespace, onMatching MatchingNamespaceFunc, onStatusChanged StatusChangedFunc) *SubscribeAnnouncesHandler {
	return &SubscribeAnnouncesHandler{
		Prefix:          prefix,
		onMatching:      onMatching,
		onStatusChanged: onStatusChanged,
	}
}

// NotifyAnnounce is invoked by the session engine's announce table for
// every namespace the peer announces; it calls back only if prefix
// matches.
func (h *SubscribeAnnouncesHandler) NotifyAnnounce(ns trackname.Namespace) {
	if h.Prefix.IsPrefixOf(ns) && h.onMatching != nil {
		h.onMatching(ns)
	}
}

// NotifyStatusChanged reports a status transition to the application.
func (h *SubscribeAnnouncesHandler) NotifyStatusChanged(status string) {
	if h.onStatusChanged != nil {
		h.onStatusChanged(status)
	}
}
