package session

import (
	"sync"

	"github.com/zsiec/moqt/track"
	"github.com/zsiec/moqt/trackname"
)

// AnnounceStatus is the lifecycle of one outgoing or incoming announce
// entry (§4.8).
type AnnounceStatus int

const (
	AnnouncePending AnnounceStatus = iota
	AnnounceOK
	AnnounceError
)

type announceEntry struct {
	namespace trackname.Namespace
	status    AnnounceStatus
}

// announceTable tracks announced namespaces keyed by namespace hash
// (§4.8). Per the Open Question on try_emplace inversion, Insert is
// insert-if-absent: an already-present namespace is left untouched
// rather than overwritten, matching the spec's corrected "specify
// insert-if-absent" guidance.
type announceTable struct {
	mu      sync.Mutex
	entries map[uint64]*announceEntry
}

func newAnnounceTable() *announceTable {
	return &announceTable{entries: make(map[uint64]*announceEntry)}
}

// Insert adds ns with AnnouncePending status if no entry for its hash
// already exists; it reports whether it inserted a new entry.
func (t *announceTable) Insert(ns trackname.Namespace) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	h := ns.Hash()
	if _, ok := t.entries[h]; ok {
		return false
	}
	t.entries[h] = &announceEntry{namespace: ns.Clone(), status: AnnouncePending}
	return true
}

// SetStatus updates the status of an existing entry for ns, if present.
func (t *announceTable) SetStatus(ns trackname.Namespace, status AnnounceStatus) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.entries[ns.Hash()]; ok {
		e.status = status
	}
}

// Remove erases the entry for ns iff it is present (the corrected
// erase-iff-present semantics from the Open Question on the inverted
// guard). Removing an absent entry is a silent no-op either way.
func (t *announceTable) Remove(ns trackname.Namespace) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	h := ns.Hash()
	if _, ok := t.entries[h]; !ok {
		return false
	}
	delete(t.entries, h)
	return true
}

// Snapshot returns every currently-announced namespace, for matching
// against a newly-registered subscribe-announces prefix.
func (t *announceTable) Snapshot() []trackname.Namespace {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]trackname.Namespace, 0, len(t.entries))
	for _, e := range t.entries {
		out = append(out, e.namespace)
	}
	return out
}

// subscribeAnnouncesTable tracks this session's outstanding
// SUBSCRIBE_ANNOUNCES prefixes and dispatches matching_namespace/
// status-changed callbacks as new announces and SUBSCRIBE_ANNOUNCES_OK/
// _ERROR responses arrive (§4.7, §4.8: "a newly-added announce matches
// all currently-subscribed prefixes"). Entries are
// track.SubscribeAnnouncesHandler values, indexed both by prefix hash
// (for NotifyAnnounce matching) and by the outgoing request id that
// registered them (for NotifyStatusChanged dispatch).
type subscribeAnnouncesTable struct {
	mu        sync.Mutex
	byPrefix  map[uint64]*track.SubscribeAnnouncesHandler
	byRequest map[uint64]*track.SubscribeAnnouncesHandler
}

func newSubscribeAnnouncesTable() *subscribeAnnouncesTable {
	return &subscribeAnnouncesTable{
		byPrefix:  make(map[uint64]*track.SubscribeAnnouncesHandler),
		byRequest: make(map[uint64]*track.SubscribeAnnouncesHandler),
	}
}

// Insert registers handler under requestID and its own prefix, if no
// entry for that prefix already exists (insert-if-absent, same corrected
// semantics as announceTable.Insert).
func (t *subscribeAnnouncesTable) Insert(requestID uint64, handler *track.SubscribeAnnouncesHandler) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	h := handler.Prefix.Hash()
	if _, ok := t.byPrefix[h]; ok {
		return false
	}
	t.byPrefix[h] = handler
	t.byRequest[requestID] = handler
	return true
}

// Remove erases the entry for prefix iff present.
func (t *subscribeAnnouncesTable) Remove(prefix trackname.Namespace) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	h := prefix.Hash()
	handler, ok := t.byPrefix[h]
	if !ok {
		return false
	}
	delete(t.byPrefix, h)
	for id, hh := range t.byRequest {
		if hh == handler {
			delete(t.byRequest, id)
		}
	}
	return true
}

// NotifyAnnounce dispatches a matching_namespace callback to every
// registered handler whose prefix ns satisfies.
func (t *subscribeAnnouncesTable) NotifyAnnounce(ns trackname.Namespace) {
	t.mu.Lock()
	matches := make([]*track.SubscribeAnnouncesHandler, 0, len(t.byPrefix))
	for _, h := range t.byPrefix {
		matches = append(matches, h)
	}
	t.mu.Unlock()

	for _, h := range matches {
		h.NotifyAnnounce(ns)
	}
}

// NotifyStatusChanged dispatches a status-changed callback to the
// handler registered under requestID, if any.
func (t *subscribeAnnouncesTable) NotifyStatusChanged(requestID uint64, status string) {
	t.mu.Lock()
	handler, ok := t.byRequest[requestID]
	t.mu.Unlock()
	if ok {
		handler.NotifyStatusChanged(status)
	}
}
