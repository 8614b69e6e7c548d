package session

import "sync"

// RequestStatus is the lifecycle of one outstanding announce, subscribe,
// fetch or publish request keyed by request id (§4.8, §5 suspension point 3:
// "the request remaining in the table with status Pending").
type RequestStatus int

const (
	StatusPending RequestStatus = iota
	StatusOK
	StatusError
	StatusSending // cancellation in flight; callbacks suppressed (§5)
	StatusDone
)

// requestEntry is one row of the request-id-keyed dispatch table shared
// by announces, subscribes, fetches and publishes.
type requestEntry struct {
	kind   string // "announce", "subscribe", "fetch", "publish"
	status RequestStatus

	// start is the filter resolved by EvaluateFilter for an incoming
	// subscribe, retrievable by the application through
	// Session.SubscribeBound once the subscribe is accepted.
	start Start

	// onStatusChanged is the application-facing status path; it receives
	// every status change except StatusSending.
	onStatusChanged func(RequestStatus)
}

// requestTable is the generic (request_id) -> entry dispatch table
// described in §4.8 ("control messages are dispatched to handler tables
// keyed by (request_id) for subscribes/fetches/publishes").
type requestTable struct {
	mu      sync.Mutex
	entries map[uint64]*requestEntry
}

func newRequestTable() *requestTable {
	return &requestTable{entries: make(map[uint64]*requestEntry)}
}

func (t *requestTable) Insert(id uint64, e *requestEntry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[id] = e
}

func (t *requestTable) Get(id uint64) (*requestEntry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[id]
	return e, ok
}

// Remove erases the entry for id iff present, returning it.
func (t *requestTable) Remove(id uint64) (*requestEntry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[id]
	if !ok {
		return nil, false
	}
	delete(t.entries, id)
	return e, true
}

// SetStatus transitions the entry for id, suppressing callbacks while
// StatusSending per §5's cancellation semantics.
func (t *requestTable) SetStatus(id uint64, status RequestStatus) {
	t.mu.Lock()
	e, ok := t.entries[id]
	t.mu.Unlock()
	if !ok {
		return
	}
	e.status = status
	if status != StatusSending && e.onStatusChanged != nil {
		e.onStatusChanged(status)
	}
}

func (t *requestTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
