package session

import (
	"errors"
	"sync"
)

// ErrRequestIDExhausted is returned by Allocator.Next when the next id
// would exceed the peer's granted maximum and the allocator is
// configured to fail rather than queue (§4.8).
var ErrRequestIDExhausted = errors.New("session: request id exhausted")

// Allocator hands out monotonically increasing request ids for one
// direction of a session (each peer allocates its own ids, §4.1 I3: a
// 62-bit id space, strictly increasing, never reused). It also tracks the
// current MAX_REQUEST_ID grant from the peer and can queue allocations
// that would exceed it until a higher grant arrives, or fail them
// immediately, depending on QueueOnExhaustion.
type Allocator struct {
	mu sync.Mutex

	next  uint64
	max   uint64
	queue []chan uint64

	// QueueOnExhaustion selects the behavior when the next id would
	// exceed max: true queues the request (resolved once SetMax raises
	// the grant), false fails immediately with ErrRequestIDExhausted.
	QueueOnExhaustion bool
}

// NewAllocator returns an Allocator with the peer's initial MAX_REQUEST_ID
// grant.
func NewAllocator(initialMax uint64) *Allocator {
	return &Allocator{max: initialMax}
}

// Next allocates the next request id, blocking only if QueueOnExhaustion
// is set and the allocator is currently exhausted; a caller that wants a
// non-blocking failure instead should leave QueueOnExhaustion false.
func (a *Allocator) Next() (uint64, error) {
	a.mu.Lock()
	if a.next <= a.max {
		id := a.next
		a.next++
		a.mu.Unlock()
		return id, nil
	}
	if !a.QueueOnExhaustion {
		a.mu.Unlock()
		return 0, ErrRequestIDExhausted
	}
	ch := make(chan uint64, 1)
	a.queue = append(a.queue, ch)
	a.mu.Unlock()
	return <-ch, nil
}

// Blocked reports whether the next allocation would currently be
// exhausted, i.e. whether the engine should emit REQUESTS_BLOCKED (§4.8).
func (a *Allocator) Blocked() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.next > a.max
}

// SetMax updates the peer's granted maximum (from a received
// MAX_REQUEST_ID), releasing any queued allocations that now fit.
func (a *Allocator) SetMax(max uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if max < a.max {
		return
	}
	a.max = max
	for len(a.queue) > 0 && a.next <= a.max {
		ch := a.queue[0]
		a.queue = a.queue[1:]
		id := a.next
		a.next++
		ch <- id
		close(ch)
	}
}

// Allowed reports whether id is within the currently granted maximum,
// for validating a peer-issued request id against the last
// MAX_REQUEST_ID this side granted (§8 P10).
func (a *Allocator) Allowed(id uint64) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return id <= a.max
}

// Peek returns the id the next call to Next will allocate, without
// consuming it.
func (a *Allocator) Peek() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.next
}
