// Package streambuf layers typed, retry-on-truncation frame parsing on
// top of bytestore.Store: push bytes as they arrive off the wire, then
// attempt to parse a complete value; if the buffer doesn't yet hold a
// full frame, the attempt fails without consuming anything and the
// caller retries once more bytes arrive.
//
// It also holds a single opaque "in-progress parse" slot (AnyB) used by
// callers that need to remember where they are mid-object across
// multiple reads of a subgroup/fetch stream header (§9 design note: a
// tagged variant of possible in-progress parses, not a runtime-typed/
// reflection-based slot).
package streambuf

import (
	"errors"

	"github.com/zsiec/moqt/bytestore"
)

// ErrTruncated should be returned (or wrapped) by a parse function passed
// to TryParse to indicate "not enough bytes yet" — distinct from a real
// decode error, which poisons the buffer.
var ErrTruncated = errors.New("streambuf: truncated")

// ErrPoisoned is returned by TryParse once the buffer has recorded a
// non-truncation parse failure; the caller must call Clear before
// attempting to parse again.
var ErrPoisoned = errors.New("streambuf: poisoned, call Clear")

// AnyB is the opaque in-progress-parse slot. Concrete parse-state types
// (e.g. a subgroup handler's NoneExpected/ExpectingHeader/ExpectingObject
// states) implement it by embedding anyB.
type AnyB interface {
	isAnyB()
}

// Embed anyB in a concrete parse-state type to satisfy AnyB:
//
//	type ExpectingHeader struct{ anyB }
type anyB struct{}

func (anyB) isAnyB() {}

// Embeddable is the zero-cost marker embedded in concrete parse-state
// structs; it's exported under a friendlier name than the private type.
type Embeddable = anyB

// Buffer wraps a bytestore.Store with retry-on-truncation parsing and an
// opaque parse-state slot. The zero value is ready to use.
type Buffer struct {
	store    bytestore.Store
	slot     AnyB
	poisoned bool
}

// Push appends newly-arrived bytes.
func (b *Buffer) Push(data []byte) {
	b.store.Push(data)
}

// Poisoned reports whether a prior TryParse failed with a non-truncation
// error, requiring Clear before further use.
func (b *Buffer) Poisoned() bool {
	return b.poisoned
}

// Clear resets the buffer to empty, unpoisoned, with no parse state.
func (b *Buffer) Clear() {
	b.store = bytestore.Store{}
	b.slot = nil
	b.poisoned = false
}

// Len returns the number of unconsumed bytes currently buffered.
func (b *Buffer) Len() int {
	return b.store.Size()
}

// InitAnyB installs a new in-progress-parse state, replacing any prior one.
func (b *Buffer) InitAnyB(v AnyB) {
	b.slot = v
}

// AnyBState returns the current in-progress-parse state, or nil if none
// is installed.
func (b *Buffer) AnyBState() AnyB {
	return b.slot
}

// ResetAnyB clears the in-progress-parse state, typically called after a
// parse completes successfully.
func (b *Buffer) ResetAnyB() {
	b.slot = nil
}

// ParseFunc decodes a value of type T from the front of buf, returning
// the number of bytes consumed. It must return an error wrapping
// ErrTruncated if buf does not yet hold a complete encoding; TryParse
// recognizes truncation only through errors.Is(err, ErrTruncated).
type ParseFunc[T any] func(buf []byte) (value T, n int, err error)

// TryParse attempts to decode a T from the front of the buffer using fn.
//
//   - On success, it advances the buffer's read cursor past the consumed
//     bytes and returns (value, true, nil).
//   - On truncation (fn's error satisfies errors.Is(err, ErrTruncated)),
//     it returns (zero, false, nil) without advancing the cursor, so the
//     caller can push more bytes and retry. Parse functions from other
//     packages that have their own truncation sentinel must wrap it with
//     fmt.Errorf("%w: ...", streambuf.ErrTruncated) so errors.Is matches.
//   - On any other error, the buffer becomes poisoned and the error is
//     returned; the caller must call Clear before parsing again.
func TryParse[T any](b *Buffer, fn ParseFunc[T]) (T, bool, error) {
	var zero T
	if b.poisoned {
		return zero, false, ErrPoisoned
	}

	n := b.store.Size()
	if n == 0 {
		return zero, false, nil
	}
	data, err := b.store.View(bytestore.DataSpan{Start: b.store.Begin().Pos(), Len: n})
	if err != nil {
		b.poisoned = true
		return zero, false, err
	}

	v, consumed, err := fn(data)
	if err != nil {
		if errors.Is(err, ErrTruncated) {
			return zero, false, nil
		}
		b.poisoned = true
		return zero, false, err
	}

	b.store.EraseFront(consumed)
	return v, true, nil
}
