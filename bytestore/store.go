// Package bytestore implements a chunked, append-only byte container used
// as the backing store for every encoded MoQT frame. Bytes are pushed in
// whole chunks and consumed from the front; a random-access iterator lets
// callers walk the logical byte sequence without copying chunk data,
// while DataSpan/DataView give bounded, possibly cross-chunk, contiguous
// views.
//
// Ownership follows single-owner-plus-borrowed-views (§9 design note):
// a Store has exactly one owner, and Iterators borrowed from it must not
// outlive an EraseFront call that covers their position. DataView
// returns a copy, which stays valid after any EraseFront.
package bytestore

import (
	"errors"
	"sort"
)

// ErrErased is returned when an operation references a logical position
// that has already been dropped by EraseFront.
var ErrErased = errors.New("bytestore: position erased")

// ErrOutOfRange is returned when a position or span falls outside the
// store's currently valid logical range.
var ErrOutOfRange = errors.New("bytestore: out of range")

// Store is a chunked append-only byte container. The zero value is a
// valid, empty Store.
type Store struct {
	chunks [][]byte // un-erased chunks, front to back
	starts []int    // starts[i] = logical offset of chunks[i][0]
	front  int       // logical offset of the first valid byte
	end    int       // logical offset one past the last pushed byte
}

// Push appends a copy of b as a new chunk. Existing iterators and views
// remain valid (invariant I5).
func (s *Store) Push(b []byte) {
	if len(b) == 0 {
		return
	}
	cp := make([]byte, len(b))
	copy(cp, b)
	s.starts = append(s.starts, s.end)
	s.chunks = append(s.chunks, cp)
	s.end += len(cp)
}

// Size returns the number of currently valid (un-erased) bytes.
func (s *Store) Size() int {
	return s.end - s.front
}

// Empty reports whether the store currently holds no valid bytes.
func (s *Store) Empty() bool {
	return s.Size() == 0
}

// EraseFront logically removes the first n bytes. Fully-consumed chunks
// are freed; a partially-consumed leading chunk is kept in place (its
// bytes are not copied or shifted — P4: erasing fewer bytes than the
// first chunk holds is a no-op at the chunk-storage level but still
// advances the logical front). Iterators/views positioned before the new
// front become invalid (I5).
func (s *Store) EraseFront(n int) {
	if n <= 0 {
		return
	}
	if n > s.Size() {
		n = s.Size()
	}
	s.front += n

	// Drop chunks fully to the left of the new front.
	i := 0
	for i < len(s.chunks) {
		chunkEnd := s.starts[i] + len(s.chunks[i])
		if chunkEnd > s.front {
			break
		}
		i++
	}
	if i > 0 {
		s.chunks = s.chunks[i:]
		s.starts = s.starts[i:]
	}
}

// chunkIndexFor returns the index into s.chunks holding logical position
// pos, using binary search over the chunk start offsets: O(log chunks).
func (s *Store) chunkIndexFor(pos int) (int, bool) {
	if pos < s.front || pos >= s.end {
		return 0, false
	}
	// Largest i such that starts[i] <= pos.
	i := sort.Search(len(s.starts), func(i int) bool { return s.starts[i] > pos }) - 1
	if i < 0 {
		return 0, false
	}
	return i, true
}

// ByteAt returns the byte at logical position pos.
func (s *Store) ByteAt(pos int) (byte, error) {
	idx, ok := s.chunkIndexFor(pos)
	if !ok {
		if pos < s.front {
			return 0, ErrErased
		}
		return 0, ErrOutOfRange
	}
	return s.chunks[idx][pos-s.starts[idx]], nil
}

// DataSpan describes a bounded subrange of the store in logical
// coordinates (monotonic, never reset by EraseFront).
type DataSpan struct {
	Start int
	Len   int
}

// DataView is a materialized, contiguous view of a DataSpan. Unlike an
// Iterator it is a plain copied byte slice, safe to retain past any
// later EraseFront call.
type DataView []byte

// View materializes span into a contiguous DataView, copying across
// chunk boundaries as needed. It fails with ErrErased if any part of the
// span has been erased, or ErrOutOfRange if the span extends past the
// pushed data.
func (s *Store) View(span DataSpan) (DataView, error) {
	if span.Len == 0 {
		return DataView{}, nil
	}
	end := span.Start + span.Len
	if span.Start < s.front {
		return nil, ErrErased
	}
	if end > s.end {
		return nil, ErrOutOfRange
	}

	out := make(DataView, 0, span.Len)
	pos := span.Start
	for pos < end {
		idx, ok := s.chunkIndexFor(pos)
		if !ok {
			return nil, ErrOutOfRange
		}
		chunk := s.chunks[idx]
		chunkStart := s.starts[idx]
		offset := pos - chunkStart
		avail := len(chunk) - offset
		need := end - pos
		take := avail
		if take > need {
			take = need
		}
		out = append(out, chunk[offset:offset+take]...)
		pos += take
	}
	return out, nil
}

// Iterator is a forward, random-access cursor over a Store's logical byte
// sequence. It supports O(log chunks) repositioning via Plus/Minus.
// Iterators remain valid across Push but become invalid once their
// position is erased by EraseFront (I5); Valid reports this.
type Iterator struct {
	store *Store
	pos   int
}

// Begin returns an iterator positioned at the current logical front.
func (s *Store) Begin() Iterator {
	return Iterator{store: s, pos: s.front}
}

// End returns an iterator positioned one past the last valid byte.
func (s *Store) End() Iterator {
	return Iterator{store: s, pos: s.end}
}

// At returns an iterator positioned at logical offset pos (absolute,
// not relative to the current front).
func (s *Store) At(pos int) Iterator {
	return Iterator{store: s, pos: pos}
}

// Pos returns the iterator's absolute logical position.
func (it Iterator) Pos() int { return it.pos }

// Valid reports whether the iterator's position still refers to a live
// byte in the store (not erased, not past the end).
func (it Iterator) Valid() bool {
	return it.pos >= it.store.front && it.pos < it.store.end
}

// Plus returns a new iterator advanced by k (k may be negative).
func (it Iterator) Plus(k int) Iterator {
	return Iterator{store: it.store, pos: it.pos + k}
}

// Minus returns a new iterator moved back by k.
func (it Iterator) Minus(k int) Iterator {
	return it.Plus(-k)
}

// Byte dereferences the iterator, returning the byte at its position.
func (it Iterator) Byte() (byte, error) {
	return it.store.ByteAt(it.pos)
}

// Distance returns other.Pos() - it.Pos().
func (it Iterator) Distance(other Iterator) int {
	return other.pos - it.pos
}

// View materializes the n bytes starting at the iterator's position.
func (it Iterator) View(n int) (DataView, error) {
	return it.store.View(DataSpan{Start: it.pos, Len: n})
}
