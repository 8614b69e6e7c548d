package bytestore

import (
	"bytes"
	"errors"
	"testing"
)

func TestPushAndLinearIteration(t *testing.T) {
	t.Parallel()

	var s Store
	s.Push([]byte("hello, "))
	s.Push([]byte("world"))

	if got, want := s.Size(), len("hello, world"); got != want {
		t.Fatalf("Size() = %d, want %d", got, want)
	}

	var out []byte
	for it := s.Begin(); it.Valid(); it = it.Plus(1) {
		b, err := it.Byte()
		if err != nil {
			t.Fatalf("Byte(): %v", err)
		}
		out = append(out, b)
	}
	if !bytes.Equal(out, []byte("hello, world")) {
		t.Fatalf("iterated %q, want %q", out, "hello, world")
	}
}

func TestViewAcrossChunkBoundary(t *testing.T) {
	t.Parallel()

	var s Store
	s.Push([]byte("abc"))
	s.Push([]byte("def"))
	s.Push([]byte("ghi"))

	v, err := s.View(DataSpan{Start: 2, Len: 5}) // "cdefg"
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	if !bytes.Equal(v, DataView("cdefg")) {
		t.Fatalf("View = %q, want %q", v, "cdefg")
	}
}

func TestEraseFrontBoundary(t *testing.T) {
	t.Parallel()

	var s Store
	s.Push([]byte("abc"))
	s.Push([]byte("defgh"))

	s.EraseFront(2) // erases "ab", within first chunk
	if s.Size() != 6 {
		t.Fatalf("Size() = %d, want 6", s.Size())
	}
	b, err := s.ByteAt(2)
	if err != nil || b != 'c' {
		t.Fatalf("ByteAt(2) = %q, %v; want 'c', nil", b, err)
	}

	s.EraseFront(1) // erases "c", which completes the first chunk
	if s.Size() != 5 {
		t.Fatalf("Size() = %d, want 5", s.Size())
	}
	b, err = s.ByteAt(3)
	if err != nil || b != 'd' {
		t.Fatalf("ByteAt(3) = %q, %v; want 'd', nil", b, err)
	}
}

func TestIteratorInvalidAfterErase(t *testing.T) {
	t.Parallel()

	var s Store
	s.Push([]byte("abcdef"))

	it := s.Begin()
	s.EraseFront(3)

	if it.Valid() {
		t.Fatal("expected iterator positioned before the new front to be invalid")
	}
	it2 := s.At(3)
	if !it2.Valid() {
		t.Fatal("expected iterator at the new front to be valid")
	}
}

func TestIteratorSurvivesPush(t *testing.T) {
	t.Parallel()

	var s Store
	s.Push([]byte("abc"))
	it := s.Begin()
	s.Push([]byte("def"))

	if !it.Valid() {
		t.Fatal("expected iterator to remain valid across Push")
	}
	b, err := it.Byte()
	if err != nil || b != 'a' {
		t.Fatalf("Byte() = %q, %v; want 'a', nil", b, err)
	}
}

func TestViewErasedRangeFails(t *testing.T) {
	t.Parallel()

	var s Store
	s.Push([]byte("abcdef"))
	s.EraseFront(3)

	_, err := s.View(DataSpan{Start: 0, Len: 3})
	if !errors.Is(err, ErrErased) {
		t.Fatalf("View over erased range = %v, want ErrErased", err)
	}
}

func TestViewOutOfRangeFails(t *testing.T) {
	t.Parallel()

	var s Store
	s.Push([]byte("abc"))

	_, err := s.View(DataSpan{Start: 0, Len: 10})
	if !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("View past end = %v, want ErrOutOfRange", err)
	}
}
