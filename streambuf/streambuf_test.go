package streambuf

import (
	"fmt"
	"testing"

	"github.com/zsiec/moqt/varint"
)

// parseVarint adapts varint.Parse to the ParseFunc[varint.UintVar] shape,
// translating varint.ErrTruncated into this package's ErrTruncated.
func parseVarint(buf []byte) (varint.UintVar, int, error) {
	v, n, err := varint.Parse(buf)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	return v, n, nil
}

func TestTryParseSucceedsAndAdvances(t *testing.T) {
	t.Parallel()

	var b Buffer
	enc := varint.UintVar(0x1234).Bytes()
	b.Push(enc)

	v, ok, err := TryParse(&b, parseVarint)
	if err != nil || !ok {
		t.Fatalf("TryParse: ok=%v err=%v", ok, err)
	}
	if v != 0x1234 {
		t.Fatalf("got %d, want 0x1234", v)
	}
	if b.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", b.Len())
	}
}

func TestTryParseTruncatedRetries(t *testing.T) {
	t.Parallel()

	var b Buffer
	full := varint.UintVar(0x123456).Bytes() // 4 bytes
	b.Push(full[:2])                         // only half arrived

	_, ok, err := TryParse(&b, parseVarint)
	if err != nil || ok {
		t.Fatalf("expected truncated retry, got ok=%v err=%v", ok, err)
	}
	if b.Len() != 2 {
		t.Fatalf("cursor advanced on truncation: Len() = %d, want 2", b.Len())
	}

	b.Push(full[2:])
	v, ok, err := TryParse(&b, parseVarint)
	if err != nil || !ok {
		t.Fatalf("TryParse after fill: ok=%v err=%v", ok, err)
	}
	if v != 0x123456 {
		t.Fatalf("got %d, want 0x123456", v)
	}
}

func TestTryParseMultipleValuesInOneBuffer(t *testing.T) {
	t.Parallel()

	var b Buffer
	b.Push(varint.UintVar(1).Bytes())
	b.Push(varint.UintVar(2).Bytes())

	v1, ok, err := TryParse(&b, parseVarint)
	if err != nil || !ok || v1 != 1 {
		t.Fatalf("first parse: v=%d ok=%v err=%v", v1, ok, err)
	}
	v2, ok, err := TryParse(&b, parseVarint)
	if err != nil || !ok || v2 != 2 {
		t.Fatalf("second parse: v=%d ok=%v err=%v", v2, ok, err)
	}
}

// alwaysBadParse always returns a non-truncation error, exercising the
// poisoned state.
func alwaysBadParse(buf []byte) (int, int, error) {
	return 0, 0, fmt.Errorf("bad frame")
}

func TestTryParsePoisonsOnDecodeError(t *testing.T) {
	t.Parallel()

	var b Buffer
	b.Push([]byte{0xFF})

	_, ok, err := TryParse(&b, alwaysBadParse)
	if ok || err == nil {
		t.Fatalf("expected failure, got ok=%v err=%v", ok, err)
	}
	if !b.Poisoned() {
		t.Fatal("expected buffer to be poisoned")
	}

	_, _, err = TryParse(&b, alwaysBadParse)
	if err != ErrPoisoned {
		t.Fatalf("got %v, want ErrPoisoned", err)
	}

	b.Clear()
	if b.Poisoned() {
		t.Fatal("expected Clear to reset poisoned state")
	}
}

type fakeParseState struct{ Embeddable }

func TestAnyBSlotLifecycle(t *testing.T) {
	t.Parallel()

	var b Buffer
	if b.AnyBState() != nil {
		t.Fatal("expected nil AnyB state initially")
	}

	b.InitAnyB(fakeParseState{})
	if b.AnyBState() == nil {
		t.Fatal("expected non-nil AnyB state after InitAnyB")
	}

	b.ResetAnyB()
	if b.AnyBState() != nil {
		t.Fatal("expected nil AnyB state after ResetAnyB")
	}
}
