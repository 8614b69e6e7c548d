package pqueue

import (
	"fmt"
	"testing"
	"time"

	"github.com/zsiec/moqt/tick"
)

func TestPopFrontOrdersByPriorityThenFIFO(t *testing.T) {
	t.Parallel()

	clock := tick.NewFakeService()
	q := New(clock, 3, 10)

	q.Push(1, 1000, "b1")
	q.Push(0, 1000, "a1")
	q.Push(1, 1000, "b2")
	q.Push(0, 1000, "a2")

	want := []string{"a1", "a2", "b1", "b2"}
	for _, w := range want {
		v, ok := q.PopFront()
		if !ok || v != w {
			t.Fatalf("PopFront() = %v, %v; want %q", v, ok, w)
		}
	}
	if !q.Empty() {
		t.Fatal("expected queue to be empty")
	}
}

func TestExpiredEntriesNeverReturned(t *testing.T) {
	t.Parallel()

	clock := tick.NewFakeService()
	q := New(clock, 1, 10)

	q.Push(0, 100, "soon-to-expire")
	clock.Advance(200 * time.Millisecond)

	_, ok := q.PopFront()
	if ok {
		t.Fatal("expected expired entry to be dropped, not returned")
	}
	if q.Stats().QueueExpired != 1 {
		t.Fatalf("QueueExpired = %d, want 1", q.Stats().QueueExpired)
	}
}

func TestPushPastCapacityDrops(t *testing.T) {
	t.Parallel()

	clock := tick.NewFakeService()
	q := New(clock, 1, 2)

	if err := q.Push(0, 1000, "a"); err != nil {
		t.Fatalf("Push 1: %v", err)
	}
	if err := q.Push(0, 1000, "b"); err != nil {
		t.Fatalf("Push 2: %v", err)
	}
	if err := q.Push(0, 1000, "c"); err != ErrFull {
		t.Fatalf("Push 3 = %v, want ErrFull", err)
	}
	if q.Stats().BufferDrops != 1 {
		t.Fatalf("BufferDrops = %d, want 1", q.Stats().BufferDrops)
	}
}

func TestInvalidPriority(t *testing.T) {
	t.Parallel()

	clock := tick.NewFakeService()
	q := New(clock, 2, 10)

	if err := q.Push(-1, 1000, "x"); err != ErrInvalidPriority {
		t.Fatalf("Push(-1, ...) = %v, want ErrInvalidPriority", err)
	}
	if err := q.Push(2, 1000, "x"); err != ErrInvalidPriority {
		t.Fatalf("Push(2, ...) = %v, want ErrInvalidPriority", err)
	}
}

func TestClearCountsDiscards(t *testing.T) {
	t.Parallel()

	clock := tick.NewFakeService()
	q := New(clock, 1, 10)
	q.Push(0, 1000, "a")
	q.Push(0, 1000, "b")

	q.Clear()
	if !q.Empty() {
		t.Fatal("expected queue empty after Clear")
	}
	if q.Stats().QueueDiscards != 2 {
		t.Fatalf("QueueDiscards = %d, want 2", q.Stats().QueueDiscards)
	}
}

// TestFiveHundredItemScenario mirrors the suite's S4 scenario: 500 items
// at priority floor(i/15) and a 2000ms TTL, consumed synchronously.
func TestFiveHundredItemScenario(t *testing.T) {
	t.Parallel()

	clock := tick.NewFakeService()
	const n = 500
	const bands = n/15 + 1
	q := New(clock, bands, n)

	for i := 0; i < n; i++ {
		p := i / 15
		if err := q.Push(p, 2000, fmt.Sprintf("item-%d", i)); err != nil {
			t.Fatalf("Push(%d): %v", i, err)
		}
	}

	var got []string
	for {
		v, ok := q.PopFront()
		if !ok {
			break
		}
		got = append(got, v.(string))
	}
	if len(got) != n {
		t.Fatalf("popped %d items, want %d", len(got), n)
	}
	if !q.Empty() {
		t.Fatal("expected queue empty after draining all 500 items")
	}

	// Verify priority-then-insertion order.
	idx := 0
	for p := 0; p < bands; p++ {
		for i := p * 15; i < (p+1)*15 && i < n; i++ {
			want := fmt.Sprintf("item-%d", i)
			if got[idx] != want {
				t.Fatalf("position %d = %q, want %q", idx, got[idx], want)
			}
			idx++
		}
	}
}
