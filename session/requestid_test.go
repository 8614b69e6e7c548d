package session

import (
	"errors"
	"testing"
	"time"
)

func TestAllocatorMonotonic(t *testing.T) {
	a := NewAllocator(10)
	for i := uint64(0); i <= 10; i++ {
		id, err := a.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if id != i {
			t.Fatalf("id = %d, want %d", id, i)
		}
	}
}

func TestAllocatorExhaustedFailsByDefault(t *testing.T) {
	a := NewAllocator(0)
	if _, err := a.Next(); err != nil {
		t.Fatalf("first Next: %v", err)
	}
	if _, err := a.Next(); !errors.Is(err, ErrRequestIDExhausted) {
		t.Fatalf("err = %v, want ErrRequestIDExhausted", err)
	}
	if !a.Blocked() {
		t.Fatal("Blocked() = false, want true")
	}
}

func TestAllocatorQueuesUntilSetMax(t *testing.T) {
	a := NewAllocator(0)
	a.QueueOnExhaustion = true

	if _, err := a.Next(); err != nil {
		t.Fatalf("first Next: %v", err)
	}

	done := make(chan uint64, 1)
	go func() {
		id, err := a.Next()
		if err != nil {
			t.Errorf("queued Next: %v", err)
		}
		done <- id
	}()

	select {
	case <-done:
		t.Fatal("queued Next returned before SetMax raised the ceiling")
	case <-time.After(20 * time.Millisecond):
	}

	a.SetMax(5)
	select {
	case id := <-done:
		if id != 1 {
			t.Fatalf("released id = %d, want 1", id)
		}
	case <-time.After(time.Second):
		t.Fatal("queued Next never released after SetMax")
	}
}

func TestAllocatorSetMaxNeverLowers(t *testing.T) {
	a := NewAllocator(10)
	a.SetMax(3)
	if !a.Allowed(10) {
		t.Fatal("SetMax(3) lowered the ceiling below the initial grant")
	}
}

func TestAllocatorAllowed(t *testing.T) {
	a := NewAllocator(5)
	if !a.Allowed(5) {
		t.Fatal("Allowed(5) = false, want true (inclusive of max)")
	}
	if a.Allowed(6) {
		t.Fatal("Allowed(6) = true, want false")
	}
}
