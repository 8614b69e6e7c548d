package cache

import (
	"reflect"
	"testing"
	"time"

	"github.com/zsiec/moqt/tick"
)

func TestInsertAndContains(t *testing.T) {
	t.Parallel()

	clock := tick.NewFakeService()
	c := New[int, string](clock)

	c.Insert(5, "five", 1000)
	if !c.Contains(5) {
		t.Fatal("expected key 5 to be present")
	}
	if c.Contains(6) {
		t.Fatal("did not expect key 6 to be present")
	}
}

func TestLazyExpiry(t *testing.T) {
	t.Parallel()

	clock := tick.NewFakeService()
	c := New[int, string](clock)

	c.Insert(1, "a", 100)
	clock.Advance(200 * time.Millisecond)

	if c.Contains(1) {
		t.Fatal("expected key to have lazily expired")
	}
	vals, err := c.Get(0, 10)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(vals) != 0 {
		t.Fatalf("Get returned %v, want empty (expired)", vals)
	}
}

func TestInvalidRange(t *testing.T) {
	t.Parallel()

	clock := tick.NewFakeService()
	c := New[int, string](clock)

	if _, err := c.Get(5, 5); err != ErrInvalidRange {
		t.Fatalf("Get(5,5) = %v, want ErrInvalidRange", err)
	}
	if _, err := c.Get(5, 3); err != ErrInvalidRange {
		t.Fatalf("Get(5,3) = %v, want ErrInvalidRange", err)
	}
	if _, err := c.ContainsRange(5, 5); err != ErrInvalidRange {
		t.Fatalf("ContainsRange(5,5) = %v, want ErrInvalidRange", err)
	}
}

// TestFetchRangeScenario mirrors the suite's S5 scenario: a cache
// containing key 0 -> [0,1] and key 1 -> [0].
func TestFetchRangeScenario(t *testing.T) {
	t.Parallel()

	clock := tick.NewFakeService()
	c := New[int, []int](clock)
	c.Insert(0, []int{0, 1}, 10_000)
	c.Insert(1, []int{0}, 10_000)

	got, err := c.Get(0, 1)
	if err != nil {
		t.Fatalf("Get(0,1): %v", err)
	}
	if len(got) != 1 || !reflect.DeepEqual(got[0], []int{0, 1}) {
		t.Fatalf("Get(0,1) = %v, want [[0 1]]", got)
	}

	got, err = c.Get(0, 2)
	if err != nil {
		t.Fatalf("Get(0,2): %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Get(0,2) returned %d entries, want 2", len(got))
	}
}

func TestInsertReplacesExistingKey(t *testing.T) {
	t.Parallel()

	clock := tick.NewFakeService()
	c := New[int, string](clock)

	c.Insert(1, "first", 1000)
	c.Insert(1, "second", 1000)

	got, err := c.Get(1, 2)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got) != 1 || got[0] != "second" {
		t.Fatalf("Get(1,2) = %v, want [second]", got)
	}
	if c.Len() != 1 {
		t.Fatalf("Len() = %d, want 1 (replace, not append)", c.Len())
	}
}

func TestGetOrdersByKey(t *testing.T) {
	t.Parallel()

	clock := tick.NewFakeService()
	c := New[int, string](clock)
	c.Insert(3, "c", 1000)
	c.Insert(1, "a", 1000)
	c.Insert(2, "b", 1000)

	got, err := c.Get(0, 10)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Get(0,10) = %v, want %v", got, want)
	}
}

func TestPruneRemovesExpiredEntries(t *testing.T) {
	t.Parallel()

	clock := tick.NewFakeService()
	c := New[int, string](clock)
	c.Insert(1, "a", 100)
	c.Insert(2, "b", 100_000)

	clock.Advance(200 * time.Millisecond)
	c.Prune()

	if c.Len() != 1 {
		t.Fatalf("Len() = %d, want 1 after pruning expired entry", c.Len())
	}
	if !c.Contains(2) {
		t.Fatal("expected unexpired entry to survive Prune")
	}
}
