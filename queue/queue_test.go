package queue

import (
	"testing"

	"golang.org/x/time/rate"
)

func TestFIFOOrderBelowCapacity(t *testing.T) {
	q := New[int](Config{Capacity: 5, Policy: Reject})
	for i := 1; i <= 4; i++ {
		if res := q.Enqueue(i); res != Accepted {
			t.Fatalf("expected Accepted, got %v", res)
		}
	}
	for i := 1; i <= 4; i++ {
		v, ok := q.Dequeue()
		if !ok || v != i {
			t.Fatalf("expected %d, got %d ok=%v", i, v, ok)
		}
	}
}

func TestDropOldestKeepsLastCapacityItems(t *testing.T) {
	fullEvents := 0
	q := New[int](Config{Capacity: 2, Policy: DropOldest})
	q.OnFull(func() { fullEvents++ })

	if res := q.Enqueue(1); res != Accepted {
		t.Fatalf("expected Accepted for 1, got %v", res)
	}
	if res := q.Enqueue(2); res != Accepted {
		t.Fatalf("expected Accepted for 2, got %v", res)
	}
	if res := q.Enqueue(3); res != AcceptedWithDrop {
		t.Fatalf("expected AcceptedWithDrop for 3, got %v", res)
	}

	if q.Size() != 2 {
		t.Fatalf("expected size 2, got %d", q.Size())
	}
	if fullEvents != 1 {
		t.Fatalf("expected 1 full event, got %d", fullEvents)
	}

	v, _ := q.Dequeue()
	if v != 2 {
		t.Fatalf("expected 2 first, got %d", v)
	}
	v, _ = q.Dequeue()
	if v != 3 {
		t.Fatalf("expected 3 second, got %d", v)
	}
}

func TestDropNewestKeepsFirstCapacityItems(t *testing.T) {
	q := New[int](Config{Capacity: 2, Policy: DropNewest})
	q.Enqueue(1)
	q.Enqueue(2)
	if res := q.Enqueue(3); res != Rejected {
		t.Fatalf("expected Rejected, got %v", res)
	}

	snap := q.Snapshot()
	if len(snap) != 2 || snap[0] != 1 || snap[1] != 2 {
		t.Fatalf("expected [1 2], got %v", snap)
	}
}

func TestRejectPolicyLeavesQueueUnchanged(t *testing.T) {
	q := New[int](Config{Capacity: 1, Policy: Reject})
	q.Enqueue(1)
	if res := q.Enqueue(2); res != Rejected {
		t.Fatalf("expected Rejected, got %v", res)
	}
	if q.Size() != 1 {
		t.Fatalf("expected size 1, got %d", q.Size())
	}
}

func TestRemoveByPredicate(t *testing.T) {
	q := New[int](Config{Capacity: 5, Policy: Reject})
	for i := 1; i <= 5; i++ {
		q.Enqueue(i)
	}
	removed := q.Remove(func(v int) bool { return v%2 == 0 })
	if removed != 2 {
		t.Fatalf("expected 2 removed, got %d", removed)
	}
	if got := q.Snapshot(); len(got) != 3 || got[0] != 1 || got[1] != 3 || got[2] != 5 {
		t.Fatalf("unexpected remaining items: %v", got)
	}
}

func TestClear(t *testing.T) {
	q := New[int](Config{Capacity: 3, Policy: Reject})
	q.Enqueue(1)
	q.Enqueue(2)
	q.Clear()
	if q.Size() != 0 {
		t.Fatalf("expected empty queue after clear, got size %d", q.Size())
	}
}

func TestLimiterShedsAheadOfPolicy(t *testing.T) {
	limiter := rate.NewLimiter(0, 0) // never allows
	q := New[int](Config{Capacity: 5, Policy: Reject, Limiter: limiter})
	fullEvents := 0
	q.OnFull(func() { fullEvents++ })

	if res := q.Enqueue(1); res != Rejected {
		t.Fatalf("expected Rejected due to limiter, got %v", res)
	}
	if q.Size() != 0 {
		t.Fatalf("expected queue to stay empty, got size %d", q.Size())
	}
	if fullEvents != 1 {
		t.Fatalf("expected full handler fired once, got %d", fullEvents)
	}
}
