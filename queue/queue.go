// Package queue implements BoundedQueue: a capacity-bounded FIFO with
// configurable overflow policy, a single-slot "full" subscriber, and an
// optional admission-rate limiter.
package queue

import (
	"sync"

	"golang.org/x/time/rate"
)

// Policy selects the overflow behavior when a BoundedQueue is at capacity.
type Policy string

const (
	// DropOldest removes the head to make room, then appends.
	DropOldest Policy = "drop-oldest"
	// DropNewest rejects the incoming item, keeping the queue unchanged.
	DropNewest Policy = "drop-newest"
	// Reject rejects the incoming item, keeping the queue unchanged.
	Reject Policy = "reject"
)

// EnqueueResult reports how enqueue handled an item.
type EnqueueResult int

const (
	Accepted EnqueueResult = iota
	AcceptedWithDrop
	Rejected
)

func (r EnqueueResult) String() string {
	switch r {
	case Accepted:
		return "accepted"
	case AcceptedWithDrop:
		return "accepted-with-drop"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// FullHandler is notified each time the overflow policy triggers.
type FullHandler func()

// BoundedQueue is a FIFO of items of type T bounded by Capacity. The zero
// value is not usable; construct with New.
type BoundedQueue[T any] struct {
	mu       sync.Mutex
	items    []T
	capacity int
	policy   Policy
	onFull   FullHandler
	limiter  *rate.Limiter
}

// Config configures a BoundedQueue.
type Config struct {
	Capacity int
	Policy   Policy
	// Limiter, when non-nil, is consulted before the overflow policy: a
	// negative Allow() sheds the item as Rejected regardless of Policy.
	Limiter *rate.Limiter
}

// New constructs a BoundedQueue. A non-positive Capacity is treated as 1, and
// an unrecognized Policy defaults to Reject.
func New[T any](cfg Config) *BoundedQueue[T] {
	capacity := cfg.Capacity
	if capacity <= 0 {
		capacity = 1
	}
	policy := cfg.Policy
	switch policy {
	case DropOldest, DropNewest, Reject:
	default:
		policy = Reject
	}
	return &BoundedQueue[T]{
		items:    make([]T, 0, capacity),
		capacity: capacity,
		policy:   policy,
		limiter:  cfg.Limiter,
	}
}

// OnFull registers the single "full" subscriber slot. Registering again
// replaces the prior subscriber.
func (q *BoundedQueue[T]) OnFull(handler FullHandler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.onFull = handler
}

// Enqueue appends item, applying the configured overflow policy if the
// queue is already at capacity.
func (q *BoundedQueue[T]) Enqueue(item T) EnqueueResult {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.limiter != nil && !q.limiter.Allow() {
		q.fireFullLocked()
		return Rejected
	}

	if len(q.items) < q.capacity {
		q.items = append(q.items, item)
		return Accepted
	}

	switch q.policy {
	case DropOldest:
		q.items = append(q.items[1:], item)
		q.fireFullLocked()
		return AcceptedWithDrop
	default: // DropNewest, Reject
		q.fireFullLocked()
		return Rejected
	}
}

func (q *BoundedQueue[T]) fireFullLocked() {
	if q.onFull != nil {
		q.onFull()
	}
}

// Dequeue removes and returns the head item, or ok=false if empty.
func (q *BoundedQueue[T]) Dequeue() (item T, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		var zero T
		return zero, false
	}
	item = q.items[0]
	q.items = q.items[1:]
	return item, true
}

// Peek returns the head item without removing it.
func (q *BoundedQueue[T]) Peek() (item T, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		var zero T
		return zero, false
	}
	return q.items[0], true
}

// Remove filters out every item for which predicate returns true, preserving
// relative order of the items kept. Returns the count removed.
func (q *BoundedQueue[T]) Remove(predicate func(T) bool) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	kept := q.items[:0:0]
	removed := 0
	for _, item := range q.items {
		if predicate(item) {
			removed++
			continue
		}
		kept = append(kept, item)
	}
	q.items = kept
	return removed
}

// Size returns the current number of queued items.
func (q *BoundedQueue[T]) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Capacity returns the configured capacity.
func (q *BoundedQueue[T]) Capacity() int {
	return q.capacity
}

// Clear empties the queue.
func (q *BoundedQueue[T]) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = q.items[:0]
}

// Snapshot returns a copy of the queued items in FIFO order, for inspection
// and testing.
func (q *BoundedQueue[T]) Snapshot() []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]T, len(q.items))
	copy(out, q.items)
	return out
}
