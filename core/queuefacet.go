package core

import (
	"github.com/lesfleursdelanuitdev/subsystem-core/message"
	"github.com/lesfleursdelanuitdev/subsystem-core/queue"
)

// QueuedItem pairs a message with its accept options, the unit BoundedQueue
// holds for this framework.
type QueuedItem struct {
	Msg  *message.Message
	Opts AcceptOptions
}

// Queue is the facet wrapping BoundedQueue with status/statistics
// integration.
type Queue struct {
	FacetBase

	inner *queue.BoundedQueue[QueuedItem]
	stats *Statistics
}

// NewQueueFacet constructs a Queue facet. stats may be nil; when non-nil,
// the underlying queue's full event is wired to stats.RecordQueueFull.
func NewQueueFacet(cfg queue.Config, stats *Statistics) *Queue {
	q := &Queue{
		FacetBase: NewFacetBase("queue"),
		inner:     queue.New[QueuedItem](cfg),
		stats:     stats,
	}
	q.SetProperty("queue", q.inner)
	if stats != nil {
		q.inner.OnFull(stats.RecordQueueFull)
	}
	return q
}

// Enqueue delegates to the underlying BoundedQueue.
func (q *Queue) Enqueue(item QueuedItem) queue.EnqueueResult {
	return q.inner.Enqueue(item)
}

// Dequeue delegates to the underlying BoundedQueue.
func (q *Queue) Dequeue() (QueuedItem, bool) {
	return q.inner.Dequeue()
}

// GetQueueStatus returns {size, capacity, utilization, isEmpty, isFull}
// merged with any additional fields the caller supplies.
func (q *Queue) GetQueueStatus(additional map[string]any) map[string]any {
	size := q.inner.Size()
	capacity := q.inner.Capacity()
	utilization := 0.0
	if capacity > 0 {
		utilization = float64(size) / float64(capacity)
	}
	status := map[string]any{
		"size":        size,
		"capacity":    capacity,
		"utilization": utilization,
		"isEmpty":     size == 0,
		"isFull":      size >= capacity,
	}
	for k, v := range additional {
		status[k] = v
	}
	return status
}

// ClearQueue empties the underlying queue.
func (q *Queue) ClearQueue() { q.inner.Clear() }

// HasMessagesToProcess reports whether the queue is non-empty.
func (q *Queue) HasMessagesToProcess() bool { return q.inner.Size() > 0 }

// SelectNextMessage dequeues the next item FIFO.
func (q *Queue) SelectNextMessage() (QueuedItem, bool) { return q.inner.Dequeue() }

// Size returns the current queue size.
func (q *Queue) Size() int { return q.inner.Size() }
