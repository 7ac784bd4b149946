package core

import (
	"testing"

	"github.com/lesfleursdelanuitdev/subsystem-core/message"
	"github.com/lesfleursdelanuitdev/subsystem-core/queue"
)

func TestQueueFacetStatusAndSelection(t *testing.T) {
	stats := NewStatisticsFacet()
	q := NewQueueFacet(queue.Config{Capacity: 2, Policy: queue.Reject}, stats)

	if q.HasMessagesToProcess() {
		t.Fatalf("expected empty queue to report no messages")
	}

	msg, _ := message.New("a/b", nil, message.Options{})
	q.Enqueue(QueuedItem{Msg: msg})

	status := q.GetQueueStatus(map[string]any{"extra": 1})
	if status["size"] != 1 || status["capacity"] != 2 {
		t.Fatalf("unexpected status: %+v", status)
	}
	if status["extra"] != 1 {
		t.Fatalf("expected additional field to be merged")
	}
	if status["isFull"] != false {
		t.Fatalf("expected isFull false at size 1/2")
	}

	if !q.HasMessagesToProcess() {
		t.Fatalf("expected non-empty queue to report messages")
	}

	item, ok := q.SelectNextMessage()
	if !ok || item.Msg != msg {
		t.Fatalf("expected FIFO selection of the enqueued message")
	}
	if q.Size() != 0 {
		t.Fatalf("expected queue drained after selection")
	}
}

func TestQueueFacetWiresFullEventToStatistics(t *testing.T) {
	stats := NewStatisticsFacet()
	q := NewQueueFacet(queue.Config{Capacity: 1, Policy: queue.Reject}, stats)

	msg, _ := message.New("a/b", nil, message.Options{})
	q.Enqueue(QueuedItem{Msg: msg})
	q.Enqueue(QueuedItem{Msg: msg})

	if got := stats.GetStatistics().QueueFullEvents; got != 1 {
		t.Fatalf("expected one queue-full event recorded, got %d", got)
	}
}

func TestQueueFacetClear(t *testing.T) {
	q := NewQueueFacet(queue.Config{Capacity: 4, Policy: queue.Reject}, nil)
	msg, _ := message.New("a/b", nil, message.Options{})
	q.Enqueue(QueuedItem{Msg: msg})
	q.Enqueue(QueuedItem{Msg: msg})

	q.ClearQueue()
	if q.Size() != 0 {
		t.Fatalf("expected queue cleared")
	}
}
