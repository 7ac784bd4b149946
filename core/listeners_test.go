package core

import (
	"testing"

	"github.com/lesfleursdelanuitdev/subsystem-core/message"
)

func TestListenersOnEmitMatchesPattern(t *testing.T) {
	l := NewListenersFacet()

	var gotParams map[string]string
	calls := 0
	if _, err := l.On("events/:kind", func(msg *message.Message, params map[string]string) {
		calls++
		gotParams = params
	}); err != nil {
		t.Fatalf("on: %v", err)
	}

	matching, _ := message.New("events/click", nil, message.Options{})
	l.Emit(matching)

	if calls != 1 {
		t.Fatalf("expected exactly one delivery, got %d", calls)
	}
	if gotParams["kind"] != "click" {
		t.Fatalf("expected captured param kind=click, got %v", gotParams)
	}

	nonMatching, _ := message.New("other/path", nil, message.Options{})
	l.Emit(nonMatching)
	if calls != 1 {
		t.Fatalf("expected no additional delivery for a non-matching path, got %d calls", calls)
	}
}

func TestListenersEmitDeliversAtMostOncePerRegistration(t *testing.T) {
	l := NewListenersFacet()

	calls := 0
	l.On("events/*", func(msg *message.Message, params map[string]string) { calls++ })

	msg, _ := message.New("events/a/b", nil, message.Options{})
	l.Emit(msg)

	if calls != 1 {
		t.Fatalf("expected exactly one invocation per Emit, got %d", calls)
	}
}

func TestListenersOffStopsFutureDelivery(t *testing.T) {
	l := NewListenersFacet()

	calls := 0
	id, err := l.On("events/:kind", func(msg *message.Message, params map[string]string) { calls++ })
	if err != nil {
		t.Fatalf("on: %v", err)
	}

	msg, _ := message.New("events/click", nil, message.Options{})
	l.Emit(msg)
	if calls != 1 {
		t.Fatalf("expected one delivery before Off, got %d", calls)
	}

	if !l.Off(id) {
		t.Fatalf("expected Off to report the subscription was present")
	}
	l.Emit(msg)
	if calls != 1 {
		t.Fatalf("expected no further delivery after Off, got %d", calls)
	}

	if l.Off(id) {
		t.Fatalf("expected a second Off for the same id to report false")
	}
}

func TestListenersOnRejectsInvalidPattern(t *testing.T) {
	l := NewListenersFacet()
	if _, err := l.On("", nil); err == nil {
		t.Fatalf("expected an empty pattern to be rejected")
	}
}

func TestListenersMultipleSubscribersAllReceiveMatchingMessage(t *testing.T) {
	l := NewListenersFacet()

	var firstCalls, secondCalls int
	l.On("events/:kind", func(msg *message.Message, params map[string]string) { firstCalls++ })
	l.On("events/*", func(msg *message.Message, params map[string]string) { secondCalls++ })

	msg, _ := message.New("events/click", nil, message.Options{})
	l.Emit(msg)

	if firstCalls != 1 || secondCalls != 1 {
		t.Fatalf("expected both subscriptions to receive the message, got %d and %d", firstCalls, secondCalls)
	}
}
