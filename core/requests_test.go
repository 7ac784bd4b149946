package core

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/lesfleursdelanuitdev/subsystem-core/errs"
	"github.com/lesfleursdelanuitdev/subsystem-core/message"
)

// capturingAccepter stands in for a Synchronous/MessageProcessor facet: it
// records every dispatched message and never calls back into Requests.Deliver
// on its own, so a test controls exactly when (or whether) a response arrives.
type capturingAccepter struct {
	FacetBase

	mu   sync.Mutex
	msgs []*message.Message
}

func newCapturingAccepter() *capturingAccepter {
	a := &capturingAccepter{FacetBase: NewFacetBase("synchronous")}
	a.SetProperty("synchronous", a)
	return a
}

func (a *capturingAccepter) Accept(ctx context.Context, msg *message.Message, opts AcceptOptions) (any, error) {
	a.mu.Lock()
	a.msgs = append(a.msgs, msg)
	a.mu.Unlock()
	return nil, nil
}

func (a *capturingAccepter) last() *message.Message {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.msgs[len(a.msgs)-1]
}

func newRequestsTestSubsystem(t *testing.T, accepter *capturingAccepter) (*BaseSubsystem, *Requests) {
	t.Helper()
	sub, err := New("requests-under-test", Options{})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := sub.Use(Hook{Kind: "synchronous", Fn: func(ctx *Context, api *API, s *BaseSubsystem) (Facet, error) {
		return accepter, nil
	}}); err != nil {
		t.Fatalf("use: %v", err)
	}
	if err := sub.Build(context.Background()); err != nil {
		t.Fatalf("build: %v", err)
	}
	return sub, NewRequestsFacet(sub)
}

func TestAskTimesOutWhenNoResponseArrives(t *testing.T) {
	accepter := newCapturingAccepter()
	_, reqs := newRequestsTestSubsystem(t, accepter)

	msg, err := message.New("ping", nil, message.Options{})
	if err != nil {
		t.Fatalf("message.New: %v", err)
	}

	start := time.Now()
	_, err = reqs.Ask(context.Background(), msg, RequestOptions{Timeout: 20 * time.Millisecond})
	elapsed := time.Since(start)

	if err == nil {
		t.Fatalf("expected a timeout error")
	}
	if !errs.Is(err, errs.Timeout) {
		t.Fatalf("expected errs.Timeout, got %v", err)
	}
	if elapsed < 20*time.Millisecond {
		t.Fatalf("expected Ask to block for roughly the configured timeout, elapsed %s", elapsed)
	}
}

func TestAskReturnsDeliveredResponse(t *testing.T) {
	accepter := newCapturingAccepter()
	_, reqs := newRequestsTestSubsystem(t, accepter)

	msg, err := message.New("ping", nil, message.Options{})
	if err != nil {
		t.Fatalf("message.New: %v", err)
	}

	go func() {
		for i := 0; i < 100; i++ {
			accepter.mu.Lock()
			n := len(accepter.msgs)
			accepter.mu.Unlock()
			if n > 0 {
				break
			}
			time.Sleep(time.Millisecond)
		}
		sent := accepter.last()
		resp, _ := message.New("pong", "reply", message.Options{})
		resp = resp.WithCorrelationID(sent.Meta().CorrelationID)
		reqs.Deliver(resp)
	}()

	resp, err := reqs.Ask(context.Background(), msg, RequestOptions{Timeout: time.Second})
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if resp.Path() != "pong" {
		t.Fatalf("expected the delivered response, got path %q", resp.Path())
	}
}

func TestLateDeliverAfterTimeoutIsDropped(t *testing.T) {
	accepter := newCapturingAccepter()
	_, reqs := newRequestsTestSubsystem(t, accepter)

	msg, err := message.New("ping", nil, message.Options{})
	if err != nil {
		t.Fatalf("message.New: %v", err)
	}

	_, err = reqs.Ask(context.Background(), msg, RequestOptions{Timeout: 10 * time.Millisecond})
	if !errs.Is(err, errs.Timeout) {
		t.Fatalf("expected timeout, got %v", err)
	}

	sent := accepter.last()
	lateResp, _ := message.New("pong", "too-late", message.Options{})
	lateResp = lateResp.WithCorrelationID(sent.Meta().CorrelationID)

	// Deliver must be a silent no-op: the pending slot is already reclaimed.
	reqs.Deliver(lateResp)

	reqs.mu.Lock()
	_, stillPending := reqs.pending[sent.Meta().CorrelationID]
	reqs.mu.Unlock()
	if stillPending {
		t.Fatalf("expected no pending slot to remain after timeout")
	}
}

func TestDeliverWithUnknownCorrelationIDIsANoOp(t *testing.T) {
	accepter := newCapturingAccepter()
	_, reqs := newRequestsTestSubsystem(t, accepter)

	resp, _ := message.New("pong", nil, message.Options{})
	resp = resp.WithCorrelationID("no-such-request")

	// Must not panic or block.
	reqs.Deliver(resp)
}
