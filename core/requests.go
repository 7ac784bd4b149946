package core

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lesfleursdelanuitdev/subsystem-core/errs"
	"github.com/lesfleursdelanuitdev/subsystem-core/message"
)

// RequestOptions configures Ask.
type RequestOptions struct {
	Timeout time.Duration
}

// Requests is the correlation-ID-based outgoing request registry.
type Requests struct {
	FacetBase

	sub *BaseSubsystem

	mu      sync.Mutex
	pending map[string]chan *message.Message
}

// NewRequestsFacet constructs a Requests facet bound to sub.
func NewRequestsFacet(sub *BaseSubsystem) *Requests {
	r := &Requests{
		FacetBase: NewFacetBase("requests"),
		sub:       sub,
		pending:   make(map[string]chan *message.Message),
	}
	r.SetProperty("requests", r)
	return r
}

// Ask allocates a correlation id, dispatches msg via the subsystem's
// accept path, and blocks until either a matching response arrives via
// Deliver or the timeout elapses, whereupon the pending slot is reclaimed
// and a Timeout error is raised.
func (r *Requests) Ask(ctx context.Context, msg *message.Message, opts RequestOptions) (*message.Message, error) {
	correlationID := uuid.New().String()
	stamped := msg.WithCorrelationID(correlationID)

	ch := make(chan *message.Message, 1)
	r.mu.Lock()
	r.pending[correlationID] = ch
	r.mu.Unlock()

	cleanup := func() {
		r.mu.Lock()
		delete(r.pending, correlationID)
		r.mu.Unlock()
	}

	if _, err := r.sub.Accept(ctx, stamped, AcceptOptions{}); err != nil {
		cleanup()
		return nil, err
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case resp := <-ch:
		return resp, nil
	case <-timer.C:
		cleanup()
		return nil, errs.New(errs.Timeout, "request %s timed out after %s", correlationID, timeout)
	case <-ctx.Done():
		cleanup()
		return nil, errs.Wrap(errs.Timeout, ctx.Err(), "request %s canceled", correlationID)
	}
}

// Deliver fulfills a pending request whose correlation id matches resp's
// meta. Late responses (no matching pending slot) are silently dropped.
func (r *Requests) Deliver(resp *message.Message) {
	correlationID := resp.Meta().CorrelationID
	if correlationID == "" {
		return
	}
	r.mu.Lock()
	ch, ok := r.pending[correlationID]
	if ok {
		delete(r.pending, correlationID)
	}
	r.mu.Unlock()

	if ok {
		ch <- resp
	}
}
