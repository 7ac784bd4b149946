package core

import (
	"context"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/lesfleursdelanuitdev/subsystem-core/errs"
	"github.com/lesfleursdelanuitdev/subsystem-core/message"
)

// queryHandler is implemented by the Queries facet for MessageProcessor's
// routing short-circuit: paths beginning with "query/" delegate to it
// instead of going through the router.
type queryHandler interface {
	HandleQuery(ctx context.Context, msg *message.Message, opts AcceptOptions) (any, error)
}

// MessageProcessor is the accept/processTick/processImmediately facet that
// routes and dispatches messages. It looks up its collaborators (Router,
// Queue, Statistics, Queries) lazily from the owning subsystem so install
// order among them is unconstrained beyond dependency declarations.
type MessageProcessor struct {
	FacetBase

	sub     *BaseSubsystem
	limiter *rate.Limiter // optional admission shaping ahead of the queue policy
}

// NewMessageProcessorFacet constructs a MessageProcessor bound to sub, whose
// facet manager is consulted for Router/Queue/Statistics/Queries at
// dispatch time. limiter may be nil.
func NewMessageProcessorFacet(sub *BaseSubsystem, limiter *rate.Limiter) *MessageProcessor {
	p := &MessageProcessor{FacetBase: NewFacetBase("processor"), sub: sub, limiter: limiter}
	p.SetProperty("processor", p)
	return p
}

func (p *MessageProcessor) router() (*Router, bool) {
	f, ok := p.sub.API().Facets.Find("router")
	if !ok {
		return nil, false
	}
	r, ok := f.(*Router)
	return r, ok
}

func (p *MessageProcessor) queueFacet() (*Queue, bool) {
	f, ok := p.sub.API().Facets.Find("queue")
	if !ok {
		return nil, false
	}
	q, ok := f.(*Queue)
	return q, ok
}

func (p *MessageProcessor) statistics() (*Statistics, bool) {
	f, ok := p.sub.API().Facets.Find("statistics")
	if !ok {
		return nil, false
	}
	s, ok := f.(*Statistics)
	return s, ok
}

func (p *MessageProcessor) queries() (queryHandler, bool) {
	f, ok := p.sub.API().Facets.Find("queries")
	if !ok {
		return nil, false
	}
	q, ok := f.(queryHandler)
	return q, ok
}

// Accept records messagesAccepted, then dispatches inline when requested or
// enqueues for the scheduler to drain.
func (p *MessageProcessor) Accept(ctx context.Context, msg *message.Message, opts AcceptOptions) (any, error) {
	if stats, ok := p.statistics(); ok {
		stats.RecordAccepted()
	}

	if _, ok := p.sub.API().Facets.Find("synchronous"); ok {
		opts.ProcessImmediately = true
	}

	if opts.ProcessImmediately {
		return p.ProcessImmediately(ctx, msg, opts)
	}

	q, ok := p.queueFacet()
	if !ok {
		return nil, errs.New(errs.CoreMissing, "no queue facet installed to enqueue message")
	}
	if p.limiter != nil && !p.limiter.Allow() {
		return nil, errs.New(errs.InvalidArgument, "message rejected by admission limiter")
	}
	q.Enqueue(QueuedItem{Msg: msg, Opts: opts})
	return nil, nil
}

// ProcessImmediately routes and invokes the handler, updating statistics.
// Query paths short-circuit to the Queries facet.
func (p *MessageProcessor) ProcessImmediately(ctx context.Context, msg *message.Message, opts AcceptOptions) (any, error) {
	if strings.HasPrefix(msg.Path(), "query/") {
		if qh, ok := p.queries(); ok {
			return qh.HandleQuery(ctx, msg, opts)
		}
	}

	router, ok := p.router()
	if !ok {
		return nil, errs.New(errs.CoreMissing, "no router facet installed")
	}

	start := time.Now()
	result, err := router.Route(ctx, msg, opts)
	elapsed := time.Since(start)

	if stats, ok := p.statistics(); ok {
		if err != nil {
			stats.RecordProcessingError()
		} else {
			stats.RecordProcessed(elapsed)
		}
	}
	return result, err
}

// ProcessMessage is the internal dispatch path the scheduler drives.
func (p *MessageProcessor) ProcessMessage(ctx context.Context, item QueuedItem) (any, error) {
	return p.ProcessImmediately(ctx, item.Msg, item.Opts)
}

// ProcessTick drains the queue up to budget, returning a result record.
func (p *MessageProcessor) ProcessTick(ctx context.Context, budget time.Duration) (ProcessResult, error) {
	q, ok := p.queueFacet()
	if !ok {
		return ProcessResult{}, errs.New(errs.CoreMissing, "no queue facet installed")
	}

	start := time.Now()
	processed := 0
	for {
		if budget > 0 && time.Since(start) >= budget {
			break
		}
		item, ok := q.Dequeue()
		if !ok {
			break
		}
		if _, err := p.ProcessMessage(ctx, item); err != nil {
			// Handler errors are recorded and do not abort the tick; the
			// caller sees the aggregate result only.
			_ = err
		}
		processed++
	}

	remaining := budget - time.Since(start)
	if remaining < 0 {
		remaining = 0
	}
	return ProcessResult{Processed: processed, RemainingBudget: remaining, QueueSize: q.Size()}, nil
}
