package core

import (
	"context"

	"github.com/lesfleursdelanuitdev/subsystem-core/errs"
	"github.com/lesfleursdelanuitdev/subsystem-core/message"
)

func errNoProcessor() error {
	return errs.New(errs.CoreMissing, "no processor facet installed")
}

// Synchronous is the alternative driver facet: accept always dispatches
// inline, never enqueues.
type Synchronous struct {
	FacetBase

	sub *BaseSubsystem
}

// NewSynchronousFacet constructs a Synchronous facet bound to sub.
func NewSynchronousFacet(sub *BaseSubsystem) *Synchronous {
	s := &Synchronous{FacetBase: NewFacetBase("synchronous"), sub: sub}
	s.SetProperty("synchronous", s)
	return s
}

// Accept forces immediate dispatch, preserving the rest of opts. It goes
// through MessageProcessor.Accept so messagesAccepted is recorded.
func (s *Synchronous) Accept(ctx context.Context, msg *message.Message, opts AcceptOptions) (any, error) {
	opts.ProcessImmediately = true

	f, ok := s.sub.API().Facets.Find("processor")
	if !ok {
		return nil, errNoProcessor()
	}
	p, ok := f.(*MessageProcessor)
	if !ok {
		return nil, errNoProcessor()
	}
	return p.Accept(ctx, msg, opts)
}

// Process reports nothing — the synchronous driver has no time-sliced loop
// to drive.
func (s *Synchronous) Process() {}
