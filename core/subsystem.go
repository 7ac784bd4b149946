package core

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/lesfleursdelanuitdev/subsystem-core/errs"
	"github.com/lesfleursdelanuitdev/subsystem-core/message"
)

// AcceptOptions configures BaseSubsystem.Accept / MessageProcessor.Accept.
type AcceptOptions struct {
	ProcessImmediately bool
}

// ProcessResult is returned by process/processTick.
type ProcessResult struct {
	Processed       int
	RemainingBudget time.Duration
	QueueSize       int
	Busy            bool
}

// accepter is implemented by MessageProcessor and Synchronous facets.
type accepter interface {
	Accept(ctx context.Context, msg *message.Message, opts AcceptOptions) (any, error)
}

// ticker is implemented by the Scheduler facet.
type ticker interface {
	Process(ctx context.Context, timeSlice time.Duration) (ProcessResult, error)
}

// pausable is implemented by the Scheduler facet.
type pausable interface {
	PauseProcessing()
	ResumeProcessing()
}

// Options configures BaseSubsystem construction.
type Options struct {
	MS          any
	Config      map[string]any
	Debug       bool
	RequireMS   bool
	GraphCache  *DependencyGraphCache
}

// BaseSubsystem composes the builder, resolver, and FacetManager into the
// lifecycle object client code constructs.
type BaseSubsystem struct {
	mu   sync.Mutex
	name string
	ctx  *Context
	api  *API

	hooks   []Hook
	hookSet map[string]bool

	builder *SubsystemBuilder
	isBuilt bool

	children []*BaseSubsystem
	parent   *BaseSubsystem

	onInitCbs    []func() error
	onDisposeCbs []func() error

	buildCell   oncecell
	disposeCell oncecell
}

// New constructs a BaseSubsystem.
func New(name string, opts Options) (*BaseSubsystem, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errs.New(errs.InvalidArgument, "name must be a non-empty string")
	}
	if opts.RequireMS && opts.MS == nil {
		return nil, errs.New(errs.InvalidArgument, "options.ms is required")
	}

	ctx := NewContext(opts.MS, opts.Config, opts.Debug)
	ctx.GraphCache = opts.GraphCache

	sub := &BaseSubsystem{
		name:    name,
		ctx:     ctx,
		hookSet: make(map[string]bool),
	}
	sub.api = &API{Name: name, Facets: NewFacetManager()}
	sub.builder = NewSubsystemBuilder(opts.GraphCache)
	return sub, nil
}

// Name returns the subsystem's name.
func (s *BaseSubsystem) Name() string { return s.name }

// Context returns the subsystem's shared context.
func (s *BaseSubsystem) Context() *Context { return s.ctx }

// API returns the subsystem's facet-manager-bearing API surface.
func (s *BaseSubsystem) API() *API { return s.api }

// IsBuilt reports whether build() has completed successfully.
func (s *BaseSubsystem) IsBuilt() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isBuilt
}

// Use registers a hook, ignoring a duplicate kind already present, and
// rejecting registration after build.
func (s *BaseSubsystem) Use(hook Hook) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isBuilt {
		return errs.New(errs.AlreadyBuilt, "cannot register hook %q after build", hook.Kind)
	}
	if s.hookSet[hook.Kind] && !hook.Overwrite {
		return nil
	}
	s.hooks = append(s.hooks, hook)
	s.hookSet[hook.Kind] = true
	return nil
}

// OnInit registers a direct init callback run during Build, after facet
// installation.
func (s *BaseSubsystem) OnInit(fn func() error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onInitCbs = append(s.onInitCbs, fn)
}

// OnDispose registers a direct dispose callback run during Dispose, before
// isBuilt flips false.
func (s *BaseSubsystem) OnDispose(fn func() error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onDisposeCbs = append(s.onDisposeCbs, fn)
}

// Build is idempotent: concurrent callers share one completion; on failure
// isBuilt remains false and a later call retries.
func (s *BaseSubsystem) Build(ctx context.Context) error {
	return s.buildCell.do(func() error {
		s.mu.Lock()
		hooks := append([]Hook(nil), s.hooks...)
		rctx := s.ctx
		s.mu.Unlock()

		plan, err := s.builder.Plan(rctx, s.api, s, hooks)
		if err != nil {
			return err
		}
		if err := s.builder.Build(ctx, s, plan); err != nil {
			return err
		}

		for _, cb := range s.onInitCbs {
			if err := cb(); err != nil {
				return err
			}
		}

		s.mu.Lock()
		s.isBuilt = true
		s.mu.Unlock()
		return nil
	})
}

// mergeContext copies resolved context fields into sub's own context.
func (s *BaseSubsystem) mergeContext(resolved *Context) {
	if resolved == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if resolved.MS != nil {
		s.ctx.MS = resolved.MS
	}
	for k, v := range resolved.Config {
		s.ctx.Set(k, v)
	}
	if resolved.GraphCache != nil {
		s.ctx.GraphCache = resolved.GraphCache
	}
}

// Dispose awaits any in-progress build, disposes children in reverse
// insertion order, then FacetManager.disposeAll, then onDispose callbacks in
// reverse, then clears isBuilt and invalidates the builder.
func (s *BaseSubsystem) Dispose(ctx context.Context) error {
	return s.disposeCell.do(func() error {
		// Wait for an in-flight Build to finish before tearing down.
		s.buildCell.mu.Lock()
		if s.buildCell.running {
			ch := make(chan error, 1)
			s.buildCell.waiters = append(s.buildCell.waiters, ch)
			s.buildCell.mu.Unlock()
			<-ch
		} else {
			s.buildCell.mu.Unlock()
		}

		s.mu.Lock()
		children := append([]*BaseSubsystem(nil), s.children...)
		s.mu.Unlock()

		for i := len(children) - 1; i >= 0; i-- {
			_ = children[i].Dispose(ctx)
		}

		s.api.Facets.DisposeAll(ctx)

		s.mu.Lock()
		cbs := append([]func() error(nil), s.onDisposeCbs...)
		s.mu.Unlock()

		for i := len(cbs) - 1; i >= 0; i-- {
			_ = cbs[i]() // errors are discarded (not logged) and never abort dispose
		}

		s.mu.Lock()
		s.isBuilt = false
		s.mu.Unlock()
		s.builder.Invalidate()
		s.buildCell.reset()
		return nil
	})
}

// Accept delegates to the installed Synchronous or MessageProcessor facet,
// failing with CoreMissing when neither is installed.
func (s *BaseSubsystem) Accept(ctx context.Context, msg *message.Message, opts AcceptOptions) (any, error) {
	if f, ok := s.api.Facets.Find("synchronous"); ok {
		if a, ok := f.(accepter); ok {
			return a.Accept(ctx, msg, opts)
		}
	}
	if f, ok := s.api.Facets.Find("processor"); ok {
		if a, ok := f.(accepter); ok {
			return a.Accept(ctx, msg, opts)
		}
	}
	return nil, errs.New(errs.CoreMissing, "no message-core facet installed")
}

// Process delegates to the installed Scheduler facet.
func (s *BaseSubsystem) Process(ctx context.Context, timeSlice time.Duration) (ProcessResult, error) {
	f, ok := s.api.Facets.Find("scheduler")
	if !ok {
		return ProcessResult{}, errs.New(errs.CoreMissing, "no scheduler facet installed")
	}
	t, ok := f.(ticker)
	if !ok {
		return ProcessResult{}, errs.New(errs.CoreMissing, "scheduler facet does not implement Process")
	}
	return t.Process(ctx, timeSlice)
}

// Pause delegates to the installed Scheduler facet, returning itself to
// allow chaining, or an error if no scheduler is installed.
func (s *BaseSubsystem) Pause() (*BaseSubsystem, error) {
	f, ok := s.api.Facets.Find("scheduler")
	if !ok {
		return nil, errs.New(errs.CoreMissing, "no scheduler facet installed")
	}
	p, ok := f.(pausable)
	if !ok {
		return nil, errs.New(errs.CoreMissing, "scheduler facet does not implement pause/resume")
	}
	p.PauseProcessing()
	return s, nil
}

// Resume delegates to the installed Scheduler facet.
func (s *BaseSubsystem) Resume() (*BaseSubsystem, error) {
	f, ok := s.api.Facets.Find("scheduler")
	if !ok {
		return nil, errs.New(errs.CoreMissing, "no scheduler facet installed")
	}
	p, ok := f.(pausable)
	if !ok {
		return nil, errs.New(errs.CoreMissing, "scheduler facet does not implement pause/resume")
	}
	p.ResumeProcessing()
	return s, nil
}

// SetParent sets the subsystem's parent, inheriting the parent's graph
// cache unless this subsystem already has one of its own.
func (s *BaseSubsystem) SetParent(p *BaseSubsystem) {
	s.mu.Lock()
	s.parent = p
	if s.ctx.GraphCache == nil && p != nil {
		s.ctx.GraphCache = p.ctx.GraphCache
		s.builder.graphCache = s.ctx.GraphCache
	}
	s.ctx.Parent = nil
	if p != nil {
		s.ctx.Parent = p.ctx
	}
	s.mu.Unlock()

	if p != nil {
		p.mu.Lock()
		p.children = append(p.children, s)
		p.mu.Unlock()
	}
}

// GetParent returns the subsystem's parent, or nil for a root.
func (s *BaseSubsystem) GetParent() *BaseSubsystem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.parent
}

// IsRoot reports whether the subsystem has no parent.
func (s *BaseSubsystem) IsRoot() bool {
	return s.GetParent() == nil
}

// GetRoot walks up the parent chain to the root subsystem.
func (s *BaseSubsystem) GetRoot() *BaseSubsystem {
	cur := s
	for {
		p := cur.GetParent()
		if p == nil {
			return cur
		}
		cur = p
	}
}

// GetNameString returns the subsystem's name in "<name>://" form.
func (s *BaseSubsystem) GetNameString() string {
	return s.name + "://"
}
