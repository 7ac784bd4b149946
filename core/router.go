package core

import (
	"context"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/lesfleursdelanuitdev/subsystem-core/errs"
	"github.com/lesfleursdelanuitdev/subsystem-core/message"
	"github.com/lesfleursdelanuitdev/subsystem-core/pathmatch"
)

// HandlerFunc processes a routed message, receiving the captured path
// params alongside the usual accept options.
type HandlerFunc func(ctx context.Context, msg *message.Message, params map[string]string, opts AcceptOptions) (any, error)

// RouteOptions configures RegisterRoute.
type RouteOptions struct {
	Priority    int
	Description string
	Metadata    map[string]any
	Overwrite   bool
}

// RouteHandle identifies a registered route and its matching metadata.
type RouteHandle struct {
	Pattern     *pathmatch.Pattern
	Priority    int
	Description string
	Metadata    map[string]any
	handler     HandlerFunc
}

// Router is the named route registry facet built atop pathmatch.
type Router struct {
	FacetBase

	mu     sync.RWMutex
	routes map[string]*RouteHandle
	order  []string // registration order, tie-break of last resort

	log zerolog.Logger
}

// NewRouterFacet constructs a Router facet ready for use as a Hook's Fn
// result. zerolog is wired here as the hot-path dispatch logger.
func NewRouterFacet() *Router {
	r := &Router{
		FacetBase: NewFacetBase("router"),
		routes:    make(map[string]*RouteHandle),
		log:       zerolog.Nop(),
	}
	r.SetProperty("routeRegistry", r.routes)
	return r
}

// SetLogger installs a non-nop zerolog logger for dispatch diagnostics.
func (r *Router) SetLogger(log zerolog.Logger) { r.log = log }

// RegisterRoute installs pattern → handler. A duplicate pattern is rejected
// unless opts.Overwrite is set.
func (r *Router) RegisterRoute(pattern string, handler HandlerFunc, opts RouteOptions) (*RouteHandle, error) {
	compiled, err := pathmatch.Compile(pattern)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.routes[pattern]; exists && !opts.Overwrite {
		return nil, errs.New(errs.InvalidArgument, "route %q already registered", pattern)
	}

	handle := &RouteHandle{
		Pattern:     compiled,
		Priority:    opts.Priority,
		Description: opts.Description,
		Metadata:    opts.Metadata,
		handler:     handler,
	}
	if _, exists := r.routes[pattern]; !exists {
		r.order = append(r.order, pattern)
	}
	r.routes[pattern] = handle
	return handle, nil
}

// UnregisterRoute removes pattern, reporting whether it was present.
func (r *Router) UnregisterRoute(pattern string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.routes[pattern]; !ok {
		return false
	}
	delete(r.routes, pattern)
	for i, p := range r.order {
		if p == pattern {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// HasRoute reports whether pattern is registered.
func (r *Router) HasRoute(pattern string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.routes[pattern]
	return ok
}

// GetRoutes returns every registered route handle, in registration order.
func (r *Router) GetRoutes() []*RouteHandle {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*RouteHandle, 0, len(r.order))
	for _, p := range r.order {
		out = append(out, r.routes[p])
	}
	return out
}

// Match returns the best matching route for path, preferring higher
// priority first, then greater specificity, then earlier registration.
func (r *Router) Match(path string) (*RouteHandle, map[string]string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	type candidate struct {
		handle *RouteHandle
		params map[string]string
		regIdx int
	}
	var candidates []candidate
	for idx, p := range r.order {
		handle := r.routes[p]
		params, ok := handle.Pattern.Match(path)
		if !ok {
			continue
		}
		candidates = append(candidates, candidate{handle: handle, params: params, regIdx: idx})
	}
	if len(candidates) == 0 {
		return nil, nil, false
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.handle.Priority != b.handle.Priority {
			return a.handle.Priority > b.handle.Priority
		}
		al, aw := a.handle.Pattern.Specificity()
		bl, bw := b.handle.Pattern.Specificity()
		if al != bl {
			return al > bl
		}
		if aw != bw {
			return aw < bw
		}
		return a.regIdx < b.regIdx
	})

	best := candidates[0]
	return best.handle, best.params, true
}

// Route matches msg.Path() and invokes the handler, failing with NoRoute
// when nothing matches.
func (r *Router) Route(ctx context.Context, msg *message.Message, opts AcceptOptions) (any, error) {
	handle, params, ok := r.Match(msg.Path())
	if !ok {
		r.log.Debug().Str("path", msg.Path()).Msg("no route matched")
		return nil, errs.New(errs.NoRoute, "no route matches path %q", msg.Path())
	}
	r.log.Debug().Str("path", msg.Path()).Str("pattern", handle.Pattern.String()).Interface("params", params).Msg("routed")
	return handle.handler(ctx, msg, params, opts)
}
