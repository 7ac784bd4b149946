package core

import (
	"context"
	"sync"

	"github.com/lesfleursdelanuitdev/subsystem-core/message"
)

// QueryHandlerFunc processes a query message and returns its result.
type QueryHandlerFunc func(ctx context.Context, msg *message.Message) (any, error)

// queryRoutePattern, queryRoutePriority and queryRouteDescription are the
// fixed route registered for query/* traffic.
const (
	queryRoutePattern     = "query/*"
	queryRoutePriority    = 10
	queryRouteDescription = "Query operations"
)

// Queries is the facet that registers the query/* route and delegates to a
// caller-supplied handler.
type Queries struct {
	FacetBase

	router *Router

	mu      sync.Mutex
	handler QueryHandlerFunc
	enabled bool
}

// NewQueriesFacet constructs a Queries facet bound to router, whose
// RegisterRoute/UnregisterRoute it drives.
func NewQueriesFacet(router *Router) *Queries {
	q := &Queries{FacetBase: NewFacetBase("queries"), router: router}
	q.SetProperty("queries", q)
	return q
}

// EnableQueryHandler registers query/* with priority 10 and the fixed
// description. Idempotent: a second call returns true without replacing the
// handler.
func (q *Queries) EnableQueryHandler(handler QueryHandlerFunc) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.enabled {
		return true, nil
	}

	q.handler = handler
	_, err := q.router.RegisterRoute(queryRoutePattern, func(ctx context.Context, msg *message.Message, params map[string]string, opts AcceptOptions) (any, error) {
		return q.handler(ctx, msg)
	}, RouteOptions{Priority: queryRoutePriority, Description: queryRouteDescription})
	if err != nil {
		return false, err
	}
	q.enabled = true
	return true, nil
}

// DisableQueryHandler unregisters query/*, reporting whether a handler had
// been enabled.
func (q *Queries) DisableQueryHandler() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.enabled {
		return false
	}
	q.router.UnregisterRoute(queryRoutePattern)
	q.enabled = false
	q.handler = nil
	return true
}

// HandleQuery is MessageProcessor's short-circuit entry point for paths
// beginning with "query/".
func (q *Queries) HandleQuery(ctx context.Context, msg *message.Message, opts AcceptOptions) (any, error) {
	q.mu.Lock()
	handler := q.handler
	enabled := q.enabled
	q.mu.Unlock()

	if !enabled || handler == nil {
		return q.router.Route(ctx, msg, opts)
	}
	return handler(ctx, msg)
}
