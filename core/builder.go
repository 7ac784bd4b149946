package core

import (
	"context"

	"github.com/lesfleursdelanuitdev/subsystem-core/errs"
)

// SubsystemBuilder plans and installs facets transactionally. Each
// BaseSubsystem owns one builder instance.
type SubsystemBuilder struct {
	resolver  *dependencyResolver
	lastPlan  *Plan
	graphCache *DependencyGraphCache
}

// NewSubsystemBuilder constructs a builder. cache may be nil, in which case
// resolved plans are never memoized across builds.
func NewSubsystemBuilder(cache *DependencyGraphCache) *SubsystemBuilder {
	return &SubsystemBuilder{resolver: newDependencyResolver(), graphCache: cache}
}

// Plan computes a fingerprint over hooks, consults the graph cache, and on a
// miss runs the dependency resolver and instantiates each facet by invoking
// its hook function in resolved order.
func (b *SubsystemBuilder) Plan(rctx *Context, api *API, sub *BaseSubsystem, hooks []Hook) (*Plan, error) {
	b.resolver = newDependencyResolver()
	for _, h := range hooks {
		if err := h.Validate(); err != nil {
			return nil, err
		}
		if err := b.resolver.add(h); err != nil {
			return nil, err
		}
	}

	fp := b.resolver.fingerprint()

	var ordered []string
	if b.graphCache != nil {
		if cached, ok := b.graphCache.get(fp); ok {
			ordered = cached.OrderedKinds
		}
	}
	if ordered == nil {
		resolved, err := b.resolver.resolve()
		if err != nil {
			return nil, err
		}
		ordered = resolved
		if b.graphCache != nil {
			b.graphCache.put(fp, resolverOutput{OrderedKinds: ordered, Fingerprint: fp})
		}
	}

	facetsByKind := make(map[string]Facet, len(ordered))
	contracts := make(map[string]*Contract, len(ordered))
	for _, kind := range ordered {
		hook := b.resolver.hooks[kind]
		facet, err := hook.Fn(rctx, api, sub)
		if err != nil {
			return nil, errs.Wrap(errs.InvalidPlan, err, "hook %q failed to construct its facet", kind)
		}
		facetsByKind[kind] = facet
		if hook.Contract != nil {
			contracts[kind] = hook.Contract
		}
		// Stage the facet so a later-resolved hook's Fn can look it up via
		// api.Facets.Find before Build installs anything for real.
		api.Facets.StagePlanned(kind, facet)
	}

	plan := &Plan{ResolvedCtx: rctx, OrderedKinds: ordered, Fingerprint: fp, Facets: facetsByKind, Contracts: contracts}
	b.lastPlan = plan
	return plan, nil
}

// GetPlan returns the last computed plan, if any.
func (b *SubsystemBuilder) GetPlan() (*Plan, bool) {
	if b.lastPlan == nil {
		return nil, false
	}
	return b.lastPlan, true
}

// Invalidate clears the last computed plan.
func (b *SubsystemBuilder) Invalidate() {
	b.lastPlan = nil
}

// Build validates plan, merges its resolved context into sub's context, and
// installs every facet inside a single FacetManager transaction, rolling
// back (in reverse init order) on the first init failure.
func (b *SubsystemBuilder) Build(ctx context.Context, sub *BaseSubsystem, plan *Plan) error {
	mgr := sub.api.Facets
	defer mgr.ClearStaged()

	if plan == nil || plan.Facets == nil {
		return errs.New(errs.InvalidPlan, "plan is nil or incoherent")
	}
	for _, kind := range plan.OrderedKinds {
		if _, ok := plan.Facets[kind]; !ok {
			return errs.New(errs.InvalidPlan, "plan orderedKinds references unknown kind %q", kind)
		}
	}

	sub.mergeContext(plan.ResolvedCtx)

	if err := mgr.BeginTransaction(); err != nil {
		return err
	}

	for _, kind := range plan.OrderedKinds {
		facet := plan.Facets[kind]
		if contract, ok := plan.Contracts[kind]; ok {
			if err := contract.Enforce(facet); err != nil {
				mgr.Rollback(ctx)
				return err
			}
		}
		if err := mgr.Add(ctx, kind, facet, false); err != nil {
			mgr.Rollback(ctx)
			return err
		}
	}

	if err := mgr.Commit(ctx); err != nil {
		mgr.RollbackAfter(ctx, err)
		return err
	}
	return nil
}
