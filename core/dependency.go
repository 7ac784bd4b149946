package core

import (
	"sort"

	"github.com/lesfleursdelanuitdev/subsystem-core/errs"
)

// dependencyResolver resolves a set of registered hooks into a deterministic
// build order: an iterative scan that appends every hook whose requirements
// are already resolved, repeating until no hook is left or no progress is
// made, in which case what remains is reported as unresolvable.
//
// Registration order is preserved as the tie-break among hooks that become
// eligible on the same pass.
type dependencyResolver struct {
	order []string       // registration order of kinds
	hooks map[string]Hook
}

func newDependencyResolver() *dependencyResolver {
	return &dependencyResolver{hooks: make(map[string]Hook)}
}

// add registers hook under its kind. A duplicate kind is only accepted when
// overwrite is set, matching FacetManager.Add's overwrite contract; the
// prior registration's position in the tie-break order is kept.
func (r *dependencyResolver) add(h Hook) error {
	if _, exists := r.hooks[h.Kind]; exists {
		if !h.Overwrite {
			return errs.New(errs.AmbiguousHook, "hook %q already registered; pass Overwrite to replace it", h.Kind)
		}
		r.hooks[h.Kind] = h
		return nil
	}
	r.hooks[h.Kind] = h
	r.order = append(r.order, h.Kind)
	return nil
}

// resolve returns kinds in an order satisfying every hook's Required list.
func (r *dependencyResolver) resolve() ([]string, error) {
	for _, h := range r.hooks {
		for _, req := range h.Required {
			if _, ok := r.hooks[req]; !ok {
				return nil, errs.New(errs.MissingDependency, "hook %q requires unregistered kind %q", h.Kind, req)
			}
		}
	}

	resolved := make([]string, 0, len(r.order))
	done := make(map[string]bool, len(r.order))

	for len(resolved) < len(r.order) {
		progressed := false

		for _, kind := range r.order {
			if done[kind] {
				continue
			}

			waiting := false
			for _, req := range r.hooks[kind].Required {
				if !done[req] {
					waiting = true
					break
				}
			}
			if waiting {
				continue
			}

			resolved = append(resolved, kind)
			done[kind] = true
			progressed = true
		}

		if !progressed {
			var unresolved []string
			for _, kind := range r.order {
				if !done[kind] {
					unresolved = append(unresolved, kind)
				}
			}
			sort.Strings(unresolved)
			return nil, errs.New(errs.UnresolvableDependencies, "dependency cycle or unresolvable kinds: %v", unresolved)
		}
	}

	return resolved, nil
}

// fingerprint computes the cache key for the currently registered hook set.
func (r *dependencyResolver) fingerprint() string {
	return fingerprintHooks(r.hooks)
}
