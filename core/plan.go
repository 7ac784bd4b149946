package core

// Plan is the result of resolving a set of hooks into a deterministic build
// order. OrderedKinds reflects the dependency resolver's order; Facets is
// populated fresh on every SubsystemBuilder.Plan call regardless of whether
// OrderedKinds came from cache.
type Plan struct {
	ResolvedCtx  *Context
	OrderedKinds []string
	Fingerprint  string
	Facets       map[string]Facet
	Contracts    map[string]*Contract
}

// resolverOutput is the part of a Plan that DependencyGraphCache actually
// stores. Facet instances are never cached — only the resolved order and
// its fingerprint — since caching instantiated facets would share mutable
// state across independent subsystem builds.
type resolverOutput struct {
	OrderedKinds []string
	Fingerprint  string
}
