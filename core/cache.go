package core

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// defaultGraphCacheSize bounds the number of distinct resolved hook sets kept
// in memory per subsystem tree.
const defaultGraphCacheSize = 50

// DependencyGraphCache memoizes dependency-resolution results keyed by the
// fingerprint of a registered hook set. It never stores Facet instances —
// only the resolved kind order — so cache hits cannot leak mutable state
// between independent subsystem builds.
type DependencyGraphCache struct {
	cache *lru.Cache[string, resolverOutput]
}

// NewDependencyGraphCache constructs a cache holding up to size resolved
// outputs. size<=0 uses defaultGraphCacheSize.
func NewDependencyGraphCache(size int) *DependencyGraphCache {
	if size <= 0 {
		size = defaultGraphCacheSize
	}
	c, _ := lru.New[string, resolverOutput](size)
	return &DependencyGraphCache{cache: c}
}

// get returns the cached resolver output for fingerprint, if present.
func (c *DependencyGraphCache) get(fingerprint string) (resolverOutput, bool) {
	if c == nil || c.cache == nil {
		return resolverOutput{}, false
	}
	return c.cache.Get(fingerprint)
}

// put stores the resolver output for fingerprint.
func (c *DependencyGraphCache) put(fingerprint string, out resolverOutput) {
	if c == nil || c.cache == nil {
		return
	}
	c.cache.Add(fingerprint, out)
}

// Len reports the number of cached entries, for diagnostics and tests.
func (c *DependencyGraphCache) Len() int {
	if c == nil || c.cache == nil {
		return 0
	}
	return c.cache.Len()
}

// Purge empties the cache.
func (c *DependencyGraphCache) Purge() {
	if c == nil || c.cache == nil {
		return
	}
	c.cache.Purge()
}
