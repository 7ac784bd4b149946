package core

import "sync"

// Context is the shared, builder-populated state every facet hook receives.
// Mutation only happens via the builder before a transaction commits.
type Context struct {
	mu sync.RWMutex

	// MS is the external message-system collaborator some specializations
	// require.
	MS any

	// Config carries arbitrary host-supplied configuration values.
	Config map[string]any

	// Debug toggles verbose logging across facets.
	Debug bool

	// Parent is the owning subsystem's parent context, set by
	// BaseSubsystem.SetParent. A weak/back reference only — Context never
	// owns its Parent.
	Parent *Context

	// GraphCache is the DependencyGraphCache shared down a subsystem tree. A
	// child inherits its parent's cache unless one was explicitly supplied.
	GraphCache *DependencyGraphCache
}

// NewContext constructs a Context. config may be nil.
func NewContext(ms any, config map[string]any, debug bool) *Context {
	if config == nil {
		config = make(map[string]any)
	}
	return &Context{MS: ms, Config: config, Debug: debug}
}

// Clone returns a shallow copy suitable for per-build mutation (setting
// Parent/GraphCache) without disturbing a shared source Context.
func (c *Context) Clone() *Context {
	c.mu.RLock()
	defer c.mu.RUnlock()

	cfg := make(map[string]any, len(c.Config))
	for k, v := range c.Config {
		cfg[k] = v
	}
	return &Context{
		MS:         c.MS,
		Config:     cfg,
		Debug:      c.Debug,
		Parent:     c.Parent,
		GraphCache: c.GraphCache,
	}
}

// Get returns a config value by key.
func (c *Context) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.Config[key]
	return v, ok
}

// Set assigns a config value by key.
func (c *Context) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Config == nil {
		c.Config = make(map[string]any)
	}
	c.Config[key] = value
}

// API is the surface handed to every hook function alongside Context and the
// owning BaseSubsystem.
type API struct {
	Name   string
	Facets *FacetManager
}
