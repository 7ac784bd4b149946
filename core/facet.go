package core

import (
	"context"

	"github.com/lesfleursdelanuitdev/subsystem-core/errs"
)

// LifecycleFunc is a single ordered init/dispose callback on a Facet.
type LifecycleFunc func(ctx context.Context) error

// Facet is the runtime instance a hook produces. Concrete facets embed
// FacetBase and add their own public operations; FacetManager only needs
// this interface to drive install/teardown.
type Facet interface {
	// Kind identifies the facet's capability.
	Kind() string

	// RunInit executes the facet's onInit callbacks in registration order,
	// stopping at the first error.
	RunInit(ctx context.Context) error

	// RunDispose executes the facet's onDispose callbacks in REVERSE
	// registration order, continuing past errors and collecting all of them:
	// a dispose callback's failure is returned in the slice but never
	// suppresses the rest of teardown.
	RunDispose(ctx context.Context) []error

	// Properties exposes named values for a Contract's requiredProperties
	// check.
	Properties() map[string]any

	// Attached reports whether attachInstance-style binding has occurred.
	Attached() bool
}

// FacetBase implements the bookkeeping every concrete facet needs: ordered
// init/dispose callbacks, an attached flag, and a properties bag. Embed it
// and set Kind/Properties as needed.
type FacetBase struct {
	kind       string
	onInit     []LifecycleFunc
	onDispose  []LifecycleFunc
	attached   bool
	properties map[string]any
}

// NewFacetBase constructs a FacetBase for the given kind.
func NewFacetBase(kind string) FacetBase {
	return FacetBase{kind: kind, properties: make(map[string]any)}
}

func (f *FacetBase) Kind() string { return f.kind }

// OnInit registers an additional ordered init callback.
func (f *FacetBase) OnInit(fn LifecycleFunc) {
	if fn != nil {
		f.onInit = append(f.onInit, fn)
	}
}

// OnDispose registers an additional ordered dispose callback.
func (f *FacetBase) OnDispose(fn LifecycleFunc) {
	if fn != nil {
		f.onDispose = append(f.onDispose, fn)
	}
}

func (f *FacetBase) RunInit(ctx context.Context) error {
	for _, fn := range f.onInit {
		if err := fn(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (f *FacetBase) RunDispose(ctx context.Context) []error {
	var errsOut []error
	for i := len(f.onDispose) - 1; i >= 0; i-- {
		if err := f.onDispose[i](ctx); err != nil {
			errsOut = append(errsOut, err)
		}
	}
	return errsOut
}

func (f *FacetBase) SetProperty(key string, value any) {
	if f.properties == nil {
		f.properties = make(map[string]any)
	}
	f.properties[key] = value
}

func (f *FacetBase) Properties() map[string]any {
	if f.properties == nil {
		return map[string]any{}
	}
	return f.properties
}

func (f *FacetBase) Attach() { f.attached = true }

func (f *FacetBase) Attached() bool { return f.attached }

// HookFunc instantiates a Facet given the build-time collaborators.
type HookFunc func(ctx *Context, api *API, sub *BaseSubsystem) (Facet, error)

// Hook is the descriptor a caller registers via BaseSubsystem.Use.
type Hook struct {
	Kind      string
	Required  []string
	Overwrite bool
	Attach    bool
	Source    string
	Fn        HookFunc

	// Contract, when set, is enforced against the constructed facet before
	// it is added to the FacetManager.
	Contract *Contract
}

// Validate enforces the hook's invariants: no self-dependency, Required is a
// duplicate-free set.
func (h Hook) Validate() error {
	if h.Kind == "" {
		return errs.New(errs.InvalidArgument, "hook kind must be non-empty")
	}
	if h.Fn == nil {
		return errs.New(errs.InvalidArgument, "hook %q must supply a constructor function", h.Kind)
	}
	seen := make(map[string]bool, len(h.Required))
	for _, r := range h.Required {
		if r == h.Kind {
			return errs.New(errs.InvalidArgument, "hook %q cannot require itself", h.Kind)
		}
		if seen[r] {
			return errs.New(errs.InvalidArgument, "hook %q declares duplicate required kind %q", h.Kind, r)
		}
		seen[r] = true
	}
	return nil
}
