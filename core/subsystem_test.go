package core

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
)

func TestBuildDisposeHappyPath(t *testing.T) {
	sub, err := New("root", Options{MS: "stub"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	cb1Called := false
	cb2Called := false
	sub.OnInit(func() error { cb1Called = true; return nil })
	sub.OnDispose(func() error { cb2Called = true; return nil })

	ctx := context.Background()
	if err := sub.Build(ctx); err != nil {
		t.Fatalf("build: %v", err)
	}
	if !cb1Called {
		t.Fatalf("expected init callback invoked")
	}
	if !sub.IsBuilt() {
		t.Fatalf("expected isBuilt true")
	}

	if err := sub.Dispose(ctx); err != nil {
		t.Fatalf("dispose: %v", err)
	}
	if !cb2Called {
		t.Fatalf("expected dispose callback invoked")
	}
	if sub.IsBuilt() {
		t.Fatalf("expected isBuilt false after dispose")
	}
}

func TestBuildRollbackOnInitFailure(t *testing.T) {
	sub, err := New("root", Options{MS: "stub"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	sub.Use(Hook{Kind: "facetA", Fn: func(ctx *Context, api *API, s *BaseSubsystem) (Facet, error) {
		return newStubFacet("facetA", nil), nil
	}})
	sub.Use(Hook{Kind: "facetB", Fn: func(ctx *Context, api *API, s *BaseSubsystem) (Facet, error) {
		return newStubFacet("facetB", errors.New("boom")), nil
	}})

	ctx := context.Background()
	err = sub.Build(ctx)
	if err == nil {
		t.Fatalf("expected build error")
	}
	if !strings.Contains(err.Error(), "facetB") {
		t.Fatalf("expected error to mention facetB, got %v", err)
	}
	if sub.IsBuilt() {
		t.Fatalf("expected isBuilt false")
	}
	if sub.API().Facets.Size() != 0 {
		t.Fatalf("expected empty facet manager after rollback, got size %d", sub.API().Facets.Size())
	}
}

func TestDisposeIdempotent(t *testing.T) {
	sub, _ := New("root", Options{})
	calls := 0
	sub.OnDispose(func() error { calls++; return nil })

	ctx := context.Background()
	sub.Build(ctx)
	sub.Dispose(ctx)
	sub.Dispose(ctx)

	if calls != 1 {
		t.Fatalf("expected dispose callback to run exactly once, got %d", calls)
	}
}

func TestBuildIdempotentUnderConcurrency(t *testing.T) {
	sub, _ := New("root", Options{})
	var initCount int
	var mu sync.Mutex
	sub.OnInit(func() error {
		mu.Lock()
		initCount++
		mu.Unlock()
		return nil
	})

	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sub.Build(ctx)
		}()
	}
	wg.Wait()

	if initCount != 1 {
		t.Fatalf("expected init to run exactly once across concurrent builds, got %d", initCount)
	}
}

func TestGetNameStringFormat(t *testing.T) {
	sub, _ := New("root", Options{})
	if got := sub.GetNameString(); got != "root://" {
		t.Fatalf("expected %q, got %q", "root://", got)
	}
}

func TestHierarchyParentChild(t *testing.T) {
	parent, _ := New("parent", Options{})
	child, _ := New("child", Options{})
	child.SetParent(parent)

	if child.GetParent() != parent {
		t.Fatalf("expected child's parent to be set")
	}
	if child.IsRoot() {
		t.Fatalf("expected child not to be root")
	}
	if parent.GetRoot() != parent {
		t.Fatalf("expected parent to be its own root")
	}
	if child.GetRoot() != parent {
		t.Fatalf("expected child's root to be parent")
	}
}
