package core

import (
	"context"
	"errors"
	"testing"
)

type stubFacet struct {
	FacetBase
	initErr    error
	initCalled bool
	disposed   bool
}

func newStubFacet(kind string, initErr error) *stubFacet {
	return &stubFacet{FacetBase: NewFacetBase(kind), initErr: initErr}
}

func (f *stubFacet) RunInit(ctx context.Context) error {
	f.initCalled = true
	return f.initErr
}

func (f *stubFacet) RunDispose(ctx context.Context) []error {
	f.disposed = true
	return nil
}

func TestFacetManagerTransactionalAtomicityOnRollback(t *testing.T) {
	mgr := NewFacetManager()
	ctx := context.Background()

	if err := mgr.BeginTransaction(); err != nil {
		t.Fatalf("begin: %v", err)
	}
	a := newStubFacet("a", nil)
	b := newStubFacet("b", nil)
	if err := mgr.Add(ctx, "a", a, false); err != nil {
		t.Fatalf("add a: %v", err)
	}
	if err := mgr.Add(ctx, "b", b, false); err != nil {
		t.Fatalf("add b: %v", err)
	}

	inTxSize := mgr.Size()
	if inTxSize != 2 {
		t.Fatalf("expected both facets registered inside the open transaction, got size %d", inTxSize)
	}

	if err := mgr.Rollback(ctx); err != nil {
		t.Fatalf("rollback: %v", err)
	}

	if mgr.Size() != 0 {
		t.Fatalf("expected registry empty after rollback, got size %d", mgr.Size())
	}
	if mgr.Has("a") || mgr.Has("b") {
		t.Fatalf("expected no facets registered after rollback")
	}
}

func TestFacetManagerCommitInitializesAddedFacets(t *testing.T) {
	mgr := NewFacetManager()
	ctx := context.Background()

	mgr.BeginTransaction()
	a := newStubFacet("a", nil)
	b := newStubFacet("b", nil)
	mgr.Add(ctx, "a", a, false)
	mgr.Add(ctx, "b", b, false)

	if err := mgr.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if !a.initCalled || !b.initCalled {
		t.Fatalf("expected both facets initialized")
	}
	if mgr.Size() != 2 {
		t.Fatalf("expected size 2, got %d", mgr.Size())
	}
}

func TestFacetManagerRollbackAfterDisposesOnlyInitialized(t *testing.T) {
	mgr := NewFacetManager()
	ctx := context.Background()

	mgr.BeginTransaction()
	a := newStubFacet("a", nil)
	b := newStubFacet("b", errors.New("boom"))
	mgr.Add(ctx, "a", a, false)
	mgr.Add(ctx, "b", b, false)

	err := mgr.Commit(ctx)
	if err == nil {
		t.Fatalf("expected commit error")
	}

	mgr.RollbackAfter(ctx, err)

	if !a.disposed {
		t.Fatalf("expected facetA disposed on rollback")
	}
	if b.initCalled == false {
		t.Fatalf("expected facetB's init to have been attempted")
	}
	if b.disposed {
		t.Fatalf("expected facetB, whose init failed, not to be disposed")
	}
	if mgr.Size() != 0 {
		t.Fatalf("expected registry empty after rollback, got %d", mgr.Size())
	}
}

func TestFacetManagerOverwriteInTransactionRollsBackToPriorFacet(t *testing.T) {
	mgr := NewFacetManager()
	ctx := context.Background()

	original := newStubFacet("a", nil)
	if err := mgr.Add(ctx, "a", original, false); err != nil {
		t.Fatalf("add original: %v", err)
	}

	if err := mgr.BeginTransaction(); err != nil {
		t.Fatalf("begin: %v", err)
	}
	replacement := newStubFacet("a", nil)
	if err := mgr.Add(ctx, "a", replacement, true); err != nil {
		t.Fatalf("add replacement: %v", err)
	}
	if err := mgr.Rollback(ctx); err != nil {
		t.Fatalf("rollback: %v", err)
	}

	if original.disposed {
		t.Fatalf("expected the original facet to survive an overwrite that rolled back")
	}
	if replacement.initCalled {
		t.Fatalf("expected the replacement facet to never have been initialized")
	}
	got, ok := mgr.Find("a")
	if !ok || got != Facet(original) {
		t.Fatalf("expected rollback to restore the original facet under kind %q", "a")
	}
	if mgr.Size() != 1 {
		t.Fatalf("expected registry size to match its pre-transaction state, got %d", mgr.Size())
	}
}

func TestFacetManagerOverwriteInTransactionDisposesPriorOnCommit(t *testing.T) {
	mgr := NewFacetManager()
	ctx := context.Background()

	original := newStubFacet("a", nil)
	if err := mgr.Add(ctx, "a", original, false); err != nil {
		t.Fatalf("add original: %v", err)
	}

	if err := mgr.BeginTransaction(); err != nil {
		t.Fatalf("begin: %v", err)
	}
	replacement := newStubFacet("a", nil)
	if err := mgr.Add(ctx, "a", replacement, true); err != nil {
		t.Fatalf("add replacement: %v", err)
	}
	if original.disposed {
		t.Fatalf("expected the original facet to stay alive until the transaction commits")
	}
	if err := mgr.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}

	if !original.disposed {
		t.Fatalf("expected the original facet disposed once the overwrite committed")
	}
	if !replacement.initCalled {
		t.Fatalf("expected the replacement facet initialized")
	}
	got, ok := mgr.Find("a")
	if !ok || got != Facet(replacement) {
		t.Fatalf("expected the replacement facet installed under kind %q", "a")
	}
}

func TestFacetManagerDuplicateKindRejectedWithoutOverwrite(t *testing.T) {
	mgr := NewFacetManager()
	ctx := context.Background()

	a := newStubFacet("a", nil)
	if err := mgr.Add(ctx, "a", a, false); err != nil {
		t.Fatalf("add: %v", err)
	}
	a2 := newStubFacet("a", nil)
	if err := mgr.Add(ctx, "a", a2, false); err == nil {
		t.Fatalf("expected duplicate rejection")
	}
}

func TestFacetManagerDisposeAllDisposesEveryFacet(t *testing.T) {
	mgr := NewFacetManager()
	ctx := context.Background()

	var order []string
	mk := func(kind string) *stubFacet {
		f := newStubFacet(kind, nil)
		return f
	}
	a, b, c := mk("a"), mk("b"), mk("c")
	mgr.Add(ctx, "a", a, false)
	mgr.Add(ctx, "b", b, false)
	mgr.Add(ctx, "c", c, false)

	for _, k := range mgr.GetAllKinds() {
		order = append(order, k)
	}
	if len(order) != 3 || order[0] != "a" || order[2] != "c" {
		t.Fatalf("unexpected registration order: %v", order)
	}

	mgr.DisposeAll(ctx)
	if !a.disposed || !b.disposed || !c.disposed {
		t.Fatalf("expected all facets disposed")
	}
	if mgr.Size() != 0 {
		t.Fatalf("expected empty registry after disposeAll")
	}
}
