package core

import (
	"errors"
	"fmt"
)

// Sentinel errors for FacetManager/builder policies, each paired with a
// detail type below carrying the offending kind.
var (
	// ErrDuplicateFacet indicates Add was called for a kind already present
	// without the overwrite flag.
	ErrDuplicateFacet = errors.New("facet kind already registered")

	// ErrFacetNotFound indicates a lookup/remove targeted an absent kind.
	ErrFacetNotFound = errors.New("facet kind not found")

	// ErrTransactionInProgress indicates BeginTransaction was called while
	// already inside a transaction.
	ErrTransactionInProgress = errors.New("facet manager transaction already in progress")

	// ErrNoTransaction indicates Commit/Rollback was called with no open
	// transaction.
	ErrNoTransaction = errors.New("facet manager has no open transaction")
)

// DuplicateFacetError carries the offending kind.
type DuplicateFacetError struct{ Kind string }

func (e *DuplicateFacetError) Error() string {
	return fmt.Sprintf("facet kind %q already registered", e.Kind)
}
func (e *DuplicateFacetError) Unwrap() error { return ErrDuplicateFacet }

// FacetNotFoundError carries the offending kind.
type FacetNotFoundError struct{ Kind string }

func (e *FacetNotFoundError) Error() string {
	return fmt.Sprintf("facet kind %q not found", e.Kind)
}
func (e *FacetNotFoundError) Unwrap() error { return ErrFacetNotFound }
