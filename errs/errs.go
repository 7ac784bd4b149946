// Package errs provides the unified typed-error taxonomy for the subsystem
// framework, mirroring the sentinel-plus-detail pattern used across the
// wider codebase: a stable sentinel per failure kind, wrapped with
// situational detail so callers can still errors.Is/errors.As against the
// kind without parsing messages.
package errs

import (
	"errors"
	"fmt"
)

// Code identifies a failure kind from the framework's error taxonomy.
type Code string

const (
	InvalidArgument            Code = "InvalidArgument"
	ContractViolation          Code = "ContractViolation"
	InvalidPattern             Code = "InvalidPattern"
	NoRoute                    Code = "NoRoute"
	CoreMissing                Code = "CoreMissing"
	InvalidPlan                Code = "InvalidPlan"
	UnresolvableDependencies   Code = "UnresolvableDependencies"
	MissingDependency          Code = "MissingDependency"
	AmbiguousHook              Code = "AmbiguousHook"
	AlreadyBuilt               Code = "AlreadyBuilt"
	NotBuilt                   Code = "NotBuilt"
	Timeout                    Code = "Timeout"
	InvalidPKR                 Code = "InvalidPKR"
	UnknownPKR                 Code = "UnknownPKR"
	InvalidOrUnknownPKR        Code = "InvalidOrUnknownPKR"
	NameConflict               Code = "NameConflict"
	DuplicateKernel            Code = "DuplicateKernel"
	InvalidKind                Code = "InvalidKind"
	KernelUnavailable          Code = "KernelUnavailable"
	KernelMissingSendProtected Code = "KernelMissingSendProtected"
	AlreadyAttached            Code = "AlreadyAttached"
	InvalidInstance            Code = "InvalidInstance"
)

// Error is a typed, wrappable error carrying a stable Code.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is allows errors.Is(err, errs.New(SomeCode, "")) to match on Code alone,
// ignoring Message/Err, so callers can test for a code using a throwaway
// sentinel value.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return t.Code == e.Code
	}
	return false
}

// New creates an Error with the given code and message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error with the given code and message, wrapping cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Err: cause}
}

// Is reports whether err carries the given Code anywhere in its chain.
func Is(err error, code Code) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Code == code
}

// CodeOf extracts the Code carried by err, if any.
func CodeOf(err error) (Code, bool) {
	var e *Error
	if !errors.As(err, &e) {
		return "", false
	}
	return e.Code, true
}
