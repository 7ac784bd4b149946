// Package security implements the capability-based access-control model:
// Principal identity, time-bounded Public Key Records, the registry that
// mints and rotates them, and per-resource reader/writer ACLs.
package security

import "time"

// Clock is injected wherever PKR expiry must be evaluated, so tests can
// force expiry deterministically.
type Clock interface {
	Now() time.Time
}

// systemClock is the default Clock, backed by time.Now.
type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock is the default production Clock.
var SystemClock Clock = systemClock{}
