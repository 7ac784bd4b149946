package core

import (
	"reflect"
	"sort"
	"strings"

	"github.com/lesfleursdelanuitdev/subsystem-core/errs"
)

// Contract is a declarative capability contract enforced at install time.
// Go has no dynamic "facet[name]" lookup, so RequiredMethods are checked via
// reflection against the facet's method set and RequiredProperties via
// Facet.Properties().
type Contract struct {
	Name               string
	RequiredMethods    []string
	RequiredProperties []string
	Validate           func(facet Facet) error
}

// Enforce runs the three-step check: required methods, then required
// properties, then the optional custom validator.
func (c Contract) Enforce(facet Facet) error {
	var missingMethods []string
	v := reflect.ValueOf(facet)
	for _, name := range c.RequiredMethods {
		m := v.MethodByName(name)
		if !m.IsValid() {
			missingMethods = append(missingMethods, name)
		}
	}
	if len(missingMethods) > 0 {
		sort.Strings(missingMethods)
		return errs.New(errs.ContractViolation, "%s: missing required methods: %s", c.Name, strings.Join(missingMethods, ", "))
	}

	props := facet.Properties()
	var missingProps []string
	for _, name := range c.RequiredProperties {
		if val, ok := props[name]; !ok || val == nil {
			missingProps = append(missingProps, name)
		}
	}
	if len(missingProps) > 0 {
		sort.Strings(missingProps)
		return errs.New(errs.ContractViolation, "%s: missing required properties: %s", c.Name, strings.Join(missingProps, ", "))
	}

	if c.Validate != nil {
		if err := c.Validate(facet); err != nil {
			return errs.Wrap(errs.ContractViolation, err, "%s: validation failed", c.Name)
		}
	}
	return nil
}

// RouterContract is the standing contract for the Router facet.
var RouterContract = Contract{
	Name:               "Router",
	RequiredMethods:    []string{"RegisterRoute", "UnregisterRoute", "HasRoute", "GetRoutes", "Match", "Route"},
	RequiredProperties: []string{"routeRegistry"},
}

// SchedulerContract is the standing contract for the Scheduler facet.
var SchedulerContract = Contract{
	Name:               "Scheduler",
	RequiredMethods:    []string{"Process", "PauseProcessing", "ResumeProcessing", "IsPaused", "IsProcessing", "GetPriority", "SetPriority"},
	RequiredProperties: []string{"scheduler"},
}
