// Package health aggregates component probes into a single status.
package health

import (
	"context"
	"sort"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
	// Unhealthy indicates total failure.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Checker probes one component.
type Checker interface {
	Check(ctx context.Context) error
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc func(ctx context.Context) error

// Check implements Checker.
func (f CheckerFunc) Check(ctx context.Context) error { return f(ctx) }

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
	Errors map[string]string
}

// Names returns the checked component names in sorted order.
func (r Report) Names() []string {
	names := make([]string, 0, len(r.Checks))
	for n := range r.Checks {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Service coordinates health checks.
type Service struct {
	checkers map[string]Checker
}

// New creates a Service with no components.
func New() *Service {
	return &Service{checkers: make(map[string]Checker)}
}

// Register adds a named component. A nil checker is ignored.
func (s *Service) Register(name string, c Checker) *Service {
	if c != nil {
		s.checkers[name] = c
	}
	return s
}

// Check runs every registered probe.
func (s *Service) Check(ctx context.Context) Report {
	r := Report{
		Checks: make(map[string]CheckResult, len(s.checkers)),
		Errors: make(map[string]string),
	}

	failed := 0
	for name, c := range s.checkers {
		if err := c.Check(ctx); err != nil {
			r.Checks[name] = CheckError
			r.Errors[name] = err.Error()
			failed++
			continue
		}
		r.Checks[name] = CheckOK
	}

	switch {
	case failed == 0:
		r.Status = Healthy
	case failed == len(s.checkers):
		r.Status = Unhealthy
	default:
		r.Status = Degraded
	}
	return r
}
