// Package health aggregates component availability checks.
package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

type namedChecker struct {
	name    string
	checker EmbeddingChecker
}

// Service coordinates health checks over the store and embedding providers.
type Service struct {
	store     StorePinger
	embedders []namedChecker
}

// New creates a Service checking the search store.
func New(store StorePinger) *Service {
	return &Service{store: store}
}

// AddEmbeddingCheck registers an embedding provider probe under
// "embedding:<name>" in the report.
func (s *Service) AddEmbeddingCheck(name string, c EmbeddingChecker) {
	s.embedders = append(s.embedders, namedChecker{name: name, checker: c})
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	if err := s.store.Ping(ctx); err != nil {
		checks["database"] = CheckError
	} else {
		checks["database"] = CheckOK
	}

	for _, e := range s.embedders {
		key := "embedding:" + e.name
		if err := e.checker.HealthCheck(ctx); err != nil {
			checks[key] = CheckError
		} else {
			checks[key] = CheckOK
		}
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}

	return Report{Status: status, Checks: checks}
}
