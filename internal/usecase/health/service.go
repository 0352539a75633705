package health

import (
	"context"

	"github.com/kailas-cloud/travelq/internal/dataset"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
	// Unhealthy indicates no dataset is loaded, so no query can be answered.
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

// Report aggregates health check results.
type Report struct {
	Status   Status
	Checks   map[string]CheckResult
	Datasets map[string]int
}

// Service coordinates health checks.
type Service struct {
	datasets   Datasets
	cache      CachePinger
	completion CompletionChecker
}

// New creates a Service. cache and completion can be nil when not configured.
func New(datasets Datasets, cache CachePinger, completion CompletionChecker) *Service {
	return &Service{datasets: datasets, cache: cache, completion: completion}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)
	counts := make(map[string]int)

	total := 0
	for name, n := range s.datasets.Counts() {
		counts[string(name)] = n
		total += n
	}
	checks["datasets"] = result(nil)
	if total == 0 {
		checks["datasets"] = CheckError
	}

	if s.cache != nil {
		checks["cache"] = result(s.cache.Ping(ctx))
	}
	if s.completion != nil {
		checks["completion"] = result(s.completion.HealthCheck(ctx))
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}
	if checks["datasets"] == CheckError {
		status = Unhealthy
	}

	return Report{Status: status, Checks: checks, Datasets: counts}
}

// Datasets describes every table in load order.
func (s *Service) Datasets() []dataset.Summary {
	out := make([]dataset.Summary, 0, len(dataset.Names))
	for _, n := range dataset.Names {
		out = append(out, s.datasets.Summary(n))
	}
	return out
}

// Dataset describes the table called name, or fails with domain.ErrUnknownDataset.
func (s *Service) Dataset(name string) (dataset.Summary, error) {
	n, err := dataset.ParseName(name)
	if err != nil {
		return dataset.Summary{}, err
	}
	return s.datasets.Summary(n), nil
}

func result(err error) CheckResult {
	if err != nil {
		return CheckError
	}
	return CheckOK
}
