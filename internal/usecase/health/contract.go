package health

import (
	"context"

	"github.com/kailas-cloud/travelq/internal/dataset"
)

// CachePinger checks KV store availability.
type CachePinger interface {
	Ping(ctx context.Context) error
}

// CompletionChecker checks completion provider availability.
type CompletionChecker interface {
	HealthCheck(ctx context.Context) error
}

// Datasets reports what was loaded per dataset.
type Datasets interface {
	Counts() map[dataset.Name]int
	Summary(n dataset.Name) dataset.Summary
}
