package travelq

import "github.com/kailas-cloud/travelq/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrCompletionUnavailable   = domain.ErrCompletionUnavailable
	ErrCompletionQuotaExceeded = domain.ErrCompletionQuotaExceeded
	ErrUnknownIntent           = domain.ErrUnknownIntent
	ErrInvalidQuery            = domain.ErrInvalidQuery
)
