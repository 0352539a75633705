package domain

import "errors"

// KeyPrefix namespaces every key travelq writes to the KV store.
const KeyPrefix = "travelq:"

var (
	// ErrCompletionUnavailable signals that no configured model produced a response.
	ErrCompletionUnavailable = errors.New("completion service unavailable")
	// ErrCompletionQuotaExceeded signals an exhausted completion token budget.
	ErrCompletionQuotaExceeded = errors.New("completion quota exceeded")
	// ErrUnknownIntent signals an intent label outside the supported set.
	ErrUnknownIntent = errors.New("unknown intent")
	// ErrInvalidQuery signals a structurally invalid query (e.g. negative budget).
	ErrInvalidQuery = errors.New("invalid query")
	// ErrUnknownDataset signals a dataset name outside bus/flight/hotel/attraction.
	ErrUnknownDataset = errors.New("unknown dataset")
)

// IsUnavailable reports whether err means the assistant cannot reach a model,
// either because every attempt failed or because the token budget rejected the call.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrCompletionUnavailable) || errors.Is(err, ErrCompletionQuotaExceeded)
}
