package chi

import (
	"time"

	"github.com/kailas-cloud/travelq/internal/domain/record"
	"github.com/kailas-cloud/travelq/internal/usecase/itinerary"
)

// ErrorCode is a machine-readable error identifier.
type ErrorCode string

// Error codes returned in ErrorResponse.
const (
	ErrorCodeBadRequest            ErrorCode = "bad_request"
	ErrorCodeUnauthorized          ErrorCode = "unauthorized"
	ErrorCodeValidationFailed      ErrorCode = "validation_failed"
	ErrorCodeUnknownIntent         ErrorCode = "unknown_intent"
	ErrorCodeUnknownDataset        ErrorCode = "unknown_dataset"
	ErrorCodeRateLimited           ErrorCode = "rate_limited"
	ErrorCodeQuotaExceeded         ErrorCode = "completion_quota_exceeded"
	ErrorCodeCompletionUnavailable ErrorCode = "completion_unavailable"
	ErrorCodeInternalError         ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// MessageRequest is the body of POST /v1/chat and POST /v1/extract/{intent}.
type MessageRequest struct {
	Message string `json:"message"`
}

// ItineraryRequest is the body of POST /v1/itinerary.
type ItineraryRequest struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
	Budget      *int   `json:"budget"`
	NumDays     int    `json:"num_days"`
	Fuzzy       *bool  `json:"fuzzy"`
	// Render asks the model to write the plan; Question is passed through as the user's words.
	Render   bool   `json:"render"`
	Question string `json:"question"`
}

// ItineraryResponse is the body of POST /v1/itinerary.
type ItineraryResponse struct {
	itinerary.Bundle
	Plan     string `json:"plan,omitempty"`
	Degraded bool   `json:"degraded,omitempty"`
}

// ListResponse wraps ranked rows.
type ListResponse[T any] struct {
	Items []T `json:"items"`
	Count int `json:"count"`
}

// HotelListResponse adds the source price column to hotel rows.
type HotelListResponse struct {
	ListResponse[record.Hotel]
	PriceColumn string `json:"price_column"`
}

// BudgetStatus is the token budget section of a usage report.
type BudgetStatus struct {
	TokensLimit     int64      `json:"tokens_limit"`
	TokensUsed      int64      `json:"tokens_used"`
	TokensRemaining int64      `json:"tokens_remaining"`
	IsExhausted     bool       `json:"is_exhausted"`
	ResetsAt        *time.Time `json:"resets_at,omitempty"`
}

// UsageResponse is the body of GET /v1/usage.
type UsageResponse struct {
	Period        string       `json:"period"`
	Provider      string       `json:"provider,omitempty"`
	PeriodStartAt *time.Time   `json:"period_start_at,omitempty"`
	PeriodEndAt   *time.Time   `json:"period_end_at,omitempty"`
	Budget        BudgetStatus `json:"budget"`
}

// DatasetResponse describes one loaded table.
type DatasetResponse struct {
	Name        string `json:"name"`
	Rows        int    `json:"rows"`
	HasRating   bool   `json:"has_rating"`
	PriceColumn string `json:"price_column,omitempty"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status   string            `json:"status"`
	Checks   map[string]string `json:"checks"`
	Datasets map[string]int    `json:"datasets"`
}
