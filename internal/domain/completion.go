package domain

import "context"

// Completer is the text-completion contract shared between layers.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResult, error)
}

// HealthChecker verifies completion provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// CompletionRequest is a single prompt round trip.
// An empty Model means "use the provider's configured model list".
type CompletionRequest struct {
	Prompt          string
	Temperature     float32
	MaxOutputTokens int
	Model           string
}

// CompletionResult carries the generated text and token usage through the decorator chain.
// Empty Text is a valid result: the model replied but produced nothing usable.
type CompletionResult struct {
	Text             string
	Model            string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// AddUsage adds the token counts of o to r.
func (r *CompletionResult) AddUsage(o CompletionResult) {
	r.PromptTokens += o.PromptTokens
	r.CompletionTokens += o.CompletionTokens
	r.TotalTokens += o.TotalTokens
}
