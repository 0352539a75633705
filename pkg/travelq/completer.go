package travelq

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/travelq/internal/domain"
)

// Completer generates text for a prompt. Return an error wrapping
// ErrCompletionUnavailable when the model cannot answer; the client then
// degrades instead of failing.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResult, error)
}

// CompletionRequest is one prompt round trip. An empty Model means the
// implementation's default.
type CompletionRequest struct {
	Prompt          string
	Temperature     float32
	MaxOutputTokens int
	Model           string
}

// CompletionResult carries the generated text and token counts.
type CompletionResult struct {
	Text             string
	Model            string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// completerAdapter wraps the public Completer to satisfy domain.Completer.
type completerAdapter struct {
	inner Completer
}

func (a *completerAdapter) Complete(ctx context.Context, req domain.CompletionRequest) (domain.CompletionResult, error) {
	r, err := a.inner.Complete(ctx, CompletionRequest{
		Prompt:          req.Prompt,
		Temperature:     req.Temperature,
		MaxOutputTokens: req.MaxOutputTokens,
		Model:           req.Model,
	})
	if err != nil {
		return domain.CompletionResult{}, fmt.Errorf("complete: %w", err)
	}
	return domain.CompletionResult{
		Text:             r.Text,
		Model:            r.Model,
		PromptTokens:     r.PromptTokens,
		CompletionTokens: r.CompletionTokens,
		TotalTokens:      r.TotalTokens,
	}, nil
}
