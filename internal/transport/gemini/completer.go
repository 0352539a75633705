// Package gemini implements domain.Completer on the native Gemini API.
package gemini

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/kailas-cloud/travelq/internal/domain"
	"github.com/kailas-cloud/travelq/internal/metrics"
)

const provider = "gemini"

// models is the subset of *genai.Models the completer calls.
type models interface {
	GenerateContent(
		ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
	List(ctx context.Context, config *genai.ListModelsConfig) (genai.Page[genai.Model], error)
}

// Config holds the Gemini settings. Models are tried in order.
type Config struct {
	APIKey  string
	BaseURL string
	Models  []string
	Logger  *zap.Logger
}

// Completer calls generateContent for each configured model until one returns text.
type Completer struct {
	api    models
	models []string
	logger *zap.Logger
}

// NewCompleter creates a Gemini completer backed by the Gemini Developer API.
func NewCompleter(ctx context.Context, cfg *Config) (*Completer, error) {
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return newCompleter(client.Models, cfg.Models, cfg.Logger), nil
}

func newCompleter(api models, names []string, logger *zap.Logger) *Completer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Completer{api: api, models: names, logger: logger}
}

// Complete implements domain.Completer with the same fallthrough contract as the
// OpenAI-compatible transport: blocked or empty candidates move on to the next model.
// Token usage of every answered model is summed into the result.
func (c *Completer) Complete(ctx context.Context, req domain.CompletionRequest) (domain.CompletionResult, error) {
	names := c.models
	if req.Model != "" {
		names = append([]string{req.Model}, c.models...)
	}

	cfg := &genai.GenerateContentConfig{Temperature: genai.Ptr(req.Temperature)}
	if req.MaxOutputTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxOutputTokens) //nolint:gosec // bounded by config validation
	}

	var (
		lastErr error
		spent   domain.CompletionResult
	)
	tried := make(map[string]bool, len(names))
	for _, model := range names {
		if tried[model] || model == "" {
			continue
		}
		tried[model] = true

		start := time.Now()
		resp, err := c.api.GenerateContent(ctx, model, genai.Text(req.Prompt), cfg)
		if err != nil {
			metrics.CompletionRequestsTotal.WithLabelValues(provider, model, "error").Inc()
			metrics.CompletionErrorsTotal.WithLabelValues(provider, model, "api_error").Inc()
			lastErr = fmt.Errorf("gemini %s: %v: %w", model, err, domain.ErrCompletionUnavailable)
			if ctx.Err() != nil {
				break
			}
			c.logger.Warn("Completion model failed, trying next", zap.String("model", model), zap.Error(err))
			continue
		}
		metrics.CompletionRequestDuration.WithLabelValues(provider, model).Observe(time.Since(start).Seconds())

		res := toResult(model, resp)
		metrics.CompletionTokensTotal.WithLabelValues(provider, model, "prompt").Add(float64(res.PromptTokens))
		metrics.CompletionTokensTotal.WithLabelValues(provider, model, "completion").Add(float64(res.CompletionTokens))
		if res.Text == "" {
			metrics.CompletionRequestsTotal.WithLabelValues(provider, model, "empty").Inc()
			spent.AddUsage(res)
			continue
		}
		metrics.CompletionRequestsTotal.WithLabelValues(provider, model, "success").Inc()
		res.AddUsage(spent)
		return res, nil
	}

	// Empty replies are still billed, so their usage is returned either way.
	return spent, lastErr
}

// HealthCheck lists one model to verify the key and endpoint.
func (c *Completer) HealthCheck(ctx context.Context) error {
	if _, err := c.api.List(ctx, &genai.ListModelsConfig{PageSize: 1}); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// toResult joins the text parts of the first candidate that has any.
func toResult(model string, resp *genai.GenerateContentResponse) domain.CompletionResult {
	res := domain.CompletionResult{Model: model}
	if resp == nil {
		return res
	}
	if u := resp.UsageMetadata; u != nil {
		res.PromptTokens = int(u.PromptTokenCount)
		res.CompletionTokens = int(u.CandidatesTokenCount)
		res.TotalTokens = int(u.TotalTokenCount)
	}

	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil || cand.FinishReason == genai.FinishReasonSafety {
			continue
		}
		var sb strings.Builder
		for _, part := range cand.Content.Parts {
			if part != nil && part.Text != "" && !part.Thought {
				sb.WriteString(part.Text)
			}
		}
		if sb.Len() > 0 {
			res.Text = sb.String()
			return res
		}
	}
	return res
}
