package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/travelq/internal/domain"
	"github.com/kailas-cloud/travelq/internal/metrics"
)

// Completer is a text-completion provider using the OpenAI-compatible chat API
// (OpenAI, Gemini's compatibility endpoint, vLLM, ...).
type Completer struct {
	client   *openai.Client
	models   []string
	provider string
	logger   *zap.Logger
}

// Config holds the completion provider settings.
// Models are tried in order until one returns non-empty text.
type Config struct {
	APIKey   string
	BaseURL  string
	Models   []string
	Provider string
	Timeout  time.Duration
	Logger   *zap.Logger
}

// NewCompleter creates an OpenAI-compatible completion provider.
func NewCompleter(cfg *Config) *Completer {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Completer{
		client:   openai.NewClientWithConfig(clientCfg),
		models:   cfg.Models,
		provider: cfg.Provider,
		logger:   logger,
	}
}

// Complete implements domain.Completer.
// Empty or filtered replies fall through to the next model. If any model
// failed and none produced text, the result wraps domain.ErrCompletionUnavailable;
// if every model answered empty, the result is empty text with a nil error.
// Token usage of every answered model is summed into the result, errors included.
func (c *Completer) Complete(ctx context.Context, req domain.CompletionRequest) (domain.CompletionResult, error) {
	var (
		lastErr error
		spent   domain.CompletionResult
	)

	for _, model := range candidates(req.Model, c.models) {
		res, err := c.completeOnce(ctx, model, req)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				break
			}
			c.logger.Warn("Completion model failed, trying next",
				zap.String("provider", c.provider),
				zap.String("model", model),
				zap.Error(err),
			)
			continue
		}
		if res.Text == "" {
			spent.AddUsage(res)
			continue
		}
		res.AddUsage(spent)
		return res, nil
	}

	return spent, lastErr
}

func (c *Completer) completeOnce(
	ctx context.Context, model string, req domain.CompletionRequest,
) (domain.CompletionResult, error) {
	temperature := req.Temperature
	if temperature == 0 {
		// go-openai drops a zero temperature from the payload (omitempty).
		temperature = math.SmallestNonzeroFloat32
	}

	start := time.Now()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
		Temperature: temperature,
		MaxTokens:   req.MaxOutputTokens,
	})

	duration := time.Since(start)

	if err != nil {
		metrics.CompletionRequestsTotal.WithLabelValues(c.provider, model, "error").Inc()
		metrics.CompletionErrorsTotal.WithLabelValues(c.provider, model, "api_error").Inc()
		return domain.CompletionResult{}, parseAPIError(err)
	}

	metrics.CompletionRequestDuration.WithLabelValues(c.provider, model).Observe(duration.Seconds())

	if resp.Usage.TotalTokens > 0 {
		metrics.CompletionTokensTotal.WithLabelValues(c.provider, model, "prompt").Add(float64(resp.Usage.PromptTokens))
		metrics.CompletionTokensTotal.WithLabelValues(c.provider, model, "completion").
			Add(float64(resp.Usage.CompletionTokens))
	}

	result := domain.CompletionResult{
		Model:            model,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}

	if len(resp.Choices) == 0 || resp.Choices[0].FinishReason == openai.FinishReasonContentFilter {
		metrics.CompletionRequestsTotal.WithLabelValues(c.provider, model, "empty").Inc()
		return result, nil
	}

	result.Text = resp.Choices[0].Message.Content
	if result.Text == "" {
		metrics.CompletionRequestsTotal.WithLabelValues(c.provider, model, "empty").Inc()
	} else {
		metrics.CompletionRequestsTotal.WithLabelValues(c.provider, model, "success").Inc()
	}
	return result, nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (c *Completer) HealthCheck(ctx context.Context) error {
	if _, err := c.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// candidates puts the override first and drops duplicates and blanks.
func candidates(override string, models []string) []string {
	out := make([]string, 0, len(models)+1)
	seen := make(map[string]struct{}, len(models)+1)
	for _, m := range append([]string{override}, models...) {
		if _, ok := seen[m]; ok || m == "" {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	return out
}

// parseAPIError extracts a human-readable error from the API response.
// All errors are wrapped with domain.ErrCompletionUnavailable.
func parseAPIError(err error) error {
	wrap := domain.ErrCompletionUnavailable

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if detail := extractDetail(reqErr.Body); detail != "" {
			return fmt.Errorf("completion API error %d: %s: %w",
				reqErr.HTTPStatusCode, detail, wrap)
		}
		return fmt.Errorf("completion API error %d: %s: %w",
			reqErr.HTTPStatusCode, string(reqErr.Body), wrap)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("completion API error %d: %s: %w",
			apiErr.HTTPStatusCode, apiErr.Message, wrap)
	}

	return fmt.Errorf("completion request failed: %v: %w", err, wrap)
}

// extractDetail extracts the "detail" field from a JSON error body.
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}
