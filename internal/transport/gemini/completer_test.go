package gemini

import (
	"context"
	"errors"
	"testing"

	"google.golang.org/genai"

	"github.com/kailas-cloud/travelq/internal/domain"
)

type fakeModels struct {
	replies map[string]*genai.GenerateContentResponse
	errs    map[string]error
	calls   []string
	lastCfg *genai.GenerateContentConfig
	listErr error
}

func (f *fakeModels) GenerateContent(
	_ context.Context, model string, _ []*genai.Content, cfg *genai.GenerateContentConfig,
) (*genai.GenerateContentResponse, error) {
	f.calls = append(f.calls, model)
	f.lastCfg = cfg
	if err := f.errs[model]; err != nil {
		return nil, err
	}
	return f.replies[model], nil
}

func (f *fakeModels) List(_ context.Context, _ *genai.ListModelsConfig) (genai.Page[genai.Model], error) {
	return genai.Page[genai.Model]{}, f.listErr
}

func textResponse(text string, reason genai.FinishReason) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content:      &genai.Content{Role: "model", Parts: []*genai.Part{{Text: text}}},
			FinishReason: reason,
		}},
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     20,
			CandidatesTokenCount: 4,
			TotalTokenCount:      24,
		},
	}
}

func TestComplete_Success(t *testing.T) {
	api := &fakeModels{replies: map[string]*genai.GenerateContentResponse{
		"gemini-2.5-flash": textResponse(`{"city":"Goa"}`, genai.FinishReasonStop),
	}}
	c := newCompleter(api, []string{"gemini-2.5-flash"}, nil)

	res, err := c.Complete(context.Background(), domain.CompletionRequest{Prompt: "p", MaxOutputTokens: 100})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if res.Text != `{"city":"Goa"}` || res.TotalTokens != 24 || res.PromptTokens != 20 {
		t.Errorf("unexpected result: %+v", res)
	}
	if api.lastCfg.Temperature == nil || *api.lastCfg.Temperature != 0 {
		t.Errorf("temperature must be sent explicitly as 0")
	}
	if api.lastCfg.MaxOutputTokens != 100 {
		t.Errorf("MaxOutputTokens = %d", api.lastCfg.MaxOutputTokens)
	}
}

func TestComplete_BlockedThenNext(t *testing.T) {
	api := &fakeModels{
		replies: map[string]*genai.GenerateContentResponse{
			"blocked": textResponse("nope", genai.FinishReasonSafety),
			"empty":   {},
			"ok":      textResponse("greeting", genai.FinishReasonStop),
		},
		errs: map[string]error{"missing": errors.New("404 model not found")},
	}
	c := newCompleter(api, []string{"missing", "blocked", "empty", "ok"}, nil)

	res, err := c.Complete(context.Background(), domain.CompletionRequest{Prompt: "p"})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if res.Text != "greeting" || res.Model != "ok" {
		t.Errorf("unexpected result: %+v", res)
	}
	if len(api.calls) != 4 {
		t.Errorf("calls = %v", api.calls)
	}
}

func TestComplete_EmptyRepliesCountTowardUsage(t *testing.T) {
	api := &fakeModels{replies: map[string]*genai.GenerateContentResponse{
		"blocked": textResponse("nope", genai.FinishReasonSafety),
		"ok":      textResponse("bus", genai.FinishReasonStop),
	}}
	c := newCompleter(api, []string{"blocked", "ok"}, nil)

	res, err := c.Complete(context.Background(), domain.CompletionRequest{Prompt: "p"})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if res.Text != "bus" || res.TotalTokens != 48 || res.PromptTokens != 40 || res.CompletionTokens != 8 {
		t.Errorf("unexpected result: %+v", res)
	}

	api = &fakeModels{
		replies: map[string]*genai.GenerateContentResponse{"blocked": textResponse("nope", genai.FinishReasonSafety)},
		errs:    map[string]error{"down": errors.New("503")},
	}
	res, err = newCompleter(api, []string{"blocked", "down"}, nil).
		Complete(context.Background(), domain.CompletionRequest{Prompt: "p"})
	if !errors.Is(err, domain.ErrCompletionUnavailable) {
		t.Fatalf("expected ErrCompletionUnavailable, got %v", err)
	}
	if res.TotalTokens != 24 {
		t.Errorf("TotalTokens = %d, want 24", res.TotalTokens)
	}
}

func TestComplete_AllFailed(t *testing.T) {
	api := &fakeModels{errs: map[string]error{"a": errors.New("boom"), "b": errors.New("boom")}}
	c := newCompleter(api, []string{"a", "b"}, nil)

	_, err := c.Complete(context.Background(), domain.CompletionRequest{Prompt: "p"})
	if !errors.Is(err, domain.ErrCompletionUnavailable) {
		t.Fatalf("expected ErrCompletionUnavailable, got %v", err)
	}
}

func TestComplete_AllEmpty(t *testing.T) {
	api := &fakeModels{replies: map[string]*genai.GenerateContentResponse{"a": nil}}
	c := newCompleter(api, []string{"a"}, nil)

	res, err := c.Complete(context.Background(), domain.CompletionRequest{Prompt: "p"})
	if err != nil || res.Text != "" {
		t.Fatalf("expected empty text and nil error, got %+v, %v", res, err)
	}
}

func TestComplete_OverrideDeduplicated(t *testing.T) {
	api := &fakeModels{errs: map[string]error{"a": errors.New("boom")}}
	c := newCompleter(api, []string{"a"}, nil)

	_, _ = c.Complete(context.Background(), domain.CompletionRequest{Prompt: "p", Model: "a"})
	if len(api.calls) != 1 {
		t.Errorf("override equal to a configured model must be tried once, calls = %v", api.calls)
	}
}

func TestHealthCheck(t *testing.T) {
	if err := newCompleter(&fakeModels{}, nil, nil).HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck: %v", err)
	}
	api := &fakeModels{listErr: errors.New("unauthenticated")}
	if err := newCompleter(api, nil, nil).HealthCheck(context.Background()); err == nil {
		t.Error("expected error")
	}
}
