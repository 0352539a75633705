package assistant

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/travelq/internal/domain"
	"github.com/kailas-cloud/travelq/internal/heuristic"
	"github.com/kailas-cloud/travelq/internal/logger"
	"github.com/kailas-cloud/travelq/internal/metrics"
	"github.com/kailas-cloud/travelq/internal/prompt"
	"github.com/kailas-cloud/travelq/internal/usecase/retrieval"
)

// Classification sources reported to the intent metric.
const (
	sourceModel     = "model"
	sourceHeuristic = "heuristic"
)

// Options tune a Service.
type Options struct {
	Model string // tried before the provider's configured models
	Fuzzy bool
	TopK  int
}

// Reply is the assistant's answer to one message.
type Reply struct {
	TurnID    uuid.UUID        `json:"turn_id"`
	Intent    domain.Intent    `json:"intent"`
	Sentiment domain.Sentiment `json:"sentiment"`
	Text      string           `json:"reply"`
	Data      any              `json:"data,omitempty"`
	// Degraded is set when the model could not be reached and Text is an apology.
	Degraded bool `json:"degraded"`
}

// Service routes a message through classification, extraction, retrieval and rendering.
type Service struct {
	completer domain.Completer
	extractor Extractor
	retriever Retriever
	composer  Composer
	model     string
	fuzzy     bool
	topK      int
}

// New creates a Service. A nil completer classifies with the heuristic rules
// and replies with the retrieved rows instead of rendered prose.
func New(completer domain.Completer, extractor Extractor, retriever Retriever, composer Composer, opts Options) *Service {
	if opts.TopK <= 0 {
		opts.TopK = retrieval.DefaultTopK
	}
	return &Service{
		completer: completer,
		extractor: extractor,
		retriever: retriever,
		composer:  composer,
		model:     opts.Model,
		fuzzy:     opts.Fuzzy,
		topK:      opts.TopK,
	}
}

// Classify labels a message. The model's first word is accepted only when it is
// a supported label; anything else falls back to the heuristic rules.
func (s *Service) Classify(ctx context.Context, msg string) domain.Intent {
	intent, source := s.classify(ctx, msg)
	metrics.IntentClassificationsTotal.WithLabelValues(string(intent), source).Inc()
	return intent
}

func (s *Service) classify(ctx context.Context, msg string) (domain.Intent, string) {
	if s.completer == nil {
		return heuristic.DetectIntent(msg), sourceHeuristic
	}

	res, err := s.completer.Complete(ctx, domain.CompletionRequest{
		Prompt:          prompt.Classify(msg),
		Temperature:     0,
		MaxOutputTokens: prompt.ClassifyMaxTokens,
		Model:           s.model,
	})
	if err != nil {
		logger.FromContext(ctx).Warn("Intent classification failed, using heuristic", zap.Error(err))
		return heuristic.DetectIntent(msg), sourceHeuristic
	}

	words := strings.Fields(res.Text)
	if len(words) > 0 {
		label := strings.ToLower(strings.Trim(words[0], ".,;:!\"'`"))
		if intent, err := domain.ParseIntent(label); err == nil {
			return intent, sourceModel
		}
	}
	return heuristic.DetectIntent(msg), sourceHeuristic
}

// Respond answers one message. An unreachable model or an exhausted budget yields
// a degraded reply, not an error.
func (s *Service) Respond(ctx context.Context, message string) (Reply, error) {
	msg := heuristic.NormalizeMessage(message)
	if msg == "" {
		return Reply{}, fmt.Errorf("%w: empty message", domain.ErrInvalidQuery)
	}

	r := Reply{
		TurnID:    uuid.New(),
		Sentiment: heuristic.AnalyzeSentiment(msg),
	}
	r.Intent = s.Classify(ctx, msg)

	ctx, log := logger.WithFields(ctx,
		zap.String("turn_id", r.TurnID.String()),
		zap.String("intent", string(r.Intent)),
	)

	var err error
	switch r.Intent {
	case domain.IntentGreeting:
		r.Text, err = s.greet(ctx, r.Sentiment, msg)
	case domain.IntentBus:
		r.Text, r.Data, err = s.buses(ctx, msg)
	case domain.IntentFlight:
		r.Text, r.Data, err = s.flights(ctx, msg)
	case domain.IntentHotel:
		r.Text, r.Data, err = s.hotels(ctx, msg)
	case domain.IntentAttractions:
		r.Text, r.Data, err = s.attractions(ctx, msg)
	case domain.IntentItinerary:
		r.Text, r.Data, err = s.itinerary(ctx, msg)
	default:
		r.Text = prompt.NotSure
	}

	if err != nil {
		if !domain.IsUnavailable(err) {
			return Reply{}, fmt.Errorf("respond %s: %w", r.Intent, err)
		}
		log.Warn("Completion unavailable, replying with apology", zap.Error(err))
		r.Text = prompt.Unavailable
		r.Degraded = true
	}
	return r, nil
}

// Extract runs only the extraction step for an intent.
func (s *Service) Extract(ctx context.Context, intent domain.Intent, msg string) (any, error) {
	msg = heuristic.NormalizeMessage(msg)
	if msg == "" {
		return nil, fmt.Errorf("%w: empty message", domain.ErrInvalidQuery)
	}

	switch intent {
	case domain.IntentBus:
		return s.extractor.ExtractBus(ctx, msg)
	case domain.IntentFlight:
		return s.extractor.ExtractFlight(ctx, msg)
	case domain.IntentHotel:
		return s.extractor.ExtractHotel(ctx, msg)
	case domain.IntentAttractions:
		return s.extractor.ExtractAttraction(ctx, msg)
	case domain.IntentItinerary:
		return s.extractor.ExtractItinerary(ctx, msg)
	default:
		return nil, fmt.Errorf("%w: %q has no extractor", domain.ErrUnknownIntent, intent)
	}
}

func (s *Service) greet(ctx context.Context, sentiment domain.Sentiment, msg string) (string, error) {
	if s.completer == nil {
		return "Hello! " + prompt.NotSure, nil
	}
	return s.complete(ctx, prompt.Greeting(sentiment, msg))
}

// render sends a rendering prompt. Offline it returns the rows the prompt was built from.
func (s *Service) render(ctx context.Context, p, rows string) (string, error) {
	if s.completer == nil {
		return prompt.Offline + "\n" + rows, nil
	}
	return s.complete(ctx, p)
}

// complete treats an empty reply as unavailability.
func (s *Service) complete(ctx context.Context, p string) (string, error) {
	res, err := s.completer.Complete(ctx, domain.CompletionRequest{
		Prompt:          p,
		Temperature:     prompt.RenderTemperature,
		MaxOutputTokens: prompt.RenderMaxTokens,
		Model:           s.model,
	})
	if err != nil {
		return "", fmt.Errorf("render: %w", err)
	}
	text := strings.TrimSpace(res.Text)
	if text == "" {
		return "", fmt.Errorf("render: empty reply: %w", domain.ErrCompletionUnavailable)
	}
	return text, nil
}
