package extract

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/travelq/internal/cityname"
	"github.com/kailas-cloud/travelq/internal/domain"
	"github.com/kailas-cloud/travelq/internal/domain/query"
	"github.com/kailas-cloud/travelq/internal/heuristic"
	"github.com/kailas-cloud/travelq/internal/logger"
	"github.com/kailas-cloud/travelq/internal/metrics"
	"github.com/kailas-cloud/travelq/internal/prompt"
)

// Service turns a user message into a typed query via the completion service.
// Malformed model output degrades to heuristics and defaults; only a failed completion call is returned as an error.
type Service struct {
	completer domain.Completer
	model     string
}

// New creates a Service. A nil completer runs the offline heuristic extractors.
// model, when set, is tried before the provider's configured models.
func New(completer domain.Completer, model string) *Service {
	return &Service{completer: completer, model: model}
}

// Online reports whether extraction uses the completion service.
func (s *Service) Online() bool { return s.completer != nil }

// ExtractBus extracts a bus route query.
func (s *Service) ExtractBus(ctx context.Context, msg string) (query.RouteQuery, error) {
	return s.extractRoute(ctx, domain.IntentBus, msg)
}

// ExtractFlight extracts a flight route query.
func (s *Service) ExtractFlight(ctx context.Context, msg string) (query.RouteQuery, error) {
	return s.extractRoute(ctx, domain.IntentFlight, msg)
}

func (s *Service) extractRoute(ctx context.Context, intent domain.Intent, msg string) (query.RouteQuery, error) {
	if !s.Online() {
		q := heuristic.ExtractRoute(msg)
		q.Source = cityname.Canonicalize(q.Source)
		q.Destination = cityname.Canonicalize(q.Destination)
		q.Budget = orDefault(q.Budget, query.DefaultRouteBudget)
		return q, nil
	}

	f, err := s.fetch(ctx, intent, msg)
	if err != nil {
		return query.RouteQuery{}, err
	}
	r := recorder{intent: intent}

	var q query.RouteQuery
	q.Source = r.city(f, "source")
	q.Destination = r.city(f, "destination")
	q.Budget = r.budget(f, msg, query.DefaultRouteBudget)
	return q, nil
}

// ExtractHotel extracts a hotel query. The budget is a nightly ceiling with its own default.
func (s *Service) ExtractHotel(ctx context.Context, msg string) (query.HotelQuery, error) {
	if !s.Online() {
		q := heuristic.ExtractHotel(msg)
		q.City = cityname.Canonicalize(q.City)
		q.Budget = orDefault(q.Budget, query.DefaultHotelBudget)
		return q, nil
	}

	f, err := s.fetch(ctx, domain.IntentHotel, msg)
	if err != nil {
		return query.HotelQuery{}, err
	}
	r := recorder{intent: domain.IntentHotel}

	return query.HotelQuery{
		City:   r.city(f, "city"),
		Budget: r.budget(f, msg, query.DefaultHotelBudget),
	}, nil
}

// ExtractAttraction extracts the city of an attraction lookup, falling back to the heuristic city parser.
func (s *Service) ExtractAttraction(ctx context.Context, msg string) (query.AttractionQuery, error) {
	if !s.Online() {
		return query.AttractionQuery{City: heuristic.ExtractCity(msg)}, nil
	}

	f, err := s.fetch(ctx, domain.IntentAttractions, msg)
	if err != nil {
		return query.AttractionQuery{}, err
	}
	r := recorder{intent: domain.IntentAttractions}

	city, reason := f.city("city")
	if reason != "" {
		r.fallback("city", reason)
		city = heuristic.ExtractCity(msg)
	}
	return query.AttractionQuery{City: city}, nil
}

// ExtractItinerary extracts a trip plan query.
func (s *Service) ExtractItinerary(ctx context.Context, msg string) (query.ItineraryQuery, error) {
	if !s.Online() {
		q := heuristic.ExtractItinerary(msg)
		q.Source = cityname.Canonicalize(q.Source)
		q.Destination = cityname.Canonicalize(q.Destination)
		q.Budget = orDefault(q.Budget, query.DefaultItineraryBudget)
		return q, nil
	}

	f, err := s.fetch(ctx, domain.IntentItinerary, msg)
	if err != nil {
		return query.ItineraryQuery{}, err
	}
	r := recorder{intent: domain.IntentItinerary}

	q := query.ItineraryQuery{
		Source:      r.city(f, "source"),
		Destination: r.city(f, "destination"),
		Budget:      r.budget(f, msg, query.DefaultItineraryBudget),
	}
	days, reason := f.amount("num_days")
	if reason == "" && days <= 0 {
		reason = reasonInvalid
	}
	if reason != "" {
		r.fallback("num_days", reason)
		days = heuristic.ParseNumDays(msg)
	}
	q.NumDays = days
	return q, nil
}

// fetch runs the extraction prompt at temperature 0 and decodes the reply.
func (s *Service) fetch(ctx context.Context, intent domain.Intent, msg string) (fields, error) {
	p, err := prompt.Extraction(intent, msg)
	if err != nil {
		return nil, err
	}

	res, err := s.completer.Complete(ctx, domain.CompletionRequest{
		Prompt:          p,
		Temperature:     0,
		MaxOutputTokens: prompt.ExtractMaxTokens,
		Model:           s.model,
	})
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", intent, err)
	}

	f, ok := parseReply(res.Text)
	if !ok {
		metrics.ExtractionFallbacksTotal.WithLabelValues(string(intent), "*", reasonUnparsed).Inc()
		logger.FromContext(ctx).Debug("Extraction reply is not JSON",
			zap.String("intent", string(intent)),
			zap.Int("reply_len", len(res.Text)),
		)
	}
	return f, nil
}

// recorder applies per-field fallbacks and counts each one.
type recorder struct {
	intent domain.Intent
}

func (r recorder) fallback(field, reason string) {
	metrics.ExtractionFallbacksTotal.WithLabelValues(string(r.intent), field, reason).Inc()
}

// city reads a city field. An absent city leaves the query unconstrained and is not counted.
func (r recorder) city(f fields, key string) string {
	v, reason := f.city(key)
	if reason == reasonInvalid {
		r.fallback(key, reason)
	}
	return v
}

// budget reads the "budget" field. An unusable value falls back to the message's
// own amount, then to def. An absent value takes def directly.
func (r recorder) budget(f fields, msg string, def int) *int {
	v, reason := f.amount("budget")
	switch reason {
	case "":
		return &v
	case reasonAbsent:
		r.fallback("budget", reason)
		return query.IntPtr(def)
	default:
		r.fallback("budget", reason)
		if b := heuristic.ParseBudget(msg); b != nil {
			return b
		}
		return query.IntPtr(def)
	}
}

func orDefault(b *int, def int) *int {
	if b == nil {
		return query.IntPtr(def)
	}
	return b
}
