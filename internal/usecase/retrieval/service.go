package retrieval

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/travelq/internal/dataset"
	"github.com/kailas-cloud/travelq/internal/domain/query"
	"github.com/kailas-cloud/travelq/internal/domain/record"
	"github.com/kailas-cloud/travelq/internal/heuristic"
	"github.com/kailas-cloud/travelq/internal/logger"
	"github.com/kailas-cloud/travelq/internal/metrics"
)

// DefaultTopK is the result cap when the caller passes a non-positive K.
const DefaultTopK = 5

// Service filters and ranks dataset rows against a structured query.
// Empty results are not errors.
type Service struct {
	ds    Dataset
	match CityMatcher
	rnd   *Rand
}

// New creates a retrieval service. rnd drives attraction sampling.
func New(ds Dataset, match CityMatcher, rnd *Rand) *Service {
	if rnd == nil {
		rnd = NewTimeSeededRand()
	}
	return &Service{ds: ds, match: match, rnd: rnd}
}

func (s *Service) cityOK(value, want string, fuzzy bool) bool {
	return strings.TrimSpace(want) == "" || s.match.Match(value, want, fuzzy)
}

func withinBudget(price int, budget *int) bool {
	return budget == nil || price <= *budget
}

func topK(k int) int {
	if k <= 0 {
		return DefaultTopK
	}
	return k
}

// RetrieveBuses returns buses ordered by price ascending, then rating descending
// when the dataset carries ratings.
func (s *Service) RetrieveBuses(ctx context.Context, q query.Query, fuzzy bool, k int) []record.Bus {
	rows, hasRating := s.ds.Buses()

	out := make([]record.Bus, 0)
	for _, b := range rows {
		if s.cityOK(b.Source, q.Source, fuzzy) && s.cityOK(b.Destination, q.Destination, fuzzy) &&
			withinBudget(b.Price, q.Budget) {
			out = append(out, b)
		}
	}

	slices.SortStableFunc(out, func(a, b record.Bus) int {
		if c := cmp.Compare(a.Price, b.Price); c != 0 || !hasRating {
			return c
		}
		return cmp.Compare(rating(b.Rating), rating(a.Rating))
	})

	out = truncate(out, topK(k))
	s.log(ctx, dataset.Bus, q, fuzzy, len(out))
	return out
}

// RetrieveFlights returns flights ordered by price ascending, then travel time ascending.
func (s *Service) RetrieveFlights(ctx context.Context, q query.Query, fuzzy bool, k int) []record.Flight {
	type ranked struct {
		f    record.Flight
		mins int
	}

	matched := make([]ranked, 0)
	for _, f := range s.ds.Flights() {
		if s.cityOK(f.From, q.Source, fuzzy) && s.cityOK(f.To, q.Destination, fuzzy) &&
			withinBudget(f.Price, q.Budget) {
			matched = append(matched, ranked{f: f, mins: heuristic.ParseDurationMinutes(f.TimeTaken)})
		}
	}

	slices.SortStableFunc(matched, func(a, b ranked) int {
		if c := cmp.Compare(a.f.Price, b.f.Price); c != 0 {
			return c
		}
		return cmp.Compare(a.mins, b.mins)
	})

	matched = truncate(matched, topK(k))
	out := make([]record.Flight, len(matched))
	for i, m := range matched {
		out[i] = m.f
	}
	s.log(ctx, dataset.Flight, q, fuzzy, len(out))
	return out
}

// RetrieveHotels returns hotels ordered by nightly price ascending, then rating descending.
// The second return value names the source price column.
func (s *Service) RetrieveHotels(ctx context.Context, q query.Query, fuzzy bool, k int) ([]record.Hotel, string) {
	rows, priceCol, hasRating := s.ds.Hotels()

	out := make([]record.Hotel, 0)
	for _, h := range rows {
		if s.cityOK(h.City, q.City, fuzzy) && withinBudget(h.PricePerNight, q.Budget) {
			out = append(out, h)
		}
	}

	slices.SortStableFunc(out, func(a, b record.Hotel) int {
		if c := cmp.Compare(a.PricePerNight, b.PricePerNight); c != 0 || !hasRating {
			return c
		}
		return cmp.Compare(rating(b.Rating), rating(a.Rating))
	})

	out = truncate(out, topK(k))
	s.log(ctx, dataset.Hotel, q, fuzzy, len(out))
	return out, priceCol
}

// RetrieveAttractions returns up to K city-matched attractions sampled uniformly at random.
func (s *Service) RetrieveAttractions(ctx context.Context, q query.Query, fuzzy bool, k int) []record.Attraction {
	matched := make([]record.Attraction, 0)
	for _, a := range s.ds.Attractions() {
		if s.cityOK(a.City, q.City, fuzzy) {
			matched = append(matched, a)
		}
	}

	out := Sample(s.rnd, matched, topK(k))
	s.log(ctx, dataset.Attraction, q, fuzzy, len(out))
	return out
}

func (s *Service) log(ctx context.Context, name dataset.Name, q query.Query, fuzzy bool, n int) {
	metrics.RecordRetrieval(string(name), n)
	logger.FromContext(ctx).Debug("Retrieval",
		zap.String("dataset", string(name)),
		zap.String("source", q.Source),
		zap.String("destination", q.Destination),
		zap.String("city", q.City),
		zap.Intp("budget", q.Budget),
		zap.Bool("fuzzy", fuzzy),
		zap.Int("results", n),
	)
}

func rating(r *float64) float64 {
	if r == nil {
		return 0
	}
	return *r
}

func truncate[T any](s []T, k int) []T {
	if len(s) > k {
		return s[:k]
	}
	return s
}
