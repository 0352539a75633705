package itinerary

import (
	"context"

	"go.uber.org/zap"

	"github.com/kailas-cloud/travelq/internal/domain/query"
	"github.com/kailas-cloud/travelq/internal/domain/record"
	"github.com/kailas-cloud/travelq/internal/logger"
	"github.com/kailas-cloud/travelq/internal/usecase/retrieval"
)

// DefaultAttractionPool is how many attractions are drawn before sampling one per day.
const DefaultAttractionPool = 20

// Bundle is everything needed to render a trip plan.
type Bundle struct {
	Query            query.ItineraryQuery `json:"query"`
	Total            int                  `json:"total_budget"`
	TransitBudget    int                  `json:"transit_budget"`
	HotelBudget      int                  `json:"hotel_budget"`
	Buses            []record.Bus         `json:"buses"`
	Flights          []record.Flight      `json:"flights"`
	Hotels           []record.Hotel       `json:"hotels"`
	HotelPriceColumn string               `json:"hotel_price_column"`
	Attractions      []record.Attraction  `json:"attractions"`
	ReturnBuses      []record.Bus         `json:"return_buses"`
	ReturnFlights    []record.Flight      `json:"return_flights"`
}

// Composer assembles itinerary bundles from the retrieval engine.
type Composer struct {
	retriever Retriever
	rnd       *retrieval.Rand
	pool      int
	topK      int
}

// New creates a Composer. Non-positive pool and topK fall back to their defaults.
func New(retriever Retriever, rnd *retrieval.Rand, pool, topK int) *Composer {
	if pool <= 0 {
		pool = DefaultAttractionPool
	}
	if topK <= 0 {
		topK = retrieval.DefaultTopK
	}
	if rnd == nil {
		rnd = retrieval.NewTimeSeededRand()
	}
	return &Composer{retriever: retriever, rnd: rnd, pool: pool, topK: topK}
}

// SplitBudget returns the resolved total and the transit and hotel shares (40% each).
// The remaining 20% is left for activities. A nil or zero total uses the default.
func SplitBudget(total *int) (resolved, transit, hotel int) {
	resolved = query.DefaultItineraryTotal
	if total != nil && *total != 0 {
		resolved = *total
	}
	share := int(float64(resolved) * 0.4)
	return resolved, share, share
}

// Compose retrieves outbound transit, hotels, a sample of attractions and return transit.
func (c *Composer) Compose(ctx context.Context, q query.ItineraryQuery, fuzzy bool) Bundle {
	if q.NumDays <= 0 {
		q.NumDays = query.DefaultNumDays
	}
	total, transit, hotel := SplitBudget(q.Budget)

	b := Bundle{
		Query:         q,
		Total:         total,
		TransitBudget: transit,
		HotelBudget:   hotel,
	}

	outbound := query.Query{Source: q.Source, Destination: q.Destination, Budget: &transit}
	inbound := query.Query{Source: q.Destination, Destination: q.Source, Budget: &transit}

	b.Buses = c.retriever.RetrieveBuses(ctx, outbound, fuzzy, c.topK)
	b.Flights = c.retriever.RetrieveFlights(ctx, outbound, fuzzy, c.topK)
	b.Hotels, b.HotelPriceColumn = c.retriever.RetrieveHotels(ctx,
		query.Query{City: q.Destination, Budget: &hotel}, fuzzy, c.topK)

	pool := c.retriever.RetrieveAttractions(ctx, query.Query{City: q.Destination}, fuzzy, c.pool)
	b.Attractions = retrieval.Sample(c.rnd, pool, q.NumDays)

	b.ReturnBuses = c.retriever.RetrieveBuses(ctx, inbound, fuzzy, c.topK)
	b.ReturnFlights = c.retriever.RetrieveFlights(ctx, inbound, fuzzy, c.topK)

	logger.FromContext(ctx).Debug("Itinerary composed",
		zap.Int("num_days", q.NumDays),
		zap.Int("total_budget", total),
		zap.Int("buses", len(b.Buses)),
		zap.Int("flights", len(b.Flights)),
		zap.Int("hotels", len(b.Hotels)),
		zap.Int("attractions", len(b.Attractions)),
		zap.Int("return_buses", len(b.ReturnBuses)),
		zap.Int("return_flights", len(b.ReturnFlights)),
	)
	return b
}
