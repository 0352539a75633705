package assistant

import (
	"context"

	"github.com/kailas-cloud/travelq/internal/domain/query"
	"github.com/kailas-cloud/travelq/internal/domain/record"
	"github.com/kailas-cloud/travelq/internal/usecase/itinerary"
)

// Extractor turns a message into a typed query per intent.
type Extractor interface {
	ExtractBus(ctx context.Context, msg string) (query.RouteQuery, error)
	ExtractFlight(ctx context.Context, msg string) (query.RouteQuery, error)
	ExtractHotel(ctx context.Context, msg string) (query.HotelQuery, error)
	ExtractAttraction(ctx context.Context, msg string) (query.AttractionQuery, error)
	ExtractItinerary(ctx context.Context, msg string) (query.ItineraryQuery, error)
}

// Retriever filters and ranks dataset rows.
type Retriever interface {
	RetrieveBuses(ctx context.Context, q query.Query, fuzzy bool, k int) []record.Bus
	RetrieveFlights(ctx context.Context, q query.Query, fuzzy bool, k int) []record.Flight
	RetrieveHotels(ctx context.Context, q query.Query, fuzzy bool, k int) ([]record.Hotel, string)
	RetrieveAttractions(ctx context.Context, q query.Query, fuzzy bool, k int) []record.Attraction
}

// Composer assembles itinerary bundles.
type Composer interface {
	Compose(ctx context.Context, q query.ItineraryQuery, fuzzy bool) itinerary.Bundle
}
