package itinerary

import (
	"context"

	"github.com/kailas-cloud/travelq/internal/domain/query"
	"github.com/kailas-cloud/travelq/internal/domain/record"
)

// Retriever is the retrieval engine as seen by the composer.
type Retriever interface {
	RetrieveBuses(ctx context.Context, q query.Query, fuzzy bool, k int) []record.Bus
	RetrieveFlights(ctx context.Context, q query.Query, fuzzy bool, k int) []record.Flight
	RetrieveHotels(ctx context.Context, q query.Query, fuzzy bool, k int) ([]record.Hotel, string)
	RetrieveAttractions(ctx context.Context, q query.Query, fuzzy bool, k int) []record.Attraction
}
