package travelq

import (
	"github.com/kailas-cloud/travelq/internal/dataset"
	"github.com/kailas-cloud/travelq/internal/domain"
	"github.com/kailas-cloud/travelq/internal/domain/query"
	"github.com/kailas-cloud/travelq/internal/domain/record"
	"github.com/kailas-cloud/travelq/internal/usecase/itinerary"
)

// Dataset rows.
type (
	Bus        = record.Bus
	Flight     = record.Flight
	Hotel      = record.Hotel
	Attraction = record.Attraction
)

// Query filters a search. Empty strings and a nil Budget leave a field unconstrained.
type Query = query.Query

// ItineraryQuery describes a trip. A nil or zero Budget uses the default total.
type ItineraryQuery = query.ItineraryQuery

// Trip is a composed itinerary: budget split, outbound and return travel,
// hotels and one attraction per day.
type Trip = itinerary.Bundle

// Tables are in-memory dataset rows for WithTables.
type Tables = dataset.Tables

// Intent is the routed category of a message.
type Intent = domain.Intent

// Intent values.
const (
	IntentGreeting    = domain.IntentGreeting
	IntentBus         = domain.IntentBus
	IntentFlight      = domain.IntentFlight
	IntentHotel       = domain.IntentHotel
	IntentAttractions = domain.IntentAttractions
	IntentItinerary   = domain.IntentItinerary
	IntentUnknown     = domain.IntentUnknown
)

// IntPtr returns a pointer to v, for Query budgets.
func IntPtr(v int) *int { return &v }
