package retrieval

import "github.com/kailas-cloud/travelq/internal/domain/record"

// Dataset is the read-only table provider.
type Dataset interface {
	Buses() ([]record.Bus, bool)
	Flights() []record.Flight
	Hotels() ([]record.Hotel, string, bool)
	Attractions() []record.Attraction
}

// CityMatcher decides whether two city names denote the same place.
type CityMatcher interface {
	Match(a, b string, fuzzy bool) bool
}
