// Package query holds the structured search parameters extracted from a user message.
package query

// Fixed defaults applied when a field is absent or cannot be coerced.
const (
	DefaultRouteBudget     = 10000
	DefaultHotelBudget     = 2500
	DefaultItineraryBudget = 10000
	DefaultNumDays         = 3
	// DefaultItineraryTotal is the total used by the composer when the budget is unset or zero.
	DefaultItineraryTotal = 50000
)

// Query is the generic retrieval filter. Empty strings and a nil Budget mean unconstrained.
type Query struct {
	Source      string `json:"source,omitempty"`
	Destination string `json:"destination,omitempty"`
	City        string `json:"city,omitempty"`
	Budget      *int   `json:"budget,omitempty"`
}

// RouteQuery describes a bus or flight search. Source and destination are independent.
type RouteQuery struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
	Budget      *int   `json:"budget"`
}

// Query converts to the generic retrieval filter.
func (q RouteQuery) Query() Query {
	return Query{Source: q.Source, Destination: q.Destination, Budget: q.Budget}
}

// HotelQuery describes a hotel search. Budget is a nightly ceiling.
type HotelQuery struct {
	City   string `json:"city"`
	Budget *int   `json:"budget"`
}

// Query converts to the generic retrieval filter.
func (q HotelQuery) Query() Query {
	return Query{City: q.City, Budget: q.Budget}
}

// AttractionQuery describes an attraction lookup.
type AttractionQuery struct {
	City string `json:"city"`
}

// Query converts to the generic retrieval filter.
func (q AttractionQuery) Query() Query {
	return Query{City: q.City}
}

// ItineraryQuery describes a multi-day trip plan.
type ItineraryQuery struct {
	NumDays     int    `json:"num_days"`
	Source      string `json:"source"`
	Destination string `json:"destination"`
	Budget      *int   `json:"budget"`
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int { return &v }
