// Package record defines the rows of the four travel datasets.
package record

// Bus is one bus service between two cities.
type Bus struct {
	Source         string   `json:"source"`
	Destination    string   `json:"destination"`
	BusType        string   `json:"bus_type"`
	DepartureTime  string   `json:"departure_time"`
	TravelDuration string   `json:"travel_duration"`
	Price          int      `json:"price"`
	Rating         *float64 `json:"rating,omitempty"` // nil when the dataset has no rating column
}

// Flight is one flight between two cities.
type Flight struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Airline   string `json:"airline"`
	Class     string `json:"class"`
	DepTime   string `json:"dep_time"`
	TimeTaken string `json:"time_taken"`
	Price     int    `json:"price"`
}

// Hotel is one hotel listing.
type Hotel struct {
	City          string   `json:"city"`
	HotelName     string   `json:"hotel_name"`
	PricePerNight int      `json:"price_per_night"`
	Rating        *float64 `json:"rating,omitempty"`
}

// Attraction is one sightseeing entry.
type Attraction struct {
	City        string `json:"city"`
	Category    string `json:"category"`
	Name        string `json:"attraction"`
	Description string `json:"description"`
	Activities  string `json:"activities"`
	BestTime    string `json:"best_time"`
}
