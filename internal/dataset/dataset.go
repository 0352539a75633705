// Package dataset loads the four travel tables from CSV into an immutable,
// process-lifetime Store.
package dataset

import (
	"fmt"
	"path/filepath"

	"github.com/kailas-cloud/travelq/internal/domain"
	"github.com/kailas-cloud/travelq/internal/domain/record"
)

// Name identifies one of the four tables.
type Name string

// Table names.
const (
	Bus        Name = "bus"
	Flight     Name = "flight"
	Hotel      Name = "hotel"
	Attraction Name = "attraction"
)

// Names lists all tables in load order.
var Names = []Name{Bus, Flight, Hotel, Attraction}

// ParseName validates a table name.
func ParseName(s string) (Name, error) {
	for _, n := range Names {
		if string(n) == s {
			return n, nil
		}
	}
	return "", fmt.Errorf("%w: %q", domain.ErrUnknownDataset, s)
}

// Hotel price column names, in order of preference.
const (
	PriceColumnINR = "price_per_night_inr"
	PriceColumn    = "price_per_night"
)

// Files locates the CSV files. An empty file name leaves that table empty.
type Files struct {
	Dir        string
	Bus        string
	Flight     string
	Hotel      string
	Attraction string
}

func (f Files) path(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(f.Dir, name)
}

// Store is the read-only repository of all four tables.
// Slices returned by accessors are shared and must not be modified.
type Store struct {
	buses          []record.Bus
	busHasRating   bool
	flights        []record.Flight
	hotels         []record.Hotel
	hotelPriceCol  string
	hotelHasRating bool
	attractions    []record.Attraction
}

// Load reads every configured file once.
func Load(files Files) (*Store, error) {
	s := &Store{hotelPriceCol: PriceColumn}

	if p := files.path(files.Bus); p != "" {
		t, err := readTable(p)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", Bus, err)
		}
		s.buses, s.busHasRating = busesFromTable(t)
	}
	if p := files.path(files.Flight); p != "" {
		t, err := readTable(p)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", Flight, err)
		}
		s.flights = flightsFromTable(t)
	}
	if p := files.path(files.Hotel); p != "" {
		t, err := readTable(p)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", Hotel, err)
		}
		s.hotels, s.hotelPriceCol, s.hotelHasRating = hotelsFromTable(t)
	}
	if p := files.path(files.Attraction); p != "" {
		t, err := readTable(p)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", Attraction, err)
		}
		s.attractions = attractionsFromTable(t)
	}
	return s, nil
}

// Tables holds pre-built rows for NewStore.
type Tables struct {
	Buses            []record.Bus
	BusHasRating     bool
	Flights          []record.Flight
	Hotels           []record.Hotel
	HotelPriceColumn string
	HotelHasRating   bool
	Attractions      []record.Attraction
}

// NewStore builds a Store from in-memory rows.
func NewStore(t Tables) *Store {
	col := t.HotelPriceColumn
	if col == "" {
		col = PriceColumn
	}
	return &Store{
		buses:          t.Buses,
		busHasRating:   t.BusHasRating,
		flights:        t.Flights,
		hotels:         t.Hotels,
		hotelPriceCol:  col,
		hotelHasRating: t.HotelHasRating,
		attractions:    t.Attractions,
	}
}

// Buses returns all bus rows and whether the source had a rating column.
func (s *Store) Buses() ([]record.Bus, bool) { return s.buses, s.busHasRating }

// Flights returns all flight rows.
func (s *Store) Flights() []record.Flight { return s.flights }

// Hotels returns all hotel rows, the source price column name and whether ratings exist.
func (s *Store) Hotels() ([]record.Hotel, string, bool) {
	return s.hotels, s.hotelPriceCol, s.hotelHasRating
}

// Attractions returns all attraction rows.
func (s *Store) Attractions() []record.Attraction { return s.attractions }

// Counts returns the row count per table.
func (s *Store) Counts() map[Name]int {
	return map[Name]int{
		Bus:        len(s.buses),
		Flight:     len(s.flights),
		Hotel:      len(s.hotels),
		Attraction: len(s.attractions),
	}
}

// Summary describes one loaded table.
type Summary struct {
	Name        Name
	Rows        int
	HasRating   bool
	PriceColumn string
}

// Summary describes table n. An unknown name yields a zero Summary.
func (s *Store) Summary(n Name) Summary {
	sum := Summary{Name: n, PriceColumn: "price"}
	switch n {
	case Bus:
		sum.Rows, sum.HasRating = len(s.buses), s.busHasRating
	case Flight:
		sum.Rows = len(s.flights)
	case Hotel:
		sum.Rows, sum.HasRating, sum.PriceColumn = len(s.hotels), s.hotelHasRating, s.hotelPriceCol
	case Attraction:
		sum.Rows, sum.PriceColumn = len(s.attractions), ""
	default:
		return Summary{}
	}
	return sum
}

func busesFromTable(t *table) ([]record.Bus, bool) {
	hasRating := t.has("rating")
	out := make([]record.Bus, 0, len(t.rows))
	for _, row := range t.rows {
		b := record.Bus{
			Source:         t.get(row, "source"),
			Destination:    t.get(row, "destination"),
			BusType:        t.get(row, "bus_type"),
			DepartureTime:  t.get(row, "departure_time"),
			TravelDuration: t.get(row, "travel_duration"),
			Price:          parsePrice(t.get(row, "price")),
		}
		if hasRating {
			r := parseFloat(t.get(row, "rating"))
			b.Rating = &r
		}
		out = append(out, b)
	}
	return out, hasRating
}

func flightsFromTable(t *table) []record.Flight {
	out := make([]record.Flight, 0, len(t.rows))
	for _, row := range t.rows {
		out = append(out, record.Flight{
			From:      t.get(row, "from"),
			To:        t.get(row, "to"),
			Airline:   t.get(row, "airline"),
			Class:     t.get(row, "class"),
			DepTime:   t.get(row, "dep_time"),
			TimeTaken: t.get(row, "time_taken"),
			Price:     parsePrice(t.get(row, "price")),
		})
	}
	return out
}

func hotelsFromTable(t *table) ([]record.Hotel, string, bool) {
	priceCol := PriceColumn
	if t.has(PriceColumnINR) {
		priceCol = PriceColumnINR
	}
	hasRating := t.has("rating")
	out := make([]record.Hotel, 0, len(t.rows))
	for _, row := range t.rows {
		h := record.Hotel{
			City:          t.get(row, "city"),
			HotelName:     t.get(row, "hotel_name"),
			PricePerNight: parseNumber(t.get(row, priceCol)),
		}
		if hasRating {
			r := parseFloat(t.get(row, "rating"))
			h.Rating = &r
		}
		out = append(out, h)
	}
	return out, priceCol, hasRating
}

func attractionsFromTable(t *table) []record.Attraction {
	out := make([]record.Attraction, 0, len(t.rows))
	for _, row := range t.rows {
		out = append(out, record.Attraction{
			City:        t.get(row, "city"),
			Category:    t.get(row, "category"),
			Name:        t.get(row, "attraction"),
			Description: t.get(row, "description"),
			Activities:  t.get(row, "activities"),
			BestTime:    t.get(row, "best_time"),
		})
	}
	return out
}
