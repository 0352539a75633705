package prompt

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/kailas-cloud/travelq/internal/domain/record"
)

// Placeholders for empty record sets inside the itinerary prompt.
const (
	NoBusesFound         = "(no buses found)"
	NoFlightsFound       = "(no flights found)"
	NoHotelsFound        = "(no hotels found)"
	NoAttractionsFound   = "(no attractions found)"
	NoReturnBusesFound   = "(no return buses found)"
	NoReturnFlightsFound = "(no return flights found)"
)

var printer = message.NewPrinter(language.English)

// FormatCurrency prints a rupee amount with thousands separators, e.g. ₹12,500.
func FormatCurrency(amount int) string {
	return printer.Sprintf("₹%d", amount)
}

type cell struct {
	name  string
	value string
}

// bulleted renders one " - k: v; k: v" line per row.
func bulleted(rows [][]cell) string {
	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		parts := make([]string, 0, len(row))
		for _, c := range row {
			parts = append(parts, c.name+": "+c.value)
		}
		lines = append(lines, " - "+strings.Join(parts, "; "))
	}
	return strings.Join(lines, "\n")
}

func formatRating(r float64) string {
	return strconv.FormatFloat(r, 'f', -1, 64)
}

// BusRows formats buses for a prompt. Buses without a rating get no rating cell.
func BusRows(buses []record.Bus) string {
	rows := make([][]cell, 0, len(buses))
	for _, b := range buses {
		row := []cell{
			{"source", b.Source},
			{"destination", b.Destination},
			{"bus_type", b.BusType},
		}
		if b.DepartureTime != "" {
			row = append(row, cell{"departure_time", b.DepartureTime})
		}
		row = append(row,
			cell{"travel_duration", b.TravelDuration},
			cell{"price", FormatCurrency(b.Price)},
		)
		if b.Rating != nil {
			row = append(row, cell{"rating", formatRating(*b.Rating)})
		}
		rows = append(rows, row)
	}
	return bulleted(rows)
}

// FlightRows formats flights for a prompt.
func FlightRows(flights []record.Flight) string {
	rows := make([][]cell, 0, len(flights))
	for _, f := range flights {
		row := []cell{
			{"from", f.From},
			{"to", f.To},
			{"airline", f.Airline},
			{"class", f.Class},
		}
		if f.DepTime != "" {
			row = append(row, cell{"dep_time", f.DepTime})
		}
		row = append(row,
			cell{"time_taken", f.TimeTaken},
			cell{"price", FormatCurrency(f.Price)},
		)
		rows = append(rows, row)
	}
	return bulleted(rows)
}

// HotelRows formats hotels for a prompt. Whatever column the price came from, it is shown as price_per_night.
func HotelRows(hotels []record.Hotel) string {
	rows := make([][]cell, 0, len(hotels))
	for _, h := range hotels {
		row := []cell{
			{"city", h.City},
			{"hotel_name", h.HotelName},
			{"price_per_night", strconv.Itoa(h.PricePerNight)},
		}
		if h.Rating != nil {
			row = append(row, cell{"rating", formatRating(*h.Rating)})
		}
		rows = append(rows, row)
	}
	return bulleted(rows)
}

// AttractionRows formats attractions for the attraction prompt.
func AttractionRows(attractions []record.Attraction) string {
	rows := make([][]cell, 0, len(attractions))
	for _, a := range attractions {
		rows = append(rows, []cell{
			{"city", a.City},
			{"category", a.Category},
			{"attraction", a.Name},
			{"description", a.Description},
			{"activities", a.Activities},
			{"best_time", a.BestTime},
		})
	}
	return bulleted(rows)
}

// DayRows formats the sampled attractions of an itinerary, without city and best time.
func DayRows(attractions []record.Attraction) string {
	rows := make([][]cell, 0, len(attractions))
	for _, a := range attractions {
		rows = append(rows, []cell{
			{"attraction", a.Name},
			{"category", a.Category},
			{"description", a.Description},
			{"activities", a.Activities},
		})
	}
	return bulleted(rows)
}

// OrPlaceholder returns rows, or placeholder when rows is empty.
func OrPlaceholder(rows, placeholder string) string {
	if rows == "" {
		return placeholder
	}
	return rows
}

// Canned replies for empty retrievals and an unreachable model.
const (
	Unavailable = "Sorry, the travel assistant is temporarily unavailable. Please try again in a moment."
	NotSure     = "I can help with buses, flights, hotels, attractions, or itineraries. Try asking with a city and optional budget."
	Offline     = "I can't write a full reply right now, but here is what I found:"
)

// NoBuses is the reply when no bus matches.
func NoBuses(source, destination, budget string) string {
	return fmt.Sprintf("Sorry, I couldn’t find buses for %s → %s within ₹%s.", source, destination, budget)
}

// NoFlights is the reply when no flight matches.
func NoFlights(source, destination, budget string) string {
	return fmt.Sprintf("Sorry, I couldn’t find flights for %s → %s within ₹%s.", source, destination, budget)
}

// NoHotels is the reply when no hotel matches.
func NoHotels(city, budget string) string {
	return fmt.Sprintf("Sorry, I couldn’t find hotels in %s within ₹%s per night.", city, budget)
}

// NoAttractions is the reply when the city has no attractions.
func NoAttractions(city string) string {
	return fmt.Sprintf("Sorry, I couldn’t find attractions in %s.", city)
}
