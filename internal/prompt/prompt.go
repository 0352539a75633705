// Package prompt builds the completion prompts and the canned replies of the assistant.
package prompt

import (
	"fmt"
	"strconv"
	"strings"
	"text/template"

	"github.com/kailas-cloud/travelq/internal/domain"
)

// Completion parameters per prompt kind.
const (
	ClassifyMaxTokens = 100
	ExtractMaxTokens  = 2000
	RenderMaxTokens   = 2000
	RenderTemperature = 0.4
)

// Unknown is printed for a missing city or budget.
const Unknown = "?"

// List is the data of a bus, flight, hotel or attraction rendering prompt.
type List struct {
	K        int
	Budget   string
	Rows     string
	Question string
}

// Itinerary is the data of the itinerary rendering prompt.
type Itinerary struct {
	NumDays          int
	Source           string
	Destination      string
	Budget           int
	BusRows          string
	FlightRows       string
	HotelRows        string
	AttractionRows   string
	ReturnBusRows    string
	ReturnFlightRows string
	Question         string
}

// Classify returns the intent classification prompt.
func Classify(message string) string {
	return execute(classifyTmpl, struct{ Message string }{message})
}

// Greeting returns the greeting reply prompt.
func Greeting(sentiment domain.Sentiment, message string) string {
	return execute(greetingTmpl, struct {
		Sentiment domain.Sentiment
		Message   string
	}{sentiment, message})
}

// Extraction returns the JSON extraction prompt for an intent.
// Only bus, flight, hotel, attractions and itinerary have one.
func Extraction(intent domain.Intent, message string) (string, error) {
	data := struct {
		Subject string
		Message string
	}{Message: message}

	switch intent {
	case domain.IntentBus:
		data.Subject = "bus"
		return execute(extractRouteTmpl, data), nil
	case domain.IntentFlight:
		data.Subject = "flight"
		return execute(extractRouteTmpl, data), nil
	case domain.IntentHotel:
		return execute(extractHotelTmpl, data), nil
	case domain.IntentAttractions:
		return execute(extractAttractionTmpl, data), nil
	case domain.IntentItinerary:
		return execute(extractItineraryTmpl, data), nil
	default:
		return "", fmt.Errorf("no extraction prompt for %q: %w", intent, domain.ErrUnknownIntent)
	}
}

// Buses returns the bus rendering prompt.
func Buses(l List) string { return execute(busesTmpl, l) }

// Flights returns the flight rendering prompt.
func Flights(l List) string { return execute(flightsTmpl, l) }

// Hotels returns the hotel rendering prompt.
func Hotels(l List) string { return execute(hotelsTmpl, l) }

// Attractions returns the attraction rendering prompt.
func Attractions(l List) string { return execute(attractionsTmpl, l) }

// ItineraryPlan returns the itinerary rendering prompt.
func ItineraryPlan(it Itinerary) string {
	days := make([]int, max(it.NumDays, 0))
	for i := range days {
		days[i] = i + 1
	}
	return execute(itineraryTmpl, struct {
		Itinerary
		Days []int
	}{it, days})
}

// Budget prints an optional budget as a bare number, or "?".
func Budget(b *int) string {
	if b == nil {
		return Unknown
	}
	return strconv.Itoa(*b)
}

// OrUnknown returns s, or "?" when s is blank.
func OrUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return Unknown
	}
	return s
}

// execute renders a package template. The data types are fixed here, so a failure is a bug.
func execute(t *template.Template, data any) string {
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		panic(fmt.Sprintf("prompt: render %s: %v", t.Name(), err))
	}
	return b.String()
}
