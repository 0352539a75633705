package heuristic

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/kailas-cloud/travelq/internal/domain/query"
)

// Go's regexp has no lookahead: the delimiter group is consumed instead,
// which leaves the lazily captured city groups unchanged.
var (
	routePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)from\s+([a-zA-Z\s]+?)\s+to\s+([a-zA-Z\s]+?)\s*(?:under|within|budget|for|,|\.|$)`),
		regexp.MustCompile(`(?i)from\s+([a-zA-Z\s]+?)\s+to\s+([a-zA-Z\s]+)$`),
	}
	hotelPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)in\s+([a-zA-Z\s]+?)\s*(?:under|within|budget|for|,|\.|$)`),
		regexp.MustCompile(`(?i)in\s+([a-zA-Z\s]+)$`),
	}
	daysRe = regexp.MustCompile(`(?i)(\d+)\s*-?\s*day`)
)

// ExtractRoute parses "from X to Y [under N]" without the completion service.
func ExtractRoute(text string) query.RouteQuery {
	q := query.RouteQuery{Budget: ParseBudget(text)}
	q.Source, q.Destination = matchRoute(text)
	return q
}

// ExtractHotel parses "in X [under N]" without the completion service.
func ExtractHotel(text string) query.HotelQuery {
	q := query.HotelQuery{Budget: ParseBudget(text)}
	for _, re := range hotelPatterns {
		if m := re.FindStringSubmatch(text); m != nil {
			q.City = strings.TrimSpace(m[1])
			break
		}
	}
	return q
}

// ExtractItinerary parses the day count, route and a keyword-marked budget.
// Without a "from X to Y" phrase the destination falls back to ExtractCity.
func ExtractItinerary(text string) query.ItineraryQuery {
	q := query.ItineraryQuery{NumDays: ParseNumDays(text), Budget: ParseBudgetKeyword(text)}
	q.Source, q.Destination = matchRoute(text)
	if q.Source == "" && q.Destination == "" {
		q.Destination = ExtractCity(text)
	}
	return q
}

// ParseNumDays finds "<N>-day" / "<N> days" in text. Returns query.DefaultNumDays
// when absent or not positive.
func ParseNumDays(text string) int {
	if m := daysRe.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			return n
		}
	}
	return query.DefaultNumDays
}

func matchRoute(text string) (src, dst string) {
	for _, re := range routePatterns {
		if m := re.FindStringSubmatch(text); m != nil {
			return strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
		}
	}
	return "", ""
}
