package assistant

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/travelq/internal/domain"
	"github.com/kailas-cloud/travelq/internal/domain/query"
	"github.com/kailas-cloud/travelq/internal/domain/record"
	"github.com/kailas-cloud/travelq/internal/logger"
	"github.com/kailas-cloud/travelq/internal/prompt"
	"github.com/kailas-cloud/travelq/internal/usecase/itinerary"
)

// Result is the structured payload of a list reply.
type Result[Q, T any] struct {
	Query       Q      `json:"query"`
	Items       []T    `json:"items"`
	PriceColumn string `json:"price_column,omitempty"`
}

func (s *Service) buses(ctx context.Context, msg string) (string, any, error) {
	q, err := s.extractor.ExtractBus(ctx, msg)
	if err != nil {
		return "", nil, err
	}
	items := s.retriever.RetrieveBuses(ctx, q.Query(), s.fuzzy, s.topK)
	data := Result[query.RouteQuery, record.Bus]{Query: q, Items: items}
	if len(items) == 0 {
		return prompt.NoBuses(prompt.OrUnknown(q.Source), prompt.OrUnknown(q.Destination), prompt.Budget(q.Budget)), data, nil
	}

	rows := prompt.BusRows(items)
	text, err := s.render(ctx, prompt.Buses(s.list(q.Budget, rows, msg)), rows)
	return text, data, err
}

func (s *Service) flights(ctx context.Context, msg string) (string, any, error) {
	q, err := s.extractor.ExtractFlight(ctx, msg)
	if err != nil {
		return "", nil, err
	}
	items := s.retriever.RetrieveFlights(ctx, q.Query(), s.fuzzy, s.topK)
	data := Result[query.RouteQuery, record.Flight]{Query: q, Items: items}
	if len(items) == 0 {
		return prompt.NoFlights(prompt.OrUnknown(q.Source), prompt.OrUnknown(q.Destination), prompt.Budget(q.Budget)), data, nil
	}

	rows := prompt.FlightRows(items)
	text, err := s.render(ctx, prompt.Flights(s.list(q.Budget, rows, msg)), rows)
	return text, data, err
}

func (s *Service) hotels(ctx context.Context, msg string) (string, any, error) {
	q, err := s.extractor.ExtractHotel(ctx, msg)
	if err != nil {
		return "", nil, err
	}
	items, priceCol := s.retriever.RetrieveHotels(ctx, q.Query(), s.fuzzy, s.topK)
	data := Result[query.HotelQuery, record.Hotel]{Query: q, Items: items, PriceColumn: priceCol}
	if len(items) == 0 {
		return prompt.NoHotels(prompt.OrUnknown(q.City), prompt.Budget(q.Budget)), data, nil
	}

	rows := prompt.HotelRows(items)
	text, err := s.render(ctx, prompt.Hotels(s.list(q.Budget, rows, msg)), rows)
	return text, data, err
}

func (s *Service) attractions(ctx context.Context, msg string) (string, any, error) {
	q, err := s.extractor.ExtractAttraction(ctx, msg)
	if err != nil {
		return "", nil, err
	}
	items := s.retriever.RetrieveAttractions(ctx, q.Query(), s.fuzzy, s.topK)
	data := Result[query.AttractionQuery, record.Attraction]{Query: q, Items: items}
	if len(items) == 0 {
		return prompt.NoAttractions(prompt.OrUnknown(q.City)), data, nil
	}

	rows := prompt.AttractionRows(items)
	text, err := s.render(ctx, prompt.Attractions(prompt.List{K: s.topK, Rows: rows, Question: msg}), rows)
	return text, data, err
}

func (s *Service) itinerary(ctx context.Context, msg string) (string, any, error) {
	q, err := s.extractor.ExtractItinerary(ctx, msg)
	if err != nil {
		return "", nil, err
	}
	b := s.composer.Compose(ctx, q, s.fuzzy)

	it := PlanPrompt(b)
	it.Question = msg
	text, err := s.render(ctx, prompt.ItineraryPlan(it), planSummary(it))
	return text, b, err
}

func (s *Service) list(budget *int, rows, msg string) prompt.List {
	return prompt.List{K: s.topK, Budget: prompt.Budget(budget), Rows: rows, Question: msg}
}

// PlanPrompt converts a bundle into the itinerary prompt data, with placeholders for empty sections.
func PlanPrompt(b itinerary.Bundle) prompt.Itinerary {
	return prompt.Itinerary{
		NumDays:          b.Query.NumDays,
		Source:           prompt.OrUnknown(b.Query.Source),
		Destination:      prompt.OrUnknown(b.Query.Destination),
		Budget:           b.Total,
		BusRows:          prompt.OrPlaceholder(prompt.BusRows(b.Buses), prompt.NoBusesFound),
		FlightRows:       prompt.OrPlaceholder(prompt.FlightRows(b.Flights), prompt.NoFlightsFound),
		HotelRows:        prompt.OrPlaceholder(prompt.HotelRows(b.Hotels), prompt.NoHotelsFound),
		AttractionRows:   prompt.OrPlaceholder(prompt.DayRows(b.Attractions), prompt.NoAttractionsFound),
		ReturnBusRows:    prompt.OrPlaceholder(prompt.BusRows(b.ReturnBuses), prompt.NoReturnBusesFound),
		ReturnFlightRows: prompt.OrPlaceholder(prompt.FlightRows(b.ReturnFlights), prompt.NoReturnFlightsFound),
	}
}

func planSummary(it prompt.Itinerary) string {
	return strings.Join([]string{
		"Outbound buses:", it.BusRows,
		"Outbound flights:", it.FlightRows,
		"Hotels:", it.HotelRows,
		"Attractions:", it.AttractionRows,
		"Return buses:", it.ReturnBusRows,
		"Return flights:", it.ReturnFlightRows,
	}, "\n")
}

// RenderItinerary writes the trip plan for an already composed bundle.
// degraded is set when the model could not be reached and text is an apology.
func (s *Service) RenderItinerary(ctx context.Context, b itinerary.Bundle, question string) (text string, degraded bool, err error) {
	it := PlanPrompt(b)
	it.Question = question
	text, err = s.render(ctx, prompt.ItineraryPlan(it), planSummary(it))
	if err != nil {
		if !domain.IsUnavailable(err) {
			return "", false, err
		}
		logger.FromContext(ctx).Warn("Completion unavailable, itinerary not rendered", zap.Error(err))
		return prompt.Unavailable, true, nil
	}
	return text, false, nil
}
