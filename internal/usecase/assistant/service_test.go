package assistant

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kailas-cloud/travelq/internal/cityname"
	"github.com/kailas-cloud/travelq/internal/dataset"
	"github.com/kailas-cloud/travelq/internal/domain"
	"github.com/kailas-cloud/travelq/internal/domain/query"
	"github.com/kailas-cloud/travelq/internal/domain/record"
	"github.com/kailas-cloud/travelq/internal/metrics"
	"github.com/kailas-cloud/travelq/internal/prompt"
	"github.com/kailas-cloud/travelq/internal/usecase/extract"
	"github.com/kailas-cloud/travelq/internal/usecase/itinerary"
	"github.com/kailas-cloud/travelq/internal/usecase/retrieval"
)

func TestMain(m *testing.M) {
	metrics.RegisterPipelineMetrics()
	os.Exit(m.Run())
}

// --- Mocks ---

// scriptedCompleter answers by prompt kind: classification, extraction or rendering.
type scriptedCompleter struct {
	label     string
	labelErr  error
	extracted string
	extErr    error
	rendered  string
	renderErr error

	renders []string
}

func (m *scriptedCompleter) Complete(_ context.Context, req domain.CompletionRequest) (domain.CompletionResult, error) {
	switch {
	case strings.HasPrefix(req.Prompt, "You are an intent classifier"):
		return domain.CompletionResult{Text: m.label}, m.labelErr
	case strings.HasPrefix(req.Prompt, "Extract parameters"):
		return domain.CompletionResult{Text: m.extracted}, m.extErr
	default:
		m.renders = append(m.renders, req.Prompt)
		return domain.CompletionResult{Text: m.rendered}, m.renderErr
	}
}

func f64(v float64) *float64 { return &v }

func testStore() *dataset.Store {
	return dataset.NewStore(dataset.Tables{
		BusHasRating: true,
		Buses: []record.Bus{
			{Source: "Delhi", Destination: "Jaipur", BusType: "Volvo", TravelDuration: "5h", Price: 900, Rating: f64(4.2)},
			{Source: "Jaipur", Destination: "Delhi", BusType: "Sleeper", TravelDuration: "5h", Price: 800, Rating: f64(4.0)},
		},
		Flights: []record.Flight{
			{From: "Hyderabad", To: "Mumbai", Airline: "IndiGo", Class: "economy", TimeTaken: "1h 25m", Price: 8000},
			{From: "Hyderabad", To: "Mumbai", Airline: "Vistara", Class: "business", TimeTaken: "1h 30m", Price: 12000},
		},
		Hotels: []record.Hotel{
			{City: "Hyderabad", HotelName: "Charminar Inn", PricePerNight: 2200, Rating: f64(4.1)},
			{City: "Jaipur", HotelName: "Pearl", PricePerNight: 3000},
		},
		HotelHasRating: true,
		Attractions: []record.Attraction{
			{City: "Jaipur", Category: "Fort", Name: "Amber Fort"},
			{City: "Jaipur", Category: "Palace", Name: "Hawa Mahal"},
		},
	})
}

func newService(c domain.Completer) *Service {
	rnd := retrieval.NewSeededRand(11)
	engine := retrieval.New(testStore(), cityname.NewMatcher(cityname.DefaultThreshold), rnd)
	return New(c, extract.New(c, ""), engine, itinerary.New(engine, rnd, 0, 0), Options{Fuzzy: true})
}

// --- Tests ---

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		c      *scriptedCompleter
		msg    string
		want   domain.Intent
		source string
	}{
		{"model label", &scriptedCompleter{label: "Flight\n"}, "anything", domain.IntentFlight, sourceModel},
		{"label with punctuation", &scriptedCompleter{label: "hotel."}, "anything", domain.IntentHotel, sourceModel},
		{"first word only", &scriptedCompleter{label: "bus travel"}, "anything", domain.IntentBus, sourceModel},
		{"unsupported label", &scriptedCompleter{label: "weather"}, "book a sleeper coach", domain.IntentBus, sourceHeuristic},
		{"empty reply", &scriptedCompleter{}, "hotels in goa", domain.IntentHotel, sourceHeuristic},
		{"error", &scriptedCompleter{labelErr: domain.ErrCompletionUnavailable}, "hello there", domain.IntentGreeting, sourceHeuristic},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := testutil.ToFloat64(metrics.IntentClassificationsTotal.WithLabelValues(string(tt.want), tt.source))
			if got := newService(tt.c).Classify(context.Background(), tt.msg); got != tt.want {
				t.Errorf("Classify = %q, want %q", got, tt.want)
			}
			after := testutil.ToFloat64(metrics.IntentClassificationsTotal.WithLabelValues(string(tt.want), tt.source))
			if after-before != 1 {
				t.Errorf("expected classification metric for %s/%s", tt.want, tt.source)
			}
		})
	}
}

func TestClassify_Offline(t *testing.T) {
	if got := newService(nil).Classify(context.Background(), "flight itinerary planning"); got != domain.IntentItinerary {
		t.Errorf("Classify = %q, want itinerary", got)
	}
}

func TestRespond_FlightsWithinBudget(t *testing.T) {
	c := &scriptedCompleter{
		label:     "flight",
		extracted: `{"source": "Hyderabad", "destination": "Mumbai", "budget": 10000}`,
		rendered:  "  IndiGo has a great fare.  ",
	}
	r, err := newService(c).Respond(context.Background(), " flights from Hyderabad to Mumbai under 10000 ")
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if r.Intent != domain.IntentFlight || r.Text != "IndiGo has a great fare." || r.Degraded {
		t.Errorf("unexpected reply %+v", r)
	}

	data, ok := r.Data.(Result[query.RouteQuery, record.Flight])
	if !ok {
		t.Fatalf("unexpected data type %T", r.Data)
	}
	if len(data.Items) != 1 || data.Items[0].Price != 8000 {
		t.Errorf("items = %+v, want only the 8000 row", data.Items)
	}

	if len(c.renders) != 1 {
		t.Fatalf("renders = %d", len(c.renders))
	}
	p := c.renders[0]
	if !strings.Contains(p, "price: ₹8,000") || strings.Contains(p, "₹12,000") {
		t.Errorf("render prompt rows wrong:\n%s", p)
	}
	if !strings.Contains(p, "top 5 flights under budget ₹10000") {
		t.Errorf("render prompt header wrong:\n%s", p)
	}
}

func TestRespond_EmptyRetrievalSkipsRendering(t *testing.T) {
	c := &scriptedCompleter{
		label:     "bus",
		extracted: `{"source": "Pune", "destination": null, "budget": 500}`,
		rendered:  "should not be used",
	}
	r, err := newService(c).Respond(context.Background(), "bus from pune under 500")
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if want := "Sorry, I couldn’t find buses for Pune → ? within ₹500."; r.Text != want {
		t.Errorf("Text = %q, want %q", r.Text, want)
	}
	if len(c.renders) != 0 {
		t.Errorf("render called %d times", len(c.renders))
	}
}

func TestRespond_HotelFuzzyCity(t *testing.T) {
	c := &scriptedCompleter{label: "hotel", extracted: `{"city": "Hydrabad", "budget": 2500}`, rendered: "Stay at Charminar Inn."}
	r, err := newService(c).Respond(context.Background(), "hotels in hydrabad")
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	data := r.Data.(Result[query.HotelQuery, record.Hotel])
	if len(data.Items) != 1 || data.Items[0].HotelName != "Charminar Inn" {
		t.Errorf("items = %+v", data.Items)
	}
	if data.PriceColumn != dataset.PriceColumn {
		t.Errorf("price column = %q", data.PriceColumn)
	}
}

func TestRespond_Unavailable(t *testing.T) {
	tests := []struct {
		name string
		c    *scriptedCompleter
	}{
		{"extraction fails", &scriptedCompleter{label: "flight", extErr: domain.ErrCompletionUnavailable}},
		{"render fails", &scriptedCompleter{label: "flight", extracted: `{}`, renderErr: domain.ErrCompletionUnavailable}},
		{"quota", &scriptedCompleter{label: "flight", extracted: `{}`, renderErr: domain.ErrCompletionQuotaExceeded}},
		{"empty render", &scriptedCompleter{label: "flight", extracted: `{}`, rendered: "   "}},
		{"greeting fails", &scriptedCompleter{label: "greeting", renderErr: domain.ErrCompletionUnavailable}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := newService(tt.c).Respond(context.Background(), "flights from hyderabad")
			if err != nil {
				t.Fatalf("Respond: %v", err)
			}
			if r.Text != prompt.Unavailable || !r.Degraded {
				t.Errorf("unexpected reply %+v", r)
			}
		})
	}
}

func TestRespond_OtherErrorsPropagate(t *testing.T) {
	boom := errors.New("boom")
	_, err := newService(&scriptedCompleter{label: "flight", extErr: boom}).Respond(context.Background(), "flights")
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestRespond_UnknownIntent(t *testing.T) {
	c := &scriptedCompleter{label: "unknown"}
	r, err := newService(c).Respond(context.Background(), "what is the weather")
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if r.Text != prompt.NotSure || r.Data != nil {
		t.Errorf("unexpected reply %+v", r)
	}
}

func TestRespond_Greeting(t *testing.T) {
	c := &scriptedCompleter{label: "greeting", rendered: "Namaste!"}
	r, err := newService(c).Respond(context.Background(), "hello, worst day ever")
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if r.Text != "Namaste!" || r.Sentiment != domain.SentimentNegative {
		t.Errorf("unexpected reply %+v", r)
	}
	if !strings.Contains(c.renders[0], "(negative:") {
		t.Errorf("greeting prompt lacks sentiment:\n%s", c.renders[0])
	}
}

func TestRespond_Itinerary(t *testing.T) {
	c := &scriptedCompleter{
		label:     "itinerary",
		extracted: `{"source": "delhi", "destination": "jaipur", "budget": null, "num_days": 3}`,
		rendered:  "Day 1: Amber Fort",
	}
	r, err := newService(c).Respond(context.Background(), "plan a 3-day trip from delhi to jaipur")
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}

	b, ok := r.Data.(itinerary.Bundle)
	if !ok {
		t.Fatalf("unexpected data type %T", r.Data)
	}
	if b.Total != query.DefaultItineraryBudget || len(b.Attractions) != 2 {
		t.Errorf("unexpected bundle %+v", b)
	}

	p := c.renders[0]
	for _, want := range []string{
		"3-day itinerary for Jaipur",
		"Plan day 1, day 2, day 3",
		"bus_type: Volvo",
		"Outbound travel options (flight):\n" + prompt.NoFlightsFound,
		"Return journey buses:\n - source: Jaipur",
		prompt.NoReturnFlightsFound,
	} {
		if !strings.Contains(p, want) {
			t.Errorf("itinerary prompt missing %q:\n%s", want, p)
		}
	}
}

func TestRespond_Offline(t *testing.T) {
	r, err := newService(nil).Respond(context.Background(), "hotels in jaipur under 5000")
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if r.Intent != domain.IntentHotel || !strings.HasPrefix(r.Text, prompt.Offline) || !strings.Contains(r.Text, "hotel_name: Pearl") {
		t.Errorf("unexpected reply %+v", r)
	}
}

func TestRespond_EmptyMessage(t *testing.T) {
	if _, err := newService(nil).Respond(context.Background(), "   "); !errors.Is(err, domain.ErrInvalidQuery) {
		t.Fatalf("expected ErrInvalidQuery, got %v", err)
	}
}

func TestExtract(t *testing.T) {
	svc := newService(&scriptedCompleter{extracted: `{"city": "goa"}`})

	got, err := svc.Extract(context.Background(), domain.IntentHotel, "hotels in goa")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	q, ok := got.(query.HotelQuery)
	if !ok || q.City != "Goa" || *q.Budget != query.DefaultHotelBudget {
		t.Errorf("unexpected query %#v", got)
	}

	if _, err := svc.Extract(context.Background(), domain.IntentGreeting, "hi"); !errors.Is(err, domain.ErrUnknownIntent) {
		t.Errorf("expected ErrUnknownIntent, got %v", err)
	}
}

func TestRenderItinerary(t *testing.T) {
	b := itinerary.Bundle{
		Query: query.ItineraryQuery{NumDays: 2, Source: "Delhi", Destination: "Agra"},
		Total: 50000,
	}

	c := &scriptedCompleter{rendered: "Day 1: Taj Mahal"}
	text, degraded, err := newService(c).RenderItinerary(context.Background(), b, "plan agra")
	if err != nil || degraded || text != "Day 1: Taj Mahal" {
		t.Fatalf("RenderItinerary = %q, %v, %v", text, degraded, err)
	}
	if !strings.Contains(c.renders[0], prompt.NoBusesFound) || !strings.Contains(c.renders[0], "User: plan agra") {
		t.Errorf("unexpected prompt:\n%s", c.renders[0])
	}

	text, degraded, err = newService(&scriptedCompleter{renderErr: domain.ErrCompletionUnavailable}).
		RenderItinerary(context.Background(), b, "plan agra")
	if err != nil || !degraded || text != prompt.Unavailable {
		t.Errorf("expected apology, got %q, %v, %v", text, degraded, err)
	}

	text, _, _ = newService(nil).RenderItinerary(context.Background(), b, "plan agra")
	if !strings.HasPrefix(text, prompt.Offline) || !strings.Contains(text, prompt.NoReturnFlightsFound) {
		t.Errorf("unexpected offline plan %q", text)
	}
}
