package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/travelq/internal/cityname"
	"github.com/kailas-cloud/travelq/internal/dataset"
	"github.com/kailas-cloud/travelq/internal/domain"
	"github.com/kailas-cloud/travelq/internal/domain/record"
	"github.com/kailas-cloud/travelq/internal/metrics"
	assistantuc "github.com/kailas-cloud/travelq/internal/usecase/assistant"
	"github.com/kailas-cloud/travelq/internal/usecase/extract"
	healthuc "github.com/kailas-cloud/travelq/internal/usecase/health"
	itineraryuc "github.com/kailas-cloud/travelq/internal/usecase/itinerary"
	retrievaluc "github.com/kailas-cloud/travelq/internal/usecase/retrieval"
	usageuc "github.com/kailas-cloud/travelq/internal/usecase/usage"
)

func TestMain(m *testing.M) {
	metrics.RegisterPipelineMetrics()
	os.Exit(m.Run())
}

// --- Mocks ---

// stubCompleter classifies with a fixed label, extracts with a fixed JSON reply and renders a fixed text.
type stubCompleter struct {
	label     string
	extracted string
	rendered  string
	err       error
}

func (m *stubCompleter) Complete(ctx context.Context, req domain.CompletionRequest) (domain.CompletionResult, error) {
	if m.err != nil {
		return domain.CompletionResult{}, m.err
	}
	text := m.rendered
	switch {
	case strings.HasPrefix(req.Prompt, "You are an intent classifier"):
		text = m.label
	case strings.HasPrefix(req.Prompt, "Extract parameters"):
		text = m.extracted
	}
	domain.UsageFromContext(ctx).AddTokens(42)
	return domain.CompletionResult{Text: text, TotalTokens: 42}, nil
}

type stubBudget struct{}

func (stubBudget) Provider() string        { return "openai" }
func (stubBudget) DailyLimit() int64       { return 1000 }
func (stubBudget) MonthlyLimit() int64     { return 20000 }
func (stubBudget) DailyUsed() int64        { return 400 }
func (stubBudget) MonthlyUsed() int64      { return 5000 }
func (stubBudget) RemainingDaily() int64   { return 600 }
func (stubBudget) RemainingMonthly() int64 { return 15000 }

func f64(v float64) *float64 { return &v }

func testStore() *dataset.Store {
	return dataset.NewStore(dataset.Tables{
		BusHasRating: true,
		Buses: []record.Bus{
			{Source: "Delhi", Destination: "Jaipur", BusType: "Volvo", TravelDuration: "5h", Price: 900, Rating: f64(4.2)},
			{Source: "Delhi", Destination: "Jaipur", BusType: "Seater", TravelDuration: "6h", Price: 600, Rating: f64(3.9)},
			{Source: "Jaipur", Destination: "Delhi", BusType: "Sleeper", TravelDuration: "5h", Price: 800, Rating: f64(4.0)},
		},
		Flights: []record.Flight{
			{From: "Hyderabad", To: "Mumbai", Airline: "IndiGo", Class: "economy", TimeTaken: "1h 25m", Price: 8000},
			{From: "Hyderabad", To: "Mumbai", Airline: "Vistara", Class: "business", TimeTaken: "1h 30m", Price: 12000},
		},
		Hotels: []record.Hotel{
			{City: "Jaipur", HotelName: "Pearl", PricePerNight: 3000},
			{City: "Jaipur", HotelName: "Rambagh", PricePerNight: 9000},
		},
		Attractions: []record.Attraction{
			{City: "Jaipur", Category: "Fort", Name: "Amber Fort"},
			{City: "Jaipur", Category: "Palace", Name: "Hawa Mahal"},
		},
	})
}

func newTestRouter(c domain.Completer, store *dataset.Store, cfg RouterConfig) http.Handler {
	rnd := retrievaluc.NewSeededRand(7)
	engine := retrievaluc.New(store, cityname.NewMatcher(cityname.DefaultThreshold), rnd)
	composer := itineraryuc.New(engine, rnd, 0, 0)
	assistant := assistantuc.New(c, extract.New(c, ""), engine, composer, assistantuc.Options{Fuzzy: true})
	srv := NewServer(
		assistant, engine, composer,
		usageuc.New(stubBudget{}),
		healthuc.New(store, nil, nil),
		Options{Fuzzy: true},
		zap.NewNop(),
	)
	return NewRouter(srv, cfg, zap.NewNop())
}

func do(t *testing.T, h http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rr.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rr.Body.String())
	}
	return v
}

// --- Tests ---

func TestChat_RoutesAndCountsTokens(t *testing.T) {
	c := &stubCompleter{
		label:     "bus",
		extracted: `{"source": "delhi", "destination": "jaipur", "budget": 1000}`,
		rendered:  "Two buses are available.",
	}
	h := newTestRouter(c, testStore(), RouterConfig{})

	rr := do(t, h, http.MethodPost, "/v1/chat", MessageRequest{Message: "buses from delhi to jaipur under 1000"})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	if rr.Header().Get(headerCompletionCalls) != "3" || rr.Header().Get(headerCompletionTokens) != "126" {
		t.Errorf("usage headers = %q/%q", rr.Header().Get(headerCompletionCalls), rr.Header().Get(headerCompletionTokens))
	}

	reply := decode[map[string]any](t, rr)
	if reply["intent"] != string(domain.IntentBus) || reply["reply"] != "Two buses are available." {
		t.Errorf("unexpected reply %v", reply)
	}
	if reply["turn_id"] == "" {
		t.Error("turn_id must be set")
	}
}

func TestChat_UnavailableDegrades(t *testing.T) {
	h := newTestRouter(&stubCompleter{err: domain.ErrCompletionUnavailable}, testStore(), RouterConfig{})

	rr := do(t, h, http.MethodPost, "/v1/chat", MessageRequest{Message: "hotels in jaipur"})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	if reply := decode[map[string]any](t, rr); reply["degraded"] != true {
		t.Errorf("expected degraded reply, got %v", reply)
	}
}

func TestChat_Validation(t *testing.T) {
	h := newTestRouter(nil, testStore(), RouterConfig{})

	tests := []struct {
		name string
		body string
		code ErrorCode
	}{
		{"malformed", `{"message":`, ErrorCodeBadRequest},
		{"empty", `{"message": "   "}`, ErrorCodeValidationFailed},
		{"too long", `{"message": "` + strings.Repeat("a", maxMessageLen+1) + `"}`, ErrorCodeValidationFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/chat", strings.NewReader(tt.body))
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rr.Code)
			}
			if e := decode[ErrorResponse](t, rr); e.Code != tt.code {
				t.Errorf("code = %s, want %s", e.Code, tt.code)
			}
		})
	}
}

func TestChat_Offline(t *testing.T) {
	h := newTestRouter(nil, testStore(), RouterConfig{})

	rr := do(t, h, http.MethodPost, "/v1/chat", MessageRequest{Message: "flights from hyderabad to mumbai under 9000"})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	if rr.Header().Get(headerCompletionCalls) != "" {
		t.Error("offline replies must not report completion usage")
	}
	reply := decode[map[string]any](t, rr)
	if reply["intent"] != string(domain.IntentFlight) || !strings.Contains(reply["reply"].(string), "IndiGo") {
		t.Errorf("unexpected reply %v", reply)
	}
}

func TestExtract(t *testing.T) {
	h := newTestRouter(nil, testStore(), RouterConfig{})

	rr := do(t, h, http.MethodPost, "/v1/extract/hotel", MessageRequest{Message: "hotels in jaipur under 4000"})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	q := decode[map[string]any](t, rr)
	if q["city"] != "Jaipur" || q["budget"] != float64(4000) {
		t.Errorf("unexpected query %v", q)
	}

	rr = do(t, h, http.MethodPost, "/v1/extract/weather", MessageRequest{Message: "rain?"})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("unknown intent status = %d", rr.Code)
	}
	if e := decode[ErrorResponse](t, rr); e.Code != ErrorCodeUnknownIntent {
		t.Errorf("code = %s", e.Code)
	}
}

func TestSearchBuses(t *testing.T) {
	h := newTestRouter(nil, testStore(), RouterConfig{})

	rr := do(t, h, http.MethodGet, "/v1/buses?source=delhi&destination=jaipur&budget=700", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	resp := decode[ListResponse[record.Bus]](t, rr)
	if resp.Count != 1 || resp.Items[0].Price != 600 {
		t.Errorf("unexpected buses %+v", resp)
	}
}

func TestSearchFlights_TopK(t *testing.T) {
	h := newTestRouter(nil, testStore(), RouterConfig{})

	rr := do(t, h, http.MethodGet, "/v1/flights?source=Hyderabad&top_k=1", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	if resp := decode[ListResponse[record.Flight]](t, rr); resp.Count != 1 || resp.Items[0].Price != 8000 {
		t.Errorf("unexpected flights %+v", resp)
	}
}

func TestSearchHotels(t *testing.T) {
	h := newTestRouter(nil, testStore(), RouterConfig{})

	rr := do(t, h, http.MethodGet, "/v1/hotels?city=Jaipurr&budget=5000&fuzzy=true", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	resp := decode[HotelListResponse](t, rr)
	if resp.Count != 1 || resp.Items[0].HotelName != "Pearl" || resp.PriceColumn == "" {
		t.Errorf("unexpected hotels %+v", resp)
	}

	rr = do(t, h, http.MethodGet, "/v1/hotels?city=Jaipurr&fuzzy=false", nil)
	if resp := decode[HotelListResponse](t, rr); resp.Count != 0 || resp.Items == nil {
		t.Errorf("exact match must find nothing and encode an empty list, got %+v", resp)
	}
}

func TestSearchAttractions(t *testing.T) {
	h := newTestRouter(nil, testStore(), RouterConfig{})

	rr := do(t, h, http.MethodGet, "/v1/attractions?city=jaipur", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	if resp := decode[ListResponse[record.Attraction]](t, rr); resp.Count != 2 {
		t.Errorf("unexpected attractions %+v", resp)
	}
}

func TestSearch_BadParams(t *testing.T) {
	h := newTestRouter(nil, testStore(), RouterConfig{})

	for _, target := range []string{
		"/v1/buses?budget=abc",
		"/v1/buses?budget=-1",
		"/v1/flights?top_k=0",
		"/v1/hotels?top_k=500",
		"/v1/attractions?fuzzy=maybe",
	} {
		rr := do(t, h, http.MethodGet, target, nil)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", target, rr.Code)
		}
	}
}

func TestItinerary(t *testing.T) {
	c := &stubCompleter{rendered: "Day 1: Amber Fort"}
	h := newTestRouter(c, testStore(), RouterConfig{})

	rr := do(t, h, http.MethodPost, "/v1/itinerary", ItineraryRequest{
		Source: "Delhi", Destination: "Jaipur", NumDays: 2, Render: true,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	resp := decode[ItineraryResponse](t, rr)
	if resp.Total != 50000 || resp.TransitBudget != 20000 || resp.HotelBudget != 20000 {
		t.Errorf("unexpected budget split %+v", resp.Bundle)
	}
	if len(resp.Attractions) != 2 || len(resp.ReturnBuses) != 1 {
		t.Errorf("unexpected bundle %+v", resp.Bundle)
	}
	if resp.Plan != "Day 1: Amber Fort" || resp.Degraded {
		t.Errorf("plan = %q degraded = %v", resp.Plan, resp.Degraded)
	}
	if rr.Header().Get(headerCompletionCalls) != "1" {
		t.Errorf("calls header = %q", rr.Header().Get(headerCompletionCalls))
	}
}

func TestItinerary_Validation(t *testing.T) {
	h := newTestRouter(nil, testStore(), RouterConfig{})

	neg := -5
	for _, req := range []ItineraryRequest{
		{Destination: "Jaipur", Budget: &neg},
		{Destination: "Jaipur", NumDays: maxNumDays + 1},
	} {
		rr := do(t, h, http.MethodPost, "/v1/itinerary", req)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("%+v: status = %d, want 400", req, rr.Code)
		}
	}
}

func TestGetUsage(t *testing.T) {
	h := newTestRouter(nil, testStore(), RouterConfig{})

	rr := do(t, h, http.MethodGet, "/v1/usage?period=day", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	resp := decode[UsageResponse](t, rr)
	if resp.Period != "day" || resp.Provider != "openai" || resp.Budget.TokensRemaining != 600 {
		t.Errorf("unexpected usage %+v", resp)
	}
	if resp.PeriodStartAt == nil || resp.Budget.ResetsAt == nil {
		t.Errorf("day report must carry period bounds: %+v", resp)
	}

	rr = do(t, h, http.MethodGet, "/v1/usage", nil)
	if resp := decode[UsageResponse](t, rr); resp.Period != "month" {
		t.Errorf("default period = %q, want month", resp.Period)
	}

	rr = do(t, h, http.MethodGet, "/v1/usage?period=year", nil)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("invalid period status = %d", rr.Code)
	}
}

func TestHealthCheck(t *testing.T) {
	rr := do(t, newTestRouter(nil, testStore(), RouterConfig{}), http.MethodGet, "/health", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	resp := decode[HealthResponse](t, rr)
	if resp.Status != "ok" || resp.Datasets["bus"] != 3 {
		t.Errorf("unexpected health %+v", resp)
	}

	empty := dataset.NewStore(dataset.Tables{})
	rr = do(t, newTestRouter(nil, empty, RouterConfig{}), http.MethodGet, "/health", nil)
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("empty datasets status = %d, want 503", rr.Code)
	}
}

func TestDatasets(t *testing.T) {
	h := newTestRouter(nil, testStore(), RouterConfig{})

	rr := do(t, h, http.MethodGet, "/v1/datasets", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	list := decode[ListResponse[DatasetResponse]](t, rr)
	if list.Count != 4 || list.Items[0].Name != "bus" || list.Items[0].Rows != 3 || !list.Items[0].HasRating {
		t.Errorf("unexpected datasets %+v", list)
	}

	rr = do(t, h, http.MethodGet, "/v1/datasets/hotel", nil)
	if got := decode[DatasetResponse](t, rr); rr.Code != http.StatusOK || got.Rows != 2 || got.PriceColumn != "price_per_night" {
		t.Errorf("hotel dataset = %d %+v", rr.Code, got)
	}

	rr = do(t, h, http.MethodGet, "/v1/datasets/train", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("unknown dataset status = %d, want 404", rr.Code)
	}
	if e := decode[ErrorResponse](t, rr); e.Code != ErrorCodeUnknownDataset {
		t.Errorf("error code = %q", e.Code)
	}
}

func TestRateLimit(t *testing.T) {
	h := newTestRouter(nil, testStore(), RouterConfig{RateLimit: 0.001, Burst: 1})

	first := do(t, h, http.MethodPost, "/v1/chat", MessageRequest{Message: "hello"})
	if first.Code != http.StatusOK {
		t.Fatalf("first status = %d", first.Code)
	}
	second := do(t, h, http.MethodPost, "/v1/chat", MessageRequest{Message: "hello"})
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("second status = %d, want 429", second.Code)
	}
	if second.Header().Get("Retry-After") == "" {
		t.Error("Retry-After header missing")
	}

	// dataset routes are not limited
	for range 3 {
		if rr := do(t, h, http.MethodGet, "/v1/attractions?city=jaipur", nil); rr.Code != http.StatusOK {
			t.Fatalf("search status = %d", rr.Code)
		}
	}
}

func TestRouter_AuthAndNotFound(t *testing.T) {
	h := newTestRouter(nil, testStore(), RouterConfig{APIKeys: []string{"secret"}})

	if rr := do(t, h, http.MethodGet, "/v1/buses", nil); rr.Code != http.StatusUnauthorized {
		t.Errorf("no token status = %d, want 401", rr.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/buses", http.NoBody)
	req.Header.Set("Authorization", "Bearer secret")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("valid token status = %d", rr.Code)
	}

	if rr := do(t, h, http.MethodGet, "/health", nil); rr.Code != http.StatusOK {
		t.Errorf("health must skip auth, got %d", rr.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/v2/nothing", http.NoBody)
	req.Header.Set("Authorization", "Bearer secret")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Errorf("unknown route status = %d", rr.Code)
	}
}
