package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"go.uber.org/zap"

	"github.com/kailas-cloud/travelq/internal/dataset"
	"github.com/kailas-cloud/travelq/internal/domain"
	"github.com/kailas-cloud/travelq/internal/domain/query"
	"github.com/kailas-cloud/travelq/internal/domain/record"
	domusage "github.com/kailas-cloud/travelq/internal/domain/usage"
	"github.com/kailas-cloud/travelq/internal/logger"
	assistantuc "github.com/kailas-cloud/travelq/internal/usecase/assistant"
	healthuc "github.com/kailas-cloud/travelq/internal/usecase/health"
	itineraryuc "github.com/kailas-cloud/travelq/internal/usecase/itinerary"
	retrievaluc "github.com/kailas-cloud/travelq/internal/usecase/retrieval"
	usageuc "github.com/kailas-cloud/travelq/internal/usecase/usage"
)

// Request limits.
const (
	maxTopK        = 50
	maxNumDays     = 30
	maxMessageLen  = 2000
	maxRequestBody = 1 << 16
)

// Completion usage response headers.
const (
	headerCompletionCalls  = "X-Completion-Calls"
	headerCompletionTokens = "X-Completion-Tokens"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Options holds request defaults.
type Options struct {
	TopK  int
	Fuzzy bool
}

// Server serves the travelq HTTP API.
type Server struct {
	assistant     *assistantuc.Service
	retrieval     *retrievaluc.Service
	itinerary     *itineraryuc.Composer
	usage         *usageuc.Service
	health        *healthuc.Service
	opts          Options
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	assistant *assistantuc.Service,
	retrieval *retrievaluc.Service,
	itinerary *itineraryuc.Composer,
	usage *usageuc.Service,
	health *healthuc.Service,
	opts Options,
	logger *zap.Logger,
) *Server {
	if opts.TopK <= 0 {
		opts.TopK = retrievaluc.DefaultTopK
	}
	s := &Server{
		assistant: assistant,
		retrieval: retrieval,
		itinerary: itinerary,
		usage:     usage,
		health:    health,
		opts:      opts,
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest, ErrorCodeValidationFailed),
		sentinelHandler(domain.ErrUnknownIntent, http.StatusBadRequest, ErrorCodeUnknownIntent),
		sentinelHandler(domain.ErrUnknownDataset, http.StatusNotFound, ErrorCodeUnknownDataset),
		sentinelHandler(domain.ErrCompletionQuotaExceeded, http.StatusPaymentRequired, ErrorCodeQuotaExceeded),
		sentinelHandler(domain.ErrCompletionUnavailable, http.StatusServiceUnavailable, ErrorCodeCompletionUnavailable),
	}
	return s
}

// Chat handles POST /v1/chat.
func (s *Server) Chat(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeMessage(w, r)
	if !ok {
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	reply, err := s.assistant.Respond(ctx, req.Message)
	setCompletionHeaders(w, usage)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, reply)
}

// Extract handles POST /v1/extract/{intent}.
func (s *Server) Extract(w http.ResponseWriter, r *http.Request) {
	intent, err := domain.ParseIntent(chi.URLParam(r, "intent"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	req, ok := s.decodeMessage(w, r)
	if !ok {
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	q, err := s.assistant.Extract(ctx, intent, req.Message)
	setCompletionHeaders(w, usage)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, q)
}

// Itinerary handles POST /v1/itinerary.
func (s *Server) Itinerary(w http.ResponseWriter, r *http.Request) {
	var req ItineraryRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Budget != nil && *req.Budget < 0 {
		s.handleDomainError(w, r, fmt.Errorf("%w: budget must not be negative", domain.ErrInvalidQuery))
		return
	}
	if req.NumDays < 0 || req.NumDays > maxNumDays {
		s.handleDomainError(w, r, fmt.Errorf("%w: num_days must be between 1 and %d", domain.ErrInvalidQuery, maxNumDays))
		return
	}

	q := query.ItineraryQuery{
		NumDays:     req.NumDays,
		Source:      req.Source,
		Destination: req.Destination,
		Budget:      req.Budget,
	}
	fuzzy := s.opts.Fuzzy
	if req.Fuzzy != nil {
		fuzzy = *req.Fuzzy
	}

	resp := ItineraryResponse{Bundle: s.itinerary.Compose(r.Context(), q, fuzzy)}

	if req.Render {
		ctx, usage := domain.NewContextWithUsage(r.Context())
		question := req.Question
		if question == "" {
			question = fmt.Sprintf("Plan a %d-day trip from %s to %s", resp.Query.NumDays, req.Source, req.Destination)
		}
		plan, degraded, err := s.assistant.RenderItinerary(ctx, resp.Bundle, question)
		setCompletionHeaders(w, usage)
		if err != nil {
			s.handleDomainError(w, r, err)
			return
		}
		resp.Plan, resp.Degraded = plan, degraded
	}

	writeJSON(w, http.StatusOK, resp)
}

// SearchBuses handles GET /v1/buses.
func (s *Server) SearchBuses(w http.ResponseWriter, r *http.Request) {
	p, ok := s.bindSearch(w, r)
	if !ok {
		return
	}
	items := s.retrieval.RetrieveBuses(r.Context(), p.query, p.fuzzy, p.topK)
	writeJSON(w, http.StatusOK, ListResponse[record.Bus]{Items: items, Count: len(items)})
}

// SearchFlights handles GET /v1/flights.
func (s *Server) SearchFlights(w http.ResponseWriter, r *http.Request) {
	p, ok := s.bindSearch(w, r)
	if !ok {
		return
	}
	items := s.retrieval.RetrieveFlights(r.Context(), p.query, p.fuzzy, p.topK)
	writeJSON(w, http.StatusOK, ListResponse[record.Flight]{Items: items, Count: len(items)})
}

// SearchHotels handles GET /v1/hotels.
func (s *Server) SearchHotels(w http.ResponseWriter, r *http.Request) {
	p, ok := s.bindSearch(w, r)
	if !ok {
		return
	}
	items, priceCol := s.retrieval.RetrieveHotels(r.Context(), p.query, p.fuzzy, p.topK)
	writeJSON(w, http.StatusOK, HotelListResponse{
		ListResponse: ListResponse[record.Hotel]{Items: items, Count: len(items)},
		PriceColumn:  priceCol,
	})
}

// SearchAttractions handles GET /v1/attractions.
func (s *Server) SearchAttractions(w http.ResponseWriter, r *http.Request) {
	p, ok := s.bindSearch(w, r)
	if !ok {
		return
	}
	items := s.retrieval.RetrieveAttractions(r.Context(), p.query, p.fuzzy, p.topK)
	writeJSON(w, http.StatusOK, ListResponse[record.Attraction]{Items: items, Count: len(items)})
}

// GetUsage handles GET /v1/usage.
func (s *Server) GetUsage(w http.ResponseWriter, r *http.Request) {
	var raw *string
	if err := runtime.BindQueryParameter("form", true, false, "period", r.URL.Query(), &raw); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "invalid period")
		return
	}
	period := domusage.PeriodMonth
	if raw != nil {
		p, ok := domusage.ParsePeriod(*raw)
		if !ok {
			writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, "period must be day, month or total")
			return
		}
		period = p
	}

	report := s.usage.GetReport(r.Context(), period)
	b := report.Budget()
	resp := UsageResponse{
		Period:   string(report.Period()),
		Provider: report.Provider(),
		Budget: BudgetStatus{
			TokensLimit:     b.Limit(),
			TokensUsed:      b.Used(),
			TokensRemaining: b.Remaining(),
			IsExhausted:     b.IsExhausted(),
		},
	}

	if report.PeriodStart() > 0 {
		start := time.UnixMilli(report.PeriodStart()).UTC()
		end := time.UnixMilli(report.PeriodEnd()).UTC()
		resp.PeriodStartAt = &start
		resp.PeriodEndAt = &end
	}
	if b.ResetsAt() > 0 {
		resetsAt := time.UnixMilli(b.ResetsAt()).UTC()
		resp.Budget.ResetsAt = &resetsAt
	}

	writeJSON(w, http.StatusOK, resp)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status:   string(report.Status),
		Checks:   checks,
		Datasets: report.Datasets,
	})
}

// ListDatasets handles GET /v1/datasets.
func (s *Server) ListDatasets(w http.ResponseWriter, _ *http.Request) {
	summaries := s.health.Datasets()
	items := make([]DatasetResponse, 0, len(summaries))
	for _, sum := range summaries {
		items = append(items, toDatasetResponse(sum))
	}
	writeJSON(w, http.StatusOK, ListResponse[DatasetResponse]{Items: items, Count: len(items)})
}

// GetDataset handles GET /v1/datasets/{name}.
func (s *Server) GetDataset(w http.ResponseWriter, r *http.Request) {
	sum, err := s.health.Dataset(chi.URLParam(r, "name"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDatasetResponse(sum))
}

func toDatasetResponse(sum dataset.Summary) DatasetResponse {
	return DatasetResponse{
		Name:        string(sum.Name),
		Rows:        sum.Rows,
		HasRating:   sum.HasRating,
		PriceColumn: sum.PriceColumn,
	}
}

type searchParams struct {
	query query.Query
	fuzzy bool
	topK  int
}

// bindSearch reads source, destination, city, budget, fuzzy and top_k from the query string.
func (s *Server) bindSearch(w http.ResponseWriter, r *http.Request) (searchParams, bool) {
	values := r.URL.Query()
	var (
		source, destination, city *string
		budget, topK              *int
		fuzzy                     *bool
	)
	bindings := []struct {
		name string
		dest any
	}{
		{"source", &source},
		{"destination", &destination},
		{"city", &city},
		{"budget", &budget},
		{"fuzzy", &fuzzy},
		{"top_k", &topK},
	}
	for _, b := range bindings {
		if err := bindQuery(values, b.name, b.dest); err != nil {
			writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, err.Error())
			return searchParams{}, false
		}
	}

	p := searchParams{
		query: query.Query{
			Source:      deref(source),
			Destination: deref(destination),
			City:        deref(city),
			Budget:      budget,
		},
		fuzzy: s.opts.Fuzzy,
		topK:  s.opts.TopK,
	}
	if fuzzy != nil {
		p.fuzzy = *fuzzy
	}
	if budget != nil && *budget < 0 {
		s.handleDomainError(w, r, fmt.Errorf("%w: budget must not be negative", domain.ErrInvalidQuery))
		return searchParams{}, false
	}
	if topK != nil {
		if *topK < 1 || *topK > maxTopK {
			s.handleDomainError(w, r, fmt.Errorf("%w: top_k must be between 1 and %d", domain.ErrInvalidQuery, maxTopK))
			return searchParams{}, false
		}
		p.topK = *topK
	}
	return p, true
}

func bindQuery(values url.Values, name string, dest any) error {
	if err := runtime.BindQueryParameter("form", true, false, name, values, dest); err != nil {
		return fmt.Errorf("invalid %s parameter", name)
	}
	return nil
}

func (s *Server) decodeMessage(w http.ResponseWriter, r *http.Request) (MessageRequest, bool) {
	var req MessageRequest
	if !decodeBody(w, r, &req) {
		return req, false
	}
	if len(req.Message) > maxMessageLen {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed,
			"message must be at most "+strconv.Itoa(maxMessageLen)+" bytes")
		return req, false
	}
	return req, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func setCompletionHeaders(w http.ResponseWriter, usage *domain.CompletionUsage) {
	if usage != nil && usage.Calls > 0 {
		w.Header().Set(headerCompletionCalls, strconv.Itoa(usage.Calls))
		w.Header().Set(headerCompletionTokens, strconv.Itoa(usage.TotalTokens))
	}
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidQuery,
		domain.ErrUnknownIntent,
		domain.ErrUnknownDataset,
		domain.ErrCompletionQuotaExceeded,
		domain.ErrCompletionUnavailable,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			if errors.Is(err, domain.ErrInvalidQuery) || errors.Is(err, domain.ErrUnknownIntent) {
				return err.Error()
			}
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
