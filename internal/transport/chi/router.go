package chi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/travelq/internal/metrics"
)

// RouterConfig holds the cross-cutting HTTP settings.
type RouterConfig struct {
	APIKeys   []string
	RateLimit float64 // requests per second on model-backed routes, 0 = unlimited
	Burst     int
}

// NewRouter mounts the server's routes behind recovery, request ID, logging, auth and metrics middleware.
func NewRouter(s *Server, cfg RouterConfig, logger *zap.Logger) http.Handler {
	metrics.RegisterHTTPMetrics()

	r := chi.NewRouter()
	r.Use(JSONRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(WideEventMiddleware(logger))
	r.Use(APIKeyMiddleware(cfg.APIKeys))
	r.Use(metrics.Middleware())

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, ErrorCodeBadRequest, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, ErrorCodeBadRequest, "method not allowed")
	})

	r.Get("/health", s.HealthCheck)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(RateLimitMiddleware(cfg.RateLimit, cfg.Burst))
			r.Post("/chat", s.Chat)
			r.Post("/extract/{intent}", s.Extract)
			r.Post("/itinerary", s.Itinerary)
		})

		r.Get("/buses", s.SearchBuses)
		r.Get("/flights", s.SearchFlights)
		r.Get("/hotels", s.SearchHotels)
		r.Get("/attractions", s.SearchAttractions)
		r.Get("/usage", s.GetUsage)
		r.Get("/datasets", s.ListDatasets)
		r.Get("/datasets/{name}", s.GetDataset)
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}
