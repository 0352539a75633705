package travelq

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/travelq/internal/cityname"
	"github.com/kailas-cloud/travelq/internal/dataset"
	"github.com/kailas-cloud/travelq/internal/db"
	"github.com/kailas-cloud/travelq/internal/db/memory"
	dbRedis "github.com/kailas-cloud/travelq/internal/db/redis"
	"github.com/kailas-cloud/travelq/internal/domain"
	"github.com/kailas-cloud/travelq/internal/domain/query"
	budgetrepo "github.com/kailas-cloud/travelq/internal/repository/budget"
	"github.com/kailas-cloud/travelq/internal/repository/completioncache"
	assistantuc "github.com/kailas-cloud/travelq/internal/usecase/assistant"
	completionuc "github.com/kailas-cloud/travelq/internal/usecase/completion"
	"github.com/kailas-cloud/travelq/internal/usecase/extract"
	healthuc "github.com/kailas-cloud/travelq/internal/usecase/health"
	itineraryuc "github.com/kailas-cloud/travelq/internal/usecase/itinerary"
	retrievaluc "github.com/kailas-cloud/travelq/internal/usecase/retrieval"
	usageuc "github.com/kailas-cloud/travelq/internal/usecase/usage"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultFuzzyThreshold   = 85
	sdkProvider             = "sdk"

	budgetDailyTTL   = 48 * time.Hour
	budgetMonthlyTTL = 62 * 24 * time.Hour
)

// Internal interfaces for substitution in tests.
type assistantUseCase interface {
	Respond(ctx context.Context, message string) (assistantuc.Reply, error)
	Classify(ctx context.Context, msg string) domain.Intent
	Extract(ctx context.Context, intent domain.Intent, msg string) (any, error)
	RenderItinerary(ctx context.Context, b itineraryuc.Bundle, question string) (string, bool, error)
}

type composerUseCase interface {
	Compose(ctx context.Context, q query.ItineraryQuery, fuzzy bool) itineraryuc.Bundle
}

// Client is the travelq SDK entry point. It is safe for concurrent use.
type Client struct {
	store        db.Store // nil without a cache
	assistantSvc assistantUseCase
	retriever    assistantuc.Retriever
	composer     composerUseCase
	healthSvc    healthUseCase
	usageSvc     usageUseCase
	obs          *observer
	fuzzy        bool
	topK         int
}

// New loads the datasets, connects the optional cache and wires the services.
// The provided context is used for the cache readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		fuzzy:          true,
		fuzzyThreshold: defaultFuzzyThreshold,
		topK:           retrievaluc.DefaultTopK,
		attractionPool: itineraryuc.DefaultAttractionPool,
	}
	for _, o := range opts {
		o.apply(cfg)
	}
	if cfg.fuzzyThreshold <= 0 {
		cfg.fuzzyThreshold = defaultFuzzyThreshold
	}

	ds, err := loadDatasets(cfg)
	if err != nil {
		return nil, err
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	store, err := createStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return wireClient(ctx, ds, store, cfg, obs), nil
}

func loadDatasets(cfg *clientConfig) (*dataset.Store, error) {
	if cfg.tables != nil {
		return dataset.NewStore(*cfg.tables), nil
	}
	if cfg.datasetDir == "" && cfg.files == nil {
		return nil, errors.New("travelq: datasets required (use WithDatasets or WithTables)")
	}

	files := dataset.Files{
		Dir:        cfg.datasetDir,
		Bus:        "cleaned_bus.csv",
		Flight:     "flights.csv",
		Hotel:      "hotels.csv",
		Attraction: "attractions.csv",
	}
	if f := cfg.files; f != nil {
		files.Bus, files.Flight, files.Hotel, files.Attraction = f.bus, f.flight, f.hotel, f.attraction
	}
	ds, err := dataset.Load(files)
	if err != nil {
		return nil, fmt.Errorf("travelq: %w", err)
	}
	return ds, nil
}

func createStore(ctx context.Context, cfg *clientConfig) (db.Store, error) {
	var store db.Store
	switch cfg.cache {
	case "":
		return nil, nil
	case "memory":
		store = memory.NewStore(10 * time.Minute)
	case "redis":
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.addrs,
			Password: cfg.password,
		})
		if err != nil {
			return nil, fmt.Errorf("travelq: create redis store: %w", err)
		}
		store = s
	default:
		return nil, fmt.Errorf("travelq: unknown cache %q", cfg.cache)
	}

	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("travelq: cache not ready: %w", err)
	}
	return store, nil
}

func wireClient(ctx context.Context, ds *dataset.Store, store db.Store, cfg *clientConfig, obs *observer) *Client {
	// Internal services log through zap; the SDK reports through its observer.
	nop := zap.NewNop()

	var (
		completer domain.Completer
		budget    *completionuc.BudgetTracker
	)
	if cfg.completer != nil {
		completer = &completerAdapter{inner: cfg.completer}
		if store != nil {
			completer = completioncache.New(completer, store, cfg.cacheTTL, nil, nop)
		}

		var checker completionuc.BudgetChecker
		if cfg.dailyLimit > 0 || cfg.monthlyLimit > 0 {
			action := completionuc.BudgetActionWarn
			if cfg.rejectOver {
				action = completionuc.BudgetActionReject
			}
			budget = completionuc.NewBudgetTracker(sdkProvider, cfg.dailyLimit, cfg.monthlyLimit, action, nop)
			if store != nil {
				budget.WithStore(ctx, budgetrepo.New(store, budgetDailyTTL, budgetMonthlyTTL))
			}
			checker = budget
		}
		completer = completionuc.NewInstrumentedCompleter(completer, sdkProvider, checker, nop)
	}

	rnd := retrievaluc.NewTimeSeededRand()
	if cfg.seed != 0 {
		rnd = retrievaluc.NewSeededRand(cfg.seed)
	}

	retrieval := retrievaluc.New(ds, cityname.NewMatcher(cfg.fuzzyThreshold), rnd)
	composer := itineraryuc.New(retrieval, rnd, cfg.attractionPool, cfg.topK)
	assistant := assistantuc.New(completer, extract.New(completer, ""), retrieval, composer, assistantuc.Options{
		Fuzzy: cfg.fuzzy,
		TopK:  cfg.topK,
	})

	// Pass nil interfaces, not typed nil pointers.
	var budgetReader usageuc.BudgetReader
	if budget != nil {
		budgetReader = budget
	}
	var pinger healthuc.CachePinger
	if store != nil {
		pinger = store
	}
	var checker healthuc.CompletionChecker
	if hc, ok := completer.(healthuc.CompletionChecker); ok {
		checker = hc
	}

	return &Client{
		store:        store,
		assistantSvc: assistant,
		retriever:    retrieval,
		composer:     composer,
		healthSvc:    healthuc.New(ds, pinger, checker),
		usageSvc:     usageuc.New(budgetReader),
		obs:          obs,
		fuzzy:        cfg.fuzzy,
		topK:         cfg.topK,
	}
}

// Close releases the cache connection.
func (c *Client) Close() error {
	if c.store != nil {
		c.store.Close()
	}
	return nil
}

// Ping checks the cache connection. Without a cache it always succeeds.
func (c *Client) Ping(ctx context.Context) error {
	if c.store == nil {
		return nil
	}
	if err := c.store.Ping(ctx); err != nil {
		return fmt.Errorf("travelq: ping: %w", err)
	}
	return nil
}

// Reply is the assistant's answer to one message.
type Reply struct {
	TurnID    uuid.UUID
	Intent    Intent
	Sentiment string
	Text      string
	// Data holds the extracted query and rows, or the Trip for itineraries.
	Data any
	// Degraded is set when the model could not be reached and Text is an apology.
	Degraded bool
	Calls    int // completion calls made for this turn
	Tokens   int
}

// Ask answers one chat message. An unreachable model yields a degraded Reply, not an error.
func (c *Client) Ask(ctx context.Context, message string) (Reply, error) {
	start := time.Now()
	ctx, u := domain.NewContextWithUsage(ctx)

	r, err := c.assistantSvc.Respond(ctx, message)
	c.obs.observe("ask", start, err, "intent", string(r.Intent), "degraded", r.Degraded)
	if err != nil {
		return Reply{}, err
	}
	return Reply{
		TurnID:    r.TurnID,
		Intent:    r.Intent,
		Sentiment: string(r.Sentiment),
		Text:      r.Text,
		Data:      r.Data,
		Degraded:  r.Degraded,
		Calls:     u.Calls,
		Tokens:    u.TotalTokens,
	}, nil
}

// Classify labels a message with one of the Intent values.
func (c *Client) Classify(ctx context.Context, message string) Intent {
	start := time.Now()
	intent := c.assistantSvc.Classify(ctx, message)
	c.obs.observe("classify", start, nil, "intent", string(intent))
	return intent
}

// Extract runs only the extraction step and returns the typed query for intent.
func (c *Client) Extract(ctx context.Context, intent Intent, message string) (any, error) {
	start := time.Now()
	q, err := c.assistantSvc.Extract(ctx, intent, message)
	c.obs.observe("extract", start, err, "intent", string(intent))
	return q, err
}

// Buses returns up to the configured top K buses matching q, cheapest first among the best rated.
func (c *Client) Buses(ctx context.Context, q Query) []Bus {
	start := time.Now()
	rows := c.retriever.RetrieveBuses(ctx, q, c.fuzzy, c.topK)
	c.obs.observe("buses", start, nil, "rows", len(rows))
	return rows
}

// Flights returns up to the configured top K flights matching q.
func (c *Client) Flights(ctx context.Context, q Query) []Flight {
	start := time.Now()
	rows := c.retriever.RetrieveFlights(ctx, q, c.fuzzy, c.topK)
	c.obs.observe("flights", start, nil, "rows", len(rows))
	return rows
}

// Hotels returns matching hotels and the name of the price column they were filtered on.
func (c *Client) Hotels(ctx context.Context, q Query) ([]Hotel, string) {
	start := time.Now()
	rows, col := c.retriever.RetrieveHotels(ctx, q, c.fuzzy, c.topK)
	c.obs.observe("hotels", start, nil, "rows", len(rows))
	return rows, col
}

// Attractions returns matching attractions, best rated first.
func (c *Client) Attractions(ctx context.Context, q Query) []Attraction {
	start := time.Now()
	rows := c.retriever.RetrieveAttractions(ctx, q, c.fuzzy, c.topK)
	c.obs.observe("attractions", start, nil, "rows", len(rows))
	return rows
}

// Itinerary composes a trip without calling the model.
func (c *Client) Itinerary(ctx context.Context, q ItineraryQuery) (Trip, error) {
	start := time.Now()
	if q.Budget != nil && *q.Budget < 0 {
		err := fmt.Errorf("%w: budget must not be negative", ErrInvalidQuery)
		c.obs.observe("itinerary", start, err)
		return Trip{}, err
	}
	if q.NumDays < 0 {
		err := fmt.Errorf("%w: num_days must not be negative", ErrInvalidQuery)
		c.obs.observe("itinerary", start, err)
		return Trip{}, err
	}
	t := c.composer.Compose(ctx, q, c.fuzzy)
	c.obs.observe("itinerary", start, nil, "days", t.Query.NumDays)
	return t, nil
}

// Plan renders a composed trip as a day-by-day plan. degraded is set when the
// model could not be reached and text is an apology. Offline it returns the trip rows.
func (c *Client) Plan(ctx context.Context, t Trip, question string) (text string, degraded bool, err error) {
	start := time.Now()
	text, degraded, err = c.assistantSvc.RenderItinerary(ctx, t, question)
	c.obs.observe("plan", start, err, "degraded", degraded)
	return text, degraded, err
}
