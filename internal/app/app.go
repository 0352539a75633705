// Package app wires configuration into the travelq services. It is the composition root
// shared by the HTTP server and the command-line client.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/travelq/internal/cityname"
	"github.com/kailas-cloud/travelq/internal/config"
	"github.com/kailas-cloud/travelq/internal/dataset"
	"github.com/kailas-cloud/travelq/internal/db"
	"github.com/kailas-cloud/travelq/internal/db/memory"
	dbRedis "github.com/kailas-cloud/travelq/internal/db/redis"
	"github.com/kailas-cloud/travelq/internal/domain"
	"github.com/kailas-cloud/travelq/internal/metrics"
	budgetrepo "github.com/kailas-cloud/travelq/internal/repository/budget"
	"github.com/kailas-cloud/travelq/internal/repository/completioncache"
	chiTransport "github.com/kailas-cloud/travelq/internal/transport/chi"
	"github.com/kailas-cloud/travelq/internal/transport/gemini"
	"github.com/kailas-cloud/travelq/internal/transport/openai"
	assistantuc "github.com/kailas-cloud/travelq/internal/usecase/assistant"
	completionuc "github.com/kailas-cloud/travelq/internal/usecase/completion"
	"github.com/kailas-cloud/travelq/internal/usecase/extract"
	healthuc "github.com/kailas-cloud/travelq/internal/usecase/health"
	itineraryuc "github.com/kailas-cloud/travelq/internal/usecase/itinerary"
	retrievaluc "github.com/kailas-cloud/travelq/internal/usecase/retrieval"
	usageuc "github.com/kailas-cloud/travelq/internal/usecase/usage"
)

// Budget counter lifetimes in the KV store, slightly longer than their windows.
const (
	budgetDailyTTL   = 48 * time.Hour
	budgetMonthlyTTL = 62 * 24 * time.Hour
)

// Options adjust wiring beyond the config file.
type Options struct {
	// Seed fixes attraction sampling. Zero seeds from the clock.
	Seed uint64
	// Offline skips the completion provider even when one is configured.
	Offline bool
}

// App holds the wired services.
type App struct {
	Config    config.Config
	Logger    *zap.Logger
	Store     db.Store // nil when cache.driver is none
	Datasets  *dataset.Store
	Completer domain.Completer // nil when offline
	Budget    *completionuc.BudgetTracker

	Retrieval *retrievaluc.Service
	Extract   *extract.Service
	Itinerary *itineraryuc.Composer
	Assistant *assistantuc.Service
	Usage     *usageuc.Service
	Health    *healthuc.Service
}

// New builds every service from cfg. Call Close when done.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger, opts Options) (*App, error) {
	metrics.RegisterCompletionMetrics()
	metrics.RegisterPipelineMetrics()

	a := &App{Config: cfg, Logger: logger}

	store, err := newStore(ctx, cfg.Cache)
	if err != nil {
		return nil, err
	}
	a.Store = store

	ds, err := dataset.Load(dataset.Files{
		Dir:        cfg.Datasets.Dir,
		Bus:        cfg.Datasets.Buses,
		Flight:     cfg.Datasets.Flights,
		Hotel:      cfg.Datasets.Hotels,
		Attraction: cfg.Datasets.Attractions,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("load datasets: %w", err)
	}
	a.Datasets = ds
	counts := ds.Counts()
	for _, name := range dataset.Names {
		metrics.DatasetRows.WithLabelValues(string(name)).Set(float64(counts[name]))
	}
	logger.Info("Datasets loaded",
		zap.Int("buses", counts[dataset.Bus]),
		zap.Int("flights", counts[dataset.Flight]),
		zap.Int("hotels", counts[dataset.Hotel]),
		zap.Int("attractions", counts[dataset.Attraction]),
	)

	if cfg.Completion.Provider != config.ProviderNone && !opts.Offline {
		if err := a.buildCompleter(ctx); err != nil {
			a.Close()
			return nil, err
		}
	}

	rnd := retrievaluc.NewTimeSeededRand()
	if opts.Seed != 0 {
		rnd = retrievaluc.NewSeededRand(opts.Seed)
	}
	fuzzy := cfg.Retrieval.FuzzyEnabled()

	a.Retrieval = retrievaluc.New(ds, cityname.NewMatcher(float64(cfg.Retrieval.FuzzyThreshold)), rnd)
	a.Extract = extract.New(a.Completer, "")
	a.Itinerary = itineraryuc.New(a.Retrieval, rnd, cfg.Retrieval.AttractionPool, cfg.Retrieval.TopK)
	a.Assistant = assistantuc.New(a.Completer, a.Extract, a.Retrieval, a.Itinerary, assistantuc.Options{
		Fuzzy: fuzzy,
		TopK:  cfg.Retrieval.TopK,
	})

	// Pass nil interfaces, not typed nil pointers.
	var budgetReader usageuc.BudgetReader
	if a.Budget != nil {
		budgetReader = a.Budget
	}
	a.Usage = usageuc.New(budgetReader)

	var pinger healthuc.CachePinger
	if a.Store != nil {
		pinger = a.Store
	}
	var checker healthuc.CompletionChecker
	if hc, ok := a.Completer.(healthuc.CompletionChecker); ok {
		checker = hc
	}
	a.Health = healthuc.New(ds, pinger, checker)

	logger.Info("Services ready",
		zap.String("provider", cfg.Completion.Provider),
		zap.Bool("online", a.Completer != nil),
		zap.String("cache", cfg.Cache.Driver),
		zap.Bool("fuzzy", fuzzy),
	)
	return a, nil
}

// Server builds the HTTP API server over the wired services.
func (a *App) Server() *chiTransport.Server {
	return chiTransport.NewServer(
		a.Assistant, a.Retrieval, a.Itinerary, a.Usage, a.Health,
		chiTransport.Options{TopK: a.Config.Retrieval.TopK, Fuzzy: a.Config.Retrieval.FuzzyEnabled()},
		a.Logger,
	)
}

// RouterConfig returns the HTTP middleware settings.
func (a *App) RouterConfig() chiTransport.RouterConfig {
	return chiTransport.RouterConfig{
		APIKeys:   a.Config.Auth.APIKeys,
		RateLimit: a.Config.HTTP.RateLimit.RequestsPerSecond,
		Burst:     a.Config.HTTP.RateLimit.Burst,
	}
}

// Close releases the KV store.
func (a *App) Close() {
	if a.Store != nil {
		a.Store.Close()
	}
}

func newStore(ctx context.Context, cfg config.CacheConfig) (db.Store, error) {
	var (
		store db.Store
		err   error
	)
	switch cfg.Driver {
	case config.CacheNone:
		return nil, nil
	case config.CacheMemory:
		store = memory.NewStore(10 * time.Minute)
	case config.CacheRedis:
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Addrs,
			Password: cfg.Password,
		})
		if err != nil {
			return nil, fmt.Errorf("create redis store: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown cache driver %q", cfg.Driver)
	}

	if err := store.WaitForReady(ctx, time.Duration(cfg.ReadinessTimeout)*time.Second); err != nil {
		store.Close()
		return nil, fmt.Errorf("cache not ready: %w", err)
	}
	return store, nil
}

// buildCompleter assembles the decorator chain: provider -> cache -> instrumented (budget).
func (a *App) buildCompleter(ctx context.Context) error {
	cfg := a.Config.Completion

	var base domain.Completer
	switch cfg.Provider {
	case config.ProviderOpenAI:
		base = openai.NewCompleter(&openai.Config{
			APIKey:   cfg.APIKey,
			BaseURL:  cfg.BaseURL,
			Models:   cfg.Models,
			Provider: cfg.Provider,
			Timeout:  time.Duration(cfg.TimeoutSec) * time.Second,
			Logger:   a.Logger,
		})
	case config.ProviderGemini:
		g, err := gemini.NewCompleter(ctx, &gemini.Config{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Models:  cfg.Models,
			Logger:  a.Logger,
		})
		if err != nil {
			return fmt.Errorf("create gemini completer: %w", err)
		}
		base = g
	default:
		return fmt.Errorf("unknown completion provider %q", cfg.Provider)
	}

	completer := base
	if a.Store != nil {
		completer = completioncache.New(base, a.Store,
			time.Duration(a.Config.Cache.TTLSec)*time.Second, metrics.CompletionCacheTotal, a.Logger)
	}

	var checker completionuc.BudgetChecker
	if b := cfg.Budget; b.DailyTokenLimit > 0 || b.MonthlyTokenLimit > 0 {
		a.Budget = completionuc.NewBudgetTracker(
			cfg.Provider, b.DailyTokenLimit, b.MonthlyTokenLimit,
			completionuc.ParseBudgetAction(b.Action), a.Logger,
		)
		if a.Store != nil {
			a.Budget.WithStore(ctx, budgetrepo.New(a.Store, budgetDailyTTL, budgetMonthlyTTL))
		}
		checker = a.Budget
	}

	a.Completer = completionuc.NewInstrumentedCompleter(completer, cfg.Provider, checker, a.Logger)
	a.Logger.Info("Completer created",
		zap.String("provider", cfg.Provider),
		zap.Strings("models", cfg.Models),
		zap.Int64("daily_token_limit", cfg.Budget.DailyTokenLimit),
		zap.Int64("monthly_token_limit", cfg.Budget.MonthlyTokenLimit),
	)
	return nil
}
