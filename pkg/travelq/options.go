package travelq

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	datasetDir string
	files      *datasetFiles
	tables     *Tables

	cache    string // "", "memory" or "redis"
	addrs    []string
	password string
	cacheTTL time.Duration

	completer    Completer
	dailyLimit   int64
	monthlyLimit int64
	rejectOver   bool

	fuzzy          bool
	fuzzyThreshold float64
	topK           int
	attractionPool int
	seed           uint64

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

type datasetFiles struct {
	bus, flight, hotel, attraction string
}

// WithDatasets loads cleaned_bus.csv, flights.csv, hotels.csv and attractions.csv from dir.
func WithDatasets(dir string) Option {
	return optionFunc(func(c *clientConfig) {
		c.datasetDir = dir
	})
}

// WithDatasetFiles overrides the dataset file names. Relative names resolve
// against the WithDatasets directory; an empty name skips that dataset.
func WithDatasetFiles(bus, flight, hotel, attraction string) Option {
	return optionFunc(func(c *clientConfig) {
		c.files = &datasetFiles{bus: bus, flight: flight, hotel: hotel, attraction: attraction}
	})
}

// WithTables serves rows held in memory instead of CSV files.
func WithTables(t Tables) Option {
	return optionFunc(func(c *clientConfig) {
		c.tables = &t
	})
}

// WithCompleter sets the language model. Without it the client runs offline.
func WithCompleter(cp Completer) Option {
	return optionFunc(func(c *clientConfig) {
		c.completer = cp
	})
}

// WithTokenBudget caps completion tokens per UTC day and month. Zero disables a window.
// With reject set, calls over budget fail with ErrCompletionQuotaExceeded; otherwise they are logged.
func WithTokenBudget(daily, monthly int64, reject bool) Option {
	return optionFunc(func(c *clientConfig) {
		c.dailyLimit = daily
		c.monthlyLimit = monthly
		c.rejectOver = reject
	})
}

// WithMemoryCache caches deterministic completions in process.
func WithMemoryCache(ttl time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.cache = "memory"
		c.cacheTTL = ttl
	})
}

// WithRedis keeps the completion cache and budget counters in Redis.
func WithRedis(addr, password string, ttl time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.cache = "redis"
		c.addrs = []string{addr}
		c.password = password
		c.cacheTTL = ttl
	})
}

// WithFuzzy toggles fuzzy city matching and sets its acceptance score (0-100).
// Defaults: enabled, 85. A threshold of 0 keeps the default.
func WithFuzzy(enabled bool, threshold float64) Option {
	return optionFunc(func(c *clientConfig) {
		c.fuzzy = enabled
		c.fuzzyThreshold = threshold
	})
}

// WithTopK sets the result cap for searches. Default: 5.
func WithTopK(k int) Option {
	return optionFunc(func(c *clientConfig) {
		c.topK = k
	})
}

// WithAttractionPool sets how many city attractions are drawn before one is
// sampled per itinerary day. Default: 20.
func WithAttractionPool(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.attractionPool = n
	})
}

// WithSeed makes attraction sampling reproducible. Zero seeds from the clock.
func WithSeed(seed uint64) Option {
	return optionFunc(func(c *clientConfig) {
		c.seed = seed
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
