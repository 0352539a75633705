package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the travelq configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Completion CompletionConfig `yaml:"completion"`
	Cache      CacheConfig      `yaml:"cache"`
	Datasets   DatasetsConfig   `yaml:"datasets"`
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
	Auth       AuthConfig       `yaml:"auth"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int       `yaml:"port"`
	ReadTimeoutSec  int       `yaml:"read_timeout_sec"`
	WriteTimeoutSec int       `yaml:"write_timeout_sec"`
	ShutdownSec     int       `yaml:"shutdown_timeout_sec"`
	RateLimit       RateLimit `yaml:"rate_limit"`
}

// RateLimit caps requests to the model-backed endpoints. Zero disables it.
type RateLimit struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// Completion provider names.
const (
	ProviderNone   = "none"
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// CompletionConfig holds language model settings.
type CompletionConfig struct {
	Provider   string       `yaml:"provider"` // openai, gemini, none (default: none)
	APIKey     string       `yaml:"api_key"`
	BaseURL    string       `yaml:"base_url"`
	Models     []string     `yaml:"models"` // tried in order
	TimeoutSec int          `yaml:"timeout_sec"`
	Budget     BudgetConfig `yaml:"budget"`
}

// BudgetConfig holds token budget settings.
type BudgetConfig struct {
	DailyTokenLimit   int64  `yaml:"daily_token_limit"`   // 0 = unlimited
	MonthlyTokenLimit int64  `yaml:"monthly_token_limit"` // 0 = unlimited
	Action            string `yaml:"action"`              // "reject" | "warn" (default)
}

// Cache drivers.
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// CacheConfig holds KV store settings for the completion cache and budget counters.
type CacheConfig struct {
	Driver           string   `yaml:"driver"` // none, memory, redis (default: memory)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	TTLSec           int      `yaml:"ttl_sec"` // completion cache entry lifetime, 0 = no expiry
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// DatasetsConfig holds the CSV locations.
type DatasetsConfig struct {
	Dir         string `yaml:"dir"`
	Buses       string `yaml:"buses"`
	Flights     string `yaml:"flights"`
	Hotels      string `yaml:"hotels"`
	Attractions string `yaml:"attractions"`
}

// RetrievalConfig holds ranking and matching settings.
type RetrievalConfig struct {
	TopK           int   `yaml:"top_k"`
	Fuzzy          *bool `yaml:"fuzzy"`
	FuzzyThreshold int   `yaml:"fuzzy_threshold"`
	AttractionPool int   `yaml:"attraction_pool"`
}

// FuzzyEnabled reports whether fuzzy city matching is on (default: true).
func (r RetrievalConfig) FuzzyEnabled() bool {
	return r.Fuzzy == nil || *r.Fuzzy
}

// Load reads configuration from a YAML file by environment name (local, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse expands ${VAR} references, decodes YAML, applies defaults and validates.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 60
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.HTTP.RateLimit.RequestsPerSecond > 0 && c.HTTP.RateLimit.Burst <= 0 {
		c.HTTP.RateLimit.Burst = max(1, int(c.HTTP.RateLimit.RequestsPerSecond))
	}

	if c.Completion.Provider == "" {
		c.Completion.Provider = ProviderNone
	}
	if c.Completion.TimeoutSec <= 0 {
		c.Completion.TimeoutSec = 30
	}
	if len(c.Completion.Models) == 0 {
		switch c.Completion.Provider {
		case ProviderGemini:
			c.Completion.Models = []string{"gemini-2.5-flash"}
		case ProviderOpenAI:
			c.Completion.Models = []string{"gpt-4o-mini"}
		}
	}

	if c.Cache.Driver == "" {
		c.Cache.Driver = CacheMemory
	}
	if c.Cache.ReadinessTimeout <= 0 {
		c.Cache.ReadinessTimeout = 10
	}

	if c.Datasets.Dir == "" {
		c.Datasets.Dir = "data"
	}
	if c.Datasets.Buses == "" {
		c.Datasets.Buses = "cleaned_bus.csv"
	}
	if c.Datasets.Flights == "" {
		c.Datasets.Flights = "flights.csv"
	}
	if c.Datasets.Hotels == "" {
		c.Datasets.Hotels = "hotels.csv"
	}
	if c.Datasets.Attractions == "" {
		c.Datasets.Attractions = "attractions.csv"
	}

	if c.Retrieval.TopK <= 0 {
		c.Retrieval.TopK = 5
	}
	if c.Retrieval.FuzzyThreshold <= 0 {
		c.Retrieval.FuzzyThreshold = 85
	}
	if c.Retrieval.AttractionPool <= 0 {
		c.Retrieval.AttractionPool = 20
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}

	switch c.Completion.Provider {
	case ProviderNone:
	case ProviderOpenAI, ProviderGemini:
		if c.Completion.APIKey == "" {
			return fmt.Errorf("completion.api_key is required for provider %q", c.Completion.Provider)
		}
	default:
		return fmt.Errorf("completion.provider must be one of none, openai, gemini, got %q", c.Completion.Provider)
	}
	switch c.Completion.Budget.Action {
	case "", "warn", "reject":
		// ok
	default:
		return fmt.Errorf(
			"completion.budget.action must be \"warn\" or \"reject\", got %q",
			c.Completion.Budget.Action,
		)
	}
	if c.Completion.Budget.DailyTokenLimit < 0 || c.Completion.Budget.MonthlyTokenLimit < 0 {
		return fmt.Errorf("completion.budget limits must not be negative")
	}

	if !slices.Contains([]string{CacheNone, CacheMemory, CacheRedis}, c.Cache.Driver) {
		return fmt.Errorf("cache.driver must be one of none, memory, redis, got %q", c.Cache.Driver)
	}
	if c.Cache.Driver == CacheRedis && len(c.Cache.Addrs) == 0 {
		return fmt.Errorf("cache.addrs is required for the redis driver")
	}
	if c.Cache.TTLSec < 0 {
		return fmt.Errorf("cache.ttl_sec must not be negative, got %d", c.Cache.TTLSec)
	}

	if c.Retrieval.FuzzyThreshold > 100 {
		return fmt.Errorf("retrieval.fuzzy_threshold must be between 1 and 100, got %d", c.Retrieval.FuzzyThreshold)
	}
	if c.HTTP.RateLimit.RequestsPerSecond < 0 {
		return fmt.Errorf("http.rate_limit.requests_per_second must not be negative")
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
