package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config contains all runtime settings for the command service.
type Config struct {
	BindAddr         string
	ShutdownTimeout  time.Duration
	MetricsNamespace string
	AllowAnyOrigin   bool

	LogLevel  string
	LogFormat string

	ResolverMode           string
	ResolverTimeout        time.Duration
	ResolverConfidenceGate float64
	ResolverHistoryTurns   int
	GeminiAPIKey           string
	GeminiModel            string
	AnthropicAPIKey        string
	AnthropicModel         string
	ResolverHTTPURL        string

	ClassifierConfidenceGate float64
	ClassifierCorpusPath     string

	MemoryBackend string
	MemoryPath    string
	MemoryProfile string
	DatabaseURL   string

	WorkspaceDir     string
	AppsCatalogPath  string
	SearchURLPattern string
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:         envOrDefault("APP_BIND_ADDR", "127.0.0.1:8080"),
		MetricsNamespace: envOrDefault("APP_METRICS_NAMESPACE", "deskpilot"),
		AllowAnyOrigin:   false,
		LogLevel:         envOrDefault("LOG_LEVEL", "info"),
		LogFormat:        envOrDefault("LOG_FORMAT", "console"),
		ResolverMode:     envOrDefault("RESOLVER_MODE", "auto"),
		GeminiAPIKey:     stringsTrimSpace("GEMINI_API_KEY"),
		GeminiModel:      envOrDefault("GEMINI_MODEL", "gemini-2.5-flash"),
		AnthropicAPIKey:  stringsTrimSpace("ANTHROPIC_API_KEY"),
		AnthropicModel:   envOrDefault("ANTHROPIC_MODEL", "claude-haiku-4-5"),
		ResolverHTTPURL:  stringsTrimSpace("RESOLVER_HTTP_URL"),
		// 5 turns mirrors the conversational window the resolver prompt was tuned on.
		ResolverHistoryTurns:     5,
		ResolverConfidenceGate:   0.5,
		ClassifierConfidenceGate: 0.4,
		ClassifierCorpusPath:     stringsTrimSpace("CLASSIFIER_CORPUS_PATH"),
		MemoryBackend:            envOrDefault("MEMORY_BACKEND", "auto"),
		MemoryPath:               envOrDefault("MEMORY_PATH", "data/memory.json"),
		MemoryProfile:            envOrDefault("MEMORY_PROFILE", "default"),
		DatabaseURL:              stringsTrimSpace("DATABASE_URL"),
		WorkspaceDir:             stringsTrimSpace("WORKSPACE_DIR"),
		AppsCatalogPath:          stringsTrimSpace("APPS_CATALOG_PATH"),
		SearchURLPattern:         envOrDefault("SEARCH_URL_PATTERN", "https://www.google.com/search?q=%s"),
		ShutdownTimeout:          15 * time.Second,
		ResolverTimeout:          8 * time.Second,
	}
	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.ResolverTimeout, err = durationFromEnv("RESOLVER_TIMEOUT", cfg.ResolverTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("APP_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return Config{}, err
	}
	cfg.ResolverHistoryTurns, err = intFromEnv("RESOLVER_HISTORY_TURNS", cfg.ResolverHistoryTurns)
	if err != nil {
		return Config{}, err
	}
	cfg.ResolverConfidenceGate, err = floatFromEnv("RESOLVER_CONFIDENCE_GATE", cfg.ResolverConfidenceGate)
	if err != nil {
		return Config{}, err
	}
	cfg.ClassifierConfidenceGate, err = floatFromEnv("CLASSIFIER_CONFIDENCE_GATE", cfg.ClassifierConfidenceGate)
	if err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints. It is also used after CLI flags override loaded values.
func (c Config) Validate() error {
	if c.ResolverTimeout < time.Second {
		return fmt.Errorf("RESOLVER_TIMEOUT must be at least 1s")
	}
	if c.ResolverConfidenceGate < 0 || c.ResolverConfidenceGate > 1 {
		return fmt.Errorf("RESOLVER_CONFIDENCE_GATE must be within [0,1]")
	}
	if c.ClassifierConfidenceGate < 0.3 || c.ClassifierConfidenceGate > 0.5 {
		return fmt.Errorf("CLASSIFIER_CONFIDENCE_GATE must be within [0.3,0.5]")
	}
	if c.ResolverHistoryTurns < 0 || c.ResolverHistoryTurns > 10 {
		return fmt.Errorf("RESOLVER_HISTORY_TURNS must be within [0,10]")
	}
	switch strings.ToLower(c.MemoryBackend) {
	case "auto", "file", "postgres", "memory":
	default:
		return fmt.Errorf("invalid MEMORY_BACKEND: %q (expected auto|file|postgres|memory)", c.MemoryBackend)
	}
	if strings.EqualFold(c.MemoryBackend, "postgres") && c.DatabaseURL == "" {
		return fmt.Errorf("MEMORY_BACKEND=postgres requires DATABASE_URL")
	}
	if !strings.Contains(c.SearchURLPattern, "%s") {
		return fmt.Errorf("SEARCH_URL_PATTERN must contain %%s")
	}
	return nil
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func stringsTrimSpace(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func floatFromEnv(key string, fallback float64) (float64, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return f, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(stringsTrimSpace(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
