package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	setCoreEnvEmpty(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ResolverMode != "auto" {
		t.Fatalf("ResolverMode = %q, want %q", cfg.ResolverMode, "auto")
	}
	if cfg.ResolverConfidenceGate != 0.5 {
		t.Fatalf("ResolverConfidenceGate = %v, want 0.5", cfg.ResolverConfidenceGate)
	}
	if cfg.ClassifierConfidenceGate != 0.4 {
		t.Fatalf("ClassifierConfidenceGate = %v, want 0.4", cfg.ClassifierConfidenceGate)
	}
	if cfg.ResolverTimeout != 8*time.Second {
		t.Fatalf("ResolverTimeout = %v, want 8s", cfg.ResolverTimeout)
	}
	if cfg.MemoryPath != "data/memory.json" {
		t.Fatalf("MemoryPath = %q, want default", cfg.MemoryPath)
	}
	if cfg.ResolverHTTPURL != "" {
		t.Fatalf("ResolverHTTPURL = %q, want empty default", cfg.ResolverHTTPURL)
	}
	if cfg.BindAddr != "127.0.0.1:8080" {
		t.Fatalf("BindAddr = %q, want loopback default", cfg.BindAddr)
	}
	if cfg.GeminiModel != "gemini-2.5-flash" {
		t.Fatalf("GeminiModel = %q, want %q", cfg.GeminiModel, "gemini-2.5-flash")
	}
	if cfg.AnthropicModel != "claude-haiku-4-5" {
		t.Fatalf("AnthropicModel = %q, want %q", cfg.AnthropicModel, "claude-haiku-4-5")
	}
}

func TestLoadOverrides(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("RESOLVER_TIMEOUT", "5s")
	t.Setenv("CLASSIFIER_CONFIDENCE_GATE", "0.3")
	t.Setenv("RESOLVER_HTTP_URL", " http://localhost:7777/decide ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ResolverTimeout != 5*time.Second {
		t.Fatalf("ResolverTimeout = %v, want 5s", cfg.ResolverTimeout)
	}
	if cfg.ClassifierConfidenceGate != 0.3 {
		t.Fatalf("ClassifierConfidenceGate = %v, want 0.3", cfg.ClassifierConfidenceGate)
	}
	if cfg.ResolverHTTPURL != "http://localhost:7777/decide" {
		t.Fatalf("ResolverHTTPURL = %q, want trimmed value", cfg.ResolverHTTPURL)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"CLASSIFIER_CONFIDENCE_GATE": "0.9",
		"RESOLVER_CONFIDENCE_GATE":   "abc",
		"RESOLVER_TIMEOUT":           "10ms",
		"MEMORY_BACKEND":             "redis",
		"APP_ALLOW_ANY_ORIGIN":       "maybe",
		"SEARCH_URL_PATTERN":         "https://example.test/search",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			setCoreEnvEmpty(t)
			t.Setenv(key, value)
			if _, err := Load(); err == nil {
				t.Fatalf("Load() with %s=%q expected error", key, value)
			}
		})
	}
}

func TestLoadPostgresRequiresDatabaseURL(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("MEMORY_BACKEND", "postgres")
	if _, err := Load(); err == nil {
		t.Fatalf("Load() expected error without DATABASE_URL")
	}
}

func setCoreEnvEmpty(t *testing.T) {
	t.Helper()
	keys := []string{
		"APP_BIND_ADDR",
		"APP_SHUTDOWN_TIMEOUT",
		"APP_METRICS_NAMESPACE",
		"APP_ALLOW_ANY_ORIGIN",
		"LOG_LEVEL",
		"LOG_FORMAT",
		"RESOLVER_MODE",
		"RESOLVER_TIMEOUT",
		"RESOLVER_CONFIDENCE_GATE",
		"RESOLVER_HISTORY_TURNS",
		"RESOLVER_HTTP_URL",
		"GEMINI_API_KEY",
		"GEMINI_MODEL",
		"ANTHROPIC_API_KEY",
		"ANTHROPIC_MODEL",
		"CLASSIFIER_CONFIDENCE_GATE",
		"CLASSIFIER_CORPUS_PATH",
		"MEMORY_BACKEND",
		"MEMORY_PATH",
		"MEMORY_PROFILE",
		"DATABASE_URL",
		"WORKSPACE_DIR",
		"APPS_CATALOG_PATH",
		"SEARCH_URL_PATTERN",
	}
	for _, key := range keys {
		t.Setenv(key, "")
	}
}
