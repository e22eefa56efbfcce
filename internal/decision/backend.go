package decision

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Backend is a semantic parsing service that answers a prompt with free-form text.
type Backend interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Name() string
}

// Config controls backend construction.
type Config struct {
	Mode            string
	GeminiAPIKey    string
	GeminiModel     string
	AnthropicAPIKey string
	AnthropicModel  string
	HTTPURL         string
}

// NewBackend builds the backend selected by cfg.Mode. A nil Backend with a nil error means
// the primary tier is disabled and only the classifier tier runs.
func NewBackend(ctx context.Context, cfg Config) (Backend, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.Mode))
	if mode == "" {
		mode = "auto"
	}

	switch mode {
	case "auto":
		return newAutoBackend(ctx, cfg)
	case "gemini":
		if strings.TrimSpace(cfg.GeminiAPIKey) == "" {
			return nil, errors.New("GEMINI_API_KEY is required for gemini mode")
		}
		return NewGeminiBackend(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	case "anthropic":
		if strings.TrimSpace(cfg.AnthropicAPIKey) == "" {
			return nil, errors.New("ANTHROPIC_API_KEY is required for anthropic mode")
		}
		return NewAnthropicBackend(cfg.AnthropicAPIKey, cfg.AnthropicModel), nil
	case "http":
		if strings.TrimSpace(cfg.HTTPURL) == "" {
			return nil, errors.New("resolver HTTP url is required for http mode")
		}
		return NewHTTPBackend(cfg.HTTPURL), nil
	case "mock":
		return NewMockBackend(), nil
	case "off":
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported resolver mode %q", cfg.Mode)
	}
}

func newAutoBackend(ctx context.Context, cfg Config) (Backend, error) {
	if strings.TrimSpace(cfg.GeminiAPIKey) != "" {
		return NewGeminiBackend(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	}
	if strings.TrimSpace(cfg.AnthropicAPIKey) != "" {
		return NewAnthropicBackend(cfg.AnthropicAPIKey, cfg.AnthropicModel), nil
	}
	if strings.TrimSpace(cfg.HTTPURL) != "" {
		return NewHTTPBackend(cfg.HTTPURL), nil
	}
	return nil, nil
}
