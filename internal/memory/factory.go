package memory

import (
	"context"
	"fmt"
	"strings"
)

// Options selects and configures the persistence backend.
type Options struct {
	Backend     string
	Path        string
	DatabaseURL string
	Profile     string
}

// NewStore creates a postgres-backed store when configured, a JSON file store by default,
// and an in-memory store when explicitly requested.
func NewStore(ctx context.Context, opts Options) (Store, error) {
	backend := strings.ToLower(strings.TrimSpace(opts.Backend))
	if backend == "" || backend == "auto" {
		backend = "file"
		if strings.TrimSpace(opts.DatabaseURL) != "" {
			backend = "postgres"
		}
	}

	switch backend {
	case "file":
		if strings.TrimSpace(opts.Path) == "" {
			return nil, fmt.Errorf("memory file path is required for file backend")
		}
		return NewFileStore(opts.Path), nil
	case "postgres":
		return NewPostgresStore(ctx, opts.DatabaseURL, opts.Profile)
	case "memory":
		return NewInMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported memory backend %q", opts.Backend)
	}
}
