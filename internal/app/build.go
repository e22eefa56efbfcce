// Package app wires configuration into the running command service.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/ent0n29/deskpilot/internal/config"
	"github.com/ent0n29/deskpilot/internal/decision"
	"github.com/ent0n29/deskpilot/internal/dispatch"
	"github.com/ent0n29/deskpilot/internal/httpapi"
	"github.com/ent0n29/deskpilot/internal/intent"
	"github.com/ent0n29/deskpilot/internal/memory"
	"github.com/ent0n29/deskpilot/internal/observability"
	"github.com/ent0n29/deskpilot/internal/pipeline"
	"github.com/ent0n29/deskpilot/internal/skills"
)

type BuildResult struct {
	Config    config.Config
	Logger    *zap.Logger
	Memory    *memory.Memory
	Workspace *skills.Workspace
	Pipeline  *pipeline.Pipeline
	API       *httpapi.Server
	Metrics   *observability.Metrics

	// ResolverBackend names the semantic backend, or "off" when only the classifier runs.
	ResolverBackend string

	// Cleanup should be called on shutdown to release external resources (DB pool, files).
	Cleanup func() error
}

// Options tweaks what Build wires beyond the config.
type Options struct {
	// Runner overrides host command execution for app control and search.
	Runner skills.Runner
	// Registry receives the service metrics. Nil means a fresh registry with Go and
	// process collectors.
	Registry *prometheus.Registry
}

func Build(ctx context.Context, cfg config.Config, logger *zap.Logger, opts Options) (*BuildResult, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	reg := opts.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	metrics := observability.NewMetrics(cfg.MetricsNamespace, reg)

	store, err := memory.NewStore(ctx, memory.Options{
		Backend:     cfg.MemoryBackend,
		Path:        cfg.MemoryPath,
		DatabaseURL: cfg.DatabaseURL,
		Profile:     cfg.MemoryProfile,
	})
	if err != nil {
		return nil, fmt.Errorf("memory store init failed: %w", err)
	}
	mem, err := memory.Open(ctx, store)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("memory load failed: %w", err)
	}
	if fs, ok := store.(*memory.FileStore); ok {
		logger.Info("memory file loaded", zap.String("path", fs.Path()))
	}

	fail := func(err error) (*BuildResult, error) {
		_ = mem.Close()
		return nil, err
	}

	backend, err := decision.NewBackend(ctx, decision.Config{
		Mode:            cfg.ResolverMode,
		GeminiAPIKey:    cfg.GeminiAPIKey,
		GeminiModel:     cfg.GeminiModel,
		AnthropicAPIKey: cfg.AnthropicAPIKey,
		AnthropicModel:  cfg.AnthropicModel,
		HTTPURL:         cfg.ResolverHTTPURL,
	})
	if err != nil {
		return fail(fmt.Errorf("resolver backend init failed: %w", err))
	}
	var resolver *decision.Resolver
	if backend != nil {
		resolver = decision.NewResolver(backend, cfg.ResolverTimeout)
	}

	classifier, err := buildClassifier(cfg)
	if err != nil {
		return fail(err)
	}

	catalog, err := skills.LoadCatalogFile(cfg.AppsCatalogPath)
	if err != nil {
		return fail(fmt.Errorf("app catalog init failed: %w", err))
	}
	workspace, err := skills.NewWorkspace(cfg.WorkspaceDir)
	if err != nil {
		return fail(fmt.Errorf("workspace init failed: %w", err))
	}
	apps := skills.NewAppControl(skills.AppOptions{
		Runner:  opts.Runner,
		Catalog: catalog,
		Logger:  logger.Named("skills"),
	})
	browser := skills.NewBrowser(opts.Runner, cfg.SearchURLPattern, "")

	dispatcher := dispatch.New(skills.NewRegistry(apps, browser), mem, workspace, logger.Named("dispatch"), metrics)
	pipe := pipeline.New(pipeline.Options{
		Resolver:     resolver,
		Classifier:   classifier,
		Dispatcher:   dispatcher,
		Memory:       mem,
		ResolverGate: cfg.ResolverConfidenceGate,
		HistoryTurns: cfg.ResolverHistoryTurns,
		Logger:       logger.Named("pipeline"),
		Metrics:      metrics,
	})

	api := httpapi.New(cfg, httpapi.Deps{
		Commands:        pipe,
		Memory:          mem,
		Workspace:       workspace,
		Metrics:         metrics,
		Logger:          logger.Named("http"),
		ResolverBackend: resolver.BackendName(),
	})

	logger.Info("command service built",
		zap.String("resolver_backend", resolver.BackendName()),
		zap.String("memory_backend", cfg.MemoryBackend),
		zap.String("workspace", workspace.BaseDir()),
		zap.Float64("resolver_gate", cfg.ResolverConfidenceGate),
		zap.Float64("classifier_gate", classifier.Gate()),
	)

	cleanup := func() error {
		var errs []error
		if err := mem.Close(); err != nil {
			errs = append(errs, fmt.Errorf("memory: %w", err))
		}
		if err := logger.Sync(); err != nil {
			logger.Debug("logger sync failed", zap.Error(err))
		}
		return errors.Join(errs...)
	}

	return &BuildResult{
		Config:          cfg,
		Logger:          logger,
		Memory:          mem,
		Workspace:       workspace,
		Pipeline:        pipe,
		API:             api,
		Metrics:         metrics,
		ResolverBackend: resolver.BackendName(),
		Cleanup:         cleanup,
	}, nil
}

func buildClassifier(cfg config.Config) (*intent.Classifier, error) {
	var (
		corpus intent.Corpus
		err    error
	)
	if cfg.ClassifierCorpusPath != "" {
		corpus, err = intent.LoadCorpusFile(cfg.ClassifierCorpusPath)
	} else {
		corpus, err = intent.DefaultCorpus()
	}
	if err != nil {
		return nil, fmt.Errorf("intent corpus load failed: %w", err)
	}
	c, err := intent.New(corpus, cfg.ClassifierConfidenceGate)
	if err != nil {
		return nil, fmt.Errorf("intent classifier init failed: %w", err)
	}
	return c, nil
}
