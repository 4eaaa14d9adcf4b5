package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"deepresearch/internal/config"
	"deepresearch/internal/logging"
	"deepresearch/internal/notifications"
	"deepresearch/internal/planner"
	"deepresearch/internal/research"
	"deepresearch/internal/search"
	"deepresearch/internal/searchcache"
	"deepresearch/internal/services/llm"
	"deepresearch/internal/writer"
)

// App holds the wired pipeline and the resources it owns.
type App struct {
	Orchestrator  *research.Orchestrator
	Planner       *planner.Planner
	Executor      *search.Executor
	Writer        *writer.Writer
	Notifications *notifications.Service
	Cache         *searchcache.Cache

	logger *slog.Logger
}

// Options tweaks assembly, mainly for tests and one-off commands.
type Options struct {
	Logger *slog.Logger
	// Notifier replaces the configured notification service.
	Notifier research.Notifier
	// Provider replaces the configured search provider.
	Provider search.Provider
	// LLMOptions are applied to every LLM client.
	LLMOptions []llm.Option
	// NoCache skips opening the search cache.
	NoCache bool
	// Observer receives pipeline state changes.
	Observer research.Observer
}

// New wires the pipeline described by cfg.
func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	if cfg == nil {
		return nil, errors.New("app: config is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	component := func(name string) *slog.Logger {
		return logging.ComponentLevel(logger, name, cfg.Logging.ComponentOverrides)
	}

	a := &App{logger: logger}

	plan, err := planner.New(newLLMClient(cfg.PlannerLLM(), opts.LLMOptions), planner.Options{
		HowManySearches: cfg.Planner.HowManySearches,
		MaxSearches:     cfg.Planner.MaxSearches,
		Logger:          component("planner"),
	})
	if err != nil {
		return nil, err
	}
	a.Planner = plan

	provider := opts.Provider
	if provider == nil {
		if provider, err = search.NewProvider(cfg); err != nil {
			return nil, err
		}
	}
	if cfg.SearchCache.Enabled && !opts.NoCache {
		cache, err := OpenCache(ctx, cfg, component("searchcache"))
		if err != nil {
			logging.WarnWithContext(logger, "search cache unavailable", "search_cache_open_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "run deepresearch cache clear or delete the cache file"),
				logging.String(logging.FieldImpact, "searches are not cached this run"))
		} else {
			a.Cache = cache
		}
	}
	execOpts := search.Options{Cache: a.Cache, Logger: component("search")}
	if cfg.Search.Summarize {
		execOpts.Summarizer = newLLMClient(cfg.SearchLLM(), opts.LLMOptions)
	}
	if a.Executor, err = search.NewExecutor(provider, execOpts); err != nil {
		a.Close()
		return nil, err
	}

	if a.Writer, err = writer.New(newLLMClient(cfg.WriterLLM(), opts.LLMOptions), component("writer")); err != nil {
		a.Close()
		return nil, err
	}

	notifier := opts.Notifier
	if notifier == nil {
		if a.Notifications, err = notifications.NewService(cfg, notifications.WithLogger(component("notifications"))); err != nil {
			a.Close()
			return nil, err
		}
		notifier = a.Notifications
	}

	p := cfg.Pipeline
	orchestratorOpts := []research.Option{
		research.WithLogger(component("research")),
		research.WithMaxConcurrency(p.MaxConcurrentSearches),
		research.WithSearchTimeout(seconds(p.SearchTimeout)),
		research.WithStageTimeouts(seconds(p.PlanTimeout), seconds(p.WriteTimeout), seconds(p.NotifyTimeout)),
		research.WithTraceURLTemplate(p.TraceURLTemplate),
	}
	if opts.Observer != nil {
		orchestratorOpts = append(orchestratorOpts, research.WithObserver(opts.Observer))
	}
	if a.Orchestrator, err = research.New(a.Planner, a.Executor, a.Writer, notifier, orchestratorOpts...); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// OpenCache opens the configured search cache.
func OpenCache(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*searchcache.Cache, error) {
	cache, err := searchcache.Open(ctx, cfg.SearchCache.Path, searchcache.Options{
		TTL:    time.Duration(cfg.SearchCache.TTLHours) * time.Hour,
		Logger: logger,
	})
	if err != nil {
		return nil, fmt.Errorf("open search cache: %w", err)
	}
	return cache, nil
}

// Close releases the search cache.
func (a *App) Close() {
	if a == nil || a.Cache == nil {
		return
	}
	if err := a.Cache.Close(); err != nil {
		a.logger.Debug("close search cache", logging.Error(err))
	}
	a.Cache = nil
}

func newLLMClient(cfg config.LLMConfig, opts []llm.Option) *llm.Client {
	return llm.NewClient(llm.Config{
		APIKey:         cfg.APIKey,
		BaseURL:        cfg.BaseURL,
		Model:          cfg.Model,
		Referer:        cfg.Referer,
		Title:          cfg.Title,
		TimeoutSeconds: cfg.TimeoutSeconds,
	}, opts...)
}

func seconds(n int) time.Duration {
	return time.Duration(max(n, 0)) * time.Second
}
