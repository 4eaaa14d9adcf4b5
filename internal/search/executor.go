package search

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"deepresearch/internal/logging"
	"deepresearch/internal/research"
	"deepresearch/internal/searchcache"
	"deepresearch/internal/services"
	"deepresearch/internal/services/llm"
	"deepresearch/internal/textutil"
)

const (
	stageName = "searching"
	// duplicateThreshold marks results whose title and snippet are
	// near-identical to an earlier one.
	duplicateThreshold = 0.92
)

// Summarizer condenses raw results into prose.
type Summarizer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Options configures an Executor.
type Options struct {
	// Cache is optional; nil disables caching.
	Cache *searchcache.Cache
	// Summarizer is optional; nil renders a markdown digest instead.
	Summarizer Summarizer
	Logger     *slog.Logger
}

// Executor implements research.SearchExecutor.
type Executor struct {
	provider   Provider
	cache      *searchcache.Cache
	summarizer Summarizer
	logger     *slog.Logger
}

var _ research.SearchExecutor = (*Executor)(nil)

// NewExecutor constructs an Executor around provider.
func NewExecutor(provider Provider, opts Options) (*Executor, error) {
	if provider == nil {
		return nil, errors.New("search: provider is required")
	}
	return &Executor{
		provider:   provider,
		cache:      opts.Cache,
		summarizer: opts.Summarizer,
		logger:     logging.NewComponentLogger(opts.Logger, "search"),
	}, nil
}

// Execute runs one search. It never panics on collaborator errors and never
// returns a zero outcome: failures come back as research.Failure.
func (e *Executor) Execute(ctx context.Context, item research.SearchPlanItem) research.SearchOutcome {
	query := strings.TrimSpace(item.Query)
	if query == "" {
		return research.Failure(item, services.Wrap(services.ErrValidation, stageName, "execute search", "query is empty", nil))
	}
	logger := logging.WithContext(ctx, e.logger).With(logging.String(logging.FieldQuery, query))
	provider := e.provider.Name()
	mode := e.mode()

	if entry, ok := e.lookup(ctx, logger, provider, mode, query); ok {
		logger.Debug("search served from cache", logging.Any("cached_at", entry.CachedAt))
		return research.Success(item, entry.Summary)
	}

	results, err := e.provider.Search(ctx, query)
	if err != nil {
		return research.Failure(item, services.Wrap(providerMarker(err), stageName, provider, "search request failed", err))
	}
	results = dedupeResults(results)
	if len(results) == 0 {
		return research.Failure(item, services.Wrap(services.ErrNotFound, stageName, provider, "search returned no results", nil))
	}

	text, err := e.condense(ctx, item, results)
	if err != nil {
		return research.Failure(item, err)
	}

	e.store(ctx, logger, searchcache.Entry{Provider: provider, Mode: mode, Query: query, Summary: text, ResultCount: len(results)})
	logger.Debug("search condensed",
		logging.String("provider", provider),
		logging.Int("result_count", len(results)),
		logging.Bool("summarized", e.summarizer != nil))
	return research.Success(item, text)
}

// mode names how results are condensed so cached digests and summaries
// never stand in for each other.
func (e *Executor) mode() string {
	if e.summarizer == nil {
		return searchcache.ModeDigest
	}
	return searchcache.ModeSummary
}

func (e *Executor) condense(ctx context.Context, item research.SearchPlanItem, results []Result) (string, error) {
	if e.summarizer == nil {
		return digest(strings.TrimSpace(item.Query), results), nil
	}
	text, err := e.summarizer.Complete(ctx, SummaryPrompt, buildSummaryInput(item.Query, item.Reason, results))
	if err != nil {
		return "", services.Wrap(summarizerMarker(err), stageName, "summarize results", "llm request failed", err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", services.Wrap(services.ErrExternalTool, stageName, "summarize results", "model returned an empty summary", nil)
	}
	return text, nil
}

func (e *Executor) lookup(ctx context.Context, logger *slog.Logger, provider, mode, query string) (searchcache.Entry, bool) {
	if e.cache == nil {
		return searchcache.Entry{}, false
	}
	entry, ok, err := e.cache.Lookup(ctx, provider, mode, query)
	if err != nil {
		logging.WarnWithContext(logger, "search cache lookup failed", "search_cache_lookup_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check search_cache.path permissions or clear the cache"),
			logging.String(logging.FieldImpact, "search runs against the provider"))
		return searchcache.Entry{}, false
	}
	return entry, ok
}

func (e *Executor) store(ctx context.Context, logger *slog.Logger, entry searchcache.Entry) {
	if e.cache == nil || ctx.Err() != nil {
		return
	}
	if err := e.cache.Store(ctx, entry); err != nil {
		logging.WarnWithContext(logger, "search cache store failed", "search_cache_store_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check search_cache.path permissions or clear the cache"),
			logging.String(logging.FieldImpact, "result will not be reused by later runs"))
	}
}

// dedupeResults drops results without a URL and near-duplicates of earlier hits.
func dedupeResults(results []Result) []Result {
	filtered := make([]Result, 0, len(results))
	for _, r := range results {
		if strings.TrimSpace(r.URL) == "" {
			continue
		}
		if strings.TrimSpace(r.Title) == "" {
			r.Title = r.URL
		}
		filtered = append(filtered, r)
	}
	if len(filtered) < 2 {
		return filtered
	}
	texts := make([]string, len(filtered))
	for i, r := range filtered {
		texts[i] = r.Title + " " + r.Snippet
	}
	keep := textutil.DedupeIndexes(texts, duplicateThreshold)
	deduped := make([]Result, 0, len(keep))
	for _, idx := range keep {
		deduped = append(deduped, filtered[idx])
	}
	return deduped
}

func providerMarker(err error) error {
	var status *StatusError
	switch {
	case errors.Is(err, ErrMissingAPIKey):
		return services.ErrConfiguration
	case errors.As(err, &status) && status.Retryable():
		return services.ErrTransient
	default:
		return services.MarkerFor(err)
	}
}

func summarizerMarker(err error) error {
	if errors.Is(err, llm.ErrMissingAPIKey) {
		return services.ErrConfiguration
	}
	return services.MarkerFor(err)
}
