package preflight

import (
	"context"

	"deepresearch/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
	// Optional results never block a run.
	Optional bool `json:"optional,omitempty"`
}

// Options selects which checks RunAll performs.
type Options struct {
	// Network enables checks that call remote APIs.
	Network bool
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config, opts Options) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckDirectoryAccess("Cache directory", cfg.Paths.CacheDir),
	}
	if cfg.Notifications.WriteFile {
		results = append(results, CheckDirectoryAccess("Report directory", cfg.Paths.ReportDir))
	}

	planner := cfg.PlannerLLM()
	results = append(results, checkLLMConfig(ctx, "Planner LLM", planner, opts))
	if cfg.Search.Summarize {
		if search := cfg.SearchLLM(); distinctLLM(planner, search) {
			results = append(results, checkLLMConfig(ctx, "Search LLM", search, opts))
		}
	}
	if writer := cfg.WriterLLM(); distinctLLM(planner, writer) {
		results = append(results, checkLLMConfig(ctx, "Writer LLM", writer, opts))
	}

	results = append(results, CheckSearchProvider(cfg))
	if cfg.SearchCache.Enabled {
		results = append(results, CheckSearchCache(ctx, cfg.SearchCache.Path))
	}
	results = append(results, CheckNotifications(cfg))
	return results
}

// Failed returns the required checks that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed && !r.Optional {
			failed = append(failed, r)
		}
	}
	return failed
}

func checkLLMConfig(ctx context.Context, name string, cfg config.LLMConfig, opts Options) Result {
	if !opts.Network {
		if cfg.APIKey == "" {
			return Result{Name: name, Detail: "API key missing"}
		}
		return Result{Name: name, Passed: true, Detail: cfg.Model + " (not contacted)"}
	}
	return CheckLLM(ctx, name, cfg)
}

// distinctLLM reports whether role settings point somewhere the planner
// check has not already covered.
func distinctLLM(a, b config.LLMConfig) bool {
	return a.APIKey != b.APIKey || a.BaseURL != b.BaseURL || a.Model != b.Model
}
