package search

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"deepresearch/internal/research"
	"deepresearch/internal/searchcache"
	"deepresearch/internal/services"
)

type stubProvider struct {
	results []Result
	err     error
	calls   int
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) Search(_ context.Context, _ string) ([]Result, error) {
	s.calls++
	return s.results, s.err
}

type stubSummarizer struct {
	response string
	err      error
	prompt   string
}

func (s *stubSummarizer) Complete(_ context.Context, _ string, userPrompt string) (string, error) {
	s.prompt = userPrompt
	return s.response, s.err
}

var sampleResults = []Result{
	{Title: "Heat pumps explained", URL: "https://a.example", Snippet: "How heat pumps move heat"},
	{Title: "Heat pumps explained", URL: "https://mirror.example", Snippet: "How heat pumps move heat"},
	{Title: "Running costs", URL: "https://b.example", Snippet: "Electricity prices matter"},
	{Title: "", URL: "", Snippet: "orphan"},
}

func openCache(t *testing.T) *searchcache.Cache {
	t.Helper()
	cache, err := searchcache.Open(context.Background(), filepath.Join(t.TempDir(), "cache.db"), searchcache.Options{})
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	t.Cleanup(func() { _ = cache.Close() })
	return cache
}

func TestExecuteBuildsDigestWithoutSummarizer(t *testing.T) {
	provider := &stubProvider{results: sampleResults}
	exec, err := NewExecutor(provider, Options{})
	if err != nil {
		t.Fatalf("NewExecutor: %v", err)
	}
	item := research.SearchPlanItem{Query: "heat pumps", Reason: "basics"}

	outcome := exec.Execute(context.Background(), item)
	if !outcome.OK() {
		t.Fatalf("expected success, got %v", outcome.Err)
	}
	if outcome.Item != item {
		t.Fatalf("outcome item = %+v", outcome.Item)
	}
	want := "### heat pumps\n\n" +
		"- [Heat pumps explained](https://a.example): How heat pumps move heat\n" +
		"- [Running costs](https://b.example): Electricity prices matter"
	if outcome.Text != want {
		t.Fatalf("digest mismatch:\n%s\nwant:\n%s", outcome.Text, want)
	}
}

func TestExecuteSummarizesResults(t *testing.T) {
	summarizer := &stubSummarizer{response: "  Heat pumps are efficient.  "}
	exec, _ := NewExecutor(&stubProvider{results: sampleResults}, Options{Summarizer: summarizer})

	outcome := exec.Execute(context.Background(), research.SearchPlanItem{Query: "heat pumps", Reason: "basics"})
	if !outcome.OK() || outcome.Text != "Heat pumps are efficient." {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
	for _, want := range []string{"Search term: heat pumps", "Reason for searching: basics", "[2] Running costs"} {
		if !strings.Contains(summarizer.prompt, want) {
			t.Fatalf("summary prompt missing %q:\n%s", want, summarizer.prompt)
		}
	}
}

func TestExecuteReportsFailures(t *testing.T) {
	tests := []struct {
		name       string
		item       research.SearchPlanItem
		provider   *stubProvider
		summarizer *stubSummarizer
		marker     error
	}{
		{name: "empty query", item: research.SearchPlanItem{Query: " "}, provider: &stubProvider{}, marker: services.ErrValidation},
		{name: "provider error", item: research.SearchPlanItem{Query: "q"}, provider: &stubProvider{err: errors.New("boom")}, marker: services.ErrExternalTool},
		{name: "rate limited", item: research.SearchPlanItem{Query: "q"}, provider: &stubProvider{err: &StatusError{Provider: "stub", StatusCode: 429}}, marker: services.ErrTransient},
		{name: "deadline", item: research.SearchPlanItem{Query: "q"}, provider: &stubProvider{err: context.DeadlineExceeded}, marker: services.ErrTimeout},
		{name: "no results", item: research.SearchPlanItem{Query: "q"}, provider: &stubProvider{}, marker: services.ErrNotFound},
		{name: "summarizer error", item: research.SearchPlanItem{Query: "q"}, provider: &stubProvider{results: sampleResults}, summarizer: &stubSummarizer{err: errors.New("llm down")}, marker: services.ErrExternalTool},
		{name: "empty summary", item: research.SearchPlanItem{Query: "q"}, provider: &stubProvider{results: sampleResults}, summarizer: &stubSummarizer{response: "  "}, marker: services.ErrExternalTool},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := Options{}
			if tt.summarizer != nil {
				opts.Summarizer = tt.summarizer
			}
			exec, _ := NewExecutor(tt.provider, opts)
			outcome := exec.Execute(context.Background(), tt.item)
			if outcome.OK() {
				t.Fatal("expected failure outcome")
			}
			if outcome.Text != "" {
				t.Fatalf("failure carried text %q", outcome.Text)
			}
			if !errors.Is(outcome.Err, tt.marker) {
				t.Fatalf("expected %v, got %v", tt.marker, outcome.Err)
			}
		})
	}
}

func TestExecuteUsesCache(t *testing.T) {
	cache := openCache(t)
	provider := &stubProvider{results: sampleResults}
	exec, _ := NewExecutor(provider, Options{Cache: cache})
	item := research.SearchPlanItem{Query: "heat pumps"}

	first := exec.Execute(context.Background(), item)
	second := exec.Execute(context.Background(), research.SearchPlanItem{Query: "Heat  Pumps"})
	if !first.OK() || !second.OK() {
		t.Fatalf("unexpected failures: %v / %v", first.Err, second.Err)
	}
	if provider.calls != 1 {
		t.Fatalf("expected provider called once, got %d", provider.calls)
	}
	if first.Text != second.Text {
		t.Fatal("cached text differs from fresh text")
	}
	entries, _ := cache.List(context.Background())
	if len(entries) != 1 || entries[0].Provider != "stub" || entries[0].Mode != searchcache.ModeDigest || entries[0].ResultCount != 2 {
		t.Fatalf("unexpected cache entries %+v", entries)
	}
}

func TestExecuteCacheSeparatesDigestFromSummary(t *testing.T) {
	cache := openCache(t)
	provider := &stubProvider{results: sampleResults}
	item := research.SearchPlanItem{Query: "heat pumps", Reason: "basics"}

	digestExec, _ := NewExecutor(provider, Options{Cache: cache})
	digest := digestExec.Execute(context.Background(), item)
	if !digest.OK() || !strings.HasPrefix(digest.Text, "### heat pumps") {
		t.Fatalf("unexpected digest outcome %+v", digest)
	}

	summarizer := &stubSummarizer{response: "Heat pumps are efficient."}
	summaryExec, _ := NewExecutor(provider, Options{Cache: cache, Summarizer: summarizer})
	summary := summaryExec.Execute(context.Background(), item)
	if !summary.OK() || summary.Text != "Heat pumps are efficient." {
		t.Fatalf("expected fresh summary, got %+v", summary)
	}
	if summarizer.prompt == "" {
		t.Fatal("summarizer was not called")
	}
	if provider.calls != 2 {
		t.Fatalf("expected provider called twice, got %d", provider.calls)
	}

	again := digestExec.Execute(context.Background(), item)
	if again.Text != digest.Text || provider.calls != 2 {
		t.Fatalf("expected cached digest, got %q after %d provider calls", again.Text, provider.calls)
	}
	entries, _ := cache.List(context.Background())
	if len(entries) != 2 {
		t.Fatalf("expected digest and summary entries, got %+v", entries)
	}
}

func TestExecuteIgnoresCacheErrors(t *testing.T) {
	cache := openCache(t)
	_ = cache.Close()
	exec, _ := NewExecutor(&stubProvider{results: sampleResults}, Options{Cache: cache})

	outcome := exec.Execute(context.Background(), research.SearchPlanItem{Query: "heat pumps"})
	if !outcome.OK() {
		t.Fatalf("cache failure must not fail the search: %v", outcome.Err)
	}
}

func TestNewExecutorRequiresProvider(t *testing.T) {
	if _, err := NewExecutor(nil, Options{}); err == nil {
		t.Fatal("expected error for nil provider")
	}
}
