package app_test

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"testing"

	"deepresearch/internal/app"
	"deepresearch/internal/config"
	"deepresearch/internal/planner"
	"deepresearch/internal/research"
	"deepresearch/internal/search"
	"deepresearch/internal/testsupport"
	"deepresearch/internal/writer"
)

type fakeProvider struct {
	mu      sync.Mutex
	queries []string
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Search(_ context.Context, query string) ([]search.Result, error) {
	f.mu.Lock()
	f.queries = append(f.queries, query)
	f.mu.Unlock()
	return []search.Result{{Title: "About " + query, URL: "https://example.com/" + strings.ReplaceAll(query, " ", "-"), Snippet: "details on " + query}}, nil
}

// researchChat answers each role by its system prompt.
func researchChat(system, user string) (string, int) {
	switch system {
	case planner.SearchPlanPrompt:
		return `{"searches":[{"reason":"a","query":"alpha topic"},{"reason":"b","query":"beta topic"}]}`, 0
	case search.SummaryPrompt:
		return "summary of " + strings.SplitN(strings.TrimPrefix(user, "Search term: "), "\n", 2)[0], 0
	case writer.ReportPrompt:
		return `{"short_summary":"short","markdown_report":"# Report\n\nbody","follow_up_questions":["next?"]}`, 0
	}
	return "unknown prompt", http.StatusBadRequest
}

func testConfig(t *testing.T, llmURL string) *config.Config {
	t.Helper()
	return testsupport.NewConfig(t, testsupport.WithLLMEndpoint(llmURL), testsupport.WithFileDelivery())
}

func TestAppRunsPipelineEndToEnd(t *testing.T) {
	cfg := testConfig(t, testsupport.NewLLMServer(t, researchChat).URL)
	provider := &fakeProvider{}

	a, err := app.New(context.Background(), cfg, app.Options{Provider: provider})
	if err != nil {
		t.Fatalf("app.New: %v", err)
	}
	defer a.Close()
	if a.Cache == nil {
		t.Fatal("expected search cache to be opened")
	}

	artifact, events, err := a.Orchestrator.Execute(context.Background(), "compare alpha and beta")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if artifact.Title != "Compare Alpha And Beta" || artifact.ShortSummary != "short" {
		t.Fatalf("unexpected artifact %+v", artifact)
	}
	if len(events) != len(research.Checkpoints)+1 {
		t.Fatalf("expected %d events, got %d", len(research.Checkpoints)+1, len(events))
	}
	last := events[len(events)-1]
	if last.Kind != research.EventFinal || last.Artifact == nil {
		t.Fatalf("last event is not final: %+v", last)
	}
	if !strings.Contains(events[len(events)-2].Message, "file") {
		t.Fatalf("expected delivery via file, got %q", events[len(events)-2].Message)
	}
	if len(provider.queries) != 2 {
		t.Fatalf("expected 2 searches, got %v", provider.queries)
	}

	entries, err := a.Cache.List(context.Background())
	if err != nil {
		t.Fatalf("cache list: %v", err)
	}
	if len(entries) != 2 || !strings.HasPrefix(entries[0].Summary, "summary of ") {
		t.Fatalf("unexpected cache entries %+v", entries)
	}
}

func TestAppUsesNotifierOverride(t *testing.T) {
	cfg := testConfig(t, testsupport.NewLLMServer(t, researchChat).URL)
	cfg.SearchCache.Enabled = false
	cfg.Search.Summarize = false

	var delivered research.ReportArtifact
	notifier := research.NotifierFunc(func(_ context.Context, artifact research.ReportArtifact) (research.Acknowledgement, error) {
		delivered = artifact
		return research.Acknowledgement{Channel: "test"}, nil
	})
	a, err := app.New(context.Background(), cfg, app.Options{Provider: &fakeProvider{}, Notifier: notifier})
	if err != nil {
		t.Fatalf("app.New: %v", err)
	}
	defer a.Close()
	if a.Notifications != nil || a.Cache != nil {
		t.Fatal("expected overrides to replace configured notifier and cache")
	}
	if _, _, err := a.Orchestrator.Execute(context.Background(), "alpha"); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if delivered.MarkdownBody != "# Report\n\nbody" {
		t.Fatalf("unexpected delivered artifact %+v", delivered)
	}
}

func TestAppRejectsBadTraceTemplate(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:0")
	cfg.Pipeline.TraceURLTemplate = "https://traces.example/"
	if _, err := app.New(context.Background(), cfg, app.Options{Provider: &fakeProvider{}, NoCache: true}); err == nil {
		t.Fatal("expected error for template without placeholder")
	}
}
