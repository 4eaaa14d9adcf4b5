package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"gopkg.in/yaml.v3"

	"deepresearch/internal/planner"
	"deepresearch/internal/research"
	"deepresearch/internal/search"
	"deepresearch/internal/searchcache"
	"deepresearch/internal/testsupport"
	"deepresearch/internal/writer"
)

const testLitePage = `<table>
<tr><td><a rel="nofollow" href="https://example.com/heat-pumps" class='result-link'>Cold climate heat pumps</a></td></tr>
<tr><td class='result-snippet'>Field data from Minnesota winters.</td></tr>
</table>`

type cliTestEnv struct {
	configPath string
	reportDir  string
	searches   *atomic.Int32
}

// setupCLITestEnv writes a config pointing at local LLM and search servers.
func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	t.Setenv("HOME", filepath.Join(base, "home"))
	for _, name := range []string{"NTFY_TOPIC", "SENDGRID_API_KEY", "PUSHOVER_TOKEN", "PUSHOVER_USER", "BRAVE_API_KEY", "TAVILY_API_KEY"} {
		t.Setenv(name, "")
	}

	llm := testsupport.NewLLMServer(t, researchChat)

	searches := &atomic.Int32{}
	ddg := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		searches.Add(1)
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, testLitePage)
	}))
	t.Cleanup(ddg.Close)

	env := &cliTestEnv{
		configPath: filepath.Join(base, "deepresearch.toml"),
		reportDir:  filepath.Join(base, "reports"),
		searches:   searches,
	}
	content := fmt.Sprintf(`[paths]
log_dir = %q
cache_dir = %q
report_dir = %q

[llm]
api_key = "test-key"
base_url = %q

[planner]
how_many_searches = 1

[search]
provider = "duckduckgo"
endpoint = %q

[notifications]
write_file = true
`, filepath.Join(base, "logs"), filepath.Join(base, "cache"), env.reportDir, llm.URL, ddg.URL)
	if err := os.WriteFile(env.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return env
}

func researchChat(system, _ string) (string, int) {
	switch system {
	case planner.SearchPlanPrompt:
		return `{"searches":[{"reason":"field performance","query":"cold climate heat pump efficiency"}]}`, 0
	case search.SummaryPrompt:
		return "Heat pumps keep a COP above 2 at -15C.", 0
	case writer.ReportPrompt:
		return `{"short_summary":"They work in the cold.","markdown_report":"## Findings\n\nCOP stays above 2.","follow_up_questions":["What about ground source?"]}`, 0
	}
	return "unknown prompt", http.StatusBadRequest
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if configPath != "" {
		args = append([]string{"--config", configPath}, args...)
	}
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q, got:\n%s", needle, haystack)
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, "Search provider: duckduckgo")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected init to refuse overwriting an existing file")
	}
}

func TestPlanCommandFormats(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"plan", "--format", "json", "heat", "pumps"}, env.configPath)
	if err != nil {
		t.Fatalf("plan json: %v", err)
	}
	var plan research.SearchPlan
	if err := json.Unmarshal([]byte(out), &plan); err != nil {
		t.Fatalf("decode plan: %v\n%s", err, out)
	}
	if plan.Len() != 1 || plan.Searches[0].Query != "cold climate heat pump efficiency" {
		t.Fatalf("unexpected plan %+v", plan)
	}

	out, _, err = runCLI(t, []string{"plan", "-f", "yaml", "heat pumps"}, env.configPath)
	if err != nil {
		t.Fatalf("plan yaml: %v", err)
	}
	var fromYAML research.SearchPlan
	if err := yaml.Unmarshal([]byte(out), &fromYAML); err != nil {
		t.Fatalf("decode yaml: %v", err)
	}
	if fromYAML.Len() != 1 || fromYAML.Searches[0].Reason != "field performance" {
		t.Fatalf("unexpected yaml plan %+v", fromYAML)
	}

	out, _, err = runCLI(t, []string{"plan", "heat pumps"}, env.configPath)
	if err != nil {
		t.Fatalf("plan table: %v", err)
	}
	requireContains(t, out, "cold climate heat pump efficiency")

	if _, _, err := runCLI(t, []string{"plan", "-f", "xml", "heat pumps"}, env.configPath); err == nil {
		t.Fatal("expected error for unknown format")
	}
	if env.searches.Load() != 0 {
		t.Fatal("plan must not run searches")
	}
}

func TestRunCommandStreamsJSONEvents(t *testing.T) {
	env := setupCLITestEnv(t)
	output := filepath.Join(t.TempDir(), "out", "report.md")

	out, _, err := runCLI(t, []string{"run", "--json", "--output", output, "are heat pumps viable in cold climates"}, env.configPath)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	var events []research.Event
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		var ev research.Event
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			t.Fatalf("decode event line %q: %v", scanner.Text(), err)
		}
		events = append(events, ev)
	}
	if len(events) != len(research.Checkpoints)+1 {
		t.Fatalf("expected %d events, got %d:\n%s", len(research.Checkpoints)+1, len(events), out)
	}
	for i, cp := range research.Checkpoints {
		if events[i].Kind != research.EventInfo || events[i].Checkpoint != cp {
			t.Fatalf("event %d = %+v, want info %s", i, events[i], cp)
		}
	}
	requireContains(t, events[len(events)-2].Message, "file")
	final := events[len(events)-1]
	if final.Kind != research.EventFinal || final.Artifact == nil || final.Artifact.ShortSummary != "They work in the cold." {
		t.Fatalf("unexpected final event %+v", final)
	}
	if env.searches.Load() != 1 {
		t.Fatalf("expected 1 search, got %d", env.searches.Load())
	}

	saved, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	requireContains(t, string(saved), "## Follow-up questions")

	reports, err := filepath.Glob(filepath.Join(env.reportDir, "*.md"))
	if err != nil || len(reports) != 1 {
		t.Fatalf("expected one delivered report, got %v (%v)", reports, err)
	}
}

func TestRunCommandPrintsCheckpointsAndReport(t *testing.T) {
	env := setupCLITestEnv(t)

	out, errOut, err := runCLI(t, []string{"run", "--no-notify", "--no-cache", "heat pumps"}, env.configPath)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	requireContains(t, errOut, "[1/5]")
	requireContains(t, errOut, "[5/5]")
	requireContains(t, out, "COP stays above 2.")
	requireContains(t, out, "What about ground source?")

	if reports, _ := filepath.Glob(filepath.Join(env.reportDir, "*.md")); len(reports) != 0 {
		t.Fatalf("--no-notify must skip delivery, found %v", reports)
	}
}

func TestRunCommandRequiresQuery(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, []string{"run"}, env.configPath); err == nil {
		t.Fatal("expected error without a query")
	}
}

func TestCacheCommands(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, []string{"run", "--no-notify", "heat pumps"}, env.configPath); err != nil {
		t.Fatalf("run: %v", err)
	}
	if _, _, err := runCLI(t, []string{"run", "--no-notify", "heat pumps"}, env.configPath); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if env.searches.Load() != 1 {
		t.Fatalf("second run should hit the cache, provider called %d times", env.searches.Load())
	}

	out, _, err := runCLI(t, []string{"cache", "list", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("cache list: %v", err)
	}
	var entries []searchcache.Entry
	if err := json.Unmarshal([]byte(out), &entries); err != nil {
		t.Fatalf("decode entries: %v", err)
	}
	if len(entries) != 1 || entries[0].Provider != "duckduckgo" || entries[0].ResultCount != 1 {
		t.Fatalf("unexpected entries %+v", entries)
	}

	out, _, err = runCLI(t, []string{"cache", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("cache list table: %v", err)
	}
	requireContains(t, out, "cold climate heat pump efficiency")

	out, _, err = runCLI(t, []string{"cache", "purge"}, env.configPath)
	if err != nil {
		t.Fatalf("cache purge: %v", err)
	}
	requireContains(t, out, "Purged 0 expired searches")

	out, _, err = runCLI(t, []string{"cache", "clear"}, env.configPath)
	if err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	requireContains(t, out, "Removed 1 cached search")

	out, _, err = runCLI(t, []string{"cache", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("cache list after clear: %v", err)
	}
	requireContains(t, out, "Search cache is empty")
}

func TestStatusCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"status"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v\n%s", err, out)
	}
	requireContains(t, out, "Planner LLM:")
	requireContains(t, out, "[OK]")

	out, _, err = runCLI(t, []string{"status", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("status json: %v", err)
	}
	var report statusReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if !report.Ready || len(report.Checks) == 0 {
		t.Fatalf("unexpected status %+v", report)
	}
}

func TestTestNotifyWritesFile(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"test-notify"}, env.configPath)
	if err != nil {
		t.Fatalf("test-notify: %v", err)
	}
	requireContains(t, out, "Test notification sent via file")
	if reports, _ := filepath.Glob(filepath.Join(env.reportDir, "*.md")); len(reports) != 1 {
		t.Fatalf("expected one test report, found %v", reports)
	}
}

func TestLogsCommandFiltersByComponent(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, []string{"run", "--no-notify", "--no-cache", "heat pumps"}, env.configPath); err != nil {
		t.Fatalf("run: %v", err)
	}
	out, _, err := runCLI(t, []string{"logs", "--component", "planner", "-n", "5"}, env.configPath)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	requireContains(t, out, "[planner] search plan ready")
	if strings.Contains(out, "[writer]") {
		t.Fatalf("component filter leaked other records:\n%s", out)
	}

	out, _, err = runCLI(t, []string{"logs", "--raw", "-n", "1"}, env.configPath)
	if err != nil {
		t.Fatalf("logs raw: %v", err)
	}
	if !strings.HasPrefix(strings.TrimSpace(out), "{") {
		t.Fatalf("expected a raw JSON line, got %q", out)
	}
}
