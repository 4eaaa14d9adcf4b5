package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"deepresearch/internal/config"
	"deepresearch/internal/searchcache"
	"deepresearch/internal/services/llm"
)

// CheckLLM verifies that the LLM API is reachable and the key is valid.
// It uses a 30-second timeout and a single attempt (no retries).
func CheckLLM(ctx context.Context, name string, cfg config.LLMConfig) Result {
	if cfg.APIKey == "" {
		return Result{Name: name, Detail: "API key missing"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client := llm.NewClient(llm.Config{
		APIKey:         cfg.APIKey,
		BaseURL:        cfg.BaseURL,
		Model:          cfg.Model,
		Referer:        cfg.Referer,
		Title:          cfg.Title,
		TimeoutSeconds: cfg.TimeoutSeconds,
	}, llm.WithRetryMaxAttempts(1))

	if err := client.HealthCheck(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeLLMError(err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s reachable", cfg.Model)}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckSearchProvider verifies the selected provider has its credentials.
func CheckSearchProvider(cfg *config.Config) Result {
	const name = "Search provider"
	provider := strings.ToLower(strings.TrimSpace(cfg.Search.Provider))
	switch provider {
	case "", config.SearchProviderDuckDuckGo:
		return Result{Name: name, Passed: true, Detail: "duckduckgo (no key required)"}
	case config.SearchProviderBrave:
		if strings.TrimSpace(cfg.Search.BraveAPIKey) == "" {
			return Result{Name: name, Detail: "brave (missing api key)"}
		}
		return Result{Name: name, Passed: true, Detail: "brave (api key set)"}
	case config.SearchProviderTavily:
		if strings.TrimSpace(cfg.Search.TavilyAPIKey) == "" {
			return Result{Name: name, Detail: "tavily (missing api key)"}
		}
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("tavily (%s depth)", cfg.Search.TavilyDepth)}
	default:
		return Result{Name: name, Detail: fmt.Sprintf("unknown provider %q", cfg.Search.Provider)}
	}
}

// CheckSearchCache opens the cache database and reports its size. A broken
// cache only degrades performance, so the result is optional.
func CheckSearchCache(ctx context.Context, path string) Result {
	const name = "Search cache"
	cache, err := searchcache.Open(ctx, path, searchcache.Options{})
	if err != nil {
		return Result{Name: name, Optional: true, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	defer cache.Close()
	count, err := cache.Count(ctx)
	if err != nil {
		return Result{Name: name, Optional: true, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	return Result{Name: name, Optional: true, Passed: true, Detail: fmt.Sprintf("%s (%d entries)", path, count)}
}

// CheckNotifications lists the delivery channels that will receive reports.
func CheckNotifications(cfg *config.Config) Result {
	const name = "Notifications"
	n := cfg.Notifications
	var channels []string
	if n.NtfyEnabled() {
		channels = append(channels, "ntfy")
	}
	if n.EmailEnabled() {
		channels = append(channels, "email")
	}
	if n.PushoverEnabled() {
		channels = append(channels, "pushover")
	}
	if n.WriteFile {
		channels = append(channels, "file")
	}
	if len(channels) == 0 {
		return Result{Name: name, Optional: true, Detail: "no channels configured (reports print only)"}
	}
	return Result{Name: name, Optional: true, Passed: true, Detail: strings.Join(channels, ", ")}
}

// summarizeLLMError produces a human-readable summary for LLM health check failures.
func summarizeLLMError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out (LLM API unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (LLM API unreachable)"
	}
	return err.Error()
}
