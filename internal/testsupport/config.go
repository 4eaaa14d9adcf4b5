package testsupport

import (
	"path/filepath"
	"testing"

	"deepresearch/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test, a
// placeholder API key, and no notification transports. The directories exist
// when it returns.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.CacheDir = filepath.Join(base, "cache")
	cfgVal.Paths.ReportDir = filepath.Join(base, "reports")
	cfgVal.SearchCache.Path = filepath.Join(base, "cache", "search_cache.db")
	cfgVal.LLM.APIKey = "test-key"
	cfgVal.Notifications.NtfyTopic = ""
	cfgVal.Notifications.SendGridAPIKey = ""
	cfgVal.Notifications.PushoverToken = ""

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("create test directories: %v", err)
	}
	return builder.cfg
}

// WithLLMEndpoint points every LLM role at url.
func WithLLMEndpoint(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.LLM.BaseURL = url
	}
}

// WithFileDelivery enables the markdown file transport.
func WithFileDelivery() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Notifications.WriteFile = true
	}
}

// WithoutSearchCache disables the search cache.
func WithoutSearchCache() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.SearchCache.Enabled = false
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.LogDir)
}
