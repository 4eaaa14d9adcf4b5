package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

const (
	defaultConfigLocation = "~/.config/deepresearch/config.toml"
	projectConfigName     = "deepresearch.toml"
)

// Paths contains directory configuration.
type Paths struct {
	LogDir    string `toml:"log_dir"`
	CacheDir  string `toml:"cache_dir"`
	ReportDir string `toml:"report_dir"`
}

// LLM contains shared LLM connection settings used by the planner, the search
// summarizer, and the report writer.
type LLM struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	Referer        string `toml:"referer"`
	Title          string `toml:"title"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Planner contains configuration for search planning.
type Planner struct {
	// HowManySearches is the number of searches requested from the model.
	HowManySearches int `toml:"how_many_searches"`
	// MaxSearches truncates the returned plan. Zero keeps every item.
	MaxSearches int `toml:"max_searches"`
	// LLM overrides - if not set, falls back to [llm] settings
	APIKey  string `toml:"api_key"`
	BaseURL string `toml:"base_url"`
	Model   string `toml:"model"`
}

// Search contains configuration for the web search provider and summarizer.
type Search struct {
	Provider       string `toml:"provider"`
	MaxResults     int    `toml:"max_results"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	UserAgent      string `toml:"user_agent"`
	// Endpoint overrides the provider's API URL (proxies, self-hosted mirrors).
	Endpoint     string `toml:"endpoint"`
	BraveAPIKey  string `toml:"brave_api_key"`
	TavilyAPIKey string `toml:"tavily_api_key"`
	TavilyDepth  string `toml:"tavily_depth"`
	// Summarize routes raw results through the LLM before they reach the writer.
	Summarize bool `toml:"summarize"`
	// LLM overrides - if not set, falls back to [llm] settings
	APIKey  string `toml:"api_key"`
	BaseURL string `toml:"base_url"`
	Model   string `toml:"model"`
}

// SearchCache contains configuration for the search result cache.
type SearchCache struct {
	Enabled  bool   `toml:"enabled"`
	Path     string `toml:"path"` // Default: <cache_dir>/search_cache.db
	TTLHours int    `toml:"ttl_hours"`
}

// Writer contains configuration for report synthesis.
type Writer struct {
	APIKey  string `toml:"api_key"`
	BaseURL string `toml:"base_url"`
	Model   string `toml:"model"`
}

// Pipeline contains orchestration bounds. Timeouts are seconds; zero disables.
type Pipeline struct {
	MaxConcurrentSearches int    `toml:"max_concurrent_searches"`
	SearchTimeout         int    `toml:"search_timeout"`
	PlanTimeout           int    `toml:"plan_timeout"`
	WriteTimeout          int    `toml:"write_timeout"`
	NotifyTimeout         int    `toml:"notify_timeout"`
	TraceURLTemplate      string `toml:"trace_url_template"`
}

// Notifications contains configuration for report delivery. Each transport is
// enabled by supplying its credentials.
type Notifications struct {
	RequestTimeout int `toml:"request_timeout"`

	NtfyServer string `toml:"ntfy_server"`
	NtfyTopic  string `toml:"ntfy_topic"`

	SendGridAPIKey string `toml:"sendgrid_api_key"`
	SendGridURL    string `toml:"sendgrid_url"`
	FromEmail      string `toml:"from_email"`
	ToEmail        string `toml:"to_email"`

	PushoverToken string `toml:"pushover_token"`
	PushoverUser  string `toml:"pushover_user"`
	PushoverURL   string `toml:"pushover_url"`

	// WriteFile saves each report as markdown under paths.report_dir.
	WriteFile bool `toml:"write_file"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format             string            `toml:"format"`
	Level              string            `toml:"level"`
	ComponentOverrides map[string]string `toml:"component_overrides"`
}

// Config encapsulates all configuration values for deepresearch.
//
// Configuration sections by subsystem:
//   - Paths: log, cache, and report directories
//   - LLM: shared LLM connection settings
//   - Planner: search plan size and model override
//   - Search: web search provider, result count, summarizer
//   - SearchCache: SQLite cache of search summaries
//   - Writer: report synthesis model override
//   - Pipeline: concurrency bound, timeouts, trace link template
//   - Notifications: ntfy, SendGrid email, Pushover, markdown file
//   - Logging: log format, level, and per-component overrides
type Config struct {
	Paths         Paths         `toml:"paths"`
	LLM           LLM           `toml:"llm"`
	Planner       Planner       `toml:"planner"`
	Search        Search        `toml:"search"`
	SearchCache   SearchCache   `toml:"search_cache"`
	Writer        Writer        `toml:"writer"`
	Pipeline      Pipeline      `toml:"pipeline"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigLocation)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigLocation)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs(projectConfigName)
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the log and cache directories, plus the report
// directory when file delivery is enabled.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.LogDir, c.Paths.CacheDir}
	if c.Notifications.WriteFile {
		dirs = append(dirs, c.Paths.ReportDir)
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func defaultCacheDir() string {
	if base, ok := os.LookupEnv("XDG_CACHE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "deepresearch")
	}
	return defaultCacheDirFallback
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// LLMConfig contains common LLM settings used across features.
type LLMConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	Referer        string
	Title          string
	TimeoutSeconds int
}

// GetLLM returns the shared LLM connection settings.
func (c *Config) GetLLM() LLMConfig {
	return LLMConfig{
		APIKey:         strings.TrimSpace(c.LLM.APIKey),
		BaseURL:        strings.TrimSpace(c.LLM.BaseURL),
		Model:          strings.TrimSpace(c.LLM.Model),
		Referer:        strings.TrimSpace(c.LLM.Referer),
		Title:          strings.TrimSpace(c.LLM.Title),
		TimeoutSeconds: c.LLM.TimeoutSeconds,
	}
}

// PlannerLLM returns the LLM settings for search planning.
// Falls back to [llm] settings when not explicitly configured.
func (c *Config) PlannerLLM() LLMConfig {
	return c.roleLLM(c.Planner.APIKey, c.Planner.BaseURL, c.Planner.Model, "planner")
}

// SearchLLM returns the LLM settings for search result summaries.
// Falls back to [llm] settings when not explicitly configured.
func (c *Config) SearchLLM() LLMConfig {
	return c.roleLLM(c.Search.APIKey, c.Search.BaseURL, c.Search.Model, "search")
}

// WriterLLM returns the LLM settings for report synthesis.
// Falls back to [llm] settings when not explicitly configured.
func (c *Config) WriterLLM() LLMConfig {
	return c.roleLLM(c.Writer.APIKey, c.Writer.BaseURL, c.Writer.Model, "writer")
}

func (c *Config) roleLLM(apiKey, baseURL, model, role string) LLMConfig {
	cfg := c.GetLLM()
	if v := strings.TrimSpace(apiKey); v != "" {
		cfg.APIKey = v
	}
	if v := strings.TrimSpace(baseURL); v != "" {
		cfg.BaseURL = v
	}
	if v := strings.TrimSpace(model); v != "" {
		cfg.Model = v
	}
	if cfg.Title != "" {
		cfg.Title = cfg.Title + " (" + role + ")"
	}
	return cfg
}
