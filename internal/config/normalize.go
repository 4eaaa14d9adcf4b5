package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLLM()
	c.normalizePlanner()
	c.normalizeSearch()
	if err := c.normalizeSearchCache(); err != nil {
		return err
	}
	c.normalizePipeline()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		c.Paths.CacheDir = defaultCacheDir()
	}
	if c.Paths.CacheDir, err = expandPath(c.Paths.CacheDir); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.ReportDir) == "" {
		c.Paths.ReportDir = defaultReportDir
	}
	if c.Paths.ReportDir, err = expandPath(c.Paths.ReportDir); err != nil {
		return fmt.Errorf("paths.report_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeLLM() {
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	if c.LLM.APIKey == "" {
		c.LLM.APIKey = lookupEnv("OPENROUTER_API_KEY", "OPENAI_API_KEY")
	}
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		c.LLM.Model = defaultLLMModel
	}
	c.LLM.Referer = strings.TrimSpace(c.LLM.Referer)
	c.LLM.Title = strings.TrimSpace(c.LLM.Title)
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
}

func (c *Config) normalizePlanner() {
	if c.Planner.HowManySearches <= 0 {
		c.Planner.HowManySearches = defaultHowManySearches
	}
	if c.Planner.MaxSearches < 0 {
		c.Planner.MaxSearches = 0
	}
}

func (c *Config) normalizeSearch() {
	c.Search.Provider = strings.ToLower(strings.TrimSpace(c.Search.Provider))
	if c.Search.Provider == "" {
		c.Search.Provider = defaultSearchProvider
	}
	if c.Search.MaxResults <= 0 {
		c.Search.MaxResults = defaultSearchMaxResults
	}
	if c.Search.TimeoutSeconds <= 0 {
		c.Search.TimeoutSeconds = defaultSearchTimeoutSeconds
	}
	c.Search.UserAgent = strings.TrimSpace(c.Search.UserAgent)
	if c.Search.UserAgent == "" {
		c.Search.UserAgent = defaultSearchUserAgent
	}
	c.Search.BraveAPIKey = strings.TrimSpace(c.Search.BraveAPIKey)
	if c.Search.BraveAPIKey == "" {
		c.Search.BraveAPIKey = lookupEnv("BRAVE_API_KEY")
	}
	c.Search.TavilyAPIKey = strings.TrimSpace(c.Search.TavilyAPIKey)
	if c.Search.TavilyAPIKey == "" {
		c.Search.TavilyAPIKey = lookupEnv("TAVILY_API_KEY")
	}
	c.Search.TavilyDepth = strings.ToLower(strings.TrimSpace(c.Search.TavilyDepth))
	if c.Search.TavilyDepth == "" {
		c.Search.TavilyDepth = defaultTavilyDepth
	}
}

func (c *Config) normalizeSearchCache() error {
	var err error
	if strings.TrimSpace(c.SearchCache.Path) == "" {
		c.SearchCache.Path = filepath.Join(c.Paths.CacheDir, defaultSearchCacheFile)
	}
	if c.SearchCache.Path, err = expandPath(c.SearchCache.Path); err != nil {
		return fmt.Errorf("search_cache.path: %w", err)
	}
	if c.SearchCache.TTLHours < 0 {
		c.SearchCache.TTLHours = 0
	}
	return nil
}

func (c *Config) normalizePipeline() {
	if c.Pipeline.MaxConcurrentSearches < 0 {
		c.Pipeline.MaxConcurrentSearches = 0
	}
	c.Pipeline.TraceURLTemplate = strings.TrimSpace(c.Pipeline.TraceURLTemplate)
}

func (c *Config) normalizeNotifications() {
	n := &c.Notifications
	if n.RequestTimeout <= 0 {
		n.RequestTimeout = defaultNotifyRequestTimeout
	}
	n.NtfyServer = strings.TrimRight(strings.TrimSpace(n.NtfyServer), "/")
	if n.NtfyServer == "" {
		n.NtfyServer = defaultNtfyServer
	}
	n.NtfyTopic = strings.TrimSpace(n.NtfyTopic)
	if n.NtfyTopic == "" {
		n.NtfyTopic = lookupEnv("NTFY_TOPIC")
	}
	n.SendGridAPIKey = strings.TrimSpace(n.SendGridAPIKey)
	if n.SendGridAPIKey == "" {
		n.SendGridAPIKey = lookupEnv("SENDGRID_API_KEY")
	}
	n.SendGridURL = strings.TrimSpace(n.SendGridURL)
	if n.SendGridURL == "" {
		n.SendGridURL = defaultSendGridURL
	}
	n.FromEmail = strings.TrimSpace(n.FromEmail)
	if n.FromEmail == "" {
		n.FromEmail = lookupEnv("FROM_EMAIL")
	}
	n.ToEmail = strings.TrimSpace(n.ToEmail)
	if n.ToEmail == "" {
		n.ToEmail = lookupEnv("TO_EMAIL")
	}
	n.PushoverToken = strings.TrimSpace(n.PushoverToken)
	if n.PushoverToken == "" {
		n.PushoverToken = lookupEnv("PUSHOVER_TOKEN")
	}
	n.PushoverUser = strings.TrimSpace(n.PushoverUser)
	if n.PushoverUser == "" {
		n.PushoverUser = lookupEnv("PUSHOVER_USER")
	}
	n.PushoverURL = strings.TrimSpace(n.PushoverURL)
	if n.PushoverURL == "" {
		n.PushoverURL = defaultPushoverURL
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if len(c.Logging.ComponentOverrides) > 0 {
		overrides := make(map[string]string, len(c.Logging.ComponentOverrides))
		for component, level := range c.Logging.ComponentOverrides {
			key := strings.ToLower(strings.TrimSpace(component))
			if key == "" {
				continue
			}
			overrides[key] = strings.ToLower(strings.TrimSpace(level))
		}
		c.Logging.ComponentOverrides = overrides
	}
}

// lookupEnv returns the first non-empty value among the named variables.
func lookupEnv(names ...string) string {
	for _, name := range names {
		if value, ok := os.LookupEnv(name); ok {
			if trimmed := strings.TrimSpace(value); trimmed != "" {
				return trimmed
			}
		}
	}
	return ""
}
