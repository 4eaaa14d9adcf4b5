package config

import (
	"errors"
	"fmt"
	"strings"
)

// Search providers accepted by search.provider.
const (
	SearchProviderDuckDuckGo = "duckduckgo"
	SearchProviderBrave      = "brave"
	SearchProviderTavily     = "tavily"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateLLM(); err != nil {
		return err
	}
	if err := c.validatePlanner(); err != nil {
		return err
	}
	if err := c.validateSearch(); err != nil {
		return err
	}
	if err := c.validatePipeline(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateLLM() error {
	if c.LLM.APIKey == "" && (c.Planner.APIKey == "" || c.Writer.APIKey == "") {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = defaultConfigLocation
		}
		return fmt.Errorf("llm.api_key is required. Set OPENROUTER_API_KEY env var or edit %s (create with 'deepresearch config init')", defaultPath)
	}
	if c.LLM.Model == "" {
		return errors.New("llm.model must be set")
	}
	if c.LLM.TimeoutSeconds <= 0 {
		return errors.New("llm.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validatePlanner() error {
	if c.Planner.HowManySearches <= 0 {
		return errors.New("planner.how_many_searches must be positive")
	}
	if c.Planner.MaxSearches < 0 {
		return errors.New("planner.max_searches must be >= 0")
	}
	return nil
}

func (c *Config) validateSearch() error {
	switch c.Search.Provider {
	case SearchProviderDuckDuckGo:
	case SearchProviderBrave:
		if c.Search.BraveAPIKey == "" {
			return errors.New("search.brave_api_key must be set when search.provider is brave (or set BRAVE_API_KEY)")
		}
	case SearchProviderTavily:
		if c.Search.TavilyAPIKey == "" {
			return errors.New("search.tavily_api_key must be set when search.provider is tavily (or set TAVILY_API_KEY)")
		}
		if c.Search.TavilyDepth != "basic" && c.Search.TavilyDepth != "advanced" {
			return fmt.Errorf("search.tavily_depth must be basic or advanced, got %q", c.Search.TavilyDepth)
		}
	default:
		return fmt.Errorf("search.provider %q is not supported (use duckduckgo, brave, or tavily)", c.Search.Provider)
	}
	return ensurePositiveMap(map[string]int{
		"search.max_results":     c.Search.MaxResults,
		"search.timeout_seconds": c.Search.TimeoutSeconds,
	})
}

func (c *Config) validatePipeline() error {
	if c.Pipeline.MaxConcurrentSearches < 0 {
		return errors.New("pipeline.max_concurrent_searches must be >= 0")
	}
	return ensureNonNegativeMap(map[string]int{
		"pipeline.search_timeout": c.Pipeline.SearchTimeout,
		"pipeline.plan_timeout":   c.Pipeline.PlanTimeout,
		"pipeline.write_timeout":  c.Pipeline.WriteTimeout,
		"pipeline.notify_timeout": c.Pipeline.NotifyTimeout,
	})
}

func (c *Config) validateNotifications() error {
	n := c.Notifications
	if n.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	if n.SendGridAPIKey != "" {
		if n.FromEmail == "" {
			return errors.New("notifications.from_email must be set when sendgrid_api_key is configured (or set FROM_EMAIL)")
		}
		if n.ToEmail == "" {
			return errors.New("notifications.to_email must be set when sendgrid_api_key is configured (or set TO_EMAIL)")
		}
	}
	if (n.PushoverToken == "") != (n.PushoverUser == "") {
		return errors.New("notifications.pushover_token and notifications.pushover_user must be set together")
	}
	return nil
}

func (c *Config) validateLogging() error {
	for component, level := range c.Logging.ComponentOverrides {
		switch level {
		case "debug", "info", "warn", "error":
		default:
			return fmt.Errorf("logging.component_overrides.%s: unsupported level %q", component, level)
		}
	}
	return nil
}

// EmailEnabled reports whether SendGrid delivery is fully configured.
func (n Notifications) EmailEnabled() bool {
	return n.SendGridAPIKey != "" && n.FromEmail != "" && n.ToEmail != ""
}

// PushoverEnabled reports whether Pushover delivery is fully configured.
func (n Notifications) PushoverEnabled() bool {
	return n.PushoverToken != "" && n.PushoverUser != ""
}

// NtfyEnabled reports whether an ntfy topic is configured.
func (n Notifications) NtfyEnabled() bool {
	return strings.TrimSpace(n.NtfyTopic) != ""
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}

func ensureNonNegativeMap(values map[string]int) error {
	for key, value := range values {
		if value < 0 {
			return fmt.Errorf("%s must be >= 0", key)
		}
	}
	return nil
}
