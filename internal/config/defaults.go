package config

const (
	defaultLogDir                = "~/.local/share/deepresearch/logs"
	defaultCacheDirFallback      = "~/.cache/deepresearch"
	defaultReportDir             = "~/.local/share/deepresearch/reports"
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
	defaultLLMBaseURL            = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel              = "openai/gpt-4o-mini"
	defaultLLMReferer            = "https://github.com/deepresearch/deepresearch"
	defaultLLMTitle              = "Deep Research"
	defaultLLMTimeoutSeconds     = 120
	defaultHowManySearches       = 5
	defaultSearchProvider        = "duckduckgo"
	defaultSearchMaxResults      = 5
	defaultSearchTimeoutSeconds  = 20
	defaultSearchUserAgent       = "deepresearch/dev"
	defaultTavilyDepth           = "basic"
	defaultSearchCacheFile       = "search_cache.db"
	defaultSearchCacheTTLHours   = 24
	defaultMaxConcurrentSearches = 5
	defaultPipelineSearchTimeout = 120
	defaultPipelinePlanTimeout   = 180
	defaultPipelineWriteTimeout  = 600
	defaultPipelineNotifyTimeout = 60
	defaultNtfyServer            = "https://ntfy.sh"
	defaultSendGridURL           = "https://api.sendgrid.com/v3/mail/send"
	defaultPushoverURL           = "https://api.pushover.net/1/messages.json"
	defaultNotifyRequestTimeout  = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir:    defaultLogDir,
			CacheDir:  defaultCacheDir(),
			ReportDir: defaultReportDir,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Referer:        defaultLLMReferer,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		Planner: Planner{
			HowManySearches: defaultHowManySearches,
		},
		Search: Search{
			Provider:       defaultSearchProvider,
			MaxResults:     defaultSearchMaxResults,
			TimeoutSeconds: defaultSearchTimeoutSeconds,
			UserAgent:      defaultSearchUserAgent,
			TavilyDepth:    defaultTavilyDepth,
			Summarize:      true,
		},
		SearchCache: SearchCache{
			Enabled:  true,
			TTLHours: defaultSearchCacheTTLHours,
		},
		Pipeline: Pipeline{
			MaxConcurrentSearches: defaultMaxConcurrentSearches,
			SearchTimeout:         defaultPipelineSearchTimeout,
			PlanTimeout:           defaultPipelinePlanTimeout,
			WriteTimeout:          defaultPipelineWriteTimeout,
			NotifyTimeout:         defaultPipelineNotifyTimeout,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			NtfyServer:     defaultNtfyServer,
			SendGridURL:    defaultSendGridURL,
			PushoverURL:    defaultPushoverURL,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
