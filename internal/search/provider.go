package search

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"deepresearch/internal/config"
)

// Result is one web search hit.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// Provider runs a web search against one backend.
type Provider interface {
	Name() string
	Search(ctx context.Context, query string) ([]Result, error)
}

const (
	defaultMaxResults  = 5
	defaultUserAgent   = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
	defaultBackoffBase = time.Second
	defaultBackoffMax  = 30 * time.Second
)

// StatusError reports an unexpected HTTP status from a provider.
type StatusError struct {
	Provider   string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s http %d", e.Provider, e.StatusCode)
}

// Retryable reports whether the status is worth retrying later.
func (e *StatusError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// ErrMissingAPIKey indicates a keyed provider was built without credentials.
var ErrMissingAPIKey = errors.New("search api key missing")

type providerOptions struct {
	client      *http.Client
	endpoint    string
	userAgent   string
	maxResults  int
	backoffBase time.Duration
	backoffMax  time.Duration
	gate        *intervalGate
}

// Option customizes a provider.
type Option func(*providerOptions)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(o *providerOptions) {
		if client != nil {
			o.client = client
		}
	}
}

// WithEndpoint overrides the backend URL.
func WithEndpoint(endpoint string) Option {
	return func(o *providerOptions) {
		if endpoint = strings.TrimSpace(endpoint); endpoint != "" {
			o.endpoint = endpoint
		}
	}
}

// WithUserAgent sets the User-Agent header on outgoing requests.
func WithUserAgent(userAgent string) Option {
	return func(o *providerOptions) {
		if userAgent = strings.TrimSpace(userAgent); userAgent != "" {
			o.userAgent = userAgent
		}
	}
}

// WithMaxResults caps the number of results returned per query.
func WithMaxResults(n int) Option {
	return func(o *providerOptions) {
		if n > 0 {
			o.maxResults = n
		}
	}
}

// WithBackoff configures the 429 retry delay, doubled per attempt up to maxDelay.
func WithBackoff(base, maxDelay time.Duration) Option {
	return func(o *providerOptions) {
		if base > 0 {
			o.backoffBase = base
		}
		if maxDelay > 0 {
			o.backoffMax = maxDelay
		}
	}
}

// WithRateInterval gives the provider its own pacing gate instead of the
// process-wide one. Zero disables pacing.
func WithRateInterval(interval time.Duration) Option {
	return func(o *providerOptions) {
		o.gate = newIntervalGate(interval)
	}
}

func buildOptions(endpoint string, timeout time.Duration, opts []Option) providerOptions {
	o := providerOptions{
		client:      &http.Client{Timeout: timeout},
		endpoint:    endpoint,
		userAgent:   defaultUserAgent,
		maxResults:  defaultMaxResults,
		backoffBase: defaultBackoffBase,
		backoffMax:  defaultBackoffMax,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// NewProvider builds the provider selected by search.provider.
func NewProvider(cfg *config.Config, opts ...Option) (Provider, error) {
	if cfg == nil {
		return nil, errors.New("search: config is nil")
	}
	timeout := time.Duration(cfg.Search.TimeoutSeconds) * time.Second
	base := []Option{
		WithMaxResults(cfg.Search.MaxResults),
		WithUserAgent(cfg.Search.UserAgent),
		WithEndpoint(cfg.Search.Endpoint),
	}
	opts = append(base, opts...)

	switch strings.ToLower(strings.TrimSpace(cfg.Search.Provider)) {
	case "", config.SearchProviderDuckDuckGo:
		return NewDuckDuckGo(timeout, opts...), nil
	case config.SearchProviderBrave:
		return NewBrave(cfg.Search.BraveAPIKey, timeout, opts...)
	case config.SearchProviderTavily:
		return NewTavily(cfg.Search.TavilyAPIKey, cfg.Search.TavilyDepth, timeout, opts...)
	default:
		return nil, fmt.Errorf("search: unknown provider %q", cfg.Search.Provider)
	}
}

func truncateResults(results []Result, limit int) []Result {
	if limit > 0 && len(results) > limit {
		return results[:limit]
	}
	return results
}

// retryTooManyRequests issues requests built by newRequest until the response
// is something other than 429, doubling the delay between attempts.
func retryTooManyRequests(ctx context.Context, o providerOptions, newRequest func() (*http.Request, error)) (*http.Response, error) {
	delay := o.backoffBase
	for {
		req, err := newRequest()
		if err != nil {
			return nil, err
		}
		resp, err := o.client.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}
		resp.Body.Close()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		delay = min(delay*2, o.backoffMax)
	}
}
