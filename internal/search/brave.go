package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const braveEndpoint = "https://api.search.brave.com/res/v1/web/search"

// Brave queries the Brave Search API. Instances sharing an API key share one
// gate so the per-second quota holds across goroutines.
type Brave struct {
	apiKey string
	opts   providerOptions
}

var _ Provider = (*Brave)(nil)

// NewBrave constructs a Brave provider.
func NewBrave(apiKey string, timeout time.Duration, opts ...Option) (*Brave, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("brave: %w", ErrMissingAPIKey)
	}
	return &Brave{apiKey: apiKey, opts: buildOptions(braveEndpoint, timeout, opts)}, nil
}

// Name identifies the provider.
func (b *Brave) Name() string { return "brave" }

// Search runs the query, retrying 429 responses after the advertised reset.
func (b *Brave) Search(ctx context.Context, query string) ([]Result, error) {
	endpoint, err := url.Parse(b.opts.endpoint)
	if err != nil {
		return nil, fmt.Errorf("brave: parse endpoint: %w", err)
	}
	params := endpoint.Query()
	params.Set("q", query)
	params.Set("count", strconv.Itoa(b.opts.maxResults))
	endpoint.RawQuery = params.Encode()

	gate := keyGateFor(b.Name(), b.apiKey)
	var resp *http.Response
	for {
		if err := gate.acquire(ctx); err != nil {
			return nil, err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
		if err != nil {
			gate.release(0)
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", b.opts.userAgent)
		req.Header.Set("X-Subscription-Token", b.apiKey)

		resp, err = b.opts.client.Do(req)
		if err != nil {
			gate.release(b.opts.backoffBase)
			return nil, err
		}
		if resp.StatusCode != http.StatusTooManyRequests {
			gate.release(braveNextDelay(resp.Header, b.opts.backoffBase))
			break
		}
		resp.Body.Close()
		gate.release(braveRetryDelay(resp.Header, b.opts.backoffBase))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Provider: b.Name(), StatusCode: resp.StatusCode}
	}

	var payload struct {
		Web struct {
			Results []struct {
				Title       string `json:"title"`
				URL         string `json:"url"`
				Description string `json:"description"`
			} `json:"results"`
		} `json:"web"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("brave: decode response: %w", err)
	}

	results := make([]Result, 0, len(payload.Web.Results))
	for _, r := range payload.Web.Results {
		results = append(results, Result{Title: cleanHTML(r.Title), URL: r.URL, Snippet: cleanHTML(r.Description)})
	}
	return truncateResults(results, b.opts.maxResults), nil
}

// braveRetryDelay reads X-RateLimit-Reset ("1, 1419704": per-second and
// per-month windows) and waits for the soonest reset.
func braveRetryDelay(h http.Header, fallback time.Duration) time.Duration {
	soonest := -1
	for _, part := range strings.Split(h.Get("X-RateLimit-Reset"), ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 0 {
			continue
		}
		if soonest < 0 || n < soonest {
			soonest = n
		}
	}
	if soonest <= 0 {
		return fallback
	}
	return time.Duration(soonest) * time.Second
}

// braveNextDelay holds the gate when the per-second bucket is empty or the
// header is absent.
func braveNextDelay(h http.Header, fallback time.Duration) time.Duration {
	raw := h.Get("X-RateLimit-Remaining")
	if raw == "" {
		return fallback
	}
	perSecond, err := strconv.Atoi(strings.TrimSpace(strings.SplitN(raw, ",", 2)[0]))
	if err != nil || perSecond <= 0 {
		return fallback
	}
	return 0
}
