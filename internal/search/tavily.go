package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const tavilyEndpoint = "https://api.tavily.com/search"

// Tavily posts queries to the Tavily search API.
type Tavily struct {
	apiKey string
	depth  string
	opts   providerOptions
}

var _ Provider = (*Tavily)(nil)

// NewTavily constructs a Tavily provider. depth is "basic" or "advanced".
func NewTavily(apiKey, depth string, timeout time.Duration, opts ...Option) (*Tavily, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("tavily: %w", ErrMissingAPIKey)
	}
	depth = strings.ToLower(strings.TrimSpace(depth))
	if depth == "" {
		depth = "basic"
	}
	return &Tavily{apiKey: apiKey, depth: depth, opts: buildOptions(tavilyEndpoint, timeout, opts)}, nil
}

// Name identifies the provider.
func (t *Tavily) Name() string { return "tavily" }

type tavilyRequest struct {
	Query       string `json:"query"`
	SearchDepth string `json:"search_depth"`
	MaxResults  int    `json:"max_results"`
}

// Search posts the query, retrying 429 with doubling backoff.
func (t *Tavily) Search(ctx context.Context, query string) ([]Result, error) {
	payload, err := json.Marshal(tavilyRequest{Query: query, SearchDepth: t.depth, MaxResults: t.opts.maxResults})
	if err != nil {
		return nil, fmt.Errorf("tavily: encode request: %w", err)
	}

	resp, err := retryTooManyRequests(ctx, t.opts, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.opts.endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+t.apiKey)
		req.Header.Set("User-Agent", t.opts.userAgent)
		return req, nil
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Provider: t.Name(), StatusCode: resp.StatusCode}
	}

	var response struct {
		Results []struct {
			Title   string `json:"title"`
			URL     string `json:"url"`
			Content string `json:"content"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("tavily: decode response: %w", err)
	}

	results := make([]Result, 0, len(response.Results))
	for _, r := range response.Results {
		results = append(results, Result{Title: r.Title, URL: r.URL, Snippet: strings.TrimSpace(r.Content)})
	}
	return truncateResults(results, t.opts.maxResults), nil
}
