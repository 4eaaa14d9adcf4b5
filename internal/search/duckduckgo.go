package search

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

const duckDuckGoEndpoint = "https://lite.duckduckgo.com/lite/"

// ddgGate paces every DuckDuckGo instance in the process to one query per second.
var ddgGate = newIntervalGate(time.Second)

var (
	ddgLinkPattern    = regexp.MustCompile(`<a[^>]*class=['"]result-link['"][^>]*href=['"]([^'"]+)['"][^>]*>(.*?)</a>`)
	ddgLinkPatternAlt = regexp.MustCompile(`<a[^>]*href=['"]([^'"]+)['"][^>]*class=['"]result-link['"][^>]*>(.*?)</a>`)
	ddgSnippetPattern = regexp.MustCompile(`(?s)<td[^>]*class=['"]result-snippet['"][^>]*>(.*?)</td>`)
	ddgAnyLinkPattern = regexp.MustCompile(`<a[^>]+href=['"]([^'"]+)['"][^>]*>([^<]+)</a>`)
	htmlTagPattern    = regexp.MustCompile(`<[^>]+>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

const minFallbackTitleLen = 5

// DuckDuckGo scrapes DuckDuckGo's lite HTML interface. No key is required.
type DuckDuckGo struct {
	opts providerOptions
}

var _ Provider = (*DuckDuckGo)(nil)

// NewDuckDuckGo constructs a DuckDuckGo provider.
func NewDuckDuckGo(timeout time.Duration, opts ...Option) *DuckDuckGo {
	o := buildOptions(duckDuckGoEndpoint, timeout, opts)
	if o.gate == nil {
		o.gate = ddgGate
	}
	return &DuckDuckGo{opts: o}
}

// Name identifies the provider.
func (d *DuckDuckGo) Name() string { return "duckduckgo" }

// Search posts the query to the lite endpoint and parses the result table.
func (d *DuckDuckGo) Search(ctx context.Context, query string) ([]Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errors.New("duckduckgo: query is empty")
	}
	if err := d.opts.gate.wait(ctx); err != nil {
		return nil, err
	}

	form := url.Values{}
	form.Set("q", query)
	resp, err := retryTooManyRequests(ctx, d.opts, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.opts.endpoint, strings.NewReader(form.Encode()))
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", d.opts.userAgent)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return req, nil
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Provider: d.Name(), StatusCode: resp.StatusCode}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("duckduckgo: read response: %w", err)
	}
	return parseDuckDuckGoHTML(string(body), d.opts.maxResults), nil
}

func parseDuckDuckGoHTML(page string, limit int) []Result {
	matches := ddgLinkPattern.FindAllStringSubmatch(page, -1)
	if len(matches) == 0 {
		matches = ddgLinkPatternAlt.FindAllStringSubmatch(page, -1)
	}
	snippets := ddgSnippetPattern.FindAllStringSubmatch(page, -1)

	var results []Result
	for i, match := range matches {
		link := resolveDuckDuckGoLink(match[1])
		title := cleanHTML(match[2])
		if link == "" || title == "" {
			continue
		}
		snippet := ""
		if i < len(snippets) {
			snippet = cleanHTML(snippets[i][1])
		}
		results = append(results, Result{Title: title, URL: link, Snippet: snippet})
		if limit > 0 && len(results) >= limit {
			return results
		}
	}
	if len(results) == 0 {
		return fallbackDuckDuckGoLinks(page, limit)
	}
	return results
}

// fallbackDuckDuckGoLinks keeps any external link with a plausible title.
func fallbackDuckDuckGoLinks(page string, limit int) []Result {
	var results []Result
	seen := make(map[string]struct{})
	for _, match := range ddgAnyLinkPattern.FindAllStringSubmatch(page, -1) {
		link := resolveDuckDuckGoLink(match[1])
		title := cleanHTML(match[2])
		if link == "" || len(title) < minFallbackTitleLen || strings.Contains(link, "duckduckgo.com") {
			continue
		}
		if _, dup := seen[link]; dup {
			continue
		}
		seen[link] = struct{}{}
		results = append(results, Result{Title: title, URL: link})
		if limit > 0 && len(results) >= limit {
			break
		}
	}
	return results
}

// resolveDuckDuckGoLink unwraps /l/?uddg= redirect links and drops internal
// or script hrefs.
func resolveDuckDuckGoLink(raw string) string {
	raw = strings.TrimSpace(html.UnescapeString(raw))
	if raw == "" || strings.HasPrefix(raw, "#") || strings.HasPrefix(raw, "javascript:") {
		return ""
	}
	if strings.HasPrefix(raw, "//") {
		raw = "https:" + raw
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if strings.HasSuffix(parsed.Host, "duckduckgo.com") && strings.HasPrefix(parsed.Path, "/l/") {
		if target := parsed.Query().Get("uddg"); target != "" {
			return target
		}
	}
	if parsed.Host == "" {
		return ""
	}
	return raw
}

func cleanHTML(s string) string {
	s = htmlTagPattern.ReplaceAllString(s, "")
	s = html.UnescapeString(s)
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(s, " "))
}
