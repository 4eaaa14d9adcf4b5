package search

import (
	"fmt"
	"strings"
)

// SummaryPrompt instructs the model to condense raw search results for the
// report writer.
const SummaryPrompt = `You are a research assistant. Given a search term and the web results returned for it, produce a concise summary of those results.

The summary must be 2-3 paragraphs and less than 300 words. Capture the main points. Write succinctly; complete sentences and polished grammar are not required. This will be consumed by someone synthesizing a report, so capture the essence and ignore any fluff.

Do not include any additional commentary other than the summary itself.`

func buildSummaryInput(query, reason string, results []Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Search term: %s\n", query)
	if reason = strings.TrimSpace(reason); reason != "" {
		fmt.Fprintf(&b, "Reason for searching: %s\n", reason)
	}
	b.WriteString("\nResults:\n")
	for i, r := range results {
		fmt.Fprintf(&b, "\n[%d] %s\n%s\n", i+1, r.Title, r.URL)
		if r.Snippet != "" {
			b.WriteString(r.Snippet)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// digest renders results as a markdown list when no summarizer is configured.
func digest(query string, results []Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "### %s\n\n", query)
	for _, r := range results {
		fmt.Fprintf(&b, "- [%s](%s)", r.Title, r.URL)
		if r.Snippet != "" {
			b.WriteString(": ")
			b.WriteString(r.Snippet)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
