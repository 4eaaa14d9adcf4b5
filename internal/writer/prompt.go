package writer

import (
	"fmt"
	"strings"
)

// ReportPrompt instructs the model to synthesize the final report.
const ReportPrompt = `You are a senior researcher tasked with writing a cohesive report for a research query. You will be provided with the original query and some initial research done by a research assistant.

You should first come up with an outline for the report that describes the structure and flow of the report. Then, generate the report and return that as your final output.

The final output should be in markdown format, and it should be lengthy and detailed. Aim for 5-10 pages of content, at least 1000 words.

Respond with JSON only, in exactly this shape:
{"short_summary": "a 2-3 sentence summary of the findings", "markdown_report": "the final report in markdown", "follow_up_questions": ["suggested topics to research further"]}`

// maxResultChars caps each search summary so many results still fit the
// model's context window.
const maxResultChars = 4000

func buildUserPrompt(query string, results []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Original query: %s\n\n", query)
	if len(results) == 0 {
		b.WriteString("Summarized search results: none were available. Write the best report you can from general knowledge and say clearly that no web sources were consulted.\n")
		return b.String()
	}
	b.WriteString("Summarized search results:\n")
	for i, result := range results {
		text := strings.TrimSpace(result)
		if runes := []rune(text); len(runes) > maxResultChars {
			text = string(runes[:maxResultChars]) + "..."
		}
		fmt.Fprintf(&b, "\n[%d]\n%s\n", i+1, text)
	}
	return b.String()
}
