package planner

import (
	"fmt"
	"strings"
)

// SearchPlanPrompt instructs the model to plan web searches for a query.
const SearchPlanPrompt = `You are a helpful research assistant. Given a query, come up with a set of web searches to perform to best answer the query.

Respond with JSON only, in exactly this shape:
{"searches": [{"reason": "why this search helps answer the query", "query": "the search term to use"}]}

Rules:
- Each query is a concise web search term, not a question to the user.
- Searches should cover different angles of the query; avoid near-duplicates.
- Do not include any text outside the JSON object.`

func buildUserPrompt(query string, howMany int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Query: %s\n", query)
	fmt.Fprintf(&b, "Output %d search terms to query for.", howMany)
	return b.String()
}
