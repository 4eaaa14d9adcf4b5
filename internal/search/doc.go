// Package search runs one planned web search and condenses the results into
// text the report writer can consume.
//
// Providers wrap a single web search backend behind the Provider interface:
// DuckDuckGo's lite HTML endpoint (no key), the Brave Search API, and Tavily.
// Each provider paces itself against its backend's rate limits and retries
// HTTP 429 with doubling backoff.
//
// The Executor implements research.SearchExecutor. It consults the optional
// search cache, calls the provider, and either asks an LLM for a short
// summary or builds a deterministic markdown digest of the results. Every
// failure is reported as a research.Failure outcome; cache problems are only
// logged.
package search
