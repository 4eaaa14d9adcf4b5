// Package llm provides an OpenAI-compatible chat completion client (OpenRouter
// by default) shared by the planner, search summarizer, and report writer.
//
// # Requests
//
// Complete sends a system/user prompt pair and returns free-form text.
// CompleteJSON additionally requests a JSON object response; DecodeLLMJSON
// tolerates the usual model formatting quirks (code fences, leading prose) when
// unmarshalling the payload into a caller-supplied struct.
//
// # Configuration
//
// Requires api_key and model, and optionally base_url, referer, title, timeout.
// Role-specific settings are resolved by the config package before a client is
// constructed, so each collaborator may talk to a different model.
//
// # Retry Behaviour
//
// The client retries on HTTP 408/429/5xx errors, empty completions, and
// network timeouts with exponential backoff (base 1s, max 10s, up to 5
// attempts by default). A Retry-After header takes precedence over the
// computed delay. Context cancellation aborts retries immediately.
package llm
