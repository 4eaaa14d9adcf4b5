// Package config loads, normalizes, and validates deepresearch configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// OPENROUTER_API_KEY, BRAVE_API_KEY, and SENDGRID_API_KEY. Role-specific LLM
// settings (planner, search summarizer, writer) fall back to the shared [llm]
// section so a single key and model are enough to run the pipeline.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
