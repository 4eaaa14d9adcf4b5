// Package searchcache keeps recent web search summaries in SQLite so repeated
// research runs over the same ground skip the provider round trip.
//
// # Storage
//
// Entries live in a single table keyed by (provider, normalized query). Each
// row carries the summary text handed to the report writer, the raw result
// count, and the time it was cached. Entries older than the configured TTL are
// treated as misses and removed by Purge.
//
// # Usage
//
// The cache is disabled by default. Enable it in config.toml:
//
//	[search_cache]
//	enabled = true
//	path = "~/.cache/deepresearch/search_cache.db"
//	ttl_hours = 24
//
// CLI commands for inspection and management:
//
//	deepresearch cache list    # List cached searches, newest first
//	deepresearch cache purge   # Remove expired entries
//	deepresearch cache clear   # Remove all entries
//
// The schema version is recorded in schema_version. Changing schema.sql means
// bumping schemaVersion; users clear the cache to adopt the new layout.
package searchcache
