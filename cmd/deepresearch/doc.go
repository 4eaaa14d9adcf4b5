// Package main hosts the deepresearch CLI entrypoint and command graph.
//
// "deepresearch run" drives a full research pipeline and streams its
// checkpoints to the terminal; "plan" previews the search plan without
// searching; "status" runs preflight checks; "cache" inspects and prunes the
// search cache; "config" scaffolds and validates config.toml.
//
// Keep this package thin: behavior lives in the internal packages and the
// commands here only resolve configuration, wire loggers, and render output.
package main
