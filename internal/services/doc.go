// Package services defines shared utilities consumed by the research pipeline
// collaborators and their external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run identifiers, stage names, and correlation
//     identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper so planner, search, writer,
//     and notifier failures carry consistent stage/operation context.
//
// Use these helpers when wiring new collaborators so operational behaviour
// (error classification, observability) stays uniform across the pipeline.
package services
