// Package research runs the deep-research pipeline: plan a set of web
// searches for a query, execute them concurrently, synthesize a report from
// the surviving results, deliver it, and stream progress to the caller.
//
// # Collaborators
//
// The Orchestrator depends on four single-method capabilities (Planner,
// SearchExecutor, ReportWriter, Notifier). Each has a Func adapter so tests and
// wiring code can supply plain functions.
//
// # Streaming
//
// Run returns an iter.Seq2[Event, error]. Nothing happens until the sequence
// is ranged over; every range is an independent run with its own trace id.
// A successful run yields Info checkpoints followed by exactly one Final event.
// A failed run yields the checkpoints reached so far and then a single
// (Event{}, err) pair whose error matches the failing stage's sentinel.
// Breaking out of the loop cancels the run and every in-flight search.
//
// # Search Fan-out
//
// Searches run in a bounded worker pool. A failing, timed-out, or panicking
// search becomes a failed SearchOutcome and is dropped from aggregation;
// it never aborts the run. Aggregated texts keep completion order.
package research
