// Package app assembles the research pipeline from configuration: LLM
// clients for each role, the planner, the search provider and cache, the
// report writer, and the notification service, all handed to a
// research.Orchestrator. Commands build one App per invocation and Close it
// when done.
package app
