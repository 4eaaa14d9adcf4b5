// Package planner turns a research query into a web search plan using an LLM.
//
// The model answers with JSON that is decoded leniently, cleaned of blank and
// repeated queries, and capped at the configured number of searches.
package planner
