// Package writer synthesizes the final markdown report from aggregated search
// summaries using an LLM.
package writer
