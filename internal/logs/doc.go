// Package logs reads the JSON log file written by the logging package.
//
// Records are parsed into Record values, narrowed with a Filter (run id,
// component, minimum level), and rendered as compact one-line summaries.
// Tailer returns the last N matching records and can follow the file for new
// ones, restarting from the top when the file is truncated.
package logs
