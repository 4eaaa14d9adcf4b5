// Package preflight provides readiness checks for the services and paths
// deepresearch depends on.
//
// The CLI "deepresearch status" command prints every check; "deepresearch
// run" calls RunAll with network checks disabled and refuses to start when a
// required check fails, so a misconfigured key surfaces before any tokens are
// spent. Checks for disabled features are skipped.
package preflight
