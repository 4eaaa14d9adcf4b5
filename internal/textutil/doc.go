// Package textutil provides small text helpers shared by the search, writer,
// and notification packages.
//
// The primary use cases are:
//   - Title casing report headings with language-aware rules
//   - Detecting near-duplicate snippets via token fingerprints
//   - Sanitizing filenames and path segments for safe filesystem use
package textutil
