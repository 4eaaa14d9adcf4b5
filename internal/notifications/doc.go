// Package notifications delivers finished research reports.
//
// A Service fans a report out to every configured transport in a fixed order:
// ntfy (markdown push to a topic), email (SendGrid v3 with an HTML body
// rendered from the markdown), Pushover (short summary push), and file
// (markdown saved under paths.report_dir). Transports are enabled by
// supplying their credentials in config.toml. Delivery stops at the first
// transport error and is never retried here; the pipeline treats it as a
// failed run. With no transports configured the Service acknowledges on the
// "none" channel without sending anything.
package notifications
