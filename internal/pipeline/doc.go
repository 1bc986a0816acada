// Package pipeline orchestrates one full run: load campaign rows, filter
// and dedup them, then for each ad group resolve the locale, fetch the
// site logo, build the creative batch, and upload it. Row-level failures
// are logged and skipped; only configuration errors abort the run. A lock
// file refuses concurrent runs against the same data directory.
package pipeline
