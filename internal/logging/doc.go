// Package logging builds the slog loggers used across adforge.
//
// Console (text) and JSON formats are supported, with output optionally
// mirrored into the configured log directory. Components receive a
// *slog.Logger and attach key/value attributes; no package ever logs
// through a global.
package logging
