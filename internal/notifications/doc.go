// Package notifications posts run events to a chat webhook. The payload
// is a single JSON content field, compatible with Discord-style webhooks.
// An unset webhook URL yields a noop service so callers never branch on
// configuration.
package notifications
