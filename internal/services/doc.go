// Package services defines the shared error taxonomy and context
// annotations used across pipeline components.
//
// Sentinel markers distinguish recoverable failures (missing assets,
// undecodable images, platform call errors) from fatal configuration
// problems. Wrap attaches stage and operation detail while preserving the
// marker for errors.Is classification.
package services
