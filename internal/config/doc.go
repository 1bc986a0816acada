// Package config loads, normalizes, and validates adforge configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks for
// access tokens. Validation failures are fatal by design: a run never
// starts processing rows with incomplete credentials or folder ids.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
