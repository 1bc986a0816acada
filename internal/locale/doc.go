// Package locale maps two-letter market codes to the BCP-47 locale tags
// that name template folders in the asset store.
//
// The table is deliberately one-to-one: each market resolves to exactly one
// locale tag, and unrecognized markets surface ErrUnknownMarket so callers
// skip the row instead of guessing a language.
package locale
