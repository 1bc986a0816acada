// Package templates resolves which template assets are eligible for a
// creative batch and samples a subset of them.
//
// Folder resolution is exact-name: a campaign tag folder when a tag is in
// play, otherwise the locale folder. A missing folder is not an error;
// it yields an empty eligible set so the caller can skip the batch without
// silently borrowing templates from another locale.
package templates
