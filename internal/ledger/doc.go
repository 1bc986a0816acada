// Package ledger persists the upload history and the account blocklist in
// SQLite.
//
// The uploads table records every ad creation so operators can audit what
// a run produced and spot same-day name reuse across runs. The
// blocked_accounts table carries accounts excluded from processing, with
// the reason they were blocked. Schema changes bump schemaVersion in
// store.go; the database is rebuilt by deleting the file.
package ledger
