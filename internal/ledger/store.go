package ledger

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"adforge/internal/config"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema
// changes; users delete the ledger database to adopt the new schema.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database schema version doesn't match the
// expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// Upload is one recorded ad creation.
type Upload struct {
	ID           int64
	RunID        string
	Site         string
	AccountID    string
	AdGroupID    string
	CreativeName string
	Kind         string
	FinalURL     string
	UploadedAt   time.Time
}

// BlockedAccount is one platform account excluded from processing.
type BlockedAccount struct {
	AccountID string
	Reason    string
	BlockedAt time.Time
}

// Store persists the upload history and account blocklist in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the ledger database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.LedgerPath())
}

// OpenPath opens the ledger at an explicit database path.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database location backing the store.
func (s *Store) Path() string {
	return s.path
}

// RecordUpload appends one upload row.
func (s *Store) RecordUpload(ctx context.Context, u Upload) error {
	uploadedAt := u.UploadedAt
	if uploadedAt.IsZero() {
		uploadedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO uploads (
            run_id, site, account_id, ad_group_id, creative_name, kind, final_url, uploaded_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		u.RunID, u.Site, u.AccountID, u.AdGroupID, u.CreativeName, u.Kind, u.FinalURL,
		uploadedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert upload: %w", err)
	}
	return nil
}

// Recent returns the most recent uploads, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Upload, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_id, site, account_id, ad_group_id, creative_name, kind, final_url, uploaded_at
         FROM uploads ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query uploads: %w", err)
	}
	defer rows.Close()
	return scanUploads(rows)
}

// ForAdGroup returns every recorded upload for one (account, ad group)
// pair, newest first.
func (s *Store) ForAdGroup(ctx context.Context, accountID, adGroupID string) ([]Upload, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_id, site, account_id, ad_group_id, creative_name, kind, final_url, uploaded_at
         FROM uploads WHERE account_id = ? AND ad_group_id = ? ORDER BY id DESC`,
		accountID, adGroupID)
	if err != nil {
		return nil, fmt.Errorf("query ad group uploads: %w", err)
	}
	defer rows.Close()
	return scanUploads(rows)
}

// Block adds an account to the blocklist. Blocking an already-blocked
// account updates the reason.
func (s *Store) Block(ctx context.Context, accountID, reason string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO blocked_accounts (account_id, reason, blocked_at) VALUES (?, ?, ?)
         ON CONFLICT(account_id) DO UPDATE SET reason = excluded.reason, blocked_at = excluded.blocked_at`,
		accountID, reason, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("block account: %w", err)
	}
	return nil
}

// IsBlocked reports whether the account is on the blocklist.
func (s *Store) IsBlocked(ctx context.Context, accountID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM blocked_accounts WHERE account_id = ?`, accountID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query blocklist: %w", err)
	}
	return true, nil
}

// Blocked returns the full blocklist ordered by account id.
func (s *Store) Blocked(ctx context.Context) ([]BlockedAccount, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT account_id, reason, blocked_at FROM blocked_accounts ORDER BY account_id`)
	if err != nil {
		return nil, fmt.Errorf("query blocklist: %w", err)
	}
	defer rows.Close()

	var out []BlockedAccount
	for rows.Next() {
		var b BlockedAccount
		var blockedAt string
		if err := rows.Scan(&b.AccountID, &b.Reason, &blockedAt); err != nil {
			return nil, fmt.Errorf("scan blocked account: %w", err)
		}
		b.BlockedAt, _ = time.Parse(time.RFC3339Nano, blockedAt)
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	err = s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s to rebuild)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

func scanUploads(rows *sql.Rows) ([]Upload, error) {
	var out []Upload
	for rows.Next() {
		var u Upload
		var uploadedAt string
		if err := rows.Scan(&u.ID, &u.RunID, &u.Site, &u.AccountID, &u.AdGroupID,
			&u.CreativeName, &u.Kind, &u.FinalURL, &uploadedAt); err != nil {
			return nil, fmt.Errorf("scan upload: %w", err)
		}
		u.UploadedAt, _ = time.Parse(time.RFC3339Nano, uploadedAt)
		out = append(out, u)
	}
	return out, rows.Err()
}
