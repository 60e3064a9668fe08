// Package history journals rewrite attempts so generated text can be
// retrieved after the page has moved on.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	. "github.com/roelfdiedericks/rephrase/internal/logging"
	"github.com/roelfdiedericks/rephrase/internal/paths"
)

// DefaultLimit is the number of entries Recent returns when limit <= 0.
const DefaultLimit = 20

// Entry is one rewrite attempt.
type Entry struct {
	ID          int64     `json:"id"`
	RequestID   string    `json:"requestId"`
	Frame       string    `json:"frame"`
	Original    string    `json:"original"`
	Instruction string    `json:"instruction"`
	Rewritten   string    `json:"rewritten"`
	Success     bool      `json:"success"`
	Reason      string    `json:"reason,omitempty"`
	Strategy    string    `json:"strategy,omitempty"`
	Provider    string    `json:"provider,omitempty"`
	Model       string    `json:"model,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Store is a SQLite-backed journal.
type Store struct {
	db *sql.DB
}

const currentSchemaVersion = 2

// Open opens (creating if needed) the journal at path.
func Open(path string) (*Store, error) {
	if err := paths.EnsureParentDir(path); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	s := &Store{db: db}
	if err := s.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	L_debug("history: store opened", "path", path)
	return s, nil
}

// Migrate brings the schema up to date.
func (s *Store) Migrate() error {
	var version int
	err := s.db.QueryRow("SELECT version FROM schema_version ORDER BY version DESC LIMIT 1").Scan(&version)
	if err != nil {
		// Table doesn't exist, start from scratch
		version = 0
	}

	if version >= currentSchemaVersion {
		return nil
	}

	L_info("history: migrating schema", "from", version, "to", currentSchemaVersion)

	migrations := []func(*sql.DB) error{
		migrateV1,
		migrateV2,
	}
	for i := version; i < len(migrations); i++ {
		if err := migrations[i](s.db); err != nil {
			return fmt.Errorf("migration v%d failed: %w", i+1, err)
		}
		L_debug("history: applied migration", "version", i+1)
	}
	return nil
}

// migrateV1 creates the initial schema
func migrateV1(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS rewrites (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		request_id TEXT NOT NULL,
		frame TEXT NOT NULL,
		original TEXT NOT NULL,
		instruction TEXT NOT NULL,
		rewritten TEXT NOT NULL,
		success INTEGER NOT NULL,
		reason TEXT,
		strategy TEXT,
		created_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_rewrites_created ON rewrites(created_at DESC);
	`
	if _, err := db.Exec(schema); err != nil {
		return err
	}
	_, err := db.Exec("INSERT INTO schema_version (version, applied_at) VALUES (1, ?)", time.Now().Unix())
	return err
}

// migrateV2 records which backend produced the text
func migrateV2(db *sql.DB) error {
	schema := `
	ALTER TABLE rewrites ADD COLUMN provider TEXT;
	ALTER TABLE rewrites ADD COLUMN model TEXT;
	CREATE INDEX IF NOT EXISTS idx_rewrites_request ON rewrites(request_id);
	`
	if _, err := db.Exec(schema); err != nil {
		return err
	}
	_, err := db.Exec("INSERT INTO schema_version (version, applied_at) VALUES (2, ?)", time.Now().Unix())
	return err
}

// Record appends one attempt. A zero CreatedAt is set to now.
func (s *Store) Record(ctx context.Context, e Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO rewrites (request_id, frame, original, instruction, rewritten, success, reason, strategy, provider, model, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.RequestID, e.Frame, e.Original, e.Instruction, e.Rewritten, boolToInt(e.Success),
		e.Reason, e.Strategy, e.Provider, e.Model, e.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to record rewrite: %w", err)
	}
	return nil
}

// Recent returns the newest entries first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, request_id, frame, original, instruction, rewritten, success,
			COALESCE(reason, ''), COALESCE(strategy, ''), COALESCE(provider, ''), COALESCE(model, ''), created_at
		FROM rewrites
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var success int
		var created int64
		if err := rows.Scan(&e.ID, &e.RequestID, &e.Frame, &e.Original, &e.Instruction, &e.Rewritten,
			&success, &e.Reason, &e.Strategy, &e.Provider, &e.Model, &created); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		e.Success = success != 0
		e.CreatedAt = time.UnixMilli(created)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
