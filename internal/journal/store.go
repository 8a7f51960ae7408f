package journal

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"cortex/internal/config"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema
// changes; existing journal databases must then be removed.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database schema version doesn't match the
// expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// ThoughtRecord is one persisted thought row.
type ThoughtRecord struct {
	ID        int64     `json:"id"`
	Cycle     int64     `json:"cycle"`
	Timestamp time.Time `json:"timestamp"`
	Text      string    `json:"text"`
}

// ActionRecord is one persisted action row.
type ActionRecord struct {
	ID          string    `json:"id"`
	Kind        string    `json:"kind"`
	ProcessedAt time.Time `json:"processed_at"`
}

// Stats summarizes journal contents.
type Stats struct {
	Thoughts int64 `json:"thoughts"`
	Actions  int64 `json:"actions"`
}

// Store manages journal persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the journal database under the configured
// state directory.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	return OpenPath(cfg.JournalPath())
}

// OpenPath opens the journal database at an explicit path.
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

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// RecordThought appends one thought row.
func (s *Store) RecordThought(ctx context.Context, cycle int64, text string) error {
	return s.execWithoutResultRetry(ensureContext(ctx),
		"INSERT INTO thoughts (cycle, created_at, text) VALUES (?, ?, ?)",
		cycle, time.Now().UTC().Format(time.RFC3339Nano), text,
	)
}

// RecordAction appends one processed-action row.
func (s *Store) RecordAction(ctx context.Context, id, kind string, processedAt time.Time) error {
	return s.execWithoutResultRetry(ensureContext(ctx),
		"INSERT OR REPLACE INTO actions (id, kind, processed_at) VALUES (?, ?, ?)",
		id, kind, processedAt.UTC().Format(time.RFC3339Nano),
	)
}

// RecentThoughts returns up to limit thoughts ordered oldest first, most
// recent last. A non-positive limit returns everything.
func (s *Store) RecentThoughts(ctx context.Context, limit int) ([]ThoughtRecord, error) {
	ctx = ensureContext(ctx)

	query := "SELECT id, cycle, created_at, text FROM thoughts ORDER BY id DESC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query thoughts: %w", err)
	}
	defer rows.Close()

	var out []ThoughtRecord
	for rows.Next() {
		record, err := scanThought(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate thoughts: %w", err)
	}

	// Rows arrive newest first; flip so callers read oldest to newest.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// RecentActions returns up to limit actions, most recent last.
func (s *Store) RecentActions(ctx context.Context, limit int) ([]ActionRecord, error) {
	ctx = ensureContext(ctx)

	query := "SELECT id, kind, processed_at FROM actions ORDER BY processed_at DESC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query actions: %w", err)
	}
	defer rows.Close()

	var out []ActionRecord
	for rows.Next() {
		var record ActionRecord
		var processedAt string
		if err := rows.Scan(&record.ID, &record.Kind, &processedAt); err != nil {
			return nil, fmt.Errorf("scan action: %w", err)
		}
		record.ProcessedAt = parseTimestamp(processedAt)
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate actions: %w", err)
	}

	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// TrimThoughts deletes all but the newest keep thoughts.
func (s *Store) TrimThoughts(ctx context.Context, keep int) error {
	if keep < 0 {
		keep = 0
	}
	return s.execWithoutResultRetry(ensureContext(ctx),
		"DELETE FROM thoughts WHERE id NOT IN (SELECT id FROM thoughts ORDER BY id DESC LIMIT ?)",
		keep,
	)
}

// Stats returns row counts for introspection endpoints.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	ctx = ensureContext(ctx)

	var stats Stats
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM thoughts").Scan(&stats.Thoughts); err != nil {
		return Stats{}, fmt.Errorf("count thoughts: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM actions").Scan(&stats.Actions); err != nil {
		return Stats{}, fmt.Errorf("count actions: %w", err)
	}
	return stats, nil
}

func scanThought(rows *sql.Rows) (ThoughtRecord, error) {
	var record ThoughtRecord
	var createdAt string
	if err := rows.Scan(&record.ID, &record.Cycle, &createdAt, &record.Text); err != nil {
		return ThoughtRecord{}, fmt.Errorf("scan thought: %w", err)
	}
	record.Timestamp = parseTimestamp(createdAt)
	return record, nil
}

func parseTimestamp(value string) time.Time {
	parsed, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return parsed
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
		return fmt.Errorf("%w: database has version %d, expected %d (delete the journal database)",
			ErrSchemaMismatch, version, schemaVersion)
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

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) execWithoutResultRetry(ctx context.Context, query string, args ...any) error {
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, query, args...)
		return err
	})
}
