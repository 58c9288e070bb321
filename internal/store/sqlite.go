// ABOUTME: SQLite implementation of the Store interface using modernc.org/sqlite
// ABOUTME: Provides chat-scoped UID record persistence with automatic schema creation

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS uids (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			uid TEXT NOT NULL,
			note TEXT NOT NULL DEFAULT '',
			chat_id TEXT NOT NULL,
			saved_at TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_uids_chat ON uids(chat_id);
		CREATE INDEX IF NOT EXISTS idx_uids_chat_uid ON uids(chat_id, uid);

		CREATE TABLE IF NOT EXISTS settings (
			chat_id TEXT PRIMARY KEY,
			notification_text TEXT NOT NULL DEFAULT ''
		);

		CREATE TABLE IF NOT EXISTS audit_log (
			audit_id TEXT PRIMARY KEY,
			actor    TEXT NOT NULL,
			action   TEXT NOT NULL,
			chat_id  TEXT NOT NULL,
			detail   TEXT,
			ts       TEXT NOT NULL,

			CHECK (action IN ('delete_all', 'export'))
		);

		CREATE INDEX IF NOT EXISTS idx_audit_chat ON audit_log(chat_id, ts DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	s.logger.Info("closing SQLite store")
	return s.db.Close()
}

// SaveRecord inserts a new record for the room and returns its assigned id.
// The saved_at timestamp is set to the current UTC time.
func (s *SQLiteStore) SaveRecord(ctx context.Context, chatID, uid, note string) (int64, error) {
	query := `
		INSERT INTO uids (uid, note, chat_id, saved_at)
		VALUES (?, ?, ?, ?)
	`

	result, err := s.db.ExecContext(ctx, query,
		uid,
		note,
		chatID,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting record id: %w", err)
	}

	s.logger.Debug("saved record", "id", id, "chat", chatID, "uid", uid)
	return id, nil
}

// DeleteAll removes every record in the room and returns the number removed.
func (s *SQLiteStore) DeleteAll(ctx context.Context, chatID string) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM uids WHERE chat_id = ?`, chatID)
	if err != nil {
		return 0, fmt.Errorf("deleting records: %w", err)
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("getting rows affected: %w", err)
	}

	s.logger.Debug("deleted all records", "chat", chatID, "count", count)
	return count, nil
}

// DeleteByUID removes all records in the room whose uid exactly matches.
// Returns whether at least one row was removed. UIDs are not unique, so
// a single call can remove multiple rows.
func (s *SQLiteStore) DeleteByUID(ctx context.Context, chatID, uid string) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM uids WHERE chat_id = ? AND uid = ?`, chatID, uid)
	if err != nil {
		return false, fmt.Errorf("deleting record: %w", err)
	}

	count, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("getting rows affected: %w", err)
	}

	s.logger.Debug("deleted records by uid", "chat", chatID, "uid", uid, "count", count)
	return count > 0, nil
}

// Exists reports whether the room has at least one record with the exact uid.
func (s *SQLiteStore) Exists(ctx context.Context, chatID, uid string) (bool, error) {
	var count int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM uids WHERE chat_id = ? AND uid = ?`, chatID, uid).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking record: %w", err)
	}
	return count > 0, nil
}

// Search returns the room's records whose uid or note contains the query,
// in insertion order, capped at SearchLimit rows. SQLite's LIKE is
// case-insensitive for ASCII.
func (s *SQLiteStore) Search(ctx context.Context, chatID, query string) ([]*Record, error) {
	pattern := "%" + query + "%"
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, uid, note, chat_id, saved_at
		FROM uids
		WHERE chat_id = ? AND (uid LIKE ? OR note LIKE ?)
		ORDER BY id
		LIMIT ?
	`, chatID, pattern, pattern, SearchLimit)
	if err != nil {
		return nil, fmt.Errorf("searching records: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// Stats returns the room's record count and most recent save time.
func (s *SQLiteStore) Stats(ctx context.Context, chatID string) (*Summary, error) {
	var count int64
	var last sql.NullString

	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), MAX(saved_at) FROM uids WHERE chat_id = ?`, chatID).Scan(&count, &last)
	if err != nil {
		return nil, fmt.Errorf("querying stats: %w", err)
	}

	summary := &Summary{Count: count}
	if last.Valid {
		t, err := time.Parse(time.RFC3339, last.String)
		if err != nil {
			return nil, fmt.Errorf("parsing saved_at: %w", err)
		}
		summary.LastSaved = t
	}
	return summary, nil
}

// ExportAll returns every record in the room in insertion order.
func (s *SQLiteStore) ExportAll(ctx context.Context, chatID string) ([]*Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, uid, note, chat_id, saved_at
		FROM uids
		WHERE chat_id = ?
		ORDER BY id
	`, chatID)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// Rooms returns the distinct chat scopes that have saved records.
// Used by the admin CLI; not part of the Store interface.
func (s *SQLiteStore) Rooms(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT chat_id FROM uids ORDER BY chat_id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying rooms: %w", err)
	}
	defer rows.Close()

	var rooms []string
	for rows.Next() {
		var room string
		if err := rows.Scan(&room); err != nil {
			return nil, fmt.Errorf("scanning room row: %w", err)
		}
		rooms = append(rooms, room)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating room rows: %w", err)
	}
	return rooms, nil
}

// scanRecords reads Record rows from a result set.
func scanRecords(rows *sql.Rows) ([]*Record, error) {
	var records []*Record
	for rows.Next() {
		var r Record
		var savedAtStr string

		if err := rows.Scan(&r.ID, &r.UID, &r.Note, &r.ChatID, &savedAtStr); err != nil {
			return nil, fmt.Errorf("scanning record row: %w", err)
		}

		savedAt, err := time.Parse(time.RFC3339, savedAtStr)
		if err != nil {
			return nil, fmt.Errorf("parsing saved_at: %w", err)
		}
		r.SavedAt = savedAt

		records = append(records, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating record rows: %w", err)
	}
	return records, nil
}

// Ensure SQLiteStore implements Store interface
var _ Store = (*SQLiteStore)(nil)
