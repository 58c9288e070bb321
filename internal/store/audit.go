// ABOUTME: Audit log entity and store methods for privileged bot operations
// ABOUTME: Records who wiped or exported which room's records, and when

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AuditAction represents an auditable privileged action.
type AuditAction string

const (
	AuditDeleteAll AuditAction = "delete_all"
	AuditExport    AuditAction = "export"
)

// AuditEntry represents a single audit log entry.
type AuditEntry struct {
	ID        string         // UUID v4
	Actor     string         // user ID that invoked the command
	Action    AuditAction    // what was done
	ChatID    string         // affected room
	Detail    map[string]any // additional context (e.g. rows affected)
	Timestamp time.Time
}

// AppendAudit appends a new entry to the audit log.
// Generates ID and Timestamp if not set.
func (s *SQLiteStore) AppendAudit(ctx context.Context, e *AuditEntry) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}

	var detailJSON *string
	if e.Detail != nil {
		data, err := json.Marshal(e.Detail)
		if err != nil {
			return fmt.Errorf("marshaling audit detail: %w", err)
		}
		str := string(data)
		detailJSON = &str
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_log (audit_id, actor, action, chat_id, detail, ts)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		e.ID,
		e.Actor,
		e.Action,
		e.ChatID,
		detailJSON,
		e.Timestamp.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting audit entry: %w", err)
	}

	s.logger.Debug("appended audit log",
		"id", e.ID,
		"actor", e.Actor,
		"action", e.Action,
		"chat", e.ChatID,
	)
	return nil
}

// ListAudit returns the room's audit entries, most recent first.
// If limit is 0 or negative, a default of 100 is used; values above
// 1000 are capped.
func (s *SQLiteStore) ListAudit(ctx context.Context, chatID string, limit int) ([]*AuditEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	if limit > 1000 {
		limit = 1000
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT audit_id, actor, action, chat_id, detail, ts
		FROM audit_log
		WHERE chat_id = ?
		ORDER BY ts DESC
		LIMIT ?
	`, chatID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying audit log: %w", err)
	}
	defer rows.Close()

	var entries []*AuditEntry
	for rows.Next() {
		var e AuditEntry
		var detail sql.NullString
		var tsStr string

		if err := rows.Scan(&e.ID, &e.Actor, &e.Action, &e.ChatID, &detail, &tsStr); err != nil {
			return nil, fmt.Errorf("scanning audit row: %w", err)
		}

		e.Timestamp, err = time.Parse(time.RFC3339, tsStr)
		if err != nil {
			return nil, fmt.Errorf("parsing audit ts: %w", err)
		}

		if detail.Valid {
			if err := json.Unmarshal([]byte(detail.String), &e.Detail); err != nil {
				return nil, fmt.Errorf("unmarshaling audit detail: %w", err)
			}
		}

		entries = append(entries, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating audit rows: %w", err)
	}
	return entries, nil
}
