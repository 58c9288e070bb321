// ABOUTME: Store interface and data types for uidkeeper persistence
// ABOUTME: Defines Record, ChatSettings, Summary and the Store interface

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// SearchLimit caps the number of rows returned by Search.
const SearchLimit = 50

// Record is a single saved UID, scoped to the chat room it was saved in.
// Duplicate UIDs within a room are allowed; the store never dedupes.
type Record struct {
	ID      int64
	UID     string
	Note    string
	ChatID  string
	SavedAt time.Time
}

// ChatSettings holds per-room configuration. Only the notification text
// is stored today; the bot command surface does not consume it yet.
type ChatSettings struct {
	ChatID           string
	NotificationText string
}

// Summary is the aggregate view of a room's records.
// LastSaved is the zero time when the room has no records.
type Summary struct {
	Count     int64
	LastSaved time.Time
}

// Store defines the interface for UID record persistence.
// Every operation is scoped to a single chat room; no record is ever
// visible or mutable across rooms.
type Store interface {
	// Records
	SaveRecord(ctx context.Context, chatID, uid, note string) (int64, error)
	DeleteAll(ctx context.Context, chatID string) (int64, error)
	DeleteByUID(ctx context.Context, chatID, uid string) (bool, error)
	Exists(ctx context.Context, chatID, uid string) (bool, error)
	Search(ctx context.Context, chatID, query string) ([]*Record, error)
	Stats(ctx context.Context, chatID string) (*Summary, error)
	ExportAll(ctx context.Context, chatID string) ([]*Record, error)

	// Per-room settings
	SetNotificationText(ctx context.Context, chatID, text string) error
	NotificationText(ctx context.Context, chatID string) (string, error)

	// Audit log for privileged operations
	AppendAudit(ctx context.Context, entry *AuditEntry) error
	ListAudit(ctx context.Context, chatID string, limit int) ([]*AuditEntry, error)

	// Close releases any resources held by the store
	Close() error
}
