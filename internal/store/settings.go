// ABOUTME: Per-room settings persistence (notification text)
// ABOUTME: Stored for forward compatibility; the bot does not consume it yet

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// SetNotificationText stores the notification text for a room,
// replacing any previous value.
func (s *SQLiteStore) SetNotificationText(ctx context.Context, chatID, text string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO settings (chat_id, notification_text)
		VALUES (?, ?)
	`, chatID, text)
	if err != nil {
		return fmt.Errorf("saving notification text: %w", err)
	}

	s.logger.Debug("set notification text", "chat", chatID)
	return nil
}

// NotificationText retrieves the notification text for a room.
// Returns ErrNotFound when the room has no settings row.
func (s *SQLiteStore) NotificationText(ctx context.Context, chatID string) (string, error) {
	var text string
	err := s.db.QueryRowContext(ctx,
		`SELECT notification_text FROM settings WHERE chat_id = ?`, chatID).Scan(&text)

	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("querying notification text: %w", err)
	}
	return text, nil
}
