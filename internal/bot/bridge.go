// ABOUTME: Matrix bridge for uidkeeper
// ABOUTME: Handles the Matrix client connection and routes messages to the handler

package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"maunium.net/go/mautrix"
	"maunium.net/go/mautrix/event"
	"maunium.net/go/mautrix/id"

	"github.com/ndhuy/uidkeeper/internal/config"
	"github.com/ndhuy/uidkeeper/internal/dedupe"
)

// dedupeTTL bounds how long processed event IDs are remembered.
const dedupeTTL = 5 * time.Minute

// dedupeSize caps the number of remembered event IDs.
const dedupeSize = 10000

// sendTimeout bounds Matrix API calls made outside the sync loop.
const sendTimeout = 30 * time.Second

// Bridge connects the UID manager to a Matrix homeserver.
type Bridge struct {
	cfg     *config.MatrixConfig
	matrix  *mautrix.Client
	handler *Handler
	seen    *dedupe.Cache
	logger  *slog.Logger

	// ctx is the parent context for message processing goroutines
	ctx    context.Context
	cancel context.CancelFunc
}

// NewBridge creates a Matrix bridge that feeds incoming messages to the handler.
func NewBridge(cfg *config.MatrixConfig, handler *Handler, logger *slog.Logger) (*Bridge, error) {
	client, err := mautrix.NewClient(cfg.Homeserver, id.UserID(cfg.UserID), cfg.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("creating matrix client: %w", err)
	}

	b := &Bridge{
		cfg:     cfg,
		matrix:  client,
		handler: handler,
		seen:    dedupe.New(dedupeTTL, dedupeSize),
		logger:  logger,
	}
	handler.sender = b
	return b, nil
}

// Client exposes the underlying Matrix client (used for E2EE setup).
func (b *Bridge) Client() *mautrix.Client {
	return b.matrix
}

// Run starts the bridge and blocks until the context is cancelled.
func (b *Bridge) Run(ctx context.Context) error {
	b.logger.Info("starting matrix bridge",
		"homeserver", b.cfg.Homeserver,
		"user_id", b.cfg.UserID,
	)

	// Store context for message processing goroutines
	b.ctx, b.cancel = context.WithCancel(ctx)
	defer b.cancel()
	defer b.seen.Close()

	syncer, ok := b.matrix.Syncer.(*mautrix.DefaultSyncer)
	if !ok {
		return fmt.Errorf("unexpected syncer type: %T", b.matrix.Syncer)
	}
	syncer.OnEventType(event.EventMessage, b.handleMessageEvent)

	b.logger.Info("connecting to matrix homeserver")

	syncErr := make(chan error, 1)
	go func() {
		syncErr <- b.matrix.SyncWithContext(b.ctx)
	}()

	select {
	case <-ctx.Done():
		b.logger.Info("shutting down matrix bridge")
		b.cancel()
		return nil
	case err := <-syncErr:
		return fmt.Errorf("matrix sync failed: %w", err)
	}
}

// handleMessageEvent processes incoming Matrix messages.
func (b *Bridge) handleMessageEvent(ctx context.Context, evt *event.Event) {
	// Ignore our own messages
	if evt.Sender == id.UserID(b.cfg.UserID) {
		return
	}

	content, ok := evt.Content.Parsed.(*event.MessageEventContent)
	if !ok {
		return
	}

	// Only handle text messages
	if content.MsgType != event.MsgText {
		return
	}

	roomID := evt.RoomID.String()
	if !b.isRoomAllowed(roomID) {
		b.logger.Debug("ignoring message from non-allowed room", "room", roomID)
		return
	}

	// Sync streams can redeliver events after reconnects
	if b.seen.CheckAndMark(evt.ID.String()) {
		b.logger.Debug("skipping duplicate event", "event_id", evt.ID.String())
		return
	}

	body := strings.TrimSpace(content.Body)
	if body == "" {
		return
	}

	b.logger.Debug("received message",
		"room", roomID,
		"sender", evt.Sender.String(),
	)

	// Process in a goroutine to not block sync; the bridge context
	// keeps shutdown graceful.
	go b.handler.HandleMessage(b.ctx, roomID, evt.Sender.String(), body)
}

// isRoomAllowed checks the allowed-rooms filter; empty means allow all.
func (b *Bridge) isRoomAllowed(roomID string) bool {
	if len(b.cfg.AllowedRooms) == 0 {
		return true
	}
	for _, allowed := range b.cfg.AllowedRooms {
		if allowed == roomID {
			return true
		}
	}
	return false
}

// SendText sends a plain text message to a room.
func (b *Bridge) SendText(ctx context.Context, roomID, text string) error {
	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	_, err := b.matrix.SendText(ctx, id.RoomID(roomID), text)
	if err != nil {
		return fmt.Errorf("sending message: %w", err)
	}
	return nil
}

// SendHTML sends a message with an HTML formatted body alongside the
// plain-text fallback.
func (b *Bridge) SendHTML(ctx context.Context, roomID, plain, html string) error {
	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	content := &event.MessageEventContent{
		MsgType:       event.MsgText,
		Body:          plain,
		Format:        event.FormatHTML,
		FormattedBody: html,
	}
	_, err := b.matrix.SendMessageEvent(ctx, id.RoomID(roomID), event.EventMessage, content)
	if err != nil {
		return fmt.Errorf("sending formatted message: %w", err)
	}
	return nil
}

// SendFile uploads the data to the Matrix media repository and sends it
// as a file message.
func (b *Bridge) SendFile(ctx context.Context, roomID, filename, mimeType string, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	upload, err := b.matrix.UploadBytes(ctx, data, mimeType)
	if err != nil {
		return fmt.Errorf("uploading file: %w", err)
	}

	content := &event.MessageEventContent{
		MsgType: event.MsgFile,
		Body:    filename,
		URL:     upload.ContentURI.CUString(),
		Info: &event.FileInfo{
			MimeType: mimeType,
			Size:     len(data),
		},
	}
	_, err = b.matrix.SendMessageEvent(ctx, id.RoomID(roomID), event.EventMessage, content)
	if err != nil {
		return fmt.Errorf("sending file: %w", err)
	}
	return nil
}

// SendImage uploads the data and sends it as an image message.
func (b *Bridge) SendImage(ctx context.Context, roomID, filename, mimeType string, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	upload, err := b.matrix.UploadBytes(ctx, data, mimeType)
	if err != nil {
		return fmt.Errorf("uploading image: %w", err)
	}

	content := &event.MessageEventContent{
		MsgType: event.MsgImage,
		Body:    filename,
		URL:     upload.ContentURI.CUString(),
		Info: &event.FileInfo{
			MimeType: mimeType,
			Size:     len(data),
		},
	}
	_, err = b.matrix.SendMessageEvent(ctx, id.RoomID(roomID), event.EventMessage, content)
	if err != nil {
		return fmt.Errorf("sending image: %w", err)
	}
	return nil
}

// Ensure Bridge implements Sender
var _ Sender = (*Bridge)(nil)
