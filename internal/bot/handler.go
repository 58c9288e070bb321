// ABOUTME: Command routing and the manual-save conversation for uidkeeper
// ABOUTME: Maps chat commands to store/resolver operations with admin gating

package bot

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ndhuy/uidkeeper/internal/auth"
	"github.com/ndhuy/uidkeeper/internal/export"
	"github.com/ndhuy/uidkeeper/internal/ingest"
	"github.com/ndhuy/uidkeeper/internal/resolver"
	"github.com/ndhuy/uidkeeper/internal/store"
)

// replyRejected is the fixed reply for non-admin use of privileged commands.
const replyRejected = "This command is for admins only."

// replyStorageFailure is the generic reply when the store is unavailable.
const replyStorageFailure = "Storage error, please try again later."

// Sender delivers replies back to the chat transport.
type Sender interface {
	SendText(ctx context.Context, roomID, text string) error
	SendHTML(ctx context.Context, roomID, plain, html string) error
	SendFile(ctx context.Context, roomID, filename, mimeType string, data []byte) error
	SendImage(ctx context.Context, roomID, filename, mimeType string, data []byte) error
}

// Resolver is the profile-resolution surface the handler needs.
type Resolver interface {
	ingest.Extractor
	FetchProfile(ctx context.Context, uid string) (*resolver.Profile, bool)
	PictureURL(uid string) string
	Enabled() bool
}

// Handler routes incoming messages: commands to their operations,
// pending manual-save input to the store, and everything else through
// the ingestion pipeline.
type Handler struct {
	store    store.Store
	resolver Resolver
	pipeline *ingest.Pipeline
	policy   *auth.Policy
	pending  *conversations
	prefix   string
	sender   Sender
	download *http.Client
	logger   *slog.Logger
}

// NewHandler creates a message handler. The sender is attached by the
// bridge at construction time.
func NewHandler(s store.Store, r Resolver, pipeline *ingest.Pipeline, policy *auth.Policy, prefix string, saveTimeout time.Duration) *Handler {
	if prefix == "" {
		prefix = "!"
	}
	return &Handler{
		store:    s,
		resolver: r,
		pipeline: pipeline,
		policy:   policy,
		pending:  newConversations(saveTimeout),
		prefix:   prefix,
		download: &http.Client{Timeout: 30 * time.Second},
		logger:   slog.Default().With("component", "bot"),
	}
}

// HandleMessage processes one incoming text message.
// Commands are routed first; a pending manual-save conversation
// consumes the next plain-text message from its room; anything else is
// swept for profile links.
func (h *Handler) HandleMessage(ctx context.Context, roomID, sender, body string) {
	if strings.HasPrefix(body, h.prefix) {
		h.handleCommand(ctx, roomID, sender, strings.TrimPrefix(body, h.prefix))
		return
	}

	if h.pending.awaiting(roomID) {
		h.handleSaveInput(ctx, roomID, body)
		return
	}

	h.handleIngest(ctx, roomID, body)
}

// handleCommand dispatches a single command invocation.
func (h *Handler) handleCommand(ctx context.Context, roomID, sender, invocation string) {
	fields := strings.Fields(invocation)
	if len(fields) == 0 {
		return
	}
	cmd := strings.ToLower(fields[0])
	args := fields[1:]

	switch cmd {
	case "save":
		h.cmdSave(ctx, roomID)
	case "find":
		h.cmdFind(ctx, roomID, args)
	case "check":
		h.cmdCheck(ctx, roomID, args)
	case "delete":
		h.cmdDelete(ctx, roomID, args)
	case "deleteall":
		h.cmdDeleteAll(ctx, roomID, sender)
	case "export":
		h.cmdExport(ctx, roomID, sender)
	case "stats":
		h.cmdStats(ctx, roomID, sender)
	case "notify":
		// Placeholder: notification editing is not wired up yet
		h.cmdHelp(ctx, roomID)
	case "getid":
		h.reply(ctx, roomID, fmt.Sprintf("Room: %s\nUser: %s", roomID, sender))
	case "fetchpic":
		h.cmdFetchPic(ctx, roomID, args)
	case "fetchinfo":
		h.cmdFetchInfo(ctx, roomID, args)
	case "cancel":
		h.pending.clear(roomID)
		h.reply(ctx, roomID, "Cancelled.")
	case "help":
		h.cmdHelp(ctx, roomID)
	default:
		h.reply(ctx, roomID, fmt.Sprintf("Unknown command %q. Try %shelp.", cmd, h.prefix))
	}
}

// handleIngest sweeps a plain message for profile links.
// No recognized link means no reply at all.
func (h *Handler) handleIngest(ctx context.Context, roomID, body string) {
	saved, err := h.pipeline.Process(ctx, roomID, body)
	if err != nil {
		h.logger.Error("ingestion failed", "room", roomID, "error", err)
		h.reply(ctx, roomID, replyStorageFailure)
		return
	}
	if len(saved) == 0 {
		return
	}
	h.reply(ctx, roomID, "Auto-saved UIDs: "+strings.Join(saved, ", "))
}

func (h *Handler) cmdSave(ctx context.Context, roomID string) {
	h.pending.begin(roomID)
	h.reply(ctx, roomID, "Send a UID (or UID|note):")
}

// handleSaveInput consumes the reply to a save prompt. The text is
// split on the first | into UID and note; a UID that itself contains
// | cannot be entered through this dialogue.
func (h *Handler) handleSaveInput(ctx context.Context, roomID, body string) {
	h.pending.clear(roomID)

	uid := strings.TrimSpace(body)
	note := ""
	if i := strings.Index(body, "|"); i >= 0 {
		uid = strings.TrimSpace(body[:i])
		note = strings.TrimSpace(body[i+1:])
	}
	if uid == "" {
		h.reply(ctx, roomID, "Empty UID, nothing saved.")
		return
	}

	if _, err := h.store.SaveRecord(ctx, roomID, uid, note); err != nil {
		h.logger.Error("manual save failed", "room", roomID, "error", err)
		h.reply(ctx, roomID, replyStorageFailure)
		return
	}
	h.reply(ctx, roomID, "Saved UID: "+uid)
}

func (h *Handler) cmdFind(ctx context.Context, roomID string, args []string) {
	if len(args) == 0 {
		h.reply(ctx, roomID, fmt.Sprintf("Usage: %sfind <text>", h.prefix))
		return
	}
	query := strings.Join(args, " ")

	records, err := h.store.Search(ctx, roomID, query)
	if err != nil {
		h.logger.Error("search failed", "room", roomID, "error", err)
		h.reply(ctx, roomID, replyStorageFailure)
		return
	}
	if len(records) == 0 {
		h.reply(ctx, roomID, "No results.")
		return
	}

	var lines []string
	for _, r := range records {
		note := r.Note
		if note == "" {
			note = "-"
		}
		lines = append(lines, fmt.Sprintf("%s — %s (saved: %s)",
			r.UID, note, r.SavedAt.UTC().Format("2006-01-02 15:04:05")))
	}
	h.reply(ctx, roomID, strings.Join(lines, "\n"))
}

func (h *Handler) cmdCheck(ctx context.Context, roomID string, args []string) {
	if len(args) == 0 {
		h.reply(ctx, roomID, fmt.Sprintf("Usage: %scheck <uid>", h.prefix))
		return
	}

	exists, err := h.store.Exists(ctx, roomID, args[0])
	if err != nil {
		h.logger.Error("check failed", "room", roomID, "error", err)
		h.reply(ctx, roomID, replyStorageFailure)
		return
	}
	if exists {
		h.reply(ctx, roomID, "Exists.")
	} else {
		h.reply(ctx, roomID, "Not found.")
	}
}

func (h *Handler) cmdDelete(ctx context.Context, roomID string, args []string) {
	if len(args) == 0 {
		h.reply(ctx, roomID, fmt.Sprintf("Usage: %sdelete <uid>", h.prefix))
		return
	}

	removed, err := h.store.DeleteByUID(ctx, roomID, args[0])
	if err != nil {
		h.logger.Error("delete failed", "room", roomID, "error", err)
		h.reply(ctx, roomID, replyStorageFailure)
		return
	}
	if removed {
		h.reply(ctx, roomID, "Deleted.")
	} else {
		h.reply(ctx, roomID, "UID not found.")
	}
}

func (h *Handler) cmdDeleteAll(ctx context.Context, roomID, sender string) {
	if !h.requireAdmin(ctx, roomID, sender) {
		return
	}

	count, err := h.store.DeleteAll(ctx, roomID)
	if err != nil {
		h.logger.Error("delete all failed", "room", roomID, "error", err)
		h.reply(ctx, roomID, replyStorageFailure)
		return
	}

	h.audit(ctx, sender, store.AuditDeleteAll, roomID, map[string]any{"removed": count})
	h.reply(ctx, roomID, fmt.Sprintf("Removed all %d UIDs in this room.", count))
}

func (h *Handler) cmdExport(ctx context.Context, roomID, sender string) {
	if !h.requireAdmin(ctx, roomID, sender) {
		return
	}

	records, err := h.store.ExportAll(ctx, roomID)
	if err != nil {
		h.logger.Error("export failed", "room", roomID, "error", err)
		h.reply(ctx, roomID, replyStorageFailure)
		return
	}
	if len(records) == 0 {
		h.reply(ctx, roomID, "No UIDs to export.")
		return
	}

	var buf strings.Builder
	if err := export.Records(&buf, records); err != nil {
		h.logger.Error("rendering export failed", "room", roomID, "error", err)
		h.reply(ctx, roomID, replyStorageFailure)
		return
	}

	filename := export.FileName(roomID)
	if err := h.sender.SendFile(ctx, roomID, filename, "text/csv", []byte(buf.String())); err != nil {
		h.logger.Error("sending export failed", "room", roomID, "error", err)
		return
	}
	h.audit(ctx, sender, store.AuditExport, roomID, map[string]any{"records": len(records)})
}

func (h *Handler) cmdStats(ctx context.Context, roomID, sender string) {
	if !h.requireAdmin(ctx, roomID, sender) {
		return
	}

	summary, err := h.store.Stats(ctx, roomID)
	if err != nil {
		h.logger.Error("stats failed", "room", roomID, "error", err)
		h.reply(ctx, roomID, replyStorageFailure)
		return
	}
	h.reply(ctx, roomID, export.StatsText(summary))
}

func (h *Handler) cmdFetchPic(ctx context.Context, roomID string, args []string) {
	if len(args) == 0 {
		h.reply(ctx, roomID, fmt.Sprintf("Usage: %sfetchpic <uid>", h.prefix))
		return
	}
	uid := args[0]

	pictureURL := h.resolver.PictureURL(uid)
	if profile, ok := h.resolver.FetchProfile(ctx, uid); ok {
		if profile.Name != "" {
			h.reply(ctx, roomID, "Name: "+profile.Name)
		}
		if profile.PictureURL != "" {
			pictureURL = profile.PictureURL
		}
	}

	data, mimeType, err := h.downloadPicture(ctx, pictureURL)
	if err != nil {
		h.logger.Warn("picture download failed", "uid", uid, "error", err)
		h.reply(ctx, roomID, "Picture: "+pictureURL)
		return
	}
	if err := h.sender.SendImage(ctx, roomID, uid+".jpg", mimeType, data); err != nil {
		h.logger.Error("sending picture failed", "room", roomID, "error", err)
	}
}

func (h *Handler) cmdFetchInfo(ctx context.Context, roomID string, args []string) {
	if len(args) == 0 {
		h.reply(ctx, roomID, fmt.Sprintf("Usage: %sfetchinfo <uid>", h.prefix))
		return
	}
	uid := args[0]

	profile, ok := h.resolver.FetchProfile(ctx, uid)
	if !ok {
		h.reply(ctx, roomID, "No info available (resolver not configured or lookup failed).")
		return
	}

	var lines []string
	lines = append(lines, "UID: "+profile.ID)
	if profile.Name != "" {
		lines = append(lines, "Name: "+profile.Name)
	}
	if profile.PictureURL != "" {
		lines = append(lines, "Picture: "+profile.PictureURL)
	}
	h.reply(ctx, roomID, strings.Join(lines, "\n"))
}

// requireAdmin enforces the allow-list; a rejection reply has no side
// effects and the store is never touched.
func (h *Handler) requireAdmin(ctx context.Context, roomID, sender string) bool {
	if h.policy.IsPrivileged(sender) {
		return true
	}
	h.logger.Info("privileged command rejected", "room", roomID, "sender", sender)
	h.reply(ctx, roomID, replyRejected)
	return false
}

// audit records a privileged operation; failures are logged, not
// surfaced, since the operation itself already succeeded.
func (h *Handler) audit(ctx context.Context, actor string, action store.AuditAction, roomID string, detail map[string]any) {
	entry := &store.AuditEntry{
		Actor:  actor,
		Action: action,
		ChatID: roomID,
		Detail: detail,
	}
	if err := h.store.AppendAudit(ctx, entry); err != nil {
		h.logger.Warn("audit append failed", "action", action, "error", err)
	}
}

// downloadPicture fetches an image for re-upload to the Matrix media repo.
func (h *Handler) downloadPicture(ctx context.Context, rawURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("building picture request: %w", err)
	}

	resp, err := h.download.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetching picture: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("picture fetch returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("reading picture: %w", err)
	}

	mimeType := resp.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	return data, mimeType, nil
}

// reply sends a text reply, logging send failures.
func (h *Handler) reply(ctx context.Context, roomID, text string) {
	if err := h.sender.SendText(ctx, roomID, text); err != nil {
		h.logger.Error("failed to send reply", "room", roomID, "error", err)
	}
}
