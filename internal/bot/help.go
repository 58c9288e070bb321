// ABOUTME: Help text for the bot's chat commands
// ABOUTME: Written in markdown and rendered to HTML for formatted replies

package bot

import (
	"bytes"
	"context"
	"strings"

	"github.com/yuin/goldmark"
)

const helpMarkdown = `**uidkeeper commands**

- ` + "`%psave`" + ` — save a UID manually; reply with ` + "`UID`" + ` or ` + "`UID|note`" + `
- ` + "`%pfind <text>`" + ` — search saved UIDs and notes
- ` + "`%pcheck <uid>`" + ` — check whether a UID is saved in this room
- ` + "`%pdelete <uid>`" + ` — delete one UID
- ` + "`%pdeleteall`" + ` — delete every UID in this room (admins)
- ` + "`%pexport`" + ` — export this room's UIDs as CSV (admins)
- ` + "`%pstats`" + ` — show UID count and last save time (admins)
- ` + "`%pfetchpic <uid>`" + ` — fetch a profile picture
- ` + "`%pfetchinfo <uid>`" + ` — fetch profile details
- ` + "`%pgetid`" + ` — show this room's ID and your user ID
- ` + "`%pcancel`" + ` — cancel a pending save

Profile links posted in the room are picked up automatically.
`

// cmdHelp renders the command reference as a formatted message,
// falling back to the raw markdown when rendering fails.
func (h *Handler) cmdHelp(ctx context.Context, roomID string) {
	plain := strings.ReplaceAll(helpMarkdown, "%p", h.prefix)

	var htmlBuf bytes.Buffer
	if err := goldmark.Convert([]byte(plain), &htmlBuf); err != nil {
		h.logger.Error("failed to render help", "error", err)
		h.reply(ctx, roomID, plain)
		return
	}

	if err := h.sender.SendHTML(ctx, roomID, plain, htmlBuf.String()); err != nil {
		h.logger.Error("failed to send help", "room", roomID, "error", err)
	}
}
