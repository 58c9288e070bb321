// ABOUTME: CSV export formatting and stats report rendering
// ABOUTME: Turns store query results into file artifacts and reply text

package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"time"

	"github.com/ndhuy/uidkeeper/internal/store"
)

// Header is the CSV header row of an export file.
var Header = []string{"uid", "note", "saved_at"}

// unsafeChars matches room-ID characters that must not appear in a filename.
var unsafeChars = regexp.MustCompile(`[^0-9A-Za-z._-]`)

// Records writes the records as CSV: a header row followed by one row
// per record, timestamps in RFC3339, standard field quoting, UTF-8.
func Records(w io.Writer, records []*store.Record) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for _, r := range records {
		row := []string{r.UID, r.Note, r.SavedAt.UTC().Format(time.RFC3339)}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}
	return nil
}

// FileName returns the export artifact name for a room, with characters
// outside the UID-safe set mapped to underscores.
func FileName(chatID string) string {
	return fmt.Sprintf("uids_%s.csv", unsafeChars.ReplaceAllString(chatID, "_"))
}

// StatsText renders a room summary as a two-line report: total count
// and last-saved time truncated to seconds, with a placeholder when
// the room is empty.
func StatsText(s *store.Summary) string {
	last := "-"
	if !s.LastSaved.IsZero() {
		last = s.LastSaved.UTC().Truncate(time.Second).Format("2006-01-02 15:04:05")
	}
	return fmt.Sprintf("Total UIDs: %d\nLast saved: %s", s.Count, last)
}
