// ABOUTME: Tests for CSV export and stats rendering
// ABOUTME: Covers the export round-trip, quoting and filename sanitization

package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndhuy/uidkeeper/internal/store"
)

func TestRecords_RoundTrip(t *testing.T) {
	saved := time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)
	records := []*store.Record{
		{UID: "100001", Note: "plain note", SavedAt: saved},
		{UID: "john.doe", Note: `note with "quotes", commas`, SavedAt: saved.Add(time.Minute)},
		{UID: "alice|x", Note: "", SavedAt: saved.Add(2 * time.Minute)},
	}

	var buf bytes.Buffer
	require.NoError(t, Records(&buf, records))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, len(records)+1)
	assert.Equal(t, Header, rows[0])

	for i, r := range records {
		assert.Equal(t, r.UID, rows[i+1][0])
		assert.Equal(t, r.Note, rows[i+1][1])
		got, err := time.Parse(time.RFC3339, rows[i+1][2])
		require.NoError(t, err)
		assert.True(t, got.Equal(r.SavedAt))
	}
}

func TestRecords_EmptyStillHasHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Records(&buf, nil))
	assert.Equal(t, "uid,note,saved_at\n", buf.String())
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "uids__room_example.org.csv", FileName("!room:example.org"))
	assert.Equal(t, "uids_12345.csv", FileName("12345"))
}

func TestStatsText(t *testing.T) {
	empty := StatsText(&store.Summary{})
	assert.Equal(t, "Total UIDs: 0\nLast saved: -", empty)

	s := &store.Summary{
		Count:     7,
		LastSaved: time.Date(2026, 3, 14, 15, 9, 26, 789000000, time.UTC),
	}
	text := StatsText(s)
	lines := strings.Split(text, "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Total UIDs: 7", lines[0])
	assert.Equal(t, "Last saved: 2026-03-14 15:09:26", lines[1], "truncated to seconds")
}
