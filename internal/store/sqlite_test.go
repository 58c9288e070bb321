// ABOUTME: Tests for the SQLite store implementation
// ABOUTME: Covers room scoping, duplicates, delete completeness, search and stats

package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	return s
}

func TestNewSQLiteStore(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	s, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestNewSQLiteStore_CreatesDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "subdir", "nested", "test.db")

	s, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("database file was not created in nested directory")
	}
}

func TestSaveRecord_AssignsIncreasingIDs(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	ctx := context.Background()
	id1, err := s.SaveRecord(ctx, "!room:example.org", "100001", "first")
	if err != nil {
		t.Fatalf("SaveRecord failed: %v", err)
	}
	id2, err := s.SaveRecord(ctx, "!room:example.org", "100002", "second")
	if err != nil {
		t.Fatalf("SaveRecord failed: %v", err)
	}

	if id2 <= id1 {
		t.Errorf("expected increasing ids, got %d then %d", id1, id2)
	}
}

func TestSaveRecord_DuplicatesAllowed(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	ctx := context.Background()
	id1, err := s.SaveRecord(ctx, "!room:example.org", "100001", "dup")
	if err != nil {
		t.Fatalf("SaveRecord failed: %v", err)
	}
	id2, err := s.SaveRecord(ctx, "!room:example.org", "100001", "dup")
	if err != nil {
		t.Fatalf("SaveRecord failed: %v", err)
	}
	if id1 == id2 {
		t.Errorf("duplicate insert reused id %d", id1)
	}

	records, err := s.ExportAll(ctx, "!room:example.org")
	if err != nil {
		t.Fatalf("ExportAll failed: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("expected 2 records, got %d", len(records))
	}
}

func TestRoomScoping(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	ctx := context.Background()
	roomA := "!a:example.org"
	roomB := "!b:example.org"

	if _, err := s.SaveRecord(ctx, roomA, "alice", "in A"); err != nil {
		t.Fatalf("SaveRecord failed: %v", err)
	}
	if _, err := s.SaveRecord(ctx, roomB, "alice", "in B"); err != nil {
		t.Fatalf("SaveRecord failed: %v", err)
	}

	// Search in A must not see B's record
	records, err := s.Search(ctx, roomA, "alice")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record in room A, got %d", len(records))
	}
	if records[0].Note != "in A" {
		t.Errorf("room A search observed room B's record: %q", records[0].Note)
	}

	// Delete in A must not touch B
	removed, err := s.DeleteByUID(ctx, roomA, "alice")
	if err != nil {
		t.Fatalf("DeleteByUID failed: %v", err)
	}
	if !removed {
		t.Error("expected delete in room A to remove a record")
	}

	exists, err := s.Exists(ctx, roomB, "alice")
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if !exists {
		t.Error("delete in room A removed room B's record")
	}
}

func TestDeleteByUID_RemovesAllMatches(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	ctx := context.Background()
	room := "!room:example.org"
	for i := 0; i < 3; i++ {
		if _, err := s.SaveRecord(ctx, room, "100001", ""); err != nil {
			t.Fatalf("SaveRecord failed: %v", err)
		}
	}

	removed, err := s.DeleteByUID(ctx, room, "100001")
	if err != nil {
		t.Fatalf("DeleteByUID failed: %v", err)
	}
	if !removed {
		t.Error("expected DeleteByUID to report removal")
	}

	exists, err := s.Exists(ctx, room, "100001")
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if exists {
		t.Error("records with deleted uid still exist")
	}
}

func TestDeleteByUID_NotFound(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	removed, err := s.DeleteByUID(context.Background(), "!room:example.org", "nope")
	if err != nil {
		t.Fatalf("DeleteByUID failed: %v", err)
	}
	if removed {
		t.Error("expected no removal for unknown uid")
	}
}

func TestDeleteAll(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	ctx := context.Background()
	room := "!room:example.org"
	other := "!other:example.org"

	for i := 0; i < 5; i++ {
		if _, err := s.SaveRecord(ctx, room, "uid", ""); err != nil {
			t.Fatalf("SaveRecord failed: %v", err)
		}
	}
	if _, err := s.SaveRecord(ctx, other, "uid", ""); err != nil {
		t.Fatalf("SaveRecord failed: %v", err)
	}

	count, err := s.DeleteAll(ctx, room)
	if err != nil {
		t.Fatalf("DeleteAll failed: %v", err)
	}
	if count != 5 {
		t.Errorf("expected 5 removed, got %d", count)
	}

	// Other room is untouched
	summary, err := s.Stats(ctx, other)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if summary.Count != 1 {
		t.Errorf("DeleteAll leaked into other room: count %d", summary.Count)
	}
}

func TestSearch_MatchesUIDAndNote(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	ctx := context.Background()
	room := "!room:example.org"
	if _, err := s.SaveRecord(ctx, room, "100001", "John's profile"); err != nil {
		t.Fatalf("SaveRecord failed: %v", err)
	}
	if _, err := s.SaveRecord(ctx, room, "john.doe", ""); err != nil {
		t.Fatalf("SaveRecord failed: %v", err)
	}
	if _, err := s.SaveRecord(ctx, room, "200002", "unrelated"); err != nil {
		t.Fatalf("SaveRecord failed: %v", err)
	}

	records, err := s.Search(ctx, room, "john")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(records))
	}
	// Insertion order
	if records[0].UID != "100001" || records[1].UID != "john.doe" {
		t.Errorf("unexpected order: %q, %q", records[0].UID, records[1].UID)
	}
}

func TestSearch_PipeInUID(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	ctx := context.Background()
	room := "!room:example.org"
	if _, err := s.SaveRecord(ctx, room, "alice|x", ""); err != nil {
		t.Fatalf("SaveRecord failed: %v", err)
	}

	records, err := s.Search(ctx, room, "alice")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 match, got %d", len(records))
	}
	if records[0].UID != "alice|x" {
		t.Errorf("expected uid %q, got %q", "alice|x", records[0].UID)
	}
}

func TestSearch_LimitCap(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	ctx := context.Background()
	room := "!room:example.org"
	for i := 0; i < SearchLimit+10; i++ {
		if _, err := s.SaveRecord(ctx, room, "common", ""); err != nil {
			t.Fatalf("SaveRecord failed: %v", err)
		}
	}

	records, err := s.Search(ctx, room, "common")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(records) != SearchLimit {
		t.Errorf("expected %d records, got %d", SearchLimit, len(records))
	}
}

func TestStats(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	ctx := context.Background()
	room := "!room:example.org"

	// Empty room
	summary, err := s.Stats(ctx, room)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if summary.Count != 0 {
		t.Errorf("expected count 0, got %d", summary.Count)
	}
	if !summary.LastSaved.IsZero() {
		t.Errorf("expected zero LastSaved, got %v", summary.LastSaved)
	}

	before := time.Now().UTC().Add(-time.Second)
	if _, err := s.SaveRecord(ctx, room, "100001", ""); err != nil {
		t.Fatalf("SaveRecord failed: %v", err)
	}

	summary, err = s.Stats(ctx, room)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if summary.Count != 1 {
		t.Errorf("expected count 1, got %d", summary.Count)
	}
	if summary.LastSaved.Before(before) {
		t.Errorf("LastSaved %v is before insert time %v", summary.LastSaved, before)
	}
}

func TestExportAll_InsertionOrder(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	ctx := context.Background()
	room := "!room:example.org"
	uids := []string{"c", "a", "b"}
	for _, uid := range uids {
		if _, err := s.SaveRecord(ctx, room, uid, "note for "+uid); err != nil {
			t.Fatalf("SaveRecord failed: %v", err)
		}
	}

	records, err := s.ExportAll(ctx, room)
	if err != nil {
		t.Fatalf("ExportAll failed: %v", err)
	}
	if len(records) != len(uids) {
		t.Fatalf("expected %d records, got %d", len(uids), len(records))
	}
	for i, uid := range uids {
		if records[i].UID != uid {
			t.Errorf("position %d: expected %q, got %q", i, uid, records[i].UID)
		}
	}
}

func TestNotificationText(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	ctx := context.Background()
	room := "!room:example.org"

	_, err := s.NotificationText(ctx, room)
	if err != ErrNotFound {
		t.Errorf("expected ErrNotFound for unset text, got %v", err)
	}

	if err := s.SetNotificationText(ctx, room, "welcome"); err != nil {
		t.Fatalf("SetNotificationText failed: %v", err)
	}

	text, err := s.NotificationText(ctx, room)
	if err != nil {
		t.Fatalf("NotificationText failed: %v", err)
	}
	if text != "welcome" {
		t.Errorf("expected %q, got %q", "welcome", text)
	}

	// Overwrite
	if err := s.SetNotificationText(ctx, room, "updated"); err != nil {
		t.Fatalf("SetNotificationText failed: %v", err)
	}
	text, err = s.NotificationText(ctx, room)
	if err != nil {
		t.Fatalf("NotificationText failed: %v", err)
	}
	if text != "updated" {
		t.Errorf("expected %q, got %q", "updated", text)
	}
}
