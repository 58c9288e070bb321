// ABOUTME: Tests for the audit log store methods
// ABOUTME: Covers ID/timestamp generation, room scoping and detail round-trip

package store

import (
	"context"
	"testing"
	"time"
)

func TestAppendAudit_GeneratesIDAndTimestamp(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	ctx := context.Background()
	entry := &AuditEntry{
		Actor:  "@admin:example.org",
		Action: AuditDeleteAll,
		ChatID: "!room:example.org",
	}

	if err := s.AppendAudit(ctx, entry); err != nil {
		t.Fatalf("AppendAudit failed: %v", err)
	}
	if entry.ID == "" {
		t.Error("expected generated ID")
	}
	if entry.Timestamp.IsZero() {
		t.Error("expected generated timestamp")
	}
}

func TestListAudit_ScopedAndOrdered(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	ctx := context.Background()
	room := "!room:example.org"
	other := "!other:example.org"

	first := &AuditEntry{
		Actor:     "@admin:example.org",
		Action:    AuditExport,
		ChatID:    room,
		Detail:    map[string]any{"records": float64(3)},
		Timestamp: time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC),
	}
	second := &AuditEntry{
		Actor:     "@admin:example.org",
		Action:    AuditDeleteAll,
		ChatID:    room,
		Detail:    map[string]any{"removed": float64(3)},
		Timestamp: time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC),
	}
	elsewhere := &AuditEntry{
		Actor:  "@admin:example.org",
		Action: AuditExport,
		ChatID: other,
	}

	for _, e := range []*AuditEntry{first, second, elsewhere} {
		if err := s.AppendAudit(ctx, e); err != nil {
			t.Fatalf("AppendAudit failed: %v", err)
		}
	}

	entries, err := s.ListAudit(ctx, room, 0)
	if err != nil {
		t.Fatalf("ListAudit failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}

	// Most recent first
	if entries[0].Action != AuditDeleteAll {
		t.Errorf("expected delete_all first, got %s", entries[0].Action)
	}
	if entries[1].Action != AuditExport {
		t.Errorf("expected export second, got %s", entries[1].Action)
	}
	if entries[1].Detail["records"] != float64(3) {
		t.Errorf("detail did not round-trip: %v", entries[1].Detail)
	}
}
