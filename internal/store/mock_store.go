// ABOUTME: Mock Store implementation for testing
// ABOUTME: Allows tests to run without SQLite and to inject storage failures

package store

import (
	"context"
	"strings"
	"sync"
	"time"
)

// MockStore is an in-memory Store implementation for testing.
// Setting Err makes every operation fail with that error, simulating
// storage unavailability.
type MockStore struct {
	mu       sync.RWMutex
	records  []*Record
	nextID   int64
	settings map[string]string
	audits   []*AuditEntry
	calls    []string

	Err error
}

// NewMockStore creates a new MockStore.
func NewMockStore() *MockStore {
	return &MockStore{
		nextID:   1,
		settings: make(map[string]string),
	}
}

// Calls returns the names of the store methods invoked so far.
func (m *MockStore) Calls() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.calls...)
}

func (m *MockStore) record(name string) error {
	m.calls = append(m.calls, name)
	return m.Err
}

// SaveRecord appends a record and returns its assigned id.
func (m *MockStore) SaveRecord(ctx context.Context, chatID, uid, note string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("SaveRecord"); err != nil {
		return 0, err
	}

	r := &Record{
		ID:      m.nextID,
		UID:     uid,
		Note:    note,
		ChatID:  chatID,
		SavedAt: time.Now().UTC(),
	}
	m.nextID++
	m.records = append(m.records, r)
	return r.ID, nil
}

// DeleteAll removes every record in the room.
func (m *MockStore) DeleteAll(ctx context.Context, chatID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("DeleteAll"); err != nil {
		return 0, err
	}

	var kept []*Record
	var removed int64
	for _, r := range m.records {
		if r.ChatID == chatID {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	m.records = kept
	return removed, nil
}

// DeleteByUID removes all records in the room with the exact uid.
func (m *MockStore) DeleteByUID(ctx context.Context, chatID, uid string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("DeleteByUID"); err != nil {
		return false, err
	}

	var kept []*Record
	removed := false
	for _, r := range m.records {
		if r.ChatID == chatID && r.UID == uid {
			removed = true
			continue
		}
		kept = append(kept, r)
	}
	m.records = kept
	return removed, nil
}

// Exists reports whether the room has a record with the exact uid.
func (m *MockStore) Exists(ctx context.Context, chatID, uid string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("Exists"); err != nil {
		return false, err
	}

	for _, r := range m.records {
		if r.ChatID == chatID && r.UID == uid {
			return true, nil
		}
	}
	return false, nil
}

// Search returns the room's records matching the query, capped at SearchLimit.
func (m *MockStore) Search(ctx context.Context, chatID, query string) ([]*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("Search"); err != nil {
		return nil, err
	}

	q := strings.ToLower(query)
	var out []*Record
	for _, r := range m.records {
		if r.ChatID != chatID {
			continue
		}
		if strings.Contains(strings.ToLower(r.UID), q) || strings.Contains(strings.ToLower(r.Note), q) {
			c := *r
			out = append(out, &c)
			if len(out) == SearchLimit {
				break
			}
		}
	}
	return out, nil
}

// Stats returns the room's count and most recent save time.
func (m *MockStore) Stats(ctx context.Context, chatID string) (*Summary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("Stats"); err != nil {
		return nil, err
	}

	summary := &Summary{}
	for _, r := range m.records {
		if r.ChatID != chatID {
			continue
		}
		summary.Count++
		if r.SavedAt.After(summary.LastSaved) {
			summary.LastSaved = r.SavedAt
		}
	}
	return summary, nil
}

// ExportAll returns every record in the room in insertion order.
func (m *MockStore) ExportAll(ctx context.Context, chatID string) ([]*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("ExportAll"); err != nil {
		return nil, err
	}

	var out []*Record
	for _, r := range m.records {
		if r.ChatID == chatID {
			c := *r
			out = append(out, &c)
		}
	}
	return out, nil
}

// SetNotificationText stores the room's notification text.
func (m *MockStore) SetNotificationText(ctx context.Context, chatID, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("SetNotificationText"); err != nil {
		return err
	}
	m.settings[chatID] = text
	return nil
}

// NotificationText retrieves the room's notification text.
func (m *MockStore) NotificationText(ctx context.Context, chatID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("NotificationText"); err != nil {
		return "", err
	}
	text, ok := m.settings[chatID]
	if !ok {
		return "", ErrNotFound
	}
	return text, nil
}

// AppendAudit stores an audit entry.
func (m *MockStore) AppendAudit(ctx context.Context, e *AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("AppendAudit"); err != nil {
		return err
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	c := *e
	m.audits = append(m.audits, &c)
	return nil
}

// ListAudit returns the room's audit entries, most recent first.
func (m *MockStore) ListAudit(ctx context.Context, chatID string, limit int) ([]*AuditEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("ListAudit"); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 100
	}

	var out []*AuditEntry
	for i := len(m.audits) - 1; i >= 0 && len(out) < limit; i-- {
		if m.audits[i].ChatID == chatID {
			c := *m.audits[i]
			out = append(out, &c)
		}
	}
	return out, nil
}

// Close is a no-op for the mock.
func (m *MockStore) Close() error {
	return nil
}

// Ensure MockStore implements Store interface
var _ Store = (*MockStore)(nil)
