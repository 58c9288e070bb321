// ABOUTME: Tracks per-room manual-save conversation state
// ABOUTME: A begun save captures the room's next plain message until it expires

package bot

import (
	"sync"
	"time"
)

// defaultSaveTimeout bounds how long a save prompt stays armed.
const defaultSaveTimeout = 5 * time.Minute

// conversations holds the rooms with an armed save prompt.
// Expiry is lazy: a stale entry is dropped on the next lookup.
type conversations struct {
	mu      sync.Mutex
	started map[string]time.Time
	timeout time.Duration
}

func newConversations(timeout time.Duration) *conversations {
	if timeout <= 0 {
		timeout = defaultSaveTimeout
	}
	return &conversations{
		started: make(map[string]time.Time),
		timeout: timeout,
	}
}

// begin arms the save prompt for a room, replacing any earlier one.
func (c *conversations) begin(roomID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.started[roomID] = time.Now()
}

// awaiting reports whether the room has a live save prompt.
func (c *conversations) awaiting(roomID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	started, ok := c.started[roomID]
	if !ok {
		return false
	}
	if time.Since(started) > c.timeout {
		delete(c.started, roomID)
		return false
	}
	return true
}

// clear disarms the save prompt for a room.
func (c *conversations) clear(roomID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.started, roomID)
}
