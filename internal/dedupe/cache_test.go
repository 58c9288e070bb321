// ABOUTME: Tests for the event-ID dedupe cache
// ABOUTME: Covers duplicate detection, expiry and size-capped eviction

package dedupe

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCheckAndMark(t *testing.T) {
	c := New(time.Minute, 100)
	defer c.Close()

	assert.False(t, c.CheckAndMark("$event1"), "first sighting is not a duplicate")
	assert.True(t, c.CheckAndMark("$event1"), "second sighting is a duplicate")
	assert.False(t, c.CheckAndMark("$event2"))
}

func TestExpiry(t *testing.T) {
	c := New(20*time.Millisecond, 100)
	defer c.Close()

	assert.False(t, c.CheckAndMark("$event1"))
	time.Sleep(30 * time.Millisecond)
	assert.False(t, c.CheckAndMark("$event1"), "expired entry is no longer a duplicate")
}

func TestSizeCapEviction(t *testing.T) {
	c := New(time.Minute, 2)
	defer c.Close()

	c.CheckAndMark("$a")
	c.CheckAndMark("$b")
	c.CheckAndMark("$c") // evicts $a

	assert.Equal(t, 2, c.Len())
	assert.False(t, c.CheckAndMark("$a"), "evicted entry is forgotten")
}

func TestRefreshSurvivesEviction(t *testing.T) {
	c := New(50*time.Millisecond, 3)
	defer c.Close()

	c.CheckAndMark("$a")
	c.CheckAndMark("$b")
	time.Sleep(60 * time.Millisecond)

	// Re-marking the expired $a must replace its order slot, not append
	// a second one; otherwise the size-cap eviction below pops the stale
	// front slot and deletes the refreshed entry with it, even though $b
	// is the true oldest.
	assert.False(t, c.CheckAndMark("$a"), "expired entry is re-markable")
	c.CheckAndMark("$c")
	c.CheckAndMark("$d")

	assert.True(t, c.CheckAndMark("$a"), "refreshed entry is still a duplicate within ttl")
}

func TestCloseIsIdempotent(t *testing.T) {
	c := New(time.Minute, 10)
	c.Close()
	c.Close()
}
