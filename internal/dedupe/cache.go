// ABOUTME: TTL-bounded seen-set for Matrix event IDs
// ABOUTME: Suppresses reprocessing of events redelivered by the sync stream

package dedupe

import (
	"sync"
	"time"
)

// Cache tracks recently seen event IDs. Matrix sync can redeliver
// events after reconnects; marking each event ID here keeps the bot
// from ingesting or answering the same message twice.
type Cache struct {
	mu      sync.Mutex
	seen    map[string]time.Time
	order   []string // insertion order, oldest first
	ttl     time.Duration
	maxSize int
	done    chan struct{}
	closed  bool
}

// New creates a cache with the given TTL and maximum size.
// A background goroutine periodically removes expired entries.
func New(ttl time.Duration, maxSize int) *Cache {
	c := &Cache{
		seen:    make(map[string]time.Time),
		ttl:     ttl,
		maxSize: maxSize,
		done:    make(chan struct{}),
	}
	go c.cleanupLoop()
	return c
}

// CheckAndMark atomically checks whether the ID was already seen and
// marks it if not. Returns true for duplicates.
func (c *Cache) CheckAndMark(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	ts, ok := c.seen[id]
	if ok && now.Sub(ts) < c.ttl {
		return true
	}
	if ok {
		// Refreshing an expired ID: drop its stale order slot so the
		// size-cap eviction below cannot evict the fresh entry
		for i := range c.order {
			if c.order[i] == id {
				c.order = append(c.order[:i], c.order[i+1:]...)
				break
			}
		}
	}

	c.seen[id] = now
	c.order = append(c.order, id)

	// Evict oldest entries past the size cap
	for len(c.seen) > c.maxSize && len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.seen, oldest)
	}
	return false
}

// Len returns the number of tracked IDs, expired ones included until
// the next sweep.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.seen)
}

// Close stops the cleanup goroutine.
func (c *Cache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.done)
	}
}

func (c *Cache) cleanupLoop() {
	interval := c.ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.sweep()
		}
	}
}

// sweep drops expired entries from the front of the insertion order.
func (c *Cache) sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for len(c.order) > 0 {
		oldest := c.order[0]
		ts, ok := c.seen[oldest]
		if ok && now.Sub(ts) < c.ttl {
			break
		}
		c.order = c.order[1:]
		if ok {
			delete(c.seen, oldest)
		}
	}
}
