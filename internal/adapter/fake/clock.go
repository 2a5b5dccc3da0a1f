package fake

import (
	"sync"
	"time"

	"portolan/mapper"
)

var _ mapper.Clock = (*Clock)(nil)

// Clock is a hand-driven clock. Time stands still until a test calls
// Advance.
type Clock struct {
	mu  sync.RWMutex
	now time.Time
}

// NewClock returns a Clock frozen at start.
func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

func (c *Clock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
