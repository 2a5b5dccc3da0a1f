// Package freshness tracks how recently the collector published a
// snapshot, so the health surface can tell a live daemon from one whose
// refresh loop has stalled.
package freshness

import (
	"sync"
	"time"

	"portolan/internal/check"
	"portolan/mapper"
)

// DefaultStaleAfter is the age at which the latest snapshot is
// considered stale: three missed refresh intervals.
const DefaultStaleAfter = 3 * mapper.DefaultInterval

type Phase uint8

const (
	Unknown Phase = iota + 1
	Fresh
	Stale
)

func (p Phase) String() string {
	switch p {
	case Unknown:
		return "unknown"
	case Fresh:
		return "fresh"
	case Stale:
		return "stale"
	default:
		return "unknown_phase"
	}
}

// Report describes the collector's publishing health at a point in time.
type Report struct {
	LastAt   time.Time     // completion time of the most recent cycle
	Duration time.Duration // how long that cycle took
	Age      time.Duration // time since LastAt
	Phase    Phase
	Cycles   uint64 // cycles published since startup
}

// Tracker records published refresh cycles and derives a freshness
// phase from the age of the most recent one.
type Tracker struct {
	mu         sync.RWMutex
	clock      mapper.Clock
	staleAfter time.Duration
	lastAt     time.Time
	duration   time.Duration
	cycles     uint64
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithStaleAfter sets the age beyond which the latest snapshot is
// reported stale.
func WithStaleAfter(d time.Duration) Option {
	return func(t *Tracker) {
		if d > 0 {
			t.staleAfter = d
		}
	}
}

// NewTracker creates a Tracker reading time from clock.
func NewTracker(clock mapper.Clock, opts ...Option) *Tracker {
	check.Assert(clock != nil, "freshness.NewTracker: clock must not be nil")
	t := &Tracker{
		clock:      clock,
		staleAfter: DefaultStaleAfter,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// RecordCycle notes a published snapshot and how long collecting it took.
func (t *Tracker) RecordCycle(took time.Duration) {
	now := t.clock.Now()

	t.mu.Lock()
	t.lastAt = now
	t.duration = took
	t.cycles++
	t.mu.Unlock()
}

// Report returns the current freshness of the published topology.
// Before the first cycle the phase is Unknown and all other fields are
// zero.
func (t *Tracker) Report() Report {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.cycles == 0 {
		return Report{Phase: Unknown}
	}

	age := t.clock.Now().Sub(t.lastAt)
	phase := Fresh
	if age > t.staleAfter {
		phase = Stale
	}
	return Report{
		LastAt:   t.lastAt,
		Duration: t.duration,
		Age:      age,
		Phase:    phase,
		Cycles:   t.cycles,
	}
}
