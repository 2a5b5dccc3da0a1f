// Package ntp watches local clock health so snapshot timestamps can be
// trusted when topologies from several hosts are compared.
package ntp

import (
	"context"
	"sync"
	"time"

	"github.com/beevik/ntp"

	"portolan/internal/check"
	"portolan/mapper"
)

const (
	DefaultPool      = "pool.ntp.org"
	DefaultInterval  = 60 * time.Second
	DefaultThreshold = 500 * time.Millisecond
)

type Phase uint8

const (
	Unchecked Phase = iota + 1
	Healthy
	UnhealthyOffset
	Unreachable
)

func (p Phase) String() string {
	switch p {
	case Unchecked:
		return "unchecked"
	case Healthy:
		return "healthy"
	case UnhealthyOffset:
		return "unhealthy_offset"
	case Unreachable:
		return "unreachable"
	default:
		return "unknown"
	}
}

func (p Phase) Transition(to Phase) Phase {
	ok := false
	switch p {
	case Unchecked:
		ok = to == Healthy || to == UnhealthyOffset || to == Unreachable
	case Healthy, UnhealthyOffset, Unreachable:
		ok = to == Healthy || to == UnhealthyOffset || to == Unreachable
	}
	check.Assertf(ok, "ntp transition: %s -> %s", p, to)
	if !ok {
		return p
	}
	return to
}

// Status is the result of the most recent clock check.
type Status struct {
	Offset    time.Duration
	Phase     Phase
	Error     string
	CheckedAt time.Time
}

// Checker periodically measures the host clock offset against an NTP
// pool. CheckFunc replaces the network query in tests.
type Checker struct {
	mu        sync.RWMutex
	status    Status
	pool      string
	interval  time.Duration
	threshold time.Duration
	clock     mapper.Clock

	CheckFunc func() Status
}

// Option configures a Checker.
type Option func(*Checker)

// WithPool sets the NTP pool queried for the offset.
func WithPool(pool string) Option {
	return func(c *Checker) {
		if pool != "" {
			c.pool = pool
		}
	}
}

// WithInterval sets the delay between checks.
func WithInterval(d time.Duration) Option {
	return func(c *Checker) {
		if d > 0 {
			c.interval = d
		}
	}
}

// WithThreshold sets the offset above which the clock counts as skewed.
func WithThreshold(d time.Duration) Option {
	return func(c *Checker) {
		if d > 0 {
			c.threshold = d
		}
	}
}

// NewChecker creates a Checker in the unchecked phase.
func NewChecker(clock mapper.Clock, opts ...Option) *Checker {
	check.Assert(clock != nil, "ntp.NewChecker: clock must not be nil")
	c := &Checker{
		pool:      DefaultPool,
		interval:  DefaultInterval,
		threshold: DefaultThreshold,
		status:    Status{Phase: Unchecked},
		clock:     clock,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run checks immediately, then on every interval tick until ctx ends.
func (c *Checker) Run(ctx context.Context) {
	c.measure()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.measure()
		}
	}
}

func (c *Checker) measure() {
	if c.CheckFunc != nil {
		c.mu.Lock()
		c.status = c.CheckFunc()
		c.mu.Unlock()
		return
	}

	resp, err := ntp.Query(c.pool)

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	if err != nil {
		c.status = Status{
			Error:     err.Error(),
			Phase:     c.status.Phase.Transition(Unreachable),
			CheckedAt: now,
		}
		return
	}

	next := UnhealthyOffset
	if resp.ClockOffset.Abs() < c.threshold {
		next = Healthy
	}
	c.status = Status{
		Offset:    resp.ClockOffset,
		Phase:     c.status.Phase.Transition(next),
		CheckedAt: now,
	}
}

// Status returns the most recent check result.
func (c *Checker) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}
