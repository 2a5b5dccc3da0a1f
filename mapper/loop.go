package mapper

import (
	"context"
	"log/slog"
	"time"
)

const (
	// DefaultInterval is the cadence between healthy refresh cycles.
	DefaultInterval = 10 * time.Second
	// DefaultRetry is the shortened delay after a degraded cycle.
	DefaultRetry = 5 * time.Second
)

// Loop periodically refreshes the topology and hands each snapshot to
// the notifier. It owns its goroutine lifecycle via Start/Stop.
type Loop struct {
	mapper   *Mapper
	notifier Notifier
	recorder CycleRecorder
	interval time.Duration
	retry    time.Duration
	log      *slog.Logger

	cancel  context.CancelFunc
	done    chan struct{}
	started chan struct{}
}

// LoopOption configures a Loop.
type LoopOption func(*Loop)

// WithInterval sets the delay between healthy refresh cycles.
func WithInterval(d time.Duration) LoopOption {
	return func(l *Loop) {
		if d > 0 {
			l.interval = d
		}
	}
}

// WithRetry sets the delay after a degraded cycle.
func WithRetry(d time.Duration) LoopOption {
	return func(l *Loop) {
		if d > 0 {
			l.retry = d
		}
	}
}

// WithLoopLogger sets the logger used for loop lifecycle events.
func WithLoopLogger(log *slog.Logger) LoopOption {
	return func(l *Loop) { l.log = log.With("component", "loop") }
}

// WithCycleRecorder reports each published cycle to recorder.
func WithCycleRecorder(recorder CycleRecorder) LoopOption {
	return func(l *Loop) { l.recorder = recorder }
}

// NewLoop creates a refresh loop over mapper, broadcasting every
// published snapshot through notifier.
func NewLoop(mapper *Mapper, notifier Notifier, opts ...LoopOption) *Loop {
	l := &Loop{
		mapper:   mapper,
		notifier: notifier,
		interval: DefaultInterval,
		retry:    DefaultRetry,
		log:      slog.Default().With("component", "loop"),
		started:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Started is closed once the first snapshot has been published.
func (l *Loop) Started() <-chan struct{} {
	return l.started
}

// Start launches the refresh loop in a background goroutine. The first
// cycle runs immediately so the store is populated before the API
// serves traffic.
func (l *Loop) Start(ctx context.Context) error {
	ctx, l.cancel = context.WithCancel(ctx)
	l.done = make(chan struct{})

	go func() {
		defer close(l.done)
		l.run(ctx)
	}()

	return nil
}

// Stop cancels the refresh loop and waits for it to exit.
func (l *Loop) Stop() error {
	if l.cancel != nil {
		l.cancel()
		<-l.done
	}
	return nil
}

func (l *Loop) run(ctx context.Context) {
	timer := time.NewTimer(0)
	defer timer.Stop()

	first := true
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		cycleStart := time.Now()
		snap, err := l.mapper.Refresh(ctx)
		if err != nil {
			// Refresh fails only on cancellation.
			return
		}
		l.notifier.Broadcast(snap)
		if l.recorder != nil {
			l.recorder.RecordCycle(time.Since(cycleStart))
		}
		if first {
			close(l.started)
			first = false
		}

		if snap.Degraded() {
			l.log.Debug("cycle degraded, retrying sooner", "retry", l.retry)
			timer.Reset(l.retry)
		} else {
			timer.Reset(l.interval)
		}
	}
}
