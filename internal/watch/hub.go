// Package watch fans topology snapshots out to subscribed observers.
package watch

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"portolan"
	"portolan/internal/check"
	"portolan/internal/metrics"
)

// DefaultBuffer is how many undelivered snapshots an observer may
// accumulate before the hub treats it as failed and evicts it.
const DefaultBuffer = 4

// Observer is one subscription to the snapshot stream. Its channel is
// closed when the observer is unsubscribed or evicted.
type Observer struct {
	id    string
	ch    chan portolan.Snapshot
	phase ObserverPhase
}

// ID returns the observer's identity, used in logs.
func (o *Observer) ID() string { return o.id }

// Snapshots returns the stream of delivered snapshots.
func (o *Observer) Snapshots() <-chan portolan.Snapshot { return o.ch }

// Hub delivers every broadcast snapshot to all subscribed observers.
// Late subscribers are seeded with the most recent snapshot. Delivery
// never blocks: an observer whose buffer is full failed to keep up and
// is evicted, which closes its channel.
type Hub struct {
	log     *slog.Logger
	metrics *metrics.Set
	buffer  int

	mu        sync.Mutex
	observers map[string]*Observer
	last      *portolan.Snapshot
}

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithBuffer sets the per-observer channel capacity.
func WithBuffer(n int) HubOption {
	return func(h *Hub) {
		if n > 0 {
			h.buffer = n
		}
	}
}

// WithLogger sets the logger used for subscription events.
func WithLogger(log *slog.Logger) HubOption {
	return func(h *Hub) { h.log = log.With("component", "watch") }
}

// WithMetrics sets the collector set tracking observer counts.
func WithMetrics(set *metrics.Set) HubOption {
	return func(h *Hub) { h.metrics = set }
}

// NewHub creates an empty hub.
func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		log:       slog.Default().With("component", "watch"),
		metrics:   metrics.NewUnregistered(),
		buffer:    DefaultBuffer,
		observers: make(map[string]*Observer),
	}
	for _, opt := range opts {
		opt(h)
	}
	check.Assertf(h.buffer >= 1, "hub buffer %d cannot seed subscribers", h.buffer)
	return h
}

// Subscribe registers a new observer. If the hub has seen a snapshot,
// the observer's stream starts with it.
func (h *Hub) Subscribe() *Observer {
	obs := &Observer{
		id:    uuid.NewString(),
		ch:    make(chan portolan.Snapshot, h.buffer),
		phase: ObserverConnecting,
	}

	h.mu.Lock()
	if h.last != nil {
		obs.ch <- *h.last
	}
	obs.phase = obs.phase.Transition(ObserverSubscribed)
	h.observers[obs.id] = obs
	count := len(h.observers)
	h.mu.Unlock()

	h.metrics.Observers.Set(float64(count))
	h.log.Debug("observer subscribed", "observer", obs.id, "observers", count)
	return obs
}

// Unsubscribe removes an observer and closes its channel. Calling it
// for an already evicted observer is a no-op.
func (h *Hub) Unsubscribe(obs *Observer) {
	h.mu.Lock()
	_, ok := h.observers[obs.id]
	if ok {
		delete(h.observers, obs.id)
		obs.phase = obs.phase.Transition(ObserverClosed)
		close(obs.ch)
	}
	count := len(h.observers)
	h.mu.Unlock()

	if ok {
		h.metrics.Observers.Set(float64(count))
		h.log.Debug("observer unsubscribed", "observer", obs.id, "observers", count)
	}
}

// Broadcast delivers snap to every observer. Failed observers are
// evicted; the rest are unaffected.
func (h *Hub) Broadcast(snap portolan.Snapshot) {
	h.mu.Lock()
	h.last = &snap
	var evicted []*Observer
	for id, obs := range h.observers {
		select {
		case obs.ch <- snap:
		default:
			delete(h.observers, id)
			obs.phase = obs.phase.Transition(ObserverFailed)
			close(obs.ch)
			evicted = append(evicted, obs)
		}
	}
	count := len(h.observers)
	h.mu.Unlock()

	h.metrics.Observers.Set(float64(count))
	for _, obs := range evicted {
		h.metrics.Evictions.Inc()
		h.log.Warn("observer evicted", "observer", obs.id, "phase", obs.phase)
	}
}

// Observers returns the number of subscribed observers.
func (h *Hub) Observers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.observers)
}

// Close evicts every observer, closing their channels.
func (h *Hub) Close() {
	h.mu.Lock()
	for id, obs := range h.observers {
		delete(h.observers, id)
		obs.phase = obs.phase.Transition(ObserverClosed)
		close(obs.ch)
	}
	h.mu.Unlock()

	h.metrics.Observers.Set(0)
}
