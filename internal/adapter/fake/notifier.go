package fake

import (
	"sync"
	"time"

	"portolan"
	"portolan/mapper"
)

var _ mapper.Notifier = (*Notifier)(nil)

// Notifier records broadcast snapshots for assertion in tests.
type Notifier struct {
	mu    sync.Mutex
	snaps []portolan.Snapshot
	ch    chan portolan.Snapshot
}

// NewNotifier creates an empty Notifier.
func NewNotifier() *Notifier {
	return &Notifier{ch: make(chan portolan.Snapshot, 16)}
}

func (n *Notifier) Broadcast(snap portolan.Snapshot) {
	n.mu.Lock()
	n.snaps = append(n.snaps, snap)
	n.mu.Unlock()
	select {
	case n.ch <- snap:
	default:
	}
}

// Next waits for the next broadcast.
func (n *Notifier) Next(timeout time.Duration) (portolan.Snapshot, bool) {
	select {
	case snap := <-n.ch:
		return snap, true
	case <-time.After(timeout):
		return portolan.Snapshot{}, false
	}
}

// Broadcasts returns every snapshot broadcast so far.
func (n *Notifier) Broadcasts() []portolan.Snapshot {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]portolan.Snapshot, len(n.snaps))
	copy(out, n.snaps)
	return out
}
