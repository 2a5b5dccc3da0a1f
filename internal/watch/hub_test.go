package watch

import (
	"testing"
	"time"

	"portolan"
)

// --- helpers ---

func snapAt(sec int64) portolan.Snapshot {
	return portolan.Snapshot{Timestamp: time.Unix(sec, 0), DockerAvailable: true}
}

func recvSnap(t *testing.T, obs *Observer) portolan.Snapshot {
	t.Helper()
	select {
	case snap, ok := <-obs.Snapshots():
		if !ok {
			t.Fatal("stream closed")
		}
		return snap
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot delivered")
	}
	return portolan.Snapshot{}
}

// --- tests ---

func TestHub_BroadcastReachesAllObservers(t *testing.T) {
	hub := NewHub()
	a := hub.Subscribe()
	b := hub.Subscribe()
	defer hub.Close()

	hub.Broadcast(snapAt(1))

	for _, obs := range []*Observer{a, b} {
		if got := recvSnap(t, obs); !got.Timestamp.Equal(time.Unix(1, 0)) {
			t.Errorf("observer %s got %v", obs.ID(), got.Timestamp)
		}
	}
}

func TestHub_SubscribeSeedsLastSnapshot(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	hub.Broadcast(snapAt(7))

	obs := hub.Subscribe()
	select {
	case got := <-obs.Snapshots():
		if !got.Timestamp.Equal(time.Unix(7, 0)) {
			t.Errorf("seed = %v, want t=7", got.Timestamp)
		}
	default:
		t.Fatal("late subscriber was not seeded")
	}
}

func TestHub_SubscribeBeforeFirstBroadcast(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	obs := hub.Subscribe()
	select {
	case <-obs.Snapshots():
		t.Fatal("unexpected delivery before any broadcast")
	default:
	}
}

func TestHub_SlowObserverEvicted(t *testing.T) {
	hub := NewHub(WithBuffer(1))
	slow := hub.Subscribe()
	fast := hub.Subscribe()

	hub.Broadcast(snapAt(1))
	recvSnap(t, fast)

	// slow never drained, so its buffer is full now.
	hub.Broadcast(snapAt(2))

	if got := hub.Observers(); got != 1 {
		t.Errorf("observers = %d, want 1 after eviction", got)
	}
	if slow.phase != ObserverFailed {
		t.Errorf("slow phase = %s, want failed", slow.phase)
	}

	// The healthy observer still got the delivery that evicted slow.
	if got := recvSnap(t, fast); !got.Timestamp.Equal(time.Unix(2, 0)) {
		t.Errorf("fast got %v, want t=2", got.Timestamp)
	}

	// slow drains its buffered snapshot, then sees the closed stream.
	if got := recvSnap(t, slow); !got.Timestamp.Equal(time.Unix(1, 0)) {
		t.Errorf("slow got %v, want t=1", got.Timestamp)
	}
	if _, ok := <-slow.Snapshots(); ok {
		t.Error("evicted stream still open")
	}
}

func TestHub_UnsubscribeAfterEvictionIsNoop(t *testing.T) {
	hub := NewHub(WithBuffer(1))
	slow := hub.Subscribe()

	hub.Broadcast(snapAt(1))
	hub.Broadcast(snapAt(2))

	if got := hub.Observers(); got != 0 {
		t.Fatalf("observers = %d, want 0", got)
	}
	hub.Unsubscribe(slow)
	if slow.phase != ObserverFailed {
		t.Errorf("phase = %s, want failed to stick", slow.phase)
	}
}

func TestHub_Unsubscribe(t *testing.T) {
	hub := NewHub()
	obs := hub.Subscribe()

	hub.Unsubscribe(obs)

	if got := hub.Observers(); got != 0 {
		t.Errorf("observers = %d, want 0", got)
	}
	if obs.phase != ObserverClosed {
		t.Errorf("phase = %s, want closed", obs.phase)
	}
	if _, ok := <-obs.Snapshots(); ok {
		t.Error("stream still open after unsubscribe")
	}

	// Broadcasting afterwards must not panic on the closed channel.
	hub.Broadcast(snapAt(3))
}

func TestHub_Close(t *testing.T) {
	hub := NewHub()
	a := hub.Subscribe()
	b := hub.Subscribe()

	hub.Close()

	if got := hub.Observers(); got != 0 {
		t.Errorf("observers = %d, want 0", got)
	}
	for _, obs := range []*Observer{a, b} {
		if _, ok := <-obs.Snapshots(); ok {
			t.Errorf("observer %s stream still open", obs.ID())
		}
	}
}

func TestObserverPhaseTransitions(t *testing.T) {
	p := ObserverConnecting
	p = p.Transition(ObserverSubscribed)
	if p != ObserverSubscribed {
		t.Fatalf("phase = %s, want subscribed", p)
	}
	p = p.Transition(ObserverClosed)
	if p != ObserverClosed {
		t.Fatalf("phase = %s, want closed", p)
	}
	// Terminal phases reject further transitions in release builds.
	if got := p.Transition(ObserverSubscribed); got != ObserverClosed {
		t.Errorf("terminal phase moved to %s", got)
	}
}
