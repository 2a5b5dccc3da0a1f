package mapper

import (
	"context"
	"time"

	"portolan"
)

// ContainerSummary is one inventory row as reported by the runtime.
// Networks maps network name to the container's address on it; the
// address is empty when the endpoint has none assigned.
type ContainerSummary struct {
	ID       string
	Name     string
	Status   string
	Image    string
	Networks map[string]string
}

// ContainerRuntime abstracts read-only container engine observation.
// Production: adapter/docker.Runtime (wrapping Docker *client.Client)
// Testing: adapter/fake.Runtime
type ContainerRuntime interface {
	Ping(ctx context.Context) error
	ListContainers(ctx context.Context) ([]ContainerSummary, error)
	ContainerStats(ctx context.Context, id string) (portolan.RawStats, error)
	Close() error
}

// Notifier receives every published snapshot for fan-out to observers.
// Production: watch.Hub
// Testing: in-memory fake
type Notifier interface {
	Broadcast(snap portolan.Snapshot)
}

// CycleRecorder is told about every published refresh cycle.
// Production: freshness.Tracker
// Testing: in-memory fake
type CycleRecorder interface {
	RecordCycle(took time.Duration)
}

// Clock abstracts time.Now() for deterministic testing.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the real system clock.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }
