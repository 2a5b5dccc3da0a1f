// Package fake provides in-memory test doubles for the daemon's ports.
package fake

import (
	"context"
	"fmt"
	"sync"

	"portolan"
	"portolan/mapper"
)

var _ mapper.ContainerRuntime = (*Runtime)(nil)

// Runtime is an in-memory implementation of mapper.ContainerRuntime.
// Inventory order is the order containers were added.
type Runtime struct {
	CallRecorder
	mu         sync.Mutex
	available  bool
	containers []mapper.ContainerSummary
	stats      map[string]portolan.RawStats

	PingErr  func(ctx context.Context) error
	ListErr  func(ctx context.Context) error
	StatsErr func(ctx context.Context, id string) error
}

// NewRuntime creates a Runtime that is reachable and empty.
func NewRuntime() *Runtime {
	return &Runtime{
		available: true,
		stats:     make(map[string]portolan.RawStats),
	}
}

// AddContainer registers a container and its raw stats sample.
func (r *Runtime) AddContainer(summary mapper.ContainerSummary, stats portolan.RawStats) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.containers = append(r.containers, summary)
	r.stats[summary.ID] = stats
}

// RemoveContainer drops a container from the inventory.
func (r *Runtime) RemoveContainer(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.containers[:0]
	for _, c := range r.containers {
		if c.ID != id {
			out = append(out, c)
		}
	}
	r.containers = out
	delete(r.stats, id)
}

// DropStats removes the stats sample for id while keeping the container
// listed, simulating a container that vanishes between list and stats.
func (r *Runtime) DropStats(id string) {
	r.mu.Lock()
	delete(r.stats, id)
	r.mu.Unlock()
}

// SetAvailable flips daemon reachability.
func (r *Runtime) SetAvailable(ok bool) {
	r.mu.Lock()
	r.available = ok
	r.mu.Unlock()
}

func (r *Runtime) Ping(ctx context.Context) error {
	r.record("Ping")
	if r.PingErr != nil {
		if err := r.PingErr(ctx); err != nil {
			return err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.available {
		return fmt.Errorf("daemon unreachable")
	}
	return nil
}

func (r *Runtime) ListContainers(ctx context.Context) ([]mapper.ContainerSummary, error) {
	r.record("ListContainers")
	if r.ListErr != nil {
		if err := r.ListErr(ctx); err != nil {
			return nil, err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.available {
		return nil, fmt.Errorf("daemon unreachable")
	}
	out := make([]mapper.ContainerSummary, len(r.containers))
	copy(out, r.containers)
	return out, nil
}

func (r *Runtime) ContainerStats(ctx context.Context, id string) (portolan.RawStats, error) {
	r.record("ContainerStats", id)
	if r.StatsErr != nil {
		if err := r.StatsErr(ctx, id); err != nil {
			return portolan.RawStats{}, err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	raw, ok := r.stats[id]
	if !ok {
		return portolan.RawStats{}, fmt.Errorf("container %q not found", id)
	}
	return raw, nil
}

func (r *Runtime) Close() error {
	r.record("Close")
	return nil
}
