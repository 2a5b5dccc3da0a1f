// Package mapper turns container runtime state into network topology
// snapshots: it inventories containers, samples their resource stats,
// infers same-network connections, and publishes the result to a Store.
package mapper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"portolan"
	"portolan/internal/metrics"
)

// ErrUnavailable reports that the container runtime cannot be reached.
var ErrUnavailable = errors.New("container runtime unavailable")

const tracerName = "portolan/mapper"

// DefaultStatsWorkers bounds concurrent per-container stats reads.
const DefaultStatsWorkers = 4

// Mapper collects container inventory and resource stats from the
// runtime and publishes topology snapshots to a Store.
type Mapper struct {
	runtime ContainerRuntime
	store   *Store
	clock   Clock
	log     *slog.Logger
	metrics *metrics.Set
	workers int

	// refreshMu serializes snapshot production between the background
	// loop and on-demand refreshes.
	refreshMu sync.Mutex
}

// Option configures a Mapper.
type Option func(*Mapper)

// WithClock overrides the clock, for tests.
func WithClock(c Clock) Option {
	return func(m *Mapper) { m.clock = c }
}

// WithLogger sets the logger used for collection events.
func WithLogger(log *slog.Logger) Option {
	return func(m *Mapper) { m.log = log.With("component", "mapper") }
}

// WithMetrics sets the collector set updated on every refresh.
func WithMetrics(set *metrics.Set) Option {
	return func(m *Mapper) { m.metrics = set }
}

// WithStatsWorkers bounds how many containers are sampled concurrently.
func WithStatsWorkers(n int) Option {
	return func(m *Mapper) {
		if n > 0 {
			m.workers = n
		}
	}
}

// New creates a Mapper that publishes snapshots to store.
func New(runtime ContainerRuntime, store *Store, opts ...Option) *Mapper {
	m := &Mapper{
		runtime: runtime,
		store:   store,
		clock:   RealClock{},
		log:     slog.Default().With("component", "mapper"),
		metrics: metrics.NewUnregistered(),
		workers: DefaultStatsWorkers,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Store returns the store this mapper publishes to.
func (m *Mapper) Store() *Store {
	return m.store
}

// Refresh produces a fresh snapshot and publishes it. Inventory-level
// failures publish a degraded snapshot instead of dropping the cycle.
// Concurrent callers are serialized; each publishes its own result.
// The returned error is non-nil only when ctx is canceled, in which
// case nothing is published.
func (m *Mapper) Refresh(ctx context.Context) (portolan.Snapshot, error) {
	m.refreshMu.Lock()
	defer m.refreshMu.Unlock()

	started := m.clock.Now()
	snap, err := m.Collect(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return portolan.Snapshot{}, ctx.Err()
		}
		m.log.Warn("collection failed", "err", err)
		snap = portolan.ErrorSnapshot(degradeMessage(err), m.clock.Now())
	}

	m.store.Publish(snap)
	m.observe(snap, m.clock.Now().Sub(started).Seconds())
	return snap, nil
}

// Collect gathers one topology snapshot from the runtime without
// publishing it. Per-container stats failures degrade to an error
// marker on the affected record; only inventory-level failures and
// cancellation return an error.
func (m *Mapper) Collect(ctx context.Context) (_ portolan.Snapshot, err error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "mapper.Collect",
		trace.WithAttributes(attribute.Int("workers", m.workers)))
	defer func() {
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if err := m.runtime.Ping(ctx); err != nil {
		return portolan.Snapshot{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	summaries, err := m.runtime.ListContainers(ctx)
	if err != nil {
		return portolan.Snapshot{}, fmt.Errorf("list containers: %w", err)
	}

	records := make([]portolan.ContainerRecord, len(summaries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.workers)
	for i, summary := range summaries {
		g.Go(func() error {
			rec, err := m.sample(gctx, summary)
			if err != nil {
				return err
			}
			records[i] = rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return portolan.Snapshot{}, fmt.Errorf("sample containers: %w", err)
	}

	connections := portolan.InferConnections(records)
	byID := make(map[string]portolan.ContainerRecord, len(records))
	for _, rec := range records {
		byID[rec.ID] = rec
	}

	snap := portolan.Snapshot{
		Containers:      byID,
		Connections:     connections,
		Timestamp:       m.clock.Now(),
		Summary:         portolan.Summarize(records, connections),
		DockerAvailable: true,
	}
	span.SetAttributes(
		attribute.Int("containers", len(records)),
		attribute.Int("connections", len(connections)),
	)
	return snap, nil
}

// sample builds one container record. Stats failures are recorded as a
// marker on the record; the error return is reserved for cancellation.
func (m *Mapper) sample(ctx context.Context, summary ContainerSummary) (portolan.ContainerRecord, error) {
	rec := portolan.ContainerRecord{
		ID:          summary.ID,
		Name:        summary.Name,
		Status:      summary.Status,
		Image:       summary.Image,
		Networks:    normalizeNetworks(summary.Networks),
		CollectedAt: m.clock.Now(),
	}

	raw, err := m.runtime.ContainerStats(ctx, summary.ID)
	if err != nil {
		if ctx.Err() != nil {
			return portolan.ContainerRecord{}, ctx.Err()
		}
		m.log.Debug("container stats failed", "container", summary.ID, "err", err)
		m.metrics.StatsFailures.Inc()
		rec.Stats = portolan.StatsError(portolan.StatsUnavailable)
		return rec, nil
	}
	rec.Stats = raw.Resources()
	return rec, nil
}

func (m *Mapper) observe(snap portolan.Snapshot, seconds float64) {
	outcome := metrics.OutcomeOK
	if snap.Degraded() {
		outcome = metrics.OutcomeDegraded
	}
	m.metrics.RefreshCycles.WithLabelValues(outcome).Inc()
	m.metrics.RefreshSeconds.Observe(seconds)
	m.metrics.Containers.Set(float64(snap.Summary.TotalContainers))
	m.metrics.Networks.Set(float64(snap.Summary.TotalNetworks))
	m.metrics.Connections.Set(float64(snap.Summary.TotalConnections))
}

// normalizeNetworks maps endpoints without an assigned address to the
// unassigned sentinel so downstream consumers see a uniform shape.
func normalizeNetworks(networks map[string]string) map[string]string {
	out := make(map[string]string, len(networks))
	for name, addr := range networks {
		if addr == "" {
			addr = portolan.UnassignedIP
		}
		out[name] = addr
	}
	return out
}

func degradeMessage(err error) string {
	if errors.Is(err, ErrUnavailable) {
		return portolan.ErrDockerUnavailable
	}
	return err.Error()
}
