// Package daemon assembles the collector, topology store, observer hub,
// clock checker, and HTTP API into one long-running process.
package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"portolan/api"
	"portolan/internal/adapter/docker"
	"portolan/internal/metrics"
	"portolan/internal/signal/freshness"
	"portolan/internal/signal/ntp"
	"portolan/internal/telemetry"
	"portolan/internal/watch"
	"portolan/mapper"

	systemd "github.com/coreos/go-systemd/v22/daemon"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

// Config carries the daemon's wiring knobs. Zero values fall back to
// package defaults.
type Config struct {
	// Listen is the TCP address the HTTP API binds to.
	Listen string
	// SocketPath additionally exposes the API on a unix socket when set.
	SocketPath string
	// DockerHost overrides the environment's daemon address when set.
	DockerHost string

	RefreshInterval time.Duration
	RetryInterval   time.Duration
	StatsWorkers    int

	// NTPPool is the server pool used to audit the local clock.
	NTPPool string
	// OTLPEndpoint enables trace export when set.
	OTLPEndpoint string
}

// Run wires the daemon together, starts the refresh loop and the API
// server, and blocks until ctx is cancelled.
func Run(ctx context.Context, cfg Config) error {
	log := slog.Default()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.OTLPEndpoint)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Warn("Failed to flush traces.", "err", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	set := metrics.New(registry)

	runtimeOpts := []docker.Option{docker.WithLogger(log)}
	if cfg.DockerHost != "" {
		runtimeOpts = append(runtimeOpts, docker.WithHost(cfg.DockerHost))
	}
	runtime, err := docker.NewRuntime(runtimeOpts...)
	if err != nil {
		return fmt.Errorf("create docker runtime: %w", err)
	}
	defer runtime.Close()

	store := mapper.NewStore()
	m := mapper.New(runtime, store,
		mapper.WithLogger(log),
		mapper.WithMetrics(set),
		mapper.WithStatsWorkers(cfg.StatsWorkers),
	)

	hub := watch.NewHub(
		watch.WithLogger(log),
		watch.WithMetrics(set),
	)
	defer hub.Close()

	freshOpts := []freshness.Option{}
	if cfg.RefreshInterval > 0 {
		freshOpts = append(freshOpts, freshness.WithStaleAfter(3*cfg.RefreshInterval))
	}
	fresh := freshness.NewTracker(mapper.RealClock{}, freshOpts...)

	loopOpts := []mapper.LoopOption{
		mapper.WithLoopLogger(log),
		mapper.WithCycleRecorder(fresh),
	}
	if cfg.RefreshInterval > 0 {
		loopOpts = append(loopOpts, mapper.WithInterval(cfg.RefreshInterval))
	}
	if cfg.RetryInterval > 0 {
		loopOpts = append(loopOpts, mapper.WithRetry(cfg.RetryInterval))
	}
	loop := mapper.NewLoop(m, hub, loopOpts...)

	checkerOpts := []ntp.Option{}
	if cfg.NTPPool != "" {
		checkerOpts = append(checkerOpts, ntp.WithPool(cfg.NTPPool))
	}
	checker := ntp.NewChecker(mapper.RealClock{}, checkerOpts...)

	srv := api.New(store, m, hub,
		api.WithLogger(log),
		api.WithMetrics(set),
		api.WithMetricsHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})),
		api.WithClockStatus(checker),
		api.WithCycleStatus(fresh),
	)

	if err := loop.Start(ctx); err != nil {
		return fmt.Errorf("start refresh loop: %w", err)
	}
	defer func() { _ = loop.Stop() }()

	// Notify systemd once the first snapshot has been published, so
	// Type=notify units wait for the API to have data to serve.
	go func() {
		select {
		case <-loop.Started():
			if _, err := systemd.SdNotify(false, systemd.SdNotifyReady); err != nil {
				log.Error("Failed to notify systemd that the daemon is ready.", "err", err)
			}
		case <-ctx.Done():
		}
	}()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("Starting API server.", "listen", cfg.Listen, "socket", cfg.SocketPath)
		return srv.ListenAndServe(ctx, cfg.Listen, cfg.SocketPath)
	})
	g.Go(func() error {
		checker.Run(ctx)
		return nil
	})
	return g.Wait()
}
