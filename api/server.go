// Package api exposes the topology over HTTP: pull endpoints for
// snapshots and diagrams, plus a WebSocket channel that streams every
// refresh to connected observers.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/docker/go-connections/sockets"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"portolan"
	"portolan/internal/metrics"
	"portolan/internal/signal/freshness"
	"portolan/internal/signal/ntp"
	"portolan/internal/watch"
)

const (
	shutdownGrace     = 5 * time.Second
	readHeaderTimeout = 10 * time.Second
)

// SnapshotSource serves the latest published snapshot.
// Production: mapper.Store
// Testing: in-memory stub
type SnapshotSource interface {
	Current() (portolan.Snapshot, bool)
}

// Refresher forces an immediate topology collection.
// Production: mapper.Mapper
// Testing: stub returning a canned snapshot
type Refresher interface {
	Refresh(ctx context.Context) (portolan.Snapshot, error)
}

// ClockStatus reports local clock health for the health endpoint.
// Production: ntp.Checker
type ClockStatus interface {
	Status() ntp.Status
}

// CycleStatus reports collection freshness for the health endpoint.
// Production: freshness.Tracker
type CycleStatus interface {
	Report() freshness.Report
}

// Server is the daemon's HTTP surface.
type Server struct {
	source    SnapshotSource
	refresher Refresher
	hub       *watch.Hub
	clock     ClockStatus
	cycles    CycleStatus
	startedAt time.Time
	log       *slog.Logger
	metrics   *metrics.Set
	metricsH  http.Handler
	upgrader  websocket.Upgrader
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger used for request and connection events.
func WithLogger(log *slog.Logger) Option {
	return func(s *Server) { s.log = log.With("component", "api") }
}

// WithMetrics sets the collector set fed by the request middleware.
func WithMetrics(set *metrics.Set) Option {
	return func(s *Server) { s.metrics = set }
}

// WithMetricsHandler mounts h at /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metricsH = h }
}

// WithClockStatus adds clock health to the health endpoint.
func WithClockStatus(clock ClockStatus) Option {
	return func(s *Server) { s.clock = clock }
}

// WithCycleStatus adds collection freshness to the health endpoint.
func WithCycleStatus(cycles CycleStatus) Option {
	return func(s *Server) { s.cycles = cycles }
}

// New creates a Server over the given topology collaborators.
func New(source SnapshotSource, refresher Refresher, hub *watch.Hub, opts ...Option) *Server {
	s := &Server{
		source:    source,
		refresher: refresher,
		hub:       hub,
		startedAt: time.Now(),
		log:       slog.Default().With("component", "api"),
		metrics:   metrics.NewUnregistered(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/api/network-data", s.handleNetworkData).Methods(http.MethodGet)
	r.HandleFunc("/api/plantuml", s.handlePlantUML).Methods(http.MethodGet)
	r.HandleFunc("/api/export/json", s.handleNetworkData).Methods(http.MethodGet)
	r.HandleFunc("/api/refresh", s.handleRefresh).Methods(http.MethodPost)
	r.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	if s.metricsH != nil {
		r.Handle("/metrics", s.metricsH).Methods(http.MethodGet)
	}
	r.HandleFunc("/ws", s.handleWatch)
	r.Use(s.instrument)
	return r
}

// ListenAndServe serves on the TCP address and, when socketPath is not
// empty, a unix socket as well. It blocks until ctx is cancelled, then
// shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr, socketPath string) error {
	listeners, err := s.listeners(addr, socketPath)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errc := make(chan error, len(listeners))
	for _, ln := range listeners {
		s.log.Info("listening", "addr", ln.Addr().String())
		go func() {
			errc <- srv.Serve(ln)
		}()
	}

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			_ = srv.Close()
		}
		for range listeners {
			<-errc
		}
		if socketPath != "" {
			_ = os.Remove(socketPath)
		}
		return nil
	case err := <-errc:
		_ = srv.Close()
		return fmt.Errorf("serve: %w", err)
	}
}

func (s *Server) listeners(addr, socketPath string) ([]net.Listener, error) {
	var listeners []net.Listener

	if addr != "" {
		ln, err := sockets.NewTCPSocket(addr, nil)
		if err != nil {
			return nil, fmt.Errorf("listen tcp %s: %w", addr, err)
		}
		listeners = append(listeners, ln)
	}

	if socketPath != "" {
		// Remove stale socket.
		_ = os.Remove(socketPath)
		ln, err := sockets.NewUnixSocket(socketPath, os.Getegid())
		if err != nil {
			closeListeners(listeners)
			return nil, fmt.Errorf("listen unix %s: %w", socketPath, err)
		}
		listeners = append(listeners, ln)
	}

	if len(listeners) == 0 {
		return nil, fmt.Errorf("no listen address configured")
	}
	return listeners, nil
}

func closeListeners(listeners []net.Listener) {
	for _, ln := range listeners {
		_ = ln.Close()
	}
}
