// Package metrics defines the Prometheus instrumentation exported by the daemon.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "portolan"

// Refresh cycle outcomes.
const (
	OutcomeOK       = "ok"
	OutcomeDegraded = "degraded"
)

// Set holds every collector the daemon registers.
type Set struct {
	RefreshCycles  *prometheus.CounterVec
	RefreshSeconds prometheus.Histogram
	StatsFailures  prometheus.Counter
	Containers     prometheus.Gauge
	Networks       prometheus.Gauge
	Connections    prometheus.Gauge
	Observers      prometheus.Gauge
	Evictions      prometheus.Counter
	HTTPRequests   *prometheus.CounterVec
}

// New builds the collector set and registers it with reg.
func New(reg prometheus.Registerer) *Set {
	s := &Set{
		RefreshCycles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "refresh_cycles_total",
				Help:      "Topology refresh cycles by outcome.",
			},
			[]string{"outcome"},
		),
		RefreshSeconds: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "refresh_duration_seconds",
				Help:      "Wall time spent producing one topology snapshot.",
				Buckets:   prometheus.DefBuckets,
			},
		),
		StatsFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stats_failures_total",
				Help:      "Per-container stats reads that degraded to an error marker.",
			},
		),
		Containers: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "containers_observed",
				Help:      "Containers in the latest snapshot.",
			},
		),
		Networks: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "networks_observed",
				Help:      "Distinct populated networks in the latest snapshot.",
			},
		),
		Connections: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "connections_inferred",
				Help:      "Inferred connections in the latest snapshot.",
			},
		),
		Observers: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "observers_connected",
				Help:      "Topology observers currently subscribed.",
			},
		),
		Evictions: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "observer_evictions_total",
				Help:      "Observers dropped for not keeping up with broadcasts.",
			},
		),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "API requests by route and status code.",
			},
			[]string{"route", "code"},
		),
	}

	reg.MustRegister(
		s.RefreshCycles,
		s.RefreshSeconds,
		s.StatsFailures,
		s.Containers,
		s.Networks,
		s.Connections,
		s.Observers,
		s.Evictions,
		s.HTTPRequests,
	)
	return s
}

// NewUnregistered builds a collector set bound to a throwaway registry.
// Intended for tests and for components constructed without a daemon.
func NewUnregistered() *Set {
	return New(prometheus.NewRegistry())
}
