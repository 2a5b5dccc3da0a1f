// Package portolan defines the topology domain model: what the mapper
// observes about containers and the connection graph derived from it.
package portolan

import (
	"encoding/json"
	"maps"
	"slices"
	"time"
)

const (
	// StatusRunning is the runtime's lifecycle state for a live container.
	// Other states (exited, paused, created, …) pass through as reported.
	StatusRunning = "running"

	// UnassignedIP marks a network attachment the runtime reported without
	// an address. Attachments carrying it are excluded from inference.
	UnassignedIP = "N/A"

	// UnknownImage marks a container whose image has no resolvable tag.
	UnknownImage = "unknown"

	// StatsUnavailable is the error marker carried by ResourceStats when
	// the per-container stats read failed.
	StatsUnavailable = "Stats unavailable"

	// ErrDockerUnavailable is the degraded-snapshot error text used when
	// the runtime cannot be reached at all.
	ErrDockerUnavailable = "Docker not available"
)

// ContainerRecord is one container's observed state for a single
// collection cycle. Records are built fresh every cycle and never
// mutated after the snapshot containing them is published.
type ContainerRecord struct {
	// ID is the runtime id truncated to 12 characters. Stable within a
	// session, not guaranteed unique across engine restarts.
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
	Image  string `json:"image"`

	// Networks maps network name to the container's address on it,
	// UnassignedIP when the runtime reported none.
	Networks map[string]string `json:"networks"`

	Stats       ResourceStats `json:"stats"`
	CollectedAt time.Time     `json:"timestamp"`
}

// Running reports whether the runtime considers the container live.
func (r ContainerRecord) Running() bool {
	return r.Status == StatusRunning
}

// NetworkNames returns the record's network names in sorted order.
// Sorting pins the inference walk to a deterministic sequence; Go map
// iteration would reshuffle edges between identical cycles.
func (r ContainerRecord) NetworkNames() []string {
	return slices.Sorted(maps.Keys(r.Networks))
}

// InterfaceStats are cumulative byte counters for one container
// interface, as reported by the runtime. Counters, not rates.
type InterfaceStats struct {
	RxBytes uint64 `json:"rx_bytes"`
	TxBytes uint64 `json:"tx_bytes"`
}

// ResourceStats is one container's resource view. When Err is set the
// read failed and the numeric fields are meaningless; Err is the only
// thing consumers see then, so "unknown" stays distinguishable from
// "idle".
type ResourceStats struct {
	CPUPercent  float64                   `json:"cpu_percent"`
	MemoryUsage uint64                    `json:"memory_usage"`
	Network     map[string]InterfaceStats `json:"network"`
	Err         string                    `json:"-"`
}

// StatsError returns the error-marker stats value.
func StatsError(msg string) ResourceStats {
	return ResourceStats{Err: msg}
}

// Failed reports whether the stats read for this record failed.
func (s ResourceStats) Failed() bool { return s.Err != "" }

type resourceStatsJSON struct {
	CPUPercent  float64                   `json:"cpu_percent"`
	MemoryUsage uint64                    `json:"memory_usage"`
	Network     map[string]InterfaceStats `json:"network"`
}

type resourceStatsError struct {
	Err string `json:"error"`
}

// MarshalJSON emits either the stats fields or, for a failed read,
// only {"error": …}.
func (s ResourceStats) MarshalJSON() ([]byte, error) {
	if s.Err != "" {
		return json.Marshal(resourceStatsError{Err: s.Err})
	}
	network := s.Network
	if network == nil {
		network = map[string]InterfaceStats{}
	}
	return json.Marshal(resourceStatsJSON{
		CPUPercent:  s.CPUPercent,
		MemoryUsage: s.MemoryUsage,
		Network:     network,
	})
}

// UnmarshalJSON accepts both shapes produced by MarshalJSON.
func (s *ResourceStats) UnmarshalJSON(data []byte) error {
	var probe resourceStatsError
	if err := json.Unmarshal(data, &probe); err == nil && probe.Err != "" {
		*s = ResourceStats{Err: probe.Err}
		return nil
	}
	var v resourceStatsJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*s = ResourceStats{CPUPercent: v.CPUPercent, MemoryUsage: v.MemoryUsage, Network: v.Network}
	return nil
}

// Connection is a materialized edge between two containers that share a
// network. Edges are derived, never authored: every cycle recomputes
// the full set from the inventory.
type Connection struct {
	ID      string `json:"id"`
	Source  string `json:"source"`
	Target  string `json:"target"`
	Network string `json:"network"`
}

// Summary is the per-snapshot roll-up. A degraded snapshot carries the
// zero value, not an omitted field.
type Summary struct {
	TotalContainers   int `json:"total_containers"`
	RunningContainers int `json:"running_containers"`
	TotalNetworks     int `json:"total_networks"`
	TotalConnections  int `json:"total_connections"`
}

// Snapshot is the externally visible unit: the complete topology state
// as of one collection cycle. Published snapshots are immutable.
type Snapshot struct {
	Containers      map[string]ContainerRecord `json:"containers"`
	Connections     []Connection               `json:"connections"`
	Timestamp       time.Time                  `json:"timestamp"`
	Summary         Summary                    `json:"summary"`
	DockerAvailable bool                       `json:"docker_available"`
	Err             string                     `json:"error,omitempty"`
}

// Degraded reports whether the snapshot is the error shape rather than
// an observed topology.
func (s Snapshot) Degraded() bool { return !s.DockerAvailable || s.Err != "" }

// ErrorSnapshot builds the degraded snapshot shape: empty (non-nil)
// inventory and edge list, zero summary, the error text, and the
// availability flag down.
func ErrorSnapshot(msg string, at time.Time) Snapshot {
	return Snapshot{
		Containers:  map[string]ContainerRecord{},
		Connections: []Connection{},
		Timestamp:   at,
		Err:         msg,
	}
}
