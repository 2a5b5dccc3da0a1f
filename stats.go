package portolan

// CPUSample is one cumulative CPU counter pair from the runtime:
// the container's total usage and the host's system-wide usage, in the
// runtime's opaque units.
type CPUSample struct {
	TotalUsage  uint64
	SystemUsage uint64
}

// RawStats are the unprocessed counters for one container: the two CPU
// samples the runtime reports per read, memory usage in bytes, and the
// cumulative per-interface byte counters.
type RawStats struct {
	CPU         CPUSample
	PreCPU      CPUSample
	MemoryUsage uint64
	Interfaces  map[string]InterfaceStats
}

// CPUPercent turns two cumulative samples into a utilization
// percentage: (cpuDelta / systemDelta) × 100. Returns 0 when the
// system counter did not advance (single sample, or a non-advancing
// clock) and clamps counter resets to 0, so the result is always in
// [0, ∞).
func CPUPercent(prev, cur CPUSample) float64 {
	if cur.SystemUsage <= prev.SystemUsage {
		return 0
	}
	if cur.TotalUsage <= prev.TotalUsage {
		return 0
	}
	cpuDelta := float64(cur.TotalUsage - prev.TotalUsage)
	systemDelta := float64(cur.SystemUsage - prev.SystemUsage)
	return cpuDelta / systemDelta * 100.0
}

// Resources derives the consumer-facing stats view from raw counters.
// Interface counters pass through untouched: the runtime reports
// cumulative bytes per interface and that is the contract, not rates.
func (r RawStats) Resources() ResourceStats {
	interfaces := r.Interfaces
	if interfaces == nil {
		interfaces = map[string]InterfaceStats{}
	}
	return ResourceStats{
		CPUPercent:  CPUPercent(r.PreCPU, r.CPU),
		MemoryUsage: r.MemoryUsage,
		Network:     interfaces,
	}
}
