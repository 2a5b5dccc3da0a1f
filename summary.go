package portolan

// Summarize recomputes the snapshot roll-up from an inventory and its
// derived edges. Networks are counted distinct across the whole
// inventory; attachments without an address don't count, matching what
// InferConnections considers a member.
func Summarize(records []ContainerRecord, connections []Connection) Summary {
	running := 0
	networks := make(map[string]struct{})
	for _, rec := range records {
		if rec.Running() {
			running++
		}
		for name, addr := range rec.Networks {
			if addr == UnassignedIP {
				continue
			}
			networks[name] = struct{}{}
		}
	}
	return Summary{
		TotalContainers:   len(records),
		RunningContainers: running,
		TotalNetworks:     len(networks),
		TotalConnections:  len(connections),
	}
}
