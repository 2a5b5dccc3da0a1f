package portolan

// InferConnections derives the connection graph from an ordered
// inventory: any two containers holding an address on the same network
// are connected through it. For a network with members c1..cn (in
// inventory order) exactly one edge exists per unordered pair, with the
// earlier container as source — pairing each member with later members
// only, so no duplicate or reciprocal edges can appear.
//
// The result is a pure function of the inventory sequence: identical
// input yields an identical edge list.
func InferConnections(records []ContainerRecord) []Connection {
	members := make(map[string][]string)
	networks := make([]string, 0, len(records))

	for _, rec := range records {
		for _, network := range rec.NetworkNames() {
			if rec.Networks[network] == UnassignedIP {
				continue
			}
			if _, seen := members[network]; !seen {
				networks = append(networks, network)
			}
			members[network] = append(members[network], rec.ID)
		}
	}

	connections := make([]Connection, 0)
	for _, network := range networks {
		ids := members[network]
		for i, source := range ids {
			for _, target := range ids[i+1:] {
				connections = append(connections, Connection{
					ID:      source + "-" + target + "-" + network,
					Source:  source,
					Target:  target,
					Network: network,
				})
			}
		}
	}
	return connections
}
