package portolan

import (
	"reflect"
	"testing"
)

func record(id string, networks map[string]string) ContainerRecord {
	return ContainerRecord{ID: id, Name: id, Status: StatusRunning, Networks: networks}
}

func TestInferConnections_SharedNetworkPair(t *testing.T) {
	inventory := []ContainerRecord{
		record("c1", map[string]string{"net0": "172.18.0.2"}),
		record("c2", map[string]string{"net0": "172.18.0.3"}),
		record("c3", map[string]string{"net1": "172.19.0.2"}),
	}

	got := InferConnections(inventory)

	want := []Connection{{ID: "c1-c2-net0", Source: "c1", Target: "c2", Network: "net0"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("connections = %+v, want %+v", got, want)
	}

	sum := Summarize(inventory, got)
	if sum.TotalNetworks != 2 {
		t.Errorf("total networks = %d, want 2", sum.TotalNetworks)
	}
	if sum.TotalConnections != 1 {
		t.Errorf("total connections = %d, want 1", sum.TotalConnections)
	}
}

func TestInferConnections_PairCountPerNetwork(t *testing.T) {
	// Five members on one network: exactly n(n-1)/2 edges, none reversed.
	inventory := make([]ContainerRecord, 0, 5)
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		inventory = append(inventory, record(id, map[string]string{"shared": "10.0.0." + id}))
	}

	got := InferConnections(inventory)
	if len(got) != 10 {
		t.Fatalf("edges = %d, want 10", len(got))
	}

	seen := make(map[string]bool)
	for _, conn := range got {
		if conn.Source == conn.Target {
			t.Errorf("self edge %q", conn.ID)
		}
		if seen[conn.ID] {
			t.Errorf("duplicate edge %q", conn.ID)
		}
		seen[conn.ID] = true
		if seen[conn.Target+"-"+conn.Source+"-"+conn.Network] {
			t.Errorf("reciprocal edge for %q", conn.ID)
		}
	}
}

func TestInferConnections_SourceFollowsInventoryOrder(t *testing.T) {
	inventory := []ContainerRecord{
		record("zzz", map[string]string{"net0": "10.0.0.1"}),
		record("aaa", map[string]string{"net0": "10.0.0.2"}),
	}

	got := InferConnections(inventory)
	if len(got) != 1 {
		t.Fatalf("edges = %d, want 1", len(got))
	}
	// First-seen is source even when it sorts later lexically.
	if got[0].Source != "zzz" || got[0].Target != "aaa" {
		t.Errorf("edge = %s -> %s, want zzz -> aaa", got[0].Source, got[0].Target)
	}
}

func TestInferConnections_Idempotent(t *testing.T) {
	inventory := []ContainerRecord{
		record("c1", map[string]string{"backend": "10.1.0.2", "frontend": "10.2.0.2"}),
		record("c2", map[string]string{"backend": "10.1.0.3"}),
		record("c3", map[string]string{"frontend": "10.2.0.4", "backend": "10.1.0.4"}),
	}

	first := InferConnections(inventory)
	for i := 0; i < 10; i++ {
		if again := InferConnections(inventory); !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d differs: %+v vs %+v", i, again, first)
		}
	}
}

func TestInferConnections_SingleMemberNetwork(t *testing.T) {
	inventory := []ContainerRecord{
		record("c1", map[string]string{"lonely": "10.0.0.2"}),
		record("c2", map[string]string{"other": "10.9.0.2"}),
	}

	if got := InferConnections(inventory); len(got) != 0 {
		t.Errorf("edges = %+v, want none", got)
	}
}

func TestInferConnections_UnassignedAddressExcluded(t *testing.T) {
	inventory := []ContainerRecord{
		record("c1", map[string]string{"net0": "172.18.0.2"}),
		record("c2", map[string]string{"net0": UnassignedIP}),
		record("c3", map[string]string{"net0": "172.18.0.4"}),
	}

	got := InferConnections(inventory)
	if len(got) != 1 {
		t.Fatalf("edges = %d, want 1 (c2 has no address)", len(got))
	}
	if got[0].Source != "c1" || got[0].Target != "c3" {
		t.Errorf("edge = %s -> %s, want c1 -> c3", got[0].Source, got[0].Target)
	}
}

func TestInferConnections_EmptyInventory(t *testing.T) {
	got := InferConnections(nil)
	if got == nil {
		t.Fatal("connections must be empty, not nil")
	}
	if len(got) != 0 {
		t.Errorf("edges = %d, want 0", len(got))
	}
}

func TestSummarize_CountsRunningAndNetworks(t *testing.T) {
	inventory := []ContainerRecord{
		record("c1", map[string]string{"net0": "10.0.0.1"}),
		{ID: "c2", Status: "exited", Networks: map[string]string{"net0": "10.0.0.2"}},
		{ID: "c3", Status: "paused", Networks: map[string]string{"net1": UnassignedIP}},
	}
	conns := InferConnections(inventory)

	got := Summarize(inventory, conns)
	want := Summary{TotalContainers: 3, RunningContainers: 1, TotalNetworks: 1, TotalConnections: 1}
	if got != want {
		t.Errorf("summary = %+v, want %+v", got, want)
	}
}
