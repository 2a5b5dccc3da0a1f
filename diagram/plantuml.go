// Package diagram renders topology snapshots as PlantUML source.
package diagram

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"portolan"
)

const (
	runningFlag = "🟢"
	stoppedFlag = "🔴"
)

// PlantUML renders snap as a component diagram. Containers become
// components flagged with their run state, inferred connections become
// arrows labeled with the network name. Components are emitted in
// container id order, connections in inference order. A degraded
// snapshot renders as a note instead.
func PlantUML(snap portolan.Snapshot) string {
	if !snap.DockerAvailable {
		return note("Docker unavailable")
	}

	lines := []string{"@startuml", "skinparam monochrome true", "title Docker Network", ""}

	for _, id := range slices.Sorted(maps.Keys(snap.Containers)) {
		rec := snap.Containers[id]
		flag := stoppedFlag
		if rec.Running() {
			flag = runningFlag
		}
		lines = append(lines, fmt.Sprintf("component \"%s %s\" as %s", flag, rec.Name, id))
	}

	lines = append(lines, "")
	for _, conn := range snap.Connections {
		lines = append(lines, fmt.Sprintf("%s --> %s : %s", conn.Source, conn.Target, conn.Network))
	}

	lines = append(lines, "@enduml")
	return strings.Join(lines, "\n")
}

// NotReady renders the placeholder served before the first collection.
func NotReady() string {
	return note("Not ready")
}

func note(msg string) string {
	return "@startuml\nnote\n " + msg + "\nend note\n@enduml"
}
