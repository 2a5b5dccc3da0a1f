package main

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"portolan"
	"portolan/cmd/portolan/ui"
	"portolan/sdk"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func snapshotCmd(hostFlag, contextFlag *string) *cobra.Command {
	var fresh bool

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Show the current topology snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := connect(*hostFlag, *contextFlag)
			if err != nil {
				return err
			}
			defer client.Close()

			var snap portolan.Snapshot
			if fresh {
				snap, err = client.Refresh(cmd.Context())
			} else {
				snap, err = client.NetworkData(cmd.Context())
			}
			if errors.Is(err, sdk.ErrNotReady) {
				fmt.Println(ui.WarnMsg("Daemon has no snapshot yet — retry shortly or use --fresh."))
				return nil
			}
			if err != nil {
				return err
			}

			printSnapshot(snap)
			return nil
		},
	}

	cmd.Flags().BoolVar(&fresh, "fresh", false, "Trigger a collection cycle instead of reading the cached snapshot")
	return cmd
}

func printSnapshot(snap portolan.Snapshot) {
	if snap.Degraded() {
		fmt.Println(ui.ErrorMsg("Degraded snapshot: %s", snap.Err))
		return
	}

	fmt.Println(ui.KeyValues("  ",
		ui.KV("Collected", humanize.Time(snap.Timestamp)),
		ui.KV("Containers", fmt.Sprintf("%d (%d running)", snap.Summary.TotalContainers, snap.Summary.RunningContainers)),
		ui.KV("Networks", strconv.Itoa(snap.Summary.TotalNetworks)),
		ui.KV("Connections", strconv.Itoa(snap.Summary.TotalConnections)),
	))

	ids := slices.Sorted(maps.Keys(snap.Containers))
	rows := make([][]string, 0, len(ids))
	for _, id := range ids {
		rec := snap.Containers[id]
		rows = append(rows, []string{
			ui.StatusDot(rec.Running()) + " " + rec.Name,
			rec.ID,
			rec.Image,
			strings.Join(rec.NetworkNames(), ", "),
			statsCell(rec.Stats),
		})
	}
	fmt.Println(ui.Table([]string{"NAME", "ID", "IMAGE", "NETWORKS", "CPU / MEM"}, rows))

	if len(snap.Connections) > 0 {
		crows := make([][]string, 0, len(snap.Connections))
		for _, conn := range snap.Connections {
			crows = append(crows, []string{conn.Source, conn.Target, conn.Network})
		}
		fmt.Println(ui.Table([]string{"SOURCE", "TARGET", "NETWORK"}, crows))
	}
}

func statsCell(stats portolan.ResourceStats) string {
	if stats.Failed() {
		return ui.Muted(stats.Err)
	}
	return ui.Percent(stats.CPUPercent) + " / " + humanize.IBytes(stats.MemoryUsage)
}
