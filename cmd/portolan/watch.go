package main

import (
	"fmt"
	"os"
	"os/signal"

	"portolan"
	"portolan/cmd/portolan/ui"

	"github.com/spf13/cobra"
)

func watchCmd(hostFlag, contextFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Stream live topology snapshots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			client, err := connect(*hostFlag, *contextFlag)
			if err != nil {
				return err
			}
			defer client.Close()

			stream, err := client.Watch(ctx)
			if err != nil {
				return err
			}
			defer stream.Close()

			fmt.Println(ui.InfoMsg("Watching topology — Ctrl+C to stop."))
			for {
				select {
				case <-ctx.Done():
					return nil
				case snap, ok := <-stream.Snapshots():
					if !ok {
						if err := stream.Err(); err != nil {
							return fmt.Errorf("stream ended: %w", err)
						}
						return nil
					}
					printWatchLine(snap)
				}
			}
		},
	}
}

func printWatchLine(snap portolan.Snapshot) {
	when := snap.Timestamp.Local().Format("15:04:05")
	if snap.Degraded() {
		fmt.Printf("%s %s\n", ui.Muted(when), ui.ErrorMsg("%s", snap.Err))
		return
	}
	fmt.Printf("%s %d containers (%d running), %d networks, %d connections\n",
		ui.Muted(when),
		snap.Summary.TotalContainers, snap.Summary.RunningContainers,
		snap.Summary.TotalNetworks, snap.Summary.TotalConnections)
}
