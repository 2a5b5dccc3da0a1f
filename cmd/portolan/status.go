package main

import (
	"fmt"
	"strconv"

	"portolan/cmd/portolan/ui"

	"github.com/spf13/cobra"
)

func statusCmd(hostFlag, contextFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := connect(*hostFlag, *contextFlag)
			if err != nil {
				return err
			}
			defer client.Close()

			h, err := client.Health(cmd.Context())
			if err != nil {
				return err
			}

			pairs := []ui.Pair{
				ui.KV("Status", h.Status),
				ui.KV("Version", h.Version),
				ui.KV("Uptime", h.Uptime),
				ui.KV("Ready", ui.Bool(h.Ready)),
				ui.KV("Docker", ui.Bool(h.DockerAvailable)),
				ui.KV("Observers", strconv.Itoa(h.Observers)),
			}
			if h.Clock != nil {
				clock := h.Clock.Phase
				if h.Clock.Offset != "" {
					clock += " (offset " + h.Clock.Offset + ")"
				}
				if h.Clock.Error != "" {
					clock += " — " + h.Clock.Error
				}
				pairs = append(pairs, ui.KV("Clock", clock))
			}
			if c := h.LastCycle; c != nil && c.Age != "" {
				cycle := fmt.Sprintf("%s ago, took %s (%s)", c.Age, c.Duration, c.Phase)
				pairs = append(pairs, ui.KV("Last cycle", cycle))
			}

			fmt.Println(ui.KeyValues("  ", pairs...))
			return nil
		},
	}
}
