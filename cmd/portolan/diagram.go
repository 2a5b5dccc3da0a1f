package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func diagramCmd(hostFlag, contextFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "diagram",
		Short: "Print the topology as PlantUML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := connect(*hostFlag, *contextFlag)
			if err != nil {
				return err
			}
			defer client.Close()

			text, err := client.PlantUML(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Println(text)
			return nil
		},
	}
}
