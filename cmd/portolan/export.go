package main

import (
	"fmt"
	"os"

	"portolan/cmd/portolan/ui"

	"github.com/spf13/cobra"
)

func exportCmd(hostFlag, contextFlag *string) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the raw snapshot JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := connect(*hostFlag, *contextFlag)
			if err != nil {
				return err
			}
			defer client.Close()

			data, err := client.Export(cmd.Context())
			if err != nil {
				return err
			}

			if out == "" || out == "-" {
				_, err = os.Stdout.Write(data)
				return err
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			fmt.Println(ui.SuccessMsg("Wrote %s.", ui.Bold(out)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "output", "o", "", "File to write (default stdout)")
	return cmd
}
