package main

import (
	"fmt"
	"os"

	"portolan/cmd/portolan/ui"
	"portolan/internal/logging"
	"portolan/internal/support/buildinfo"

	"github.com/spf13/cobra"
)

func main() {
	var (
		debug         bool
		noInteraction bool
		host          string
		contextName   string
	)
	if err := logging.Configure(logging.LevelWarn, logging.FormatText); err != nil {
		_, _ = os.Stderr.WriteString("configure logger: " + err.Error() + "\n")
		os.Exit(1)
	}

	root := &cobra.Command{
		Use:           "portolan",
		Short:         "Inspect Docker network topology from a portoland daemon",
		Version:       buildinfo.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			ui.ConfigureInteraction(noInteraction)

			level := logging.LevelWarn
			if debug {
				level = logging.LevelDebug
			}
			return logging.Configure(level, logging.FormatText)
		},
	}
	root.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	root.PersistentFlags().BoolVar(&noInteraction, "no-interaction", false, "Disable prompts and colors")

	// Connection flags — available to all subcommands.
	root.PersistentFlags().StringVar(&host, "host", "", "Daemon target: http(s) URL, socket path, or user@host")
	root.PersistentFlags().StringVar(&contextName, "context", "", "Context name to use")

	root.AddCommand(statusCmd(&host, &contextName))
	root.AddCommand(snapshotCmd(&host, &contextName))
	root.AddCommand(diagramCmd(&host, &contextName))
	root.AddCommand(watchCmd(&host, &contextName))
	root.AddCommand(exportCmd(&host, &contextName))
	root.AddCommand(doctorCmd(&host, &contextName))
	root.AddCommand(contextCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
