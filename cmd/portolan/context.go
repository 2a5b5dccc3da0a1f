package main

import (
	"fmt"

	"portolan/cmd/portolan/ui"
	"portolan/config"

	"github.com/spf13/cobra"
)

func contextCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "context",
		Short: "Manage daemon contexts",
	}

	cmd.AddCommand(contextListCmd())
	cmd.AddCommand(contextUseCmd())
	cmd.AddCommand(contextAddCmd())
	cmd.AddCommand(contextRemoveCmd())
	return cmd
}

// mutateConfig loads the config, applies fn, and saves the result.
func mutateConfig(fn func(*config.Config) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := fn(cfg); err != nil {
		return err
	}
	return cfg.Save()
}

func contextAddCmd() *cobra.Command {
	var target config.Context

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add or update a context",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if target.Target() == "" {
				return fmt.Errorf("at least one of --url, --socket or --host is required")
			}

			if err := mutateConfig(func(cfg *config.Config) error {
				cfg.Set(args[0], target)
				return nil
			}); err != nil {
				return err
			}

			fmt.Println(ui.SuccessMsg("Context %s saved.", ui.Bold(args[0])))
			return nil
		},
	}

	cmd.Flags().StringVar(&target.URL, "url", "", "Daemon API base URL (e.g. http://host:8000)")
	cmd.Flags().StringVar(&target.Socket, "socket", "", "Unix socket path")
	cmd.Flags().StringVar(&target.Host, "host", "", "SSH target (e.g. root@host)")
	return cmd
}

func contextListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available contexts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Pick up a running local daemon before listing.
			if err := discover(); err != nil {
				return err
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if len(cfg.Contexts) == 0 {
				fmt.Println(ui.InfoMsg("No contexts configured."))
				return nil
			}

			var rows [][]string
			for _, name := range cfg.Names() {
				c := cfg.Contexts[name]
				marker := ""
				if name == cfg.CurrentContext {
					marker = "*"
				}
				rows = append(rows, []string{marker, name, c.Kind(), c.Target()})
			}
			fmt.Println(ui.Table([]string{"", "NAME", "TYPE", "TARGET"}, rows))
			return nil
		},
	}
}

func contextUseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "use <name>",
		Short: "Set the current context",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if err := mutateConfig(func(cfg *config.Config) error {
				return cfg.Use(args[0])
			}); err != nil {
				return err
			}

			fmt.Println(ui.SuccessMsg("Switched to context %s.", ui.Bold(args[0])))
			return nil
		},
	}
}

func contextRemoveCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:     "remove <name>",
		Short:   "Remove a context",
		Aliases: []string{"rm"},
		Args:    cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			name := args[0]

			if !yes {
				confirmed, err := ui.Confirm(
					fmt.Sprintf("Remove context %s?", ui.Bold(name)),
					"use --yes to skip",
				)
				if err != nil || !confirmed {
					return err
				}
			}

			if err := mutateConfig(func(cfg *config.Config) error {
				return cfg.Remove(name)
			}); err != nil {
				return err
			}

			fmt.Println(ui.SuccessMsg("Context %s removed.", ui.Bold(name)))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation prompt")
	return cmd
}
