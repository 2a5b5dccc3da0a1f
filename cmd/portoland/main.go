package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	daemonruntime "portolan/daemon"
	"portolan/internal/logging"
	"portolan/internal/signal/ntp"
	"portolan/internal/support/buildinfo"
	"portolan/mapper"
	"portolan/sdk"

	"github.com/spf13/cobra"
)

func main() {
	if err := logging.Configure(logging.LevelInfo, logging.FormatText); err != nil {
		_, _ = os.Stderr.WriteString("configure logger: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := rootCmd().Execute(); err != nil {
		slog.Error("command failed", "err", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		cfg       daemonruntime.Config
		debug     bool
		logFormat string
	)

	cmd := &cobra.Command{
		Use:     "portoland",
		Short:   "Docker network topology daemon",
		Version: buildinfo.Version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := logging.LevelInfo
			if debug {
				level = logging.LevelDebug
			}
			return logging.Configure(level, logFormat)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return daemonruntime.Run(ctx, cfg)
		},
	}

	cmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	cmd.PersistentFlags().StringVar(&logFormat, "log-format", logging.FormatText, "Log format: text or json")

	cmd.Flags().StringVar(&cfg.Listen, "listen", ":8000", "TCP address for the HTTP API")
	cmd.Flags().StringVar(&cfg.SocketPath, "socket", sdk.DefaultSocketPath(), "Unix socket for the HTTP API (empty disables)")
	cmd.Flags().StringVar(&cfg.DockerHost, "docker-host", "", "Docker engine address (defaults to the environment)")
	cmd.Flags().DurationVar(&cfg.RefreshInterval, "refresh-interval", mapper.DefaultInterval, "Delay between collection cycles")
	cmd.Flags().DurationVar(&cfg.RetryInterval, "retry-interval", mapper.DefaultRetry, "Delay after a degraded cycle")
	cmd.Flags().IntVar(&cfg.StatsWorkers, "stats-workers", mapper.DefaultStatsWorkers, "Concurrent per-container stats reads")
	cmd.Flags().StringVar(&cfg.NTPPool, "ntp-pool", ntp.DefaultPool, "NTP pool for clock auditing")
	cmd.Flags().StringVar(&cfg.OTLPEndpoint, "otlp-endpoint", "", "OTLP trace collector endpoint (empty disables tracing)")

	cmd.AddCommand(dialStdioCmd())
	return cmd
}
