package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/sleep-clock/internal/config"
	"github.com/oshokin/sleep-clock/internal/service/server"
	"github.com/oshokin/sleep-clock/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// eventsAddress overrides events_addr from the configuration.
	eventsAddress string

	// rootCmd represents the base command for running the sleep clock server.
	rootCmd = &cobra.Command{
		Use:   "sleepclock-server [listen-address]",
		Short: "Run the sleep clock gRPC server and alarm monitor.",
		Long: `Starts the sleep clock server: the alarm and timezone registries, the alarm
monitor that fires matching alarms once per minute, and the gRPC API.

Only the port from server_addr is used for listening (e.g., :7070).
Listen address can be provided as argument to override config (e.g., :9090, 0.0.0.0:7070).
When events_addr is set, fired alarms are also streamed over WebSocket at /events.
Changes to log_level in the configuration file are applied without a restart.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			// Use listen address argument if provided, otherwise rely on config.
			var listenAddress string
			if len(args) > 0 {
				listenAddress = args[0]
			}

			options := &server.Options{
				ConfigPath:    configPath,
				ListenAddress: listenAddress,
				EventsAddress: eventsAddress,
			}

			return server.Run(ctx, options)
		},
	}
)

// Execute runs the sleepclock-server CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().StringVarP(&eventsAddress, "events-addr", "e", "", "address of the WebSocket event stream")
}
