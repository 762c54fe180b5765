package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/sleep-clock/internal/config"
	"github.com/oshokin/sleep-clock/internal/service/client"
	"github.com/oshokin/sleep-clock/internal/version"
)

var (
	// cfgPath stores the configuration file path.
	cfgPath string
	// serverAddress overrides server_addr from the configuration.
	serverAddress string

	// rootCmd is the sleepclock command line client.
	rootCmd = &cobra.Command{
		Use:   "sleepclock",
		Short: "Manage alarms, the sleep schedule and timezones of a sleep clock server.",
		Long: `Command line client for the sleep clock server.

The server address is read from the configuration file unless --server is given.
Times are written as HH:MM in 24-hour format.`,
		SilenceUsage: true,
	}
)

// Execute runs the sleepclock CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// options collects the connection flags.
func options() *client.Options {
	return &client.Options{
		ConfigPath:    cfgPath,
		ServerAddress: serverAddress,
	}
}

// signalContext is canceled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
}

// runAction executes action with a connected client.
func runAction(action client.Action) error {
	ctx, stop := signalContext()
	defer stop()

	return client.Run(ctx, options(), action)
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.PersistentFlags().StringVarP(&serverAddress, "server", "s", "", "server address, overrides the configuration")
}
