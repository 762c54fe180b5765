package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	api "github.com/oshokin/sleep-clock/internal/api/grpc/sleepclock"
	"github.com/oshokin/sleep-clock/internal/events"
	"github.com/oshokin/sleep-clock/internal/service/client"
	"github.com/oshokin/sleep-clock/internal/service/common"
)

var (
	triggersLimit int

	timeCmd = &cobra.Command{
		Use:   "time",
		Short: "Print the server clock.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAction(func(ctx context.Context, c *common.Client) error {
				clock, err := c.GetTime(ctx)
				if err != nil {
					return err
				}

				_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s (unix %d)\n", clock.TimeOfDay, clock.Timestamp.Unix())

				return err
			})
		},
	}

	triggersCmd = &cobra.Command{
		Use:   "triggers",
		Short: "List recently fired alarms.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAction(func(ctx context.Context, c *common.Client) error {
				records, err := c.ListTriggers(ctx, triggersLimit)
				if err != nil {
					return err
				}

				return printTriggers(cmd.OutOrStdout(), records)
			})
		},
	}

	watchCmd = &cobra.Command{
		Use:   "watch",
		Short: "Print alarms as they fire until interrupted.",
		Long:  "Streams fired alarms from the server. The stream is reopened whenever the server restarts.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signalContext()
			defer stop()

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Watching for alarms since %s, press Ctrl+C to stop.\n",
				time.Now().Format(time.DateTime))

			return client.Watch(ctx, options(), func(e events.Event) error {
				return printEvent(cmd.OutOrStdout(), e)
			})
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	triggersCmd.Flags().IntVarP(&triggersLimit, "limit", "n", api.DefaultTriggerLimit, "number of most recent triggers, 0 for all")

	rootCmd.AddCommand(timeCmd, triggersCmd, watchCmd)
}
