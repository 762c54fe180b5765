package cmd

import (
	"context"

	"github.com/spf13/cobra"

	domain "github.com/oshokin/sleep-clock/internal/domain/alarm"
	"github.com/oshokin/sleep-clock/internal/service/common"
)

var (
	bedtimeSound string
	wakeupSound  string

	sleepCmd = &cobra.Command{
		Use:   "sleep",
		Short: "Manage the sleep schedule.",
	}

	sleepSetCmd = &cobra.Command{
		Use:   "set BEDTIME WAKEUP",
		Short: "Replace the sleep schedule with a bedtime and a wake-up alarm.",
		Long: `Removes every sleep alarm and creates a "Bedtime" alarm at BEDTIME and a
"Wake Up" alarm at WAKEUP, both as HH:MM.

Pass an empty sound (--bedtime-sound "") to skip creating that alarm.
Only the bedtime alarm is a sleep alarm: the wake-up alarm is kept when the
schedule is replaced again.`,
		Args: cobra.ExactArgs(2), //nolint:mnd // Bedtime and wake-up.
		RunE: func(cmd *cobra.Command, args []string) error {
			bedtime, err := domain.ParseTime(args[0])
			if err != nil {
				return err
			}

			wakeup, err := domain.ParseTime(args[1])
			if err != nil {
				return err
			}

			schedule := &domain.SleepSchedule{
				Bedtime:      bedtime,
				Wakeup:       wakeup,
				BedtimeSound: bedtimeSound,
				WakeupSound:  wakeupSound,
			}

			return runAction(func(ctx context.Context, c *common.Client) error {
				created, err := c.SetSleepSchedule(ctx, schedule)
				if err != nil {
					return err
				}

				return printAlarms(cmd.OutOrStdout(), created)
			})
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	sleepSetCmd.Flags().StringVar(&bedtimeSound, "bedtime-sound", domain.DefaultBedtimeSound, "bedtime alarm sound")
	sleepSetCmd.Flags().StringVar(&wakeupSound, "wakeup-sound", domain.DefaultWakeupSound, "wake-up alarm sound")

	sleepCmd.AddCommand(sleepSetCmd)
	rootCmd.AddCommand(sleepCmd)
}
