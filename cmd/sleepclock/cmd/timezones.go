package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/oshokin/sleep-clock/internal/service/common"
)

var (
	timezonesCmd = &cobra.Command{
		Use:   "timezones",
		Short: "List and edit timezones.",
	}

	timezonesListCmd = &cobra.Command{
		Use:   "list",
		Short: "List timezones with their current local time.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAction(func(ctx context.Context, c *common.Client) error {
				zones, err := c.ListTimezones(ctx)
				if err != nil {
					return err
				}

				return printZones(cmd.OutOrStdout(), zones)
			})
		},
	}

	timezonesAddCmd = &cobra.Command{
		Use:   "add NAME OFFSET",
		Short: "Add a timezone with a whole-hour UTC offset, e.g. add Hawaii -10.",
		Args:  cobra.ExactArgs(2), //nolint:mnd // Name and offset.
		RunE: func(cmd *cobra.Command, args []string) error {
			offset, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("offset %q: %w", args[1], err)
			}

			return runAction(func(ctx context.Context, c *common.Client) error {
				if err := c.AddTimezone(ctx, args[0], offset); err != nil {
					return err
				}

				_, err := fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%+d)\n", args[0], offset)

				return err
			})
		},
	}

	timezonesRemoveCmd = &cobra.Command{
		Use:   "remove NAME",
		Short: "Remove the first timezone called NAME.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAction(func(ctx context.Context, c *common.Client) error {
				removed, err := c.RemoveTimezone(ctx, args[0])
				if err != nil {
					return err
				}

				if !removed {
					_, err = fmt.Fprintf(cmd.OutOrStdout(), "No timezone called %s\n", args[0])

					return err
				}

				_, err = fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])

				return err
			})
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	timezonesCmd.AddCommand(timezonesListCmd, timezonesAddCmd, timezonesRemoveCmd)
	rootCmd.AddCommand(timezonesCmd)
}
