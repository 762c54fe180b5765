package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	domain "github.com/oshokin/sleep-clock/internal/domain/alarm"
	"github.com/oshokin/sleep-clock/internal/service/common"
)

// errRemoveTarget is returned when remove gets neither an id nor --at.
var errRemoveTarget = errors.New("either ID or --at is required")

var (
	alarmName   string
	alarmSound  string
	alarmTime   string
	alarmSleep  bool
	alarmActive bool
	removeAt    string

	alarmsCmd = &cobra.Command{
		Use:   "alarms",
		Short: "List and edit alarms.",
	}

	alarmsListCmd = &cobra.Command{
		Use:   "list",
		Short: "List alarms in creation order.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAction(func(ctx context.Context, c *common.Client) error {
				alarms, err := c.ListAlarms(ctx)
				if err != nil {
					return err
				}

				return printAlarms(cmd.OutOrStdout(), alarms)
			})
		},
	}

	alarmsGetCmd = &cobra.Command{
		Use:   "get ID",
		Short: "Show one alarm.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAction(func(ctx context.Context, c *common.Client) error {
				found, err := c.GetAlarm(ctx, args[0])
				if err != nil {
					return err
				}

				return printAlarm(cmd.OutOrStdout(), found)
			})
		},
	}

	alarmsAddCmd = &cobra.Command{
		Use:   "add HH:MM",
		Short: "Add an alarm.",
		Long:  "Add an alarm. Without --name and --sound the server uses \"Unnamed Alarm\" and \"default\".",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			at, err := domain.ParseTime(args[0])
			if err != nil {
				return err
			}

			draft := &domain.Draft{
				Name:         alarmName,
				Time:         at,
				SoundFile:    alarmSound,
				IsSleepAlarm: alarmSleep,
			}

			return runAction(func(ctx context.Context, c *common.Client) error {
				created, err := c.AddAlarm(ctx, draft)
				if err != nil {
					return err
				}

				return printAlarm(cmd.OutOrStdout(), created)
			})
		},
	}

	alarmsUpdateCmd = &cobra.Command{
		Use:   "update ID",
		Short: "Change the name, time, sound or active flag of an alarm.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch, err := patchFromFlags(cmd)
			if err != nil {
				return err
			}

			return runAction(func(ctx context.Context, c *common.Client) error {
				updated, err := c.UpdateAlarm(ctx, args[0], patch)
				if err != nil {
					return err
				}

				return printAlarm(cmd.OutOrStdout(), updated)
			})
		},
	}

	alarmsRemoveCmd = &cobra.Command{
		Use:   "remove [ID]",
		Short: "Remove an alarm by id, or the oldest alarm set to --at.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return runAction(func(ctx context.Context, c *common.Client) error {
					if err := c.RemoveAlarm(ctx, args[0]); err != nil {
						return err
					}

					_, err := fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])

					return err
				})
			}

			if removeAt == "" {
				return errRemoveTarget
			}

			at, err := domain.ParseTime(removeAt)
			if err != nil {
				return err
			}

			return runAction(func(ctx context.Context, c *common.Client) error {
				removed, err := c.RemoveAlarmAt(ctx, at)
				if err != nil {
					return err
				}

				_, err = fmt.Fprintf(cmd.OutOrStdout(), "Removed %s (%s at %s)\n", removed.ID, removed.Name, removed.Time)

				return err
			})
		},
	}
)

// patchFromFlags builds a patch from the flags the user actually set.
func patchFromFlags(cmd *cobra.Command) (*domain.Patch, error) {
	var patch domain.Patch

	flags := cmd.Flags()

	if flags.Changed("name") {
		patch.Name = &alarmName
	}

	if flags.Changed("sound") {
		patch.SoundFile = &alarmSound
	}

	if flags.Changed("active") {
		patch.IsActive = &alarmActive
	}

	if flags.Changed("time") {
		at, err := domain.ParseTime(alarmTime)
		if err != nil {
			return nil, err
		}

		patch.Time = &at
	}

	return &patch, nil
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	alarmsAddCmd.Flags().StringVarP(&alarmName, "name", "n", "", "alarm name")
	alarmsAddCmd.Flags().StringVar(&alarmSound, "sound", "", "sound file")
	alarmsAddCmd.Flags().BoolVar(&alarmSleep, "sleep", false, "mark as a sleep alarm, replaced by the next sleep schedule")

	alarmsUpdateCmd.Flags().StringVarP(&alarmName, "name", "n", "", "new alarm name")
	alarmsUpdateCmd.Flags().StringVarP(&alarmTime, "time", "t", "", "new time as HH:MM")
	alarmsUpdateCmd.Flags().StringVar(&alarmSound, "sound", "", "new sound file")
	alarmsUpdateCmd.Flags().BoolVar(&alarmActive, "active", true, "enable or disable the alarm")

	alarmsRemoveCmd.Flags().StringVar(&removeAt, "at", "", "remove the oldest alarm set to HH:MM")

	alarmsCmd.AddCommand(alarmsListCmd, alarmsGetCmd, alarmsAddCmd, alarmsUpdateCmd, alarmsRemoveCmd)
	rootCmd.AddCommand(alarmsCmd)
}
