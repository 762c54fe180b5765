package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	domain "github.com/oshokin/sleep-clock/internal/domain/alarm"
	"github.com/oshokin/sleep-clock/internal/domain/timezone"
	"github.com/oshokin/sleep-clock/internal/events"
	"github.com/oshokin/sleep-clock/internal/repository/triggers"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0) //nolint:mnd // Column padding.
}

func printAlarms(w io.Writer, alarms []*domain.Alarm) error {
	if len(alarms) == 0 {
		_, err := fmt.Fprintln(w, "No alarms.")

		return err
	}

	table := newTable(w)
	_, _ = fmt.Fprintln(table, "ID\tTIME\tNAME\tSOUND\tACTIVE\tSLEEP")

	for _, a := range alarms {
		_, _ = fmt.Fprintf(table, "%s\t%s\t%s\t%s\t%t\t%t\n",
			a.ID, a.Time, a.Name, a.SoundFile, a.IsActive, a.IsSleepAlarm)
	}

	return table.Flush()
}

func printAlarm(w io.Writer, a *domain.Alarm) error {
	return printAlarms(w, []*domain.Alarm{a})
}

func printZones(w io.Writer, zones []timezone.ZoneTime) error {
	table := newTable(w)
	_, _ = fmt.Fprintln(table, "NAME\tOFFSET\tLOCAL TIME")

	for _, z := range zones {
		_, _ = fmt.Fprintf(table, "%s\t%+d\t%s\n", z.Name, z.Offset, z.Local)
	}

	return table.Flush()
}

func printTriggers(w io.Writer, records []triggers.Record) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "No alarms have fired yet.")

		return err
	}

	table := newTable(w)
	_, _ = fmt.Fprintln(table, "FIRED AT\tTIME\tNAME\tSOUND\tALARM ID")

	for _, r := range records {
		_, _ = fmt.Fprintf(table, "%s\t%s\t%s\t%s\t%s\n",
			r.FiredAt.Local().Format(time.DateTime), r.Time, r.Name, r.SoundFile, r.AlarmID)
	}

	return table.Flush()
}

func printEvent(w io.Writer, e events.Event) error {
	if e.Alarm == nil {
		_, err := fmt.Fprintf(w, "%s %s\n", e.Time.Local().Format(time.DateTime), e.Type)

		return err
	}

	_, err := fmt.Fprintf(w, "%s %s: %s (%s) sound=%s\n",
		e.Time.Local().Format(time.DateTime), e.Type, e.Alarm.Name, e.Alarm.Time, e.Alarm.SoundFile)

	return err
}
