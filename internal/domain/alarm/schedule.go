package alarm

import (
	"errors"
	"fmt"
)

// Defaults applied by the request boundary when fields are omitted.
const (
	DefaultName         = "Unnamed Alarm"
	DefaultSound        = "default"
	DefaultBedtimeSound = "default_bedtime"
	DefaultWakeupSound  = "default_wakeup"

	// BedtimeName labels the sleep alarm created by the sleep schedule.
	BedtimeName = "Bedtime"
	// WakeupName labels the wake-up alarm created by the sleep schedule.
	WakeupName = "Wake Up"
)

// ErrNotFound is returned when no alarm matches an id or time.
var ErrNotFound = errors.New("alarm not found")

// Draft describes an alarm to create.
type Draft struct {
	Name         string
	Time         Time
	SoundFile    string
	IsSleepAlarm bool
}

// SleepSchedule is a bedtime/wake-up pair.
// An empty sound skips the corresponding alarm.
type SleepSchedule struct {
	Bedtime      Time
	Wakeup       Time
	BedtimeSound string
	WakeupSound  string
}

// Validate checks both times.
func (s *SleepSchedule) Validate() error {
	if err := s.Bedtime.Validate(); err != nil {
		return fmt.Errorf("bedtime: %w", err)
	}

	if err := s.Wakeup.Validate(); err != nil {
		return fmt.Errorf("wake-up time: %w", err)
	}

	return nil
}
