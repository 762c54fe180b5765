package alarm

import (
	"errors"
	"fmt"
	"time"
)

const (
	// HoursPerDay bounds Time.Hour.
	HoursPerDay = 24
	// MinutesPerHour bounds Time.Minute.
	MinutesPerHour = 60
)

// ErrInvalidTime is returned when a Time is out of the [00:00, 23:59] range.
var ErrInvalidTime = errors.New("invalid alarm time")

// Time is a time of day with minute precision.
type Time struct {
	// Hour is in [0, 23].
	Hour int
	// Minute is in [0, 59].
	Minute int
}

// Validate checks that the time is a valid time of day.
func (t Time) Validate() error {
	if t.Hour < 0 || t.Hour >= HoursPerDay {
		return fmt.Errorf("%w: hour %d is out of range", ErrInvalidTime, t.Hour)
	}

	if t.Minute < 0 || t.Minute >= MinutesPerHour {
		return fmt.Errorf("%w: minute %d is out of range", ErrInvalidTime, t.Minute)
	}

	return nil
}

// Matches reports whether now falls within the minute described by t.
func (t Time) Matches(now time.Time) bool {
	return now.Hour() == t.Hour && now.Minute() == t.Minute
}

// ParseTime reads an HH:MM time of day.
func ParseTime(s string) (Time, error) {
	var (
		t    Time
		rest string
	)

	// The trailing verb only matches when input is left over after the minutes.
	if n, _ := fmt.Sscanf(s, "%d:%d%s", &t.Hour, &t.Minute, &rest); n != 2 {
		return Time{}, fmt.Errorf("%w: %q is not HH:MM", ErrInvalidTime, s)
	}

	if err := t.Validate(); err != nil {
		return Time{}, err
	}

	return t, nil
}

// String renders the time as HH:MM.
func (t Time) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Alarm is a time-of-day alarm.
type Alarm struct {
	// ID is generated at creation and never changes.
	ID string
	// Name is the display label.
	Name string
	// Time is when the alarm fires every day.
	Time Time
	// SoundFile is an opaque reference to the sound to play.
	SoundFile string
	// IsActive marks alarms the monitor may fire. Inactive alarms are kept but skipped.
	IsActive bool
	// IsSleepAlarm marks alarms owned by the sleep-schedule workflow. Set at creation only.
	IsSleepAlarm bool
}

// New returns an active alarm.
func New(id, name string, at Time, soundFile string, isSleepAlarm bool) *Alarm {
	return &Alarm{
		ID:           id,
		Name:         name,
		Time:         at,
		SoundFile:    soundFile,
		IsActive:     true,
		IsSleepAlarm: isSleepAlarm,
	}
}

// Clone returns a copy of the alarm to avoid leaking internal references.
func (a *Alarm) Clone() *Alarm {
	if a == nil {
		return nil
	}

	cloned := *a

	return &cloned
}

// ShouldFire reports whether the alarm is active and set to the minute of now.
func (a *Alarm) ShouldFire(now time.Time) bool {
	return a.IsActive && a.Time.Matches(now)
}

// Patch is a partial alarm update. Nil fields are left untouched.
type Patch struct {
	Name      *string
	Time      *Time
	SoundFile *string
	IsActive  *bool
}

// IsEmpty reports whether the patch changes nothing.
func (p *Patch) IsEmpty() bool {
	return p == nil || (p.Name == nil && p.Time == nil && p.SoundFile == nil && p.IsActive == nil)
}

// Apply copies every provided field onto a.
func (p *Patch) Apply(a *Alarm) {
	if p == nil || a == nil {
		return
	}

	if p.Name != nil {
		a.Name = *p.Name
	}

	if p.Time != nil {
		a.Time = *p.Time
	}

	if p.SoundFile != nil {
		a.SoundFile = *p.SoundFile
	}

	if p.IsActive != nil {
		a.IsActive = *p.IsActive
	}
}
