// Package timezone holds named UTC offsets and the time-of-day arithmetic built on them.
package timezone

import (
	"fmt"
	"time"
)

const hoursPerDay = 24

// Timezone is a named whole-hour offset from UTC.
type Timezone struct {
	Name string
	// Offset is in hours, negative west of Greenwich.
	Offset int
}

// Defaults returns the zones every new registry starts with, in order.
func Defaults() []Timezone {
	return []Timezone{
		{Name: "UTC", Offset: 0},
		{Name: "New York", Offset: -5},
		{Name: "London", Offset: 0},
		{Name: "Tokyo", Offset: 9},
		{Name: "Bogota", Offset: -5},
		{Name: "Paris", Offset: 1},
		{Name: "Sydney", Offset: 11},
	}
}

// ZoneTime is a zone together with its current local time.
type ZoneTime struct {
	Timezone
	Local TimeOfDay
}

// TimeOfDay is a wall-clock reading without a date.
type TimeOfDay struct {
	Hour   int
	Minute int
	Second int
}

// FromTime extracts the time of day from t in its own location.
func FromTime(t time.Time) TimeOfDay {
	return TimeOfDay{
		Hour:   t.Hour(),
		Minute: t.Minute(),
		Second: t.Second(),
	}
}

// String renders the reading as HH:MM:SS.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

// LocalTimeFor shifts base by offsetHours and wraps the hour into [0, 24).
// Minutes and seconds pass through. Crossing midnight only wraps the hour:
// there is no date, so the day change is not represented.
func LocalTimeFor(base TimeOfDay, offsetHours int) TimeOfDay {
	hour := (base.Hour + offsetHours) % hoursPerDay
	if hour < 0 {
		hour += hoursPerDay
	}

	return TimeOfDay{
		Hour:   hour,
		Minute: base.Minute,
		Second: base.Second,
	}
}
