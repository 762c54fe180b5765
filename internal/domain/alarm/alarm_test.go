package alarm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestAlarmClone verifies that Clone returns an equal copy and handles nil safely.
func TestAlarmClone(t *testing.T) {
	t.Parallel()
	require.Nil(t, (*Alarm)(nil).Clone())

	a := New("id-1", "Morning", Time{Hour: 7, Minute: 30}, "birds.mp3", false)
	b := a.Clone()

	require.Equal(t, a, b)
	require.NotSame(t, a, b)
	require.True(t, a.IsActive)

	b.Name = "Changed"
	require.Equal(t, "Morning", a.Name)
}

// TestTimeValidate checks the accepted hour and minute ranges.
func TestTimeValidate(t *testing.T) {
	t.Parallel()

	require.NoError(t, Time{Hour: 0, Minute: 0}.Validate())
	require.NoError(t, Time{Hour: 23, Minute: 59}.Validate())
	require.ErrorIs(t, Time{Hour: 24, Minute: 0}.Validate(), ErrInvalidTime)
	require.ErrorIs(t, Time{Hour: -1, Minute: 0}.Validate(), ErrInvalidTime)
	require.ErrorIs(t, Time{Hour: 7, Minute: 60}.Validate(), ErrInvalidTime)
	require.Equal(t, "07:05", Time{Hour: 7, Minute: 5}.String())
}

// TestAlarmShouldFire covers minute matching and the active flag.
func TestAlarmShouldFire(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 10, 18, 7, 30, 45, 0, time.Local)

	a := New("id", "Morning", Time{Hour: 7, Minute: 30}, "", false)
	require.True(t, a.ShouldFire(now))

	a.IsActive = false
	require.False(t, a.ShouldFire(now))

	b := New("id", "Later", Time{Hour: 7, Minute: 31}, "", false)
	require.False(t, b.ShouldFire(now))
}

// TestPatchApply verifies only provided fields are changed.
func TestPatchApply(t *testing.T) {
	t.Parallel()

	a := New("id", "Morning", Time{Hour: 7, Minute: 30}, "birds.mp3", true)
	before := a.Clone()

	var empty Patch
	require.True(t, empty.IsEmpty())
	empty.Apply(a)
	require.Equal(t, before, a)

	name := "Gym"
	patch := &Patch{Name: &name}
	require.False(t, patch.IsEmpty())
	patch.Apply(a)

	require.Equal(t, "Gym", a.Name)
	require.Equal(t, before.Time, a.Time)
	require.Equal(t, before.SoundFile, a.SoundFile)
	require.Equal(t, before.IsActive, a.IsActive)
	require.True(t, a.IsSleepAlarm)

	inactive := false
	at := Time{Hour: 6, Minute: 0}
	sound := "bell.mp3"
	(&Patch{Time: &at, SoundFile: &sound, IsActive: &inactive}).Apply(a)

	require.Equal(t, at, a.Time)
	require.Equal(t, "bell.mp3", a.SoundFile)
	require.False(t, a.IsActive)
	require.Equal(t, "Gym", a.Name)
}

// TestParseTime reads HH:MM and rejects malformed or out-of-range input.
func TestParseTime(t *testing.T) {
	t.Parallel()

	got, err := ParseTime("07:05")
	require.NoError(t, err)
	require.Equal(t, Time{Hour: 7, Minute: 5}, got)
	require.Equal(t, "07:05", got.String())

	for _, in := range []string{"", "7", "aa:bb", "24:00", "12:60", "07:30junk", "07:30:00", "07:30 pm"} {
		_, err = ParseTime(in)
		require.ErrorIs(t, err, ErrInvalidTime, in)
	}
}
