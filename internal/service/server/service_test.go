package server

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	domain "github.com/oshokin/sleep-clock/internal/domain/alarm"
	"github.com/oshokin/sleep-clock/internal/events"
	"github.com/oshokin/sleep-clock/internal/repository/alarms"
	"github.com/oshokin/sleep-clock/internal/repository/timezones"
	"github.com/oshokin/sleep-clock/internal/repository/triggers"
)

var errTestJournal = errors.New("test journal error")

// failingJournal rejects every append.
type failingJournal struct {
	triggers.NopRepository
}

// Append always fails.
func (failingJournal) Append(context.Context, triggers.Record) error { return errTestJournal }

// fixedClock returns a clock frozen at 10:15:30 local time.
func fixedClock() func() time.Time {
	at := time.Date(2024, time.March, 1, 10, 15, 30, 0, time.Local)

	return func() time.Time { return at }
}

func newTestService(journal triggers.Repository) *service {
	return newService(alarms.New(), timezones.New(), journal, events.NewBus(), fixedClock())
}

// TestService_AlarmLifecycle covers add, get, update and remove by id.
func TestService_AlarmLifecycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestService(nil)

	created, err := s.AddAlarm(ctx, &domain.Draft{Name: "Morning", Time: domain.Time{Hour: 7, Minute: 30}, SoundFile: "bell.mp3"})
	require.NoError(t, err)
	require.True(t, created.IsActive)
	require.False(t, created.IsSleepAlarm)

	got, err := s.GetAlarm(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, created, got)

	active := false
	updated, err := s.UpdateAlarm(ctx, created.ID, &domain.Patch{IsActive: &active})
	require.NoError(t, err)
	require.False(t, updated.IsActive)
	require.Equal(t, "Morning", updated.Name)

	require.NoError(t, s.RemoveAlarm(ctx, created.ID))
	require.ErrorIs(t, s.RemoveAlarm(ctx, created.ID), domain.ErrNotFound)

	_, err = s.GetAlarm(ctx, created.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = s.UpdateAlarm(ctx, created.ID, &domain.Patch{})
	require.ErrorIs(t, err, domain.ErrNotFound)
	require.Empty(t, s.ListAlarms(ctx))
}

// TestService_RejectsInvalidTimes verifies validation happens before any mutation.
func TestService_RejectsInvalidTimes(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestService(nil)

	_, err := s.AddAlarm(ctx, &domain.Draft{Time: domain.Time{Hour: 24}})
	require.ErrorIs(t, err, domain.ErrInvalidTime)

	created, err := s.AddAlarm(ctx, &domain.Draft{Name: "a", Time: domain.Time{Hour: 6}})
	require.NoError(t, err)

	_, err = s.UpdateAlarm(ctx, created.ID, &domain.Patch{Time: &domain.Time{Minute: 60}})
	require.ErrorIs(t, err, domain.ErrInvalidTime)

	got, err := s.GetAlarm(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, domain.Time{Hour: 6}, got.Time)

	_, err = s.SetSleepSchedule(ctx, &domain.SleepSchedule{
		Bedtime:      domain.Time{Hour: 25},
		BedtimeSound: "x",
	})
	require.ErrorIs(t, err, domain.ErrInvalidTime)
	require.Len(t, s.ListAlarms(ctx), 1)
}

// TestService_RemoveAlarmByTime removes the oldest matching alarm only.
func TestService_RemoveAlarmByTime(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestService(nil)
	at := domain.Time{Hour: 8}

	first, err := s.AddAlarm(ctx, &domain.Draft{Name: "first", Time: at})
	require.NoError(t, err)
	second, err := s.AddAlarm(ctx, &domain.Draft{Name: "second", Time: at})
	require.NoError(t, err)

	removed, err := s.RemoveAlarmByTime(ctx, at)
	require.NoError(t, err)
	require.Equal(t, first.ID, removed.ID)

	list := s.ListAlarms(ctx)
	require.Len(t, list, 1)
	require.Equal(t, second.ID, list[0].ID)

	_, err = s.RemoveAlarmByTime(ctx, domain.Time{Hour: 9})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

// TestService_SetSleepSchedule replaces previous sleep alarms and leaves others untouched.
func TestService_SetSleepSchedule(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestService(nil)

	regular, err := s.AddAlarm(ctx, &domain.Draft{Name: "gym", Time: domain.Time{Hour: 18}})
	require.NoError(t, err)

	created, err := s.SetSleepSchedule(ctx, &domain.SleepSchedule{
		Bedtime:      domain.Time{Hour: 22, Minute: 30},
		Wakeup:       domain.Time{Hour: 6, Minute: 45},
		BedtimeSound: domain.DefaultBedtimeSound,
		WakeupSound:  domain.DefaultWakeupSound,
	})
	require.NoError(t, err)
	require.Len(t, created, 2)
	require.Equal(t, domain.BedtimeName, created[0].Name)
	require.True(t, created[0].IsSleepAlarm)
	require.Equal(t, domain.WakeupName, created[1].Name)
	require.False(t, created[1].IsSleepAlarm)

	// Only the bedtime alarm is a sleep alarm, so the old wake-up alarm survives.
	again, err := s.SetSleepSchedule(ctx, &domain.SleepSchedule{
		Bedtime:      domain.Time{Hour: 23},
		Wakeup:       domain.Time{Hour: 7},
		BedtimeSound: "rain.mp3",
	})
	require.NoError(t, err)
	require.Len(t, again, 1)

	list := s.ListAlarms(ctx)
	require.Len(t, list, 3)
	require.Equal(t, regular.ID, list[0].ID)
	require.Equal(t, created[1].ID, list[1].ID)
	require.Equal(t, again[0].ID, list[2].ID)
	require.Equal(t, "rain.mp3", list[2].SoundFile)
}

// TestService_SetSleepSchedule_Canceled returns a step error when the context is done.
func TestService_SetSleepSchedule_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := newTestService(nil)

	created, err := s.SetSleepSchedule(ctx, &domain.SleepSchedule{
		Bedtime:      domain.Time{Hour: 22},
		Wakeup:       domain.Time{Hour: 6},
		BedtimeSound: "a",
		WakeupSound:  "b",
	})
	require.ErrorIs(t, err, context.Canceled)
	require.ErrorContains(t, err, "add bedtime alarm")
	require.Empty(t, created)
}

// TestService_Timezones checks local times are derived from the service clock.
func TestService_Timezones(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestService(nil)

	zones := s.ListTimezones(ctx)
	require.Len(t, zones, 7)
	require.Equal(t, "UTC", zones[0].Name)
	require.Equal(t, "10:15:30", zones[0].Local.String())

	s.AddTimezone(ctx, "Hawaii", -10)

	zones = s.ListTimezones(ctx)
	require.Len(t, zones, 8)
	require.Equal(t, "00:15:30", zones[7].Local.String())

	require.True(t, s.RemoveTimezone(ctx, "Hawaii"))
	require.False(t, s.RemoveTimezone(ctx, "Hawaii"))
	require.Len(t, s.ListTimezones(ctx), 7)
}

// TestService_HandleTrigger journals and publishes fired alarms.
func TestService_HandleTrigger(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	journal := triggers.NewMemoryRepository(8)
	s := newTestService(journal)

	ch, unsubscribe := s.SubscribeTriggers(1)
	defer unsubscribe()

	fired := domain.New("id-1", "Morning", domain.Time{Hour: 10, Minute: 15}, "bell.mp3", false)
	require.NoError(t, s.HandleTrigger(ctx, fired))

	event := <-ch
	require.Equal(t, events.TypeAlarmTriggered, event.Type)
	require.Equal(t, fired, event.Alarm)
	require.Equal(t, s.CurrentTime(ctx), event.Time)

	records, err := s.ListTriggers(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "id-1", records[0].AlarmID)
	require.Equal(t, "bell.mp3", records[0].SoundFile)
}

// TestService_HandleTrigger_JournalError still publishes when the journal fails.
func TestService_HandleTrigger_JournalError(t *testing.T) {
	t.Parallel()

	s := newTestService(failingJournal{})

	ch, unsubscribe := s.SubscribeTriggers(1)
	defer unsubscribe()

	err := s.HandleTrigger(context.Background(), domain.New("id", "n", domain.Time{}, "s", false))
	require.ErrorIs(t, err, errTestJournal)
	require.Len(t, ch, 1)
}
