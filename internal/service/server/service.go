package server

import (
	"context"
	"fmt"
	"time"

	domain "github.com/oshokin/sleep-clock/internal/domain/alarm"
	"github.com/oshokin/sleep-clock/internal/domain/timezone"
	"github.com/oshokin/sleep-clock/internal/events"
	"github.com/oshokin/sleep-clock/internal/logger"
	"github.com/oshokin/sleep-clock/internal/repository/alarms"
	"github.com/oshokin/sleep-clock/internal/repository/timezones"
	"github.com/oshokin/sleep-clock/internal/repository/triggers"
)

// service encapsulates the alarm business logic on top of the registries.
// It is unexported to keep the transport decoupled from the implementation.
type service struct {
	// alarms owns every alarm record.
	alarms *alarms.Registry
	// zones owns the timezone list.
	zones *timezones.Registry
	// journal records fired alarms.
	journal triggers.Repository
	// bus fans fired alarms out to watchers.
	bus *events.Bus
	// now is the local wall clock.
	now func() time.Time
}

// newService wires the registries, the journal and the bus together.
// A nil journal discards fired alarms, a nil clock means time.Now.
func newService(
	alarmRegistry *alarms.Registry,
	zoneRegistry *timezones.Registry,
	journal triggers.Repository,
	bus *events.Bus,
	now func() time.Time,
) *service {
	if journal == nil {
		journal = triggers.NopRepository{}
	}

	if bus == nil {
		bus = events.NewBus()
	}

	if now == nil {
		now = time.Now
	}

	return &service{
		alarms:  alarmRegistry,
		zones:   zoneRegistry,
		journal: journal,
		bus:     bus,
		now:     now,
	}
}

// AddAlarm validates and stores a new alarm.
func (s *service) AddAlarm(ctx context.Context, draft *domain.Draft) (*domain.Alarm, error) {
	if err := draft.Time.Validate(); err != nil {
		return nil, err
	}

	created := s.alarms.Add(draft.Name, draft.Time, draft.SoundFile, draft.IsSleepAlarm)

	logger.InfoKV(ctx, "Alarm created",
		"alarm_id", created.ID,
		"name", created.Name,
		"time", created.Time.String(),
		"sound_file", created.SoundFile,
		"is_sleep_alarm", created.IsSleepAlarm,
	)

	return created, nil
}

// GetAlarm returns the alarm with the given id.
func (s *service) GetAlarm(_ context.Context, id string) (*domain.Alarm, error) {
	found, ok := s.alarms.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}

	return found, nil
}

// UpdateAlarm applies a partial update.
func (s *service) UpdateAlarm(ctx context.Context, id string, patch *domain.Patch) (*domain.Alarm, error) {
	if patch != nil && patch.Time != nil {
		if err := patch.Time.Validate(); err != nil {
			return nil, err
		}
	}

	updated, ok := s.alarms.Update(id, patch)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}

	logger.InfoKV(ctx, "Alarm updated",
		"alarm_id", updated.ID,
		"name", updated.Name,
		"time", updated.Time.String(),
		"is_active", updated.IsActive,
	)

	return updated, nil
}

// RemoveAlarm deletes the alarm with the given id.
func (s *service) RemoveAlarm(ctx context.Context, id string) error {
	if !s.alarms.Remove(id) {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}

	logger.InfoKV(ctx, "Alarm removed", "alarm_id", id)

	return nil
}

// RemoveAlarmByTime deletes the oldest alarm set to at.
func (s *service) RemoveAlarmByTime(ctx context.Context, at domain.Time) (*domain.Alarm, error) {
	if err := at.Validate(); err != nil {
		return nil, err
	}

	removed, ok := s.alarms.RemoveByTime(at)
	if !ok {
		return nil, fmt.Errorf("%w: at %s", domain.ErrNotFound, at)
	}

	logger.InfoKV(ctx, "Alarm removed by time", "alarm_id", removed.ID, "time", at.String())

	return removed, nil
}

// ListAlarms returns every alarm in creation order.
func (s *service) ListAlarms(context.Context) []*domain.Alarm {
	return s.alarms.List()
}

// SetSleepSchedule replaces the sleep alarms with a new bedtime/wake-up pair.
// The steps are not atomic: when the context is canceled halfway the alarms
// created so far are returned along with the error.
func (s *service) SetSleepSchedule(ctx context.Context, schedule *domain.SleepSchedule) ([]*domain.Alarm, error) {
	if err := schedule.Validate(); err != nil {
		return nil, err
	}

	var removed int

	for _, existing := range s.alarms.List() {
		if existing.IsSleepAlarm && s.alarms.Remove(existing.ID) {
			removed++
		}
	}

	created := make([]*domain.Alarm, 0, 2)

	steps := []struct {
		step  string
		sound string
		draft domain.Draft
	}{
		{
			step:  "add bedtime alarm",
			sound: schedule.BedtimeSound,
			draft: domain.Draft{Name: domain.BedtimeName, Time: schedule.Bedtime, IsSleepAlarm: true},
		},
		{
			step:  "add wake-up alarm",
			sound: schedule.WakeupSound,
			draft: domain.Draft{Name: domain.WakeupName, Time: schedule.Wakeup, IsSleepAlarm: false},
		},
	}

	for _, st := range steps {
		if st.sound == "" {
			continue
		}

		if err := ctx.Err(); err != nil {
			return created, fmt.Errorf("%s: %w", st.step, err)
		}

		st.draft.SoundFile = st.sound
		created = append(created, s.alarms.Add(st.draft.Name, st.draft.Time, st.draft.SoundFile, st.draft.IsSleepAlarm))
	}

	logger.InfoKV(ctx, "Sleep schedule saved",
		"bedtime", schedule.Bedtime.String(),
		"wakeup", schedule.Wakeup.String(),
		"removed", removed,
		"created", len(created),
	)

	return created, nil
}

// ListTimezones returns every zone with its local time derived from the service clock.
func (s *service) ListTimezones(context.Context) []timezone.ZoneTime {
	base := timezone.FromTime(s.now())
	zones := s.zones.List()
	result := make([]timezone.ZoneTime, 0, len(zones))

	for _, zone := range zones {
		result = append(result, timezone.ZoneTime{
			Timezone: zone,
			Local:    timezone.LocalTimeFor(base, zone.Offset),
		})
	}

	return result
}

// AddTimezone appends a zone.
func (s *service) AddTimezone(ctx context.Context, name string, offset int) {
	s.zones.Add(name, offset)
	logger.InfoKV(ctx, "Timezone added", "name", name, "offset", offset)
}

// RemoveTimezone deletes the first zone called name and reports whether it existed.
func (s *service) RemoveTimezone(ctx context.Context, name string) bool {
	removed := s.zones.Remove(name)
	logger.InfoKV(ctx, "Timezone removal requested", "name", name, "removed", removed)

	return removed
}

// CurrentTime returns the local wall clock.
func (s *service) CurrentTime(context.Context) time.Time {
	return s.now()
}

// ListTriggers returns the most recent fired alarms.
func (s *service) ListTriggers(ctx context.Context, limit int) ([]triggers.Record, error) {
	records, err := s.journal.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list triggers: %w", err)
	}

	return records, nil
}

// SubscribeTriggers registers a watcher of fired alarms.
func (s *service) SubscribeTriggers(buffer int) (<-chan events.Event, func()) {
	return s.bus.Subscribe(buffer)
}

// HandleTrigger is the monitor callback: it logs, journals and publishes a fired alarm.
// The event is published even when journaling fails.
func (s *service) HandleTrigger(ctx context.Context, alarm *domain.Alarm) error {
	firedAt := s.now()

	logger.InfoKV(ctx, "Alarm triggered",
		"alarm_id", alarm.ID,
		"name", alarm.Name,
		"time", alarm.Time.String(),
		"sound_file", alarm.SoundFile,
		"is_sleep_alarm", alarm.IsSleepAlarm,
	)

	s.bus.Publish(events.Event{
		Type:  events.TypeAlarmTriggered,
		Time:  firedAt,
		Alarm: alarm.Clone(),
	})

	if err := s.journal.Append(ctx, triggers.NewRecord(alarm, firedAt)); err != nil {
		return fmt.Errorf("journal trigger: %w", err)
	}

	return nil
}
