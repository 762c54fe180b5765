package sleepclock

import (
	"errors"
	"fmt"
	"math"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	domain "github.com/oshokin/sleep-clock/internal/domain/alarm"
	"github.com/oshokin/sleep-clock/internal/domain/timezone"
	"github.com/oshokin/sleep-clock/internal/events"
	"github.com/oshokin/sleep-clock/internal/repository/triggers"
)

// ErrInvalidInput marks a malformed request field.
var ErrInvalidInput = errors.New("invalid input")

const (
	fieldID           = "id"
	fieldName         = "name"
	fieldTime         = "time"
	fieldSoundFile    = "sound_file"
	fieldIsActive     = "is_active"
	fieldIsSleepAlarm = "is_sleep_alarm"
	fieldBedtime      = "bedtime"
	fieldWakeupTime   = "wakeup_time"
	fieldBedtimeSound = "bedtime_sound"
	fieldWakeupSound  = "wakeup_sound"
	fieldOffset       = "offset"
	fieldCurrentTime  = "current_time"
	fieldAlarms       = "alarms"
	fieldAlarm        = "alarm"
	fieldAlarmID      = "alarm_id"
	fieldTimezones    = "timezones"
	fieldTriggers     = "triggers"
	fieldRemoved      = "removed"
	fieldLimit        = "limit"
	fieldType         = "type"
	fieldFiredAt      = "fired_at"
	fieldHour         = "hour"
	fieldMinute       = "minute"
	fieldSecond       = "second"
	fieldTimestamp    = "timestamp"
)

// Clock is the server wall clock as reported by GetTime.
type Clock struct {
	timezone.TimeOfDay
	Timestamp time.Time
}

// EncodeTime renders t as a [hour, minute] list.
func EncodeTime(t domain.Time) *structpb.Value {
	return structpb.NewListValue(&structpb.ListValue{
		Values: []*structpb.Value{
			structpb.NewNumberValue(float64(t.Hour)),
			structpb.NewNumberValue(float64(t.Minute)),
		},
	})
}

// DecodeTime parses a [hour, minute] list and validates the range.
func DecodeTime(v *structpb.Value) (domain.Time, error) {
	values := v.GetListValue().GetValues()
	if len(values) != 2 { //nolint:mnd // Hour and minute.
		return domain.Time{}, fmt.Errorf("%w: time must be a [hour, minute] list", ErrInvalidInput)
	}

	hour, err := wholeNumber(values[0])
	if err != nil {
		return domain.Time{}, fmt.Errorf("hour: %w", err)
	}

	minute, err := wholeNumber(values[1])
	if err != nil {
		return domain.Time{}, fmt.Errorf("minute: %w", err)
	}

	t := domain.Time{Hour: hour, Minute: minute}
	if err = t.Validate(); err != nil {
		return domain.Time{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	return t, nil
}

// EncodeAlarm converts an alarm to its wire form.
func EncodeAlarm(a *domain.Alarm) *structpb.Struct {
	return &structpb.Struct{
		Fields: map[string]*structpb.Value{
			fieldID:           structpb.NewStringValue(a.ID),
			fieldName:         structpb.NewStringValue(a.Name),
			fieldTime:         EncodeTime(a.Time),
			fieldSoundFile:    structpb.NewStringValue(a.SoundFile),
			fieldIsActive:     structpb.NewBoolValue(a.IsActive),
			fieldIsSleepAlarm: structpb.NewBoolValue(a.IsSleepAlarm),
		},
	}
}

// DecodeAlarm converts the wire form back to an alarm.
func DecodeAlarm(s *structpb.Struct) (*domain.Alarm, error) {
	id, err := requiredString(s, fieldID)
	if err != nil {
		return nil, err
	}

	at, err := requiredTime(s, fieldTime)
	if err != nil {
		return nil, err
	}

	name, _, err := optionalString(s, fieldName)
	if err != nil {
		return nil, err
	}

	sound, _, err := optionalString(s, fieldSoundFile)
	if err != nil {
		return nil, err
	}

	isActive, _, err := optionalBool(s, fieldIsActive)
	if err != nil {
		return nil, err
	}

	isSleep, _, err := optionalBool(s, fieldIsSleepAlarm)
	if err != nil {
		return nil, err
	}

	return &domain.Alarm{
		ID:           id,
		Name:         name,
		Time:         at,
		SoundFile:    sound,
		IsActive:     isActive,
		IsSleepAlarm: isSleep,
	}, nil
}

// EncodeAlarmList wraps alarms under the "alarms" key.
func EncodeAlarmList(alarms []*domain.Alarm) *structpb.Struct {
	values := make([]*structpb.Value, 0, len(alarms))
	for _, a := range alarms {
		values = append(values, structpb.NewStructValue(EncodeAlarm(a)))
	}

	return &structpb.Struct{
		Fields: map[string]*structpb.Value{
			fieldAlarms: structpb.NewListValue(&structpb.ListValue{Values: values}),
		},
	}
}

// DecodeAlarmList unwraps the "alarms" key.
func DecodeAlarmList(s *structpb.Struct) ([]*domain.Alarm, error) {
	values := s.GetFields()[fieldAlarms].GetListValue().GetValues()
	result := make([]*domain.Alarm, 0, len(values))

	for i, v := range values {
		a, err := DecodeAlarm(v.GetStructValue())
		if err != nil {
			return nil, fmt.Errorf("alarm %d: %w", i, err)
		}

		result = append(result, a)
	}

	return result, nil
}

// EncodeDraft builds an AddAlarm request.
func EncodeDraft(d *domain.Draft) *structpb.Struct {
	fields := map[string]*structpb.Value{
		fieldTime:         EncodeTime(d.Time),
		fieldIsSleepAlarm: structpb.NewBoolValue(d.IsSleepAlarm),
	}

	if d.Name != "" {
		fields[fieldName] = structpb.NewStringValue(d.Name)
	}

	if d.SoundFile != "" {
		fields[fieldSoundFile] = structpb.NewStringValue(d.SoundFile)
	}

	return &structpb.Struct{Fields: fields}
}

// DecodeDraft parses an AddAlarm request, filling in the default name and sound.
func DecodeDraft(s *structpb.Struct) (*domain.Draft, error) {
	at, err := requiredTime(s, fieldTime)
	if err != nil {
		return nil, err
	}

	name, ok, err := optionalString(s, fieldName)
	if err != nil {
		return nil, err
	}

	if !ok {
		name = domain.DefaultName
	}

	sound, ok, err := optionalString(s, fieldSoundFile)
	if err != nil {
		return nil, err
	}

	if !ok {
		sound = domain.DefaultSound
	}

	isSleep, _, err := optionalBool(s, fieldIsSleepAlarm)
	if err != nil {
		return nil, err
	}

	return &domain.Draft{
		Name:         name,
		Time:         at,
		SoundFile:    sound,
		IsSleepAlarm: isSleep,
	}, nil
}

// EncodePatch builds an UpdateAlarm request. Nil patch fields are omitted.
func EncodePatch(id string, p *domain.Patch) *structpb.Struct {
	fields := map[string]*structpb.Value{
		fieldID: structpb.NewStringValue(id),
	}

	if p.Name != nil {
		fields[fieldName] = structpb.NewStringValue(*p.Name)
	}

	if p.Time != nil {
		fields[fieldTime] = EncodeTime(*p.Time)
	}

	if p.SoundFile != nil {
		fields[fieldSoundFile] = structpb.NewStringValue(*p.SoundFile)
	}

	if p.IsActive != nil {
		fields[fieldIsActive] = structpb.NewBoolValue(*p.IsActive)
	}

	return &structpb.Struct{Fields: fields}
}

// DecodePatch parses an UpdateAlarm request.
func DecodePatch(s *structpb.Struct) (string, *domain.Patch, error) {
	id, err := requiredString(s, fieldID)
	if err != nil {
		return "", nil, err
	}

	var patch domain.Patch

	if name, ok, err := optionalString(s, fieldName); err != nil {
		return "", nil, err
	} else if ok {
		patch.Name = &name
	}

	if _, ok := lookup(s, fieldTime); ok {
		at, err := requiredTime(s, fieldTime)
		if err != nil {
			return "", nil, err
		}

		patch.Time = &at
	}

	if sound, ok, err := optionalString(s, fieldSoundFile); err != nil {
		return "", nil, err
	} else if ok {
		patch.SoundFile = &sound
	}

	if active, ok, err := optionalBool(s, fieldIsActive); err != nil {
		return "", nil, err
	} else if ok {
		patch.IsActive = &active
	}

	return id, &patch, nil
}

// EncodeID builds a request carrying only an alarm id.
func EncodeID(id string) *structpb.Struct {
	return &structpb.Struct{
		Fields: map[string]*structpb.Value{fieldID: structpb.NewStringValue(id)},
	}
}

// EncodeRemoveByTime builds a RemoveAlarm request targeting the oldest alarm set to at.
func EncodeRemoveByTime(at domain.Time) *structpb.Struct {
	return &structpb.Struct{
		Fields: map[string]*structpb.Value{fieldTime: EncodeTime(at)},
	}
}

// EncodeSleepSchedule builds a SetSleepSchedule request.
// Sounds are always sent so that an empty one skips its alarm.
func EncodeSleepSchedule(sc *domain.SleepSchedule) *structpb.Struct {
	return &structpb.Struct{
		Fields: map[string]*structpb.Value{
			fieldBedtime:      EncodeTime(sc.Bedtime),
			fieldWakeupTime:   EncodeTime(sc.Wakeup),
			fieldBedtimeSound: structpb.NewStringValue(sc.BedtimeSound),
			fieldWakeupSound:  structpb.NewStringValue(sc.WakeupSound),
		},
	}
}

// DecodeSleepSchedule parses a SetSleepSchedule request.
// Omitted sounds fall back to the defaults; empty ones are kept empty.
func DecodeSleepSchedule(s *structpb.Struct) (*domain.SleepSchedule, error) {
	bedtime, err := requiredTime(s, fieldBedtime)
	if err != nil {
		return nil, err
	}

	wakeup, err := requiredTime(s, fieldWakeupTime)
	if err != nil {
		return nil, err
	}

	bedtimeSound, ok, err := optionalString(s, fieldBedtimeSound)
	if err != nil {
		return nil, err
	}

	if !ok {
		bedtimeSound = domain.DefaultBedtimeSound
	}

	wakeupSound, ok, err := optionalString(s, fieldWakeupSound)
	if err != nil {
		return nil, err
	}

	if !ok {
		wakeupSound = domain.DefaultWakeupSound
	}

	return &domain.SleepSchedule{
		Bedtime:      bedtime,
		Wakeup:       wakeup,
		BedtimeSound: bedtimeSound,
		WakeupSound:  wakeupSound,
	}, nil
}

// DecodeRemoved reads the "removed" flag of a RemoveTimezone response.
func DecodeRemoved(s *structpb.Struct) bool {
	return s.GetFields()[fieldRemoved].GetBoolValue()
}

// EncodeTimezone builds an AddTimezone request.
func EncodeTimezone(name string, offset int) *structpb.Struct {
	return &structpb.Struct{
		Fields: map[string]*structpb.Value{
			fieldName:   structpb.NewStringValue(name),
			fieldOffset: structpb.NewNumberValue(float64(offset)),
		},
	}
}

// DecodeTimezone parses an AddTimezone request.
func DecodeTimezone(s *structpb.Struct) (timezone.Timezone, error) {
	name, err := requiredString(s, fieldName)
	if err != nil {
		return timezone.Timezone{}, err
	}

	v, ok := lookup(s, fieldOffset)
	if !ok {
		return timezone.Timezone{}, fmt.Errorf("%w: %s is required", ErrInvalidInput, fieldOffset)
	}

	offset, err := wholeNumber(v)
	if err != nil {
		return timezone.Timezone{}, fmt.Errorf("%s: %w", fieldOffset, err)
	}

	return timezone.Timezone{Name: name, Offset: offset}, nil
}

// EncodeName builds a request carrying only a name.
func EncodeName(name string) *structpb.Struct {
	return &structpb.Struct{
		Fields: map[string]*structpb.Value{fieldName: structpb.NewStringValue(name)},
	}
}

// EncodeZones renders zones with their local time under the "timezones" key.
func EncodeZones(zones []timezone.ZoneTime) *structpb.Struct {
	values := make([]*structpb.Value, 0, len(zones))

	for _, z := range zones {
		values = append(values, structpb.NewStructValue(&structpb.Struct{
			Fields: map[string]*structpb.Value{
				fieldName:        structpb.NewStringValue(z.Name),
				fieldOffset:      structpb.NewNumberValue(float64(z.Offset)),
				fieldCurrentTime: structpb.NewStringValue(z.Local.String()),
			},
		}))
	}

	return &structpb.Struct{
		Fields: map[string]*structpb.Value{
			fieldTimezones: structpb.NewListValue(&structpb.ListValue{Values: values}),
		},
	}
}

// DecodeZones unwraps the "timezones" key.
func DecodeZones(s *structpb.Struct) ([]timezone.ZoneTime, error) {
	values := s.GetFields()[fieldTimezones].GetListValue().GetValues()
	result := make([]timezone.ZoneTime, 0, len(values))

	for i, v := range values {
		zone, err := DecodeTimezone(v.GetStructValue())
		if err != nil {
			return nil, fmt.Errorf("timezone %d: %w", i, err)
		}

		current, _, err := optionalString(v.GetStructValue(), fieldCurrentTime)
		if err != nil {
			return nil, fmt.Errorf("timezone %d: %w", i, err)
		}

		var local timezone.TimeOfDay

		if _, err = fmt.Sscanf(current, "%d:%d:%d", &local.Hour, &local.Minute, &local.Second); err != nil {
			return nil, fmt.Errorf("%w: timezone %d: current_time %q", ErrInvalidInput, i, current)
		}

		result = append(result, timezone.ZoneTime{Timezone: zone, Local: local})
	}

	return result, nil
}

// EncodeClock renders the wall clock as hour, minute, second and a unix timestamp.
func EncodeClock(now time.Time) *structpb.Struct {
	tod := timezone.FromTime(now)

	return &structpb.Struct{
		Fields: map[string]*structpb.Value{
			fieldHour:      structpb.NewNumberValue(float64(tod.Hour)),
			fieldMinute:    structpb.NewNumberValue(float64(tod.Minute)),
			fieldSecond:    structpb.NewNumberValue(float64(tod.Second)),
			fieldTimestamp: structpb.NewNumberValue(float64(now.UnixMilli()) / float64(time.Second/time.Millisecond)),
		},
	}
}

// DecodeClock parses a GetTime response.
func DecodeClock(s *structpb.Struct) (*Clock, error) {
	var (
		clock Clock
		err   error
	)

	targets := []struct {
		key string
		dst *int
	}{
		{fieldHour, &clock.Hour},
		{fieldMinute, &clock.Minute},
		{fieldSecond, &clock.Second},
	}

	for _, target := range targets {
		v, ok := lookup(s, target.key)
		if !ok {
			return nil, fmt.Errorf("%w: %s is required", ErrInvalidInput, target.key)
		}

		if *target.dst, err = wholeNumber(v); err != nil {
			return nil, fmt.Errorf("%s: %w", target.key, err)
		}
	}

	seconds := s.GetFields()[fieldTimestamp].GetNumberValue()
	clock.Timestamp = time.UnixMilli(int64(math.Round(seconds * float64(time.Second/time.Millisecond))))

	return &clock, nil
}

// EncodeLimit builds a ListTriggers request.
func EncodeLimit(limit int) *structpb.Struct {
	return &structpb.Struct{
		Fields: map[string]*structpb.Value{fieldLimit: structpb.NewNumberValue(float64(limit))},
	}
}

// EncodeRecords renders journal records under the "triggers" key.
func EncodeRecords(records []triggers.Record) *structpb.Struct {
	values := make([]*structpb.Value, 0, len(records))

	for _, r := range records {
		values = append(values, structpb.NewStructValue(&structpb.Struct{
			Fields: map[string]*structpb.Value{
				fieldAlarmID:      structpb.NewStringValue(r.AlarmID),
				fieldName:         structpb.NewStringValue(r.Name),
				fieldTime:         EncodeTime(r.Time),
				fieldSoundFile:    structpb.NewStringValue(r.SoundFile),
				fieldIsSleepAlarm: structpb.NewBoolValue(r.IsSleepAlarm),
				fieldFiredAt:      structpb.NewStringValue(r.FiredAt.Format(time.RFC3339Nano)),
			},
		}))
	}

	return &structpb.Struct{
		Fields: map[string]*structpb.Value{
			fieldTriggers: structpb.NewListValue(&structpb.ListValue{Values: values}),
		},
	}
}

// DecodeRecords unwraps the "triggers" key.
func DecodeRecords(s *structpb.Struct) ([]triggers.Record, error) {
	values := s.GetFields()[fieldTriggers].GetListValue().GetValues()
	result := make([]triggers.Record, 0, len(values))

	for i, v := range values {
		item := v.GetStructValue()

		alarmID, err := requiredString(item, fieldAlarmID)
		if err != nil {
			return nil, fmt.Errorf("trigger %d: %w", i, err)
		}

		at, err := requiredTime(item, fieldTime)
		if err != nil {
			return nil, fmt.Errorf("trigger %d: %w", i, err)
		}

		firedAt, err := time.Parse(time.RFC3339Nano, item.GetFields()[fieldFiredAt].GetStringValue())
		if err != nil {
			return nil, fmt.Errorf("%w: trigger %d: fired_at: %w", ErrInvalidInput, i, err)
		}

		result = append(result, triggers.Record{
			AlarmID:      alarmID,
			Name:         item.GetFields()[fieldName].GetStringValue(),
			Time:         at,
			SoundFile:    item.GetFields()[fieldSoundFile].GetStringValue(),
			IsSleepAlarm: item.GetFields()[fieldIsSleepAlarm].GetBoolValue(),
			FiredAt:      firedAt,
		})
	}

	return result, nil
}

// EncodeEvent renders a bus event as {type, alarm, fired_at}.
func EncodeEvent(e events.Event) *structpb.Struct {
	fields := map[string]*structpb.Value{
		fieldType:    structpb.NewStringValue(e.Type),
		fieldFiredAt: structpb.NewStringValue(e.Time.Format(time.RFC3339Nano)),
	}

	if e.Alarm != nil {
		fields[fieldAlarm] = structpb.NewStructValue(EncodeAlarm(e.Alarm))
	}

	return &structpb.Struct{Fields: fields}
}

// DecodeEvent parses a WatchTriggers message.
func DecodeEvent(s *structpb.Struct) (events.Event, error) {
	firedAt, err := time.Parse(time.RFC3339Nano, s.GetFields()[fieldFiredAt].GetStringValue())
	if err != nil {
		return events.Event{}, fmt.Errorf("%w: fired_at: %w", ErrInvalidInput, err)
	}

	e := events.Event{
		Type: s.GetFields()[fieldType].GetStringValue(),
		Time: firedAt,
	}

	if v, ok := lookup(s, fieldAlarm); ok {
		if e.Alarm, err = DecodeAlarm(v.GetStructValue()); err != nil {
			return events.Event{}, fmt.Errorf("alarm: %w", err)
		}
	}

	return e, nil
}

// lookup returns a present, non-null field.
func lookup(s *structpb.Struct, key string) (*structpb.Value, bool) {
	v, ok := s.GetFields()[key]
	if !ok || v == nil {
		return nil, false
	}

	if _, isNull := v.GetKind().(*structpb.Value_NullValue); isNull {
		return nil, false
	}

	return v, true
}

func requiredString(s *structpb.Struct, key string) (string, error) {
	value, ok, err := optionalString(s, key)
	if err != nil {
		return "", err
	}

	if !ok || value == "" {
		return "", fmt.Errorf("%w: %s is required", ErrInvalidInput, key)
	}

	return value, nil
}

func requiredTime(s *structpb.Struct, key string) (domain.Time, error) {
	v, ok := lookup(s, key)
	if !ok {
		return domain.Time{}, fmt.Errorf("%w: %s is required", ErrInvalidInput, key)
	}

	at, err := DecodeTime(v)
	if err != nil {
		return domain.Time{}, fmt.Errorf("%s: %w", key, err)
	}

	return at, nil
}

func optionalString(s *structpb.Struct, key string) (string, bool, error) {
	v, ok := lookup(s, key)
	if !ok {
		return "", false, nil
	}

	str, isString := v.GetKind().(*structpb.Value_StringValue)
	if !isString {
		return "", false, fmt.Errorf("%w: %s must be a string", ErrInvalidInput, key)
	}

	return str.StringValue, true, nil
}

func optionalBool(s *structpb.Struct, key string) (bool, bool, error) {
	v, ok := lookup(s, key)
	if !ok {
		return false, false, nil
	}

	b, isBool := v.GetKind().(*structpb.Value_BoolValue)
	if !isBool {
		return false, false, fmt.Errorf("%w: %s must be a boolean", ErrInvalidInput, key)
	}

	return b.BoolValue, true, nil
}

// wholeNumber accepts integral numbers only.
func wholeNumber(v *structpb.Value) (int, error) {
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, fmt.Errorf("%w: expected a number", ErrInvalidInput)
	}

	f := n.NumberValue
	if f != math.Trunc(f) || f < math.MinInt32 || f > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %v is not a whole number", ErrInvalidInput, f)
	}

	return int(f), nil
}
