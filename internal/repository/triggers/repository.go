package triggers

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/afero"

	"github.com/oshokin/sleep-clock/internal/config"
	domain "github.com/oshokin/sleep-clock/internal/domain/alarm"
)

// Record is one fired alarm.
type Record struct {
	AlarmID      string
	Name         string
	Time         domain.Time
	SoundFile    string
	IsSleepAlarm bool
	FiredAt      time.Time
}

// NewRecord captures alarm as fired at firedAt.
func NewRecord(alarm *domain.Alarm, firedAt time.Time) Record {
	return Record{
		AlarmID:      alarm.ID,
		Name:         alarm.Name,
		Time:         alarm.Time,
		SoundFile:    alarm.SoundFile,
		IsSleepAlarm: alarm.IsSleepAlarm,
		FiredAt:      firedAt,
	}
}

// Repository stores fired alarms.
type Repository interface {
	// Append records a fired alarm.
	Append(ctx context.Context, record Record) error
	// List returns up to limit most recent records, oldest first. A non-positive limit returns everything.
	List(ctx context.Context, limit int) ([]Record, error)
	// Close releases the underlying resources.
	Close() error
}

// Open creates the repository selected by settings.
//
//nolint:ireturn // The backend is chosen at runtime.
func Open(ctx context.Context, settings config.Journal) (Repository, error) {
	switch settings.Driver {
	case config.JournalMemory, "":
		return NewMemoryRepository(settings.Capacity), nil
	case config.JournalFile:
		return NewFileRepository(afero.NewOsFs(), settings.Path), nil
	case config.JournalSQLite:
		repo, err := OpenSQLite(ctx, settings.Path)
		if err != nil {
			return nil, err
		}

		return repo, nil
	case config.JournalNone:
		return NopRepository{}, nil
	default:
		return nil, fmt.Errorf("unsupported journal driver %q", settings.Driver)
	}
}

// NopRepository discards every record.
type NopRepository struct{}

// Append does nothing.
func (NopRepository) Append(context.Context, Record) error { return nil }

// List always returns nothing.
func (NopRepository) List(context.Context, int) ([]Record, error) { return nil, nil }

// Close does nothing.
func (NopRepository) Close() error { return nil }

// tail returns the last limit records, or all of them when limit is non-positive.
func tail(records []Record, limit int) []Record {
	if limit > 0 && len(records) > limit {
		records = records[len(records)-limit:]
	}

	return append([]Record(nil), records...)
}
