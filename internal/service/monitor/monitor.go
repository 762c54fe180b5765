package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	domain "github.com/oshokin/sleep-clock/internal/domain/alarm"
	"github.com/oshokin/sleep-clock/internal/logger"
)

// DefaultInterval is the check period used when no schedule is configured.
const DefaultInterval = 30 * time.Second

// Source provides the alarms to check on each tick.
type Source interface {
	List() []*domain.Alarm
}

// Trigger is called on the monitor goroutine for every alarm that fires.
type Trigger func(ctx context.Context, alarm *domain.Alarm) error

// Option configures a Monitor.
type Option func(*Monitor)

// WithSchedule sets when the monitor checks the clock.
func WithSchedule(schedule cron.Schedule) Option {
	return func(m *Monitor) {
		if schedule != nil {
			m.schedule = schedule
		}
	}
}

// WithClock replaces time.Now as the local time source.
func WithClock(now func() time.Time) Option {
	return func(m *Monitor) {
		if now != nil {
			m.now = now
		}
	}
}

// Monitor matches the clock against alarms in the background.
type Monitor struct {
	source   Source
	schedule cron.Schedule
	now      func() time.Time

	// mu guards cancel and done.
	mu sync.Mutex
	// cancel stops the running loop, nil while stopped.
	cancel context.CancelFunc
	// done is closed when the running loop exits.
	done chan struct{}

	// firedMu guards minute and fired.
	firedMu sync.Mutex
	// minute is the minute the fired set belongs to.
	minute time.Time
	// fired holds the ids that already fired during minute.
	fired map[string]struct{}
}

// New creates a stopped monitor reading alarms from source.
func New(source Source, opts ...Option) *Monitor {
	m := &Monitor{
		source:   source,
		schedule: cron.Every(DefaultInterval),
		now:      time.Now,
		fired:    make(map[string]struct{}),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Start launches the loop. It is a no-op while the monitor is already running.
// Canceling ctx stops the loop as well.
func (m *Monitor) Start(ctx context.Context, trigger Trigger) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(logger.WithName(ctx, "monitor"))
	done := make(chan struct{})

	m.cancel = cancel
	m.done = done

	go func() {
		defer close(done)
		defer m.finish(done)

		m.run(ctx, trigger)
	}()

	logger.Info(ctx, "Alarm monitor started")
}

// Stop cancels the loop and waits for it to exit. It is a no-op while stopped.
// Stop must not be called from a trigger: the loop would wait for itself.
func (m *Monitor) Stop() {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.mu.Unlock()

	if cancel == nil {
		return
	}

	cancel()
	<-done
}

// Running reports whether the loop is active. It turns false once the loop
// exits, whether through Stop or through the context passed to Start.
func (m *Monitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.cancel != nil
}

// finish clears the running state of the loop that owns done.
func (m *Monitor) finish(done chan struct{}) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.done != done {
		return
	}

	m.cancel()
	m.cancel = nil
	m.done = nil
}

// Check runs a single tick: it reads the clock once and calls trigger for
// every active alarm set to the current minute that has not fired in it yet.
// It returns the number of alarms that fired.
func (m *Monitor) Check(ctx context.Context, trigger Trigger) int {
	now := m.now()
	alarms := m.source.List()

	var fired int

	for _, alarm := range alarms {
		if !alarm.ShouldFire(now) || !m.markFired(now, alarm.ID) {
			continue
		}

		fired++

		if err := m.invoke(ctx, trigger, alarm); err != nil {
			logger.ErrorKV(ctx, "Alarm trigger failed", "alarm_id", alarm.ID, "name", alarm.Name, "error", err)
		}
	}

	return fired
}

// run waits for each scheduled instant and checks the clock until ctx is canceled.
func (m *Monitor) run(ctx context.Context, trigger Trigger) {
	timer := time.NewTimer(m.untilNext())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "Alarm monitor stopped")
			return
		case <-timer.C:
			if fired := m.Check(ctx, trigger); fired > 0 {
				logger.DebugKV(ctx, "Alarm monitor tick", "fired", fired)
			}

			timer.Reset(m.untilNext())
		}
	}
}

func (m *Monitor) untilNext() time.Duration {
	now := m.now()

	wait := m.schedule.Next(now).Sub(now)
	if wait <= 0 {
		// A schedule with nothing left to run, or a clock jumping forward; fall back to the default pace.
		wait = DefaultInterval
	}

	return wait
}

// markFired records that id fires during the minute of now.
// It returns false when id already fired in that minute.
func (m *Monitor) markFired(now time.Time, id string) bool {
	minute := now.Truncate(time.Minute)

	m.firedMu.Lock()
	defer m.firedMu.Unlock()

	if !minute.Equal(m.minute) {
		m.minute = minute
		clear(m.fired)
	}

	if _, ok := m.fired[id]; ok {
		return false
	}

	m.fired[id] = struct{}{}

	return true
}

// invoke calls trigger and turns a panic into an error.
func (m *Monitor) invoke(ctx context.Context, trigger Trigger, alarm *domain.Alarm) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("trigger panicked: %v", r)
		}
	}()

	return trigger(ctx, alarm)
}
