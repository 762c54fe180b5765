// Package events is an in-process fan-out of alarm events.
//
// Publish never blocks: every subscriber owns a buffered channel and events
// that do not fit are dropped for that subscriber only.
package events

import (
	"sync"
	"time"

	domain "github.com/oshokin/sleep-clock/internal/domain/alarm"
)

// TypeAlarmTriggered is published every time the monitor fires an alarm.
const TypeAlarmTriggered = "alarm.triggered"

// defaultBuffer is used when Subscribe gets a non-positive buffer size.
const defaultBuffer = 16

// Event is one published notification.
type Event struct {
	Type  string
	Time  time.Time
	Alarm *domain.Alarm
}

// Bus fans events out to subscribers.
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[uint64]chan Event
	closed bool
}

// NewBus returns a bus without subscribers.
func NewBus() *Bus {
	return &Bus{
		subs: make(map[uint64]chan Event),
	}
}

// Publish delivers e to every subscriber that has room for it.
func (b *Bus) Publish(e Event) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// Subscribe registers a subscriber. The returned function unsubscribes and
// closes the channel; calling it more than once is fine.
// Subscribing to a closed bus yields an already closed channel.
func (b *Bus) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = defaultBuffer
	}

	ch := make(chan Event, buffer)

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		close(ch)

		return ch, func() {}
	}

	b.nextID++
	id := b.nextID
	b.subs[id] = ch

	return ch, func() { b.unsubscribe(id) }
}

// Close closes every subscriber channel and rejects new subscribers.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}

	b.closed = true

	for id := range b.subs {
		b.dropLocked(id)
	}
}

func (b *Bus) unsubscribe(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.dropLocked(id)
}

// dropLocked removes and closes a subscriber channel. Publish holds the read
// lock while sending, so the channel is unreachable once the write lock is held.
func (b *Bus) dropLocked(id uint64) {
	ch, ok := b.subs[id]
	if !ok {
		return
	}

	delete(b.subs, id)
	close(ch)
}

// Subscribers returns the number of active subscribers.
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.subs)
}
