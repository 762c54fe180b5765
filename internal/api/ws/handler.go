// Package ws streams fired alarms to WebSocket clients.
package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	domain "github.com/oshokin/sleep-clock/internal/domain/alarm"
	"github.com/oshokin/sleep-clock/internal/events"
	"github.com/oshokin/sleep-clock/internal/logger"
)

// Path is where the event stream is served.
const Path = "/events"

const (
	subscriberBuffer    = 16
	defaultWriteTimeout = 5 * time.Second
)

// Source hands out event subscriptions.
type Source interface {
	Subscribe(buffer int) (<-chan events.Event, func())
}

// Message is the JSON document written for every event.
type Message struct {
	Type    string     `json:"type"`
	Alarm   *AlarmJSON `json:"alarm,omitempty"`
	FiredAt time.Time  `json:"fired_at"`
}

// AlarmJSON mirrors an alarm with the field names used by every other client surface.
type AlarmJSON struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Time         [2]int `json:"time"`
	SoundFile    string `json:"sound_file"`
	IsActive     bool   `json:"is_active"`
	IsSleepAlarm bool   `json:"is_sleep_alarm"`
}

// NewMessage converts a bus event.
func NewMessage(e events.Event) Message {
	msg := Message{
		Type:    e.Type,
		FiredAt: e.Time,
	}

	if e.Alarm != nil {
		msg.Alarm = &AlarmJSON{
			ID:           e.Alarm.ID,
			Name:         e.Alarm.Name,
			Time:         [2]int{e.Alarm.Time.Hour, e.Alarm.Time.Minute},
			SoundFile:    e.Alarm.SoundFile,
			IsActive:     e.Alarm.IsActive,
			IsSleepAlarm: e.Alarm.IsSleepAlarm,
		}
	}

	return msg
}

// Alarm converts the JSON form back to a domain alarm.
func (a *AlarmJSON) Alarm() *domain.Alarm {
	return &domain.Alarm{
		ID:           a.ID,
		Name:         a.Name,
		Time:         domain.Time{Hour: a.Time[0], Minute: a.Time[1]},
		SoundFile:    a.SoundFile,
		IsActive:     a.IsActive,
		IsSleepAlarm: a.IsSleepAlarm,
	}
}

// Handler upgrades requests and forwards events until either side goes away.
type Handler struct {
	source       Source
	writeTimeout time.Duration
}

// NewHandler returns a handler reading from source.
func NewHandler(source Source) *Handler {
	return &Handler{
		source:       source,
		writeTimeout: defaultWriteTimeout,
	}
}

// NewMux serves the handler at Path.
func NewMux(source Source) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("GET "+Path, NewHandler(source))

	return mux
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithKV(logger.WithName(r.Context(), "events"), "remote_addr", r.RemoteAddr)

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		logger.WarnKV(ctx, "WebSocket upgrade failed", "error", err)

		return
	}

	defer conn.CloseNow() //nolint:errcheck // The connection is already being torn down.

	// Incoming frames are discarded; ctx ends when the peer closes.
	ctx = conn.CloseRead(ctx)

	ch, unsubscribe := h.source.Subscribe(subscriberBuffer)
	defer unsubscribe()

	logger.Debug(ctx, "Event watcher connected")

	for {
		select {
		case <-ctx.Done():
			logger.Debug(ctx, "Event watcher disconnected")

			return
		case e, ok := <-ch:
			if !ok {
				_ = conn.Close(websocket.StatusGoingAway, "server shutting down") //nolint:errcheck // Best effort.

				return
			}

			if err = h.write(ctx, conn, NewMessage(e)); err != nil {
				logger.DebugKV(ctx, "Event write failed", "error", err)

				return
			}
		}
	}
}

func (h *Handler) write(ctx context.Context, conn *websocket.Conn, msg Message) error {
	ctx, cancel := context.WithTimeout(ctx, h.writeTimeout)
	defer cancel()

	return wsjson.Write(ctx, conn, msg)
}
