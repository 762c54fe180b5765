package ws

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/require"

	domain "github.com/oshokin/sleep-clock/internal/domain/alarm"
	"github.com/oshokin/sleep-clock/internal/events"
)

func dial(t *testing.T, bus *events.Bus) *websocket.Conn {
	t.Helper()

	srv := httptest.NewServer(NewMux(bus))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+Path, nil)
	require.NoError(t, err)

	t.Cleanup(func() { _ = conn.CloseNow() })

	require.Eventually(t, func() bool { return bus.Subscribers() == 1 }, 5*time.Second, 10*time.Millisecond)

	return conn
}

// TestHandler_StreamsEvents writes one JSON document per published event.
func TestHandler_StreamsEvents(t *testing.T) {
	t.Parallel()

	bus := events.NewBus()
	conn := dial(t, bus)

	alarm := domain.New("id-1", "Wake Up", domain.Time{Hour: 6, Minute: 45}, "birds.mp3", false)
	firedAt := time.Date(2024, time.June, 1, 6, 45, 0, 0, time.UTC)
	bus.Publish(events.Event{Type: events.TypeAlarmTriggered, Time: firedAt, Alarm: alarm})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var msg Message
	require.NoError(t, wsjson.Read(ctx, conn, &msg))
	require.Equal(t, events.TypeAlarmTriggered, msg.Type)
	require.True(t, firedAt.Equal(msg.FiredAt))
	require.NotNil(t, msg.Alarm)
	require.Equal(t, [2]int{6, 45}, msg.Alarm.Time)
	require.Equal(t, alarm, msg.Alarm.Alarm())
}

// TestHandler_BusClose closes the socket with StatusGoingAway.
func TestHandler_BusClose(t *testing.T) {
	t.Parallel()

	bus := events.NewBus()
	conn := dial(t, bus)

	bus.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, _, err := conn.Read(ctx)
	require.Equal(t, websocket.StatusGoingAway, websocket.CloseStatus(err))
}

// TestHandler_ClientDisconnect unsubscribes when the peer leaves.
func TestHandler_ClientDisconnect(t *testing.T) {
	t.Parallel()

	bus := events.NewBus()
	conn := dial(t, bus)

	require.NoError(t, conn.Close(websocket.StatusNormalClosure, ""))
	require.Eventually(t, func() bool { return bus.Subscribers() == 0 }, 5*time.Second, 10*time.Millisecond)
}
