package integration

import (
	"context"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/oshokin/sleep-clock/internal/api/ws"
	"github.com/oshokin/sleep-clock/internal/config"
	domain "github.com/oshokin/sleep-clock/internal/domain/alarm"
	"github.com/oshokin/sleep-clock/internal/events"
	"github.com/oshokin/sleep-clock/internal/service/common"
	"github.com/oshokin/sleep-clock/internal/service/server"
)

// reserveAddress returns a free local TCP address.
func reserveAddress(t *testing.T) string {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	addr := l.Addr().String()
	_ = l.Close()

	return addr
}

// startServer runs the real server with a temporary config and returns a stop function
// that blocks until Run has returned.
func startServer(t *testing.T, settings *config.Config) (stop func()) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	cfgPath := filepath.Join(t.TempDir(), "settings.yaml")

	require.NoError(t, config.Save(cfgPath, settings))

	done := make(chan error, 1)

	go func() {
		done <- server.Run(ctx, &server.Options{
			ConfigPath:    cfgPath,
			ListenAddress: settings.ServerAddress,
		})
	}()

	return func() {
		cancel()

		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(10 * time.Second):
			t.Fatal("server did not stop")
		}
	}
}

// dialReady connects a client and waits until the server answers.
func dialReady(t *testing.T, addr string) *common.Client {
	t.Helper()

	c, err := common.Dial(context.Background(), addr,
		common.WithCallTimeout(3*time.Second),
		common.WithActor(&common.Actor{Hostname: "test-host", Username: "test-user"}),
	)
	require.NoError(t, err)

	t.Cleanup(func() { _ = c.Close() })

	require.Eventually(t, func() bool {
		_, err := c.GetTime(context.Background())

		return err == nil
	}, 5*time.Second, 50*time.Millisecond)

	return c
}

// TestGRPC_Roundtrip exercises every unary call against the real server.
func TestGRPC_Roundtrip(t *testing.T) {
	t.Parallel()

	addr := reserveAddress(t)
	stop := startServer(t, &config.Config{
		ServerAddress: addr,
		LogLevel:      "error",
		Journal:       config.Journal{Driver: config.JournalMemory},
	})
	defer stop()

	ctx := context.Background()
	c := dialReady(t, addr)

	created, err := c.AddAlarm(ctx, &domain.Draft{Time: domain.Time{Hour: 7, Minute: 30}})
	require.NoError(t, err)
	require.Equal(t, domain.DefaultName, created.Name)
	require.Equal(t, domain.DefaultSound, created.SoundFile)
	require.True(t, created.IsActive)

	inactive := false
	updated, err := c.UpdateAlarm(ctx, created.ID, &domain.Patch{IsActive: &inactive})
	require.NoError(t, err)
	require.False(t, updated.IsActive)

	got, err := c.GetAlarm(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, updated, got)

	sleepAlarms, err := c.SetSleepSchedule(ctx, &domain.SleepSchedule{
		Bedtime:      domain.Time{Hour: 22, Minute: 30},
		Wakeup:       domain.Time{Hour: 6, Minute: 45},
		BedtimeSound: domain.DefaultBedtimeSound,
		WakeupSound:  domain.DefaultWakeupSound,
	})
	require.NoError(t, err)
	require.Len(t, sleepAlarms, 2)

	alarms, err := c.ListAlarms(ctx)
	require.NoError(t, err)
	require.Len(t, alarms, 3)
	require.Equal(t, created.ID, alarms[0].ID)

	removed, err := c.RemoveAlarmAt(ctx, domain.Time{Hour: 6, Minute: 45})
	require.NoError(t, err)
	require.Equal(t, domain.WakeupName, removed.Name)

	require.NoError(t, c.RemoveAlarm(ctx, created.ID))

	err = c.RemoveAlarm(ctx, created.ID)
	require.Equal(t, codes.NotFound, status.Code(err))

	_, err = c.AddAlarm(ctx, &domain.Draft{Time: domain.Time{Hour: 24}})
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	zones, err := c.ListTimezones(ctx)
	require.NoError(t, err)
	require.Len(t, zones, 7)

	require.NoError(t, c.AddTimezone(ctx, "Hawaii", -10))

	ok, err := c.RemoveTimezone(ctx, "Hawaii")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = c.RemoveTimezone(ctx, "Hawaii")
	require.NoError(t, err)
	require.False(t, ok)

	clock, err := c.GetTime(ctx)
	require.NoError(t, err)
	require.WithinDuration(t, time.Now(), clock.Timestamp, 5*time.Second)
}

// TestGRPC_TriggerDelivery fires an alarm through the monitor and observes it on the
// gRPC stream, the WebSocket stream and the sqlite journal. The deferred stop also
// checks that open watchers do not keep the server from shutting down.
func TestGRPC_TriggerDelivery(t *testing.T) {
	t.Parallel()

	addr := reserveAddress(t)
	eventsAddr := reserveAddress(t)

	stop := startServer(t, &config.Config{
		ServerAddress: addr,
		EventsAddress: eventsAddr,
		CheckSchedule: "@every 1s",
		LogLevel:      "error",
		Journal: config.Journal{
			Driver: config.JournalSQLite,
			Path:   filepath.Join(t.TempDir(), "triggers.db"),
		},
	})
	defer stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	c := dialReady(t, addr)

	conn, _, err := websocket.Dial(ctx, "ws://"+eventsAddr+ws.Path, nil)
	require.NoError(t, err)

	defer func() { _ = conn.CloseNow() }()

	streamed := make(chan events.Event, 4)

	go func() {
		_ = c.WatchTriggers(ctx, func(e events.Event) error { //nolint:errcheck // Ends with the test context.
			streamed <- e

			return nil
		})
	}()

	// Give the subscriptions a moment before any alarm can fire.
	time.Sleep(200 * time.Millisecond)

	// Cover the current and the next minute so the test does not race the minute boundary.
	now := time.Now()
	for _, at := range []time.Time{now, now.Add(time.Minute)} {
		_, err = c.AddAlarm(ctx, &domain.Draft{
			Name: "Integration",
			Time: domain.Time{Hour: at.Hour(), Minute: at.Minute()},
		})
		require.NoError(t, err)
	}

	var fromStream events.Event

	select {
	case fromStream = <-streamed:
	case <-ctx.Done():
		t.Fatal("no trigger on the gRPC stream")
	}

	require.Equal(t, events.TypeAlarmTriggered, fromStream.Type)
	require.Equal(t, "Integration", fromStream.Alarm.Name)

	var msg ws.Message
	require.NoError(t, wsjson.Read(ctx, conn, &msg))
	require.Equal(t, events.TypeAlarmTriggered, msg.Type)
	require.Equal(t, fromStream.Alarm.ID, msg.Alarm.ID)

	require.Eventually(t, func() bool {
		records, err := c.ListTriggers(ctx, 10)

		return err == nil && len(records) > 0 && records[0].AlarmID == fromStream.Alarm.ID
	}, 5*time.Second, 50*time.Millisecond)
}
