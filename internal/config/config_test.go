package config

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestValidate checks required fields, format validations and defaults.
func TestValidate(t *testing.T) {
	t.Parallel()

	// Missing socket.
	require.Error(t, Validate(new(Config)))

	// Bad socket.
	require.Error(t, Validate(&Config{ServerAddress: "bad:address"}))

	// Defaults.
	cfg := &Config{ServerAddress: "127.0.0.1:0"}
	require.NoError(t, Validate(cfg))
	require.Equal(t, DefaultTimeout, cfg.Timeout)
	require.Equal(t, DefaultCheckSchedule, cfg.CheckSchedule)
	require.Equal(t, JournalMemory, cfg.Journal.Driver)
	require.Equal(t, DefaultJournalCapacity, cfg.Journal.Capacity)

	// Bad schedule.
	require.Error(t, Validate(&Config{ServerAddress: "127.0.0.1:0", CheckSchedule: "every now and then"}))

	// Cron expressions are accepted.
	require.NoError(t, Validate(&Config{ServerAddress: "127.0.0.1:0", CheckSchedule: "* * * * *"}))

	// Unknown log level.
	require.ErrorIs(t, Validate(&Config{ServerAddress: "127.0.0.1:0", LogLevel: "loud"}), errUnknownLogLevel)

	// File journal needs a path.
	require.ErrorIs(t, Validate(&Config{
		ServerAddress: "127.0.0.1:0",
		Journal:       Journal{Driver: "FILE"},
	}), errJournalPathRequired)

	require.ErrorIs(t, Validate(&Config{
		ServerAddress: "127.0.0.1:0",
		Journal:       Journal{Driver: "postgres"},
	}), errUnknownJournalDriver)

	// Burst follows the rate when omitted.
	cfg = &Config{ServerAddress: "127.0.0.1:0", RateLimit: 5}
	require.NoError(t, Validate(cfg))
	require.Equal(t, 6, cfg.RateBurst)

	require.ErrorIs(t, Validate(&Config{ServerAddress: "127.0.0.1:0", RateLimit: -1}), errNegativeRateLimit)
}

// TestSaveLoadRoundtrip ensures settings are persisted and loaded back correctly.
func TestSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.yaml")

	cfg := &Config{
		ServerAddress: "127.0.0.1:50051",
		EventsAddress: "127.0.0.1:8000",
		Timeout:       3 * time.Second,
		CheckSchedule: "* * * * *",
		LogLevel:      "debug",
		Journal: Journal{
			Driver: JournalSQLite,
			Path:   "triggers.db",
		},
	}

	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg, loaded)

	_, err = os.Stat(path)
	require.NoError(t, err)

	require.Error(t, Save(path, nil))
}

// TestLoad_Missing reports a read error for absent files.
func TestLoad_Missing(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

// TestWatch_ReloadsOnWrite rewrites the settings file and expects the new level to be delivered.
func TestWatch_ReloadsOnWrite(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.yaml")
	cfg := &Config{ServerAddress: "127.0.0.1:50051", LogLevel: "info"}
	require.NoError(t, Save(path, cfg))

	ctx, cancel := context.WithCancel(context.Background())

	var (
		latest atomic.Value
		done   = make(chan error, 1)
	)

	go func() {
		done <- Watch(ctx, path, func(c *Config) {
			latest.Store(c.LogLevel)
		})
	}()

	// Keep rewriting until the watcher is up and reports the change.
	require.Eventually(t, func() bool {
		_ = Save(path, &Config{ServerAddress: "127.0.0.1:50051", LogLevel: "debug"})

		level, _ := latest.Load().(string)

		return level == "debug"
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}
