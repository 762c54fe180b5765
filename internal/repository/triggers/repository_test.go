package triggers

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/sleep-clock/internal/config"
	domain "github.com/oshokin/sleep-clock/internal/domain/alarm"
)

// sampleRecords builds n records fired one minute apart.
func sampleRecords(n int) []Record {
	start := time.Date(2026, 10, 18, 7, 0, 0, 0, time.UTC)
	records := make([]Record, 0, n)

	for i := range n {
		alarm := domain.New(fmt.Sprintf("id-%d", i), fmt.Sprintf("alarm-%d", i), domain.Time{Hour: 7, Minute: i}, "bell.mp3", i%2 == 0)
		records = append(records, NewRecord(alarm, start.Add(time.Duration(i)*time.Minute)))
	}

	return records
}

// exerciseRepository runs the shared contract against any backend.
func exerciseRepository(t *testing.T, repo Repository) {
	t.Helper()

	ctx := context.Background()

	empty, err := repo.List(ctx, 0)
	require.NoError(t, err)
	require.Empty(t, empty)

	records := sampleRecords(5)
	for _, r := range records {
		require.NoError(t, repo.Append(ctx, r))
	}

	all, err := repo.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 5)

	for i := range records {
		require.Equal(t, records[i].AlarmID, all[i].AlarmID)
		require.Equal(t, records[i].Name, all[i].Name)
		require.Equal(t, records[i].Time, all[i].Time)
		require.Equal(t, records[i].SoundFile, all[i].SoundFile)
		require.Equal(t, records[i].IsSleepAlarm, all[i].IsSleepAlarm)
		require.True(t, records[i].FiredAt.Equal(all[i].FiredAt))
	}

	last, err := repo.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, last, 2)
	require.Equal(t, "id-3", last[0].AlarmID)
	require.Equal(t, "id-4", last[1].AlarmID)

	require.NoError(t, repo.Close())
}

// TestMemoryRepository verifies the contract and eviction of the oldest records.
func TestMemoryRepository(t *testing.T) {
	t.Parallel()

	exerciseRepository(t, NewMemoryRepository(10))

	repo := NewMemoryRepository(3)
	for _, r := range sampleRecords(5) {
		require.NoError(t, repo.Append(context.Background(), r))
	}

	kept, err := repo.List(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, kept, 3)
	require.Equal(t, "id-2", kept[0].AlarmID)
	require.Equal(t, "id-4", kept[2].AlarmID)
}

// TestFileRepository runs the contract on an in-memory filesystem.
func TestFileRepository(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	exerciseRepository(t, NewFileRepository(fs, "/var/lib/sleep-clock/triggers.jsonl"))

	// Broken lines are skipped.
	require.NoError(t, afero.WriteFile(fs, "/broken.jsonl", []byte("{not json}\n"), 0o600))

	repo := NewFileRepository(fs, "/broken.jsonl")
	require.NoError(t, repo.Append(context.Background(), sampleRecords(1)[0]))

	records, err := repo.List(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, records, 1)

	// Records past the default scanner token size stay readable.
	large := NewFileRepository(fs, "/large.jsonl")
	records = sampleRecords(3)
	records[1].Name = strings.Repeat("n", 70*1024)

	for _, r := range records {
		require.NoError(t, large.Append(context.Background(), r))
	}

	all, err := large.List(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Len(t, all[1].Name, 70*1024)
	require.Equal(t, "id-2", all[2].AlarmID)
}

// TestSQLiteRepository runs the contract on a temporary database.
func TestSQLiteRepository(t *testing.T) {
	t.Parallel()

	repo, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "journal", "triggers.db"))
	require.NoError(t, err)

	exerciseRepository(t, repo)
}

// TestOpen picks the backend from the settings.
func TestOpen(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	repo, err := Open(ctx, config.Journal{Driver: config.JournalMemory})
	require.NoError(t, err)
	require.IsType(t, new(MemoryRepository), repo)

	repo, err = Open(ctx, config.Journal{Driver: config.JournalNone})
	require.NoError(t, err)
	require.NoError(t, repo.Append(ctx, sampleRecords(1)[0]))

	records, err := repo.List(ctx, 0)
	require.NoError(t, err)
	require.Empty(t, records)

	repo, err = Open(ctx, config.Journal{Driver: config.JournalFile, Path: filepath.Join(t.TempDir(), "t.jsonl")})
	require.NoError(t, err)
	require.IsType(t, new(FileRepository), repo)

	repo, err = Open(ctx, config.Journal{Driver: config.JournalSQLite, Path: filepath.Join(t.TempDir(), "t.db")})
	require.NoError(t, err)
	require.IsType(t, new(SQLiteRepository), repo)
	require.NoError(t, repo.Close())

	_, err = Open(ctx, config.Journal{Driver: "postgres"})
	require.Error(t, err)
}
