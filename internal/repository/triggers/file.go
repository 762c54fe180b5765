package triggers

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/afero"

	"github.com/oshokin/sleep-clock/internal/config"
	domain "github.com/oshokin/sleep-clock/internal/domain/alarm"
)

// FileRepository appends records to a JSON Lines file.
type FileRepository struct {
	// fs is the filesystem holding the journal.
	fs afero.Fs
	// path is the location of the journal file.
	path string
	// mu serializes appends and reads.
	mu sync.Mutex
}

// fileRecord is the on-disk shape of a Record.
type fileRecord struct {
	AlarmID      string    `json:"alarm_id"`
	Name         string    `json:"name"`
	Time         [2]int    `json:"time"`
	SoundFile    string    `json:"sound_file"`
	IsSleepAlarm bool      `json:"is_sleep_alarm"`
	FiredAt      time.Time `json:"fired_at"`
}

// NewFileRepository creates a repository writing to path on fs.
func NewFileRepository(fs afero.Fs, path string) *FileRepository {
	return &FileRepository{
		fs:   fs,
		path: filepath.Clean(path),
	}
}

// Append writes record as one JSON line.
func (r *FileRepository) Append(_ context.Context, record Record) error {
	line, err := json.Marshal(fileRecord{
		AlarmID:      record.AlarmID,
		Name:         record.Name,
		Time:         [2]int{record.Time.Hour, record.Time.Minute},
		SoundFile:    record.SoundFile,
		IsSleepAlarm: record.IsSleepAlarm,
		FiredAt:      record.FiredAt,
	})
	if err != nil {
		return fmt.Errorf("encode trigger: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err = r.fs.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("create journal directory: %w", err)
	}

	f, err := r.fs.OpenFile(r.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, config.DefaultFilePermissions)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}

	if _, err = f.Write(append(line, '\n')); err != nil {
		_ = f.Close()
		return fmt.Errorf("write journal: %w", err)
	}

	if err = f.Close(); err != nil {
		return fmt.Errorf("close journal: %w", err)
	}

	return nil
}

// List reads the journal and returns the most recent records, oldest first.
// Lines that cannot be decoded are skipped.
func (r *FileRepository) List(_ context.Context, limit int) ([]Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	contents, err := afero.ReadFile(r.fs, r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}

		return nil, fmt.Errorf("read journal: %w", err)
	}

	var (
		records []Record
		reader  = bufio.NewReader(bytes.NewReader(contents))
	)

	for {
		raw, readErr := reader.ReadBytes('\n')
		if len(bytes.TrimSpace(raw)) > 0 {
			var line fileRecord
			if err := json.Unmarshal(raw, &line); err == nil {
				records = append(records, Record{
					AlarmID:      line.AlarmID,
					Name:         line.Name,
					Time:         domain.Time{Hour: line.Time[0], Minute: line.Time[1]},
					SoundFile:    line.SoundFile,
					IsSleepAlarm: line.IsSleepAlarm,
					FiredAt:      line.FiredAt,
				})
			}
		}

		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				break
			}

			return nil, fmt.Errorf("read journal line: %w", readErr)
		}
	}

	return tail(records, limit), nil
}

// Close does nothing: the file is opened per append.
func (r *FileRepository) Close() error {
	return nil
}
