package triggers

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	// Registers the pure Go "sqlite" driver.
	_ "modernc.org/sqlite"

	domain "github.com/oshokin/sleep-clock/internal/domain/alarm"
)

//go:embed schema.sql
var schema string

// SQLiteRepository stores records in an SQLite database.
type SQLiteRepository struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and applies the schema.
func OpenSQLite(ctx context.Context, path string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create journal directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal database: %w", err)
	}

	// SQLite handles a single writer best.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err = db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("configure journal database: %w", err)
		}
	}

	if _, err = db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate journal database: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

// Append inserts record.
func (r *SQLiteRepository) Append(ctx context.Context, record Record) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO triggers (alarm_id, name, hour, minute, sound_file, is_sleep_alarm, fired_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		record.AlarmID,
		record.Name,
		record.Time.Hour,
		record.Time.Minute,
		record.SoundFile,
		record.IsSleepAlarm,
		record.FiredAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("insert trigger: %w", err)
	}

	return nil
}

// List returns the most recent records, oldest first.
func (r *SQLiteRepository) List(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		// SQLite treats a negative LIMIT as no limit.
		limit = -1
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT alarm_id, name, hour, minute, sound_file, is_sleep_alarm, fired_at
		 FROM (SELECT * FROM triggers ORDER BY id DESC LIMIT ?)
		 ORDER BY id ASC`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query triggers: %w", err)
	}

	defer func() {
		_ = rows.Close()
	}()

	var records []Record

	for rows.Next() {
		var (
			record  Record
			at      domain.Time
			firedAt int64
		)

		if err = rows.Scan(
			&record.AlarmID,
			&record.Name,
			&at.Hour,
			&at.Minute,
			&record.SoundFile,
			&record.IsSleepAlarm,
			&firedAt,
		); err != nil {
			return nil, fmt.Errorf("scan trigger: %w", err)
		}

		record.Time = at
		record.FiredAt = time.Unix(0, firedAt)
		records = append(records, record)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate triggers: %w", err)
	}

	return records, nil
}

// Close closes the database.
func (r *SQLiteRepository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}

	return r.db.Close()
}
