package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/oshokin/sleep-clock/internal/logger"
)

// Journal selects where fired alarms are recorded.
type Journal struct {
	// Driver is one of memory, file, sqlite or none.
	Driver string `yaml:"driver"`
	// Path is the journal file for the file and sqlite drivers.
	Path string `yaml:"path,omitempty"`
	// Capacity bounds the memory driver.
	Capacity int `yaml:"capacity,omitempty"`
}

// Config holds the settings shared by the sleep-clock binaries.
type Config struct {
	// ServerAddress is the gRPC server address.
	ServerAddress string `yaml:"server_addr"`
	// EventsAddress is the optional HTTP address serving the WebSocket trigger stream.
	EventsAddress string `yaml:"events_addr,omitempty"`
	// Timeout is the duration for network operations and RPC calls.
	Timeout time.Duration `yaml:"timeout"`
	// CheckSchedule tells the alarm monitor when to look at the clock.
	// Any robfig/cron standard spec works, e.g. "@every 30s" or "* * * * *".
	CheckSchedule string `yaml:"check_schedule"`
	// LogLevel is one of debug, info, warn or error.
	LogLevel string `yaml:"log_level"`
	// RateLimit is the number of RPCs per second the server accepts. Zero disables limiting.
	RateLimit float64 `yaml:"rate_limit,omitempty"`
	// RateBurst is the burst size allowed on top of RateLimit.
	RateBurst int `yaml:"rate_burst,omitempty"`
	// Journal configures the trigger journal.
	Journal Journal `yaml:"journal"`
}

const (
	// DefaultConfigFilename is the default filename for settings.
	DefaultConfigFilename = "sleep-clock-settings.yaml"

	// DefaultTimeout is the default duration for network operations.
	DefaultTimeout = 5 * time.Second

	// DefaultCheckSchedule polls the clock twice a minute.
	DefaultCheckSchedule = "@every 30s"

	// DefaultJournalCapacity is the number of triggers the memory journal retains.
	DefaultJournalCapacity = 256

	// DefaultFilePermissions is the default file permission for config and journal files.
	DefaultFilePermissions = 0o600
)

// Journal drivers.
const (
	JournalMemory = "memory"
	JournalFile   = "file"
	JournalSQLite = "sqlite"
	JournalNone   = "none"
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errServerSocketRequired is returned when server address is missing.
	errServerSocketRequired = errors.New("server address must be provided")
	// errJournalPathRequired is returned when a file based journal has no path.
	errJournalPathRequired = errors.New("journal path must be provided")
	// errUnknownJournalDriver is returned for unsupported journal drivers.
	errUnknownJournalDriver = errors.New("unknown journal driver")
	// errUnknownLogLevel is returned for unsupported log levels.
	errUnknownLogLevel = errors.New("unknown log level")
	// errNegativeRateLimit is returned when rate limiting settings are negative.
	errNegativeRateLimit = errors.New("rate limit must not be negative")
)

// Load reads configuration from the provided path and validates it.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the configuration to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks required fields and fills in defaults.
func Validate(cfg *Config) error {
	if cfg.ServerAddress == "" {
		return errServerSocketRequired
	}

	if _, err := net.ResolveTCPAddr("tcp", cfg.ServerAddress); err != nil {
		return fmt.Errorf("invalid server socket: %w", err)
	}

	if cfg.EventsAddress != "" {
		if _, err := net.ResolveTCPAddr("tcp", cfg.EventsAddress); err != nil {
			return fmt.Errorf("invalid events socket: %w", err)
		}
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	if cfg.CheckSchedule == "" {
		cfg.CheckSchedule = DefaultCheckSchedule
	}

	if _, err := ParseSchedule(cfg.CheckSchedule); err != nil {
		return err
	}

	if _, ok := logger.ParseLogLevel(cfg.LogLevel); !ok {
		return fmt.Errorf("%w: %q", errUnknownLogLevel, cfg.LogLevel)
	}

	if cfg.RateLimit < 0 || cfg.RateBurst < 0 {
		return errNegativeRateLimit
	}

	if cfg.RateLimit > 0 && cfg.RateBurst == 0 {
		cfg.RateBurst = int(cfg.RateLimit) + 1
	}

	return validateJournal(&cfg.Journal)
}

// ParseSchedule parses a check schedule with the standard cron parser,
// which also understands descriptors such as "@every 30s" and "@hourly".
//
//nolint:ireturn // cron.Schedule is the parser's own abstraction.
func ParseSchedule(spec string) (cron.Schedule, error) {
	schedule, err := cron.ParseStandard(strings.TrimSpace(spec))
	if err != nil {
		return nil, fmt.Errorf("invalid check schedule %q: %w", spec, err)
	}

	return schedule, nil
}

func validateJournal(j *Journal) error {
	j.Driver = strings.ToLower(strings.TrimSpace(j.Driver))

	switch j.Driver {
	case "":
		j.Driver = JournalMemory
	case JournalMemory, JournalNone:
	case JournalFile, JournalSQLite:
		if j.Path == "" {
			return fmt.Errorf("%w for %s driver", errJournalPathRequired, j.Driver)
		}
	default:
		return fmt.Errorf("%w: %q", errUnknownJournalDriver, j.Driver)
	}

	if j.Driver == JournalMemory && j.Capacity <= 0 {
		j.Capacity = DefaultJournalCapacity
	}

	return nil
}
