package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"classroom-notifier/internal/messaging"
	"classroom-notifier/internal/reminder"
	"classroom-notifier/internal/sweep"
)

// Store backends.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Config holds all configuration for the application.
type Config struct {
	StoreBackend string
	DBPath       string
	RedisURL     string
	APIPort      string
	LogLevel     slog.Level
	LogFormat    string

	ClassroomBaseURL   string
	ClassroomRateLimit float64

	MessagingBaseURL string
	MessagingToken   string
	MessagingFormat  messaging.Format

	SweepCron        string
	SweepConcurrency int
	SweepLockTTL     time.Duration
	SweepUnitTimeout time.Duration
	CallTimeout      time.Duration

	// Reminder policy: a built-in name, or custom thresholds when set.
	ReminderPolicy     string
	ReminderThresholds []time.Duration
	ReminderGrace      time.Duration
	// Location is the fixed zone due dates are interpreted in.
	Location *time.Location
}

// Policy builds the reminder policy the configuration describes.
func (c *Config) Policy() (reminder.Policy, error) {
	if len(c.ReminderThresholds) > 0 {
		return reminder.NewPolicy("custom", c.ReminderThresholds, c.ReminderGrace, c.Location)
	}
	p, err := reminder.PolicyByName(c.ReminderPolicy)
	if err != nil {
		return reminder.Policy{}, err
	}
	return reminder.NewPolicy(p.Name, p.Thresholds, c.ReminderGrace, c.Location)
}

// Load reads configuration from environment variables and returns a Config struct.
// If a .env file exists in the current directory or a parent, it is loaded first;
// variables already set take precedence over .env values.
func Load() (*Config, error) {
	loadDotEnv()

	cfg := &Config{
		StoreBackend:     strings.ToLower(getEnv("STORE_BACKEND", BackendSQLite)),
		DBPath:           getEnv("DB_PATH", "./data/classroom-notifier.db"),
		RedisURL:         getEnv("REDIS_URL", ""),
		APIPort:          getEnv("API_PORT", "9000"),
		LogFormat:        strings.ToLower(getEnv("LOG_FORMAT", "text")),
		ClassroomBaseURL: getEnv("CLASSROOM_BASE_URL", "https://classroom.googleapis.com"),
		MessagingBaseURL: getEnv("MESSAGING_BASE_URL", ""),
		MessagingToken:   getEnv("MESSAGING_TOKEN", ""),
		MessagingFormat:  messaging.Format(strings.ToLower(getEnv("MESSAGING_FORMAT", string(messaging.FormatText)))),
		SweepCron:        getEnv("SWEEP_CRON", "*/15 * * * *"),
		ReminderPolicy:   strings.ToLower(getEnv("REMINDER_POLICY", reminder.PolicyNameStandard)),
	}

	switch cfg.StoreBackend {
	case BackendSQLite, BackendMemory:
	case BackendRedis:
		if cfg.RedisURL == "" {
			return nil, fmt.Errorf("REDIS_URL is required when STORE_BACKEND=redis")
		}
	default:
		return nil, fmt.Errorf("STORE_BACKEND must be one of sqlite, redis, memory: got %q", cfg.StoreBackend)
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("LOG_LEVEL is invalid: %w", err)
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("LOG_FORMAT must be text or json: got %q", cfg.LogFormat)
	}
	if cfg.MessagingFormat != messaging.FormatText && cfg.MessagingFormat != messaging.FormatHTML {
		return nil, fmt.Errorf("MESSAGING_FORMAT must be text or html: got %q", cfg.MessagingFormat)
	}
	if _, err := sweep.ParseSchedule(cfg.SweepCron); err != nil {
		return nil, fmt.Errorf("SWEEP_CRON is invalid: %w", err)
	}

	var err error
	if cfg.ClassroomRateLimit, err = getFloat("CLASSROOM_RATE_LIMIT", 5); err != nil {
		return nil, err
	}
	if cfg.SweepConcurrency, err = getInt("SWEEP_CONCURRENCY", 4); err != nil {
		return nil, err
	}
	if cfg.SweepConcurrency <= 0 {
		return nil, fmt.Errorf("SWEEP_CONCURRENCY must be greater than 0")
	}
	if cfg.SweepLockTTL, err = getDuration("SWEEP_LOCK_TTL", 10*time.Minute); err != nil {
		return nil, err
	}
	if cfg.SweepUnitTimeout, err = getDuration("SWEEP_UNIT_TIMEOUT", 2*time.Minute); err != nil {
		return nil, err
	}
	if cfg.CallTimeout, err = getDuration("CALL_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.ReminderGrace, err = getDuration("REMINDER_GRACE", 0); err != nil {
		return nil, err
	}

	if s := getEnv("REMINDER_THRESHOLDS", ""); s != "" {
		if cfg.ReminderThresholds, err = reminder.ParseThresholds(s); err != nil {
			return nil, fmt.Errorf("REMINDER_THRESHOLDS is invalid: %w", err)
		}
	}
	if cfg.Location, err = ParseUTCOffset(getEnv("REMINDER_UTC_OFFSET", "")); err != nil {
		return nil, err
	}
	if _, err := cfg.Policy(); err != nil {
		return nil, fmt.Errorf("reminder policy: %w", err)
	}

	if cfg.StoreBackend == BackendSQLite {
		dataDir := filepath.Dir(cfg.DBPath)
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	return cfg, nil
}

// ParseUTCOffset parses "+08:00", "-0530" or "Z" into a fixed zone.
// An empty string is UTC.
func ParseUTCOffset(s string) (*time.Location, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "Z" || strings.EqualFold(s, "UTC") {
		return time.UTC, nil
	}
	for _, layout := range []string{"-07:00", "-0700", "-07"} {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		_, offset := t.Zone()
		return time.FixedZone("UTC"+s, offset), nil
	}
	return nil, fmt.Errorf("REMINDER_UTC_OFFSET must look like +08:00: got %q", s)
}

// loadDotEnv loads .env from the working directory, then walks up a few
// parents looking for one. Missing files are ignored.
func loadDotEnv() {
	_ = godotenv.Load()

	wd, err := os.Getwd()
	if err != nil {
		return
	}
	dir := wd
	for i := 0; i < 5; i++ {
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			_ = godotenv.Load(envPath)
			return
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return
		}
		dir = parent
	}
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) (int, error) {
	s := getEnv(key, "")
	if s == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	return n, nil
}

func getFloat(key string, defaultValue float64) (float64, error) {
	s := getEnv(key, "")
	if s == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number: %w", key, err)
	}
	return f, nil
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	s := getEnv(key, "")
	if s == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration such as 30s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s must not be negative", key)
	}
	return d, nil
}
