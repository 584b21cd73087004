package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration loaded from environment variables.
// Every field has a sensible default. An empty DatabaseURL selects the
// in-memory subscriber store.
type Config struct {
	// Server
	HTTPPort        string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	// Database
	DatabaseURL    string
	DBMaxConns     int32
	DBMinConns     int32
	MigrationsPath string

	// Outbound callbacks
	CallbackTimeout   time.Duration
	NotifyConcurrency int
	// Maximum callbacks per second per subscriber host; 0 disables limiting.
	CallbackRateLimit int
}

// LoadDotEnv loads variables from the given files (".env" when none are
// given) without overriding the process environment. A missing file is not an
// error.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

func Load() (*Config, error) {
	cfg := &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		ReadTimeout:     getDuration("READ_TIMEOUT", 5*time.Second),
		WriteTimeout:    getDuration("WRITE_TIMEOUT", 30*time.Second),
		ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 30*time.Second),

		DatabaseURL:    os.Getenv("DATABASE_URL"),
		DBMaxConns:     int32(getInt("DB_MAX_CONNS", 10)),
		DBMinConns:     int32(getInt("DB_MIN_CONNS", 2)),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "file://migrations"),

		CallbackTimeout:   getDuration("CALLBACK_TIMEOUT", 5*time.Second),
		NotifyConcurrency: getInt("NOTIFY_CONCURRENCY", 16),
		CallbackRateLimit: getInt("CALLBACK_RATE_LIMIT", 50),
	}

	if cfg.CallbackTimeout <= 0 {
		return nil, fmt.Errorf("CALLBACK_TIMEOUT must be positive")
	}
	if cfg.NotifyConcurrency <= 0 {
		return nil, fmt.Errorf("NOTIFY_CONCURRENCY must be positive")
	}
	if cfg.CallbackRateLimit < 0 {
		return nil, fmt.Errorf("CALLBACK_RATE_LIMIT must not be negative")
	}
	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
