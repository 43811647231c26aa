package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	DatabaseURL string
	Location    *time.Location
	HTTPAddr    string
	LogLevel    string
	Env         string // dev|prod
	SentryDSN   string
	Release     string

	LeaderboardLimit     int
	AttendanceWindowDays int
	DBTimeout            time.Duration
	// RepairInterval is how often serve re-derives every total score; 0 disables it.
	RepairInterval time.Duration
}

// fileConfig is the optional TOML overlay named by PORTAL_CONFIG. Secrets stay in env.
type fileConfig struct {
	HTTPAddr    string `toml:"http_addr"`
	LogLevel    string `toml:"log_level"`
	Timezone    string `toml:"timezone"`
	Leaderboard struct {
		DefaultLimit int `toml:"default_limit"`
	} `toml:"leaderboard"`
	Attendance struct {
		WindowDays int `toml:"window_days"`
	} `toml:"attendance"`
	DB struct {
		Timeout string `toml:"timeout"`
	} `toml:"db"`
	Scoring struct {
		RepairInterval string `toml:"repair_interval"`
	} `toml:"scoring"`
}

// Load reads .env (if present), then the TOML overlay, then the environment; env wins.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var fc fileConfig
	if path := os.Getenv("PORTAL_CONFIG"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("PORTAL_CONFIG: %w", err)
		}
		if err := toml.Unmarshal(raw, &fc); err != nil {
			return nil, fmt.Errorf("PORTAL_CONFIG %s: %w", path, err)
		}
	}

	dsn, err := requiredEnv("DATABASE_URL")
	if err != nil {
		return nil, err
	}

	tz := getenv("TZ", or(fc.Timezone, "UTC"))
	loc, err := time.LoadLocation(tz)
	if err != nil {
		loc = time.UTC
	}

	limit, err := intEnv("LEADERBOARD_DEFAULT_LIMIT", or(fc.Leaderboard.DefaultLimit, 10))
	if err != nil {
		return nil, err
	}
	window, err := intEnv("ATTENDANCE_WINDOW_DAYS", or(fc.Attendance.WindowDays, 30))
	if err != nil {
		return nil, err
	}
	timeout, err := time.ParseDuration(getenv("DB_TIMEOUT", or(fc.DB.Timeout, "5s")))
	if err != nil {
		return nil, fmt.Errorf("DB_TIMEOUT: %w", err)
	}
	repair, err := time.ParseDuration(getenv("REPAIR_INTERVAL", or(fc.Scoring.RepairInterval, "0s")))
	if err != nil {
		return nil, fmt.Errorf("REPAIR_INTERVAL: %w", err)
	}

	cfg := &Config{
		DatabaseURL:          dsn,
		Location:             loc,
		HTTPAddr:             getenv("HTTP_ADDR", or(fc.HTTPAddr, ":8080")),
		LogLevel:             getenv("LOG_LEVEL", or(fc.LogLevel, "info")),
		Env:                  getenv("ENV", "dev"),
		SentryDSN:            os.Getenv("SENTRY_DSN"),
		Release:              getenv("RELEASE", "dev"),
		LeaderboardLimit:     limit,
		AttendanceWindowDays: window,
		DBTimeout:            timeout,
		RepairInterval:       repair,
	}
	if cfg.LeaderboardLimit <= 0 {
		return nil, fmt.Errorf("LEADERBOARD_DEFAULT_LIMIT must be positive, got %d", cfg.LeaderboardLimit)
	}
	if cfg.AttendanceWindowDays <= 0 {
		return nil, fmt.Errorf("ATTENDANCE_WINDOW_DAYS must be positive, got %d", cfg.AttendanceWindowDays)
	}
	if cfg.RepairInterval < 0 {
		return nil, fmt.Errorf("REPAIR_INTERVAL must not be negative, got %s", cfg.RepairInterval)
	}
	return cfg, nil
}

func requiredEnv(k string) (string, error) {
	v := os.Getenv(k)
	if v == "" {
		return "", fmt.Errorf("required env %s is empty", k)
	}
	return v, nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func intEnv(k string, def int) (int, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: bad number %q: %w", k, v, err)
	}
	return n, nil
}

func or[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}
