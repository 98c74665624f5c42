package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	// Environment
	Environment string

	// Database (empty disables the shot log)
	DatabaseURL    string
	MigrateOnStart bool

	// Redis (empty disables snapshots and game events)
	RedisURL string

	// Server
	Port        string
	FrontendURL string

	// Match settings
	TickIntervalMs        int
	MaxMatches            int
	IdleMatchMinutes      int
	IdleWorkerPollSeconds int
	SnapshotTTLMinutes    int

	// Security
	JWTSecret            string
	SeatTicketTTLMinutes int
}

// Load reads .env (if present), an optional config.yaml in path, and the
// process environment, in increasing order of precedence.
func Load(path string) *Config {
	godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(path)
	v.AutomaticEnv()

	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("FRONTEND_URL", "http://localhost:5173")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("MIGRATE_ON_START", false)
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("TICK_INTERVAL_MS", 16)
	v.SetDefault("MAX_MATCHES", 500)
	v.SetDefault("IDLE_MATCH_MINUTES", 15)
	v.SetDefault("IDLE_WORKER_POLL_SECONDS", 30)
	v.SetDefault("SNAPSHOT_TTL_MINUTES", 60)
	v.SetDefault("JWT_SECRET", "change-me-in-production")
	v.SetDefault("SEAT_TICKET_TTL_MINUTES", 120)

	// config.yaml is optional; env and defaults are enough to run.
	_ = v.ReadInConfig()

	return &Config{
		Environment:           v.GetString("APP_ENV"),
		DatabaseURL:           v.GetString("DATABASE_URL"),
		MigrateOnStart:        v.GetBool("MIGRATE_ON_START"),
		RedisURL:              v.GetString("REDIS_URL"),
		Port:                  v.GetString("APP_PORT"),
		FrontendURL:           v.GetString("FRONTEND_URL"),
		TickIntervalMs:        v.GetInt("TICK_INTERVAL_MS"),
		MaxMatches:            v.GetInt("MAX_MATCHES"),
		IdleMatchMinutes:      v.GetInt("IDLE_MATCH_MINUTES"),
		IdleWorkerPollSeconds: v.GetInt("IDLE_WORKER_POLL_SECONDS"),
		SnapshotTTLMinutes:    v.GetInt("SNAPSHOT_TTL_MINUTES"),
		JWTSecret:             v.GetString("JWT_SECRET"),
		SeatTicketTTLMinutes:  v.GetInt("SEAT_TICKET_TTL_MINUTES"),
	}
}

// TickInterval returns the per-match tick period.
func (c *Config) TickInterval() time.Duration {
	if c == nil || c.TickIntervalMs <= 0 {
		return 16 * time.Millisecond
	}
	return time.Duration(c.TickIntervalMs) * time.Millisecond
}

// SeatTicketTTL returns how long an issued seat ticket stays valid.
func (c *Config) SeatTicketTTL() time.Duration {
	if c == nil || c.SeatTicketTTLMinutes <= 0 {
		return 2 * time.Hour
	}
	return time.Duration(c.SeatTicketTTLMinutes) * time.Minute
}
