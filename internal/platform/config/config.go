// Package config builds runtime configuration from environment variables so
// main stays lean.
package config

import (
	"os"
	"strconv"
	"time"
)

// Backend selects the StateStore implementation.
type Backend string

const (
	BackendMemory   Backend = "memory"
	BackendFile     Backend = "fs"
	BackendRedis    Backend = "redis"
	BackendPostgres Backend = "postgres"
)

// Redis captures connection tuning for the Redis-backed store.
type Redis struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Config is the full runtime configuration of the service.
type Config struct {
	Addr           string
	DataDir        string
	StateDir       string
	StateBackend   Backend
	Redis          Redis
	PostgresDSN    string
	ApprovalWindow time.Duration
	CheckTimeout   time.Duration
	NarrativeURL   string
	JWTSigningKey  string
	AuthRequired   bool
	DefaultPatient string
}

// FromEnv builds a Config from CLEARPATH_* environment variables, applying
// development defaults for anything unset.
func FromEnv() Config {
	cfg := Config{
		Addr:           envOr("CLEARPATH_ADDR", ":8080"),
		DataDir:        envOr("CLEARPATH_DATA_DIR", "data"),
		StateDir:       envOr("CLEARPATH_STATE_DIR", "discharge_state"),
		StateBackend:   Backend(envOr("CLEARPATH_STATE_BACKEND", string(BackendFile))),
		PostgresDSN:    os.Getenv("CLEARPATH_POSTGRES_DSN"),
		ApprovalWindow: envDurationOr("CLEARPATH_APPROVAL_WINDOW", 6*time.Hour),
		CheckTimeout:   envDurationOr("CLEARPATH_CHECK_TIMEOUT", 30*time.Second),
		NarrativeURL:   os.Getenv("CLEARPATH_NARRATIVE_URL"),
		JWTSigningKey:  os.Getenv("CLEARPATH_JWT_SIGNING_KEY"),
		DefaultPatient: envOr("CLEARPATH_DEFAULT_PATIENT", "P00231"),
		Redis: Redis{
			URL:          os.Getenv("CLEARPATH_REDIS_URL"),
			PoolSize:     envIntOr("CLEARPATH_REDIS_POOL_SIZE", 10),
			MinIdleConns: envIntOr("CLEARPATH_REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDurationOr("CLEARPATH_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDurationOr("CLEARPATH_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDurationOr("CLEARPATH_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
	}
	// Auth is opt-in: handlers are open unless a signing key is configured.
	cfg.AuthRequired = cfg.JWTSigningKey != ""
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
