package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	ServiceName    = "pos-service"
	ServiceVersion = "0.1.0"
)

const (
	TracesPath    = "/v1/traces"
	LogsPath      = "/v1/logs"
	ExportTimeout = 30 * time.Second
	MaxQueueSize  = 2048
)

// Config holds everything the service reads from the environment.
type Config struct {
	AppEnv   string
	HTTPAddr string

	DBDriver string
	DBDSN    string

	RedisAddr     string
	RedisPassword string
	CacheTTL      time.Duration

	SessionTTL    time.Duration
	AdminUsername string
	AdminPassword string

	OtelEndpoint   string
	OtelAuthHeader string
}

// LoadEnv loads environment variables from .env.local if APP_ENV is "local"
func LoadEnv() {
	appEnv := os.Getenv("APP_ENV")
	if appEnv == "" {
		appEnv = "development"
		os.Setenv("APP_ENV", appEnv)
	}

	if appEnv == "local" {
		err := godotenv.Load(".env.local")
		if err != nil {
			log.Printf("Warning: .env.local file not found, or error loading: %v. Relying on system environment variables.", err)
		} else {
			log.Println("Loaded .env.local for local development.")
		}
	}
}

// LoadConfig reads the configuration from the environment, applying defaults
// for everything a single-terminal install can live without.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:         getenv("APP_ENV", "development"),
		HTTPAddr:       getenv("HTTP_ADDR", ":8081"),
		DBDriver:       getenv("DB_DRIVER", "sqlite"),
		DBDSN:          getenv("DB_DSN", "pos_system.db"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		AdminUsername:  getenv("ADMIN_USERNAME", "admin"),
		AdminPassword:  getenv("ADMIN_PASSWORD", "admin123"),
		OtelEndpoint:   os.Getenv("OTEL_ENDPOINT"),
		OtelAuthHeader: os.Getenv("OTEL_AUTH_HEADER"),
	}

	var err error
	if cfg.CacheTTL, err = getDuration("CACHE_TTL", time.Minute); err != nil {
		return nil, err
	}
	if cfg.SessionTTL, err = getDuration("SESSION_TTL", 8*time.Hour); err != nil {
		return nil, err
	}

	switch cfg.DBDriver {
	case "sqlite", "postgres":
	default:
		return nil, fmt.Errorf("DB_DRIVER must be sqlite or postgres, got %q", cfg.DBDriver)
	}
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN environment variable is required")
	}
	if cfg.AdminPassword == "" {
		return nil, fmt.Errorf("ADMIN_PASSWORD must not be empty")
	}

	return cfg, nil
}

// IsLocal reports whether the service runs on a developer machine.
func (c *Config) IsLocal() bool {
	return c.AppEnv == "local"
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d, nil
	}
	secs, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q", key, raw)
	}
	return time.Duration(secs) * time.Second, nil
}
