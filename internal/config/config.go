package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Application
	AppName string
	AppEnv  string
	Port    string

	// Database (optional driver switch via ENV, default: sqlite)
	DBDriver     string
	DBConnection string

	// Observability (optional)
	SentryDSN string

	// Import
	ImportRateLimit  int
	ImportRateWindow time.Duration

	// Snapshot storage (optional, S3-compatible: MinIO, AWS S3, Cloudflare R2, etc.)
	S3Region    string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string
	S3Endpoint  string

	// Board (public display client)
	BoardAPIURL       string
	BoardPollInterval time.Duration
}

func Load() *Config {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg := &Config{
		// Application
		AppName: envString("APP_NAME", "Matriculômetro"),
		AppEnv:  envRequired("APP_ENV"), // Required: 'development' or 'production'
		Port:    envString("PORT", "8090"),

		// Database
		DBDriver:     envString("DB_DRIVER", "sqlite"),
		DBConnection: envString("DB_CONNECTION", "./data/matriculometro.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"),

		// Observability
		SentryDSN: envString("SENTRY_DSN", ""),

		// Import
		ImportRateLimit:  envInt("IMPORT_RATE_LIMIT", 10),
		ImportRateWindow: envDuration("IMPORT_RATE_WINDOW", time.Minute),

		// Snapshot storage
		S3Region:    envString("S3_REGION", "us-east-1"),
		S3Bucket:    envString("S3_BUCKET", ""),
		S3AccessKey: envString("S3_ACCESS_KEY", ""),
		S3SecretKey: envString("S3_SECRET_KEY", ""),
		S3Endpoint:  envString("S3_ENDPOINT", ""),

		// Board
		BoardAPIURL:       envString("BOARD_API_URL", "http://localhost:8090"),
		BoardPollInterval: envDuration("BOARD_POLL_INTERVAL", 5*time.Second),
	}

	err = cfg.Validate()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	return cfg
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.AppEnv != "development" && c.AppEnv != "production" {
		return fmt.Errorf("invalid APP_ENV %q: must be development or production", c.AppEnv)
	}

	port, err := strconv.Atoi(c.Port)
	if err != nil {
		return fmt.Errorf("invalid port %q: must be a number", c.Port)
	}
	if port < 1 || port > 65535 {
		return fmt.Errorf("invalid port %d: must be between 1 and 65535", port)
	}

	if c.DBDriver != "sqlite" && c.DBDriver != "pgx" {
		return fmt.Errorf("invalid DB_DRIVER %q: must be sqlite or pgx", c.DBDriver)
	}
	if c.DBConnection == "" {
		return fmt.Errorf("DB_CONNECTION cannot be empty")
	}

	if c.ImportRateLimit < 1 {
		return fmt.Errorf("invalid IMPORT_RATE_LIMIT %d: must be positive", c.ImportRateLimit)
	}
	if c.ImportRateWindow <= 0 {
		return fmt.Errorf("invalid IMPORT_RATE_WINDOW %s: must be positive", c.ImportRateWindow)
	}

	if c.S3Bucket != "" && c.S3Region == "" {
		return fmt.Errorf("S3_REGION is required when S3_BUCKET is set")
	}

	u, err := url.Parse(c.BoardAPIURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid BOARD_API_URL %q", c.BoardAPIURL)
	}
	if c.BoardPollInterval < time.Second {
		return fmt.Errorf("invalid BOARD_POLL_INTERVAL %s: must be at least 1s", c.BoardPollInterval)
	}

	return nil
}

func envString(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		value = def
	}
	return value
}

func envInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("config invalid int, using default", "key", key, "value", v, "default", def)
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("config invalid duration, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}

func envRequired(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	slog.Error("config required env var missing", "key", key)
	os.Exit(1)
	return ""
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}
