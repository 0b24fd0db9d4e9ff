package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL string // TESTISPARK_DATABASE_URL (required)
	HTTPAddr    string // TESTISPARK_HTTP_ADDR (default ":8080")
	PublicURL   string // TESTISPARK_PUBLIC_URL (default "http://localhost:8080")
	JWTSecret   string // TESTISPARK_JWT_SECRET (required)
	NATSURL     string // TESTISPARK_NATS_URL (optional, empty = no events)

	GeminiAPIKey string // TESTISPARK_GEMINI_API_KEY (optional, empty = first-sentence summaries)
	GeminiModel  string // TESTISPARK_GEMINI_MODEL (default "gemini-2.5-flash")

	LemonSqueezySecret    string // TESTISPARK_LEMONSQUEEZY_SECRET (empty = webhook rejected)
	LemonSqueezyStore     string // TESTISPARK_LEMONSQUEEZY_STORE (default "testispark")
	LemonSqueezyVariantID string // TESTISPARK_LEMONSQUEEZY_VARIANT_ID (empty = checkout disabled)
	PaddleSecret          string // TESTISPARK_PADDLE_SECRET (empty = webhook rejected)

	// Backup settings
	SyncInterval   time.Duration // TESTISPARK_SYNC_INTERVAL (default 0 = disabled)
	SyncS3Bucket   string        // TESTISPARK_SYNC_S3_BUCKET (enables S3 when set)
	SyncS3Endpoint string        // TESTISPARK_SYNC_S3_ENDPOINT (custom endpoint for MinIO)
	SyncS3Region   string        // TESTISPARK_SYNC_S3_REGION (default "us-east-1")
	SyncS3Key      string        // TESTISPARK_SYNC_S3_KEY (default "testispark/backup.jsonl")
	SyncS3History  bool          // TESTISPARK_SYNC_S3_HISTORY (also keep dated copies)
	SyncGitRepo    string        // TESTISPARK_SYNC_GIT_REPO (enables git when set)
	SyncGitFile    string        // TESTISPARK_SYNC_GIT_FILE (default "testispark.jsonl")
	SyncGitBranch  string        // TESTISPARK_SYNC_GIT_BRANCH (default "main")

	LogLevel  slog.Level // TESTISPARK_LOG_LEVEL (default "info")
	LogFormat string     // TESTISPARK_LOG_FORMAT ("text" or "json", default "text")
}

// LoadDotEnv populates the environment from the given .env files (".env"
// when none are given). Missing files are not an error and variables that
// are already set are left alone.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

func Load() (*Config, error) {
	c := &Config{
		DatabaseURL:        os.Getenv("TESTISPARK_DATABASE_URL"),
		HTTPAddr:           envOrDefault("TESTISPARK_HTTP_ADDR", ":8080"),
		PublicURL:          strings.TrimRight(envOrDefault("TESTISPARK_PUBLIC_URL", "http://localhost:8080"), "/"),
		JWTSecret:          os.Getenv("TESTISPARK_JWT_SECRET"),
		NATSURL:            os.Getenv("TESTISPARK_NATS_URL"),
		GeminiAPIKey:       os.Getenv("TESTISPARK_GEMINI_API_KEY"),
		GeminiModel:        envOrDefault("TESTISPARK_GEMINI_MODEL", "gemini-2.5-flash"),
		LemonSqueezySecret: os.Getenv("TESTISPARK_LEMONSQUEEZY_SECRET"),
		LemonSqueezyStore:  envOrDefault("TESTISPARK_LEMONSQUEEZY_STORE", "testispark"),
		PaddleSecret:       os.Getenv("TESTISPARK_PADDLE_SECRET"),
		SyncS3Bucket:       os.Getenv("TESTISPARK_SYNC_S3_BUCKET"),
		SyncS3Endpoint:     os.Getenv("TESTISPARK_SYNC_S3_ENDPOINT"),
		SyncS3Region:       envOrDefault("TESTISPARK_SYNC_S3_REGION", "us-east-1"),
		SyncS3Key:          envOrDefault("TESTISPARK_SYNC_S3_KEY", "testispark/backup.jsonl"),
		SyncGitRepo:        os.Getenv("TESTISPARK_SYNC_GIT_REPO"),
		SyncGitFile:        envOrDefault("TESTISPARK_SYNC_GIT_FILE", "testispark.jsonl"),
		SyncGitBranch:      envOrDefault("TESTISPARK_SYNC_GIT_BRANCH", "main"),
		LogFormat:          strings.ToLower(envOrDefault("TESTISPARK_LOG_FORMAT", "text")),

		LemonSqueezyVariantID: os.Getenv("TESTISPARK_LEMONSQUEEZY_VARIANT_ID"),
	}
	if c.DatabaseURL == "" {
		return nil, fmt.Errorf("TESTISPARK_DATABASE_URL is required")
	}
	if c.JWTSecret == "" {
		return nil, fmt.Errorf("TESTISPARK_JWT_SECRET is required")
	}

	d, err := time.ParseDuration(envOrDefault("TESTISPARK_SYNC_INTERVAL", "0"))
	if err != nil {
		return nil, fmt.Errorf("TESTISPARK_SYNC_INTERVAL: %w", err)
	}
	c.SyncInterval = d

	if v := os.Getenv("TESTISPARK_SYNC_S3_HISTORY"); v != "" {
		if c.SyncS3History, err = strconv.ParseBool(v); err != nil {
			return nil, fmt.Errorf("TESTISPARK_SYNC_S3_HISTORY: %w", err)
		}
	}

	if err := c.LogLevel.UnmarshalText([]byte(envOrDefault("TESTISPARK_LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("TESTISPARK_LOG_LEVEL: %w", err)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return nil, fmt.Errorf("TESTISPARK_LOG_FORMAT: must be text or json, got %q", c.LogFormat)
	}

	return c, nil
}

// NewLogger builds the process logger described by the config.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.LogLevel}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
