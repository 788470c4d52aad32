// Package config loads and validates environment variables at startup.
// Fail-fast: if a required variable is missing, the process exits with an
// error. A local .env file is honoured when present.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration for the SmartHire backend.
type Config struct {
	Port        string
	DatabaseURL string
	RedisURL    string

	// AmqpURL is optional; when empty, notification events only go out over
	// Redis pub/sub and the mailer queue is skipped.
	AmqpURL string

	// R2/S3 resume storage. When unset, resume uploads are disabled and
	// apply requests are rejected with a validation error.
	R2AccountID string
	R2AccessKey string
	R2SecretKey string
	R2Bucket    string

	StatsIntervalMinutes int
}

// Load reads environment variables and returns a validated Config.
func Load() (*Config, error) {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	interval := 15
	if s := os.Getenv("STATS_INTERVAL_MINUTES"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 {
			return nil, fmt.Errorf("STATS_INTERVAL_MINUTES must be a positive integer, got %q", s)
		}
		interval = v
	}

	return &Config{
		Port:                 port,
		DatabaseURL:          dbURL,
		RedisURL:             redisURL,
		AmqpURL:              os.Getenv("AMQP_URL"),
		R2AccountID:          os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKey:          os.Getenv("R2_ACCESS_KEY"),
		R2SecretKey:          os.Getenv("R2_SECRET_KEY"),
		R2Bucket:             os.Getenv("R2_BUCKET"),
		StatsIntervalMinutes: interval,
	}, nil
}

// ResumeStorageConfigured reports whether all R2 settings are present.
func (c *Config) ResumeStorageConfigured() bool {
	return c.R2AccountID != "" && c.R2AccessKey != "" && c.R2SecretKey != "" && c.R2Bucket != ""
}
