// Package config loads querydeck configuration from environment variables,
// with an optional .env file for development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultBaseURL        = "http://localhost:8000"
	defaultRequestTimeout = 30 * time.Second
	defaultProbeInterval  = 15 * time.Second
	defaultLogPath        = "querydeck.log"
)

type Config struct {
	// BaseURL is the analytics backend endpoint, no trailing slash.
	BaseURL string
	// RequestTimeout bounds every gateway call.
	RequestTimeout time.Duration
	// ProbeInterval drives the background availability badge.
	ProbeInterval time.Duration
	// LogPath receives JSON logs; empty disables logging.
	LogPath string
	// Debug widens the log level.
	Debug bool
}

// Load reads the environment, after best-effort loading of .env.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		BaseURL:        strings.TrimRight(getEnv("QUERYDECK_API_URL", defaultBaseURL), "/"),
		RequestTimeout: getEnvDuration("QUERYDECK_REQUEST_TIMEOUT", defaultRequestTimeout),
		ProbeInterval:  getEnvDuration("QUERYDECK_PROBE_INTERVAL", defaultProbeInterval),
		LogPath:        getEnv("QUERYDECK_LOG", defaultLogPath),
		Debug:          getEnvBool("QUERYDECK_DEBUG", false),
	}
	if cfg.BaseURL == "" {
		return Config{}, fmt.Errorf("QUERYDECK_API_URL must not be empty")
	}
	if cfg.RequestTimeout <= 0 {
		return Config{}, fmt.Errorf("QUERYDECK_REQUEST_TIMEOUT must be positive, got %s", cfg.RequestTimeout)
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}
