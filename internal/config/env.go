// Package config provides environment-based configuration helpers
// for go-binsight commands.
package config

import (
	"os"
	"strconv"
	"time"
)

// Env returns the value of key or fallback if unset.
func Env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// EnvInt returns the integer value of key or fallback if unset or invalid.
func EnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

// EnvDuration returns the duration value of key or fallback if unset or invalid.
// Accepts Go duration syntax ("500ms", "10s").
func EnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// LogLevel returns the log level from BINSIGHT_LOG_LEVEL.
func LogLevel() string {
	return Env("BINSIGHT_LOG_LEVEL", "info")
}
