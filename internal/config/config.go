// Package config contains everything related to configuration
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	// URL is the account-limits endpoint polled for snapshots.
	URL string
	// File, when set, reads snapshots from a local JSON file instead of HTTP.
	File string
	// Interval between automatic refreshes. Zero disables looping in
	// console mode; the interactive UI treats zero as "auto-refresh off".
	Interval time.Duration
	// Timeout bounds a single fetch.
	Timeout time.Duration
	// Debug enables verbose logging and raw-body display on decode errors.
	Debug bool
	// Notify enables desktop notifications on threshold crossings.
	Notify bool
	// LogFile receives log output while the full-screen UI owns the terminal.
	LogFile string
}

// Load reads configuration from .env files and environment variables.
// Command-line flags are applied on top by the caller.
func Load() (*Config, error) {
	// Try loading .env from multiple locations
	envPaths := getEnvPaths()
	for _, path := range envPaths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			break
		}
	}

	cfg := &Config{
		URL:      getEnvString(EnvURL, DefaultURL),
		File:     getEnvString(EnvFile, ""),
		Interval: getEnvDuration(EnvInterval, DefaultInterval),
		Timeout:  getEnvDuration(EnvTimeout, DefaultTimeout),
		Debug:    getEnvBool(EnvDebug, false),
		Notify:   getEnvBool(EnvNotify, true),
		LogFile:  getEnvString(EnvLogFile, ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks field values after env and flags have been applied.
func (c *Config) Validate() error {
	if c.File == "" {
		u, err := url.Parse(c.URL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid endpoint URL %q", c.URL)
		}
	}
	if c.Interval < 0 {
		return fmt.Errorf("refresh interval must not be negative, got %v", c.Interval)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("fetch timeout must be positive, got %v", c.Timeout)
	}
	return nil
}

// getEnvPaths returns a list of paths to check for .env files.
func getEnvPaths() []string {
	var paths []string

	// Current directory
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".env"))
	}

	// Home directory locations
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "quota-watch", ".env"))
	}

	// Parent directories (useful for development)
	if cwd, err := os.Getwd(); err == nil {
		parent := filepath.Dir(cwd)
		paths = append(paths, filepath.Join(parent, ".env"))
	}

	return paths
}

// DefaultLogPath returns the default log file location for the
// full-screen UI.
func DefaultLogPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "qwt.log"
	}
	return filepath.Join(home, ".config", "quota-watch", "qwt.log")
}

// getEnvString retrieves a string environment variable or returns the default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool retrieves a boolean environment variable or returns the default.
// Accepts the forms strconv.ParseBool does ("1", "true", "FALSE", ...).
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getEnvDuration retrieves a duration environment variable or returns the default.
// Accepts values like "30s", "1m", "500ms".
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		// Try parsing as seconds if no unit specified
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}

// ensureDir creates a directory and all parent directories if they don't exist.
func ensureDir(path string) error {
	if path == "" || path == "." {
		return nil
	}
	return os.MkdirAll(path, 0o750)
}

// EnsureLogDir creates the directory holding path so the log file can be
// opened. Best effort for the default location under the home directory.
func EnsureLogDir(path string) error {
	return ensureDir(filepath.Dir(path))
}
