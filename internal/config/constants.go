// Package config contains everything related to configuration
package config

import "time"

// Defaults shared by both front ends.
const (
	// DefaultURL is the account-limits endpoint polled when no override
	// is given.
	DefaultURL = "http://localhost:8040/account-limits"

	// DefaultInterval between automatic refreshes.
	DefaultInterval = 5 * time.Second

	// DefaultTimeout bounds a single fetch.
	DefaultTimeout = 10 * time.Second
)

// Environment variable names. Flags take precedence over these.
const (
	EnvURL      = "QWT_URL"
	EnvFile     = "QWT_FILE"
	EnvInterval = "QWT_INTERVAL"
	EnvTimeout  = "QWT_TIMEOUT"
	EnvDebug    = "QWT_DEBUG"
	EnvNotify   = "QWT_NOTIFY"
	EnvLogFile  = "QWT_LOG_FILE"
)
