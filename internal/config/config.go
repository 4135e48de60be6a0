// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Load(ctx) layers defaults, an optional YAML file, and env vars.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"context"

	"github.com/sweetshooter/study-progress-tracker/internal/domain/catalog"
)

// Store driver names accepted in StoreDriver.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// StoreDriver selects the remote store backend: postgres or memory.
	// The memory driver keeps the roster in-process and is meant for
	// local development.
	StoreDriver string `koanf:"store_driver"`

	// StoreDSN is the connection string for the postgres driver.
	StoreDSN string `koanf:"store_dsn"`

	// WriteQueueSize bounds the queue of pending remote field writes.
	WriteQueueSize int `koanf:"write_queue_size"`

	// Subjects optionally replaces the built-in subject catalog.
	Subjects []catalog.Subject `koanf:"subjects"`
}

// New creates a Config populated with defaults. Context is accepted first to
// satisfy the project-wide convention; it is reserved for future use.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:       "info",
		Addr:           ":9080",
		StoreDriver:    DriverMemory,
		WriteQueueSize: 1024,
	}
}
