// Stagewatch - HTTP Security Event Detection and Classification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stagewatch

// Package config loads and validates the Stagewatch configuration from
// layered sources: built-in defaults, an optional YAML file, and environment
// variables, in ascending precedence.
package config

import (
	"time"
)

// Config is the root configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
	Inspector InspectorConfig `koanf:"inspector"`
	Webhook   WebhookConfig   `koanf:"webhook"`
	NATS      NATSConfig      `koanf:"nats"`
	Audit     AuditConfig     `koanf:"audit"`
	Security  SecurityConfig  `koanf:"security"`
	Sink      SinkConfig      `koanf:"sink"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Environment     string        `koanf:"environment"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// InspectorConfig holds detection pipeline settings.
type InspectorConfig struct {
	// SlowRequestThreshold is the elapsed time above which a SlowRequest
	// event fires.
	SlowRequestThreshold time.Duration `koanf:"slow_request_threshold"`

	// SensitivePrefixes are path prefixes audited on authenticated access.
	SensitivePrefixes []string `koanf:"sensitive_prefixes"`

	// ScanForms enables form body scanning.
	ScanForms bool `koanf:"scan_forms"`

	// MaxFormScanBytes caps how much body is buffered for scanning.
	MaxFormScanBytes int64 `koanf:"max_form_scan_bytes"`

	// HealthPaths replaces the default health/readiness exemption set when
	// non-empty.
	HealthPaths []string `koanf:"health_paths"`

	// Extra tokens appended to the built-in User-Agent lists.
	ExtraUAAllowlist  []string `koanf:"extra_ua_allowlist"`
	ExtraUAScanners   []string `koanf:"extra_ua_scanners"`
	ExtraUAAutomation []string `koanf:"extra_ua_automation"`
}

// WebhookConfig holds the webhook sink settings.
type WebhookConfig struct {
	Enabled       bool              `koanf:"enabled"`
	URL           string            `koanf:"url"`
	Headers       map[string]string `koanf:"headers"`
	RatePerSecond float64           `koanf:"rate_per_second"`
	Timeout       time.Duration     `koanf:"timeout"`
}

// NATSConfig holds the NATS sink settings.
type NATSConfig struct {
	Enabled        bool          `koanf:"enabled"`
	URL            string        `koanf:"url"`
	EventsTopic    string        `koanf:"events_topic"`
	AuditTopic     string        `koanf:"audit_topic"`
	MaxReconnects  int           `koanf:"max_reconnects"`
	ReconnectWait  time.Duration `koanf:"reconnect_wait"`
	ConnectTimeout time.Duration `koanf:"connect_timeout"`
}

// AuditConfig holds the audit persistence settings.
type AuditConfig struct {
	Enabled bool `koanf:"enabled"`

	// Store selects the backend: "memory" or "duckdb".
	Store string `koanf:"store"`

	// DatabasePath is the DuckDB file path for the duckdb store.
	DatabasePath string `koanf:"database_path"`

	RetentionDays   int           `koanf:"retention_days"`
	CleanupInterval time.Duration `koanf:"cleanup_interval"`
	BufferSize      int           `koanf:"buffer_size"`

	// MemoryMaxRecords bounds the memory store.
	MemoryMaxRecords int `koanf:"memory_max_records"`
}

// SecurityConfig holds settings for the security collaborators wired around
// the detector in the demo server: principal resolution, CORS, and rate
// limiting. None of these affect detection itself.
type SecurityConfig struct {
	// JWTSecret is the HS256 secret for the JWT principal resolver. Empty
	// disables JWT resolution; the context resolver still applies.
	JWTSecret string `koanf:"jwt_secret"`

	CORSOrigins []string `koanf:"cors_origins"`

	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// SinkConfig holds settings for the async sink decorator.
type SinkConfig struct {
	// BufferSize bounds the async sink queue. Full queue drops events.
	BufferSize int `koanf:"buffer_size"`
}

// defaultConfig returns a Config with all sensible default values. Defaults
// are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8642,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			Environment:     "development",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Inspector: InspectorConfig{
			SlowRequestThreshold: 10 * time.Second,
			SensitivePrefixes:    []string{"/admin", "/account", "/profile", "/settings", "/api/admin"},
			ScanForms:            true,
			MaxFormScanBytes:     1 << 20, // 1MiB
			HealthPaths:          nil,     // built-in defaults apply
		},
		Webhook: WebhookConfig{
			Enabled:       false,
			URL:           "",
			RatePerSecond: 10,
			Timeout:       5 * time.Second,
		},
		NATS: NATSConfig{
			Enabled:        false,
			URL:            "nats://127.0.0.1:4222",
			EventsTopic:    "security.events",
			AuditTopic:     "security.audit",
			MaxReconnects:  -1, // retry forever
			ReconnectWait:  2 * time.Second,
			ConnectTimeout: 5 * time.Second,
		},
		Audit: AuditConfig{
			Enabled:          true,
			Store:            "memory",
			DatabasePath:     "/data/stagewatch.duckdb",
			RetentionDays:    90,
			CleanupInterval:  24 * time.Hour,
			BufferSize:       1000,
			MemoryMaxRecords: 10000,
		},
		Security: SecurityConfig{
			JWTSecret:         "",
			CORSOrigins:       []string{"*"},
			RateLimitReqs:     100,
			RateLimitWindow:   1 * time.Minute,
			RateLimitDisabled: false,
		},
		Sink: SinkConfig{
			BufferSize: 1024,
		},
	}
}
