// Stagewatch - HTTP Security Event Detection and Classification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stagewatch

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultsAreValid(t *testing.T) {
	cfg := defaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config failed validation: %v", err)
	}
	if cfg.Inspector.SlowRequestThreshold != 10*time.Second {
		t.Errorf("default slow request threshold = %s", cfg.Inspector.SlowRequestThreshold)
	}
	if !cfg.Inspector.ScanForms {
		t.Error("form scanning should default to enabled")
	}
}

func TestLoadLayering(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	yamlContent := `
server:
  port: 9000
inspector:
  slow_request_threshold: 3s
  sensitive_prefixes:
    - /admin
    - /billing
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv(ConfigPathEnvVar, configPath)
	t.Setenv("STAGEWATCH_HTTP_PORT", "9100") // env beats file
	t.Setenv("STAGEWATCH_LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Port != 9100 {
		t.Errorf("env override lost: port = %d", cfg.Server.Port)
	}
	if cfg.Inspector.SlowRequestThreshold != 3*time.Second {
		t.Errorf("file override lost: threshold = %s", cfg.Inspector.SlowRequestThreshold)
	}
	if len(cfg.Inspector.SensitivePrefixes) != 2 || cfg.Inspector.SensitivePrefixes[1] != "/billing" {
		t.Errorf("file slice lost: %v", cfg.Inspector.SensitivePrefixes)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("env log level lost: %s", cfg.Logging.Level)
	}
	// Untouched sections keep their defaults.
	if cfg.Audit.RetentionDays != 90 {
		t.Errorf("default retention lost: %d", cfg.Audit.RetentionDays)
	}
}

func TestEnvSliceParsing(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("STAGEWATCH_SENSITIVE_PREFIXES", "/admin, /internal,/api/admin")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := []string{"/admin", "/internal", "/api/admin"}
	if len(cfg.Inspector.SensitivePrefixes) != len(want) {
		t.Fatalf("prefixes = %v", cfg.Inspector.SensitivePrefixes)
	}
	for i, p := range want {
		if cfg.Inspector.SensitivePrefixes[i] != p {
			t.Errorf("prefix[%d] = %q, want %q", i, cfg.Inspector.SensitivePrefixes[i], p)
		}
	}
}

func TestUnmappedEnvVarsIgnored(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("STAGEWATCH_TOTALLY_UNKNOWN", "whatever")

	if _, err := Load(); err != nil {
		t.Fatalf("unknown env var broke load: %v", err)
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }},
		{"zero threshold", func(c *Config) { c.Inspector.SlowRequestThreshold = 0 }},
		{"relative prefix", func(c *Config) { c.Inspector.SensitivePrefixes = []string{"admin"} }},
		{"webhook enabled without url", func(c *Config) { c.Webhook.Enabled = true; c.Webhook.URL = "" }},
		{"webhook bad url", func(c *Config) { c.Webhook.Enabled = true; c.Webhook.URL = "not a url" }},
		{"nats enabled without url", func(c *Config) { c.NATS.Enabled = true; c.NATS.URL = "" }},
		{"bad audit store", func(c *Config) { c.Audit.Store = "postgres" }},
		{"duckdb without path", func(c *Config) { c.Audit.Store = "duckdb"; c.Audit.DatabasePath = "" }},
		{"zero sink buffer", func(c *Config) { c.Sink.BufferSize = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}
