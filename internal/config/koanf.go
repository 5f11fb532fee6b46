// Stagewatch - HTTP Security Event Detection and Classification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stagewatch

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in
// order of priority. The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/stagewatch/config.yaml",
	"/etc/stagewatch/config.yml",
}

// ConfigPathEnvVar is the environment variable that overrides the config
// file path.
const ConfigPathEnvVar = "STAGEWATCH_CONFIG"

// envPrefix namespaces all Stagewatch environment variables.
const envPrefix = "STAGEWATCH_"

// Load loads configuration using Koanf v2 with layered sources:
//  1. Defaults: built-in sensible defaults
//  2. Config file: optional YAML file (if present)
//  3. Environment variables: override any setting (STAGEWATCH_ prefix)
//
// Precedence is ENV > file > defaults.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	configPath := findConfigFile()
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	envProvider := env.Provider(envPrefix, ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file, env var override first.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths are parsed as comma-separated
// slices when supplied through environment variables.
var sliceConfigPaths = []string{
	"inspector.sensitive_prefixes",
	"inspector.health_paths",
	"inspector.extra_ua_allowlist",
	"inspector.extra_ua_scanners",
	"inspector.extra_ua_automation",
	"security.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for
// known slice fields. Env vars arrive as strings but the config expects
// slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		// Already a slice (from YAML or defaults): nothing to do.
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}

		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envMappings maps STAGEWATCH_-prefixed environment variable names (prefix
// stripped, lowercased) to koanf config paths. Unmapped variables are
// ignored so unrelated environment noise never pollutes the config.
var envMappings = map[string]string{
	// Server
	"http_host":        "server.host",
	"http_port":        "server.port",
	"read_timeout":     "server.read_timeout",
	"write_timeout":    "server.write_timeout",
	"idle_timeout":     "server.idle_timeout",
	"shutdown_timeout": "server.shutdown_timeout",
	"environment":      "server.environment",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	// Inspector
	"slow_request_threshold": "inspector.slow_request_threshold",
	"sensitive_prefixes":     "inspector.sensitive_prefixes",
	"scan_forms":             "inspector.scan_forms",
	"max_form_scan_bytes":    "inspector.max_form_scan_bytes",
	"health_paths":           "inspector.health_paths",
	"extra_ua_allowlist":     "inspector.extra_ua_allowlist",
	"extra_ua_scanners":      "inspector.extra_ua_scanners",
	"extra_ua_automation":    "inspector.extra_ua_automation",

	// Webhook sink
	"webhook_enabled": "webhook.enabled",
	"webhook_url":     "webhook.url",
	"webhook_rate":    "webhook.rate_per_second",
	"webhook_timeout": "webhook.timeout",

	// NATS sink
	"nats_enabled":         "nats.enabled",
	"nats_url":             "nats.url",
	"nats_events_topic":    "nats.events_topic",
	"nats_audit_topic":     "nats.audit_topic",
	"nats_max_reconnects":  "nats.max_reconnects",
	"nats_reconnect_wait":  "nats.reconnect_wait",
	"nats_connect_timeout": "nats.connect_timeout",

	// Audit persistence
	"audit_enabled":          "audit.enabled",
	"audit_store":            "audit.store",
	"duckdb_path":            "audit.database_path",
	"audit_retention_days":   "audit.retention_days",
	"audit_cleanup_interval": "audit.cleanup_interval",
	"audit_buffer_size":      "audit.buffer_size",
	"audit_memory_max":       "audit.memory_max_records",

	// Security collaborators
	"jwt_secret":          "security.jwt_secret",
	"cors_origins":        "security.cors_origins",
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",

	// Async sink
	"sink_buffer_size": "sink.buffer_size",
}

// envTransformFunc maps a raw environment variable name to a koanf path.
// The provider has already matched the STAGEWATCH_ prefix; strip it, then
// consult the mapping table.
func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
	if mapped, ok := envMappings[key]; ok {
		return mapped
	}
	return ""
}

// WatchConfigFile sets up a file watcher for hot-reload. The caller is
// responsible for mutex protection when swapping configuration on reload.
func WatchConfigFile(path string, callback func()) error {
	provider := file.Provider(path)

	return provider.Watch(func(event interface{}, err error) {
		if err != nil {
			return
		}
		callback()
	})
}
