// Stagewatch - HTTP Security Event Detection and Classification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stagewatch

package config

import (
	"fmt"
	"net/url"
	"strings"
)

// validLogLevels are the accepted logging levels.
var validLogLevels = map[string]struct{}{
	"trace": {}, "debug": {}, "info": {}, "warn": {}, "error": {}, "fatal": {},
}

// validAuditStores are the accepted audit backends.
var validAuditStores = map[string]struct{}{
	"memory": {}, "duckdb": {},
}

// Validate checks the configuration for invalid or inconsistent values.
// Returns the first problem found.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateInspector(); err != nil {
		return err
	}
	if err := c.validateWebhook(); err != nil {
		return err
	}
	if err := c.validateNATS(); err != nil {
		return err
	}
	if err := c.validateAudit(); err != nil {
		return err
	}
	return c.validateSink()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server.read_timeout must be positive, got %s", c.Server.ReadTimeout)
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server.write_timeout must be positive, got %s", c.Server.WriteTimeout)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be positive, got %s", c.Server.ShutdownTimeout)
	}
	return nil
}

func (c *Config) validateLogging() error {
	if _, ok := validLogLevels[strings.ToLower(c.Logging.Level)]; !ok {
		return fmt.Errorf("logging.level %q is not a valid level", c.Logging.Level)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

func (c *Config) validateInspector() error {
	if c.Inspector.SlowRequestThreshold <= 0 {
		return fmt.Errorf("inspector.slow_request_threshold must be positive, got %s",
			c.Inspector.SlowRequestThreshold)
	}
	if c.Inspector.MaxFormScanBytes <= 0 {
		return fmt.Errorf("inspector.max_form_scan_bytes must be positive, got %d",
			c.Inspector.MaxFormScanBytes)
	}
	for _, prefix := range c.Inspector.SensitivePrefixes {
		if !strings.HasPrefix(prefix, "/") {
			return fmt.Errorf("inspector.sensitive_prefixes entry %q must start with /", prefix)
		}
	}
	for _, path := range c.Inspector.HealthPaths {
		if !strings.HasPrefix(path, "/") {
			return fmt.Errorf("inspector.health_paths entry %q must start with /", path)
		}
	}
	return nil
}

func (c *Config) validateWebhook() error {
	if !c.Webhook.Enabled {
		return nil
	}
	if c.Webhook.URL == "" {
		return fmt.Errorf("webhook.url is required when webhook.enabled is true")
	}
	u, err := url.Parse(c.Webhook.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("webhook.url %q is not a valid http(s) URL", c.Webhook.URL)
	}
	if c.Webhook.RatePerSecond <= 0 {
		return fmt.Errorf("webhook.rate_per_second must be positive, got %v", c.Webhook.RatePerSecond)
	}
	if c.Webhook.Timeout <= 0 {
		return fmt.Errorf("webhook.timeout must be positive, got %s", c.Webhook.Timeout)
	}
	return nil
}

func (c *Config) validateNATS() error {
	if !c.NATS.Enabled {
		return nil
	}
	if c.NATS.URL == "" {
		return fmt.Errorf("nats.url is required when nats.enabled is true")
	}
	if c.NATS.EventsTopic == "" || c.NATS.AuditTopic == "" {
		return fmt.Errorf("nats.events_topic and nats.audit_topic must not be empty")
	}
	return nil
}

func (c *Config) validateAudit() error {
	if !c.Audit.Enabled {
		return nil
	}
	if _, ok := validAuditStores[c.Audit.Store]; !ok {
		return fmt.Errorf("audit.store must be memory or duckdb, got %q", c.Audit.Store)
	}
	if c.Audit.Store == "duckdb" && c.Audit.DatabasePath == "" {
		return fmt.Errorf("audit.database_path is required for the duckdb store")
	}
	if c.Audit.RetentionDays <= 0 {
		return fmt.Errorf("audit.retention_days must be positive, got %d", c.Audit.RetentionDays)
	}
	if c.Audit.BufferSize <= 0 {
		return fmt.Errorf("audit.buffer_size must be positive, got %d", c.Audit.BufferSize)
	}
	return nil
}

func (c *Config) validateSink() error {
	if c.Sink.BufferSize <= 0 {
		return fmt.Errorf("sink.buffer_size must be positive, got %d", c.Sink.BufferSize)
	}
	return nil
}
