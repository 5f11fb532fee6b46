// Stagewatch - HTTP Security Event Detection and Classification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stagewatch

// Package sink provides SecurityEventSink implementations: structured log
// output, webhook delivery, NATS JetStream publishing, Prometheus counting,
// fan-out composition, and a bounded async decorator that isolates the
// request path from slow consumers.
package sink

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/tomtom215/stagewatch/internal/logging"
	"github.com/tomtom215/stagewatch/internal/secevent"
)

// LogSink writes events to the structured log. It is the always-on sink:
// even deployments with no external alerting keep a forensic trail in the
// log stream.
type LogSink struct {
	logger zerolog.Logger
}

// NewLogSink creates a log sink on the global logger.
func NewLogSink() *LogSink {
	return &LogSink{logger: logging.With().Str("component", "security").Logger()}
}

// NewLogSinkWithLogger creates a log sink with a custom logger.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewLogSinkWithLogger(logger zerolog.Logger) *LogSink {
	return &LogSink{logger: logger.With().Str("component", "security").Logger()}
}

// OnSuspiciousActivity implements secevent.Sink.
func (s *LogSink) OnSuspiciousActivity(ctx context.Context, event *secevent.Event) error {
	var e *zerolog.Event
	switch event.Severity {
	case secevent.SeverityHigh, secevent.SeverityMedium:
		e = s.logger.Warn()
	default:
		e = s.logger.Info()
	}

	e = e.Str("event_id", event.ID).
		Str("category", string(event.Category)).
		Str("severity", string(event.Severity)).
		Str("detail", event.Detail).
		Str("path", event.RequestPath).
		Str("method", event.HTTPMethod).
		Str("ip", event.ClientIP)

	if event.UserAgent != "" {
		e = e.Str("user_agent", truncate(event.UserAgent, 100))
	}
	if event.UserID != "" {
		e = e.Str("user_id", event.UserID)
	}
	if event.MatchedValue != "" {
		e = e.Str("matched_value", truncate(event.MatchedValue, 200))
	}
	if id := logging.RequestIDFromContext(ctx); id != "" {
		e = e.Str("request_id", id)
	}

	e.Msg("suspicious activity")
	return nil
}

// LogDataAccess implements secevent.Sink.
func (s *LogSink) LogDataAccess(ctx context.Context, access *secevent.DataAccess) error {
	e := s.logger.Info().
		Str("user_id", access.UserID).
		Str("area", access.Area).
		Str("path", access.Path).
		Str("method", access.Method)

	if access.StatusCode != 0 {
		e = e.Int("status", access.StatusCode)
	}
	if access.ClientIP != "" {
		e = e.Str("ip", access.ClientIP)
	}
	if id := logging.RequestIDFromContext(ctx); id != "" {
		e = e.Str("request_id", id)
	}

	e.Msg("sensitive area access")
	return nil
}

// truncate limits a string to maxLen runes of log output.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
