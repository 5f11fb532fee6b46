// Stagewatch - HTTP Security Event Detection and Classification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stagewatch

package audit

import (
	"context"

	"github.com/tomtom215/stagewatch/internal/logging"
	"github.com/tomtom215/stagewatch/internal/secevent"
)

// Sink adapts the audit logger to the secevent.Sink contract so persistence
// composes with the other sinks.
type Sink struct {
	logger *Logger
}

// NewSink creates a persistence sink over the audit logger.
func NewSink(logger *Logger) *Sink {
	return &Sink{logger: logger}
}

// OnSuspiciousActivity implements secevent.Sink.
func (s *Sink) OnSuspiciousActivity(ctx context.Context, event *secevent.Event) error {
	s.logger.Log(&Record{
		ID:           event.ID,
		Timestamp:    event.Timestamp,
		Kind:         KindSecurityEvent,
		Category:     string(event.Category),
		Severity:     string(event.Severity),
		Detail:       event.Detail,
		MatchedValue: event.MatchedValue,
		Path:         event.RequestPath,
		Method:       event.HTTPMethod,
		ClientIP:     event.ClientIP,
		UserAgent:    event.UserAgent,
		UserID:       event.UserID,
		RequestID:    logging.RequestIDFromContext(ctx),
	})
	return nil
}

// LogDataAccess implements secevent.Sink.
func (s *Sink) LogDataAccess(ctx context.Context, access *secevent.DataAccess) error {
	s.logger.Log(&Record{
		Timestamp:  access.Timestamp,
		Kind:       KindDataAccess,
		Category:   string(secevent.CategorySensitiveAreaAccess),
		Area:       access.Area,
		Detail:     "sensitive area access: " + access.Area,
		Path:       access.Path,
		Method:     access.Method,
		ClientIP:   access.ClientIP,
		UserID:     access.UserID,
		StatusCode: access.StatusCode,
		RequestID:  logging.RequestIDFromContext(ctx),
	})
	return nil
}
