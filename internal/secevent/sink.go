// Stagewatch - HTTP Security Event Detection and Classification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stagewatch

package secevent

import (
	"context"
	"time"
)

// DataAccess is a sensitive-area audit record. It is an audit trail entry,
// not a threat signal, and carries no severity.
type DataAccess struct {
	// UserID is the authenticated principal that accessed the area.
	UserID string `json:"user_id"`

	// Area is the matched sensitive-area tag (e.g. "/admin").
	Area string `json:"area"`

	// Path is the full request path.
	Path string `json:"path"`

	// Method is the HTTP method.
	Method string `json:"method"`

	// StatusCode is the response status; zero if the response never
	// completed (downstream panic).
	StatusCode int `json:"status_code,omitempty"`

	// ClientIP is the resolved client address.
	ClientIP string `json:"client_ip,omitempty"`

	// Timestamp is the capture time.
	Timestamp time.Time `json:"timestamp"`
}

// Sink consumes emitted events. Retention, deduplication, and alerting are
// sink-owned concerns; the pipeline constructs an event, hands it over, and
// forgets it.
//
// Implementations must be safe for concurrent use: the inspector calls into
// the sink from every in-flight request. A sink error is telemetry loss, not
// a request failure; callers log and continue.
type Sink interface {
	// OnSuspiciousActivity records a threat-signal event.
	OnSuspiciousActivity(ctx context.Context, event *Event) error

	// LogDataAccess records a sensitive-area audit trail entry,
	// independent of threat severity.
	LogDataAccess(ctx context.Context, access *DataAccess) error
}
