// Stagewatch - HTTP Security Event Detection and Classification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stagewatch

// Package secevent defines the security event model and the sink contract
// the inspector emits into. Events are passive telemetry: constructing or
// emitting one never alters the HTTP exchange it describes.
package secevent

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Severity is the alerting priority of an event. The set is closed: there is
// no tier above High.
type Severity string

const (
	SeverityLow    Severity = "Low"
	SeverityMedium Severity = "Medium"
	SeverityHigh   Severity = "High"
)

// rank orders severities for comparisons and filtering.
var rank = map[Severity]int{
	SeverityLow:    0,
	SeverityMedium: 1,
	SeverityHigh:   2,
}

// AtLeast reports whether s is at least as severe as other.
func (s Severity) AtLeast(other Severity) bool {
	return rank[s] >= rank[other]
}

// Valid reports whether s is a member of the closed severity set.
func (s Severity) Valid() bool {
	_, ok := rank[s]
	return ok
}

// Category identifies the detector that fired.
type Category string

const (
	CategoryMaliciousURLPattern    Category = "MaliciousUrlPattern"
	CategorySecurityScannerUA      Category = "SecurityScannerUserAgent"
	CategorySuspiciousAutomationUA Category = "SuspiciousAutomationUserAgent"
	CategoryMissingUserAgent       Category = "MissingUserAgent"
	CategoryXSSPattern             Category = "XSSPatternDetection"
	CategorySQLInjectionPattern    Category = "SQLInjectionPatternDetection"
	CategorySecurityException      Category = "SecurityException"
	CategorySlowRequest            Category = "SlowRequest"
	CategorySensitiveAreaAccess    Category = "SensitiveAreaAccess"
)

// Event is the unit of output of the detection pipeline.
type Event struct {
	// ID is a unique identifier assigned at construction.
	ID string `json:"id"`

	// Category identifies the detector that fired.
	Category Category `json:"category"`

	// Severity is the alerting priority.
	Severity Severity `json:"severity"`

	// Detail describes what matched: pattern name, offending field,
	// elapsed duration, and similar.
	Detail string `json:"detail"`

	// MatchedValue is the offending input, when it is safe to carry.
	MatchedValue string `json:"matched_value,omitempty"`

	// Captured request context.
	RequestPath string `json:"request_path"`
	HTTPMethod  string `json:"http_method"`
	ClientIP    string `json:"client_ip"`
	UserAgent   string `json:"user_agent,omitempty"`

	// UserID is present only when the request carries an authenticated
	// principal.
	UserID string `json:"user_id,omitempty"`

	// Timestamp is the capture time, not the request start time.
	Timestamp time.Time `json:"timestamp"`
}

// RequestContext is the request-scoped data needed to build events after the
// original *http.Request is no longer safe to touch (the body scanner runs
// against pre-captured context for exactly this reason).
type RequestContext struct {
	Path      string
	Method    string
	ClientIP  string
	UserAgent string
	UserID    string
}

// CaptureRequest snapshots the event-relevant parts of a request.
func CaptureRequest(r *http.Request) RequestContext {
	return RequestContext{
		Path:      r.URL.Path,
		Method:    r.Method,
		ClientIP:  ClientIP(r),
		UserAgent: r.UserAgent(),
	}
}

// New constructs an event from captured request context. The timestamp is
// taken at call time to avoid clock skew in duration-dependent events.
func New(rc RequestContext, category Category, severity Severity, detail, matched string) *Event {
	return &Event{
		ID:           uuid.New().String(),
		Category:     category,
		Severity:     severity,
		Detail:       detail,
		MatchedValue: matched,
		RequestPath:  rc.Path,
		HTTPMethod:   rc.Method,
		ClientIP:     rc.ClientIP,
		UserAgent:    rc.UserAgent,
		UserID:       rc.UserID,
		Timestamp:    time.Now().UTC(),
	}
}

// Serialize encodes the event as JSON.
func (e *Event) Serialize() ([]byte, error) {
	return json.Marshal(e)
}

// ClientIP resolves the client address, preferring X-Forwarded-For (first
// entry) and X-Real-IP over the raw socket address to support reverse-proxy
// deployments.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first := xff
		if idx := strings.IndexByte(xff, ','); idx >= 0 {
			first = xff[:idx]
		}
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
