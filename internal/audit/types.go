// Stagewatch - HTTP Security Event Detection and Classification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stagewatch

// Package audit persists the pipeline's output for forensic queries: threat
// events and sensitive-area access records, written asynchronously with
// retention cleanup. Persistence here is one sink among several; the
// inspector itself never depends on this package.
package audit

import (
	"context"
	"time"
)

// Kind distinguishes the two record shapes the store holds.
type Kind string

const (
	// KindSecurityEvent is a threat-signal event.
	KindSecurityEvent Kind = "security_event"

	// KindDataAccess is a sensitive-area access audit record.
	KindDataAccess Kind = "data_access"
)

// Record is a persisted pipeline output.
type Record struct {
	// ID is a unique identifier.
	ID string `json:"id"`

	// Timestamp when the record was captured.
	Timestamp time.Time `json:"timestamp"`

	// Kind is the record shape.
	Kind Kind `json:"kind"`

	// Category of the firing detector; empty for data access records.
	Category string `json:"category,omitempty"`

	// Severity of the event; empty for data access records.
	Severity string `json:"severity,omitempty"`

	// Detail describes what matched or which area was accessed.
	Detail string `json:"detail,omitempty"`

	// MatchedValue is the offending input, when carried.
	MatchedValue string `json:"matched_value,omitempty"`

	// Area is the sensitive-area tag for data access records.
	Area string `json:"area,omitempty"`

	// Request context.
	Path       string `json:"path"`
	Method     string `json:"method"`
	ClientIP   string `json:"client_ip,omitempty"`
	UserAgent  string `json:"user_agent,omitempty"`
	UserID     string `json:"user_id,omitempty"`
	StatusCode int    `json:"status_code,omitempty"`

	// RequestID from the originating HTTP request.
	RequestID string `json:"request_id,omitempty"`
}

// QueryFilter selects records.
type QueryFilter struct {
	Kinds      []Kind     `json:"kinds,omitempty"`
	Categories []string   `json:"categories,omitempty"`
	Severities []string   `json:"severities,omitempty"`
	UserID     string     `json:"user_id,omitempty"`
	ClientIP   string     `json:"client_ip,omitempty"`
	Since      *time.Time `json:"since,omitempty"`
	Until      *time.Time `json:"until,omitempty"`
	Limit      int        `json:"limit,omitempty"`
	Offset     int        `json:"offset,omitempty"`
}

// Store is the persistence interface for audit records.
type Store interface {
	// Save persists a record.
	Save(ctx context.Context, record *Record) error

	// Query retrieves records matching the filter, most recent first.
	Query(ctx context.Context, filter QueryFilter) ([]Record, error)

	// Count returns the number of records matching the filter.
	Count(ctx context.Context, filter QueryFilter) (int64, error)

	// Delete removes records older than the cutoff and returns the count
	// removed.
	Delete(ctx context.Context, before time.Time) (int64, error)
}
