// Stagewatch - HTTP Security Event Detection and Classification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stagewatch

package secevent

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		forwarded  string
		realIP     string
		remoteAddr string
		want       string
	}{
		{"XFF single entry", "203.0.113.7", "", "10.0.0.1:4321", "203.0.113.7"},
		{"XFF first of chain", "203.0.113.7, 10.0.0.2, 10.0.0.3", "", "10.0.0.1:4321", "203.0.113.7"},
		{"XFF with spaces", "  203.0.113.7 , 10.0.0.2", "", "10.0.0.1:4321", "203.0.113.7"},
		{"X-Real-IP fallback", "", "198.51.100.9", "10.0.0.1:4321", "198.51.100.9"},
		{"XFF preferred over X-Real-IP", "203.0.113.7", "198.51.100.9", "10.0.0.1:4321", "203.0.113.7"},
		{"socket address fallback", "", "", "192.0.2.5:9999", "192.0.2.5"},
		{"socket address without port", "", "", "192.0.2.5", "192.0.2.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/songs", nil)
			r.RemoteAddr = tt.remoteAddr
			if tt.forwarded != "" {
				r.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			if tt.realIP != "" {
				r.Header.Set("X-Real-IP", tt.realIP)
			}

			if got := ClientIP(r); got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewCapturesContext(t *testing.T) {
	r := httptest.NewRequest("POST", "/api/songs?x=1", nil)
	r.Header.Set("User-Agent", "sqlmap/1.6.12")
	r.RemoteAddr = "192.0.2.5:1234"

	rc := CaptureRequest(r)
	rc.UserID = "user-42"

	event := New(rc, CategorySecurityScannerUA, SeverityHigh, "scanner match", "sqlmap")

	if event.ID == "" {
		t.Error("expected non-empty event ID")
	}
	if event.Category != CategorySecurityScannerUA {
		t.Errorf("unexpected category %q", event.Category)
	}
	if event.RequestPath != "/api/songs" {
		t.Errorf("unexpected path %q", event.RequestPath)
	}
	if event.HTTPMethod != "POST" {
		t.Errorf("unexpected method %q", event.HTTPMethod)
	}
	if event.ClientIP != "192.0.2.5" {
		t.Errorf("unexpected client IP %q", event.ClientIP)
	}
	if event.UserID != "user-42" {
		t.Errorf("unexpected user ID %q", event.UserID)
	}
	if event.Timestamp.IsZero() {
		t.Error("expected timestamp to be set")
	}
}

func TestSeverityOrdering(t *testing.T) {
	if !SeverityHigh.AtLeast(SeverityMedium) {
		t.Error("High should be at least Medium")
	}
	if !SeverityMedium.AtLeast(SeverityLow) {
		t.Error("Medium should be at least Low")
	}
	if SeverityLow.AtLeast(SeverityMedium) {
		t.Error("Low should not be at least Medium")
	}
	if !SeverityLow.Valid() || !SeverityMedium.Valid() || !SeverityHigh.Valid() {
		t.Error("expected all tiers valid")
	}
	if Severity("Critical").Valid() {
		t.Error("Critical is not part of the closed severity set")
	}
}

func TestSerialize(t *testing.T) {
	event := New(RequestContext{Path: "/x", Method: "GET"}, CategorySlowRequest, SeverityMedium, "took 12s", "")
	data, err := event.Serialize()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(string(data), `"category":"SlowRequest"`) {
		t.Errorf("expected category in JSON, got %s", data)
	}
}
