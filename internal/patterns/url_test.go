// Stagewatch - HTTP Security Event Detection and Classification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stagewatch

package patterns

import (
	"strings"
	"testing"
)

func TestMatchURLThreat(t *testing.T) {
	r := New()

	tests := []struct {
		name      string
		path      string
		query     string
		want      bool
		wantLabel string
	}{
		{"clean path", "/api/songs", "page=2", false, ""},
		{"clean root", "/", "", false, ""},
		{"path traversal", "/files/../etc/passwd", "", true, "path_traversal"},
		{"backslash traversal", `/files/..\windows\system32`, "", true, "path_traversal"},
		{"encoded traversal", "/files/%2e%2e%2fetc", "", true, "path_traversal_encoded"},
		{"script tag in query", "/search", "q=<script>alert(1)</script>", true, "script_injection"},
		{"javascript scheme", "/redirect", "url=javascript:alert(1)", true, "script_injection"},
		{"event handler", "/page", "v=x onerror=alert(1)", true, "script_injection"},
		{"union select", "/songs", "id=1 UNION SELECT password FROM users", true, "sql_injection"},
		{"drop table", "/songs", "name=x'; DROP TABLE songs; --", true, "sql_injection"},
		{"tautology", "/login", "user=admin' OR 1=1", true, "sql_injection"},
		{"xp_cmdshell", "/exec", "cmd=xp_cmdshell 'dir'", true, "sql_injection"},
		{"case insensitive", "/search", "q=<SCRIPT>", true, "script_injection"},
		{"legit two dots", "/songs/v1..2/diff", "", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matched, label := r.MatchURLThreat(tt.path, tt.query)
			if matched != tt.want {
				t.Fatalf("MatchURLThreat(%q, %q) matched = %v, want %v", tt.path, tt.query, matched, tt.want)
			}
			if tt.want && label != tt.wantLabel {
				t.Errorf("label = %q, want %q", label, tt.wantLabel)
			}
		})
	}
}

func TestMatchURLThreatIsTotal(t *testing.T) {
	r := New()

	// Arbitrary garbage must yield a result, never a panic.
	inputs := []string{
		"",
		string([]byte{0x00, 0xff, 0xfe, 0x01}),
		strings.Repeat("A", 1<<16),
		strings.Repeat("%", 4096),
		"\xc3\x28", // invalid UTF-8
	}

	for _, in := range inputs {
		matched, _ := r.MatchURLThreat(in, in)
		_ = matched
	}
}

func TestMatchURLThreatDeterministic(t *testing.T) {
	r := New()
	path, query := "/files/../etc/passwd", "q=<script>"

	m1, l1 := r.MatchURLThreat(path, query)
	m2, l2 := r.MatchURLThreat(path, query)

	if m1 != m2 || l1 != l2 {
		t.Errorf("matching is not deterministic: (%v,%q) vs (%v,%q)", m1, l1, m2, l2)
	}
}

func TestPathAndQueryCheckedIndependently(t *testing.T) {
	r := New()

	// "union" in path and "select" in query must not combine into a match.
	matched, _ := r.MatchURLThreat("/union", "mode=select")
	if matched {
		t.Error("signature must not match across the path/query boundary")
	}
}
