// Stagewatch - HTTP Security Event Detection and Classification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stagewatch

package patterns

import (
	"strings"
	"testing"
)

func TestMatchBodyThreat(t *testing.T) {
	r := New()

	tests := []struct {
		name     string
		value    string
		wantCats []BodyThreatCategory
	}{
		{"clean lyrics", "Amazing grace, how sweet the sound", nil},
		{"clean with apostrophe", "Don't stop believin'", nil},
		{"script tag", "<script>alert(1)</script>", []BodyThreatCategory{BodyThreatXSS}},
		{"event handler", `<img src=x onerror=alert(1)>`, []BodyThreatCategory{BodyThreatXSS}},
		{"javascript scheme", "javascript:void(0)", []BodyThreatCategory{BodyThreatXSS}},
		{"drop table", "'; DROP TABLE users; --", []BodyThreatCategory{BodyThreatSQLInjection}},
		{"union select", "1 UNION ALL SELECT * FROM songs", []BodyThreatCategory{BodyThreatSQLInjection}},
		{"tautology", "x' OR 1=1 --", []BodyThreatCategory{BodyThreatSQLInjection}},
		{"both grammars", `<script>eval("'; DROP TABLE x; --")</script>`, []BodyThreatCategory{BodyThreatXSS, BodyThreatSQLInjection}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matches := r.MatchBodyThreat(tt.value)
			if len(matches) != len(tt.wantCats) {
				t.Fatalf("got %d matches %v, want %d", len(matches), matches, len(tt.wantCats))
			}
			for i, want := range tt.wantCats {
				if matches[i].Category != want {
					t.Errorf("match %d category = %q, want %q", i, matches[i].Category, want)
				}
				if matches[i].Label == "" {
					t.Errorf("match %d has empty label", i)
				}
			}
		})
	}
}

func TestMatchBodyThreatAtMostOnePerGrammar(t *testing.T) {
	r := New()

	// Hits several XSS signatures but must report the grammar once.
	matches := r.MatchBodyThreat(`<script>document.cookie; eval(alert(1))</script>`)
	if len(matches) != 1 {
		t.Fatalf("expected exactly one match, got %v", matches)
	}
	if matches[0].Category != BodyThreatXSS {
		t.Errorf("unexpected category %q", matches[0].Category)
	}
}

func TestMatchBodyThreatIsTotal(t *testing.T) {
	r := New()

	inputs := []string{
		"",
		string([]byte{0x00, 0x01, 0xff}),
		strings.Repeat("x", 1<<18),
		"\xed\xa0\x80", // UTF-16 surrogate half
	}
	for _, in := range inputs {
		_ = r.MatchBodyThreat(in)
	}
}
