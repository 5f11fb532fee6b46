// Stagewatch - HTTP Security Event Detection and Classification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stagewatch

package patterns

// BodyThreatCategory tags which grammar a form-field value matched.
type BodyThreatCategory string

const (
	BodyThreatXSS          BodyThreatCategory = "xss"
	BodyThreatSQLInjection BodyThreatCategory = "sql_injection"
)

// BodyMatch is one grammar hit on a form-field value. A single value can hit
// both grammars and yields one match per grammar.
type BodyMatch struct {
	Category BodyThreatCategory
	Label    string
}

// xssPatterns cover markup and script vectors in form-field values.
var xssPatterns = []patternDef{
	{"script_tag", `<script[^>]*>`},
	{"script_scheme", `javascript:`},
	{"script_scheme", `vbscript:`},
	{"event_handler", `on(load|error|click|mouseover|focus|blur)\s*=`},
	{"eval_call", `eval\s*\(`},
	{"iframe_tag", `<iframe`},
	{"img_src_vector", `<img[^>]+src`},
	{"document_cookie", `document\.cookie`},
	{"alert_call", `alert\s*\(`},
}

// sqliPatterns cover SQL injection idioms in form-field values.
var sqliPatterns = []patternDef{
	{"union_select", `union(\s+all)?\s+select`},
	{"drop_table", `drop\s+table`},
	{"delete_from", `delete\s+from`},
	{"insert_into", `insert\s+into`},
	{"comment_terminator", `'\s*;?\s*--`},
	{"tautology", `or\s+1\s*=\s*1`},
	{"quoted_or", `'\s*or\s*'`},
	{"stacked_exec", `;\s*exec\b`},
	{"xp_cmdshell", `xp_cmdshell`},
}

// MatchBodyThreat runs a form-field value through both grammars and returns
// every grammar that fired, at most one match per grammar. The empty slice
// means clean.
func (r *Registry) MatchBodyThreat(value string) []BodyMatch {
	var matches []BodyMatch
	if ok, label := firstMatch(r.xssSignatures, value); ok {
		matches = append(matches, BodyMatch{Category: BodyThreatXSS, Label: label})
	}
	if ok, label := firstMatch(r.sqliSignatures, value); ok {
		matches = append(matches, BodyMatch{Category: BodyThreatSQLInjection, Label: label})
	}
	return matches
}

func firstMatch(sigs []signature, value string) (bool, string) {
	for _, sig := range sigs {
		if sig.re.MatchString(value) {
			return true, sig.label
		}
	}
	return false, ""
}
