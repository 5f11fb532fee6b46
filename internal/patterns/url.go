// Stagewatch - HTTP Security Event Detection and Classification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stagewatch

package patterns

// urlThreatPatterns are matched against the decoded path and query of every
// request. Matching is deliberately a superset of real attacks: substring
// and shallow regex checks over attacker-controlled text, not semantic
// parsing. False positives are acceptable; non-determinism is not.
var urlThreatPatterns = []patternDef{
	// Path traversal, including URL-encoded variants that survive a single
	// decode pass.
	{"path_traversal", `\.\./`},
	{"path_traversal", `\.\.\\`},
	{"path_traversal_encoded", `%2e%2e%2f`},
	{"path_traversal_encoded", `%2e%2e/`},
	{"path_traversal_encoded", `\.\.%2f`},
	{"path_traversal_encoded", `%2e%2e%5c`},

	// Script injection markers.
	{"script_injection", `<script`},
	{"script_injection", `javascript:`},
	{"script_injection", `vbscript:`},
	{"script_injection", `onload\s*=`},
	{"script_injection", `onerror\s*=`},
	{"script_injection", `onclick\s*=`},
	{"script_injection", `eval\s*\(`},

	// SQL injection idioms.
	{"sql_injection", `union(\s+all)?\s+select`},
	{"sql_injection", `drop\s+table`},
	{"sql_injection", `'\s*;\s*--`},
	{"sql_injection", `or\s+1\s*=\s*1`},
	{"sql_injection", `;\s*exec\b`},
	{"sql_injection", `xp_cmdshell`},
}

// MatchURLThreat checks the decoded path and query against the URL threat
// signatures. It returns the label of the first matching signature.
// Path and query are checked independently so a signature split across the
// "?" boundary does not produce an accidental match.
func (r *Registry) MatchURLThreat(path, query string) (matched bool, label string) {
	for _, sig := range r.urlSignatures {
		if sig.re.MatchString(path) || sig.re.MatchString(query) {
			return true, sig.label
		}
	}
	return false, ""
}
