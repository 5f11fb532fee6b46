// Stagewatch - HTTP Security Event Detection and Classification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stagewatch

// Package patterns holds the immutable signature registries the inspector
// matches untrusted input against: URL/query threat signatures, form-field
// XSS and SQL-injection grammars, and the User-Agent classification tiers.
//
// A Registry is compiled once at process start and is safe for
// unsynchronized concurrent reads; nothing in this package mutates state
// after construction. All matchers are total functions: any input, however
// malformed or oversized, yields a result and never a panic.
package patterns

import (
	"regexp"
	"strings"
)

// signature pairs a label with a compiled matcher. The label names the
// signature in event detail; it is not the event category.
type signature struct {
	label string
	re    *regexp.Regexp
}

// Options tunes registry construction. Zero value gives the built-in
// signature sets and the default health-path exemptions.
type Options struct {
	// ExtraAllowlist appends tokens to the legitimate User-Agent allowlist.
	ExtraAllowlist []string

	// ExtraScannerList appends tokens to the security-tooling denylist.
	ExtraScannerList []string

	// ExtraAutomationList appends tokens to the generic-automation denylist.
	ExtraAutomationList []string

	// HealthPaths replaces the default health/readiness exemption set when
	// non-empty. Missing User-Agent classification is suppressed on these
	// paths.
	HealthPaths []string
}

// Registry is the immutable set of compiled matchers.
type Registry struct {
	urlSignatures  []signature
	xssSignatures  []signature
	sqliSignatures []signature

	uaAllowlist      []string
	uaScannerList    []string
	uaAutomationList []string

	healthPaths map[string]struct{}
}

// New builds a registry with the built-in signature sets.
func New() *Registry {
	return NewWithOptions(Options{})
}

// NewWithOptions builds a registry with the built-in sets plus the given
// extensions.
func NewWithOptions(opts Options) *Registry {
	r := &Registry{
		urlSignatures:    compile(urlThreatPatterns),
		xssSignatures:    compile(xssPatterns),
		sqliSignatures:   compile(sqliPatterns),
		uaAllowlist:      lowerAll(append(append([]string{}, uaAllowlist...), opts.ExtraAllowlist...)),
		uaScannerList:    lowerAll(append(append([]string{}, uaScannerList...), opts.ExtraScannerList...)),
		uaAutomationList: lowerAll(append(append([]string{}, uaAutomationList...), opts.ExtraAutomationList...)),
		healthPaths:      make(map[string]struct{}),
	}

	paths := opts.HealthPaths
	if len(paths) == 0 {
		paths = defaultHealthPaths
	}
	for _, p := range paths {
		r.healthPaths[p] = struct{}{}
	}

	return r
}

// compile turns raw pattern definitions into compiled signatures.
// Patterns are authored in this package and must compile; a bad pattern is
// a programming error caught by the package tests.
func compile(defs []patternDef) []signature {
	sigs := make([]signature, 0, len(defs))
	for _, d := range defs {
		sigs = append(sigs, signature{
			label: d.label,
			re:    regexp.MustCompile("(?i)" + d.pattern),
		})
	}
	return sigs
}

// patternDef is a raw signature definition before compilation.
type patternDef struct {
	label   string
	pattern string
}

func lowerAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.ToLower(v)
	}
	return out
}

// defaultHealthPaths are exempt from missing User-Agent classification:
// infrastructure probes legitimately send no header.
var defaultHealthPaths = []string{
	"/health",
	"/healthz",
	"/ready",
	"/readyz",
	"/livez",
	"/ping",
}
