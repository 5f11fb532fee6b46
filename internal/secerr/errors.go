// Stagewatch - HTTP Security Event Detection and Classification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stagewatch

// Package secerr defines the closed set of security-relevant error kinds the
// inspector recognizes in downstream failures. Classification is explicit
// (errors.As/errors.Is over named types), never reflective, and is purely
// observational: the inspector logs a matching error and propagates it
// unchanged.
package secerr

import (
	"errors"
	"fmt"
)

// ErrUnauthorizedAccess signals an access attempt the downstream handler
// refused. Matching is by errors.Is, so handlers may wrap it with context.
var ErrUnauthorizedAccess = errors.New("unauthorized access")

// SecurityError is a downstream failure the handler itself flagged as
// security-relevant (token tampering, signature mismatch, and the like).
type SecurityError struct {
	// Op names the operation that failed.
	Op string

	// Msg describes the failure.
	Msg string

	// Err is the wrapped cause, if any.
	Err error
}

// NewSecurityError creates a SecurityError for the given operation.
func NewSecurityError(op, msg string) *SecurityError {
	return &SecurityError{Op: op, Msg: msg}
}

func (e *SecurityError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("security error: %s: %s", e.Op, e.Msg)
	}
	return "security error: " + e.Msg
}

func (e *SecurityError) Unwrap() error {
	return e.Err
}

// InvalidOperationError signals a state-machine violation: an operation that
// is never legal from the current state, which in a request handler usually
// means the caller is probing. Treated as security-relevant.
type InvalidOperationError struct {
	Msg string
}

func (e *InvalidOperationError) Error() string {
	return "invalid operation: " + e.Msg
}

// ArgumentError signals malformed caller input. Explicitly NOT
// security-relevant: bad arguments are everyday client error, not signal.
type ArgumentError struct {
	// Name is the offending argument.
	Name string

	// Msg describes what was wrong with it.
	Msg string
}

func (e *ArgumentError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("invalid argument %q: %s", e.Name, e.Msg)
	}
	return "invalid argument: " + e.Msg
}

// IsSecurityRelevant reports whether err belongs to the closed set of
// security-relevant kinds. ArgumentError and every unrecognized kind report
// false.
func IsSecurityRelevant(err error) bool {
	if err == nil {
		return false
	}

	var argErr *ArgumentError
	if errors.As(err, &argErr) {
		return false
	}

	var secErr *SecurityError
	if errors.As(err, &secErr) {
		return true
	}
	if errors.Is(err, ErrUnauthorizedAccess) {
		return true
	}
	var invOpErr *InvalidOperationError
	return errors.As(err, &invOpErr)
}

// ClassifyPanic inspects a recovered panic value. If the value is an error
// from the security-relevant set, it is returned with relevant=true so the
// caller can emit an event before re-panicking with the original value.
// Non-error panic values are never security-relevant.
func ClassifyPanic(v any) (err error, relevant bool) {
	e, ok := v.(error)
	if !ok {
		return nil, false
	}
	return e, IsSecurityRelevant(e)
}
