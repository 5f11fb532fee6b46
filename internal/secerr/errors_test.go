// Stagewatch - HTTP Security Event Detection and Classification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stagewatch

package secerr

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsSecurityRelevant(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"security error", NewSecurityError("token", "signature mismatch"), true},
		{"wrapped security error", fmt.Errorf("handler: %w", NewSecurityError("", "bad nonce")), true},
		{"unauthorized sentinel", ErrUnauthorizedAccess, true},
		{"wrapped unauthorized", fmt.Errorf("fetch setlist: %w", ErrUnauthorizedAccess), true},
		{"invalid operation", &InvalidOperationError{Msg: "template already published"}, true},
		{"argument error", &ArgumentError{Name: "id", Msg: "must be positive"}, false},
		{"wrapped argument error", fmt.Errorf("parse: %w", &ArgumentError{Msg: "empty"}), false},
		{"plain error", errors.New("db connection refused"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsSecurityRelevant(tt.err); got != tt.want {
				t.Errorf("IsSecurityRelevant(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestArgumentErrorShadowsWrappedSecurityError(t *testing.T) {
	// An ArgumentError anywhere in the chain suppresses classification,
	// matching the explicit rethrow-without-event rule for bad input.
	err := &ArgumentError{Name: "q", Msg: "too long"}
	wrapped := fmt.Errorf("validate: %w", err)
	if IsSecurityRelevant(wrapped) {
		t.Error("argument errors must never classify as security-relevant")
	}
}

func TestClassifyPanic(t *testing.T) {
	if _, relevant := ClassifyPanic("plain string panic"); relevant {
		t.Error("non-error panic values must not classify")
	}
	if _, relevant := ClassifyPanic(42); relevant {
		t.Error("non-error panic values must not classify")
	}

	err, relevant := ClassifyPanic(ErrUnauthorizedAccess)
	if !relevant {
		t.Error("unauthorized access panic should classify")
	}
	if !errors.Is(err, ErrUnauthorizedAccess) {
		t.Error("classified error should be the original value")
	}

	if _, relevant := ClassifyPanic(errors.New("nil map write")); relevant {
		t.Error("ordinary error panics must not classify")
	}
}

func TestErrorMessages(t *testing.T) {
	if got := NewSecurityError("csrf", "token replay").Error(); got != "security error: csrf: token replay" {
		t.Errorf("unexpected message %q", got)
	}
	if got := (&ArgumentError{Name: "limit", Msg: "negative"}).Error(); got != `invalid argument "limit": negative` {
		t.Errorf("unexpected message %q", got)
	}
	if got := (&InvalidOperationError{Msg: "closed"}).Error(); got != "invalid operation: closed" {
		t.Errorf("unexpected message %q", got)
	}
}

func TestSecurityErrorUnwrap(t *testing.T) {
	cause := errors.New("hmac mismatch")
	err := &SecurityError{Op: "verify", Msg: "bad token", Err: cause}
	if !errors.Is(err, cause) {
		t.Error("expected SecurityError to unwrap its cause")
	}
}
