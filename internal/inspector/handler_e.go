// Stagewatch - HTTP Security Event Detection and Classification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stagewatch

package inspector

import (
	"errors"
	"net/http"

	"github.com/tomtom215/stagewatch/internal/secerr"
	"github.com/tomtom215/stagewatch/internal/secevent"
)

// HandlerE is an HTTP handler that reports failure through an error return
// instead of (or in addition to) writing a response.
type HandlerE func(http.ResponseWriter, *http.Request) error

// WrapHandlerE classifies the error returned by a handler. A security-
// relevant error emits a High SecurityException event; every error, relevant
// or not, is returned unchanged so the caller's error handling is unaffected.
func (i *Inspector) WrapHandlerE(h HandlerE) HandlerE {
	return func(w http.ResponseWriter, r *http.Request) error {
		err := h(w, r)
		if err == nil {
			return nil
		}

		if secerr.IsSecurityRelevant(err) {
			rc := secevent.CaptureRequest(r)
			if i.resolver != nil {
				if id, ok := i.resolver.UserID(r); ok {
					rc.UserID = id
				}
			}
			i.emit(r.Context(), secevent.New(rc,
				secevent.CategorySecurityException, secevent.SeverityHigh,
				"handler returned security-relevant error: "+truncate(err.Error(), 512), ""))
		}

		return err
	}
}

// Handler adapts a HandlerE to http.Handler, mapping the closed error kinds
// to conventional status codes. Intended for wiring error-returning handlers
// into a router after WrapHandlerE.
func Handler(h HandlerE) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		err := h(w, r)
		if err == nil {
			return
		}

		var argErr *secerr.ArgumentError
		switch {
		case errors.As(err, &argErr):
			http.Error(w, argErr.Error(), http.StatusBadRequest)
		case errors.Is(err, secerr.ErrUnauthorizedAccess):
			http.Error(w, "forbidden", http.StatusForbidden)
		default:
			http.Error(w, "internal server error", http.StatusInternalServerError)
		}
	})
}
