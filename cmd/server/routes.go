// Stagewatch - HTTP Security Event Detection and Classification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stagewatch

package main

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/stagewatch/internal/inspector"
	"github.com/tomtom215/stagewatch/internal/principal"
	"github.com/tomtom215/stagewatch/internal/secerr"
)

// registerSampleRoutes wires a small demo API behind the inspector. The
// handlers are deliberately plain: the point is watching the pipeline emit
// events around them, not the handlers themselves.
func registerSampleRoutes(r chi.Router, insp *inspector.Inspector) {
	r.Get("/api/songs", listSongs)
	r.Post("/api/comments", createComment)

	// Error-returning handlers go through WrapHandlerE so returned errors
	// are classified before the router maps them to status codes.
	r.Method(http.MethodGet, "/api/accounts/{id}",
		inspector.Handler(insp.WrapHandlerE(getAccount)))

	// A sensitive area: authenticated access here lands in the audit trail.
	r.Get("/admin/users", adminUsers)
}

func listSongs(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, []map[string]string{
		{"id": "1", "title": "So What", "artist": "Miles Davis"},
		{"id": "2", "title": "Naima", "artist": "John Coltrane"},
	})
}

func createComment(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "unreadable form", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"comment": r.PostFormValue("comment"),
	})
}

// getAccount demonstrates the error-classification path: requesting another
// user's account returns ErrUnauthorizedAccess, which the inspector records
// as a SecurityException before the router maps it to 403.
func getAccount(w http.ResponseWriter, r *http.Request) error {
	id := chi.URLParam(r, "id")
	if id == "" {
		return &secerr.ArgumentError{Name: "id", Msg: "missing"}
	}

	userID, ok := principal.UserIDFromContext(r.Context())
	if !ok {
		return fmt.Errorf("account %s: %w", id, secerr.ErrUnauthorizedAccess)
	}
	if userID != id {
		return fmt.Errorf("account %s requested by %s: %w", id, userID, secerr.ErrUnauthorizedAccess)
	}

	writeJSON(w, http.StatusOK, map[string]string{"id": id, "owner": userID})
	return nil
}

func adminUsers(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, []map[string]string{
		{"id": "alice", "role": "admin"},
		{"id": "bob", "role": "viewer"},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are out by now; an encode failure has no recovery.
	_ = json.NewEncoder(w).Encode(v)
}
