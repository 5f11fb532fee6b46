// Stagewatch - HTTP Security Event Detection and Classification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stagewatch

// Package principal resolves the authenticated identity, if any, attached to
// a request. Authentication itself is an external collaborator; this package
// only reads what upstream middleware established. Resolution never fails a
// request: an unreadable credential is an anonymous request.
package principal

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Resolver extracts the authenticated user ID from a request.
type Resolver interface {
	// UserID returns the principal's identifier and true, or ("", false)
	// for anonymous requests.
	UserID(r *http.Request) (string, bool)
}

type contextKey string

// userIDKey is the context key upstream auth middleware uses to stash the
// authenticated user ID.
const userIDKey contextKey = "stagewatch_user_id"

// ContextWithUserID returns a context carrying the authenticated user ID.
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext retrieves the authenticated user ID from context.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

// ContextResolver reads the user ID that upstream middleware stored on the
// request context via ContextWithUserID.
type ContextResolver struct{}

// UserID implements Resolver.
func (ContextResolver) UserID(r *http.Request) (string, bool) {
	return UserIDFromContext(r.Context())
}

// Claims are the JWT claims issued by the collaborating auth service.
type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// JWTResolver resolves the principal from a Bearer token in the
// Authorization header, validated with an HS256 shared secret.
type JWTResolver struct {
	secret []byte
}

// NewJWTResolver creates a resolver for tokens signed with the given secret.
func NewJWTResolver(secret []byte) *JWTResolver {
	return &JWTResolver{secret: secret}
}

// UserID implements Resolver. Any parse or validation failure yields
// anonymous; the detector must never reject a request that upstream auth
// would have accepted or already rejected.
func (j *JWTResolver) UserID(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return "", false
	}
	tokenString := strings.TrimSpace(auth[len(prefix):])
	if tokenString == "" {
		return "", false
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return j.secret, nil
	})
	if err != nil || !token.Valid {
		return "", false
	}

	if claims.Username != "" {
		return claims.Username, true
	}
	if claims.Subject != "" {
		return claims.Subject, true
	}
	return "", false
}

// Chain tries resolvers in order and returns the first identity found.
type Chain []Resolver

// UserID implements Resolver.
func (c Chain) UserID(r *http.Request) (string, bool) {
	for _, resolver := range c {
		if id, ok := resolver.UserID(r); ok {
			return id, true
		}
	}
	return "", false
}
