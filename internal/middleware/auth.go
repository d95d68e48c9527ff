// Package middleware provides HTTP middleware for orgdesk.
package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"orgdesk/internal/auth"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// UserIDContextKey is the context key for the authenticated user's ID.
const UserIDContextKey contextKey = "user_id"

// TokenVerifier validates bearer tokens. *token.Issuer satisfies it.
type TokenVerifier interface {
	Verify(tokenString string) (uuid.UUID, error)
}

// GetUserID retrieves the authenticated user ID from the request context.
func GetUserID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(UserIDContextKey).(uuid.UUID)
	return id, ok
}

// WithUserID returns a copy of ctx carrying id.
func WithUserID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, UserIDContextKey, id)
}

// RequireAuth returns middleware that authenticates requests with a bearer
// token and attaches the user ID to the request context.
//
// A missing, malformed, tampered or expired token yields 401. The reason is
// never exposed in the response.
func RequireAuth(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, err := auth.ExtractBearerToken(r)
			if err != nil {
				auth.WriteUnauthorized(w)
				return
			}

			userID, err := verifier.Verify(tokenString)
			if err != nil {
				annotate(r.Context(), "auth_error", err.Error())
				auth.WriteUnauthorized(w)
				return
			}

			setRequestUser(r.Context(), userID)
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}
