// Package auth provides bearer-token helpers and the JSON response envelope
// shared by handlers and middleware.
package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// Sentinel errors for token extraction failures.
// These can be used for debugging/logging but should NOT be exposed in responses.
var (
	ErrMissingAuthHeader = errors.New("missing authorization header")
	ErrInvalidAuthScheme = errors.New("invalid authorization scheme: expected Bearer")
	ErrEmptyToken        = errors.New("empty bearer token")
)

// ExtractBearerToken extracts the token from an "Authorization: Bearer <token>" header.
// Returns an error if the header is missing, uses wrong scheme, or token is empty.
// Does not log anything.
func ExtractBearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", ErrMissingAuthHeader
	}

	// Must start with "Bearer "
	const prefix = "Bearer "
	if !strings.HasPrefix(authHeader, prefix) {
		return "", ErrInvalidAuthScheme
	}

	token := strings.TrimSpace(strings.TrimPrefix(authHeader, prefix))
	if token == "" {
		return "", ErrEmptyToken
	}

	return token, nil
}

// Response is the envelope of every JSON response.
type Response struct {
	Status     string `json:"status"`
	Message    string `json:"message,omitempty"`
	StatusCode int    `json:"statusCode,omitempty"`
	Data       any    `json:"data,omitempty"`
}

// WriteJSON writes v as JSON with the given status.
// Always sets Content-Type: application/json.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("failed to write JSON response", zap.Error(err))
	}
}

// WriteSuccess writes {"status":"success","message":...,"data":...}.
func WriteSuccess(w http.ResponseWriter, status int, message string, data any) {
	WriteJSON(w, status, Response{Status: "success", Message: message, Data: data})
}

// WriteJSONError writes {"status":<label>,"message":...,"statusCode":<status>}.
func WriteJSONError(w http.ResponseWriter, status int, label, message string) {
	WriteJSON(w, status, Response{Status: label, Message: message, StatusCode: status})
}

// WriteUnauthorized writes a 401 response.
// Use when the bearer token is missing, malformed, invalid or expired.
func WriteUnauthorized(w http.ResponseWriter) {
	WriteJSONError(w, http.StatusUnauthorized, "Unauthorized", "Authentication required")
}

// WriteForbidden writes a 403 response.
func WriteForbidden(w http.ResponseWriter, message string) {
	WriteJSONError(w, http.StatusForbidden, "Forbidden", message)
}

// WriteInternalError writes a generic 500 response without leaking details.
func WriteInternalError(w http.ResponseWriter) {
	WriteJSONError(w, http.StatusInternalServerError, "error", "internal server error")
}
