package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObservedLogger() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return zap.New(core), logs
}

func TestRequestLogger_GeneratesRequestID(t *testing.T) {
	logger, logs := newObservedLogger()

	var seen string
	handler := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
		w.WriteHeader(http.StatusCreated)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/register?x=1", nil))

	if seen == "" {
		t.Fatal("expected a request ID in the context")
	}
	if got := rec.Header().Get("X-Request-ID"); got != seen {
		t.Errorf("expected X-Request-ID %q, got %q", seen, got)
	}

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}
	if entries[0].Level != zapcore.InfoLevel {
		t.Errorf("expected info level, got %s", entries[0].Level)
	}

	fields := entries[0].ContextMap()
	if fields["request_id"] != seen {
		t.Errorf("expected request_id %q, got %v", seen, fields["request_id"])
	}
	if fields["status"] != int64(http.StatusCreated) {
		t.Errorf("expected status 201, got %v", fields["status"])
	}
	if fields["path"] != "/auth/register?x=1" {
		t.Errorf("unexpected path %v", fields["path"])
	}
}

func TestRequestLogger_ReusesIncomingRequestID(t *testing.T) {
	logger, _ := newObservedLogger()
	handler := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-ID"); got != "abc-123" {
		t.Errorf("expected incoming request ID to be reused, got %q", got)
	}
}

func TestRequestLogger_LogsResolvedClientIP(t *testing.T) {
	logger, logs := newObservedLogger()
	handler := RealIP(nil)(RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.7:5000"
	req.Header.Set("X-Forwarded-For", "1.1.1.1")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}
	if got := entries[0].ContextMap()["client_ip"]; got != "203.0.113.7" {
		t.Errorf("expected client_ip 203.0.113.7, got %v", got)
	}
}

func TestRequestLogger_IncludesAuthenticatedUser(t *testing.T) {
	logger, logs := newObservedLogger()
	userID := uuid.New()
	verifier := &mockVerifier{verifyFunc: func(string) (uuid.UUID, error) { return userID, nil }}

	handler := RequestLogger(logger)(RequireAuth(verifier)(testHandler()))

	req := httptest.NewRequest(http.MethodGet, "/api/users/x", nil)
	req.Header.Set("Authorization", "Bearer t")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}
	if got := entries[0].ContextMap()["user_id"]; got != userID.String() {
		t.Errorf("expected user_id %s, got %v", userID, got)
	}
}

func TestRequestLogger_WarnsOnAuthFailure(t *testing.T) {
	logger, logs := newObservedLogger()
	verifier := &mockVerifier{verifyFunc: func(string) (uuid.UUID, error) { return uuid.Nil, errors.New("token expired") }}

	handler := RequestLogger(logger)(RequireAuth(verifier)(testHandler()))

	req := httptest.NewRequest(http.MethodGet, "/api/organisations", nil)
	req.Header.Set("Authorization", "Bearer t")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}
	if entries[0].Level != zapcore.WarnLevel {
		t.Errorf("expected warn level, got %s", entries[0].Level)
	}
	if got := entries[0].ContextMap()["auth_error"]; got != "token expired" {
		t.Errorf("expected auth_error 'token expired', got %v", got)
	}
}
