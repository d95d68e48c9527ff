package handler

import (
	"net/http"

	"go.uber.org/zap"

	"orgdesk/internal/account"
	"orgdesk/internal/auth"
	"orgdesk/internal/metrics"
)

// AuthHandler serves registration and login.
type AuthHandler struct {
	accounts Accounts
	logger   *zap.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(accounts Accounts, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.L()
	}
	return &AuthHandler{accounts: accounts, logger: logger}
}

// Register handles POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req account.RegisterInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	result, err := h.accounts.Register(r.Context(), req)
	metrics.RecordAuthEvent(metrics.EventRegister, outcome(err))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	auth.WriteSuccess(w, http.StatusCreated, "Registration successful", result)
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req account.LoginInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	result, err := h.accounts.Login(r.Context(), req)
	metrics.RecordAuthEvent(metrics.EventLogin, outcome(err))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	auth.WriteSuccess(w, http.StatusOK, "Login successful", result)
}
