package handler

import (
	"net/http"

	"go.uber.org/zap"

	"orgdesk/internal/auth"
)

// UsersHandler serves user lookups.
type UsersHandler struct {
	accounts Accounts
	logger   *zap.Logger
}

// NewUsersHandler creates a new users handler.
func NewUsersHandler(accounts Accounts, logger *zap.Logger) *UsersHandler {
	if logger == nil {
		logger = zap.L()
	}
	return &UsersHandler{accounts: accounts, logger: logger}
}

// Get handles GET /api/users/{id}
func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeBadRequest(w, "invalid user ID")
		return
	}

	u, err := h.accounts.GetUser(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	auth.WriteSuccess(w, http.StatusOK, "User retrieved successfully", u.Public())
}
