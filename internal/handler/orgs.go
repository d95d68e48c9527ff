package handler

import (
	"net/http"

	"go.uber.org/zap"

	"orgdesk/internal/account"
	"orgdesk/internal/auth"
	"orgdesk/internal/metrics"
	"orgdesk/internal/middleware"
	"orgdesk/internal/org"
)

// OrgsHandler serves the organisation endpoints. Every route requires an
// authenticated caller.
type OrgsHandler struct {
	accounts Accounts
	logger   *zap.Logger
}

// NewOrgsHandler creates a new organisations handler.
func NewOrgsHandler(accounts Accounts, logger *zap.Logger) *OrgsHandler {
	if logger == nil {
		logger = zap.L()
	}
	return &OrgsHandler{accounts: accounts, logger: logger}
}

// List handles GET /api/organisations
//
// With ?scope=mine only the caller's organisations are returned.
func (h *OrgsHandler) List(w http.ResponseWriter, r *http.Request) {
	var (
		orgs []*org.Org
		err  error
	)
	switch scope := r.URL.Query().Get("scope"); scope {
	case "", "all":
		orgs, err = h.accounts.ListOrganizations(r.Context())
	case "mine":
		callerID, ok := middleware.GetUserID(r.Context())
		if !ok {
			auth.WriteUnauthorized(w)
			return
		}
		orgs, err = h.accounts.ListUserOrganizations(r.Context(), callerID)
	default:
		writeBadRequest(w, "scope must be 'all' or 'mine'")
		return
	}
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	auth.WriteSuccess(w, http.StatusOK, "Organisations retrieved successfully", account.NewOrganizationList(orgs))
}

// Create handles POST /api/organisations
func (h *OrgsHandler) Create(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.GetUserID(r.Context())
	if !ok {
		auth.WriteUnauthorized(w)
		return
	}

	var req account.CreateOrganizationInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	o, err := h.accounts.CreateOrganization(r.Context(), callerID, req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	auth.WriteSuccess(w, http.StatusCreated, "Organisation created successfully", o.Public())
}

// Get handles GET /api/organisations/{id}
func (h *OrgsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeBadRequest(w, "invalid organisation ID")
		return
	}

	o, err := h.accounts.GetOrganization(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	auth.WriteSuccess(w, http.StatusOK, "Organisation retrieved successfully", o.Public())
}

// AddUser handles POST /api/organisations/{id}/users
func (h *OrgsHandler) AddUser(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.GetUserID(r.Context())
	if !ok {
		auth.WriteUnauthorized(w)
		return
	}

	orgID, err := parseID(r, "id")
	if err != nil {
		writeBadRequest(w, "invalid organisation ID")
		return
	}

	var req account.AddMemberInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	err = h.accounts.AddMember(r.Context(), callerID, orgID, req)
	metrics.RecordAuthEvent(metrics.EventAddMember, outcome(err))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	auth.WriteSuccess(w, http.StatusOK, "User added to organisation successfully", nil)
}
