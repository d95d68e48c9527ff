package handler

import (
	"net/http"

	"orgdesk/internal/auth"
	"orgdesk/internal/config"
)

// Version is the service version reported by the status endpoint.
var Version = "0.1.0"

// statusHandler reports service identity and the active settings that
// affect clients.
func statusHandler(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := map[string]any{
			"service": "orgdesk",
			"version": Version,
			"status":  "operational",
		}
		if cfg != nil {
			body["environment"] = cfg.Environment
			body["membershipPolicy"] = cfg.MembershipPolicy
			body["accessTokenTTL"] = cfg.JWT.AccessTTL.String()
		}
		auth.WriteJSON(w, http.StatusOK, body)
	}
}
