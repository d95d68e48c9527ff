package handler

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"orgdesk/internal/auth"
)

// Pinger reports database health. *database.DB satisfies it.
type Pinger interface {
	Health(ctx context.Context) error
}

// healthHandler reports 200 when the database answers and 503 otherwise.
// A nil pinger always reports healthy.
func healthHandler(db Pinger, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()

			if err := db.Health(ctx); err != nil {
				logger.Warn("health check failed", zap.Error(err))
				auth.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
					"status":   "unhealthy",
					"database": "unreachable",
				})
				return
			}
		}

		auth.WriteJSON(w, http.StatusOK, map[string]string{
			"status":   "healthy",
			"database": "ok",
		})
	}
}
