package handler

import (
	"net/http"
	"net/netip"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"orgdesk/internal/config"
	"orgdesk/internal/middleware"
)

// Deps holds everything the HTTP layer needs.
type Deps struct {
	Config   *config.Config
	Accounts Accounts
	Tokens   middleware.TokenVerifier
	DB       Pinger
	// Limiter throttles /auth routes. Nil disables throttling.
	Limiter middleware.Limiter
	// TrustedProxies may set the client address via forwarding headers.
	TrustedProxies []netip.Prefix
	Logger         *zap.Logger
}

// RegisterRoutes registers all HTTP routes with the provided mux.
func RegisterRoutes(mux *http.ServeMux, d Deps) {
	if d.Logger == nil {
		d.Logger = zap.L()
	}

	// Health, status and metrics endpoints (no auth required)
	mux.HandleFunc("GET /health", healthHandler(d.DB, d.Logger))
	mux.HandleFunc("GET /api/v1/status", statusHandler(d.Config))
	mux.Handle("GET /metrics", promhttp.Handler())

	authHandler := NewAuthHandler(d.Accounts, d.Logger)
	throttle := middleware.RateLimit(d.Limiter)
	mux.Handle("POST /auth/register", throttle(http.HandlerFunc(authHandler.Register)))
	mux.Handle("POST /auth/login", throttle(http.HandlerFunc(authHandler.Login)))

	requireAuth := middleware.RequireAuth(d.Tokens)
	protected := func(h http.HandlerFunc) http.Handler { return requireAuth(h) }

	orgs := NewOrgsHandler(d.Accounts, d.Logger)
	users := NewUsersHandler(d.Accounts, d.Logger)

	// /api/... paths plus the bare aliases.
	for _, prefix := range []string{"/api/organisations", "/organizations"} {
		mux.Handle("GET "+prefix, protected(orgs.List))
		mux.Handle("POST "+prefix, protected(orgs.Create))
		mux.Handle("GET "+prefix+"/{id}", protected(orgs.Get))
		mux.Handle("POST "+prefix+"/{id}/users", protected(orgs.AddUser))
	}
	for _, prefix := range []string{"/api/users", "/users"} {
		mux.Handle("GET "+prefix+"/{id}", protected(users.Get))
	}
}

// NewRouter builds the full HTTP handler: routes wrapped in client address
// resolution, request logging and metrics.
func NewRouter(d Deps) http.Handler {
	mux := http.NewServeMux()
	RegisterRoutes(mux, d)
	handler := middleware.RequestLogger(d.Logger)(middleware.Metrics(mux))
	return middleware.RealIP(d.TrustedProxies)(handler)
}
