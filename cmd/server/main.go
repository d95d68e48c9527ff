package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"orgdesk/internal/account"
	"orgdesk/internal/config"
	"orgdesk/internal/database"
	"orgdesk/internal/handler"
	"orgdesk/internal/logging"
	"orgdesk/internal/org"
	"orgdesk/internal/password"
	"orgdesk/internal/ratelimit"
	"orgdesk/internal/token"
	"orgdesk/internal/user"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	// Connect to database
	db, err := database.Open(cfg.Database)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Warn("error closing database connection", zap.Error(err))
		}
	}()
	logger.Info("database connection established")

	// Run migrations
	migrationsPath := database.ResolveMigrationsPath(cfg.MigrationsPath)
	status, err := db.MigrateUp(migrationsPath)
	if err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err), zap.String("path", migrationsPath))
	}
	if status.Dirty {
		logger.Warn("database is in dirty state - a previous migration failed and manual intervention is required",
			zap.Uint("version", status.Version))
	} else {
		logger.Info("database migrations complete", zap.Uint("version", status.Version))
	}

	hasher, err := password.NewHasher(password.DefaultParams)
	if err != nil {
		logger.Fatal("failed to initialize password hasher", zap.Error(err))
	}

	issuer, err := token.NewIssuer(token.Config{
		Secret: cfg.JWT.Secret,
		Issuer: cfg.JWT.Issuer,
		TTL:    cfg.JWT.AccessTTL,
	})
	if err != nil {
		logger.Fatal("failed to initialize token issuer", zap.Error(err))
	}

	// Optional Redis for failed-login lockout
	var rdb redis.UniversalClient
	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			logger.Fatal("invalid REDIS_URL", zap.Error(err))
		}
		client := redis.NewClient(opts)
		defer func() { _ = client.Close() }()

		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := client.Ping(pingCtx).Err(); err != nil {
			logger.Warn("redis unreachable, login lockout will fail open", zap.Error(err))
		}
		cancel()
		rdb = client
	} else {
		logger.Info("REDIS_URL not set, login lockout disabled")
	}

	accounts := account.NewManager(account.Config{
		DB:        db,
		Users:     user.NewManager(user.NewDatastore(db.DB), hasher),
		Orgs:      org.NewManager(org.NewDatastore(db.DB)),
		Tokens:    issuer,
		Passwords: hasher,
		Lockout: ratelimit.NewLockout(rdb, ratelimit.LockoutConfig{
			MaxFailures: cfg.Login.MaxFailures,
			Window:      cfg.Login.LockoutWindow,
		}),
		Policy: account.MembershipPolicy(cfg.MembershipPolicy),
		Logger: logger.Named("account"),
	})

	deps := handler.Deps{
		Config:         cfg,
		Accounts:       accounts,
		Tokens:         issuer,
		DB:             db,
		TrustedProxies: cfg.TrustedProxies,
		Logger:         logger.Named("http"),
	}
	if limiter := ratelimit.NewIPLimiter(cfg.RateLimitRPM); limiter != nil {
		deps.Limiter = limiter
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to listen for shutdown signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	// Channel to signal server errors
	serverErr := make(chan error, 1)

	go func() {
		logger.Info("orgdesk server starting",
			zap.String("addr", server.Addr),
			zap.String("env", cfg.Environment),
			zap.String("membership_policy", cfg.MembershipPolicy))
		serverErr <- server.ListenAndServe()
	}()

	// Block until we receive a shutdown signal or server error
	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	case sig := <-shutdown:
		logger.Info("initiating graceful shutdown", zap.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Warn("graceful shutdown failed, forcing shutdown", zap.Error(err))
			if err := server.Close(); err != nil {
				logger.Fatal("forced shutdown failed", zap.Error(err))
			}
		}

		logger.Info("server shutdown complete")
	}
}
