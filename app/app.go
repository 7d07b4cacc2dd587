// File: app/app.go
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"personal-brand-api/config"
	"personal-brand-api/db"
	"personal-brand-api/handler"
	"personal-brand-api/logger"
	"personal-brand-api/mailer"
	"personal-brand-api/metrics"
	"personal-brand-api/repository"
	"personal-brand-api/router"
	"personal-brand-api/service"
	"syscall"
	"time"
)

// App holds the wired layers of the API.
type App struct {
	Config  *config.Config
	DB      *sql.DB
	Router  http.Handler
	Auth    *service.AuthService
	Users   *service.UserService
	Janitor *service.TokenJanitor
}

// New wires repositories, services, handlers and the router on top of an
// open database. cache may be nil.
func New(cfg *config.Config, database *sql.DB, cache service.ICacheClient) (*App, error) {
	sender, err := mailer.NewSender(cfg.Email)
	if err != nil {
		return nil, err
	}

	// Layers for auth
	userRepo := repository.NewUserRepository(database)
	refreshRepo := repository.NewTokenRepository(database)
	resetRepo := repository.NewResetTokenRepository(database)

	hasher := service.NewBcryptHasher(cfg.Auth.BcryptCost)
	signer := service.NewTokenSigner(cfg.JWT)

	var admin service.IdentityProvider
	if cfg.Admin.Email != "" {
		admin = service.NewConfiguredAdminIdentity(cfg.Admin, hasher)
	}

	authService := service.NewAuthService(service.AuthDeps{
		Users:       userRepo,
		RefreshRepo: refreshRepo,
		ResetRepo:   resetRepo,
		Hasher:      hasher,
		Signer:      signer,
		Mailer:      mailer.NewResetMailer(sender),
		Admin:       admin,
	}, service.AuthOptions{
		ResetTokenTTL:         cfg.Auth.ResetTokenTTL,
		ResetURLBase:          cfg.Server.FrontendURL,
		RevokeSessionsOnReset: cfg.Auth.RevokeSessionsOnReset,
		MailTimeout:           cfg.Email.Timeout,
	})

	// Layers for profiles
	userService := service.NewUserService(userRepo, hasher, cache, cfg.Redis.ProfileTTL)

	proxies, err := handler.ParseTrustedProxies(cfg.Server.TrustedProxies)
	if err != nil {
		return nil, err
	}

	cookies := handler.CookieConfig{
		Secure:     cfg.Server.SecureCookies,
		AccessTTL:  cfg.JWT.AccessTTL,
		RefreshTTL: cfg.JWT.RefreshTTL,
	}

	r := router.NewRouter(router.Deps{
		Auth:        handler.NewAuthHandler(authService, cookies),
		Users:       handler.NewUserHandler(userService),
		Health:      handler.NewHealthHandler(database),
		Verifier:    signer,
		Limiter:     handler.NewRateLimiter(cfg.RateLimit.Burst, cfg.RateLimit.PerSecond, proxies...),
		FrontendURL: cfg.Server.FrontendURL,
	})

	return &App{
		Config:  cfg,
		DB:      database,
		Router:  r,
		Auth:    authService,
		Users:   userService,
		Janitor: service.NewTokenJanitor(refreshRepo, resetRepo, cfg.Auth.PruneInterval),
	}, nil
}

// Serve connects to the backing stores, starts the HTTP server and the token
// janitor, and blocks until SIGINT or SIGTERM.
func Serve(ctx context.Context, cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	logger.Log.WithField("refresh_secret", logger.Fingerprint(cfg.JWT.RefreshSecret)).
		WithField("access_secret", logger.Fingerprint(cfg.JWT.AccessSecret)).
		Info("Configuration loaded successfully")

	database, err := db.Connect(cfg.Database)
	if err != nil {
		return err
	}
	defer database.Close()

	if cfg.Database.AutoMigrate {
		if err := db.MigrateUp(database); err != nil {
			return err
		}
	}

	var cache service.ICacheClient
	rdb, err := db.ConnectRedis(ctx, cfg.Redis)
	switch {
	case err != nil:
		logger.Log.WithError(err).Warn("Continuing without profile cache")
	case rdb != nil:
		defer rdb.Close()
		cache = rdb
	}

	metrics.Init()

	a, err := New(cfg, database, cache)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go a.Janitor.Run(ctx)

	port := cfg.Server.Port
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Log.Infof("Server starting on port :%s", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Log.Warn("Shutdown signal received. Starting graceful shutdown...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	a.Auth.WaitForMail()

	logger.Log.Info("Server exited properly")
	return nil
}
