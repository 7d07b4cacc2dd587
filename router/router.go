package router

import (
	"net/http"
	"personal-brand-api/handler"
	"personal-brand-api/metrics"

	_ "personal-brand-api/docs"

	httpSwagger "github.com/swaggo/http-swagger/v2"
)

// Deps are the handlers and middleware the router mounts.
type Deps struct {
	Auth        *handler.AuthHandler
	Users       *handler.UserHandler
	Health      *handler.HealthHandler
	Verifier    handler.TokenVerifier
	Limiter     *handler.RateLimiter
	FrontendURL string
}

func NewRouter(d Deps) http.Handler {
	mux := http.NewServeMux()
	requireAuth := handler.AuthMiddleware(d.Verifier)
	limited := func(h http.Handler) http.Handler {
		if d.Limiter == nil {
			return h
		}
		return d.Limiter.Middleware(h)
	}

	mux.HandleFunc("GET /health", d.Health.HealthCheck)
	mux.Handle("GET /metrics", metrics.Handler())
	mux.Handle("GET /swagger/", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	// Credential endpoints are rate limited per client IP.
	mux.Handle("POST /auth/signup", limited(handler.ErrorHandlingMiddleware(d.Auth.Signup)))
	mux.Handle("POST /auth/login", limited(handler.ErrorHandlingMiddleware(d.Auth.Login)))
	mux.Handle("POST /auth/admin/login", limited(handler.ErrorHandlingMiddleware(d.Auth.AdminLogin)))
	mux.Handle("POST /auth/forgot-password", limited(handler.ErrorHandlingMiddleware(d.Auth.ForgotPassword)))
	mux.Handle("POST /auth/reset-password", limited(handler.ErrorHandlingMiddleware(d.Auth.ResetPassword)))
	mux.Handle("POST /auth/refresh", handler.ErrorHandlingMiddleware(d.Auth.Refresh))

	mux.Handle("POST /auth/logout", requireAuth(handler.ErrorHandlingMiddleware(d.Auth.Logout)))
	mux.Handle("GET /auth/me", requireAuth(handler.ErrorHandlingMiddleware(d.Auth.Me)))

	mux.Handle("GET /users/{id}", handler.ErrorHandlingMiddleware(d.Users.GetUser))
	mux.Handle("PATCH /users/{id}", requireAuth(handler.ErrorHandlingMiddleware(d.Users.UpdateUser)))

	return handler.CORS(d.FrontendURL)(metrics.Instrument(mux))
}
