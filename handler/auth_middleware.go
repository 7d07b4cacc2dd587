package handler

import (
	"context"
	"net/http"
	"personal-brand-api/common"
	"personal-brand-api/model"
	"strings"
)

type contextKey string

const ClaimsKey contextKey = "claims"

// TokenVerifier checks a signed token of the given kind.
type TokenVerifier interface {
	Verify(token string, kind model.TokenKind) (*model.AppClaims, error)
}

// AuthMiddleware admits requests carrying a valid access token, either in the
// accessToken cookie or as a Bearer Authorization header.
func AuthMiddleware(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, appErr := accessTokenFrom(r)
			if appErr != nil {
				appErr.Send(w)
				return
			}

			claims, err := verifier.Verify(tokenString, model.TokenKindAccess)
			if err != nil {
				common.Unauthorized("Invalid or expired token").Send(w)
				return
			}

			ctx := context.WithValue(r.Context(), ClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func accessTokenFrom(r *http.Request) (string, *common.AppError) {
	if c, err := r.Cookie(accessCookieName); err == nil && c.Value != "" {
		return c.Value, nil
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", common.Unauthorized("Authentication required")
	}
	headerParts := strings.Split(authHeader, " ")
	if len(headerParts) != 2 || strings.ToLower(headerParts[0]) != "bearer" || headerParts[1] == "" {
		return "", common.Unauthorized("Invalid authorization header format")
	}
	return headerParts[1], nil
}

// ClaimsFromContext returns the access token claims stored by AuthMiddleware.
func ClaimsFromContext(ctx context.Context) (*model.AppClaims, bool) {
	claims, ok := ctx.Value(ClaimsKey).(*model.AppClaims)
	return claims, ok && claims != nil
}
