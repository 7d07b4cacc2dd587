package service

import (
	"fmt"
	"personal-brand-api/config"
	"personal-brand-api/model"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenSigner issues and verifies HS256 access and refresh tokens. Each kind
// has its own secret and TTL.
type TokenSigner struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

func NewTokenSigner(cfg config.JWTConfig) *TokenSigner {
	return &TokenSigner{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
		now:           time.Now,
	}
}

func (s *TokenSigner) AccessTTL() time.Duration  { return s.accessTTL }
func (s *TokenSigner) RefreshTTL() time.Duration { return s.refreshTTL }

// IssueAccessToken signs a short-lived access token for p.
func (s *TokenSigner) IssueAccessToken(p *model.Principal) (string, time.Time, error) {
	return s.issue(p, model.TokenKindAccess)
}

// IssueRefreshToken signs a refresh token for p. The returned expiry is the
// token's own exp claim.
func (s *TokenSigner) IssueRefreshToken(p *model.Principal) (string, time.Time, error) {
	return s.issue(p, model.TokenKindRefresh)
}

func (s *TokenSigner) issue(p *model.Principal, kind model.TokenKind) (string, time.Time, error) {
	secret, ttl := s.material(kind)
	now := s.now()
	expiresAt := now.Add(ttl)

	claims := &model.AppClaims{
		Type:     kind,
		Provider: p.Kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	if p.Kind != model.IdentityDatabase {
		claims.Role = p.Role
		claims.Email = p.Email
		claims.Name = p.Name
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign %s token: %w", kind, err)
	}
	// NumericDate has second precision; report what the token actually says.
	return tokenString, claims.ExpiresAt.Time, nil
}

// Verify checks signature, expiry and kind of token.
func (s *TokenSigner) Verify(tokenString string, kind model.TokenKind) (*model.AppClaims, error) {
	secret, _ := s.material(kind)
	claims := &model.AppClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Type != kind {
		return nil, fmt.Errorf("%w: expected %s token, got %q", ErrInvalidToken, kind, claims.Type)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims, nil
}

func (s *TokenSigner) material(kind model.TokenKind) ([]byte, time.Duration) {
	if kind == model.TokenKindRefresh {
		return s.refreshSecret, s.refreshTTL
	}
	return s.accessSecret, s.accessTTL
}
