package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"personal-brand-api/logger"
	"personal-brand-api/metrics"
	"personal-brand-api/model"
	"personal-brand-api/repository"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ForgotPasswordMessage is returned by ForgotPassword whether or not the
// email belongs to an account.
const ForgotPasswordMessage = "If the email exists, a password reset link has been sent"

const resetTokenBytes = 32

// PasswordResetMailer delivers the reset link to the account owner.
type PasswordResetMailer interface {
	SendPasswordResetEmail(ctx context.Context, to, resetURL string) error
}

// AuthResult is the outcome of signup and login.
type AuthResult struct {
	User   *model.User
	Tokens *model.TokenPair
}

type AuthOptions struct {
	ResetTokenTTL         time.Duration
	ResetURLBase          string
	RevokeSessionsOnReset bool
	MailTimeout           time.Duration
}

// AuthService owns the session lifecycle: signup, login, refresh rotation,
// logout and password reset. It is the only writer of both token stores.
type AuthService struct {
	users        repository.IUserRepository
	refreshRepo  repository.IRefreshTokenRepository
	resetRepo    repository.IResetTokenRepository
	hasher       PasswordHasher
	signer       *TokenSigner
	mailer       PasswordResetMailer
	userIdentity IdentityProvider
	providers    map[model.IdentityKind]IdentityProvider
	opts         AuthOptions
	now          func() time.Time

	mailWG sync.WaitGroup
}

type AuthDeps struct {
	Users       repository.IUserRepository
	RefreshRepo repository.IRefreshTokenRepository
	ResetRepo   repository.IResetTokenRepository
	Hasher      PasswordHasher
	Signer      *TokenSigner
	Mailer      PasswordResetMailer
	// Admin is optional; without it AdminLogin always fails.
	Admin IdentityProvider
}

func NewAuthService(deps AuthDeps, opts AuthOptions) *AuthService {
	if opts.ResetTokenTTL <= 0 {
		opts.ResetTokenTTL = time.Hour
	}
	if opts.MailTimeout <= 0 {
		opts.MailTimeout = 10 * time.Second
	}
	userIdentity := NewDatabaseIdentity(deps.Users, deps.Hasher)
	providers := map[model.IdentityKind]IdentityProvider{
		userIdentity.Kind(): userIdentity,
	}
	if deps.Admin != nil {
		providers[deps.Admin.Kind()] = deps.Admin
	}
	return &AuthService{
		users:        deps.Users,
		refreshRepo:  deps.RefreshRepo,
		resetRepo:    deps.ResetRepo,
		hasher:       deps.Hasher,
		signer:       deps.Signer,
		mailer:       deps.Mailer,
		userIdentity: userIdentity,
		providers:    providers,
		opts:         opts,
		now:          time.Now,
	}
}

// Signup registers a new user and signs them in.
func (s *AuthService) Signup(ctx context.Context, req model.SignupRequest) (*AuthResult, error) {
	log := logger.Log.WithField("email_fp", logger.Fingerprint(req.Email))

	if _, err := s.users.GetUserByEmail(ctx, req.Email); err == nil {
		metrics.ObserveAuth("signup", metrics.OutcomeRejected)
		return nil, ErrDuplicateEmail
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("could not check existing user: %w", err)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		metrics.ObserveAuth("signup", metrics.OutcomeError)
		return nil, err
	}

	user := &model.User{
		ID:           uuid.NewString(),
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: hash,
		Role:         model.RoleUser,
		Bio:          req.Bio,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			metrics.ObserveAuth("signup", metrics.OutcomeRejected)
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("could not create user: %w", err)
	}

	principal := principalFromUser(user)
	tokens, err := s.issue(ctx, s.userIdentity, principal)
	if err != nil {
		return nil, err
	}

	log.WithField("user_id", user.ID).Info("User signed up")
	metrics.ObserveAuth("signup", metrics.OutcomeSuccess)
	return &AuthResult{User: principal.PublicUser(), Tokens: tokens}, nil
}

// Login authenticates a stored user. Unknown email and wrong password
// produce the same ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	return s.login(ctx, "login", s.userIdentity, email, password)
}

// AdminLogin authenticates the configured admin identity. Its refresh token
// is not tracked in the store.
func (s *AuthService) AdminLogin(ctx context.Context, email, password string) (*AuthResult, error) {
	admin, ok := s.providers[model.IdentityAdmin]
	if !ok {
		metrics.ObserveAuth("admin_login", metrics.OutcomeRejected)
		return nil, ErrInvalidCredentials
	}
	return s.login(ctx, "admin_login", admin, email, password)
}

func (s *AuthService) login(ctx context.Context, event string, provider IdentityProvider, email, password string) (*AuthResult, error) {
	principal, err := provider.Authenticate(ctx, email, password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			logger.Log.WithField("provider", provider.Kind()).Info("Login rejected")
			metrics.ObserveAuth(event, metrics.OutcomeRejected)
			return nil, err
		}
		metrics.ObserveAuth(event, metrics.OutcomeError)
		return nil, err
	}

	tokens, err := s.issue(ctx, provider, principal)
	if err != nil {
		metrics.ObserveAuth(event, metrics.OutcomeError)
		return nil, err
	}

	logger.Log.WithFields(logrus.Fields{
		"user_id":  principal.ID,
		"provider": provider.Kind(),
	}).Info("User logged in")
	metrics.ObserveAuth(event, metrics.OutcomeSuccess)
	return &AuthResult{User: principal.PublicUser(), Tokens: tokens}, nil
}

// Logout revokes exactly the (userID, refreshToken) grant. Revoking nothing
// is not an error. Access tokens stay valid until they expire.
func (s *AuthService) Logout(ctx context.Context, userID, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	n, err := s.refreshRepo.Delete(ctx, userID, refreshToken)
	if err != nil {
		return fmt.Errorf("could not revoke refresh token: %w", err)
	}
	logger.Log.WithFields(logrus.Fields{
		"user_id": userID,
		"revoked": n,
	}).Info("User logged out")
	metrics.ObserveAuth("logout", metrics.OutcomeSuccess)
	return nil
}

// RefreshTokens rotates a refresh grant: the presented token is consumed and
// a new pair is issued. Replays, expired, unknown or foreign tokens fail with
// ErrInvalidRefreshToken.
func (s *AuthService) RefreshTokens(ctx context.Context, userID, refreshToken string) (*model.TokenPair, error) {
	consumed, err := s.refreshRepo.Consume(ctx, userID, refreshToken, s.now())
	if err != nil {
		metrics.ObserveAuth("refresh", metrics.OutcomeError)
		return nil, fmt.Errorf("could not consume refresh token: %w", err)
	}
	if !consumed {
		logger.Log.WithField("user_id", userID).Warn("Refresh token rejected")
		metrics.ObserveAuth("refresh", metrics.OutcomeRejected)
		return nil, ErrInvalidRefreshToken
	}

	principal := &model.Principal{ID: userID, Kind: model.IdentityDatabase}
	tokens, err := s.issue(ctx, s.userIdentity, principal)
	if err != nil {
		metrics.ObserveAuth("refresh", metrics.OutcomeError)
		return nil, err
	}
	metrics.ObserveAuth("refresh", metrics.OutcomeSuccess)
	return tokens, nil
}

// RefreshSession verifies the presented refresh token's signature to find
// its owner, then rotates it. The store decides validity; the signature is
// a second integrity check.
func (s *AuthService) RefreshSession(ctx context.Context, refreshToken string) (*model.TokenPair, error) {
	claims, err := s.signer.Verify(refreshToken, model.TokenKindRefresh)
	if err != nil {
		metrics.ObserveAuth("refresh", metrics.OutcomeRejected)
		return nil, ErrInvalidRefreshToken
	}
	return s.RefreshTokens(ctx, claims.Subject, refreshToken)
}

// ForgotPassword issues a reset token and emails the link when the account
// exists. The returned message never depends on existence. Delivery runs in
// the background, so response time does not either; failures are logged.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) (string, error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			metrics.ObserveAuth("forgot_password", metrics.OutcomeSuccess)
			return ForgotPasswordMessage, nil
		}
		return "", fmt.Errorf("could not load user: %w", err)
	}

	token, err := newResetToken()
	if err != nil {
		return "", err
	}
	record := &model.PasswordResetToken{
		UserID:    user.ID,
		Token:     token,
		ExpiresAt: s.now().Add(s.opts.ResetTokenTTL),
	}
	if err := s.resetRepo.Replace(ctx, record); err != nil {
		return "", fmt.Errorf("could not store reset token: %w", err)
	}

	s.mailWG.Add(1)
	go s.deliverResetEmail(context.WithoutCancel(ctx), user, s.resetURL(token))

	metrics.ObserveAuth("forgot_password", metrics.OutcomeSuccess)
	return ForgotPasswordMessage, nil
}

func (s *AuthService) deliverResetEmail(ctx context.Context, user *model.User, resetURL string) {
	defer s.mailWG.Done()

	ctx, cancel := context.WithTimeout(ctx, s.opts.MailTimeout)
	defer cancel()
	if err := s.mailer.SendPasswordResetEmail(ctx, user.Email, resetURL); err != nil {
		logger.Log.WithError(err).WithField("user_id", user.ID).Error("Failed to deliver password reset email")
		metrics.ObserveAuth("reset_email", metrics.OutcomeError)
		return
	}
	metrics.ObserveAuth("reset_email", metrics.OutcomeSuccess)
}

// WaitForMail blocks until in-flight reset emails are delivered or have
// timed out.
func (s *AuthService) WaitForMail() {
	s.mailWG.Wait()
}

// ResetPassword consumes a reset token and sets the new password. When
// configured, every refresh grant of the user is revoked as well.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	userID, err := s.resetRepo.Consume(ctx, token, s.now())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			metrics.ObserveAuth("reset_password", metrics.OutcomeRejected)
			return ErrInvalidOrExpiredToken
		}
		return fmt.Errorf("could not consume reset token: %w", err)
	}

	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidOrExpiredToken
		}
		return fmt.Errorf("could not update password: %w", err)
	}

	log := logger.Log.WithField("user_id", userID)
	if s.opts.RevokeSessionsOnReset {
		n, err := s.refreshRepo.DeleteByUserID(ctx, userID)
		if err != nil {
			return fmt.Errorf("could not revoke sessions: %w", err)
		}
		log = log.WithField("revoked_sessions", n)
	}
	log.Info("Password reset")
	metrics.ObserveAuth("reset_password", metrics.OutcomeSuccess)
	return nil
}

// Me resolves the principal behind verified access token claims.
func (s *AuthService) Me(ctx context.Context, claims *model.AppClaims) (*model.Principal, error) {
	provider, ok := s.providers[claims.Provider]
	if !ok {
		return nil, ErrInvalidToken
	}
	return provider.Lookup(ctx, claims.Subject)
}

// issue signs a token pair for principal and records the refresh grant when
// the provider tracks grants.
func (s *AuthService) issue(ctx context.Context, provider IdentityProvider, principal *model.Principal) (*model.TokenPair, error) {
	accessToken, _, err := s.signer.IssueAccessToken(principal)
	if err != nil {
		return nil, err
	}
	refreshToken, expiresAt, err := s.signer.IssueRefreshToken(principal)
	if err != nil {
		return nil, err
	}

	if provider.TracksRefreshGrants() {
		record := &model.RefreshToken{
			UserID:    principal.ID,
			Token:     refreshToken,
			ExpiresAt: expiresAt,
		}
		if err := s.refreshRepo.Create(ctx, record); err != nil {
			return nil, fmt.Errorf("could not store refresh token: %w", err)
		}
	}

	return &model.TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func (s *AuthService) resetURL(token string) string {
	base := strings.TrimRight(s.opts.ResetURLBase, "/")
	return base + "/reset-password?token=" + url.QueryEscape(token)
}

// newResetToken returns 256 random bits, hex encoded.
func newResetToken() (string, error) {
	b := make([]byte, resetTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("could not generate reset token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
