package service

import (
	"context"
	"errors"
	"personal-brand-api/config"
	"personal-brand-api/model"
	"personal-brand-api/repository"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// memUsers is an in-memory IUserRepository.
type memUsers struct {
	mu    sync.Mutex
	byID  map[string]*model.User
	email map[string]string
}

func newMemUsers() *memUsers {
	return &memUsers{byID: map[string]*model.User{}, email: map[string]string{}}
}

func (m *memUsers) CreateUser(ctx context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.email[user.Email]; ok {
		return repository.ErrConflict
	}
	cp := *user
	m.byID[user.ID] = &cp
	m.email[user.Email] = user.ID
	return nil
}

func (m *memUsers) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.email[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *m.byID[id]
	return &cp, nil
}

func (m *memUsers) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[userID]
	if !ok {
		return repository.ErrNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

func (m *memUsers) UpdateProfile(ctx context.Context, user *model.User, newPasswordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[user.ID]
	if !ok {
		return repository.ErrNotFound
	}
	u.Name, u.Bio, u.SocialLinks = user.Name, user.Bio, user.SocialLinks
	if newPasswordHash != "" {
		u.PasswordHash = newPasswordHash
	}
	return nil
}

// memRefresh is an in-memory IRefreshTokenRepository with the same
// consume-once semantics as the SQL store.
type memRefresh struct {
	mu   sync.Mutex
	rows []model.RefreshToken
}

func (m *memRefresh) Create(ctx context.Context, token *model.RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, *token)
	return nil
}

func (m *memRefresh) Consume(ctx context.Context, userID, token string, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.rows {
		if r.UserID == userID && r.Token == token && r.ExpiresAt.After(now) {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (m *memRefresh) Delete(ctx context.Context, userID, token string) (int64, error) {
	return m.deleteWhere(func(r model.RefreshToken) bool { return r.UserID == userID && r.Token == token }), nil
}

func (m *memRefresh) DeleteByUserID(ctx context.Context, userID string) (int64, error) {
	return m.deleteWhere(func(r model.RefreshToken) bool { return r.UserID == userID }), nil
}

func (m *memRefresh) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return m.deleteWhere(func(r model.RefreshToken) bool { return !r.ExpiresAt.After(now) }), nil
}

func (m *memRefresh) deleteWhere(match func(model.RefreshToken) bool) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.rows[:0]
	var n int64
	for _, r := range m.rows {
		if match(r) {
			n++
			continue
		}
		kept = append(kept, r)
	}
	m.rows = kept
	return n
}

func (m *memRefresh) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

// memReset is an in-memory IResetTokenRepository keyed by user.
type memReset struct {
	mu     sync.Mutex
	byUser map[string]model.PasswordResetToken
}

func newMemReset() *memReset {
	return &memReset{byUser: map[string]model.PasswordResetToken{}}
}

func (m *memReset) Replace(ctx context.Context, token *model.PasswordResetToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byUser[token.UserID] = *token
	return nil
}

func (m *memReset) Consume(ctx context.Context, token string, now time.Time) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for userID, r := range m.byUser {
		if r.Token == token && !r.ExpiresAt.Before(now) {
			delete(m.byUser, userID)
			return userID, nil
		}
	}
	return "", repository.ErrNotFound
}

func (m *memReset) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for userID, r := range m.byUser {
		if r.ExpiresAt.Before(now) {
			delete(m.byUser, userID)
			n++
		}
	}
	return n, nil
}

type sentMail struct {
	to  string
	url string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
	// block, when set, holds every send until it is closed.
	block chan struct{}
}

func (f *fakeMailer) SendPasswordResetEmail(ctx context.Context, to, resetURL string) error {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{to: to, url: resetURL})
	return nil
}

func (f *fakeMailer) last() (sentMail, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return sentMail{}, false
	}
	return f.sent[len(f.sent)-1], true
}

var errMailDown = errors.New("smtp: connection refused")

const (
	adminEmail    = "owner@example.com"
	adminPassword = "admin-password"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
	}
}

// authFixture wires an AuthService over in-memory stores and a movable clock.
type authFixture struct {
	svc     *AuthService
	users   *memUsers
	refresh *memRefresh
	reset   *memReset
	mailer  *fakeMailer
	signer  *TokenSigner
	clock   time.Time
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	hasher := NewBcryptHasher(bcrypt.MinCost)
	adminHash, err := hasher.Hash(adminPassword)
	if err != nil {
		t.Fatalf("hash admin password: %v", err)
	}

	f := &authFixture{
		users:   newMemUsers(),
		refresh: &memRefresh{},
		reset:   newMemReset(),
		mailer:  &fakeMailer{},
		signer:  NewTokenSigner(testJWTConfig()),
		clock:   time.Now().Truncate(time.Second),
	}
	f.signer.now = f.now

	admin := NewConfiguredAdminIdentity(config.AdminConfig{
		Email:        adminEmail,
		PasswordHash: adminHash,
		Name:         "Site Owner",
	}, hasher)

	f.svc = NewAuthService(AuthDeps{
		Users:       f.users,
		RefreshRepo: f.refresh,
		ResetRepo:   f.reset,
		Hasher:      hasher,
		Signer:      f.signer,
		Mailer:      f.mailer,
		Admin:       admin,
	}, AuthOptions{
		ResetTokenTTL:         time.Hour,
		ResetURLBase:          "http://localhost:3000",
		RevokeSessionsOnReset: true,
	})
	f.svc.now = f.now
	return f
}

func (f *authFixture) now() time.Time { return f.clock }

func (f *authFixture) advance(d time.Duration) { f.clock = f.clock.Add(d) }
