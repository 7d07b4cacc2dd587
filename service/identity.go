package service

import (
	"context"
	"errors"
	"fmt"
	"personal-brand-api/config"
	"personal-brand-api/model"
	"personal-brand-api/repository"
	"sync"
)

// AdminPrincipalID is the fixed subject of the configured admin identity.
const AdminPrincipalID = "admin"

// IdentityProvider authenticates principals from one identity source.
type IdentityProvider interface {
	Kind() model.IdentityKind
	// Authenticate returns ErrInvalidCredentials for unknown emails and wrong
	// passwords alike.
	Authenticate(ctx context.Context, email, password string) (*model.Principal, error)
	// Lookup returns ErrUserNotFound when id does not belong to this source.
	Lookup(ctx context.Context, id string) (*model.Principal, error)
	// TracksRefreshGrants reports whether refresh tokens issued to this
	// source's principals are persisted and therefore rotatable and revocable.
	TracksRefreshGrants() bool
}

// DatabaseIdentity authenticates users stored in the Credential Store.
type DatabaseIdentity struct {
	users  repository.IUserRepository
	hasher PasswordHasher

	dummyOnce sync.Once
	dummyHash string
}

func NewDatabaseIdentity(users repository.IUserRepository, hasher PasswordHasher) *DatabaseIdentity {
	return &DatabaseIdentity{users: users, hasher: hasher}
}

func (d *DatabaseIdentity) Kind() model.IdentityKind  { return model.IdentityDatabase }
func (d *DatabaseIdentity) TracksRefreshGrants() bool { return true }

func (d *DatabaseIdentity) Authenticate(ctx context.Context, email, password string) (*model.Principal, error) {
	user, err := d.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Spend the same hashing time as a real comparison.
			d.hasher.Verify(password, d.dummy())
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("could not load user: %w", err)
	}
	if !d.hasher.Verify(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return principalFromUser(user), nil
}

func (d *DatabaseIdentity) Lookup(ctx context.Context, id string) (*model.Principal, error) {
	user, err := d.users.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("could not load user: %w", err)
	}
	return principalFromUser(user), nil
}

func (d *DatabaseIdentity) dummy() string {
	d.dummyOnce.Do(func() {
		d.dummyHash, _ = d.hasher.Hash("timing-equaliser-password")
	})
	return d.dummyHash
}

func principalFromUser(user *model.User) *model.Principal {
	return &model.Principal{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
		Role:  user.Role,
		Kind:  model.IdentityDatabase,
		User:  user,
	}
}

// ConfiguredAdminIdentity is the single admin principal defined in
// configuration rather than in the database. Its refresh grants are not
// persisted, so admin sessions cannot be rotated or revoked through the store.
type ConfiguredAdminIdentity struct {
	email        string
	passwordHash string
	name         string
	hasher       PasswordHasher
}

func NewConfiguredAdminIdentity(cfg config.AdminConfig, hasher PasswordHasher) *ConfiguredAdminIdentity {
	name := cfg.Name
	if name == "" {
		name = "Admin"
	}
	return &ConfiguredAdminIdentity{
		email:        cfg.Email,
		passwordHash: cfg.PasswordHash,
		name:         name,
		hasher:       hasher,
	}
}

func (a *ConfiguredAdminIdentity) Kind() model.IdentityKind  { return model.IdentityAdmin }
func (a *ConfiguredAdminIdentity) TracksRefreshGrants() bool { return false }

func (a *ConfiguredAdminIdentity) Authenticate(ctx context.Context, email, password string) (*model.Principal, error) {
	if a.email == "" || email != a.email {
		return nil, ErrInvalidCredentials
	}
	if a.passwordHash == "" {
		return nil, ErrAdminNotConfigured
	}
	if !a.hasher.Verify(password, a.passwordHash) {
		return nil, ErrInvalidCredentials
	}
	return a.principal(), nil
}

func (a *ConfiguredAdminIdentity) Lookup(ctx context.Context, id string) (*model.Principal, error) {
	if id != AdminPrincipalID || a.email == "" {
		return nil, ErrUserNotFound
	}
	return a.principal(), nil
}

func (a *ConfiguredAdminIdentity) principal() *model.Principal {
	return &model.Principal{
		ID:    AdminPrincipalID,
		Email: a.email,
		Name:  a.name,
		Role:  model.RoleAdmin,
		Kind:  model.IdentityAdmin,
	}
}
