package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"personal-brand-api/db"
	"personal-brand-api/logger"
	"personal-brand-api/model"

	"github.com/sirupsen/logrus"
)

// IUserRepository defines the contract for user persistence. It is the sole
// writer of password hashes.
type IUserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
	UpdateProfile(ctx context.Context, user *model.User, newPasswordHash string) error
}

type UserRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{DB: db}
}

const userColumns = `id, email, name, password_hash, role, avatar_url, bio, social_links, created_at, updated_at`

// CreateUser inserts a user. user.ID must already be set.
func (r *UserRepository) CreateUser(ctx context.Context, user *model.User) error {
	log := logger.Log.WithFields(logrus.Fields{
		"user_id": user.ID,
		"role":    user.Role,
	})
	log.Info("Executing query to create a new user")

	links, err := encodeLinks(user.SocialLinks)
	if err != nil {
		return err
	}

	query := `INSERT INTO users (id, email, name, password_hash, role, bio, social_links) VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING created_at, updated_at`
	err = r.DB.QueryRowContext(ctx, query, user.ID, user.Email, user.Name, user.PasswordHash, user.Role, user.Bio, links).
		Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			log.Info("User email already registered")
			return ErrConflict
		}
		log.WithError(err).Error("Failed to execute create user query")
		return err
	}
	return nil
}

// GetUserByEmail looks up a user by exact (case-sensitive) email.
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.getOne(ctx, query, email)
}

func (r *UserRepository) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if !isUUID(id) {
		return nil, ErrNotFound
	}
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.getOne(ctx, query, id)
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg any) (*model.User, error) {
	user := &model.User{}
	var links string
	err := r.DB.QueryRowContext(ctx, query, arg).Scan(
		&user.ID, &user.Email, &user.Name, &user.PasswordHash, &user.Role,
		&user.AvatarURL, &user.Bio, &links, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		logger.Log.WithError(err).Error("Failed to execute get user query")
		return nil, err
	}
	if user.SocialLinks, err = decodeLinks(links); err != nil {
		logger.Log.WithError(err).WithField("user_id", user.ID).Warn("Ignoring malformed social links")
		user.SocialLinks = nil
	}
	return user, nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	log := logger.Log.WithField("user_id", userID)
	log.Info("Executing query to update user password")

	if !isUUID(userID) {
		return ErrNotFound
	}
	query := `UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2`
	res, err := r.DB.ExecContext(ctx, query, passwordHash, userID)
	if err != nil {
		log.WithError(err).Error("Failed to execute update password query")
		return err
	}
	return expectOne(res)
}

// UpdateProfile writes the editable profile fields of user. A non-empty
// newPasswordHash is written in the same statement; an empty one leaves the
// stored hash untouched.
func (r *UserRepository) UpdateProfile(ctx context.Context, user *model.User, newPasswordHash string) error {
	log := logger.Log.WithField("user_id", user.ID)
	log.Info("Executing query to update user profile")

	if !isUUID(user.ID) {
		return ErrNotFound
	}
	links, err := encodeLinks(user.SocialLinks)
	if err != nil {
		return err
	}
	query := `UPDATE users SET name = $1, bio = $2, social_links = $3,
		password_hash = COALESCE(NULLIF($4, ''), password_hash), updated_at = NOW()
		WHERE id = $5 RETURNING updated_at`
	err = r.DB.QueryRowContext(ctx, query, user.Name, user.Bio, links, newPasswordHash, user.ID).Scan(&user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		log.WithError(err).Error("Failed to execute update profile query")
		return err
	}
	return nil
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func encodeLinks(links map[string]string) (string, error) {
	if len(links) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(links)
	if err != nil {
		return "", fmt.Errorf("encode social links: %w", err)
	}
	return string(b), nil
}

func decodeLinks(raw string) (map[string]string, error) {
	if raw == "" || raw == "{}" {
		return nil, nil
	}
	links := map[string]string{}
	if err := json.Unmarshal([]byte(raw), &links); err != nil {
		return nil, err
	}
	return links, nil
}
