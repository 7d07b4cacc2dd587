// file: repository/token_repository.go

package repository

import (
	"context"
	"database/sql"
	"personal-brand-api/logger"
	"personal-brand-api/model"
	"time"

	"github.com/sirupsen/logrus"
)

// IRefreshTokenRepository defines the contract for refresh token database operations.
// The store is the source of truth for revocation.
type IRefreshTokenRepository interface {
	Create(ctx context.Context, token *model.RefreshToken) error
	Consume(ctx context.Context, userID, token string, now time.Time) (bool, error)
	Delete(ctx context.Context, userID, token string) (int64, error)
	DeleteByUserID(ctx context.Context, userID string) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// TokenRepository implements IRefreshTokenRepository.
type TokenRepository struct {
	DB *sql.DB
}

// NewTokenRepository creates a new TokenRepository.
func NewTokenRepository(db *sql.DB) *TokenRepository {
	return &TokenRepository{DB: db}
}

// Create inserts a new refresh token record into the database.
func (r *TokenRepository) Create(ctx context.Context, token *model.RefreshToken) error {
	log := logger.Log.WithFields(logrus.Fields{
		"user_id":    token.UserID,
		"token":      logger.Fingerprint(token.Token),
		"expires_at": token.ExpiresAt,
	})
	log.Info("Executing query to create a new refresh token")

	query := `INSERT INTO refresh_tokens (user_id, token, expires_at) VALUES ($1, $2, $3) RETURNING id, created_at`
	err := r.DB.QueryRowContext(ctx, query, token.UserID, token.Token, token.ExpiresAt).Scan(&token.ID, &token.CreatedAt)
	if err != nil {
		log.WithError(err).Error("Failed to execute create refresh token query")
		return err
	}
	return nil
}

// Consume deletes the unexpired row matching (userID, token) and reports
// whether it existed. The single DELETE is the rotation gate: of two
// concurrent callers presenting the same token only one sees true.
func (r *TokenRepository) Consume(ctx context.Context, userID, token string, now time.Time) (bool, error) {
	log := logger.Log.WithFields(logrus.Fields{
		"user_id": userID,
		"token":   logger.Fingerprint(token),
	})
	log.Info("Executing query to consume a refresh token")

	if !isUUID(userID) {
		return false, nil
	}
	query := `DELETE FROM refresh_tokens WHERE user_id = $1 AND token = $2 AND expires_at > $3`
	res, err := r.DB.ExecContext(ctx, query, userID, token, now)
	if err != nil {
		log.WithError(err).Error("Failed to execute consume refresh token query")
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Delete removes the row matching exactly (userID, token). Zero rows is not an error.
func (r *TokenRepository) Delete(ctx context.Context, userID, token string) (int64, error) {
	log := logger.Log.WithFields(logrus.Fields{
		"user_id": userID,
		"token":   logger.Fingerprint(token),
	})
	log.Info("Executing query to delete a refresh token")

	if !isUUID(userID) {
		return 0, nil
	}
	query := `DELETE FROM refresh_tokens WHERE user_id = $1 AND token = $2`
	res, err := r.DB.ExecContext(ctx, query, userID, token)
	if err != nil {
		log.WithError(err).Error("Failed to execute delete refresh token query")
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteByUserID deletes all refresh tokens for a specific user.
// This is used to end every session of the user.
func (r *TokenRepository) DeleteByUserID(ctx context.Context, userID string) (int64, error) {
	log := logger.Log.WithField("user_id", userID)
	log.Info("Executing query to delete all refresh tokens for a user")

	if !isUUID(userID) {
		return 0, nil
	}
	query := `DELETE FROM refresh_tokens WHERE user_id = $1`
	res, err := r.DB.ExecContext(ctx, query, userID)
	if err != nil {
		log.WithError(err).Error("Failed to execute delete refresh tokens query")
		return 0, err
	}
	return res.RowsAffected()
}

func (r *TokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `DELETE FROM refresh_tokens WHERE expires_at <= $1`
	res, err := r.DB.ExecContext(ctx, query, now)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to execute prune refresh tokens query")
		return 0, err
	}
	return res.RowsAffected()
}
