package repository

import (
	"context"
	"database/sql"
	"errors"
	"personal-brand-api/logger"
	"personal-brand-api/model"
	"time"
)

// IResetTokenRepository persists password reset tokens, at most one per user.
type IResetTokenRepository interface {
	Replace(ctx context.Context, token *model.PasswordResetToken) error
	Consume(ctx context.Context, token string, now time.Time) (string, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type ResetTokenRepository struct {
	DB *sql.DB
}

func NewResetTokenRepository(db *sql.DB) *ResetTokenRepository {
	return &ResetTokenRepository{DB: db}
}

// Replace stores token as the only reset token of its user, superseding any
// previous one in the same statement.
func (r *ResetTokenRepository) Replace(ctx context.Context, token *model.PasswordResetToken) error {
	log := logger.Log.WithField("user_id", token.UserID)
	log.Info("Executing query to replace password reset token")

	query := `
		INSERT INTO password_reset_tokens (user_id, token, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE
		SET token = EXCLUDED.token, expires_at = EXCLUDED.expires_at, created_at = NOW()
		RETURNING id, created_at`
	err := r.DB.QueryRowContext(ctx, query, token.UserID, token.Token, token.ExpiresAt).Scan(&token.ID, &token.CreatedAt)
	if err != nil {
		log.WithError(err).Error("Failed to execute replace reset token query")
		return err
	}
	return nil
}

// Consume deletes the token if it has not expired and returns its owner.
// It returns ErrNotFound for unknown, already used or expired tokens.
func (r *ResetTokenRepository) Consume(ctx context.Context, token string, now time.Time) (string, error) {
	log := logger.Log.WithField("token", logger.Fingerprint(token))
	log.Info("Executing query to consume password reset token")

	var userID string
	query := `DELETE FROM password_reset_tokens WHERE token = $1 AND expires_at >= $2 RETURNING user_id`
	err := r.DB.QueryRowContext(ctx, query, token, now).Scan(&userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		log.WithError(err).Error("Failed to execute consume reset token query")
		return "", err
	}
	return userID, nil
}

func (r *ResetTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `DELETE FROM password_reset_tokens WHERE expires_at < $1`
	res, err := r.DB.ExecContext(ctx, query, now)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to execute prune reset tokens query")
		return 0, err
	}
	return res.RowsAffected()
}
