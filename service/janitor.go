package service

import (
	"context"
	"personal-brand-api/logger"
	"personal-brand-api/metrics"
	"personal-brand-api/repository"
	"time"

	"github.com/sirupsen/logrus"
)

// PruneResult counts the expired rows removed by one pass.
type PruneResult struct {
	RefreshTokens int64
	ResetTokens   int64
}

// TokenJanitor periodically deletes expired refresh and reset tokens.
// Expired rows are already unusable; pruning only reclaims space.
type TokenJanitor struct {
	refreshRepo repository.IRefreshTokenRepository
	resetRepo   repository.IResetTokenRepository
	interval    time.Duration
	now         func() time.Time
}

func NewTokenJanitor(refreshRepo repository.IRefreshTokenRepository, resetRepo repository.IResetTokenRepository, interval time.Duration) *TokenJanitor {
	if interval <= 0 {
		interval = time.Hour
	}
	return &TokenJanitor{refreshRepo: refreshRepo, resetRepo: resetRepo, interval: interval, now: time.Now}
}

// PruneOnce runs a single pass. Reset tokens are still pruned when the
// refresh pass fails; the first error is returned.
func (j *TokenJanitor) PruneOnce(ctx context.Context) (PruneResult, error) {
	var res PruneResult
	now := j.now()

	refreshed, refreshErr := j.refreshRepo.DeleteExpired(ctx, now)
	if refreshErr == nil {
		res.RefreshTokens = refreshed
		metrics.ObservePruned("refresh", refreshed)
	}
	reset, resetErr := j.resetRepo.DeleteExpired(ctx, now)
	if resetErr == nil {
		res.ResetTokens = reset
		metrics.ObservePruned("reset", reset)
	}

	if refreshErr != nil {
		return res, refreshErr
	}
	return res, resetErr
}

// Run prunes every interval until ctx is cancelled.
func (j *TokenJanitor) Run(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	logger.Log.WithField("interval", j.interval.String()).Info("Token janitor started")
	for {
		select {
		case <-ctx.Done():
			logger.Log.Info("Token janitor stopped")
			return
		case <-ticker.C:
			res, err := j.PruneOnce(ctx)
			if err != nil {
				logger.Log.WithError(err).Error("Failed to prune expired tokens")
				continue
			}
			logger.Log.WithFields(logrus.Fields{
				"refresh_tokens": res.RefreshTokens,
				"reset_tokens":   res.ResetTokens,
			}).Info("Pruned expired tokens")
		}
	}
}
