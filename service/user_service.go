package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"personal-brand-api/logger"
	"personal-brand-api/model"
	"personal-brand-api/repository"
	"time"
)

const defaultProfileTTL = 10 * time.Minute

// UserService serves public profiles and owner-only profile edits.
type UserService struct {
	userRepo repository.IUserRepository
	hasher   PasswordHasher
	cache    ICacheClient
	ttl      time.Duration
}

// NewUserService creates a UserService. cache may be nil, which disables
// profile caching.
func NewUserService(userRepo repository.IUserRepository, hasher PasswordHasher, cache ICacheClient, ttl time.Duration) *UserService {
	if ttl <= 0 {
		ttl = defaultProfileTTL
	}
	return &UserService{userRepo: userRepo, hasher: hasher, cache: cache, ttl: ttl}
}

// GetProfile returns the public view of a user, using a cache-aside strategy.
func (s *UserService) GetProfile(ctx context.Context, id string) (*model.User, error) {
	key := profileCacheKey(id)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, key).Result(); err == nil {
			var user model.User
			if err := json.Unmarshal([]byte(cached), &user); err == nil {
				return &user, nil
			}
		}
	}

	user, err := s.userRepo.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("could not load user: %w", err)
	}

	if s.cache != nil {
		// The hash is tagged json:"-" and never reaches the cache.
		if data, err := json.Marshal(user); err == nil {
			if err := s.cache.Set(ctx, key, data, s.ttl).Err(); err != nil {
				logger.Log.WithError(err).WithField("user_id", id).Warn("Failed to cache profile")
			}
		}
	}
	return user, nil
}

// UpdateProfile applies a partial update. Only the profile owner may edit it.
func (s *UserService) UpdateProfile(ctx context.Context, id, requesterID string, req model.UpdateUserRequest) (*model.User, error) {
	if id != requesterID {
		return nil, ErrForbidden
	}

	user, err := s.userRepo.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("could not load user: %w", err)
	}

	var newHash string
	if req.Password != nil {
		if newHash, err = s.hasher.Hash(*req.Password); err != nil {
			return nil, err
		}
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Bio != nil {
		user.Bio = *req.Bio
	}
	if req.SocialLinks != nil {
		user.SocialLinks = req.SocialLinks
	}

	// The write may have landed even when an error comes back.
	if s.cache != nil {
		defer s.cache.Del(context.WithoutCancel(ctx), profileCacheKey(id))
	}
	if err := s.userRepo.UpdateProfile(ctx, user, newHash); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("could not update profile: %w", err)
	}
	if newHash != "" {
		user.PasswordHash = newHash
		logger.Log.WithField("user_id", id).Info("Password changed from profile")
	}
	return user, nil
}
