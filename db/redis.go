package db

import (
	"context"
	"fmt"
	"net"
	"personal-brand-api/config"
	"personal-brand-api/logger"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisPingTimeout = 3 * time.Second

// ConnectRedis opens the profile cache client. It returns (nil, nil) when
// redis.host is empty so callers can run without a cache.
func ConnectRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	if cfg.Host == "" {
		logger.Log.Info("Redis host not set, profile cache disabled")
		return nil, nil
	}

	addr := net.JoinHostPort(cfg.Host, cfg.Port)
	rdb := redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: redisPingTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", addr, err)
	}

	logger.Log.WithField("address", addr).Info("Redis connection established")
	return rdb, nil
}
