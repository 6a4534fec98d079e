package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"geopulse-relay-svc/src/internal/config"
	"geopulse-relay-svc/src/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Service mirrors the active-users snapshot into Redis so out-of-process
// consumers can read presence without a socket connection. The in-memory
// registry stays authoritative; this mirror is best-effort.
type Service interface {
	SaveActiveUsers(ctx context.Context, sessions []models.Session) error
	GetActiveUsers(ctx context.Context) ([]models.Session, error)
}

// redisCommands is the subset of the redis client the mirror uses.
type redisCommands interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

type cacheService struct {
	client redisCommands
	cfg    *config.CacheConfig
}

func NewCacheService(client redisCommands, cfg *config.Configuration) Service {
	return &cacheService{
		client: client,
		cfg:    &cfg.Cache}
}

func (c *cacheService) SaveActiveUsers(ctx context.Context, sessions []models.Session) error {
	data, err := json.Marshal(sessions)
	if err != nil {
		logrus.WithError(err).Error("Failed to marshal active users for cache")
		return models.ErrRedisSet
	}

	expiration := time.Duration(c.cfg.ActiveUsersExpirationMinutes) * time.Minute
	err = c.client.Set(ctx, c.cfg.ActiveUsersKey, data, expiration).Err()
	if err != nil {
		logrus.WithError(err).Error("Failed to cache active users snapshot")
		return models.ErrRedisSet
	}

	logrus.WithField("count", len(sessions)).Debug("Active users snapshot cached")
	return nil
}

func (c *cacheService) GetActiveUsers(ctx context.Context) ([]models.Session, error) {
	data, err := c.client.Get(ctx, c.cfg.ActiveUsersKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			logrus.Debug("Active users snapshot not found in cache")
			return nil, nil // Not an error, just not found
		}
		logrus.WithError(err).Error("Failed to get active users snapshot from cache")
		return nil, models.ErrRedisGet
	}

	var sessions []models.Session
	if err := json.Unmarshal([]byte(data), &sessions); err != nil {
		logrus.WithError(err).Error("Failed to unmarshal active users snapshot")
		return nil, models.ErrRedisGet
	}

	return sessions, nil
}
