package cache

import (
	"context"
	"encoding/json"
	"time"
	"wastewise/internal/domain/model"
	"wastewise/internal/platform/config"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// UserDirectory is a single-snapshot read-through cache of the user listing.
// It is invalidated synchronously on every credential-store mutation; a miss
// or a redis failure just falls back to the database.
type UserDirectory struct {
	rdb    *redis.Client
	key    string
	ttl    time.Duration
	logger zerolog.Logger
}

func NewUserDirectory(rdb *redis.Client, logger zerolog.Logger) *UserDirectory {
	return &UserDirectory{
		rdb:    rdb,
		key:    config.AppConfig.UserDirectoryCacheKey,
		ttl:    config.AppConfig.UserDirectoryCacheTTL,
		logger: logger,
	}
}

func (c *UserDirectory) Get(ctx context.Context) ([]model.User, bool) {
	payload, err := c.rdb.Get(ctx, c.key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn().Err(err).Msg("user directory cache read failed")
		}
		return nil, false
	}
	var users []model.User
	if err := json.Unmarshal(payload, &users); err != nil {
		c.logger.Warn().Err(err).Msg("user directory cache payload corrupt")
		return nil, false
	}
	return users, true
}

func (c *UserDirectory) Set(ctx context.Context, users []model.User) {
	payload, err := json.Marshal(users)
	if err != nil {
		c.logger.Warn().Err(err).Msg("user directory cache marshal failed")
		return
	}
	if err := c.rdb.Set(ctx, c.key, payload, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Msg("user directory cache write failed")
	}
}

func (c *UserDirectory) Invalidate(ctx context.Context) {
	if err := c.rdb.Del(ctx, c.key).Err(); err != nil {
		c.logger.Warn().Err(err).Msg("user directory cache invalidation failed")
	}
}
