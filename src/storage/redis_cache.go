package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"market-dashboard/src/logger"
	"market-dashboard/src/models"

	"github.com/redis/go-redis/v9"
)

const groupsKey = "market-dashboard:groups"

// -----------------------------------------------------------------------------

// RedisGroupsCache shares the group catalogue between dashboard instances.
type RedisGroupsCache struct {
	RDB    *redis.Client
	TTL    time.Duration
	Key    string
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewRedisGroupsCache(cfg *models.MCacheConfig, log *logger.Logger) *RedisGroupsCache {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	return &RedisGroupsCache{
		RDB:    rdb,
		TTL:    time.Duration(cfg.TTLSeconds) * time.Second,
		Key:    groupsKey,
		Logger: log,
	}
}

// -----------------------------------------------------------------------------

// Ping checks the connection.
func (c *RedisGroupsCache) Ping(ctx context.Context) error {
	return c.RDB.Ping(ctx).Err()
}

// -----------------------------------------------------------------------------

func (c *RedisGroupsCache) Get(ctx context.Context) (models.MGroupsData, bool, error) {
	res, err := c.RDB.Get(ctx, c.Key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", c.Key, err)
	}

	var groups models.MGroupsData
	if err := json.Unmarshal([]byte(res), &groups); err != nil {
		c.Logger.Warning("Dropping undecodable cached groups: %v", err)
		_ = c.Invalidate(ctx)
		return nil, false, nil
	}
	return groups, true, nil
}

// -----------------------------------------------------------------------------

func (c *RedisGroupsCache) Set(ctx context.Context, groups models.MGroupsData) error {
	encoded, err := json.Marshal(groups)
	if err != nil {
		return err
	}
	if err := c.RDB.Set(ctx, c.Key, string(encoded), c.TTL).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", c.Key, err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (c *RedisGroupsCache) Invalidate(ctx context.Context) error {
	return c.RDB.Del(ctx, c.Key).Err()
}

// -----------------------------------------------------------------------------

func (c *RedisGroupsCache) Close() error {
	return c.RDB.Close()
}
