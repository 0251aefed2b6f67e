// Package cache provides a Redis-backed cache for computed availability
// lists. Misses and Redis failures fall through to a fresh computation;
// the cache is an optimization, never an authority.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/medagenda/api/internal/config"
)

type AvailabilityCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

func NewAvailabilityCache(cfg config.RedisConfig, log *zap.Logger) (*AvailabilityCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &AvailabilityCache{client: client, ttl: cfg.TTL, log: log}, nil
}

func key(date string, doctorID uint) string {
	return fmt.Sprintf("avail:%s:%d", date, doctorID)
}

func (c *AvailabilityCache) Get(ctx context.Context, date string, doctorID uint) ([]string, bool) {
	raw, err := c.client.Get(ctx, key(date, doctorID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.Warn("availability cache read failed", zap.Error(err))
		}
		return nil, false
	}

	var times []string
	if err := json.Unmarshal(raw, &times); err != nil {
		c.log.Warn("availability cache entry corrupt, discarding", zap.Error(err))
		_ = c.client.Del(ctx, key(date, doctorID)).Err()
		return nil, false
	}
	return times, true
}

func (c *AvailabilityCache) Set(ctx context.Context, date string, doctorID uint, times []string) {
	raw, err := json.Marshal(times)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key(date, doctorID), raw, c.ttl).Err(); err != nil {
		c.log.Warn("availability cache write failed", zap.Error(err))
	}
}

// InvalidateDate removes every doctor's cached availability for the date.
// Bookings and blocked times change one doctor's or all doctors' view, so
// invalidation is by date rather than by exact key.
func (c *AvailabilityCache) InvalidateDate(ctx context.Context, date string) {
	pattern := fmt.Sprintf("avail:%s:*", date)
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()

	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.log.Warn("availability cache scan failed", zap.String("date", date), zap.Error(err))
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.log.Warn("availability cache invalidation failed", zap.String("date", date), zap.Error(err))
	}
}

func (c *AvailabilityCache) Close() error {
	return c.client.Close()
}
