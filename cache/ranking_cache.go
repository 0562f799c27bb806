// Package cache хранит посчитанные рейтинги, чтобы не пересчитывать их на
// каждый запрос.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/bolao-system/ranking"
	"github.com/redis/go-redis/v9"
)

// ErrMiss: в кеше нет значения.
var ErrMiss = errors.New("cache miss")

const generalKey = "ranking:general"

type RankingCache interface {
	GetContest(ctx context.Context, contestID int) (*ranking.Ranking, error)
	SetContest(ctx context.Context, contestID int, r *ranking.Ranking) error
	GetGeneral(ctx context.Context) (*ranking.Ranking, error)
	SetGeneral(ctx context.Context, r *ranking.Ranking) error
	// Invalidate удаляет рейтинг конкурса и общий рейтинг.
	Invalidate(ctx context.Context, contestID int) error
}

type redisRankingCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewRedisRankingCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) RankingCache {
	return &redisRankingCache{client: client, ttl: ttl, logger: logger}
}

func contestKey(contestID int) string {
	return fmt.Sprintf("ranking:contest:%d", contestID)
}

func (c *redisRankingCache) get(ctx context.Context, key string) (*ranking.Ranking, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrMiss
		}
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	var r ranking.Ranking
	if err := json.Unmarshal(data, &r); err != nil {
		// битое значение считаем промахом
		c.logger.Warn("Redis ranking payload is corrupted", slog.String("key", key), slog.Any("error", err))
		return nil, ErrMiss
	}
	return &r, nil
}

func (c *redisRankingCache) set(ctx context.Context, key string, r *ranking.Ranking) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal ranking: %w", err)
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (c *redisRankingCache) GetContest(ctx context.Context, contestID int) (*ranking.Ranking, error) {
	return c.get(ctx, contestKey(contestID))
}

func (c *redisRankingCache) SetContest(ctx context.Context, contestID int, r *ranking.Ranking) error {
	return c.set(ctx, contestKey(contestID), r)
}

func (c *redisRankingCache) GetGeneral(ctx context.Context) (*ranking.Ranking, error) {
	return c.get(ctx, generalKey)
}

func (c *redisRankingCache) SetGeneral(ctx context.Context, r *ranking.Ranking) error {
	return c.set(ctx, generalKey, r)
}

func (c *redisRankingCache) Invalidate(ctx context.Context, contestID int) error {
	if err := c.client.Del(ctx, contestKey(contestID), generalKey).Err(); err != nil {
		return fmt.Errorf("redis del ranking %d: %w", contestID, err)
	}
	return nil
}

type noopRankingCache struct{}

// NewNoopRankingCache используется, когда REDIS_ADDR не задан.
func NewNoopRankingCache() RankingCache {
	return noopRankingCache{}
}

func (noopRankingCache) GetContest(context.Context, int) (*ranking.Ranking, error) {
	return nil, ErrMiss
}

func (noopRankingCache) SetContest(context.Context, int, *ranking.Ranking) error { return nil }

func (noopRankingCache) GetGeneral(context.Context) (*ranking.Ranking, error) {
	return nil, ErrMiss
}

func (noopRankingCache) SetGeneral(context.Context, *ranking.Ranking) error { return nil }

func (noopRankingCache) Invalidate(context.Context, int) error { return nil }
