package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/culturematch/backend/internal/config"
	"github.com/culturematch/backend/internal/db"
)

type RedisCache struct {
	Client *redis.Client
}

// NewRedisCache initializes Redis client from config.
// Only Addr is mandatory, Password/DB are optional.
func NewRedisCache(cfg *config.Config) *RedisCache {
	opts := &redis.Options{
		Addr: cfg.Redis.Addr,
	}
	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}
	return &RedisCache{Client: redis.NewClient(opts)}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return c.Client.Set(ctx, key, value, ttl).Err()
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	return c.Client.Get(ctx, key).Result()
}

func (c *RedisCache) Del(ctx context.Context, key string) error {
	return c.Client.Del(ctx, key).Err()
}

// Pair-score cache. Keys are canonical-pair scoped and carry each user's
// generation counter, so bumping a user's generation invalidates every
// cached score involving them without scanning the keyspace.

func (c *RedisCache) keyForGen(userID uint64) string {
	return fmt.Sprintf("compat:gen:%d", userID)
}

func (c *RedisCache) keyForPairScore(ctx context.Context, userA, userB uint64) (string, error) {
	lo, hi := db.CanonicalPair(userA, userB)
	gens, err := c.Client.MGet(ctx, c.keyForGen(lo), c.keyForGen(hi)).Result()
	if err != nil {
		return "", err
	}
	gen := func(v interface{}) string {
		if s, ok := v.(string); ok {
			return s
		}
		return "0"
	}
	return fmt.Sprintf("compat:score:%d:%d:g%s:g%s", lo, hi, gen(gens[0]), gen(gens[1])), nil
}

// GetPairScore returns the cached compatibility score for a pair, if any.
func (c *RedisCache) GetPairScore(ctx context.Context, userA, userB uint64) (float64, bool, error) {
	key, err := c.keyForPairScore(ctx, userA, userB)
	if err != nil {
		return 0, false, err
	}
	val, err := c.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil // cache miss
	} else if err != nil {
		return 0, false, err
	}
	score, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, false, nil
	}
	return score, true, nil
}

// SetPairScore caches a pair's compatibility score with the given TTL.
func (c *RedisCache) SetPairScore(ctx context.Context, userA, userB uint64, score float64, ttl time.Duration) error {
	key, err := c.keyForPairScore(ctx, userA, userB)
	if err != nil {
		return err
	}
	return c.Client.Set(ctx, key, strconv.FormatFloat(score, 'f', 2, 64), ttl).Err()
}

// InvalidateUserScores bumps the user's generation counter, orphaning all
// cached scores that involve them. The generation key carries no TTL so it
// can never fall back behind still-cached score entries.
func (c *RedisCache) InvalidateUserScores(ctx context.Context, userID uint64) error {
	return c.Client.Incr(ctx, c.keyForGen(userID)).Err()
}
