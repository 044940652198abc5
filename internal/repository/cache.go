package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rgehrsitz/ratebook/internal/domain"
	"go.uber.org/zap"
)

// DefaultCacheTTL is used when a CachedRepository is created with ttl <= 0
const DefaultCacheTTL = 10 * time.Minute

// DialRedis connects to Redis and verifies the connection
func DialRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}
	return client, nil
}

// CachedRepository caches another repository's decoded rule-sets in Redis.
// The cache is best-effort: Redis errors are logged and the wrapped
// repository answers instead.
type CachedRepository struct {
	inner  Repository
	client redis.UniversalClient
	family string
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedRepository wraps inner with a Redis cache scoped to family
func NewCachedRepository(inner Repository, client redis.UniversalClient, family string, ttl time.Duration, logger *zap.Logger) *CachedRepository {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedRepository{
		inner:  inner,
		client: client,
		family: family,
		ttl:    ttl,
		logger: logger.With(zap.String("family", family)),
	}
}

func cacheKey(family, suffix string) string {
	return fmt.Sprintf("ratebook:%s:%s", family, suffix)
}

func (c *CachedRepository) LoadAll(ctx context.Context) ([]domain.RuleSet, error) {
	key := cacheKey(c.family, "all")

	var cached []domain.RuleSet
	if c.get(ctx, key, &cached) {
		return cached, nil
	}

	ruleSets, err := c.inner.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	c.set(ctx, key, ruleSets)
	return ruleSets, nil
}

func (c *CachedRepository) LoadOne(ctx context.Context, effectiveStart domain.Date) (domain.RuleSet, error) {
	key := cacheKey(c.family, effectiveStart.String())

	var cached domain.RuleSet
	if c.get(ctx, key, &cached) {
		return cached, nil
	}

	rs, err := c.inner.LoadOne(ctx, effectiveStart)
	if err != nil {
		return domain.RuleSet{}, err
	}
	c.set(ctx, key, rs)
	return rs, nil
}

// Invalidate deletes every cached entry of the family and returns how many
// keys were removed
func (c *CachedRepository) Invalidate(ctx context.Context) (int, error) {
	pattern := cacheKey(c.family, "*")

	var keys []string
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("failed to scan %s: %w", pattern, err)
	}
	if len(keys) == 0 {
		return 0, nil
	}

	removed, err := c.client.Del(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to delete cached keys: %w", err)
	}
	c.logger.Info("Invalidated rule-set cache", zap.Int64("keys", removed))
	return int(removed), nil
}

func (c *CachedRepository) get(ctx context.Context, key string, dest any) bool {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("Rule-set cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		c.logger.Warn("Discarding undecodable cache entry", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (c *CachedRepository) set(ctx context.Context, key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("Rule-set cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("Rule-set cache write failed", zap.String("key", key), zap.Error(err))
	}
}
