package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wyfcoding/valuationengine/internal/valuation/domain"
)

// ResultRedisStore 以指纹为键缓存估值结果，命中计数也落在 redis 里，
// 多个 api/worker 进程共享同一份统计。
type ResultRedisStore struct {
	client  redis.UniversalClient
	prefix  string
	hitKey  string
	missKey string
}

func NewResultRedisStore(client redis.UniversalClient) *ResultRedisStore {
	return &ResultRedisStore{
		client:  client,
		prefix:  "valuation:result:",
		hitKey:  "valuation:cache:hits",
		missKey: "valuation:cache:misses",
	}
}

func (r *ResultRedisStore) Get(ctx context.Context, fingerprint string) (*domain.PricingResult, error) {
	if fingerprint == "" {
		return nil, nil
	}
	data, err := r.client.Get(ctx, r.key(fingerprint)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get result from redis: %w", err)
	}
	var result domain.PricingResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal result: %w", err)
	}
	return &result, nil
}

func (r *ResultRedisStore) Set(ctx context.Context, fingerprint string, result *domain.PricingResult, ttl time.Duration) error {
	if result == nil {
		return nil
	}
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	return r.client.Set(ctx, r.key(fingerprint), data, ttl).Err()
}

func (r *ResultRedisStore) IncrementHit(ctx context.Context) {
	r.client.Incr(ctx, r.hitKey)
}

func (r *ResultRedisStore) IncrementMiss(ctx context.Context) {
	r.client.Incr(ctx, r.missKey)
}

func (r *ResultRedisStore) Stats(ctx context.Context) (domain.CacheStats, error) {
	values, err := r.client.MGet(ctx, r.hitKey, r.missKey).Result()
	if err != nil {
		return domain.CacheStats{}, fmt.Errorf("failed to read cache stats: %w", err)
	}
	return domain.CacheStats{
		HitCount:  parseCounter(values[0]),
		MissCount: parseCounter(values[1]),
	}, nil
}

func parseCounter(v any) int64 {
	s, ok := v.(string)
	if !ok {
		return 0
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func (r *ResultRedisStore) key(fingerprint string) string {
	return r.prefix + fingerprint
}
