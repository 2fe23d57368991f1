package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/singleflight"

	"github.com/wyfcoding/valuationengine/internal/valuation/domain"
)

var (
	cacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "valuation_cache_hits_total",
		Help: "估值结果缓存命中总数",
	})
	cacheMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "valuation_cache_misses_total",
		Help: "估值结果缓存未命中总数",
	})
	cacheDegraded = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "valuation_cache_degraded_total",
		Help: "缓存不可用而降级为直接计算的次数",
	})
)

func init() {
	prometheus.MustRegister(cacheHits, cacheMisses, cacheDegraded)
}

// ComputationCache 在结果存储之上提供 get-or-compute 语义。
// 同一指纹的并发请求通过 singleflight 合并，进程内最多触发一次计算；
// 存储不可用时降级为直接计算，错误只记日志，不向调用方传播。
type ComputationCache struct {
	store  domain.ResultStore
	group  singleflight.Group
	logger *slog.Logger
}

func NewComputationCache(store domain.ResultStore, logger *slog.Logger) *ComputationCache {
	return &ComputationCache{store: store, logger: logger}
}

// Probe 只查不算。命中返回结果并计入命中数；存储错误按未命中降级处理。
// 未命中不计数，未命中的提交会在执行阶段经 GetOrCompute 记入未命中。
func (c *ComputationCache) Probe(ctx context.Context, fingerprint string) *domain.PricingResult {
	result, err := c.store.Get(ctx, fingerprint)
	if err != nil {
		cacheDegraded.Inc()
		c.logger.WarnContext(ctx, "result store unavailable, probing skipped",
			"fingerprint", fingerprint, "error", err)
		return nil
	}
	if result != nil {
		cacheHits.Inc()
		c.store.IncrementHit(ctx)
	}
	return result
}

// GetOrCompute 返回指纹对应的结果，未命中时调用 compute 并回写。
// 第二个返回值标记结果是否直接读自存储；合并到在途计算的跟随者
// 没有读到缓存，不算命中。compute 返回错误时不写缓存。
func (c *ComputationCache) GetOrCompute(
	ctx context.Context,
	fingerprint string,
	ttl time.Duration,
	compute func(ctx context.Context) (*domain.PricingResult, error),
) (*domain.PricingResult, bool, error) {
	cached, err := c.store.Get(ctx, fingerprint)
	if err != nil {
		// 降级：缓存层故障不能拖垮计算路径。
		cacheDegraded.Inc()
		c.logger.WarnContext(ctx, "result store unavailable, computing uncached",
			"fingerprint", fingerprint, "error", err)
		result, computeErr := compute(ctx)
		return result, false, computeErr
	}
	if cached != nil {
		cacheHits.Inc()
		c.store.IncrementHit(ctx)
		return cached, true, nil
	}

	cacheMisses.Inc()
	c.store.IncrementMiss(ctx)

	value, err, _ := c.group.Do(fingerprint, func() (any, error) {
		result, computeErr := compute(ctx)
		if computeErr != nil {
			return nil, computeErr
		}
		if setErr := c.store.Set(ctx, fingerprint, result, ttl); setErr != nil {
			c.logger.WarnContext(ctx, "failed to store computed result",
				"fingerprint", fingerprint, "error", setErr)
		}
		return result, nil
	})
	if err != nil {
		return nil, false, err
	}
	return value.(*domain.PricingResult), false, nil
}

// Stats 返回命中统计。
func (c *ComputationCache) Stats(ctx context.Context) (domain.CacheStats, error) {
	stats, err := c.store.Stats(ctx)
	if err != nil {
		return domain.CacheStats{}, err
	}
	stats.HitRate = stats.Rate()
	return stats, nil
}
