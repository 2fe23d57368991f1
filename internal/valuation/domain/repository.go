package domain

import (
	"context"
	"time"
)

// ResultStore 以指纹为键、带 TTL 的结果存储，同时维护命中计数。
// Get 未命中时返回 (nil, nil)；返回错误表示存储不可用，调用方应降级为直接计算。
type ResultStore interface {
	Get(ctx context.Context, fingerprint string) (*PricingResult, error)
	Set(ctx context.Context, fingerprint string, result *PricingResult, ttl time.Duration) error
	IncrementHit(ctx context.Context)
	IncrementMiss(ctx context.Context)
	Stats(ctx context.Context) (CacheStats, error)
}

// CacheStats 缓存命中统计。
type CacheStats struct {
	HitCount  int64   `json:"hit_count"`
	MissCount int64   `json:"miss_count"`
	HitRate   float64 `json:"hit_rate"`
}

// Rate 计算命中率，无访问时为 0。
func (s CacheStats) Rate() float64 {
	total := s.HitCount + s.MissCount
	if total == 0 {
		return 0
	}
	return float64(s.HitCount) / float64(total)
}

// TaskRepository 任务状态存储。所有写入都是整任务的单键 upsert。
// Get 对未知任务返回 (nil, nil)。
type TaskRepository interface {
	Save(ctx context.Context, task *Task) error
	Get(ctx context.Context, id string) (*Task, error)
	ListActive(ctx context.Context) ([]*Task, error)
}

// TaskQueue 把已入库的任务投递给执行方。
type TaskQueue interface {
	Enqueue(ctx context.Context, task *Task) error
}
