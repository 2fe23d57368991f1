package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wyfcoding/valuationengine/internal/valuation/domain"
)

// TaskRedisRepository 任务状态存储。
// 终态任务保留 24 小时供查询，活跃任务另外挂在一个索引集合上。
type TaskRedisRepository struct {
	client    redis.UniversalClient
	prefix    string
	activeKey string
	ttl       time.Duration
}

func NewTaskRedisRepository(client redis.UniversalClient) *TaskRedisRepository {
	return &TaskRedisRepository{
		client:    client,
		prefix:    "valuation:task:",
		activeKey: "valuation:tasks:active",
		ttl:       24 * time.Hour,
	}
}

func (r *TaskRedisRepository) Save(ctx context.Context, task *domain.Task) error {
	if task == nil {
		return nil
	}
	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}
	if err := r.client.Set(ctx, r.key(task.ID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save task to redis: %w", err)
	}
	if task.State.Terminal() {
		return r.client.SRem(ctx, r.activeKey, task.ID).Err()
	}
	return r.client.SAdd(ctx, r.activeKey, task.ID).Err()
}

func (r *TaskRedisRepository) Get(ctx context.Context, id string) (*domain.Task, error) {
	if id == "" {
		return nil, nil
	}
	data, err := r.client.Get(ctx, r.key(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task from redis: %w", err)
	}
	var task domain.Task
	if err := json.Unmarshal(data, &task); err != nil {
		return nil, fmt.Errorf("failed to unmarshal task: %w", err)
	}
	return &task, nil
}

func (r *TaskRedisRepository) ListActive(ctx context.Context) ([]*domain.Task, error) {
	ids, err := r.client.SMembers(ctx, r.activeKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list active task ids: %w", err)
	}
	tasks := make([]*domain.Task, 0, len(ids))
	for _, id := range ids {
		task, err := r.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if task == nil || task.State.Terminal() {
			// 索引里残留的已结束或已过期任务，顺手清掉。
			r.client.SRem(ctx, r.activeKey, id)
			continue
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

func (r *TaskRedisRepository) key(id string) string {
	return r.prefix + id
}
