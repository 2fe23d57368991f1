package queue

import (
	"context"
	"log/slog"

	"github.com/wyfcoding/pkg/worker"

	"github.com/wyfcoding/valuationengine/internal/valuation/domain"
)

// ExecuteFunc 执行一个已入队的任务。
type ExecuteFunc func(ctx context.Context, taskID string) error

// PoolQueue 进程内任务队列，基于共享 worker 池。
// 单机部署时 api 进程自己消费队列，不依赖外部消息中间件。
type PoolQueue struct {
	pool    *worker.Pool
	execute ExecuteFunc
	logger  *slog.Logger
}

func NewPoolQueue(size, queueSize int, logger *slog.Logger) *PoolQueue {
	return &PoolQueue{
		pool: worker.NewPool(
			worker.WithName("valuation"),
			worker.WithSize(size),
			worker.WithQueueSize(queueSize),
		),
		logger: logger,
	}
}

// Bind 绑定执行函数。队列与编排器互相引用，绑定放在两者都构造完成之后。
func (q *PoolQueue) Bind(execute ExecuteFunc) {
	q.execute = execute
}

func (q *PoolQueue) Enqueue(_ context.Context, task *domain.Task) error {
	id := task.ID
	return q.pool.Submit(func(ctx context.Context) {
		if err := q.execute(ctx, id); err != nil {
			q.logger.Error("task execution failed", "task_id", id, "error", err)
		}
	})
}

// Stop 停止 worker 池，等待在跑任务结束。
func (q *PoolQueue) Stop() {
	q.pool.Stop()
}
