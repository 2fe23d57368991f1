package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/wyfcoding/valuationengine/internal/valuation/domain"
)

var (
	tasksSubmitted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "valuation_tasks_submitted_total",
		Help: "提交的估值任务总数",
	}, []string{"model"})
	tasksFinished = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "valuation_tasks_finished_total",
		Help: "结束的估值任务总数",
	}, []string{"model", "state"})
	taskDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "valuation_task_duration_seconds",
		Help:    "任务执行耗时",
		Buckets: prometheus.DefBuckets,
	}, []string{"model"})
)

func init() {
	prometheus.MustRegister(tasksSubmitted, tasksFinished, taskDuration)
}

// TTLPolicy 按模型类别决定结果缓存时长。
// 模拟类结果参数空间大、复用率低，保留时间短于封闭解。
type TTLPolicy struct {
	ClosedForm time.Duration
	Simulation time.Duration
}

// DefaultTTLPolicy 返回默认缓存策略。
func DefaultTTLPolicy() TTLPolicy {
	return TTLPolicy{
		ClosedForm: time.Hour,
		Simulation: 30 * time.Minute,
	}
}

// ForModel 返回给定模型的缓存时长。
func (p TTLPolicy) ForModel(m domain.Model) time.Duration {
	switch m {
	case domain.ModelMonteCarlo, domain.ModelExoticOption, domain.ModelPortfolio:
		return p.Simulation
	default:
		return p.ClosedForm
	}
}

// cancelCheckInterval 执行中每隔多少个进度批次回源检查一次取消标记。
const cancelCheckInterval = 10

// Orchestrator 异步任务编排器：提交、执行、查询与取消。
// 任务状态全部落在 TaskRepository 中，Orchestrator 本身只在内存里
// 保留本进程在跑任务的 cancel 句柄。
type Orchestrator struct {
	repo   domain.TaskRepository
	queue  domain.TaskQueue
	cache  *ComputationCache
	ttl    TTLPolicy
	logger *slog.Logger

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
}

func NewOrchestrator(
	repo domain.TaskRepository,
	queue domain.TaskQueue,
	cache *ComputationCache,
	ttl TTLPolicy,
	logger *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		repo:    repo,
		queue:   queue,
		cache:   cache,
		ttl:     ttl,
		logger:  logger,
		cancels: make(map[string]context.CancelFunc),
	}
}

// Submit 校验作业并提交异步任务。
// 提交前先探测缓存，命中时直接返回一个已完成的任务，不占用队列。
func (o *Orchestrator) Submit(ctx context.Context, job domain.Job) (*domain.Task, error) {
	if err := job.Validate(); err != nil {
		return nil, err
	}
	job = job.Normalize()
	fingerprint, err := job.Fingerprint()
	if err != nil {
		return nil, fmt.Errorf("fingerprint job: %w", err)
	}

	if cached := o.cache.Probe(ctx, fingerprint); cached != nil {
		task := domain.NewCachedTask(job, fingerprint, cached)
		if err := o.repo.Save(ctx, task); err != nil {
			return nil, fmt.Errorf("save cached task: %w", err)
		}
		o.logger.InfoContext(ctx, "task served from cache",
			"task_id", task.ID, "model", job.Model, "fingerprint", fingerprint)
		return task, nil
	}

	task := domain.NewTask(job, fingerprint)
	if err := o.repo.Save(ctx, task); err != nil {
		return nil, fmt.Errorf("save task: %w", err)
	}
	if err := o.queue.Enqueue(ctx, task); err != nil {
		_ = task.Fail(fmt.Errorf("enqueue: %w", err))
		if saveErr := o.repo.Save(ctx, task); saveErr != nil {
			o.logger.ErrorContext(ctx, "failed to persist enqueue failure",
				"task_id", task.ID, "error", saveErr)
		}
		return nil, fmt.Errorf("enqueue task: %w", err)
	}

	tasksSubmitted.WithLabelValues(string(job.Model)).Inc()
	o.logger.InfoContext(ctx, "task submitted",
		"task_id", task.ID, "model", job.Model, "fingerprint", fingerprint)
	return task, nil
}

// Execute 执行一个已入队的任务。由进程内 worker 池或消费者调用。
// 计算与回写都经由缓存层完成，失败与取消的任务绝不写入结果缓存。
func (o *Orchestrator) Execute(ctx context.Context, taskID string) error {
	task, err := o.repo.Get(ctx, taskID)
	if err != nil {
		return fmt.Errorf("load task %s: %w", taskID, err)
	}
	if task == nil {
		o.logger.WarnContext(ctx, "task not found, dropping", "task_id", taskID)
		return nil
	}
	if task.State != domain.TaskQueued {
		// 队列重复投递或任务在排队期已被取消。
		return nil
	}
	if task.CancelRequested {
		return o.finishCancelled(ctx, task)
	}

	if err := task.TransitionTo(domain.TaskRunning); err != nil {
		return err
	}
	if err := o.repo.Save(ctx, task); err != nil {
		return fmt.Errorf("mark task running: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	o.mu.Lock()
	o.cancels[task.ID] = cancel
	o.mu.Unlock()
	defer func() {
		o.mu.Lock()
		delete(o.cancels, task.ID)
		o.mu.Unlock()
		cancel()
	}()

	// 计算走缓存的 get-or-compute：提交后才被其他进程算完的指纹直接复用，
	// 同指纹的并发任务经 singleflight 合并为一次计算，未命中计入缓存统计。
	start := time.Now()
	result, hit, err := o.cache.GetOrCompute(runCtx, task.Fingerprint, o.ttl.ForModel(task.Job.Model),
		func(computeCtx context.Context) (*domain.PricingResult, error) {
			return o.run(computeCtx, task, cancel)
		})

	switch {
	case errors.Is(err, domain.ErrCancelled) || (err != nil && runCtx.Err() != nil):
		return o.finishCancelled(ctx, task)
	case err != nil:
		if failErr := task.Fail(err); failErr != nil {
			return failErr
		}
		tasksFinished.WithLabelValues(string(task.Job.Model), string(domain.TaskFailed)).Inc()
		o.logger.ErrorContext(ctx, "task failed",
			"task_id", task.ID, "model", task.Job.Model, "error", err)
		return o.repo.Save(ctx, task)
	default:
		task.CacheHit = hit
		if err := task.Complete(result); err != nil {
			return err
		}
		tasksFinished.WithLabelValues(string(task.Job.Model), string(domain.TaskCompleted)).Inc()
		taskDuration.WithLabelValues(string(task.Job.Model)).Observe(time.Since(start).Seconds())
		o.logger.InfoContext(ctx, "task completed",
			"task_id", task.ID, "model", task.Job.Model,
			"duration", time.Since(start))
		return o.repo.Save(ctx, task)
	}
}

// run 调用定价内核并处理进度上报与跨进程取消。panic 折算为 WorkerFailure。
func (o *Orchestrator) run(ctx context.Context, task *domain.Task, cancel context.CancelFunc) (result *domain.PricingResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = domain.WorkerFailure(fmt.Errorf("panic: %v", r))
			o.logger.ErrorContext(ctx, "task panicked", "task_id", task.ID, "panic", r)
		}
	}()

	var batches int
	progress := func(done, total int) {
		task.Progress = done * 100 / total
		batches++
		if batches%cancelCheckInterval != 0 {
			return
		}
		// 进度顺带落库，并回源检查其他进程发来的取消请求。
		stored, loadErr := o.repo.Get(ctx, task.ID)
		if loadErr == nil && stored != nil && stored.CancelRequested {
			task.CancelRequested = true
			cancel()
			return
		}
		if saveErr := o.repo.Save(ctx, task); saveErr != nil {
			o.logger.WarnContext(ctx, "failed to persist progress",
				"task_id", task.ID, "error", saveErr)
		}
	}

	return task.Job.Compute(ctx, progress)
}

func (o *Orchestrator) finishCancelled(ctx context.Context, task *domain.Task) error {
	if err := task.CancelNow(); err != nil {
		return err
	}
	tasksFinished.WithLabelValues(string(task.Job.Model), string(domain.TaskCancelled)).Inc()
	o.logger.InfoContext(ctx, "task cancelled", "task_id", task.ID, "model", task.Job.Model)
	return o.repo.Save(ctx, task)
}

// Status 查询任务快照，未知任务返回 NotFound。
func (o *Orchestrator) Status(ctx context.Context, id string) (*domain.Task, error) {
	task, err := o.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load task %s: %w", id, err)
	}
	if task == nil {
		return nil, ErrTaskNotFound
	}
	return task, nil
}

// Cancel 请求取消任务。返回值表示请求是否被接受：
// 排队中的任务立即取消，运行中的任务置位取消标记等待批次边界生效，
// 已终态的任务返回 false 表示本次请求为无操作。
func (o *Orchestrator) Cancel(ctx context.Context, id string) (bool, error) {
	task, err := o.repo.Get(ctx, id)
	if err != nil {
		return false, fmt.Errorf("load task %s: %w", id, err)
	}
	if task == nil {
		return false, ErrTaskNotFound
	}
	if task.State.Terminal() {
		return false, nil
	}

	if task.State == domain.TaskQueued {
		if err := task.CancelNow(); err != nil {
			return false, err
		}
		tasksFinished.WithLabelValues(string(task.Job.Model), string(domain.TaskCancelled)).Inc()
		return true, o.repo.Save(ctx, task)
	}

	task.CancelRequested = true
	if err := o.repo.Save(ctx, task); err != nil {
		return false, fmt.Errorf("mark cancel requested: %w", err)
	}
	// 任务在本进程运行时直接打断，否则等执行方回源看到标记。
	o.mu.Lock()
	if cancel, ok := o.cancels[id]; ok {
		cancel()
	}
	o.mu.Unlock()
	o.logger.InfoContext(ctx, "task cancel requested", "task_id", id)
	return true, nil
}

// ListActive 返回所有未终态的任务。
func (o *Orchestrator) ListActive(ctx context.Context) ([]*domain.Task, error) {
	return o.repo.ListActive(ctx)
}

// CacheStats 返回结果缓存的命中统计。
func (o *Orchestrator) CacheStats(ctx context.Context) (domain.CacheStats, error) {
	return o.cache.Stats(ctx)
}
