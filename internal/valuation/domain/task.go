package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TaskState 异步任务生命周期状态。
type TaskState string

const (
	TaskQueued    TaskState = "queued"
	TaskRunning   TaskState = "running"
	TaskCompleted TaskState = "completed"
	TaskFailed    TaskState = "failed"
	TaskCancelled TaskState = "cancelled"
)

// Terminal 报告该状态是否为终态。终态不可再迁移。
func (s TaskState) Terminal() bool {
	switch s {
	case TaskCompleted, TaskFailed, TaskCancelled:
		return true
	}
	return false
}

// 合法的状态迁移表。任务只能单向推进，不允许回退或复活。
var taskTransitions = map[TaskState][]TaskState{
	TaskQueued:  {TaskRunning, TaskCancelled},
	TaskRunning: {TaskCompleted, TaskFailed, TaskCancelled},
}

// Task 一次异步估值任务。状态、进度与结果都挂在任务上，
// 对外查询只读这一份快照。
type Task struct {
	ID          string    `json:"id"`
	Job         Job       `json:"job"`
	Fingerprint string    `json:"fingerprint"`
	State       TaskState `json:"state"`

	// Progress 取值 0 到 100，按路径批次粒度推进。
	Progress int `json:"progress"`

	Result *PricingResult `json:"result,omitempty"`
	Error  string         `json:"error,omitempty"`

	// CancelRequested 在 running 态收到取消请求时置位，
	// 由计算循环在批次边界协作式响应。
	CancelRequested bool `json:"cancel_requested,omitempty"`

	// CacheHit 标记该任务由缓存命中直接完成，没有触发计算。
	CacheHit bool `json:"cache_hit,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// NewTask 创建一个排队中的任务。
func NewTask(job Job, fingerprint string) *Task {
	return &Task{
		ID:          uuid.NewString(),
		Job:         job,
		Fingerprint: fingerprint,
		State:       TaskQueued,
		CreatedAt:   time.Now().UTC(),
	}
}

// NewCachedTask 创建一个由缓存命中直接完成的任务，不经过队列。
func NewCachedTask(job Job, fingerprint string, result *PricingResult) *Task {
	now := time.Now().UTC()
	return &Task{
		ID:          uuid.NewString(),
		Job:         job,
		Fingerprint: fingerprint,
		State:       TaskCompleted,
		Progress:    100,
		Result:      result,
		CacheHit:    true,
		CreatedAt:   now,
		CompletedAt: &now,
	}
}

// TransitionTo 执行一次状态迁移，非法迁移返回错误。
func (t *Task) TransitionTo(next TaskState) error {
	for _, allowed := range taskTransitions[t.State] {
		if allowed == next {
			t.applyTransition(next)
			return nil
		}
	}
	return fmt.Errorf("illegal task transition %s -> %s", t.State, next)
}

func (t *Task) applyTransition(next TaskState) {
	now := time.Now().UTC()
	t.State = next
	switch next {
	case TaskRunning:
		t.StartedAt = &now
	case TaskCompleted:
		t.Progress = 100
		t.CompletedAt = &now
	case TaskFailed, TaskCancelled:
		t.CompletedAt = &now
	}
}

// Complete 以成功结果结束任务。
func (t *Task) Complete(result *PricingResult) error {
	if err := t.TransitionTo(TaskCompleted); err != nil {
		return err
	}
	t.Result = result
	return nil
}

// Fail 以失败结束任务，记录错误描述。失败的任务不携带部分结果。
func (t *Task) Fail(cause error) error {
	if err := t.TransitionTo(TaskFailed); err != nil {
		return err
	}
	t.Error = cause.Error()
	t.Result = nil
	return nil
}

// CancelNow 将任务迁移到 cancelled，丢弃一切部分结果。
func (t *Task) CancelNow() error {
	if err := t.TransitionTo(TaskCancelled); err != nil {
		return err
	}
	t.Result = nil
	return nil
}
