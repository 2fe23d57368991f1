package application

import (
	"time"

	"github.com/wyfcoding/valuationengine/internal/valuation/domain"
)

// TaskDTO 任务对外视图。
type TaskDTO struct {
	ID          string                `json:"task_id"`
	Model       domain.Model          `json:"model"`
	State       domain.TaskState      `json:"state"`
	Progress    int                   `json:"progress"`
	Result      *domain.PricingResult `json:"result,omitempty"`
	Error       string                `json:"error,omitempty"`
	CacheHit    bool                  `json:"cache_hit,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
	StartedAt   *time.Time            `json:"started_at,omitempty"`
	CompletedAt *time.Time            `json:"completed_at,omitempty"`
}

func toTaskDTO(t *domain.Task) *TaskDTO {
	return &TaskDTO{
		ID:          t.ID,
		Model:       t.Job.Model,
		State:       t.State,
		Progress:    t.Progress,
		Result:      t.Result,
		Error:       t.Error,
		CacheHit:    t.CacheHit,
		CreatedAt:   t.CreatedAt,
		StartedAt:   t.StartedAt,
		CompletedAt: t.CompletedAt,
	}
}
