package consumer

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/wyfcoding/valuationengine/internal/valuation/application"
)

// TaskHandler 消费任务队列消息并驱动任务执行。
// 执行失败不向 kafka 返回错误重试，失败状态已经落在任务库里。
type TaskHandler struct {
	orchestrator *application.Orchestrator
	logger       *slog.Logger
}

func NewTaskHandler(orchestrator *application.Orchestrator, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{orchestrator: orchestrator, logger: logger}
}

func (h *TaskHandler) Handle(ctx context.Context, msg kafka.Message) error {
	var payload struct {
		TaskID string `json:"task_id"`
	}
	if err := json.Unmarshal(msg.Value, &payload); err != nil {
		h.logger.ErrorContext(ctx, "failed to unmarshal task message", "error", err)
		return err
	}
	if payload.TaskID == "" {
		h.logger.WarnContext(ctx, "task message without task_id, dropping")
		return nil
	}

	if err := h.orchestrator.Execute(ctx, payload.TaskID); err != nil {
		h.logger.ErrorContext(ctx, "task execution failed",
			"task_id", payload.TaskID, "error", err)
	}
	return nil
}
