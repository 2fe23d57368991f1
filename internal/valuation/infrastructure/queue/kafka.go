package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/wyfcoding/pkg/messagequeue/kafka"

	"github.com/wyfcoding/valuationengine/internal/valuation/domain"
)

// TaskMessage kafka 上投递的任务消息。payload 随消息冗余一份，
// 方便排障时直接读消息还原任务，执行方仍以任务库中的状态为准。
type TaskMessage struct {
	TaskID string     `json:"task_id"`
	Model  string     `json:"model"`
	Job    domain.Job `json:"job"`
}

// KafkaQueue 跨进程任务队列，api 进程生产，worker 进程消费。
type KafkaQueue struct {
	producer *kafka.Producer
}

func NewKafkaQueue(producer *kafka.Producer) *KafkaQueue {
	return &KafkaQueue{producer: producer}
}

func (q *KafkaQueue) Enqueue(ctx context.Context, task *domain.Task) error {
	msg := TaskMessage{
		TaskID: task.ID,
		Model:  string(task.Job.Model),
		Job:    task.Job,
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal task message: %w", err)
	}
	return q.producer.Publish(ctx, []byte(task.ID), data)
}
