package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Enqueuer puts media tasks on the asynq broker.
type Enqueuer struct {
	client *asynq.Client
	log    *zap.Logger
}

func NewEnqueuer(client *asynq.Client, log *zap.Logger) *Enqueuer {
	return &Enqueuer{client: client, log: log}
}

func (e *Enqueuer) EnqueueConversions(ctx context.Context, mediaID int64) error {
	task, err := NewMediaConversionsTask(mediaID)
	if err != nil {
		return err
	}

	info, err := e.client.EnqueueContext(ctx, task, asynq.MaxRetry(3), asynq.Timeout(2*time.Minute))
	if err != nil {
		return err
	}

	e.log.Info("task enqueued", zap.String("type", task.Type()), zap.String("task_id", info.ID), zap.Int64("media_id", mediaID))
	return nil
}

func NewMediaConversionsTask(mediaID int64) (*asynq.Task, error) {
	payload, err := json.Marshal(MediaConversionsPayload{MediaID: mediaID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeMediaConversions, payload), nil
}
