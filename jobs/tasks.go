// Package jobs wires background tasks processed by the notify service's
// embedded Asynq worker.
package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/meridianhq/meridian/internal/notify"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskNotifyCleanup is the task type for notification retention cleanup.
	TaskNotifyCleanup = "notify:cleanup"
)

// NotifyCleanupPayload configures one cleanup run.
type NotifyCleanupPayload struct {
	Retention time.Duration `json:"retention"`
}

// NewNotifyCleanupTask constructs the cleanup task.
func NewNotifyCleanupTask(retention time.Duration) (*asynq.Task, error) {
	data, err := json.Marshal(NotifyCleanupPayload{Retention: retention})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskNotifyCleanup, data), nil
}

// NotifyCleanupJob deletes notification records past retention.
type NotifyCleanupJob struct {
	service *notify.Service
	logger  *slog.Logger
	metrics *Metrics
}

// NewNotifyCleanupJob constructs the job. metrics may be nil.
func NewNotifyCleanupJob(service *notify.Service, logger *slog.Logger, metrics *Metrics) *NotifyCleanupJob {
	return &NotifyCleanupJob{service: service, logger: logger, metrics: metrics}
}

// Handle processes TaskNotifyCleanup tasks.
func (j *NotifyCleanupJob) Handle(ctx context.Context, t *asynq.Task) error {
	tracker := j.metrics.Track("notify_cleanup")
	var payload NotifyCleanupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.Retention <= 0 {
		return asynq.SkipRetry
	}
	deleted, err := j.service.Cleanup(ctx, payload.Retention)
	if err != nil {
		j.logger.Error("notify cleanup", slog.Any("error", err))
		return tracker.End(err)
	}
	j.logger.Info("notify cleanup done", slog.Int64("deleted", deleted))
	return tracker.End(nil)
}
