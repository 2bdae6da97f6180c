package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/user/scraper-service/internal/entity"
	"github.com/user/scraper-service/internal/repository"
	"github.com/user/scraper-service/pkg/metrics"
)

// ErrTaskTerminal is returned when cancelling a task that already reached
// a terminal state.
var ErrTaskTerminal = errors.New("task already reached a terminal state")

// TaskManager is the public surface for submitting and inspecting tasks.
// Submit is non-blocking; clients observe progress by polling Get.
type TaskManager interface {
	Submit(ctx context.Context, url string, headers map[string]string, timeoutSeconds int) (*entity.Task, error)
	Get(ctx context.Context, id string) (*entity.Task, error)
	Cancel(ctx context.Context, id string) error
}

type taskManager struct {
	tasks repository.TaskRepository
	queue repository.TaskQueue
	now   func() time.Time
	newID func() string
}

// NewTaskManager creates a new TaskManager.
func NewTaskManager(tasks repository.TaskRepository, queue repository.TaskQueue) TaskManager {
	return &taskManager{
		tasks: tasks,
		queue: queue,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// Submit creates a queued task, persists it and enqueues its id for the
// worker pool. The task id is returned immediately.
func (m *taskManager) Submit(ctx context.Context, url string, headers map[string]string, timeoutSeconds int) (*entity.Task, error) {
	now := m.now()
	task := &entity.Task{
		ID:             m.newID(),
		URL:            url,
		Status:         entity.TaskQueued,
		CreatedAt:      now,
		UpdatedAt:      now,
		Headers:        headers,
		TimeoutSeconds: timeoutSeconds,
	}

	if err := m.tasks.Save(ctx, task); err != nil {
		return nil, fmt.Errorf("persist new task: %w", err)
	}
	if err := m.queue.Push(ctx, task.ID); err != nil {
		// The record stays behind; the janitor's stall sweep picks it up.
		return nil, fmt.Errorf("enqueue task %s: %w", task.ID, err)
	}

	metrics.TasksSubmitted.Inc()
	metrics.TasksInQueue.Inc()
	slog.Info("Task submitted", "task_id", task.ID, "url", url)
	return task, nil
}

// Get returns the task or repository.ErrTaskNotFound.
func (m *taskManager) Get(ctx context.Context, id string) (*entity.Task, error) {
	return m.tasks.FindByID(ctx, id)
}

// Cancel marks the task for abandonment. Workers check the flag before
// each attempt and fail the task with a cancellation reason.
func (m *taskManager) Cancel(ctx context.Context, id string) error {
	task, err := m.tasks.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if task.Status.Terminal() {
		return ErrTaskTerminal
	}
	task.CancelRequested = true
	task.UpdatedAt = m.now()
	if err := m.tasks.Save(ctx, task); err != nil {
		return fmt.Errorf("persist cancellation for %s: %w", id, err)
	}
	slog.Info("Task cancellation requested", "task_id", id)
	return nil
}
