package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/user/scraper-service/internal/entity"
	"github.com/user/scraper-service/internal/repository"
)

// Janitor periodically removes terminal tasks past the retention window
// and abandons tasks stuck in a non-terminal state past the stall window.
// It runs independently of task processing.
type Janitor struct {
	tasks     repository.TaskRepository
	retention time.Duration
	stall     time.Duration
	interval  time.Duration
	now       func() time.Time
}

// NewJanitor creates a Janitor.
func NewJanitor(tasks repository.TaskRepository, retention, stall, interval time.Duration) *Janitor {
	return &Janitor{
		tasks:     tasks,
		retention: retention,
		stall:     stall,
		interval:  interval,
		now:       time.Now,
	}
}

// Run sweeps on a ticker until ctx is cancelled.
func (j *Janitor) Run(ctx context.Context) {
	slog.Info("Janitor started", "interval", j.interval, "retention", j.retention, "stall_window", j.stall)
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("Janitor shutting down")
			return
		case <-ticker.C:
			if err := j.Sweep(ctx); err != nil {
				slog.Error("Janitor sweep failed", "error", err)
			}
		}
	}
}

// Sweep removes expired task records. Each candidate is re-loaded
// immediately before deletion and re-checked against the cutoff, so a
// worker that just updated the task wins over a stale snapshot.
func (j *Janitor) Sweep(ctx context.Context) error {
	ids, err := j.tasks.ListIDs(ctx)
	if err != nil {
		return fmt.Errorf("list task ids: %w", err)
	}

	removed := 0
	for _, id := range ids {
		task, err := j.tasks.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrTaskNotFound) {
				continue
			}
			slog.Error("Janitor failed to load task", "task_id", id, "error", err)
			continue
		}
		if !j.expired(task) {
			continue
		}

		// Re-check against a fresh read before deleting.
		task, err = j.tasks.FindByID(ctx, id)
		if err != nil || !j.expired(task) {
			continue
		}

		if !task.Status.Terminal() {
			slog.Warn("Removing stalled task", "task_id", id, "status", task.Status, "updated_at", task.UpdatedAt)
		}
		if err := j.tasks.Delete(ctx, id); err != nil {
			slog.Error("Janitor failed to delete task", "task_id", id, "error", err)
			continue
		}
		removed++
	}

	if removed > 0 {
		slog.Info("Janitor sweep finished", "removed", removed, "scanned", len(ids))
	}
	return nil
}

func (j *Janitor) expired(task *entity.Task) bool {
	now := j.now()
	if task.Status.Terminal() {
		ref := task.UpdatedAt
		if task.CompletedAt != nil {
			ref = *task.CompletedAt
		}
		return now.Sub(ref) >= j.retention
	}
	return now.Sub(task.UpdatedAt) >= j.stall
}
