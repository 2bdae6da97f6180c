package repository

import (
	"context"

	"github.com/user/scraper-service/internal/entity"
)

// TaskRepository persists task records keyed by task id. The backing store
// serializes writes per key; callers must re-load before mutating to avoid
// lost updates between workers.
type TaskRepository interface {
	// Save persists the task, overwriting any existing record.
	Save(ctx context.Context, task *entity.Task) error
	// FindByID returns the task or ErrTaskNotFound.
	FindByID(ctx context.Context, id string) (*entity.Task, error)
	// Delete removes the task record. Deleting a missing task is not an error.
	Delete(ctx context.Context, id string) error
	// ListIDs returns the ids of all persisted tasks, used by the janitor sweep.
	ListIDs(ctx context.Context) ([]string, error)
}
