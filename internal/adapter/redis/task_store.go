package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/user/scraper-service/internal/entity"
	"github.com/user/scraper-service/internal/repository"
)

const taskKeyPrefix = "scraper:task:"

// TaskStoreImpl persists task records as JSON values in Redis, one key per
// task id. Redis serializes operations per key, which gives us the
// per-key write ordering the pipeline relies on.
type TaskStoreImpl struct {
	client *redis.Client
}

// NewTaskStore creates a new instance of TaskStoreImpl.
func NewTaskStore(client *redis.Client) *TaskStoreImpl {
	return &TaskStoreImpl{client: client}
}

func taskKey(id string) string {
	return taskKeyPrefix + id
}

// Save persists the task, overwriting any existing record.
func (r *TaskStoreImpl) Save(ctx context.Context, task *entity.Task) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("marshal task %s: %w", task.ID, err)
	}
	return r.client.Set(ctx, taskKey(task.ID), payload, 0).Err()
}

// FindByID returns the task or repository.ErrTaskNotFound.
func (r *TaskStoreImpl) FindByID(ctx context.Context, id string) (*entity.Task, error) {
	payload, err := r.client.Get(ctx, taskKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, repository.ErrTaskNotFound
		}
		return nil, err
	}
	var task entity.Task
	if err := json.Unmarshal(payload, &task); err != nil {
		return nil, fmt.Errorf("unmarshal task %s: %w", id, err)
	}
	return &task, nil
}

// Delete removes the task record. Deleting a missing key is a no-op.
func (r *TaskStoreImpl) Delete(ctx context.Context, id string) error {
	return r.client.Del(ctx, taskKey(id)).Err()
}

// ListIDs scans all task keys and returns the bare ids.
func (r *TaskStoreImpl) ListIDs(ctx context.Context) ([]string, error) {
	var ids []string
	iter := r.client.Scan(ctx, 0, taskKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		ids = append(ids, strings.TrimPrefix(iter.Val(), taskKeyPrefix))
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}
