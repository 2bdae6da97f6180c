package redis

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/user/scraper-service/internal/repository"
)

const taskQueueKey = "scraper:queue"

// QueueRepoImpl provides a concrete implementation for the TaskQueue
// interface using a Redis list of task ids.
type QueueRepoImpl struct {
	client *redis.Client
}

// NewQueueRepo creates a new instance of QueueRepoImpl.
func NewQueueRepo(client *redis.Client) *QueueRepoImpl {
	return &QueueRepoImpl{client: client}
}

// Push adds a task id to the left side of the Redis list (acting as a queue).
func (r *QueueRepoImpl) Push(ctx context.Context, taskID string) error {
	return r.client.LPush(ctx, taskQueueKey, taskID).Err()
}

// Pop removes and returns a task id from the right side of the Redis list.
// Returns repository.ErrQueueEmpty when the list is empty so workers can
// back off without knowing about redis.Nil.
func (r *QueueRepoImpl) Pop(ctx context.Context) (string, error) {
	id, err := r.client.RPop(ctx, taskQueueKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", repository.ErrQueueEmpty
		}
		return "", err
	}
	return id, nil
}

// Size returns the current number of queued task ids.
func (r *QueueRepoImpl) Size(ctx context.Context) (int64, error) {
	return r.client.LLen(ctx, taskQueueKey).Result()
}
