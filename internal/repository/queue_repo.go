package repository

import "context"

// TaskQueue is a FIFO queue of task ids awaiting processing. Backoff
// retries re-enter through Push after their delay elapses.
type TaskQueue interface {
	// Push adds a task id to the end of the queue.
	Push(ctx context.Context, taskID string) error
	// Pop removes and returns the task id at the front of the queue, or
	// ErrQueueEmpty when there is nothing to do.
	Pop(ctx context.Context) (string, error)
	// Size returns the current number of queued task ids.
	Size(ctx context.Context) (int64, error)
}
