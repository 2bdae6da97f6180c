package entity

import "time"

// TaskStatus is the lifecycle state of a scraping task.
type TaskStatus string

const (
	TaskQueued     TaskStatus = "queued"
	TaskProcessing TaskStatus = "processing"
	TaskCompleted  TaskStatus = "completed"
	TaskFailed     TaskStatus = "failed"
)

// Terminal reports whether the status is final. Tasks are never resurrected
// out of a terminal state.
func (s TaskStatus) Terminal() bool {
	return s == TaskCompleted || s == TaskFailed
}

// Task is one scraping request. It is persisted in the task store as JSON;
// workers hold it only transiently and persist every mutation back.
type Task struct {
	ID          string     `json:"task_id"`
	URL         string     `json:"url"`
	Status      TaskStatus `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Attempt counts scraping attempts, incremented before each attempt.
	Attempt int `json:"attempt"`

	// RecipeRegenerated is set once a recipe regeneration has been
	// attempted for this task. Regeneration happens at most once per task.
	RecipeRegenerated bool `json:"recipe_regenerated"`

	// CancelRequested marks the task for abandonment; workers check it
	// before starting an attempt.
	CancelRequested bool `json:"cancel_requested,omitempty"`

	// Request-specific overrides, applied to a copy of the domain recipe.
	Headers        map[string]string `json:"headers,omitempty"`
	TimeoutSeconds int               `json:"timeout_seconds,omitempty"`

	Result *ScrapedContent `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}
