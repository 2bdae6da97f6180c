package response

import (
	"time"

	"github.com/user/scraper-service/internal/entity"
)

// SubmitTaskResponse acknowledges an accepted scraping task.
type SubmitTaskResponse struct {
	TaskID  string `json:"task_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// TaskResponse is the DTO for a task record, status serialized as its
// string enum value.
type TaskResponse struct {
	TaskID            string                 `json:"task_id"`
	URL               string                 `json:"url"`
	Status            string                 `json:"status"`
	CreatedAt         time.Time              `json:"created_at"`
	UpdatedAt         time.Time              `json:"updated_at"`
	CompletedAt       *time.Time             `json:"completed_at,omitempty"`
	Attempt           int                    `json:"attempt"`
	RecipeRegenerated bool                   `json:"recipe_regenerated"`
	Result            *entity.ScrapedContent `json:"result,omitempty"`
	Error             string                 `json:"error,omitempty"`
}

// FromTask maps a task entity onto the wire shape.
func FromTask(task *entity.Task) TaskResponse {
	return TaskResponse{
		TaskID:            task.ID,
		URL:               task.URL,
		Status:            string(task.Status),
		CreatedAt:         task.CreatedAt,
		UpdatedAt:         task.UpdatedAt,
		CompletedAt:       task.CompletedAt,
		Attempt:           task.Attempt,
		RecipeRegenerated: task.RecipeRegenerated,
		Result:            task.Result,
		Error:             task.Error,
	}
}

// ContentResponse is the DTO for an archived content lookup.
type ContentResponse struct {
	URL       string                `json:"url"`
	TaskID    string                `json:"task_id"`
	Content   entity.ScrapedContent `json:"content"`
	ScrapedAt time.Time             `json:"scraped_at"`
}
