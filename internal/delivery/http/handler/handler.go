package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/user/scraper-service/internal/delivery/http/request"
	"github.com/user/scraper-service/internal/delivery/http/response"
	"github.com/user/scraper-service/internal/entity"
	"github.com/user/scraper-service/internal/repository"
	"github.com/user/scraper-service/internal/usecase"
)

type Handler struct {
	tasks   usecase.TaskManager
	archive repository.ContentArchive
}

// NewHandler creates the API handler. The archive may be nil; the content
// lookup endpoint then answers 404 for every URL.
func NewHandler(tasks usecase.TaskManager, archive repository.ContentArchive) *Handler {
	return &Handler{tasks: tasks, archive: archive}
}

func (h *Handler) HandleSubmitTask(w http.ResponseWriter, r *http.Request) {
	var req request.SubmitTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	parsed, err := url.ParseRequestURI(req.URL)
	if err != nil || parsed.Host == "" {
		h.writeJSONError(w, "Invalid URL format", http.StatusBadRequest)
		return
	}
	if req.Timeout != 0 && (req.Timeout < entity.MinTimeoutSeconds || req.Timeout > entity.MaxTimeoutSeconds) {
		h.writeJSONError(w, "Timeout must be between 1 and 300 seconds", http.StatusBadRequest)
		return
	}

	task, err := h.tasks.Submit(r.Context(), req.URL, req.Headers, req.Timeout)
	if err != nil {
		slog.Error("Failed to submit task", "url", req.URL, "error", err)
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	resp := response.SubmitTaskResponse{
		TaskID:  task.ID,
		Status:  string(task.Status),
		Message: "Task created successfully",
	}
	h.writeJSON(w, http.StatusAccepted, resp)
}

func (h *Handler) HandleGetTask(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeJSONError(w, "Task id is required", http.StatusBadRequest)
		return
	}

	task, err := h.tasks.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			h.writeJSONError(w, "Task not found", http.StatusNotFound)
			return
		}
		slog.Error("Failed to get task", "task_id", id, "error", err)
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, response.FromTask(task))
}

func (h *Handler) HandleCancelTask(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeJSONError(w, "Task id is required", http.StatusBadRequest)
		return
	}

	err := h.tasks.Cancel(r.Context(), id)
	switch {
	case err == nil:
		h.writeJSON(w, http.StatusAccepted, map[string]string{"status": "cancellation requested"})
	case errors.Is(err, repository.ErrTaskNotFound):
		h.writeJSONError(w, "Task not found", http.StatusNotFound)
	case errors.Is(err, usecase.ErrTaskTerminal):
		h.writeJSONError(w, "Task already finished", http.StatusConflict)
	default:
		slog.Error("Failed to cancel task", "task_id", id, "error", err)
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) HandleGetContent(w http.ResponseWriter, r *http.Request) {
	rawURL := r.URL.Query().Get("url")
	if rawURL == "" {
		h.writeJSONError(w, "URL query parameter is required", http.StatusBadRequest)
		return
	}

	if h.archive == nil {
		h.writeJSONError(w, "No archived content for the given URL", http.StatusNotFound)
		return
	}

	content, err := h.archive.FindByURL(r.Context(), rawURL)
	if err != nil {
		if errors.Is(err, repository.ErrContentNotFound) {
			h.writeJSONError(w, "No archived content for the given URL", http.StatusNotFound)
			return
		}
		slog.Error("Failed to look up archived content", "url", rawURL, "error", err)
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	resp := response.ContentResponse{
		URL:       content.URL,
		TaskID:    content.TaskID,
		Content:   content.Content,
		ScrapedAt: content.ScrapedAt,
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to write JSON response", "error", err)
	}
}

func (h *Handler) writeJSONError(w http.ResponseWriter, message string, status int) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
