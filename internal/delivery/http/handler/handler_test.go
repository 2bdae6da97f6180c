package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/user/scraper-service/internal/delivery/http/handler"
	"github.com/user/scraper-service/internal/delivery/http/router"
	"github.com/user/scraper-service/internal/entity"
	"github.com/user/scraper-service/internal/repository"
	"github.com/user/scraper-service/internal/usecase"
	"github.com/user/scraper-service/pkg/metrics"
)

// fakeTaskManager implements usecase.TaskManager with canned behavior.
type fakeTaskManager struct {
	tasks     map[string]*entity.Task
	cancelErr error
	submitted []string
}

func (f *fakeTaskManager) Submit(_ context.Context, url string, headers map[string]string, timeoutSeconds int) (*entity.Task, error) {
	f.submitted = append(f.submitted, url)
	now := time.Now()
	return &entity.Task{
		ID:             "task-1",
		URL:            url,
		Status:         entity.TaskQueued,
		CreatedAt:      now,
		UpdatedAt:      now,
		Headers:        headers,
		TimeoutSeconds: timeoutSeconds,
	}, nil
}

func (f *fakeTaskManager) Get(_ context.Context, id string) (*entity.Task, error) {
	task, ok := f.tasks[id]
	if !ok {
		return nil, repository.ErrTaskNotFound
	}
	return task, nil
}

func (f *fakeTaskManager) Cancel(_ context.Context, id string) error {
	if _, ok := f.tasks[id]; !ok {
		return repository.ErrTaskNotFound
	}
	return f.cancelErr
}

// fakeArchive implements repository.ContentArchive with canned records.
type fakeArchive struct {
	records map[string]*entity.ArchivedContent
}

func (f *fakeArchive) Save(_ context.Context, content *entity.ArchivedContent) error {
	f.records[content.URL] = content
	return nil
}

func (f *fakeArchive) FindByURL(_ context.Context, url string) (*entity.ArchivedContent, error) {
	record, ok := f.records[url]
	if !ok {
		return nil, repository.ErrContentNotFound
	}
	return record, nil
}

func newTestServer(manager *fakeTaskManager, archive *fakeArchive) http.Handler {
	metrics.Init()
	var arch repository.ContentArchive
	if archive != nil {
		arch = archive
	}
	return router.New(handler.NewHandler(manager, arch))
}

func doJSON(t *testing.T, h http.Handler, method, target, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	decoded := map[string]interface{}{}
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &decoded); err != nil {
			t.Fatalf("response is not JSON: %v (%s)", err, rec.Body.String())
		}
	}
	return rec, decoded
}

func TestSubmitTask(t *testing.T) {
	manager := &fakeTaskManager{tasks: map[string]*entity.Task{}}
	h := newTestServer(manager, nil)

	rec, body := doJSON(t, h, http.MethodPost, "/api/tasks",
		`{"url": "https://example.com/story", "headers": {"X-Test": "1"}, "timeout": 45}`)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want %d (%s)", rec.Code, http.StatusAccepted, rec.Body.String())
	}
	if body["task_id"] != "task-1" {
		t.Errorf("task_id = %v", body["task_id"])
	}
	if body["status"] != string(entity.TaskQueued) {
		t.Errorf("status = %v, want %s", body["status"], entity.TaskQueued)
	}
	if len(manager.submitted) != 1 || manager.submitted[0] != "https://example.com/story" {
		t.Errorf("submitted urls = %v", manager.submitted)
	}
}

func TestSubmitTaskValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"url": `},
		{"missing url", `{}`},
		{"relative url", `{"url": "not-a-url"}`},
		{"host-less path", `{"url": "/foo/bar"}`},
		{"scheme without host", `{"url": "https://"}`},
		{"timeout too small", `{"url": "https://example.com", "timeout": -5}`},
		{"timeout too large", `{"url": "https://example.com", "timeout": 301}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			manager := &fakeTaskManager{tasks: map[string]*entity.Task{}}
			h := newTestServer(manager, nil)

			rec, body := doJSON(t, h, http.MethodPost, "/api/tasks", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
			}
			if body["error"] == "" {
				t.Error("error message missing from response")
			}
			if len(manager.submitted) != 0 {
				t.Error("invalid request reached the task manager")
			}
		})
	}
}

func TestGetTask(t *testing.T) {
	completedAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	manager := &fakeTaskManager{tasks: map[string]*entity.Task{
		"task-1": {
			ID:          "task-1",
			URL:         "https://example.com/story",
			Status:      entity.TaskCompleted,
			Attempt:     2,
			CompletedAt: &completedAt,
			Result:      &entity.ScrapedContent{Title: "Launch Day"},
		},
	}}
	h := newTestServer(manager, nil)

	rec, body := doJSON(t, h, http.MethodGet, "/api/tasks/task-1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if body["status"] != string(entity.TaskCompleted) {
		t.Errorf("status = %v", body["status"])
	}
	if body["attempt"] != float64(2) {
		t.Errorf("attempt = %v, want 2", body["attempt"])
	}
	result, ok := body["result"].(map[string]interface{})
	if !ok || result["title"] != "Launch Day" {
		t.Errorf("result = %v", body["result"])
	}
}

func TestGetTaskNotFound(t *testing.T) {
	h := newTestServer(&fakeTaskManager{tasks: map[string]*entity.Task{}}, nil)

	rec, _ := doJSON(t, h, http.MethodGet, "/api/tasks/ghost", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestCancelTask(t *testing.T) {
	tests := []struct {
		name      string
		id        string
		cancelErr error
		want      int
	}{
		{"accepted", "task-1", nil, http.StatusAccepted},
		{"not found", "ghost", nil, http.StatusNotFound},
		{"already finished", "task-1", usecase.ErrTaskTerminal, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			manager := &fakeTaskManager{
				tasks:     map[string]*entity.Task{"task-1": {ID: "task-1"}},
				cancelErr: tt.cancelErr,
			}
			h := newTestServer(manager, nil)

			rec, _ := doJSON(t, h, http.MethodPost, "/api/tasks/"+tt.id+"/cancel", "")
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestGetContent(t *testing.T) {
	archive := &fakeArchive{records: map[string]*entity.ArchivedContent{
		"https://example.com/story": {
			TaskID:    "task-1",
			URL:       "https://example.com/story",
			Content:   entity.ScrapedContent{Title: "Launch Day"},
			ScrapedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		},
	}}
	h := newTestServer(&fakeTaskManager{tasks: map[string]*entity.Task{}}, archive)

	rec, body := doJSON(t, h, http.MethodGet, "/api/content?url=https%3A%2F%2Fexample.com%2Fstory", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (%s)", rec.Code, http.StatusOK, rec.Body.String())
	}
	if body["task_id"] != "task-1" {
		t.Errorf("task_id = %v", body["task_id"])
	}
	content, ok := body["content"].(map[string]interface{})
	if !ok || content["title"] != "Launch Day" {
		t.Errorf("content = %v", body["content"])
	}
}

func TestGetContentErrors(t *testing.T) {
	archive := &fakeArchive{records: map[string]*entity.ArchivedContent{}}
	h := newTestServer(&fakeTaskManager{tasks: map[string]*entity.Task{}}, archive)

	rec, _ := doJSON(t, h, http.MethodGet, "/api/content", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing url param: status = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	rec, _ = doJSON(t, h, http.MethodGet, "/api/content?url=https%3A%2F%2Funknown.example", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown url: status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestHealthCheck(t *testing.T) {
	h := newTestServer(&fakeTaskManager{tasks: map[string]*entity.Task{}}, nil)

	rec, body := doJSON(t, h, http.MethodGet, "/api/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %v, want %q", body["status"], "ok")
	}
}
