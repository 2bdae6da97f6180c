package usecase

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/user/scraper-service/internal/entity"
	"github.com/user/scraper-service/internal/repository"
	"github.com/user/scraper-service/pkg/metrics"
)

func TestMain(m *testing.M) {
	metrics.Init()
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
	os.Exit(m.Run())
}

// mockTaskRepo implements repository.TaskRepository in memory.
type mockTaskRepo struct {
	mu    sync.Mutex
	tasks map[string]*entity.Task
}

func newMockTaskRepo() *mockTaskRepo {
	return &mockTaskRepo{tasks: make(map[string]*entity.Task)}
}

func (m *mockTaskRepo) Save(_ context.Context, task *entity.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *task
	m.tasks[task.ID] = &stored
	return nil
}

func (m *mockTaskRepo) FindByID(_ context.Context, id string) (*entity.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	task, ok := m.tasks[id]
	if !ok {
		return nil, repository.ErrTaskNotFound
	}
	found := *task
	return &found, nil
}

func (m *mockTaskRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tasks, id)
	return nil
}

func (m *mockTaskRepo) ListIDs(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.tasks))
	for id := range m.tasks {
		ids = append(ids, id)
	}
	return ids, nil
}

// mockQueue implements repository.TaskQueue in memory.
type mockQueue struct {
	mu  sync.Mutex
	ids []string
}

func (m *mockQueue) Push(_ context.Context, taskID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ids = append(m.ids, taskID)
	return nil
}

func (m *mockQueue) Pop(_ context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.ids) == 0 {
		return "", repository.ErrQueueEmpty
	}
	id := m.ids[0]
	m.ids = m.ids[1:]
	return id, nil
}

func (m *mockQueue) Size(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.ids)), nil
}

// mockRecipeRepo implements repository.RecipeRepository in memory.
type mockRecipeRepo struct {
	mu      sync.Mutex
	recipes map[string]*entity.Recipe
	saves   int
}

func newMockRecipeRepo() *mockRecipeRepo {
	return &mockRecipeRepo{recipes: make(map[string]*entity.Recipe)}
}

func (m *mockRecipeRepo) FindByDomain(_ context.Context, domain string) (*entity.Recipe, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	recipe, ok := m.recipes[domain]
	if !ok {
		return nil, repository.ErrRecipeNotFound
	}
	return recipe.Clone(), nil
}

func (m *mockRecipeRepo) Save(_ context.Context, recipe *entity.Recipe) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recipes[recipe.Domain] = recipe.Clone()
	m.saves++
	return nil
}

// mockAnalyzer implements repository.PageAnalyzer with a programmable
// response.
type mockAnalyzer struct {
	mu       sync.Mutex
	analysis *entity.PageAnalysis
	err      error
	calls    int
}

func (m *mockAnalyzer) Analyze(_ context.Context, _ string, _ []string) (*entity.PageAnalysis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.analysis, nil
}

func (m *mockAnalyzer) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockFetcher implements repository.PageFetcher with a programmable
// per-call response.
type mockFetcher struct {
	mu    sync.Mutex
	fetch func(url string, opts entity.FetchOptions) (string, error)
	calls int
}

func (m *mockFetcher) Fetch(_ context.Context, url string, opts entity.FetchOptions) (string, error) {
	m.mu.Lock()
	m.calls++
	fn := m.fetch
	m.mu.Unlock()
	return fn(url, opts)
}

func (m *mockFetcher) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockArchive implements repository.ContentArchive in memory.
type mockArchive struct {
	mu    sync.Mutex
	saved []*entity.ArchivedContent
}

func (m *mockArchive) Save(_ context.Context, content *entity.ArchivedContent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *content
	m.saved = append(m.saved, &stored)
	return nil
}

func (m *mockArchive) FindByURL(_ context.Context, url string) (*entity.ArchivedContent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.saved) - 1; i >= 0; i-- {
		if m.saved[i].URL == url {
			found := *m.saved[i]
			return &found, nil
		}
	}
	return nil, repository.ErrContentNotFound
}

// scheduleRecorder replaces the pipeline's timer-based requeue: delays are
// recorded and the callback runs immediately so tests stay synchronous.
type scheduleRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *scheduleRecorder) schedule(d time.Duration, fn func()) {
	s.mu.Lock()
	s.delays = append(s.delays, d)
	s.mu.Unlock()
	fn()
}

func (s *scheduleRecorder) recorded() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.delays...)
}
