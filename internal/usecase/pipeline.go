package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/user/scraper-service/internal/entity"
	"github.com/user/scraper-service/internal/extractor"
	"github.com/user/scraper-service/internal/repository"
	"github.com/user/scraper-service/pkg/metrics"
	"github.com/user/scraper-service/pkg/utils"
)

// ErrExtractionDegraded marks an attempt whose fetch succeeded but whose
// extraction came back partial or empty even after the one-time recipe
// regeneration.
var ErrExtractionDegraded = errors.New("extraction degraded")

// PipelineConfig tunes the worker pool and the retry policy.
type PipelineConfig struct {
	Workers        int
	MaxRetries     int
	BaseRetryDelay time.Duration
	QueuePollDelay time.Duration
}

func (c PipelineConfig) withDefaults() PipelineConfig {
	if c.Workers <= 0 {
		c.Workers = 5
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.BaseRetryDelay <= 0 {
		c.BaseRetryDelay = time.Minute
	}
	if c.QueuePollDelay <= 0 {
		c.QueuePollDelay = 250 * time.Millisecond
	}
	return c
}

// Pipeline owns the task state machine: workers pull queued task ids,
// resolve the domain recipe, fetch and extract, and either complete the
// task, run the one-time regenerate-and-retry path, or schedule a backoff
// retry.
type Pipeline interface {
	// Start launches the worker pool; workers exit when ctx is cancelled.
	Start(ctx context.Context)
	// Wait blocks until all workers have exited.
	Wait()
	// ProcessNext pops and processes a single task id. Returns
	// repository.ErrQueueEmpty when there is nothing to do.
	ProcessNext(ctx context.Context) error
}

type taskPipeline struct {
	tasks     repository.TaskRepository
	queue     repository.TaskQueue
	recipes   repository.RecipeRepository
	generator RecipeGenerator
	fetcher   repository.PageFetcher
	archive   repository.ContentArchive
	engine    *extractor.Engine
	cfg       PipelineConfig

	// schedule defers fn by d without occupying a worker slot. Replaced in
	// tests to observe backoff delays.
	schedule func(d time.Duration, fn func())
	now      func() time.Time

	wg sync.WaitGroup
}

// NewPipeline creates the task pipeline. The archive may be nil when no
// content archive is configured.
func NewPipeline(
	tasks repository.TaskRepository,
	queue repository.TaskQueue,
	recipes repository.RecipeRepository,
	generator RecipeGenerator,
	fetcher repository.PageFetcher,
	archive repository.ContentArchive,
	engine *extractor.Engine,
	cfg PipelineConfig,
) Pipeline {
	return &taskPipeline{
		tasks:     tasks,
		queue:     queue,
		recipes:   recipes,
		generator: generator,
		fetcher:   fetcher,
		archive:   archive,
		engine:    engine,
		cfg:       cfg.withDefaults(),
		schedule:  func(d time.Duration, fn func()) { time.AfterFunc(d, fn) },
		now:       time.Now,
	}
}

func (p *taskPipeline) Start(ctx context.Context) {
	for i := 0; i < p.cfg.Workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx)
	}
	slog.Info("Pipeline workers started", "count", p.cfg.Workers)
}

func (p *taskPipeline) Wait() {
	p.wg.Wait()
}

func (p *taskPipeline) worker(ctx context.Context) {
	defer p.wg.Done()
	for {
		if ctx.Err() != nil {
			return
		}
		err := p.ProcessNext(ctx)
		if err == nil {
			continue
		}
		if !errors.Is(err, repository.ErrQueueEmpty) {
			slog.Error("Task processing failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(p.cfg.QueuePollDelay):
		}
	}
}

// ProcessNext pops one task id from the queue and runs a full attempt.
func (p *taskPipeline) ProcessNext(ctx context.Context) error {
	taskID, err := p.queue.Pop(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrQueueEmpty) {
			return err
		}
		return fmt.Errorf("pop task from queue: %w", err)
	}
	metrics.TasksInQueue.Dec()
	return p.processTask(ctx, taskID)
}

func (p *taskPipeline) processTask(ctx context.Context, taskID string) error {
	// Always re-load the record at pickup: the in-memory task from a
	// previous attempt must not survive a backoff suspension.
	task, err := p.tasks.FindByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			slog.Warn("Queued task no longer exists, skipping", "task_id", taskID)
			return nil
		}
		return fmt.Errorf("load task %s: %w", taskID, err)
	}
	if task.Status.Terminal() {
		return nil
	}
	if task.CancelRequested {
		metrics.TasksTotal.WithLabelValues("failure", "cancelled").Inc()
		return p.finishFailed(ctx, task, "task cancelled")
	}

	task.Status = entity.TaskProcessing
	task.Attempt++
	task.UpdatedAt = p.now()
	if err := p.tasks.Save(ctx, task); err != nil {
		return fmt.Errorf("persist task %s before attempt: %w", task.ID, err)
	}

	domain, err := utils.Domain(task.URL)
	if err != nil {
		// A URL that cannot yield a domain will never succeed.
		metrics.TasksTotal.WithLabelValues("failure", "invalid_url").Inc()
		return p.finishFailed(ctx, task, err.Error())
	}

	slog.Info("Processing task", "task_id", task.ID, "url", task.URL, "attempt", task.Attempt)

	start := p.now()
	result, attemptErr := p.attempt(ctx, task, domain)
	metrics.ScrapeDuration.WithLabelValues(domain).Observe(p.now().Sub(start).Seconds())

	if attemptErr != nil {
		return p.handleFailure(ctx, task, attemptErr)
	}
	return p.complete(ctx, task, result)
}

// attempt resolves the recipe, scrapes once, and runs the one-time
// regenerate-and-retry path when the extraction is degraded.
func (p *taskPipeline) attempt(ctx context.Context, task *entity.Task, domain string) (*extractor.Result, error) {
	recipe, err := p.resolveRecipe(ctx, task.URL, domain)
	if err != nil {
		return nil, err
	}

	// Overrides apply to a copy; the stored recipe is never mutated.
	result, err := p.scrape(ctx, task, recipe.WithTimeout(task.TimeoutSeconds))
	if err != nil {
		return nil, err
	}
	if !result.Degraded() {
		return result, nil
	}

	if task.RecipeRegenerated {
		return nil, fmt.Errorf("%w (%s): recipe already regenerated for this task", ErrExtractionDegraded, result.Outcome)
	}

	// Persist the flag before regenerating so the external analysis runs
	// at most once per task lifetime, whatever happens afterwards.
	task.RecipeRegenerated = true
	task.UpdatedAt = p.now()
	if err := p.tasks.Save(ctx, task); err != nil {
		return nil, fmt.Errorf("persist regeneration flag for %s: %w", task.ID, err)
	}

	slog.Warn("Extraction degraded, regenerating recipe", "task_id", task.ID, "domain", domain, "outcome", result.Outcome)

	fresh, err := p.generator.Generate(ctx, task.URL)
	if err != nil {
		return nil, fmt.Errorf("%w (%s): regeneration failed: %v", ErrExtractionDegraded, result.Outcome, err)
	}

	retry, err := p.scrape(ctx, task, fresh.WithTimeout(task.TimeoutSeconds))
	if err != nil {
		return nil, err
	}
	if retry.Degraded() {
		return nil, fmt.Errorf("%w (%s): still degraded after regeneration", ErrExtractionDegraded, retry.Outcome)
	}
	return retry, nil
}

// resolveRecipe loads the cached domain recipe, generating one only when
// none exists. Concurrent tasks for a new domain may race to generate;
// last save wins and both proceed with whichever recipe they hold.
func (p *taskPipeline) resolveRecipe(ctx context.Context, rawURL, domain string) (*entity.Recipe, error) {
	recipe, err := p.recipes.FindByDomain(ctx, domain)
	if err == nil {
		return recipe, nil
	}
	if !errors.Is(err, repository.ErrRecipeNotFound) {
		return nil, fmt.Errorf("load recipe for %s: %w", domain, err)
	}
	return p.generator.Generate(ctx, rawURL)
}

func (p *taskPipeline) scrape(ctx context.Context, task *entity.Task, recipe *entity.Recipe) (*extractor.Result, error) {
	html, err := p.fetcher.Fetch(ctx, task.URL, recipe.FetchOptions(task.Headers))
	if err != nil {
		return nil, err
	}
	result := p.engine.Extract(html, recipe)
	for _, warning := range result.Warnings {
		slog.Debug("Extraction warning", "task_id", task.ID, "warning", warning)
	}
	return result, nil
}

func (p *taskPipeline) complete(ctx context.Context, task *entity.Task, result *extractor.Result) error {
	now := p.now()
	task.Status = entity.TaskCompleted
	task.Result = &result.Content
	task.Error = ""
	task.CompletedAt = &now
	task.UpdatedAt = now
	if err := p.tasks.Save(ctx, task); err != nil {
		return fmt.Errorf("persist completed task %s: %w", task.ID, err)
	}

	metrics.TasksTotal.WithLabelValues("success", "").Inc()
	slog.Info("Task completed", "task_id", task.ID, "url", task.URL, "attempt", task.Attempt)

	if p.archive != nil {
		archived := &entity.ArchivedContent{
			TaskID:    task.ID,
			URL:       task.URL,
			Content:   result.Content,
			ScrapedAt: now,
		}
		if err := p.archive.Save(ctx, archived); err != nil {
			// Not critical: the task result itself is already persisted.
			slog.Warn("Failed to archive scraped content", "url", task.URL, "error", err)
		}
	}
	return nil
}

// handleFailure records the error and either schedules a backoff retry or,
// once the retry budget is spent, fails the task for good. The retry delay
// is baseDelay * 2^attempt; the timer re-enqueues the id so no worker slot
// sleeps through the backoff.
func (p *taskPipeline) handleFailure(ctx context.Context, task *entity.Task, attemptErr error) error {
	metrics.TasksTotal.WithLabelValues("failure", classifyError(attemptErr)).Inc()

	if task.Attempt >= p.cfg.MaxRetries {
		slog.Error("Task failed permanently", "task_id", task.ID, "url", task.URL, "attempt", task.Attempt, "error", attemptErr)
		return p.finishFailed(ctx, task, attemptErr.Error())
	}

	task.Error = attemptErr.Error()
	task.UpdatedAt = p.now()
	if err := p.tasks.Save(ctx, task); err != nil {
		return fmt.Errorf("persist task %s after failed attempt: %w", task.ID, err)
	}

	delay := p.backoffDelay(task.Attempt)
	slog.Warn("Attempt failed, scheduling retry", "task_id", task.ID, "attempt", task.Attempt, "delay", delay, "error", attemptErr)

	taskID := task.ID
	p.schedule(delay, func() {
		if err := p.queue.Push(context.Background(), taskID); err != nil {
			slog.Error("Failed to requeue task after backoff", "task_id", taskID, "error", err)
			return
		}
		metrics.TasksInQueue.Inc()
	})
	return nil
}

func (p *taskPipeline) finishFailed(ctx context.Context, task *entity.Task, reason string) error {
	now := p.now()
	task.Status = entity.TaskFailed
	task.Error = reason
	task.CompletedAt = &now
	task.UpdatedAt = now
	if err := p.tasks.Save(ctx, task); err != nil {
		return fmt.Errorf("persist failed task %s: %w", task.ID, err)
	}
	return nil
}

func (p *taskPipeline) backoffDelay(attempt int) time.Duration {
	return p.cfg.BaseRetryDelay * (1 << attempt)
}

func classifyError(err error) string {
	switch {
	case errors.Is(err, repository.ErrFetchTimeout):
		return "timeout"
	case errors.Is(err, repository.ErrFetchHTTPStatus):
		return "http_status"
	case errors.Is(err, repository.ErrFetchNetwork):
		return "network"
	case errors.Is(err, repository.ErrAnalysisFailed):
		return "analysis"
	case errors.Is(err, ErrExtractionDegraded):
		return "extraction"
	default:
		return "unknown"
	}
}
