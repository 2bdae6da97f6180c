package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/user/scraper-service/internal/adapter/analyzer"
	"github.com/user/scraper-service/internal/adapter/fetch"
	"github.com/user/scraper-service/internal/adapter/postgres"
	redis_adapter "github.com/user/scraper-service/internal/adapter/redis"
	"github.com/user/scraper-service/internal/delivery/http/handler"
	"github.com/user/scraper-service/internal/delivery/http/router"
	"github.com/user/scraper-service/internal/extractor"
	"github.com/user/scraper-service/internal/usecase"
	"github.com/user/scraper-service/pkg/config"
	"github.com/user/scraper-service/pkg/logger"
	"github.com/user/scraper-service/pkg/metrics"
)

func main() {
	// --- Configuration ---
	cfg := config.Load()

	// --- Logger ---
	logLevel := logger.ParseLevel(cfg.LogLevel)
	logger.Init(os.Stdout, logLevel)
	slog.Info("Logger initialized", "level", logLevel.String())

	// --- Metrics ---
	metrics.Init()
	slog.Info("Metrics initialized")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Database Connections ---
	pgConnString := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.PostgresUser, cfg.PostgresPassword, cfg.PostgresHost, cfg.PostgresPort, cfg.PostgresDB)
	dbpool, err := pgxpool.New(ctx, pgConnString)
	if err != nil {
		slog.Error("Unable to connect to database", "error", err)
		os.Exit(1)
	}
	defer dbpool.Close()
	slog.Info("PostgreSQL connection pool established")

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		slog.Error("Unable to connect to Redis", "error", err)
		os.Exit(1)
	}
	slog.Info("Redis connection established")

	// --- Repositories ---
	taskStore := redis_adapter.NewTaskStore(rdb)
	recipeStore := redis_adapter.NewRecipeStore(rdb)
	taskQueue := redis_adapter.NewQueueRepo(rdb)
	archive := postgres.NewArchiveRepo(dbpool)

	// --- Fetchers and analyzer ---
	staticFetcher := fetch.NewStaticFetcher(nil)
	renderedFetcher := fetch.NewRenderedFetcher(cfg.MaxConcurrency, cfg.PageLoadTimeout)
	pageFetcher := fetch.NewSelector(staticFetcher, renderedFetcher)
	analyzerClient := analyzer.NewClient(cfg.AnalyzerURL, nil)

	// --- Use Cases ---
	generator := usecase.NewRecipeGenerator(analyzerClient, recipeStore)
	pipeline := usecase.NewPipeline(
		taskStore,
		taskQueue,
		recipeStore,
		generator,
		pageFetcher,
		archive,
		extractor.New(),
		usecase.PipelineConfig{
			Workers:        cfg.WorkerCount,
			MaxRetries:     cfg.MaxRetries,
			BaseRetryDelay: cfg.BaseRetryDelay,
			QueuePollDelay: cfg.QueuePollDelay,
		},
	)
	pipeline.Start(ctx)

	janitor := usecase.NewJanitor(taskStore, cfg.TaskRetention, cfg.TaskStallWindow, cfg.CleanupInterval)
	go janitor.Run(ctx)

	taskManager := usecase.NewTaskManager(taskStore, taskQueue)

	// --- HTTP Server ---
	apiHandler := handler.NewHandler(taskManager, archive)
	httpRouter := router.New(apiHandler)

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      httpRouter,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("Starting server", "port", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Could not listen on port", "port", cfg.ServerPort, "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown failed", "error", err)
	}
	pipeline.Wait()
	slog.Info("Shutdown complete")
}
