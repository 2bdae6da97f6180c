package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the application configuration.
type Config struct {
	ServerPort string
	LogLevel   string

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	AnalyzerURL string

	WorkerCount     int
	MaxRetries      int
	BaseRetryDelay  time.Duration
	QueuePollDelay  time.Duration
	MaxConcurrency  int
	PageLoadTimeout time.Duration

	TaskRetention   time.Duration
	TaskStallWindow time.Duration
	CleanupInterval time.Duration
}

// Load loads configuration from environment variables.
func Load() *Config {
	return &Config{
		ServerPort:       getEnv("SERVER_PORT", "8080"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "user"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "password"),
		PostgresDB:       getEnv("POSTGRES_DB", "scraper"),
		RedisAddr:        getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		RedisDB:          getEnvAsInt("REDIS_DB", 0),
		AnalyzerURL:      getEnv("ANALYZER_URL", "http://localhost:9090"),
		WorkerCount:      getEnvAsInt("WORKER_COUNT", 5),
		MaxRetries:       getEnvAsInt("MAX_RETRIES", 3),
		BaseRetryDelay:   getEnvAsDuration("BASE_RETRY_DELAY_SECONDS", 60),
		QueuePollDelay:   getEnvAsDurationMS("QUEUE_POLL_DELAY_MS", 250),
		MaxConcurrency:   getEnvAsInt("MAX_CONCURRENCY", 10),
		PageLoadTimeout:  getEnvAsDuration("PAGE_LOAD_TIMEOUT_SECONDS", 60),
		TaskRetention:    getEnvAsHours("TASK_RETENTION_HOURS", 24),
		TaskStallWindow:  getEnvAsHours("TASK_STALL_HOURS", 6),
		CleanupInterval:  getEnvAsDuration("CLEANUP_INTERVAL_SECONDS", 3600),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback int) time.Duration {
	return time.Duration(getEnvAsInt(key, fallback)) * time.Second
}

func getEnvAsDurationMS(key string, fallback int) time.Duration {
	return time.Duration(getEnvAsInt(key, fallback)) * time.Millisecond
}

func getEnvAsHours(key string, fallback int) time.Duration {
	return time.Duration(getEnvAsInt(key, fallback)) * time.Hour
}
