package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	TasksSubmitted      prometheus.Counter
	TasksTotal          *prometheus.CounterVec
	ScrapeDuration      *prometheus.HistogramVec
	RecipeGenerations   *prometheus.CounterVec
	TasksInQueue        prometheus.Gauge
)

var initOnce sync.Once

// Init registers all collectors. Safe to call more than once; tests and
// main both go through it.
func Init() {
	initOnce.Do(register)
}

func register() {
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	TasksSubmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "scrape_tasks_submitted_total",
			Help: "Total number of scraping tasks submitted.",
		},
	)

	TasksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scrape_tasks_total",
			Help: "Total number of finished scraping attempts.",
		},
		[]string{"status", "error_type"}, // status: success, failure
	)

	ScrapeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scrape_duration_seconds",
			Help:    "Duration of scrape attempts.",
			Buckets: []float64{1, 5, 10, 15, 30, 60, 120},
		},
		[]string{"domain"},
	)

	RecipeGenerations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recipe_generations_total",
			Help: "Total number of recipe generation attempts.",
		},
		[]string{"result"}, // result: success, failure
	)

	TasksInQueue = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tasks_in_queue",
			Help: "Current number of task ids in the work queue.",
		},
	)
}
