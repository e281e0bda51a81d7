package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every Prometheus collector the service registers.
type Metrics struct {
	JobsCreated   prometheus.Counter
	JobsClaimed   prometheus.Counter
	JobsSucceeded prometheus.Counter
	JobsFailed    prometheus.Counter
	JobDuration   prometheus.Histogram
	QueueDepth    prometheus.Gauge
	HTTPRequests  *prometheus.CounterVec
}

// New creates and registers all metrics against the default registry.
func New() *Metrics {
	return &Metrics{
		JobsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "jobqueue_jobs_created_total",
			Help: "Total number of jobs inserted into the store.",
		}),
		JobsClaimed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "jobqueue_jobs_claimed_total",
			Help: "Total number of jobs claimed by a worker loop.",
		}),
		JobsSucceeded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "jobqueue_jobs_succeeded_total",
			Help: "Total number of jobs that finished in status success.",
		}),
		JobsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "jobqueue_jobs_failed_total",
			Help: "Total number of jobs that finished in status failed.",
		}),
		JobDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "jobqueue_job_duration_seconds",
			Help:    "Wall-clock duration of a single job execution.",
			Buckets: prometheus.DefBuckets,
		}),
		QueueDepth: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "jobqueue_queue_depth",
			Help: "Number of jobs currently in status new, as last observed.",
		}),
		HTTPRequests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jobqueue_http_requests_total",
				Help: "Total HTTP requests by method, route and status code.",
			},
			[]string{"method", "route", "status"},
		),
	}
}
