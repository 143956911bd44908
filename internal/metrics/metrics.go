package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "partscout_requests_total",
			Help: "Total number of API requests per path",
		},
		[]string{"path"},
	)

	RequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "partscout_request_duration_seconds",
			Help:    "Request duration in seconds per path",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path"},
	)

	RequestErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "partscout_request_errors_total",
			Help: "Total number of error responses per path and code",
		},
		[]string{"path", "code"},
	)

	RetailerFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "partscout_retailer_fetches_total",
			Help: "Total number of retailer source fetches per retailer and outcome",
		},
		[]string{"retailer", "outcome"},
	)

	RetailerFetchDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "partscout_retailer_fetch_duration_seconds",
			Help:    "Retailer source fetch duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"retailer"},
	)

	CompareCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "partscout_compare_cache_total",
			Help: "Comparison cache lookups per outcome (hit, miss, stale)",
		},
		[]string{"outcome"},
	)

	ClickEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "partscout_click_events_total",
			Help: "Click events per outcome (recorded, dropped, failed)",
		},
		[]string{"outcome"},
	)
)

var (
	ScheduledJobLastRun = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "partscout_job_last_run_timestamp",
			Help: "Unix timestamp of the last completed run for a job",
		},
		[]string{"job"},
	)

	ScheduledJobLastDurationSeconds = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "partscout_job_last_duration_seconds",
			Help: "Duration of the last completed run for a job",
		},
		[]string{"job"},
	)

	ScheduledJobFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "partscout_job_failures_total",
			Help: "Total number of failed executions per job",
		},
		[]string{"job"},
	)
)

// UpdateJobMetrics records the outcome of one scheduled job run.
func UpdateJobMetrics(job string, startedAt time.Time, err error) {
	dur := time.Since(startedAt).Seconds()
	ScheduledJobLastDurationSeconds.WithLabelValues(job).Set(dur)
	ScheduledJobLastRun.WithLabelValues(job).Set(float64(time.Now().Unix()))
	if err != nil {
		ScheduledJobFailuresTotal.WithLabelValues(job).Inc()
	}
}
