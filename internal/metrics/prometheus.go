package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the predictor

var (
	// API Call metrics
	APICallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchday_api_calls_total",
			Help: "Total number of API-Football calls",
		},
		[]string{"endpoint", "status"},
	)

	APICallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "matchday_api_call_duration_seconds",
			Help:    "Duration of API calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	// Cache metrics
	CacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "matchday_cache_hits_total",
			Help: "Total number of response cache hits",
		},
	)

	CacheMissesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "matchday_cache_misses_total",
			Help: "Total number of response cache misses",
		},
	)

	// Run metrics
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchday_runs_total",
			Help: "Total number of prediction runs",
		},
		[]string{"trigger", "status"},
	)

	RunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "matchday_run_duration_seconds",
			Help:    "Duration of prediction runs in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
		},
		[]string{"trigger"},
	)

	PredictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchday_predictions_total",
			Help: "Total number of fixture predictions by verdict",
		},
		[]string{"verdict"},
	)

	FixtureFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchday_fixture_failures_total",
			Help: "Total number of fixtures skipped because of fetch errors",
		},
		[]string{"stage"},
	)

	LastSuccessfulRun = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "matchday_last_successful_run_timestamp",
			Help: "Timestamp of last successful prediction run",
		},
	)

	// Error metrics
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchday_errors_total",
			Help: "Total number of errors",
		},
		[]string{"component", "error_type"},
	)

	// System metrics
	SystemUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "matchday_system_uptime_seconds",
			Help: "System uptime in seconds",
		},
	)
)

// RecordAPICall records an API call metric
func RecordAPICall(endpoint, status string, duration float64) {
	APICallsTotal.WithLabelValues(endpoint, status).Inc()
	APICallDuration.WithLabelValues(endpoint).Observe(duration)
}

// RecordCacheHit records a cache hit
func RecordCacheHit() {
	CacheHitsTotal.Inc()
}

// RecordCacheMiss records a cache miss
func RecordCacheMiss() {
	CacheMissesTotal.Inc()
}

// RecordRun records a prediction run
func RecordRun(trigger, status string, duration float64) {
	RunsTotal.WithLabelValues(trigger, status).Inc()
	RunDuration.WithLabelValues(trigger).Observe(duration)

	if status == "success" {
		LastSuccessfulRun.SetToCurrentTime()
	}
}

// RecordPrediction records one computed prediction
func RecordPrediction(verdict string) {
	PredictionsTotal.WithLabelValues(verdict).Inc()
}

// RecordFixtureFailure records a fixture skipped at the given stage
func RecordFixtureFailure(stage string) {
	FixtureFailuresTotal.WithLabelValues(stage).Inc()
}

// RecordError records an error
func RecordError(component, errorType string) {
	ErrorsTotal.WithLabelValues(component, errorType).Inc()
}
