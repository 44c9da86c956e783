// Package metrics defines the Prometheus collectors exported by igtracker.
//
// All collectors are registered on the default registry at package init and
// served by the watch command when metrics are enabled.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PipelineRuns counts pipeline executions.
	// Labels:
	//   - outcome: "success", "profile_not_found", "source_unavailable", "store_unavailable"
	PipelineRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "igtracker_pipeline_runs_total",
			Help: "Total number of profile pipeline runs",
		},
		[]string{"outcome"},
	)

	// PipelineStageDuration measures each pipeline stage.
	PipelineStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "igtracker_pipeline_stage_duration_seconds",
			Help:    "Duration of pipeline stages in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"stage"},
	)

	// InferenceCalls counts inference requests.
	// Labels:
	//   - kind: "image", "audience"
	//   - outcome: "success", "failure", "timeout", "skipped"
	InferenceCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "igtracker_inference_calls_total",
			Help: "Total number of inference calls",
		},
		[]string{"kind", "outcome"},
	)

	// InferenceDuration measures inference latency.
	InferenceDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "igtracker_inference_duration_seconds",
			Help:    "Duration of inference calls in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 45},
		},
		[]string{"kind"},
	)

	// CircuitBreakerState tracks breaker state (0=closed, 1=half-open, 2=open).
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "igtracker_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// HistoryAppends counts stats history entries written.
	// Labels:
	//   - entity: "profile", "post"
	HistoryAppends = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "igtracker_history_appends_total",
			Help: "Total number of stats history entries appended",
		},
		[]string{"entity"},
	)

	// PostsSkipped counts feed items skipped during persist.
	PostsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "igtracker_posts_skipped_total",
			Help: "Total number of feed items skipped during persist",
		},
		[]string{"reason"},
	)

	// RefreshJobs counts scheduled refresh jobs.
	RefreshJobs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "igtracker_refresh_jobs_total",
			Help: "Total number of scheduled refresh jobs",
		},
		[]string{"outcome"},
	)
)

// RecordStage observes the duration of a pipeline stage
func RecordStage(stage string, start time.Time) {
	PipelineStageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

// RecordInference records the outcome and latency of an inference call
func RecordInference(kind, outcome string, duration time.Duration) {
	InferenceCalls.WithLabelValues(kind, outcome).Inc()
	if outcome != "skipped" {
		InferenceDuration.WithLabelValues(kind).Observe(duration.Seconds())
	}
}
