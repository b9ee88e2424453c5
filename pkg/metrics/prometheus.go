package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	stageDuration    *prometheus.HistogramVec
	pipelineRuns     *prometheus.CounterVec
	breakerState     *prometheus.GaugeVec
	rateLimitDenials *prometheus.CounterVec
	errorsTotal      *prometheus.CounterVec
	cacheLookups     *prometheus.CounterVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		stageDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "trisight_stage_duration_seconds",
				Help:    "Duration of pipeline stages in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"stage"},
		),
		pipelineRuns: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trisight_pipeline_runs_total",
				Help: "Total pipeline runs by outcome",
			},
			[]string{"outcome"},
		),
		breakerState: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "trisight_breaker_state",
				Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
			},
			[]string{"api"},
		),
		rateLimitDenials: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trisight_rate_limit_denials_total",
				Help: "Requests denied by the per-API rate limiter",
			},
			[]string{"api"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trisight_errors_total",
				Help: "Total number of errors by code",
			},
			[]string{"type"},
		),
		cacheLookups: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trisight_response_cache_lookups_total",
				Help: "Response cache lookups by result",
			},
			[]string{"result"},
		),
	}
}

// RecordStageDuration records how long one analysis stage took.
func (r *Recorder) RecordStageDuration(stage string, seconds float64) {
	r.stageDuration.WithLabelValues(stage).Observe(seconds)
}

// RecordPipelineRun records a completed run with its outcome label.
func (r *Recorder) RecordPipelineRun(outcome string) {
	r.pipelineRuns.WithLabelValues(outcome).Inc()
}

// RecordBreakerState records a breaker state transition.
func (r *Recorder) RecordBreakerState(apiName, state string) {
	var v float64
	switch state {
	case "half-open":
		v = 1
	case "open":
		v = 2
	}
	r.breakerState.WithLabelValues(apiName).Set(v)
}

// RecordRateLimitDenied records a quota denial for an upstream API.
func (r *Recorder) RecordRateLimitDenied(apiName string) {
	r.rateLimitDenials.WithLabelValues(apiName).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordCacheHit records a response cache lookup result.
func (r *Recorder) RecordCacheHit(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	r.cacheLookups.WithLabelValues(result).Inc()
}
