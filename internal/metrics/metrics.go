// Package metrics defines the Prometheus collectors exposed on /metrics.
//
// Pipeline:
//   - pipeline_runs_total{outcome}: ok, validation_error, generation_error, malformed_output, cancelled
//   - pipeline_stage_duration_seconds{stage}: generate, normalize, resolve, persist
//   - oracle_requests_total{purpose,status}: purpose is generate or repair
//   - normalizer_repairs_total{result}: ok or failed
//   - persistence_failures_total
//
// Catalog:
//   - catalog_lookups_total{outcome}: matched, no_results, error
//   - catalog_cache_total{result}: hit, miss, error
//   - circuit_breaker_state{name}: 0 closed, 1 open, 2 half-open
//
// Access guard:
//   - rate_limit_decisions_total{decision}: allowed, limited, store_error
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PipelineRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_runs_total",
			Help: "Recommendation pipeline runs by outcome",
		},
		[]string{"outcome"},
	)

	PipelineStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pipeline_stage_duration_seconds",
			Help:    "Duration of each pipeline stage in seconds",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"stage"},
	)

	OracleRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oracle_requests_total",
			Help: "Chat completion requests by purpose and status",
		},
		[]string{"purpose", "status"},
	)

	NormalizerRepairs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "normalizer_repairs_total",
			Help: "Repair passes issued for malformed model output",
		},
		[]string{"result"},
	)

	PersistenceFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "persistence_failures_total",
			Help: "Recommendation records that could not be written",
		},
	)

	CatalogLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_lookups_total",
			Help: "Catalog resolutions by outcome",
		},
		[]string{"outcome"},
	)

	CatalogCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_cache_total",
			Help: "Catalog search cache lookups by result",
		},
		[]string{"result"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
		},
		[]string{"name"},
	)

	RateLimitDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limit_decisions_total",
			Help: "Access guard rate limit decisions",
		},
		[]string{"decision"},
	)
)
