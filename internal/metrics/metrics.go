package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studyq_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "studyq_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	InterpretationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studyq_interpretations_total",
			Help: "Query interpretations by path (fast, slow) and outcome (resolved, degraded).",
		},
		[]string{"path", "outcome"},
	)

	TokensChargedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studyq_tokens_charged_total",
			Help: "Tokens debited from user balances, by operation.",
		},
		[]string{"operation"},
	)

	ChargeRejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studyq_charge_rejections_total",
			Help: "Charges rejected for insufficient balance, by operation.",
		},
		[]string{"operation"},
	)

	CacheLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studyq_cache_lookups_total",
			Help: "Result cache lookups by result (hit, miss, error).",
		},
		[]string{"result"},
	)

	PipelineRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studyq_pipeline_runs_total",
			Help: "Retrieval pipeline runs by terminal state.",
		},
		[]string{"state"},
	)

	SweepRefillsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "studyq_sweep_refills_total",
			Help: "Accounts refilled by the weekly sweep.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		InterpretationsTotal,
		TokensChargedTotal,
		ChargeRejectionsTotal,
		CacheLookupsTotal,
		PipelineRunsTotal,
		SweepRefillsTotal,
	)
}
