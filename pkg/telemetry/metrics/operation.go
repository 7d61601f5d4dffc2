package metrics

import (
	"time"

	"mercator-hq/epicorbridge/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// OperationMetrics tracks proxied BAQ queries and function calls.
//
// Metrics:
//   - epicorbridge_operations_total: operations by kind, target, category
//   - epicorbridge_operation_duration_seconds: end-to-end latency by kind
//   - epicorbridge_upstream_responses_total: ERP responses by status code
//   - epicorbridge_upstream_timeouts_total: operations that hit a deadline
type OperationMetrics struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	upstreamResponses *prometheus.CounterVec
	upstreamTimeouts  *prometheus.CounterVec
}

// NewOperationMetrics creates and registers operation metrics.
func NewOperationMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *OperationMetrics {
	om := &OperationMetrics{
		operationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "operations_total",
				Help:      "Total number of proxied ERP operations",
			},
			[]string{"kind", "target", "category"},
		),

		operationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "operation_duration_seconds",
				Help:      "Duration of proxied ERP operations including session checks",
				Buckets:   cfg.LatencyBuckets,
			},
			[]string{"kind"},
		),

		upstreamResponses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "upstream",
				Name:      "responses_total",
				Help:      "ERP responses by status code",
			},
			[]string{"kind", "status"},
		),

		upstreamTimeouts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "upstream",
				Name:      "timeouts_total",
				Help:      "Operations that failed on a deadline",
			},
			[]string{"kind"},
		),
	}

	registry.MustRegister(
		om.operationsTotal,
		om.operationDuration,
		om.upstreamResponses,
		om.upstreamTimeouts,
	)

	return om
}

// Record records one finished operation. status is "none" when no
// response was received.
func (om *OperationMetrics) Record(kind, target, category, status string, duration time.Duration, timeout bool) {
	om.operationsTotal.WithLabelValues(kind, target, category).Inc()
	om.operationDuration.WithLabelValues(kind).Observe(duration.Seconds())
	om.upstreamResponses.WithLabelValues(kind, status).Inc()
	if timeout {
		om.upstreamTimeouts.WithLabelValues(kind).Inc()
	}
}
