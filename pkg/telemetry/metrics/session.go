package metrics

import (
	"strconv"
	"time"

	"mercator-hq/epicorbridge/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// SessionMetrics tracks the shared integration session.
type SessionMetrics struct {
	callsTotal   *prometheus.CounterVec
	callDuration *prometheus.HistogramVec
	renewals     *prometheus.CounterVec
	active       prometheus.Gauge
}

// NewSessionMetrics creates and registers session metrics.
func NewSessionMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *SessionMetrics {
	sm := &SessionMetrics{
		callsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "session",
				Name:      "calls_total",
				Help:      "Validate, login and logout round trips by outcome",
			},
			[]string{"op", "outcome"},
		),

		callDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: "session",
				Name:      "call_duration_seconds",
				Help:      "Duration of session round trips",
				Buckets:   cfg.LatencyBuckets,
			},
			[]string{"op"},
		),

		renewals: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "session",
				Name:      "renewals_total",
				Help:      "Validate-or-login results seen by callers; shared=true joined an in-flight renewal",
			},
			[]string{"outcome", "shared"},
		),

		active: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: "session",
				Name:      "active",
				Help:      "1 when an integration session is held",
			},
		),
	}

	registry.MustRegister(sm.callsTotal, sm.callDuration, sm.renewals, sm.active)
	return sm
}

// RecordCall records one session round trip.
func (sm *SessionMetrics) RecordCall(op, outcome string, duration time.Duration) {
	sm.callsTotal.WithLabelValues(op, outcome).Inc()
	sm.callDuration.WithLabelValues(op).Observe(duration.Seconds())
}

// RecordRenewal records one renewal result.
func (sm *SessionMetrics) RecordRenewal(outcome string, shared bool) {
	sm.renewals.WithLabelValues(outcome, strconv.FormatBool(shared)).Inc()
}

// SetActive sets the session gauge.
func (sm *SessionMetrics) SetActive(active bool) {
	if active {
		sm.active.Set(1)
		return
	}
	sm.active.Set(0)
}
