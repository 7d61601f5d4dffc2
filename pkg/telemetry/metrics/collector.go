package metrics

import (
	"context"
	"strconv"
	"sync"
	"time"

	"mercator-hq/epicorbridge/pkg/bridge"
	"mercator-hq/epicorbridge/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// overflowTarget replaces target labels once the cardinality limit is hit.
const overflowTarget = "other"

// Collector owns the gateway's Prometheus registry. It implements
// session.Recorder and bridge.Observer so the session manager and the
// proxy can report to it directly.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	operationMetrics *OperationMetrics
	sessionMetrics   *SessionMetrics
	httpMetrics      *HTTPMetrics

	catalogReloads *prometheus.CounterVec

	cardinalityLimiter *CardinalityLimiter
}

// NewCollector creates a collector. If registry is nil a new registry is
// created; process and Go runtime collectors are registered on it.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			collectors.NewGoCollector(),
		)
	}

	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if len(cfg.LatencyBuckets) == 0 {
		cfg.LatencyBuckets = append([]float64(nil), config.DefaultLatencyBuckets...)
	}

	c := &Collector{
		config:             cfg,
		registry:           registry,
		cardinalityLimiter: NewCardinalityLimiter(1000),
	}

	c.operationMetrics = NewOperationMetrics(cfg, registry)
	c.sessionMetrics = NewSessionMetrics(cfg, registry)
	c.httpMetrics = NewHTTPMetrics(cfg, registry)

	c.catalogReloads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: "catalog",
			Name:      "reloads_total",
			Help:      "Catalog file reload attempts by result",
		},
		[]string{"result"},
	)
	registry.MustRegister(c.catalogReloads)

	return c
}

// ObserveResult implements bridge.Observer.
func (c *Collector) ObserveResult(_ context.Context, op bridge.Operation, res bridge.Result, duration time.Duration) {
	if !c.config.Enabled {
		return
	}

	target := op.Target
	if !c.cardinalityLimiter.Allow(op.Kind + ":" + target) {
		target = overflowTarget
	}

	status := "none"
	if res.UpstreamStatus != 0 {
		status = strconv.Itoa(res.UpstreamStatus)
	}

	c.operationMetrics.Record(op.Kind, target, res.Category.String(), status, duration, res.Timeout)
}

// RecordSessionCall implements session.Recorder.
func (c *Collector) RecordSessionCall(op, outcome string, duration time.Duration) {
	if !c.config.Enabled {
		return
	}
	c.sessionMetrics.RecordCall(op, outcome, duration)
}

// RecordRenewal implements session.Recorder.
func (c *Collector) RecordRenewal(outcome string, shared bool) {
	if !c.config.Enabled {
		return
	}
	c.sessionMetrics.RecordRenewal(outcome, shared)
}

// SetSessionActive implements session.Recorder.
func (c *Collector) SetSessionActive(active bool) {
	if !c.config.Enabled {
		return
	}
	c.sessionMetrics.SetActive(active)
}

// RecordHTTPRequest records one inbound request by route pattern.
func (c *Collector) RecordHTTPRequest(route, method string, code int, duration time.Duration) {
	if !c.config.Enabled {
		return
	}
	c.httpMetrics.Record(route, method, code, duration)
}

// RecordCatalogReload records a catalog reload attempt.
func (c *Collector) RecordCatalogReload(err error) {
	if !c.config.Enabled {
		return
	}
	result := "success"
	if err != nil {
		result = "error"
	}
	c.catalogReloads.WithLabelValues(result).Inc()
}

// RegisterAuditDropped exposes a drop counter owned by the audit recorder.
func (c *Collector) RegisterAuditDropped(dropped func() int64) {
	c.registry.MustRegister(prometheus.NewCounterFunc(
		prometheus.CounterOpts{
			Namespace: c.config.Namespace,
			Subsystem: "audit",
			Name:      "dropped_total",
			Help:      "Audit entries dropped because the write buffer was full",
		},
		func() float64 { return float64(dropped()) },
	))
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// CardinalityLimiter prevents metric cardinality explosion by limiting
// the number of unique label combinations.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a limiter allowing maxCardinality label sets.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow reports whether labelSet is already known or still fits.
func (cl *CardinalityLimiter) Allow(labelSet string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[labelSet]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	if _, exists := cl.current[labelSet]; exists {
		return true
	}
	if len(cl.current) >= cl.maxCardinality {
		return false
	}

	cl.current[labelSet] = struct{}{}
	return true
}

// Count returns the current cardinality.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
