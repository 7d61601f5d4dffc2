package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"mercator-hq/epicorbridge/pkg/bridge"
	"mercator-hq/epicorbridge/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func testConfig() *config.MetricsConfig {
	return &config.MetricsConfig{
		Enabled:        true,
		Namespace:      "test",
		LatencyBuckets: []float64{0.1, 0.5, 1.0, 5.0},
	}
}

func newTestCollector(t *testing.T) *Collector {
	t.Helper()
	return NewCollector(testConfig(), prometheus.NewRegistry())
}

func TestCollector_ObserveResult(t *testing.T) {
	c := newTestCollector(t)
	ctx := context.Background()

	c.ObserveResult(ctx, bridge.Operation{Kind: bridge.KindQuery, Target: "ZipCodes"},
		bridge.Result{Category: bridge.Success, UpstreamStatus: 200}, 120*time.Millisecond)
	c.ObserveResult(ctx, bridge.Operation{Kind: bridge.KindQuery, Target: "ZipCodes"},
		bridge.Result{Category: bridge.ClientError, UpstreamStatus: 400}, 80*time.Millisecond)
	c.ObserveResult(ctx, bridge.Operation{Kind: bridge.KindFunction, Target: "Orders/Create"},
		bridge.Result{Category: bridge.UpstreamError, Timeout: true}, 2*time.Second)

	om := c.operationMetrics
	if got := testutil.ToFloat64(om.operationsTotal.WithLabelValues("query", "ZipCodes", "success")); got != 1 {
		t.Errorf("expected 1 successful query, got %v", got)
	}
	if got := testutil.ToFloat64(om.operationsTotal.WithLabelValues("query", "ZipCodes", "client_error")); got != 1 {
		t.Errorf("expected 1 client error, got %v", got)
	}
	if got := testutil.ToFloat64(om.upstreamResponses.WithLabelValues("function", "none")); got != 1 {
		t.Errorf("expected 1 response without status, got %v", got)
	}
	if got := testutil.ToFloat64(om.upstreamTimeouts.WithLabelValues("function")); got != 1 {
		t.Errorf("expected 1 timeout, got %v", got)
	}
	if got := testutil.CollectAndCount(om.operationDuration); got != 2 {
		t.Errorf("expected 2 duration series, got %d", got)
	}
}

func TestCollector_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false
	c := NewCollector(cfg, prometheus.NewRegistry())

	c.ObserveResult(context.Background(), bridge.Operation{Kind: "query", Target: "X"}, bridge.Result{}, time.Millisecond)
	c.RecordSessionCall("login", "success", time.Millisecond)

	if got := testutil.CollectAndCount(c.operationMetrics.operationsTotal); got != 0 {
		t.Errorf("expected no series when disabled, got %d", got)
	}
	if got := testutil.CollectAndCount(c.sessionMetrics.callsTotal); got != 0 {
		t.Errorf("expected no series when disabled, got %d", got)
	}
}

func TestCollector_SessionRecorder(t *testing.T) {
	c := newTestCollector(t)

	c.RecordSessionCall("validate", "invalid", 10*time.Millisecond)
	c.RecordSessionCall("login", "success", 30*time.Millisecond)
	c.RecordRenewal("ok", false)
	c.RecordRenewal("ok", true)
	c.RecordRenewal("ok", true)
	c.SetSessionActive(true)

	sm := c.sessionMetrics
	if got := testutil.ToFloat64(sm.callsTotal.WithLabelValues("validate", "invalid")); got != 1 {
		t.Errorf("expected 1 invalid validate, got %v", got)
	}
	if got := testutil.ToFloat64(sm.renewals.WithLabelValues("ok", "true")); got != 2 {
		t.Errorf("expected 2 shared renewals, got %v", got)
	}
	if got := testutil.ToFloat64(sm.active); got != 1 {
		t.Errorf("expected active gauge 1, got %v", got)
	}

	c.SetSessionActive(false)
	if got := testutil.ToFloat64(sm.active); got != 0 {
		t.Errorf("expected active gauge 0, got %v", got)
	}
}

func TestCollector_CardinalityLimit(t *testing.T) {
	c := newTestCollector(t)
	c.cardinalityLimiter = NewCardinalityLimiter(1)

	ctx := context.Background()
	res := bridge.Result{Category: bridge.Success, UpstreamStatus: 200}
	c.ObserveResult(ctx, bridge.Operation{Kind: "query", Target: "A"}, res, time.Millisecond)
	c.ObserveResult(ctx, bridge.Operation{Kind: "query", Target: "B"}, res, time.Millisecond)

	if got := testutil.ToFloat64(c.operationMetrics.operationsTotal.WithLabelValues("query", overflowTarget, "success")); got != 1 {
		t.Errorf("expected overflow target to be used, got %v", got)
	}
}

func TestCollector_CatalogAndAudit(t *testing.T) {
	c := newTestCollector(t)

	c.RecordCatalogReload(nil)
	c.RecordCatalogReload(errors.New("bad yaml"))
	if got := testutil.ToFloat64(c.catalogReloads.WithLabelValues("error")); got != 1 {
		t.Errorf("expected 1 failed reload, got %v", got)
	}

	var dropped int64 = 7
	c.RegisterAuditDropped(func() int64 { return dropped })

	expected := `
# HELP test_audit_dropped_total Audit entries dropped because the write buffer was full
# TYPE test_audit_dropped_total counter
test_audit_dropped_total 7
`
	if err := testutil.GatherAndCompare(c.Registry(), strings.NewReader(expected), "test_audit_dropped_total"); err != nil {
		t.Errorf("unexpected metric output: %v", err)
	}
}

func TestCollector_Handler(t *testing.T) {
	c := newTestCollector(t)
	c.RecordHTTPRequest("/api/v1/query/{name}", http.MethodGet, 200, 5*time.Millisecond)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `test_http_requests_total{code="200",method="GET",route="/api/v1/query/{name}"} 1`) {
		t.Errorf("expected http request counter in output, got:\n%s", rec.Body.String())
	}
}

func TestCardinalityLimiter(t *testing.T) {
	cl := NewCardinalityLimiter(2)

	if !cl.Allow("a") || !cl.Allow("b") {
		t.Fatal("expected first two label sets to be allowed")
	}
	if cl.Allow("c") {
		t.Error("expected third label set to be rejected")
	}
	if !cl.Allow("a") {
		t.Error("expected known label set to be allowed")
	}
	if cl.Count() != 2 {
		t.Errorf("expected count 2, got %d", cl.Count())
	}
}
