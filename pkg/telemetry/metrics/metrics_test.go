package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"mercator-hq/relayscrub/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func testConfig() *config.MetricsConfig {
	return &config.MetricsConfig{
		Enabled:         true,
		Namespace:       "test",
		Subsystem:       "metrics",
		DurationBuckets: []float64{0.001, 0.01, 0.1},
		MaxRuleLabels:   2,
	}
}

func TestCollector_NewCollector(t *testing.T) {
	registry := prometheus.NewRegistry()
	collector := NewCollector(testConfig(), registry)

	if collector.Registry() != registry {
		t.Error("Collector registry not set correctly")
	}
	if !collector.Enabled() {
		t.Error("expected collector to be enabled")
	}
}

func TestCollector_NewCollector_Defaults(t *testing.T) {
	cfg := &config.MetricsConfig{Enabled: true}
	collector := NewCollector(cfg, nil)

	collector.RecordScrub("p", "scrubbed", time.Millisecond, 0)

	count, err := testutil.GatherAndCount(collector.Registry(), "relayscrub_core_events_total")
	if err != nil {
		t.Fatalf("GatherAndCount() error = %v", err)
	}
	if count != 1 {
		t.Errorf("got %d series, want 1", count)
	}
	if cfg.Namespace != "" {
		t.Error("NewCollector must not modify the caller's configuration")
	}
}

func TestCollector_RecordScrub(t *testing.T) {
	collector := NewCollector(testConfig(), nil)

	collector.RecordScrub("acme", "scrubbed", 2*time.Millisecond, 1024)
	collector.RecordScrub("acme", "scrubbed", time.Millisecond, 0)
	collector.RecordScrub("acme", "invalid", time.Millisecond, 0)

	if got := testutil.ToFloat64(collector.scrubMetrics.eventsTotal.WithLabelValues("acme", "scrubbed")); got != 2 {
		t.Errorf("scrubbed events = %v, want 2", got)
	}
	if got := testutil.ToFloat64(collector.scrubMetrics.eventsTotal.WithLabelValues("acme", "invalid")); got != 1 {
		t.Errorf("invalid events = %v, want 1", got)
	}

	if got := testutil.CollectAndCount(collector.scrubMetrics.eventSize); got != 1 {
		t.Errorf("got %d size series, want 1", got)
	}
	if got := testutil.CollectAndCount(collector.scrubMetrics.duration); got != 1 {
		t.Errorf("got %d duration series, want 1", got)
	}
}

func TestCollector_RecordRemarks_CardinalityLimit(t *testing.T) {
	collector := NewCollector(testConfig(), nil)

	collector.RecordRemarks("@email", "s", 2)
	collector.RecordRemarks("@ip", "s", 1)
	collector.RecordRemarks("custom-3", "x", 4)
	collector.RecordRemarks("custom-4", "x", 1)
	collector.RecordRemarks("@email", "s", 1)
	collector.RecordRemarks("@ip", "x", 0)

	tests := []struct {
		rule string
		kind string
		want float64
	}{
		{"@email", "s", 3},
		{"@ip", "s", 1},
		{otherLabel, "x", 5},
	}
	for _, tt := range tests {
		if got := testutil.ToFloat64(collector.ruleMetrics.remarksTotal.WithLabelValues(tt.rule, tt.kind)); got != tt.want {
			t.Errorf("remarks{%s,%s} = %v, want %v", tt.rule, tt.kind, got, tt.want)
		}
	}
	if got := testutil.CollectAndCount(collector.ruleMetrics.remarksTotal); got != 3 {
		t.Errorf("got %d remark series, want 3", got)
	}
}

func TestCollector_RecordMetaErrors(t *testing.T) {
	collector := NewCollector(testConfig(), nil)

	collector.RecordMetaErrors("value_too_long", 2)
	collector.RecordMetaErrors("value_too_long", 1)

	if got := testutil.ToFloat64(collector.ruleMetrics.metaErrorsTotal.WithLabelValues("value_too_long")); got != 3 {
		t.Errorf("meta errors = %v, want 3", got)
	}
}

func TestCollector_RuleSets(t *testing.T) {
	collector := NewCollector(testConfig(), nil)

	collector.RecordConfigLoad("acme", nil)
	collector.RecordConfigLoad("acme", errors.New("bad rule"))
	collector.RecordReload("watch")
	collector.SetActiveConfigs(3)

	if got := testutil.ToFloat64(collector.ruleSetMetrics.loadsTotal.WithLabelValues("acme", "success")); got != 1 {
		t.Errorf("successful loads = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.ruleSetMetrics.loadsTotal.WithLabelValues("acme", "error")); got != 1 {
		t.Errorf("failed loads = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.ruleSetMetrics.reloadsTotal.WithLabelValues("watch")); got != 1 {
		t.Errorf("reloads = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.ruleSetMetrics.active); got != 3 {
		t.Errorf("active configs = %v, want 3", got)
	}
}

func TestCollector_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false
	collector := NewCollector(cfg, nil)

	collector.RecordScrub("acme", "scrubbed", time.Millisecond, 10)
	collector.RecordRemarks("@email", "s", 1)
	collector.RecordConfigLoad("acme", nil)
	collector.SetActiveConfigs(1)

	if got := testutil.CollectAndCount(collector.scrubMetrics.eventsTotal); got != 0 {
		t.Errorf("got %d event series, want 0", got)
	}
	if got := testutil.CollectAndCount(collector.ruleMetrics.remarksTotal); got != 0 {
		t.Errorf("got %d remark series, want 0", got)
	}
	if got := testutil.ToFloat64(collector.ruleSetMetrics.active); got != 0 {
		t.Errorf("active configs = %v, want 0", got)
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
		t.Error("expected known label set to stay allowed")
	}
	if got := cl.Count(); got != 2 {
		t.Errorf("Count() = %d, want 2", got)
	}
}

func TestCollector_Handler(t *testing.T) {
	collector := NewCollector(testConfig(), nil)
	collector.RecordScrub("acme", "scrubbed", time.Millisecond, 0)

	rec := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if !strings.Contains(rec.Body.String(), `test_metrics_events_total{project="acme",status="scrubbed"} 1`) {
		t.Errorf("events counter missing from output:\n%s", rec.Body.String())
	}
}

func TestCollector_Nil(t *testing.T) {
	var c *Collector

	if c.Enabled() {
		t.Error("nil collector reports enabled")
	}

	// Recording on a nil collector is a no-op.
	c.RecordScrub("acme", "scrubbed", time.Millisecond, 10)
	c.RecordRemarks("@email", "replace", 1)
	c.RecordMetaErrors("too_deep", 1)
	c.RecordConfigLoad("acme", nil)
	c.RecordReload("manual")
	c.SetActiveConfigs(1)
}
