package metrics

import (
	"mercator-hq/relayscrub/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// RuleMetrics tracks what scrubbing did to events.
//
// Metrics:
//   - relayscrub_core_remarks_total: Remarks written by rule id and kind
//   - relayscrub_core_meta_errors_total: Errors attached to values by kind
type RuleMetrics struct {
	remarksTotal *prometheus.CounterVec

	metaErrorsTotal *prometheus.CounterVec
}

// NewRuleMetrics creates and registers rule metrics with the provided registry.
func NewRuleMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *RuleMetrics {
	rm := &RuleMetrics{
		remarksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "remarks_total",
				Help:      "Total number of remarks written by scrubbing rules",
			},
			[]string{"rule_id", "kind"},
		),

		metaErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "meta_errors_total",
				Help:      "Total number of errors attached to event values",
			},
			[]string{"kind"},
		),
	}

	registry.MustRegister(
		rm.remarksTotal,
		rm.metaErrorsTotal,
	)

	return rm
}

// RecordRemarks adds n remarks of a rule and kind.
//
// Example:
//
//	rm.RecordRemarks("@email", "s", 2)
func (rm *RuleMetrics) RecordRemarks(ruleID, kind string, n int) {
	rm.remarksTotal.WithLabelValues(ruleID, kind).Add(float64(n))
}

// RecordMetaErrors adds n errors of a kind.
func (rm *RuleMetrics) RecordMetaErrors(kind string, n int) {
	rm.metaErrorsTotal.WithLabelValues(kind).Add(float64(n))
}
