package metrics

import (
	"mercator-hq/relayscrub/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// RuleSetMetrics tracks loading of per-project rule configurations.
//
// Metrics:
//   - relayscrub_core_config_loads_total: Load attempts by project and result
//   - relayscrub_core_config_reloads_total: Directory reloads by trigger
//   - relayscrub_core_active_configs: Number of projects with a compiled configuration
type RuleSetMetrics struct {
	loadsTotal *prometheus.CounterVec

	reloadsTotal *prometheus.CounterVec

	active prometheus.Gauge
}

// NewRuleSetMetrics creates and registers rule set metrics with the provided registry.
func NewRuleSetMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *RuleSetMetrics {
	rs := &RuleSetMetrics{
		loadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "config_loads_total",
				Help:      "Total number of rule configuration loads",
			},
			[]string{"project", "result"},
		),

		reloadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "config_reloads_total",
				Help:      "Total number of rule directory reloads",
			},
			[]string{"trigger"},
		),

		active: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "active_configs",
				Help:      "Number of projects with a compiled rule configuration",
			},
		),
	}

	registry.MustRegister(
		rs.loadsTotal,
		rs.reloadsTotal,
		rs.active,
	)

	return rs
}

// RecordLoad records a load attempt. Result is "success" or "error".
func (rs *RuleSetMetrics) RecordLoad(project, result string) {
	rs.loadsTotal.WithLabelValues(project, result).Inc()
}

// RecordReload records a directory reload. Trigger is "startup", "watch",
// "resync" or "manual".
func (rs *RuleSetMetrics) RecordReload(trigger string) {
	rs.reloadsTotal.WithLabelValues(trigger).Inc()
}

// SetActive sets the number of active configurations.
func (rs *RuleSetMetrics) SetActive(n int) {
	rs.active.Set(float64(n))
}
