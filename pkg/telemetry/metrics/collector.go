package metrics

import (
	"sync"
	"time"

	"mercator-hq/relayscrub/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// otherLabel replaces label values beyond the cardinality limit.
const otherLabel = "other"

// Collector is the main orchestrator for all Prometheus metrics in relayscrub.
// It manages metric registration and provides a unified interface for
// recording metrics from the scrub pipeline and the rule store.
//
// Rule ids come from user configuration, so the rule_id label is guarded
// by a CardinalityLimiter; ids beyond the limit are aggregated into "other".
type Collector struct {
	config   config.MetricsConfig
	registry *prometheus.Registry

	// Scrub run metrics
	scrubMetrics *ScrubMetrics

	// Remark and error metrics
	ruleMetrics *RuleMetrics

	// Rule configuration metrics
	ruleSetMetrics *RuleSetMetrics

	// Cardinality tracking for rule ids
	cardinalityLimiter *CardinalityLimiter
}

// NewCollector creates a new metrics collector with the specified configuration
// and Prometheus registry. If registry is nil, a new registry is created.
// Unset fields fall back to the configuration defaults.
//
// Example:
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	c := withDefaults(cfg)

	collector := &Collector{
		config:             c,
		registry:           registry,
		cardinalityLimiter: NewCardinalityLimiter(c.MaxRuleLabels),
	}

	// Initialize metric subsystems
	collector.scrubMetrics = NewScrubMetrics(&c, registry)
	collector.ruleMetrics = NewRuleMetrics(&c, registry)
	collector.ruleSetMetrics = NewRuleSetMetrics(&c, registry)

	return collector
}

// Enabled reports whether recording is active. A nil Collector records
// nothing.
func (c *Collector) Enabled() bool {
	return c != nil && c.config.Enabled
}

// RecordScrub records metrics for one event run through the pipeline.
//
// Parameters:
//   - project: Project whose rules were applied
//   - status: "scrubbed", "invalid" or "failed"
//   - duration: Time spent in the pipeline
//   - size: Serialized size of the event in bytes, or 0 if unknown
func (c *Collector) RecordScrub(project, status string, duration time.Duration, size int) {
	if !c.Enabled() {
		return
	}

	c.scrubMetrics.RecordEvent(project, status, duration)
	if size > 0 {
		c.scrubMetrics.RecordSize(project, size)
	}
}

// RecordRemarks records n remarks of a rule. Rule ids beyond the
// cardinality limit are recorded as "other".
func (c *Collector) RecordRemarks(ruleID, kind string, n int) {
	if !c.Enabled() || n <= 0 {
		return
	}

	if !c.cardinalityLimiter.Allow(ruleID) {
		ruleID = otherLabel
	}
	c.ruleMetrics.RecordRemarks(ruleID, kind, n)
}

// RecordMetaErrors records n errors of a kind attached to event values.
func (c *Collector) RecordMetaErrors(kind string, n int) {
	if !c.Enabled() || n <= 0 {
		return
	}

	c.ruleMetrics.RecordMetaErrors(kind, n)
}

// RecordConfigLoad records a rule configuration load attempt.
func (c *Collector) RecordConfigLoad(project string, err error) {
	if !c.Enabled() {
		return
	}

	result := "success"
	if err != nil {
		result = "error"
	}
	c.ruleSetMetrics.RecordLoad(project, result)
}

// RecordReload records a rule directory reload.
func (c *Collector) RecordReload(trigger string) {
	if !c.Enabled() {
		return
	}

	c.ruleSetMetrics.RecordReload(trigger)
}

// SetActiveConfigs sets the number of projects with a compiled configuration.
func (c *Collector) SetActiveConfigs(n int) {
	if !c.Enabled() {
		return
	}

	c.ruleSetMetrics.SetActive(n)
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// withDefaults returns a copy of the configuration with unset fields
// filled in.
func withDefaults(cfg *config.MetricsConfig) config.MetricsConfig {
	c := *cfg
	if c.Namespace == "" {
		c.Namespace = config.DefaultMetricsNamespace
	}
	if c.Subsystem == "" {
		c.Subsystem = config.DefaultMetricsSubsystem
	}
	if len(c.DurationBuckets) == 0 {
		c.DurationBuckets = config.DefaultDurationBuckets
	}
	if c.MaxRuleLabels <= 0 {
		c.MaxRuleLabels = config.DefaultMaxRuleLabels
	}
	return c
}

// CardinalityLimiter prevents metric cardinality explosion by limiting
// the number of unique label values.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a new cardinality limiter with the specified
// maximum cardinality.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow checks if a label set is allowed. Returns true if the label set
// already exists or if we haven't reached the cardinality limit yet.
// Returns false if adding this label set would exceed the limit.
func (cl *CardinalityLimiter) Allow(labelSet string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[labelSet]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	// Double-check after acquiring write lock
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
