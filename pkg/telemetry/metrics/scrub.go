package metrics

import (
	"time"

	"mercator-hq/relayscrub/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// ScrubMetrics tracks scrub runs.
//
// Metrics:
//   - relayscrub_core_events_total: Events processed by project and status
//   - relayscrub_core_scrub_duration_seconds: Time spent scrubbing one event
//   - relayscrub_core_event_size_bytes: Serialized size of scrubbed events
type ScrubMetrics struct {
	eventsTotal *prometheus.CounterVec

	duration *prometheus.HistogramVec

	eventSize *prometheus.HistogramVec
}

// NewScrubMetrics creates and registers scrub metrics with the provided registry.
func NewScrubMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *ScrubMetrics {
	sm := &ScrubMetrics{
		eventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "events_total",
				Help:      "Total number of events processed",
			},
			[]string{"project", "status"},
		),

		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "scrub_duration_seconds",
				Help:      "Duration of scrubbing a single event in seconds",
				Buckets:   cfg.DurationBuckets,
			},
			[]string{"project"},
		),

		eventSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "event_size_bytes",
				Help:      "Serialized size of events in bytes",
				Buckets:   prometheus.ExponentialBuckets(256, 4, 8), // 256B to 4MB
			},
			[]string{"project"},
		),
	}

	registry.MustRegister(
		sm.eventsTotal,
		sm.duration,
		sm.eventSize,
	)

	return sm
}

// RecordEvent records one processed event.
//
// Parameters:
//   - project: Project whose rules were applied
//   - status: "scrubbed", "invalid" or "failed"
//   - duration: Time spent in the pipeline
func (sm *ScrubMetrics) RecordEvent(project, status string, duration time.Duration) {
	sm.eventsTotal.WithLabelValues(project, status).Inc()
	sm.duration.WithLabelValues(project).Observe(duration.Seconds())
}

// RecordSize records the serialized size of an event.
func (sm *ScrubMetrics) RecordSize(project string, bytes int) {
	sm.eventSize.WithLabelValues(project).Observe(float64(bytes))
}
