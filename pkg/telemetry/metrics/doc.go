// Package metrics provides Prometheus metrics collection for relayscrub.
//
// # Metrics Categories
//
//   - Scrub Metrics: events processed, scrub duration and event sizes
//   - Rule Metrics: remarks by rule id and kind, value errors by kind
//   - Rule Set Metrics: configuration loads, directory reloads and the
//     number of active project configurations
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//
//	collector.RecordScrub("acme", "scrubbed", 120*time.Microsecond, 2048)
//	collector.RecordRemarks("@email", "s", 1)
//	collector.RecordConfigLoad("acme", err)
//
// # Prometheus Endpoint
//
//	# HELP relayscrub_core_events_total Total number of events processed
//	# TYPE relayscrub_core_events_total counter
//	relayscrub_core_events_total{project="acme",status="scrubbed"} 1234
//
// # Cardinality Management
//
// Rule ids are user-defined. At most MaxRuleLabels distinct ids are used as
// label values; further ids are aggregated into "other".
package metrics
