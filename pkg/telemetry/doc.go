// Package telemetry groups the observability packages of relayscrub.
//
//   - logging: structured logging with redaction of personal data
//   - metrics: Prometheus metrics for scrub runs and rule loading
//   - tracing: OpenTelemetry spans exported over OTLP
//   - health: liveness and readiness endpoints
//
// Log redaction reuses the builtin matchers of package pii, so the relay
// does not leak into its own logs what it removes from events.
package telemetry
