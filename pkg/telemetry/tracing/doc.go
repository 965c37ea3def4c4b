// Package tracing provides OpenTelemetry tracing for relayscrub.
//
// Every scrub run becomes one span with a child event per pipeline stage
// (normalize, trim, pii). Rule directory reloads get spans of their own.
// Span attributes carry identifiers and counts only; values taken from
// events are never recorded.
//
// # Export
//
// Spans are exported over OTLP gRPC to telemetry.tracing.endpoint. When
// tracing is disabled a noop tracer is used.
//
// # Sampling Strategies
//
//   - always: sample all traces
//   - never: sample no traces
//   - ratio: sample a fraction of traces by trace id
//
// All strategies respect the sampling decision of a remote parent.
//
// # Usage
//
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing)
//	if err != nil {
//	    return err
//	}
//	defer tracer.Shutdown(context.Background())
//
//	ctx = tracing.ExtractFromMap(ctx, envelope.Headers)
//	ctx, span := tracer.Start(ctx, "scrub")
//	defer span.End()
//	tracing.SetEventAttributes(span, project, eventID, eventType, version)
package tracing
