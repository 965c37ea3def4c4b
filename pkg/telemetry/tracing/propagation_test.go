package tracing

import (
	"context"
	"testing"

	"mercator-hq/relayscrub/pkg/config"

	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func TestParseTraceParent(t *testing.T) {
	tests := []struct {
		name        string
		traceparent string
		wantValid   bool
		wantSampled bool
	}{
		{"sampled", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01", true, true},
		{"not sampled", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-00", true, false},
		{"other flags with sampled bit", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-03", true, true},
		{"other flags without sampled bit", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-02", true, false},
		{"upper case hex", "00-4BF92F3577B34DA6A3CE929D0E0E4736-00F067AA0BA902B7-01", true, true},
		{"missing part", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7", false, false},
		{"short version", "0-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01", false, false},
		{"short trace id", "00-4bf92f3577b34da6a3ce929d0e0e473-00f067aa0ba902b7-01", false, false},
		{"short parent id", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902-01", false, false},
		{"short flags", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-1", false, false},
		{"non-hex trace id", "00-4bf92f3577b34da6a3ce929d0e0e473g-00f067aa0ba902b7-01", false, false},
		{"zero trace id", "00-00000000000000000000000000000000-00f067aa0ba902b7-01", false, false},
		{"zero parent id", "00-4bf92f3577b34da6a3ce929d0e0e4736-0000000000000000-01", false, false},
		{"empty", "", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tp, valid := ParseTraceParent(tt.traceparent)
			if valid != tt.wantValid {
				t.Fatalf("ParseTraceParent() valid = %v, want %v", valid, tt.wantValid)
			}
			if tp.Sampled() != tt.wantSampled {
				t.Errorf("Sampled() = %v, want %v", tp.Sampled(), tt.wantSampled)
			}
			if valid && tp.ParentID == "" {
				t.Error("valid header parsed without a parent id")
			}
		})
	}
}

func TestContextFromHeaders(t *testing.T) {
	tracer, err := NewWithExporter(&config.TracingConfig{Sampler: SamplerAlways}, tracetest.NewInMemoryExporter())
	if err != nil {
		t.Fatalf("NewWithExporter() error = %v", err)
	}
	defer tracer.Shutdown(context.Background())

	valid := map[string]string{TraceParentHeader: "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"}
	ctx, ok := ContextFromHeaders(context.Background(), valid)
	if !ok {
		t.Fatal("ContextFromHeaders() rejected a valid traceparent")
	}
	if got := trace.SpanContextFromContext(ctx).TraceID().String(); got != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Errorf("trace id = %s, want the incoming one", got)
	}

	broken := map[string]string{TraceParentHeader: "garbage", "x-other": "kept"}
	ctx, ok = ContextFromHeaders(context.Background(), broken)
	if ok || trace.SpanContextFromContext(ctx).IsValid() {
		t.Error("ContextFromHeaders() accepted a malformed traceparent")
	}
	if _, present := broken[TraceParentHeader]; present {
		t.Error("malformed traceparent should be removed from headers")
	}
	if broken["x-other"] != "kept" {
		t.Error("other headers should be left alone")
	}

	if _, ok := ContextFromHeaders(context.Background(), map[string]string{}); !ok {
		t.Error("missing traceparent should not be reported as malformed")
	}
}

func TestMapPropagation_RoundTrip(t *testing.T) {
	tracer, err := NewWithExporter(&config.TracingConfig{Sampler: SamplerAlways}, tracetest.NewInMemoryExporter())
	if err != nil {
		t.Fatalf("NewWithExporter() error = %v", err)
	}
	defer tracer.Shutdown(context.Background())

	ctx, span := tracer.Start(context.Background(), "scrub")
	defer span.End()

	headers := map[string]string{}
	InjectToMap(ctx, headers)

	if _, ok := ParseTraceParent(headers[TraceParentHeader]); !ok {
		t.Fatalf("injected traceparent %q is invalid", headers["traceparent"])
	}

	extracted := trace.SpanContextFromContext(ExtractFromMap(context.Background(), headers))
	if extracted.TraceID() != span.SpanContext().TraceID() {
		t.Errorf("extracted trace id = %s, want %s", extracted.TraceID(), span.SpanContext().TraceID())
	}
	if !extracted.IsRemote() {
		t.Error("extracted span context should be remote")
	}
}

func TestExtractFromMap_NoTraceParent(t *testing.T) {
	ctx := ExtractFromMap(context.Background(), map[string]string{"traceparent": "invalid"})
	if trace.SpanContextFromContext(ctx).IsValid() {
		t.Error("expected no span context for an invalid traceparent")
	}
}
