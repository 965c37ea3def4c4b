package tracing

import (
	"context"
	"encoding/hex"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// W3C Trace Context Propagation
//
// Envelopes read by the run command may carry a headers map next to the
// event. A traceparent entry there links the relay span to the trace of
// the SDK request that delivered the event, and the relay span is injected
// back into the headers of the emitted envelope.
//
// traceparent format: version-trace_id-parent_id-trace_flags
// Example: 00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01

// TraceParentHeader is the envelope header carrying the trace context.
const TraceParentHeader = "traceparent"

// TraceParent is a decoded traceparent header.
type TraceParent struct {
	Version  string
	TraceID  string
	ParentID string
	Flags    byte
}

// Sampled reports whether bit 0 of the trace flags is set.
func (tp TraceParent) Sampled() bool {
	return tp.Flags&0x01 == 0x01
}

// ParseTraceParent decodes a traceparent header. All-zero trace and parent
// ids are invalid.
func ParseTraceParent(header string) (TraceParent, bool) {
	parts := strings.Split(header, "-")
	if len(parts) != 4 {
		return TraceParent{}, false
	}
	for i, size := range []int{1, 16, 8, 1} {
		b, err := hex.DecodeString(parts[i])
		if err != nil || len(b) != size {
			return TraceParent{}, false
		}
		if (i == 1 || i == 2) && allZero(b) {
			return TraceParent{}, false
		}
	}
	flags, _ := hex.DecodeString(parts[3])
	return TraceParent{
		Version:  parts[0],
		TraceID:  parts[1],
		ParentID: parts[2],
		Flags:    flags[0],
	}, true
}

func allZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}

// Propagator returns the configured text map propagator.
func Propagator() propagation.TextMapPropagator {
	return otel.GetTextMapPropagator()
}

// ExtractFromMap extracts trace context from envelope headers. Header
// names are matched case-sensitively in lower case.
func ExtractFromMap(ctx context.Context, carrier map[string]string) context.Context {
	return Propagator().Extract(ctx, propagation.MapCarrier(carrier))
}

// InjectToMap injects the trace context of ctx into envelope headers.
func InjectToMap(ctx context.Context, carrier map[string]string) {
	Propagator().Inject(ctx, propagation.MapCarrier(carrier))
}

// ContextFromHeaders continues the trace named by the traceparent entry of
// headers. A malformed entry is removed from headers and reported as false
// so it is not forwarded; a missing one leaves ctx unchanged.
func ContextFromHeaders(ctx context.Context, headers map[string]string) (context.Context, bool) {
	header, ok := headers[TraceParentHeader]
	if !ok {
		return ctx, true
	}
	if _, valid := ParseTraceParent(header); !valid {
		delete(headers, TraceParentHeader)
		return ctx, false
	}
	return ExtractFromMap(ctx, headers), true
}
