package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"mercator-hq/relayscrub/pkg/config"
	"mercator-hq/relayscrub/pkg/telemetry/tracing"
)

func TestReadLine(t *testing.T) {
	input := "a\n" + strings.Repeat("x", 100) + "\n\r\nb"
	r := bufio.NewReaderSize(strings.NewReader(input), 16)

	tests := []struct {
		want    string
		wantErr error
	}{
		{"a", nil},
		{"", errLineTooLong},
		{"", nil},
		{"b", io.EOF},
	}

	for i, tt := range tests {
		line, err := readLine(r, 10)
		if string(line) != tt.want || !errors.Is(err, tt.wantErr) {
			t.Errorf("line %d = %q, %v, want %q, %v", i, line, err, tt.want, tt.wantErr)
		}
	}
}

func TestParseEnvelope(t *testing.T) {
	tests := []struct {
		name        string
		line        string
		wantOK      bool
		wantProject string
	}{
		{"envelope", `{"project":"acme","event":{"message":"m"}}`, true, "acme"},
		{"envelope without project", `{"event":{"message":"m"}}`, true, ""},
		{"bare event", `{"message":"m"}`, false, ""},
		{"null event", `{"project":"acme","event":null}`, false, ""},
		{"not json", `nope`, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, ok := parseEnvelope([]byte(tt.line))
			if ok != tt.wantOK {
				t.Fatalf("parseEnvelope() ok = %v, want %v", ok, tt.wantOK)
			}
			if env.Project != tt.wantProject {
				t.Errorf("project = %q, want %q", env.Project, tt.wantProject)
			}
		})
	}
}

func TestRelay_Stream(t *testing.T) {
	dir := writeRules(t, map[string]string{
		"default.yaml": replaceEmailRules,
		"acme.yaml":    "applications:\n  user.email: ['@email:remove']\n",
	})
	env := newTestEnvironment(t, dir)

	r := &relay{
		manager:  env.manager,
		scrubber: env.scrubber,
		logger:   env.logger,
		maxLine:  1 << 16,
	}

	input := strings.Join([]string{
		`{"user":{"email":"a@b.com"}}`,
		`{"project":"acme","headers":{"traceparent":"00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"},"event":{"user":{"email":"a@b.com"}}}`,
		`{"type":"transaction"}`,
		``,
		`not json`,
	}, "\n")

	var out bytes.Buffer
	stats, err := r.Stream(context.Background(), strings.NewReader(input), &out)
	if err != nil {
		t.Fatalf("Stream() error = %v", err)
	}

	want := relayStats{Total: 4, Scrubbed: 2, Rejected: 2}
	if stats != want {
		t.Errorf("stats = %+v, want %+v", stats, want)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("output lines = %d, want 2:\n%s", len(lines), out.String())
	}

	wantBare := `{"user":{"email":"[email]"},"_meta":{"user":{"email":{"":{"rem":[["replace-email","replace",0,7]]}}}}}`
	if lines[0] != wantBare {
		t.Errorf("bare event = %s, want %s", lines[0], wantBare)
	}

	var got envelope
	if err := json.Unmarshal([]byte(lines[1]), &got); err != nil {
		t.Fatalf("envelope output is not JSON: %v", err)
	}
	if got.Project != "acme" || got.Headers["traceparent"] == "" {
		t.Errorf("envelope = %+v, want project and headers kept", got)
	}
	if strings.Contains(string(got.Event), "a@b.com") {
		t.Errorf("event = %s, want email removed", got.Event)
	}
}

func TestRelay_StreamCancelled(t *testing.T) {
	env := newTestEnvironment(t, writeRules(t, map[string]string{"default.yaml": replaceEmailRules}))
	r := &relay{manager: env.manager, scrubber: env.scrubber, logger: env.logger}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	stats, err := r.Stream(ctx, strings.NewReader(`{"message":"m"}`+"\n"), &out)
	if err != nil {
		t.Fatalf("Stream() error = %v", err)
	}
	if stats.Total != 0 || out.Len() != 0 {
		t.Errorf("stats = %+v, output = %q, want nothing processed", stats, out.String())
	}
}

func TestRelay_TraceContext(t *testing.T) {
	env := newTestEnvironment(t, writeRules(t, map[string]string{"default.yaml": replaceEmailRules}))
	exporter := tracetest.NewInMemoryExporter()
	tracer, err := tracing.NewWithExporter(&config.TracingConfig{Sampler: tracing.SamplerAlways}, exporter)
	if err != nil {
		t.Fatalf("NewWithExporter() error = %v", err)
	}
	defer tracer.Shutdown(context.Background())

	r := &relay{manager: env.manager, scrubber: env.scrubber, logger: env.logger, tracer: tracer}

	const incoming = "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"
	tests := []struct {
		name        string
		traceparent string
		sameTrace   bool
	}{
		{"continues the incoming trace", incoming, true},
		{"starts a new trace for a malformed header", "00-nothex-01", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := `{"headers":{"traceparent":"` + tt.traceparent + `"},"event":{"message":"m"}}`
			out, ok := r.handle(context.Background(), []byte(line))
			if !ok {
				t.Fatal("handle() rejected the event")
			}

			var got envelope
			if err := json.Unmarshal(out, &got); err != nil {
				t.Fatalf("envelope output is not JSON: %v", err)
			}
			tp, valid := tracing.ParseTraceParent(got.Headers[tracing.TraceParentHeader])
			if !valid {
				t.Fatalf("emitted traceparent %q is invalid", got.Headers[tracing.TraceParentHeader])
			}
			if same := tp.TraceID == "4bf92f3577b34da6a3ce929d0e0e4736"; same != tt.sameTrace {
				t.Errorf("trace id = %s, same as incoming = %v, want %v", tp.TraceID, same, tt.sameTrace)
			}
			if tp.ParentID == "00f067aa0ba902b7" {
				t.Error("emitted parent id should be the relay span, not the incoming one")
			}
		})
	}
}
