package cli

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestSimpleProgress_WithTotal(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgressReporter(&buf)

	p.Start(4)
	for i := 0; i < 2; i++ {
		p.Increment()
	}
	p.Finish()

	out := buf.String()
	if !strings.Contains(out, "(4/4)") {
		t.Errorf("output = %q, want final count 4/4", out)
	}
	if !strings.Contains(out, "100.0%") {
		t.Errorf("output = %q, want 100.0%%", out)
	}
	if !strings.HasSuffix(out, "\n") {
		t.Error("Finish() should end the line")
	}
}

func TestSimpleProgress_Unbounded(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgressReporter(&buf)

	p.Start(0)
	for i := 0; i < 3; i++ {
		p.Increment()
	}
	p.Finish()

	out := buf.String()
	if !strings.Contains(out, "Scrubbed: 3 events") {
		t.Errorf("output = %q, want a count of 3 events", out)
	}
	if strings.Contains(out, "Progress:") {
		t.Errorf("output = %q, want no bar without a total", out)
	}
}

func TestSimpleProgress_Error(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgressReporter(&buf)

	p.Start(1)
	p.Error(errors.New("stream closed"))

	if !strings.Contains(buf.String(), "Error: stream closed") {
		t.Errorf("output = %q, want the error", buf.String())
	}
}
