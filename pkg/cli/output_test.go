package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
)

type summary struct {
	Remarks int `json:"remarks"`
}

func (s summary) String() string {
	return fmt.Sprintf("%d remark(s)", s.Remarks)
}

func TestTextFormatter(t *testing.T) {
	tests := []struct {
		name string
		data any
		want string
	}{
		{"string", "test message", "test message\n"},
		{"stringer", summary{Remarks: 3}, "3 remark(s)\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			formatter := &TextFormatter{}

			output, err := formatter.Format(tt.data)
			if err != nil {
				t.Fatalf("Format() error = %v", err)
			}
			if string(output) != tt.want {
				t.Errorf("Format() = %q, want %q", output, tt.want)
			}

			var buf bytes.Buffer
			if err := formatter.FormatTo(&buf, tt.data); err != nil {
				t.Fatalf("FormatTo() error = %v", err)
			}
			if buf.String() != tt.want {
				t.Errorf("FormatTo() = %q, want %q", buf.String(), tt.want)
			}
		})
	}
}

func TestJSONFormatter(t *testing.T) {
	tests := []struct {
		name      string
		indent    bool
		wantLines int
	}{
		{"compact", false, 1},
		{"indented", true, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			formatter := &JSONFormatter{Indent: tt.indent}

			var buf bytes.Buffer
			if err := formatter.FormatTo(&buf, summary{Remarks: 2}); err != nil {
				t.Fatalf("FormatTo() error = %v", err)
			}

			var got summary
			if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
				t.Fatalf("FormatTo() produced invalid JSON: %v", err)
			}
			if got.Remarks != 2 {
				t.Errorf("remarks = %d, want 2", got.Remarks)
			}
			if lines := strings.Count(strings.TrimSpace(buf.String()), "\n") + 1; lines != tt.wantLines {
				t.Errorf("lines = %d, want %d", lines, tt.wantLines)
			}
		})
	}
}

func TestNewFormatter(t *testing.T) {
	tests := []struct {
		format  OutputFormat
		want    string
		wantErr bool
	}{
		{FormatText, "*cli.TextFormatter", false},
		{"", "*cli.TextFormatter", false},
		{FormatJSON, "*cli.JSONFormatter", false},
		{FormatNDJSON, "*cli.JSONFormatter", false},
		{"csv", "", true},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			formatter, err := NewFormatter(tt.format)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewFormatter() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if got := fmt.Sprintf("%T", formatter); got != tt.want {
				t.Errorf("NewFormatter() = %s, want %s", got, tt.want)
			}
		})
	}
}
