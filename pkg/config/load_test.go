package config

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestLoadConfig_ValidFile(t *testing.T) {
	path := writeConfig(t, `
telemetry:
  logging:
    level: "debug"
    format: "text"
    redact_pii: false
  metrics:
    enabled: false
limits:
  max_depth: 32
  max_string_chars: 512
pii:
  dir: "/srv/pii"
  watch: true
  debounce: "250ms"
  resync_schedule: "*/5 * * * *"
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Telemetry.Logging.Level != "debug" {
		t.Errorf("expected logging level %q, got %q", "debug", cfg.Telemetry.Logging.Level)
	}
	if cfg.Telemetry.Logging.RedactionEnabled() {
		t.Error("expected log redaction to be disabled")
	}
	if cfg.Telemetry.Metrics.Enabled {
		t.Error("expected metrics to be disabled")
	}
	if cfg.Limits.MaxDepth != 32 {
		t.Errorf("expected max depth 32, got %d", cfg.Limits.MaxDepth)
	}
	if cfg.Limits.MaxCollectionItems != DefaultMaxCollectionItems {
		t.Errorf("expected default max collection items %d, got %d", DefaultMaxCollectionItems, cfg.Limits.MaxCollectionItems)
	}
	if !cfg.PII.Watch {
		t.Error("expected pii watch to be enabled")
	}
	if cfg.PII.Debounce != 250*time.Millisecond {
		t.Errorf("expected debounce 250ms, got %v", cfg.PII.Debounce)
	}
	if cfg.PII.DefaultProject != DefaultProject {
		t.Errorf("expected default project %q, got %q", DefaultProject, cfg.PII.DefaultProject)
	}
}

func TestLoadConfig_MetricsEnabledByDefault(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "pii:\n  dir: x\n"))
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if !cfg.Telemetry.Metrics.Enabled {
		t.Error("expected metrics to be enabled by default")
	}
	if !cfg.Telemetry.Logging.RedactionEnabled() {
		t.Error("expected log redaction to be enabled by default")
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	_, err := LoadConfig("/nonexistent/relayscrub.yaml")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !strings.Contains(err.Error(), "failed to read configuration file") {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestLoadConfig_MalformedYAML(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "limits: [unclosed\n"))
	if err == nil {
		t.Fatal("expected error for malformed YAML")
	}
	if !strings.Contains(err.Error(), "failed to parse configuration file") {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestLoadConfig_ValidationFailure(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "pii:\n  resync_schedule: \"every minute\"\n"))
	if err == nil {
		t.Fatal("expected validation error")
	}

	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if len(verr.Errors) != 1 || verr.Errors[0].Field != "pii.resync_schedule" {
		t.Errorf("unexpected field errors: %+v", verr.Errors)
	}
}

func TestLoadConfigWithEnvOverrides(t *testing.T) {
	path := writeConfig(t, "pii:\n  dir: from-file\n")

	t.Setenv("RELAYSCRUB_PII_DIR", "from-env")
	t.Setenv("RELAYSCRUB_PII_WATCH", "true")
	t.Setenv("RELAYSCRUB_PII_DEBOUNCE", "2s")
	t.Setenv("RELAYSCRUB_LIMITS_MAX_DEPTH", "16")
	t.Setenv("RELAYSCRUB_TELEMETRY_LOGGING_LEVEL", "warn")
	t.Setenv("RELAYSCRUB_TELEMETRY_LOGGING_REDACT_PII", "false")
	t.Setenv("RELAYSCRUB_TELEMETRY_TRACING_SAMPLE_RATIO", "0.5")

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.PII.Dir != "from-env" {
		t.Errorf("expected pii dir %q, got %q", "from-env", cfg.PII.Dir)
	}
	if !cfg.PII.Watch {
		t.Error("expected pii watch to be enabled")
	}
	if cfg.PII.Debounce != 2*time.Second {
		t.Errorf("expected debounce 2s, got %v", cfg.PII.Debounce)
	}
	if cfg.Limits.MaxDepth != 16 {
		t.Errorf("expected max depth 16, got %d", cfg.Limits.MaxDepth)
	}
	if cfg.Telemetry.Logging.Level != "warn" {
		t.Errorf("expected logging level %q, got %q", "warn", cfg.Telemetry.Logging.Level)
	}
	if cfg.Telemetry.Logging.RedactionEnabled() {
		t.Error("expected log redaction to be disabled")
	}
	if cfg.Telemetry.Tracing.SampleRatio != 0.5 {
		t.Errorf("expected sample ratio 0.5, got %v", cfg.Telemetry.Tracing.SampleRatio)
	}
}

func TestLoadConfigWithEnvOverrides_InvalidValuesIgnored(t *testing.T) {
	t.Setenv("RELAYSCRUB_LIMITS_MAX_DEPTH", "deep")
	t.Setenv("RELAYSCRUB_PII_WATCH", "maybe")
	t.Setenv("RELAYSCRUB_PII_DEBOUNCE", "soon")

	cfg, err := LoadConfigWithEnvOverrides("")
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Limits.MaxDepth != DefaultMaxDepth {
		t.Errorf("expected max depth %d, got %d", DefaultMaxDepth, cfg.Limits.MaxDepth)
	}
	if cfg.PII.Watch {
		t.Error("expected pii watch to stay disabled")
	}
	if cfg.PII.Debounce != DefaultPIIDebounce {
		t.Errorf("expected debounce %v, got %v", DefaultPIIDebounce, cfg.PII.Debounce)
	}
}

func TestLoadConfigWithEnvOverrides_InvalidOverrideFails(t *testing.T) {
	t.Setenv("RELAYSCRUB_TELEMETRY_LOGGING_LEVEL", "loud")

	_, err := LoadConfigWithEnvOverrides("")
	if err == nil {
		t.Fatal("expected validation error after overrides")
	}
	if !strings.Contains(err.Error(), "after environment overrides") {
		t.Errorf("unexpected error message: %v", err)
	}
}
