package config

import (
	"reflect"
	"testing"
)

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Telemetry.Logging.Level != DefaultLoggingLevel {
		t.Errorf("expected logging level %q, got %q", DefaultLoggingLevel, cfg.Telemetry.Logging.Level)
	}
	if cfg.Telemetry.Logging.Format != DefaultLoggingFormat {
		t.Errorf("expected logging format %q, got %q", DefaultLoggingFormat, cfg.Telemetry.Logging.Format)
	}
	if cfg.Telemetry.Metrics.Namespace != DefaultMetricsNamespace {
		t.Errorf("expected metrics namespace %q, got %q", DefaultMetricsNamespace, cfg.Telemetry.Metrics.Namespace)
	}
	if !reflect.DeepEqual(cfg.Telemetry.Metrics.DurationBuckets, DefaultDurationBuckets) {
		t.Errorf("expected duration buckets %v, got %v", DefaultDurationBuckets, cfg.Telemetry.Metrics.DurationBuckets)
	}
	if cfg.Telemetry.Tracing.Sampler != DefaultTracingSampler {
		t.Errorf("expected sampler %q, got %q", DefaultTracingSampler, cfg.Telemetry.Tracing.Sampler)
	}
	if cfg.Limits.MaxDepth != DefaultMaxDepth {
		t.Errorf("expected max depth %d, got %d", DefaultMaxDepth, cfg.Limits.MaxDepth)
	}
	if cfg.Limits.MaxStringChars != DefaultMaxStringChars {
		t.Errorf("expected max string chars %d, got %d", DefaultMaxStringChars, cfg.Limits.MaxStringChars)
	}
	if cfg.PII.Dir != DefaultPIIDir {
		t.Errorf("expected pii dir %q, got %q", DefaultPIIDir, cfg.PII.Dir)
	}
	if cfg.PII.MaxFileSize != DefaultPIIMaxFileSize {
		t.Errorf("expected max file size %d, got %d", DefaultPIIMaxFileSize, cfg.PII.MaxFileSize)
	}
	if cfg.Audit.Enabled {
		t.Error("expected audit to be disabled by default")
	}
	if cfg.Audit.Backend != DefaultAuditBackend {
		t.Errorf("expected audit backend %q, got %q", DefaultAuditBackend, cfg.Audit.Backend)
	}
	if cfg.Audit.PruneSchedule != DefaultAuditPruneSchedule {
		t.Errorf("expected prune schedule %q, got %q", DefaultAuditPruneSchedule, cfg.Audit.PruneSchedule)
	}
}

func TestApplyDefaults_KeepsExplicitValues(t *testing.T) {
	cfg := &Config{}
	cfg.Limits.MaxDepth = 8
	cfg.PII.DefaultProject = "acme"
	ApplyDefaults(cfg)

	if cfg.Limits.MaxDepth != 8 {
		t.Errorf("expected max depth 8, got %d", cfg.Limits.MaxDepth)
	}
	if cfg.PII.DefaultProject != "acme" {
		t.Errorf("expected default project %q, got %q", "acme", cfg.PII.DefaultProject)
	}
}

func TestApplyDefaults_Idempotent(t *testing.T) {
	first := &Config{}
	ApplyDefaults(first)
	second := *first
	ApplyDefaults(&second)

	if !reflect.DeepEqual(*first, second) {
		t.Error("ApplyDefaults is not idempotent")
	}
}

func TestDefault_IsValid(t *testing.T) {
	if err := Validate(Default()); err != nil {
		t.Errorf("Validate(Default()) = %v, want nil", err)
	}
}
