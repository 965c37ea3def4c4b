package config

import "time"

// Default values for configuration fields.
const (
	// Telemetry defaults
	DefaultLoggingLevel        = "info"
	DefaultLoggingFormat       = "json"
	DefaultLoggingBufferSize   = 10000
	DefaultMetricsEnabled      = true
	DefaultPrometheusPath      = "/metrics"
	DefaultMetricsNamespace    = "relayscrub"
	DefaultMetricsSubsystem    = "core"
	DefaultMaxRuleLabels       = 1000
	DefaultTracingEnabled      = false
	DefaultTracingSampler      = "ratio"
	DefaultTracingSamplingRate = 1.0
	DefaultTracingServiceName  = "relayscrub"
	DefaultOTLPTimeout         = 10 * time.Second

	// Limits defaults
	DefaultMaxDepth           = 64
	DefaultMaxStringChars     = 16384
	DefaultMaxCollectionItems = 1000
	DefaultMaxEventBytes      = 1 << 20 // 1MB
	DefaultMaxParseDepth      = 256

	// PII defaults
	DefaultPIIDir         = "./pii"
	DefaultProject        = "default"
	DefaultPIIDebounce    = 100 * time.Millisecond
	DefaultPIIMaxFileSize = int64(1 << 20) // 1MB

	// Audit defaults
	DefaultAuditBackend       = "sqlite"
	DefaultAuditPath          = "data/audit.db"
	DefaultAuditRetentionDays = 30
	DefaultAuditPruneSchedule = "0 3 * * *"
)

// DefaultDurationBuckets are histogram buckets for scrub duration in
// seconds. Scrubbing a single event is expected to take well under a
// millisecond.
var DefaultDurationBuckets = []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5}

// ApplyDefaults sets default values for any configuration fields that are
// not explicitly set. It modifies the provided config in place.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Logging.BufferSize == 0 {
		cfg.Telemetry.Logging.BufferSize = DefaultLoggingBufferSize
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultPrometheusPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Telemetry.Metrics.Subsystem == "" {
		cfg.Telemetry.Metrics.Subsystem = DefaultMetricsSubsystem
	}
	if len(cfg.Telemetry.Metrics.DurationBuckets) == 0 {
		cfg.Telemetry.Metrics.DurationBuckets = append([]float64(nil), DefaultDurationBuckets...)
	}
	if cfg.Telemetry.Metrics.MaxRuleLabels == 0 {
		cfg.Telemetry.Metrics.MaxRuleLabels = DefaultMaxRuleLabels
	}
	if cfg.Telemetry.Tracing.Sampler == "" {
		cfg.Telemetry.Tracing.Sampler = DefaultTracingSampler
	}
	if cfg.Telemetry.Tracing.SampleRatio == 0 {
		cfg.Telemetry.Tracing.SampleRatio = DefaultTracingSamplingRate
	}
	if cfg.Telemetry.Tracing.ServiceName == "" {
		cfg.Telemetry.Tracing.ServiceName = DefaultTracingServiceName
	}
	if cfg.Telemetry.Tracing.OTLP.Timeout == 0 {
		cfg.Telemetry.Tracing.OTLP.Timeout = DefaultOTLPTimeout
	}

	// Limits defaults
	if cfg.Limits.MaxDepth == 0 {
		cfg.Limits.MaxDepth = DefaultMaxDepth
	}
	if cfg.Limits.MaxStringChars == 0 {
		cfg.Limits.MaxStringChars = DefaultMaxStringChars
	}
	if cfg.Limits.MaxCollectionItems == 0 {
		cfg.Limits.MaxCollectionItems = DefaultMaxCollectionItems
	}
	if cfg.Limits.MaxEventBytes == 0 {
		cfg.Limits.MaxEventBytes = DefaultMaxEventBytes
	}
	if cfg.Limits.MaxParseDepth == 0 {
		cfg.Limits.MaxParseDepth = DefaultMaxParseDepth
	}

	// PII defaults
	if cfg.PII.Dir == "" {
		cfg.PII.Dir = DefaultPIIDir
	}
	if cfg.PII.DefaultProject == "" {
		cfg.PII.DefaultProject = DefaultProject
	}
	if cfg.PII.Debounce == 0 {
		cfg.PII.Debounce = DefaultPIIDebounce
	}
	if cfg.PII.MaxFileSize == 0 {
		cfg.PII.MaxFileSize = DefaultPIIMaxFileSize
	}

	// Audit defaults
	if cfg.Audit.Backend == "" {
		cfg.Audit.Backend = DefaultAuditBackend
	}
	if cfg.Audit.Path == "" {
		cfg.Audit.Path = DefaultAuditPath
	}
	if cfg.Audit.RetentionDays == 0 {
		cfg.Audit.RetentionDays = DefaultAuditRetentionDays
	}
	if cfg.Audit.PruneSchedule == "" {
		cfg.Audit.PruneSchedule = DefaultAuditPruneSchedule
	}
}

// Default returns a configuration with every default applied and metrics
// enabled.
func Default() *Config {
	cfg := &Config{}
	cfg.Telemetry.Metrics.Enabled = DefaultMetricsEnabled
	ApplyDefaults(cfg)
	return cfg
}
