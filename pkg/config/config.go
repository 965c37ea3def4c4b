package config

import "time"

// Config is the root configuration structure for relayscrub.
// It contains all configuration sections for the scrubbing service.
type Config struct {
	// Telemetry contains observability configuration (logging, metrics, tracing).
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Limits contains the structural limits enforced on every event.
	Limits LimitsConfig `yaml:"limits"`

	// PII contains the location and reload behavior of per-project
	// scrubbing rules.
	PII PIIConfig `yaml:"pii"`

	// Audit contains the store of per-event scrub reports.
	Audit AuditConfig `yaml:"audit"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains distributed tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text", "console"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`

	// RedactPII enables redaction of personal data in log fields using the
	// builtin PII pattern library.
	// Default: true
	RedactPII *bool `yaml:"redact_pii"`

	// BufferSize is the size of the async log buffer.
	// Default: 10000
	BufferSize int `yaml:"buffer_size"`

	// RedactPatterns contains additional log redaction patterns.
	RedactPatterns []RedactPattern `yaml:"redact_patterns"`
}

// RedactPattern defines a custom log redaction pattern.
type RedactPattern struct {
	// Name is a descriptive name for the pattern.
	Name string `yaml:"name"`

	// Pattern is the regular expression to match.
	Pattern string `yaml:"pattern"`

	// Replacement is the string to replace matches with.
	Replacement string `yaml:"replacement"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics collection is active.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path for the Prometheus metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// ListenAddress is the address of the metrics endpoint served by the
	// run command. Empty disables the endpoint.
	ListenAddress string `yaml:"listen_address"`

	// Namespace is the metric name prefix.
	// Default: "relayscrub"
	Namespace string `yaml:"namespace"`

	// Subsystem is the metric subsystem name.
	// Default: "core"
	Subsystem string `yaml:"subsystem"`

	// DurationBuckets defines histogram buckets for scrub duration (seconds).
	// Default: [0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5]
	DurationBuckets []float64 `yaml:"duration_buckets"`

	// MaxRuleLabels bounds the number of distinct rule ids used as labels.
	// Further rule ids are aggregated into "other".
	// Default: 1000
	MaxRuleLabels int `yaml:"max_rule_labels"`
}

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether distributed tracing is active.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Sampler determines the sampling strategy.
	// Options: "always", "never", "ratio"
	// Default: "ratio"
	Sampler string `yaml:"sampler"`

	// SampleRatio is the fraction of traces to sample (0.0 to 1.0).
	// Only used when Sampler is "ratio".
	// Default: 1.0
	SampleRatio float64 `yaml:"sample_ratio"`

	// Endpoint is the OTLP collector endpoint, for example "localhost:4317".
	Endpoint string `yaml:"endpoint"`

	// ServiceName is the service name in traces.
	// Default: "relayscrub"
	ServiceName string `yaml:"service_name"`

	// OTLP contains OTLP exporter specific configuration.
	OTLP OTLPConfig `yaml:"otlp"`
}

// OTLPConfig contains OTLP exporter configuration.
type OTLPConfig struct {
	// Insecure disables TLS for OTLP connection.
	// Default: false
	Insecure bool `yaml:"insecure"`

	// Timeout is the timeout for OTLP exports.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`
}

// LimitsConfig contains the global structural limits. Fields with declared
// limits in the event schema keep their own.
type LimitsConfig struct {
	// MaxDepth is the nesting depth at which containers are emptied.
	// Default: 64
	MaxDepth int `yaml:"max_depth"`

	// MaxStringChars limits strings without a declared limit.
	// Default: 16384
	MaxStringChars int `yaml:"max_string_chars"`

	// MaxCollectionItems limits arrays and objects without a declared limit.
	// Default: 1000
	MaxCollectionItems int `yaml:"max_collection_items"`

	// MaxEventBytes rejects serialized events larger than this before
	// parsing.
	// Default: 1MB
	MaxEventBytes int `yaml:"max_event_bytes"`

	// MaxParseDepth bounds the nesting kept by the JSON decoder. Deeper
	// containers are dropped and marked too_deep.
	// Default: 256
	MaxParseDepth int `yaml:"max_parse_depth"`
}

// PIIConfig contains configuration for per-project scrubbing rules.
type PIIConfig struct {
	// Dir is the directory holding one rule file per project, named
	// <project>.yaml, <project>.yml or <project>.json.
	// Default: "./pii"
	Dir string `yaml:"dir"`

	// DefaultProject is the project used for events that name none.
	// Default: "default"
	DefaultProject string `yaml:"default_project"`

	// Watch enables hot reload of rule files.
	// Default: false
	Watch bool `yaml:"watch"`

	// Debounce is the quiet period after file changes before reloading.
	// Default: 100ms
	Debounce time.Duration `yaml:"debounce"`

	// ResyncSchedule is a cron expression forcing a full reload of the
	// rule directory. Empty disables resyncs.
	// Example: "*/5 * * * *"
	ResyncSchedule string `yaml:"resync_schedule"`

	// MaxFileSize is the largest rule file accepted, in bytes.
	// Default: 1MB
	MaxFileSize int64 `yaml:"max_file_size"`
}

// AuditConfig contains configuration for the scrub report audit trail.
// Reports hold counts per rule and error kind, never payload content.
type AuditConfig struct {
	// Enabled controls whether scrub reports are persisted.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Backend selects the storage backend.
	// Options: "memory", "sqlite"
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// Path is the SQLite database file.
	// Default: "data/audit.db"
	Path string `yaml:"path"`

	// RetentionDays is the number of days reports are kept. 0 keeps them
	// forever.
	// Default: 30
	RetentionDays int `yaml:"retention_days"`

	// MaxRecords caps the number of stored reports. 0 means unlimited.
	MaxRecords int64 `yaml:"max_records"`

	// PruneSchedule is a cron expression for retention pruning.
	// Default: "0 3 * * *"
	PruneSchedule string `yaml:"prune_schedule"`
}

// RedactionEnabled reports whether log redaction is on. It defaults to
// true when unset.
func (c *LoggingConfig) RedactionEnabled() bool {
	return c.RedactPII == nil || *c.RedactPII
}
