package logging

import (
	"context"
)

// Context keys for common log fields.
type contextKey string

const (
	// ProjectKey is the context key for the project whose event is scrubbed.
	ProjectKey contextKey = "project"

	// EventIDKey is the context key for event ids.
	EventIDKey contextKey = "event_id"

	// RunIDKey is the context key for the id of one scrub run.
	RunIDKey contextKey = "run_id"

	// ConfigVersionKey is the context key for the version of the rule
	// configuration in use.
	ConfigVersionKey contextKey = "config_version"

	// TraceIDKey is the context key for trace IDs.
	TraceIDKey contextKey = "trace_id"
)

// contextFields lists the keys extracted into log fields, in output order.
var contextFields = []contextKey{ProjectKey, EventIDKey, RunIDKey, ConfigVersionKey, TraceIDKey}

// WithProject adds a project name to the context.
func WithProject(ctx context.Context, project string) context.Context {
	return context.WithValue(ctx, ProjectKey, project)
}

// GetProject retrieves the project name from the context.
func GetProject(ctx context.Context) string {
	return getString(ctx, ProjectKey)
}

// WithEventID adds an event id to the context.
func WithEventID(ctx context.Context, eventID string) context.Context {
	return context.WithValue(ctx, EventIDKey, eventID)
}

// GetEventID retrieves the event id from the context.
func GetEventID(ctx context.Context) string {
	return getString(ctx, EventIDKey)
}

// WithRunID adds a scrub run id to the context.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, RunIDKey, runID)
}

// GetRunID retrieves the scrub run id from the context.
func GetRunID(ctx context.Context) string {
	return getString(ctx, RunIDKey)
}

// WithConfigVersion adds a rule configuration version to the context.
func WithConfigVersion(ctx context.Context, version string) context.Context {
	return context.WithValue(ctx, ConfigVersionKey, version)
}

// GetConfigVersion retrieves the rule configuration version from the context.
func GetConfigVersion(ctx context.Context) string {
	return getString(ctx, ConfigVersionKey)
}

// WithTraceID adds a trace ID to the context.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDKey, traceID)
}

// GetTraceID retrieves the trace ID from the context.
func GetTraceID(ctx context.Context) string {
	return getString(ctx, TraceIDKey)
}

func getString(ctx context.Context, key contextKey) string {
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}

// extractContextFields extracts common fields from context for logging.
// Returns a slice of key-value pairs suitable for logger.With().
func extractContextFields(ctx context.Context) []any {
	var fields []any
	for _, key := range contextFields {
		if v := getString(ctx, key); v != "" {
			fields = append(fields, string(key), v)
		}
	}
	return fields
}

// ContextLogger is a logger that automatically includes context fields.
type ContextLogger struct {
	logger *Logger
	ctx    context.Context
}

// NewContextLogger creates a logger that automatically includes context fields.
func NewContextLogger(logger *Logger, ctx context.Context) *ContextLogger {
	return &ContextLogger{
		logger: logger.WithContext(ctx),
		ctx:    ctx,
	}
}

// Debug logs a debug message with context fields.
func (cl *ContextLogger) Debug(msg string, args ...any) {
	cl.logger.Debug(msg, args...)
}

// Info logs an info message with context fields.
func (cl *ContextLogger) Info(msg string, args ...any) {
	cl.logger.Info(msg, args...)
}

// Warn logs a warning message with context fields.
func (cl *ContextLogger) Warn(msg string, args ...any) {
	cl.logger.Warn(msg, args...)
}

// Error logs an error message with context fields.
func (cl *ContextLogger) Error(msg string, args ...any) {
	cl.logger.Error(msg, args...)
}

// With creates a new context logger with additional fields.
func (cl *ContextLogger) With(args ...any) *ContextLogger {
	return &ContextLogger{
		logger: cl.logger.With(args...),
		ctx:    cl.ctx,
	}
}
