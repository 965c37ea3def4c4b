package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Custom attribute keys use the "relayscrub.*" namespace. Values are
// identifiers and counts only; event payloads never become attributes.
const (
	// Event attributes
	AttrProject       = "relayscrub.project"
	AttrEventID       = "relayscrub.event_id"
	AttrEventType     = "relayscrub.event_type"
	AttrConfigVersion = "relayscrub.config.version"

	// Result attributes
	AttrRemarks    = "relayscrub.remarks"
	AttrMetaErrors = "relayscrub.meta_errors"
	AttrStage      = "relayscrub.stage"

	// Rule set attributes
	AttrRuleCount     = "relayscrub.config.rules"
	AttrFilePath      = "relayscrub.config.file"
	AttrProjectCount  = "relayscrub.config.projects"
	AttrReloadTrigger = "relayscrub.reload.trigger"

	// Error attributes
	AttrErrorType    = "relayscrub.error.type"
	AttrErrorMessage = "error.message"
)

// SetEventAttributes sets the identifying attributes of a scrub run.
// Empty values are skipped.
//
// Example:
//
//	SetEventAttributes(span, "acme", "9ec79c33ec9942ab8353589fcb2e04dc", "transaction", "3f2a")
func SetEventAttributes(span trace.Span, project, eventID, eventType, configVersion string) {
	attrs := []attribute.KeyValue{
		attribute.String(AttrProject, project),
	}
	if eventID != "" {
		attrs = append(attrs, attribute.String(AttrEventID, eventID))
	}
	if eventType != "" {
		attrs = append(attrs, attribute.String(AttrEventType, eventType))
	}
	if configVersion != "" {
		attrs = append(attrs, attribute.String(AttrConfigVersion, configVersion))
	}
	span.SetAttributes(attrs...)
}

// SetResultAttributes sets the remark and error counts of a scrub run.
func SetResultAttributes(span trace.Span, remarks, metaErrors int) {
	span.SetAttributes(
		attribute.Int(AttrRemarks, remarks),
		attribute.Int(AttrMetaErrors, metaErrors),
	)
}

// SetErrorAttributes sets error-related attributes on a span.
// This also records the error using span.RecordError() and sets the span status.
//
// Example:
//
//	SetErrorAttributes(span, err, "invalid_transaction")
func SetErrorAttributes(span trace.Span, err error, errorType string) {
	if err == nil {
		return
	}

	span.SetAttributes(
		attribute.Bool("error", true),
		attribute.String(AttrErrorType, errorType),
		attribute.String(AttrErrorMessage, err.Error()),
	)

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// AddStageEvent marks the completion of a pipeline stage on the span.
//
// Example:
//
//	AddStageEvent(span, "trim")
func AddStageEvent(span trace.Span, stage string, attrs ...attribute.KeyValue) {
	span.AddEvent("stage_done", trace.WithAttributes(append([]attribute.KeyValue{attribute.String(AttrStage, stage)}, attrs...)...))
}
