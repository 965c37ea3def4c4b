package scrub

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"mercator-hq/relayscrub/pkg/audit"
	"mercator-hq/relayscrub/pkg/config"
	"mercator-hq/relayscrub/pkg/normalize"
	"mercator-hq/relayscrub/pkg/pii"
	"mercator-hq/relayscrub/pkg/processor"
	"mercator-hq/relayscrub/pkg/protocol"
	"mercator-hq/relayscrub/pkg/telemetry/logging"
	"mercator-hq/relayscrub/pkg/telemetry/metrics"
	"mercator-hq/relayscrub/pkg/telemetry/tracing"
	"mercator-hq/relayscrub/pkg/trimming"
	"mercator-hq/relayscrub/pkg/types"
)

// Scrub statuses recorded in metrics and audit records.
const (
	StatusScrubbed = audit.StatusScrubbed
	StatusInvalid  = audit.StatusInvalid
	StatusFailed   = audit.StatusFailed
)

// Options configures a Scrubber.
type Options struct {
	// Limits are the structural bounds of the trimming stage
	Limits trimming.Limits

	// MaxEventBytes rejects larger serialized events; 0 disables the check
	MaxEventBytes int

	// MaxParseDepth bounds the nesting kept by the decoder; deeper
	// containers are cut with a too_deep error
	MaxParseDepth int

	// AssignEventIDs gives events without an event_id a random one
	AssignEventIDs bool

	// Logger receives one entry per run; nil discards logs
	Logger *logging.Logger

	// Metrics may be nil
	Metrics *metrics.Collector

	// Tracer may be nil
	Tracer *tracing.Tracer

	// Audit receives one record per scrubbed or rejected event; nil
	// disables the audit trail
	Audit audit.Storage
}

// OptionsFromConfig converts the limits section of the service
// configuration.
func OptionsFromConfig(cfg *config.LimitsConfig) Options {
	return Options{
		Limits: trimming.Limits{
			MaxDepth:           cfg.MaxDepth,
			MaxStringChars:     cfg.MaxStringChars,
			MaxCollectionItems: cfg.MaxCollectionItems,
		},
		MaxEventBytes: cfg.MaxEventBytes,
		MaxParseDepth: cfg.MaxParseDepth,
	}
}

// Scrubber runs events through the pipeline: normalization, trimming and
// PII redaction, each a separate traversal. It is safe for concurrent use.
type Scrubber struct {
	limits         trimming.Limits
	maxEventBytes  int
	maxParseDepth  int
	assignEventIDs bool

	logger  *logging.Logger
	metrics *metrics.Collector
	tracer  *tracing.Tracer
	audit   audit.Storage
}

// NewScrubber creates a Scrubber.
func NewScrubber(opts Options) *Scrubber {
	s := &Scrubber{
		limits:         opts.Limits,
		maxEventBytes:  opts.MaxEventBytes,
		maxParseDepth:  opts.MaxParseDepth,
		assignEventIDs: opts.AssignEventIDs,
		logger:         opts.Logger,
		metrics:        opts.Metrics,
		tracer:         opts.Tracer,
		audit:          opts.Audit,
	}
	if s.maxParseDepth <= 0 {
		s.maxParseDepth = types.DefaultMaxParseDepth
	}
	if s.logger == nil {
		// Only an invalid level or format makes New fail.
		s.logger, _ = logging.New(logging.Config{Level: "error", Format: "json", Writer: io.Discard})
	}
	if s.tracer == nil {
		s.tracer, _ = tracing.New(&config.TracingConfig{})
	}
	return s
}

// Scrub applies snap to event in place. An InvalidTransaction abort is
// returned as an error matching processor.ErrInvalidTransaction; the
// event must then be discarded.
func (s *Scrubber) Scrub(ctx context.Context, event *types.Annotated[protocol.Event], snap *Snapshot) (*Report, error) {
	return s.scrub(ctx, event, snap, 0)
}

// ScrubJSON decodes a serialized event, scrubs it and encodes the result
// with its _meta tree.
func (s *Scrubber) ScrubJSON(ctx context.Context, data []byte, snap *Snapshot) ([]byte, *Report, error) {
	if s.maxEventBytes > 0 && len(data) > s.maxEventBytes {
		s.metrics.RecordScrub(snap.Project, StatusInvalid, 0, len(data))
		return nil, nil, fmt.Errorf("%w: %d bytes, limit %d", ErrEventTooLarge, len(data), s.maxEventBytes)
	}

	payload, err := types.ParseJSONWithDepth(data, s.maxParseDepth)
	if err != nil {
		s.metrics.RecordScrub(snap.Project, StatusInvalid, 0, len(data))
		return nil, nil, fmt.Errorf("failed to parse event: %w", err)
	}

	event := protocol.EventFromValue(payload)
	report, err := s.scrub(ctx, &event, snap, len(data))
	if err != nil {
		return nil, report, err
	}

	out := protocol.EventToValue(event)
	encoded, err := types.MarshalJSON(&out)
	if err != nil {
		return nil, report, fmt.Errorf("failed to encode event: %w", err)
	}
	return encoded, report, nil
}

func (s *Scrubber) scrub(ctx context.Context, event *types.Annotated[protocol.Event], snap *Snapshot, size int) (*Report, error) {
	start := time.Now()

	report := &Report{
		RunID:         uuid.New(),
		Project:       snap.Project,
		ConfigVersion: snap.Version,
	}

	var eventType string
	if e := event.Value(); e != nil {
		if s.assignEventIDs && !e.EventID.IsPresent() && e.EventID.Meta().IsEmpty() {
			e.EventID.Set(strings.ReplaceAll(uuid.NewString(), "-", ""))
		}
		report.EventID, _ = e.EventID.Get()
		eventType, _ = e.Type.Get()
	}

	ctx = logging.WithProject(ctx, snap.Project)
	ctx = logging.WithEventID(ctx, report.EventID)
	ctx = logging.WithRunID(ctx, report.RunID.String())
	ctx = logging.WithConfigVersion(ctx, snap.Version)

	ctx, span := s.tracer.Start(ctx, "scrub.event")
	defer span.End()
	tracing.SetEventAttributes(span, snap.Project, report.EventID, eventType, snap.Version)
	if traceID := tracing.TraceID(ctx); traceID != "" {
		ctx = logging.WithTraceID(ctx, traceID)
	}
	log := logging.NewContextLogger(s.logger, ctx)

	stages := []stage{
		{"normalize", normalize.NewProcessor()},
		{"trim", trimming.NewProcessor(s.limits)},
	}
	if proc := piiStage(snap); proc != nil {
		stages = append(stages, stage{"pii", proc})
	}

	for _, stage := range stages {
		if err := run(event, stage.proc); err != nil {
			report.Duration = time.Since(start)
			status := StatusFailed
			if errors.Is(err, processor.ErrInvalidTransaction) {
				status = StatusInvalid
			}
			s.metrics.RecordScrub(snap.Project, status, report.Duration, size)
			tracing.SetError(span, err)
			tracing.SetErrorAttributes(span, err, status)
			tracing.SetStatus(span, err)
			log.Warn("Event rejected", "stage", stage.name, "error", err)
			err = fmt.Errorf("%s stage: %w", stage.name, err)
			s.record(ctx, log, report.AuditRecord(status, err))
			return report, err
		}
		tracing.AddStageEvent(span, stage.name)
	}

	t := newTally()
	// The tally stage never aborts.
	_ = run(event, t)
	t.fill(report)
	report.Duration = time.Since(start)

	s.metrics.RecordScrub(snap.Project, StatusScrubbed, report.Duration, size)
	for _, rc := range report.Remarks {
		s.metrics.RecordRemarks(rc.RuleID, string(rc.Kind), rc.Count)
	}
	for kind, n := range report.Errors {
		s.metrics.RecordMetaErrors(string(kind), n)
	}

	remarks, metaErrors := report.TotalRemarks(), report.TotalErrors()
	tracing.SetResultAttributes(span, remarks, metaErrors)
	tracing.AddStageEvent(span, "report", attribute.Int(tracing.AttrRuleCount, snap.RuleCount()))
	tracing.SetStatus(span, nil)

	log.Debug("Event scrubbed",
		"remarks", remarks,
		"meta_errors", metaErrors,
		"duration_us", report.Duration.Microseconds(),
	)
	s.record(ctx, log, report.AuditRecord(StatusScrubbed, nil))

	return report, nil
}

// record writes an audit record. Audit failures are logged and never fail
// the event.
func (s *Scrubber) record(ctx context.Context, log *logging.ContextLogger, record *audit.Record) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Store(ctx, record); err != nil {
		log.Error("Failed to store audit record", "error", err)
	}
}

type stage struct {
	name string
	proc processor.Processor
}

// piiStage chains the processors of the snapshot's configurations, or
// returns nil when there is nothing to apply.
func piiStage(snap *Snapshot) processor.Processor {
	var procs []processor.Processor
	for _, c := range snap.Configs {
		if !c.IsEmpty() {
			procs = append(procs, pii.NewProcessor(c))
		}
	}
	switch len(procs) {
	case 0:
		return nil
	case 1:
		return procs[0]
	}
	return processor.Chain(procs...)
}

func run(event *types.Annotated[protocol.Event], p processor.Processor) error {
	state := processor.NewRootState(&protocol.EventAttrs, processor.ValueTypeOf(event))
	return processor.ProcessValue(event, p, &state)
}
