package audit

import (
	"context"
	"time"
)

// Record statuses.
const (
	StatusScrubbed = "scrubbed"
	StatusInvalid  = "invalid"
	StatusFailed   = "failed"
)

// RuleCount counts the remarks one rule left with one redaction kind.
type RuleCount struct {
	RuleID string `json:"rule"`
	Kind   string `json:"kind"`
	Count  int    `json:"count"`
}

// Record is the audit entry of one scrub run.
type Record struct {
	// ID is the run id of the scrub
	ID string `json:"id"`

	// Project is the project whose rules were applied
	Project string `json:"project"`

	// EventID is the event's id, if it had one
	EventID string `json:"event_id,omitempty"`

	// ConfigVersion is the version of the applied rule snapshot
	ConfigVersion string `json:"config_version"`

	// Status is one of StatusScrubbed, StatusInvalid or StatusFailed
	Status string `json:"status"`

	// Remarks counts remarks by rule and kind
	Remarks []RuleCount `json:"remarks,omitempty"`

	// Errors counts meta errors by kind
	Errors map[string]int `json:"errors,omitempty"`

	// Reason explains a rejected event
	Reason string `json:"reason,omitempty"`

	// Duration is the time spent scrubbing
	Duration time.Duration `json:"duration_ns"`

	// RecordedAt is when the record was created
	RecordedAt time.Time `json:"recorded_at"`
}

// HasRule reports whether the record counts remarks of ruleID.
func (r *Record) HasRule(ruleID string) bool {
	for _, rc := range r.Remarks {
		if rc.RuleID == ruleID {
			return true
		}
	}
	return false
}

// clone returns a copy of r that shares nothing mutable with it.
func (r *Record) clone() *Record {
	out := *r
	out.Remarks = append([]RuleCount(nil), r.Remarks...)
	if r.Errors != nil {
		out.Errors = make(map[string]int, len(r.Errors))
		for k, v := range r.Errors {
			out.Errors[k] = v
		}
	}
	return &out
}

// Query filters records. Zero fields do not filter.
type Query struct {
	// Project matches records of one project
	Project string

	// EventID matches records of one event
	EventID string

	// Status matches records with one status
	Status string

	// RuleID matches records with remarks of one rule
	RuleID string

	// StartTime matches records created at or after it
	StartTime *time.Time

	// EndTime matches records created at or before it
	EndTime *time.Time

	// Limit bounds the number of returned records. Default: 100
	Limit int

	// Offset skips the first records of the result
	Offset int
}

// DefaultQueryLimit is the number of records returned when a query sets
// no limit.
const DefaultQueryLimit = 100

// Storage persists audit records. Implementations are safe for concurrent
// use. Query returns the newest records first.
type Storage interface {
	Store(ctx context.Context, record *Record) error
	Query(ctx context.Context, query *Query) ([]*Record, error)
	Count(ctx context.Context, query *Query) (int64, error)
	Delete(ctx context.Context, query *Query) (int64, error)
	Close() error
}
