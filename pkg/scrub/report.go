package scrub

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"mercator-hq/relayscrub/pkg/audit"
	"mercator-hq/relayscrub/pkg/processor"
	"mercator-hq/relayscrub/pkg/types"
)

// RemarkCount counts the remarks of one rule and kind.
type RemarkCount struct {
	RuleID string           `json:"rule"`
	Kind   types.RemarkKind `json:"kind"`
	Count  int              `json:"count"`
}

// Report summarizes one scrub run.
type Report struct {
	// RunID identifies the run in logs and traces
	RunID uuid.UUID `json:"run_id"`

	// Project is the project whose snapshot was applied
	Project string `json:"project"`

	// EventID is the event's id, if it has one
	EventID string `json:"event_id,omitempty"`

	// ConfigVersion is the version of the applied snapshot
	ConfigVersion string `json:"config_version"`

	// Remarks counts remarks by rule and kind, sorted by rule
	Remarks []RemarkCount `json:"remarks,omitempty"`

	// Errors counts meta errors by kind
	Errors map[types.ErrorKind]int `json:"errors,omitempty"`

	// Duration is the time spent in the pipeline
	Duration time.Duration `json:"duration_ns"`
}

// TotalRemarks returns the number of remarks in the event.
func (r *Report) TotalRemarks() int {
	n := 0
	for _, rc := range r.Remarks {
		n += rc.Count
	}
	return n
}

// TotalErrors returns the number of meta errors in the event.
func (r *Report) TotalErrors() int {
	n := 0
	for _, c := range r.Errors {
		n += c
	}
	return n
}

// String renders the report for terminals.
func (r *Report) String() string {
	var b strings.Builder
	id := r.EventID
	if id == "" {
		id = "-"
	}
	fmt.Fprintf(&b, "event %s (project %s, config %s): %d remark(s), %d error(s) in %s",
		id, r.Project, r.ConfigVersion, r.TotalRemarks(), r.TotalErrors(), r.Duration.Round(time.Microsecond))
	for _, rc := range r.Remarks {
		fmt.Fprintf(&b, "\n  %-24s %-8s %d", rc.RuleID, rc.Kind, rc.Count)
	}

	kinds := make([]string, 0, len(r.Errors))
	for kind := range r.Errors {
		kinds = append(kinds, string(kind))
	}
	sort.Strings(kinds)
	for _, kind := range kinds {
		fmt.Fprintf(&b, "\n  error %-18s %d", kind, r.Errors[types.ErrorKind(kind)])
	}
	return b.String()
}

// AuditRecord converts the report into an audit record with the given
// status. cause is the rejection error of a rejected event.
func (r *Report) AuditRecord(status string, cause error) *audit.Record {
	record := &audit.Record{
		ID:            r.RunID.String(),
		Project:       r.Project,
		EventID:       r.EventID,
		ConfigVersion: r.ConfigVersion,
		Status:        status,
		Duration:      r.Duration,
		RecordedAt:    time.Now().UTC(),
	}
	for _, rc := range r.Remarks {
		record.Remarks = append(record.Remarks, audit.RuleCount{
			RuleID: rc.RuleID,
			Kind:   string(rc.Kind),
			Count:  rc.Count,
		})
	}
	if len(r.Errors) > 0 {
		record.Errors = make(map[string]int, len(r.Errors))
		for kind, n := range r.Errors {
			record.Errors[string(kind)] = n
		}
	}
	if cause != nil {
		record.Reason = cause.Error()
	}
	return record
}

// tally is a traversal stage that counts the provenance left on the tree.
// It runs after all other stages and changes nothing.
type tally struct {
	processor.BaseProcessor

	remarks map[RemarkCount]int
	errors  map[types.ErrorKind]int
}

func newTally() *tally {
	return &tally{
		remarks: make(map[RemarkCount]int),
		errors:  make(map[types.ErrorKind]int),
	}
}

func (t *tally) AfterProcess(_ any, meta *types.Meta, _ *processor.ProcessingState) error {
	for _, r := range meta.Remarks {
		t.remarks[RemarkCount{RuleID: r.RuleID, Kind: r.Kind}]++
	}
	for _, e := range meta.Errors {
		t.errors[e.Kind]++
	}
	return nil
}

// fill copies the counts into r.
func (t *tally) fill(r *Report) {
	r.Remarks = r.Remarks[:0]
	for key, n := range t.remarks {
		key.Count = n
		r.Remarks = append(r.Remarks, key)
	}
	sort.Slice(r.Remarks, func(i, j int) bool {
		if r.Remarks[i].RuleID != r.Remarks[j].RuleID {
			return r.Remarks[i].RuleID < r.Remarks[j].RuleID
		}
		return r.Remarks[i].Kind < r.Remarks[j].Kind
	})
	if len(t.errors) > 0 {
		r.Errors = t.errors
	}
}
