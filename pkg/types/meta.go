package types

import (
	"fmt"
	"reflect"
)

// maxSnapshotSize bounds the estimated size of original values kept in
// error snapshots.
const maxSnapshotSize = 500

// ErrorKind classifies a processing error attached to a value.
type ErrorKind string

const (
	// ErrorInvalidData means the value was malformed or not allowed.
	ErrorInvalidData ErrorKind = "invalid_data"
	// ErrorMissingAttribute means a required value was absent.
	ErrorMissingAttribute ErrorKind = "missing_attribute"
	// ErrorInvalidAttribute means the key is not allowed at this position.
	ErrorInvalidAttribute ErrorKind = "invalid_attribute"
	// ErrorValueTooLong means a string exceeded its character limit.
	ErrorValueTooLong ErrorKind = "value_too_long"
	// ErrorCollectionTooLarge means a container exceeded its item limit.
	ErrorCollectionTooLarge ErrorKind = "collection_too_large"
	// ErrorTooDeep means the value was nested beyond the depth limit.
	ErrorTooDeep ErrorKind = "too_deep"
)

// Error is a processing error recorded in Meta.
type Error struct {
	// Kind classifies the error.
	Kind ErrorKind

	// Reason is an optional human readable explanation.
	Reason string

	// Original is a snapshot of the offending value, if small enough.
	Original *Value
}

// NewError creates an Error of the given kind.
func NewError(kind ErrorKind) Error {
	return Error{Kind: kind}
}

// WithReason returns a copy of e with the reason set.
func (e Error) WithReason(format string, args ...any) Error {
	e.Reason = fmt.Sprintf(format, args...)
	return e
}

// WithOriginal returns a copy of e carrying a snapshot of v. Values whose
// serialized size would exceed the snapshot limit are not captured.
func (e Error) WithOriginal(v Value) Error {
	if estimateSize(&v, maxSnapshotSize) > maxSnapshotSize {
		return e
	}
	e.Original = &v
	return e
}

// Equal reports whether e and other are the same error.
func (e Error) Equal(other Error) bool {
	if e.Kind != other.Kind || e.Reason != other.Reason {
		return false
	}
	if e.Original == nil || other.Original == nil {
		return e.Original == nil && other.Original == nil
	}
	return e.Original.Equal(*other.Original)
}

// RemarkKind names the redaction that produced a remark.
type RemarkKind string

const (
	// RemarkRemove means the text was dropped.
	RemarkRemove RemarkKind = "remove"
	// RemarkReplace means the text was substituted with fixed text.
	RemarkReplace RemarkKind = "replace"
	// RemarkMask means the characters were masked in place.
	RemarkMask RemarkKind = "mask"
	// RemarkHash means the text was replaced by a digest.
	RemarkHash RemarkKind = "hash"
	// RemarkTruncate means the value was shortened to fit a limit.
	RemarkTruncate RemarkKind = "truncate"
)

// Range is a half-open byte range within the current value.
type Range struct {
	Start int
	End   int
}

// Len returns the number of bytes covered by the range.
func (r Range) Len() int { return r.End - r.Start }

// Remark records that a rule altered a value or a byte range of it.
type Remark struct {
	// RuleID identifies the rule that made the change.
	RuleID string

	// Kind is the kind of redaction applied.
	Kind RemarkKind

	// Range is the affected byte range in the current value. Nil means the
	// remark applies to the whole value.
	Range *Range
}

// NewRemark creates a remark that applies to the whole value.
func NewRemark(ruleID string, kind RemarkKind) Remark {
	return Remark{RuleID: ruleID, Kind: kind}
}

// NewRangedRemark creates a remark covering [start, end).
func NewRangedRemark(ruleID string, kind RemarkKind, start, end int) Remark {
	return Remark{RuleID: ruleID, Kind: kind, Range: &Range{Start: start, End: end}}
}

// Equal reports whether r and other are the same remark.
func (r Remark) Equal(other Remark) bool {
	if r.RuleID != other.RuleID || r.Kind != other.Kind {
		return false
	}
	if r.Range == nil || other.Range == nil {
		return r.Range == nil && other.Range == nil
	}
	return *r.Range == *other.Range
}

// Meta holds the provenance of an annotated value.
type Meta struct {
	// Errors lists processing errors in the order they were raised.
	Errors []Error

	// Remarks lists modifications in the order they were recorded.
	Remarks []Remark

	// OriginalLength is the length of the value before it was shortened.
	// Strings are measured in characters, containers in elements.
	OriginalLength *int

	// Extra is a side channel for extension data.
	Extra map[string]any
}

// IsEmpty reports whether the meta carries no information.
func (m *Meta) IsEmpty() bool {
	return len(m.Errors) == 0 && len(m.Remarks) == 0 && m.OriginalLength == nil && len(m.Extra) == 0
}

// HasErrors reports whether at least one error was recorded.
func (m *Meta) HasErrors() bool {
	return len(m.Errors) > 0
}

// AddError appends an error.
func (m *Meta) AddError(err Error) {
	m.Errors = append(m.Errors, err)
}

// AddRemark appends a remark.
func (m *Meta) AddRemark(r Remark) {
	m.Remarks = append(m.Remarks, r)
}

// RangedRemarks returns the remarks that carry a byte range.
func (m *Meta) RangedRemarks() []Remark {
	var out []Remark
	for _, r := range m.Remarks {
		if r.Range != nil {
			out = append(out, r)
		}
	}
	return out
}

// ReplaceRangedRemarks drops all ranged remarks and appends ranged. Whole
// value remarks keep their position.
func (m *Meta) ReplaceRangedRemarks(ranged []Remark) {
	kept := m.Remarks[:0:0]
	for _, r := range m.Remarks {
		if r.Range == nil {
			kept = append(kept, r)
		}
	}
	m.Remarks = append(kept, ranged...)
	if len(m.Remarks) == 0 {
		m.Remarks = nil
	}
}

// SetOriginalLength records n unless an original length was already set.
// The first recorded length wins so repeated shortening keeps the true
// original size.
func (m *Meta) SetOriginalLength(n int) {
	if m.OriginalLength != nil {
		return
	}
	m.OriginalLength = &n
}

// SetExtra stores a side channel value.
func (m *Meta) SetExtra(key string, value any) {
	if m.Extra == nil {
		m.Extra = make(map[string]any)
	}
	m.Extra[key] = value
}

// Reset clears all provenance.
func (m *Meta) Reset() {
	*m = Meta{}
}

// Clone returns a deep copy of the meta record. Error snapshots are shared
// since they are never mutated.
func (m *Meta) Clone() Meta {
	out := Meta{}
	if len(m.Errors) > 0 {
		out.Errors = append([]Error(nil), m.Errors...)
	}
	if len(m.Remarks) > 0 {
		out.Remarks = make([]Remark, len(m.Remarks))
		for i, r := range m.Remarks {
			if r.Range != nil {
				rng := *r.Range
				r.Range = &rng
			}
			out.Remarks[i] = r
		}
	}
	if m.OriginalLength != nil {
		n := *m.OriginalLength
		out.OriginalLength = &n
	}
	if len(m.Extra) > 0 {
		out.Extra = make(map[string]any, len(m.Extra))
		for k, v := range m.Extra {
			out.Extra[k] = v
		}
	}
	return out
}

// Equal reports whether m and other carry the same provenance.
func (m *Meta) Equal(other *Meta) bool {
	if len(m.Errors) != len(other.Errors) || len(m.Remarks) != len(other.Remarks) {
		return false
	}
	for i := range m.Errors {
		if !m.Errors[i].Equal(other.Errors[i]) {
			return false
		}
	}
	for i := range m.Remarks {
		if !m.Remarks[i].Equal(other.Remarks[i]) {
			return false
		}
	}
	if (m.OriginalLength == nil) != (other.OriginalLength == nil) {
		return false
	}
	if m.OriginalLength != nil && *m.OriginalLength != *other.OriginalLength {
		return false
	}
	if len(m.Extra) == 0 && len(other.Extra) == 0 {
		return true
	}
	return reflect.DeepEqual(m.Extra, other.Extra)
}
