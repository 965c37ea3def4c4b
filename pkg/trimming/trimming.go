package trimming

import (
	"unicode/utf8"

	"mercator-hq/relayscrub/pkg/processor"
	"mercator-hq/relayscrub/pkg/types"
)

// LimitRuleID is the rule id recorded on truncation remarks.
const LimitRuleID = "!limit"

// truncationMarker is appended to shortened strings.
const truncationMarker = "..."

// Limits are the global bounds applied where a field declares none.
// A zero value disables the corresponding bound.
type Limits struct {
	// MaxDepth is the depth at which non-empty containers are dropped.
	MaxDepth int `yaml:"max_depth"`

	// MaxStringChars limits strings without a declared max_chars.
	MaxStringChars int `yaml:"max_string_chars"`

	// MaxCollectionItems limits containers without a declared max_items.
	MaxCollectionItems int `yaml:"max_collection_items"`
}

// DefaultLimits returns the bounds used when nothing is configured.
func DefaultLimits() Limits {
	return Limits{
		MaxDepth:           64,
		MaxStringChars:     16384,
		MaxCollectionItems: 1000,
	}
}

// Processor enforces structural limits: depth, string length, container
// size, permitted characters and undeclared keys. It never consults PII
// rules.
type Processor struct {
	processor.BaseProcessor

	limits Limits
}

// NewProcessor creates a trimming stage.
func NewProcessor(limits Limits) *Processor {
	return &Processor{limits: limits}
}

// Limits returns the configured bounds.
func (p *Processor) Limits() Limits {
	return p.limits
}

// BeforeProcess drops undeclared values, empties containers nested too deep,
// cuts oversized containers and rejects strings with forbidden characters.
func (p *Processor) BeforeProcess(value any, meta *types.Meta, state *processor.ProcessingState) error {
	if value == nil {
		return nil
	}
	attrs := state.Attrs()

	if attrs.Undeclared {
		meta.AddError(withSnapshot(types.NewError(types.ErrorInvalidAttribute), value))
		return processor.DeleteSoft()
	}

	if c := containerOf(value); c != nil {
		if p.limits.MaxDepth > 0 && state.Depth() >= p.limits.MaxDepth && c.Len() > 0 {
			meta.SetOriginalLength(c.Len())
			c.Truncate(0)
			meta.AddError(types.NewError(types.ErrorTooDeep))
			return nil
		}
		if limit := maxItems(attrs, p.limits); limit > 0 && c.Len() > limit {
			meta.SetOriginalLength(c.Len())
			c.Truncate(limit)
			meta.AddError(types.NewError(types.ErrorCollectionTooLarge))
		}
		return nil
	}

	if attrs.Characters != nil {
		if s, ok := stringOf(value); ok {
			if r, ok := attrs.Characters.Allows(s); !ok {
				meta.AddError(types.NewError(types.ErrorInvalidData).
					WithReason("invalid character %q in %s value", r, attrs.Characters.Name).
					WithOriginal(types.String(s)))
				return processor.DeleteSoft()
			}
		}
	}
	return nil
}

// ProcessString shortens strings over their character limit.
func (p *Processor) ProcessString(s *string, meta *types.Meta, state *processor.ProcessingState) error {
	limit := state.Attrs().MaxChars
	if limit == 0 {
		limit = p.limits.MaxStringChars
	}
	if limit > 0 {
		Truncate(s, meta, limit)
	}
	return nil
}

// Truncate shortens *s to at most limit characters, including the marker.
// It records the original length, a value_too_long error and a truncate
// remark covering the marker, and clips ranged remarks to the kept prefix.
// It reports whether *s was changed.
func Truncate(s *string, meta *types.Meta, limit int) bool {
	n := utf8.RuneCountInString(*s)
	if n <= limit {
		return false
	}

	keep := limit - utf8.RuneCountInString(truncationMarker)
	marker := truncationMarker
	if keep < 0 {
		keep = limit
		marker = ""
	}
	cut := byteOffset(*s, keep)

	ranged := clipRemarks(meta.RangedRemarks(), cut)
	ranged = append(ranged, types.NewRangedRemark(LimitRuleID, types.RemarkTruncate, cut, cut+len(marker)))
	meta.ReplaceRangedRemarks(ranged)
	meta.SetOriginalLength(n)
	meta.AddError(types.NewError(types.ErrorValueTooLong))

	*s = (*s)[:cut] + marker
	return true
}

// byteOffset returns the byte offset of the n-th rune of s.
func byteOffset(s string, n int) int {
	i := 0
	for off := range s {
		if i == n {
			return off
		}
		i++
	}
	return len(s)
}

// clipRemarks drops ranges starting at or after cut and shortens ranges
// crossing it.
func clipRemarks(remarks []types.Remark, cut int) []types.Remark {
	out := make([]types.Remark, 0, len(remarks)+1)
	for _, r := range remarks {
		if r.Range.Start > cut || (r.Range.Start == cut && r.Range.Len() > 0) {
			continue
		}
		end := min(r.Range.End, cut)
		out = append(out, types.NewRangedRemark(r.RuleID, r.Kind, r.Range.Start, end))
	}
	return out
}

func maxItems(attrs *processor.FieldAttrs, limits Limits) int {
	if attrs.MaxItems > 0 {
		return attrs.MaxItems
	}
	return limits.MaxCollectionItems
}

// containerOf returns value as a size-limited collection, or nil for
// scalars and typed structures.
func containerOf(value any) types.Container {
	switch v := value.(type) {
	case *types.Value:
		return v.Container()
	case types.Container:
		return v
	}
	return nil
}

func stringOf(value any) (string, bool) {
	switch v := value.(type) {
	case *string:
		return *v, true
	case *types.Value:
		return v.AsString()
	}
	return "", false
}

func withSnapshot(err types.Error, value any) types.Error {
	switch v := value.(type) {
	case *types.Value:
		return err.WithOriginal(*v)
	case *string:
		return err.WithOriginal(types.String(*v))
	}
	return err
}
