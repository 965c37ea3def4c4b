package pii

import (
	"sort"
	"strings"

	"mercator-hq/relayscrub/pkg/types"
)

// chunk is a piece of a string being redacted. Literal chunks hold
// original text; redacted chunks hold the text that replaced a match.
type chunk struct {
	text     string
	redacted bool
	ruleID   string
	kind     types.RemarkKind
}

// splitChunks cuts s along the ranged remarks already recorded for it so
// that previously redacted spans are never matched again. Remarks that do
// not fit s or overlap an earlier remark are ignored.
func splitChunks(s string, remarks []types.Remark) []chunk {
	ranged := make([]types.Remark, 0, len(remarks))
	for _, r := range remarks {
		if r.Range != nil && r.Range.Start >= 0 && r.Range.Start <= r.Range.End && r.Range.End <= len(s) {
			ranged = append(ranged, r)
		}
	}
	sort.SliceStable(ranged, func(i, j int) bool {
		return ranged[i].Range.Start < ranged[j].Range.Start
	})

	var chunks []chunk
	pos := 0
	for _, r := range ranged {
		if r.Range.Start < pos {
			continue
		}
		if r.Range.Start > pos {
			chunks = append(chunks, chunk{text: s[pos:r.Range.Start]})
		}
		chunks = append(chunks, chunk{
			text:     s[r.Range.Start:r.Range.End],
			redacted: true,
			ruleID:   r.RuleID,
			kind:     r.Kind,
		})
		pos = r.Range.End
	}
	if pos < len(s) {
		chunks = append(chunks, chunk{text: s[pos:]})
	}
	return chunks
}

// joinChunks concatenates chunks and returns one remark per maximal run of
// adjacent redacted chunks sharing a rule and kind.
func joinChunks(chunks []chunk) (string, []types.Remark) {
	var b strings.Builder
	var remarks []types.Remark
	lastRedacted := false

	for _, c := range chunks {
		start := b.Len()
		b.WriteString(c.text)
		if !c.redacted {
			lastRedacted = false
			continue
		}
		if lastRedacted {
			prev := &remarks[len(remarks)-1]
			if prev.RuleID == c.ruleID && prev.Kind == c.kind {
				prev.Range.End = b.Len()
				continue
			}
		}
		remarks = append(remarks, types.NewRangedRemark(c.ruleID, c.kind, start, b.Len()))
		lastRedacted = true
	}
	return b.String(), remarks
}

// hasLiteral reports whether any unredacted text remains.
func hasLiteral(chunks []chunk) bool {
	for _, c := range chunks {
		if !c.redacted && c.text != "" {
			return true
		}
	}
	return false
}

// span is a byte range of a literal chunk selected for redaction.
type span struct {
	start, end int
}

// applyRule redacts the spans r selects in every literal chunk. Redacted
// chunks are left alone, so the first rule to claim a span wins.
func applyRule(chunks []chunk, r *rule, whole bool, hashKey string) ([]chunk, bool) {
	out := make([]chunk, 0, len(chunks))
	changed := false
	kind := remarkKind(r.redaction.Method)

	for _, c := range chunks {
		if c.redacted || c.text == "" {
			out = append(out, c)
			continue
		}
		var spans []span
		if whole {
			spans = []span{{0, len(c.text)}}
		} else {
			spans = matchSpans(r, c.text)
		}
		if len(spans) == 0 {
			out = append(out, c)
			continue
		}
		changed = true
		pos := 0
		for _, sp := range spans {
			if sp.start > pos {
				out = append(out, chunk{text: c.text[pos:sp.start]})
			}
			out = append(out, chunk{
				text:     redactText(&r.redaction, c.text[sp.start:sp.end], hashKey),
				redacted: true,
				ruleID:   r.id,
				kind:     kind,
			})
			pos = sp.end
		}
		if pos < len(c.text) {
			out = append(out, chunk{text: c.text[pos:]})
		}
	}
	return out, changed
}

// matchSpans returns the ordered, non-overlapping, non-empty spans of text
// a pattern rule redacts.
func matchSpans(r *rule, text string) []span {
	var spans []span
	for _, m := range r.pattern.FindAllStringSubmatchIndex(text, -1) {
		if len(r.groups) == 0 {
			spans = append(spans, span{m[0], m[1]})
			continue
		}
		for _, g := range r.groups {
			if 2*g+1 < len(m) && m[2*g] >= 0 {
				spans = append(spans, span{m[2*g], m[2*g+1]})
			}
		}
	}
	sort.SliceStable(spans, func(i, j int) bool { return spans[i].start < spans[j].start })

	out := spans[:0]
	end := 0
	for _, sp := range spans {
		if sp.start == sp.end || sp.start < end {
			continue
		}
		out = append(out, sp)
		end = sp.end
	}
	return out
}
