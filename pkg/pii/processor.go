package pii

import (
	"unicode/utf8"

	"mercator-hq/relayscrub/pkg/processor"
	"mercator-hq/relayscrub/pkg/protocol"
	"mercator-hq/relayscrub/pkg/types"
)

// Processor applies a compiled configuration during a traversal.
type Processor struct {
	processor.BaseProcessor
	config *CompiledConfig
}

// NewProcessor creates a Processor for config.
func NewProcessor(config *CompiledConfig) *Processor {
	return &Processor{config: config}
}

// Scrub applies config to event. The only error returned is an
// InvalidTransaction abort raised during the traversal.
func Scrub(event *types.Annotated[protocol.Event], config *CompiledConfig) error {
	state := processor.NewRootState(&protocol.EventAttrs, processor.ValueTypeOf(event))
	return processor.ProcessValue(event, NewProcessor(config), &state)
}

// ScrubValue applies config to an untyped payload. Every node of the
// payload is treated as personal data.
func ScrubValue(value *types.Annotated[types.Value], config *CompiledConfig) error {
	state := processor.NewRootState(&processor.PiiAttrs, processor.ValueTypeOf(value))
	return processor.ProcessValue(value, NewProcessor(config), &state)
}

// rulesFor collects the rules of every application selecting state, in
// declaration order and without repeats. Fields not marked as personal
// data are only selected by specific selectors.
func (p *Processor) rulesFor(state *processor.ProcessingState) []*rule {
	if p.config.IsEmpty() {
		return nil
	}
	pii := state.Attrs().Pii
	var out []*rule
	for i := range p.config.applications {
		app := &p.config.applications[i]
		if !pii && !app.selector.IsSpecific() {
			continue
		}
		if !app.selector.Matches(state) {
			continue
		}
		for _, r := range app.rules {
			if !containsRule(out, r) {
				out = append(out, r)
			}
		}
	}
	return out
}

func containsRule(rules []*rule, r *rule) bool {
	for _, existing := range rules {
		if existing == r {
			return true
		}
	}
	return false
}

// wholeValue reports whether r selects the node at state as a whole.
func (r *rule) wholeValue(state *processor.ProcessingState) bool {
	switch r.match {
	case matchAnything:
		return true
	case matchPair:
		key, ok := state.Key()
		return ok && r.keyPattern.MatchString(key)
	}
	return false
}

func (r *rule) deleteAction() error {
	if r.redaction.Hard {
		return processor.DeleteHard()
	}
	return processor.DeleteSoft()
}

// BeforeProcess applies whole-value rules to numbers and containers.
// Strings are handled by ProcessString; booleans are never redacted.
func (p *Processor) BeforeProcess(value any, meta *types.Meta, state *processor.ProcessingState) error {
	switch v := value.(type) {
	case nil, *string, *bool:
		return nil
	case *types.Value:
		if k := v.Kind(); k == types.KindString || k == types.KindBool {
			return nil
		}
	}

	for _, r := range p.rulesFor(state) {
		if r.wholeValue(state) {
			return p.redactNode(value, meta, r)
		}
	}
	return nil
}

// redactNode applies a whole-value rule to a value that is not a string.
// Untyped values may be replaced by text; anything else is deleted.
func (p *Processor) redactNode(value any, meta *types.Meta, r *rule) error {
	if v, ok := value.(*types.Value); ok {
		var text string
		switch r.redaction.Method {
		case MethodReplace:
			text = r.redaction.Text
		case MethodHash:
			text = redactText(&r.redaction, v.Text(), p.config.hashKey)
		default:
			meta.AddRemark(types.NewRemark(r.id, types.RemarkRemove))
			return r.deleteAction()
		}
		*v = types.String(text)
		meta.AddRemark(types.NewRangedRemark(r.id, remarkKind(r.redaction.Method), 0, len(text)))
		return nil
	}
	meta.AddRemark(types.NewRemark(r.id, types.RemarkRemove))
	return r.deleteAction()
}

// ProcessString redacts a string leaf.
func (p *Processor) ProcessString(s *string, meta *types.Meta, state *processor.ProcessingState) error {
	rules := p.rulesFor(state)
	if len(rules) == 0 {
		return nil
	}

	chunks := splitChunks(*s, meta.Remarks)
	changed := false
	for _, r := range rules {
		whole := r.wholeValue(state)
		if r.match != matchPattern && !whole {
			continue
		}
		if whole && r.redaction.Method == MethodRemove {
			if hasLiteral(chunks) {
				meta.AddRemark(types.NewRemark(r.id, types.RemarkRemove))
				return r.deleteAction()
			}
			continue
		}
		var applied bool
		chunks, applied = applyRule(chunks, r, whole, p.config.hashKey)
		changed = changed || applied
	}
	if !changed {
		return nil
	}

	out, remarks := joinChunks(chunks)
	if n := utf8.RuneCountInString(*s); utf8.RuneCountInString(out) != n {
		meta.SetOriginalLength(n)
	}
	meta.ReplaceRangedRemarks(remarks)
	*s = out
	return nil
}
