package normalize

import (
	"strings"

	"mercator-hq/relayscrub/pkg/processor"
	"mercator-hq/relayscrub/pkg/protocol"
	"mercator-hq/relayscrub/pkg/types"
)

// Processor applies the schema rules declared in field attributes: it trims
// whitespace, flags missing required values, clears empty values of
// non-empty fields and rejects transactions without a valid time span.
type Processor struct {
	processor.BaseProcessor
}

// NewProcessor creates a normalization stage.
func NewProcessor() *Processor {
	return &Processor{}
}

// BeforeProcess implements processor.Processor.
func (p *Processor) BeforeProcess(value any, meta *types.Meta, state *processor.ProcessingState) error {
	attrs := state.Attrs()

	if value == nil {
		// Values cleared by an earlier stage already explain their absence.
		if attrs.Required && !meta.HasErrors() {
			meta.AddError(types.NewError(types.ErrorMissingAttribute))
		}
		return nil
	}

	if attrs.TrimWhitespace {
		trimSpace(value)
	}

	if attrs.NonEmpty && isEmpty(value) {
		meta.AddError(types.NewError(types.ErrorInvalidData).WithReason("expected a non-empty value"))
		return processor.DeleteSoft()
	}

	if event, ok := value.(*protocol.Event); ok {
		return validateTransaction(event)
	}
	return nil
}

// validateTransaction aborts on transactions that lack a start or end, or
// end before they start.
func validateTransaction(e *protocol.Event) error {
	if !e.IsTransaction() {
		return nil
	}
	end, ok := e.Timestamp.Get()
	if !ok {
		return processor.AbortTransaction("transaction has no timestamp")
	}
	start, ok := e.StartTimestamp.Get()
	if !ok {
		return processor.AbortTransaction("transaction has no start_timestamp")
	}
	if end < start {
		return processor.AbortTransaction("transaction ends before it starts")
	}
	return nil
}

func trimSpace(value any) {
	var s *string
	switch v := value.(type) {
	case *string:
		s = v
	case *types.Value:
		s = v.StringPtr()
	}
	if s != nil {
		*s = strings.TrimSpace(*s)
	}
}

func isEmpty(value any) bool {
	switch v := value.(type) {
	case *string:
		return *v == ""
	case *types.Value:
		if s, ok := v.AsString(); ok {
			return s == ""
		}
		if c := v.Container(); c != nil {
			return c.Len() == 0
		}
	case types.Container:
		return v.Len() == 0
	}
	return false
}
