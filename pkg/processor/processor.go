package processor

import "mercator-hq/relayscrub/pkg/types"

// Processor is a pipeline stage run over a value tree. Hooks receive the
// node's meta and state and return nil to continue or an action error from
// DeleteSoft, DeleteHard or AbortTransaction. Any other error aborts the
// traversal as well.
type Processor interface {
	// BeforeProcess runs on entry to every node. value is a pointer to the
	// node's value (*string, *types.Value, *protocol.User, ...) or nil when
	// the node is absent. Hooks may mutate the value in place.
	BeforeProcess(value any, meta *types.Meta, state *ProcessingState) error

	// AfterProcess runs on exit from every node whose children were
	// processed without an action.
	AfterProcess(value any, meta *types.Meta, state *ProcessingState) error

	ProcessString(s *string, meta *types.Meta, state *ProcessingState) error
	ProcessInt(i *int64, meta *types.Meta, state *ProcessingState) error
	ProcessFloat(f *float64, meta *types.Meta, state *ProcessingState) error
	ProcessBool(b *bool, meta *types.Meta, state *ProcessingState) error
}

// BaseProcessor implements every hook as a no-op. Embed it and override the
// hooks a stage needs.
type BaseProcessor struct{}

func (BaseProcessor) BeforeProcess(any, *types.Meta, *ProcessingState) error { return nil }
func (BaseProcessor) AfterProcess(any, *types.Meta, *ProcessingState) error { return nil }
func (BaseProcessor) ProcessString(*string, *types.Meta, *ProcessingState) error { return nil }
func (BaseProcessor) ProcessInt(*int64, *types.Meta, *ProcessingState) error { return nil }
func (BaseProcessor) ProcessFloat(*float64, *types.Meta, *ProcessingState) error { return nil }
func (BaseProcessor) ProcessBool(*bool, *types.Meta, *ProcessingState) error { return nil }

// Chain runs several processors in one traversal. Each hook runs the
// processors in order and stops at the first one returning an error.
func Chain(processors ...Processor) Processor {
	return chain(processors)
}

type chain []Processor

func (c chain) BeforeProcess(value any, meta *types.Meta, state *ProcessingState) error {
	for _, p := range c {
		if err := p.BeforeProcess(value, meta, state); err != nil {
			return err
		}
	}
	return nil
}

func (c chain) AfterProcess(value any, meta *types.Meta, state *ProcessingState) error {
	for _, p := range c {
		if err := p.AfterProcess(value, meta, state); err != nil {
			return err
		}
	}
	return nil
}

func (c chain) ProcessString(s *string, meta *types.Meta, state *ProcessingState) error {
	for _, p := range c {
		if err := p.ProcessString(s, meta, state); err != nil {
			return err
		}
	}
	return nil
}

func (c chain) ProcessInt(i *int64, meta *types.Meta, state *ProcessingState) error {
	for _, p := range c {
		if err := p.ProcessInt(i, meta, state); err != nil {
			return err
		}
	}
	return nil
}

func (c chain) ProcessFloat(f *float64, meta *types.Meta, state *ProcessingState) error {
	for _, p := range c {
		if err := p.ProcessFloat(f, meta, state); err != nil {
			return err
		}
	}
	return nil
}

func (c chain) ProcessBool(b *bool, meta *types.Meta, state *ProcessingState) error {
	for _, p := range c {
		if err := p.ProcessBool(b, meta, state); err != nil {
			return err
		}
	}
	return nil
}
