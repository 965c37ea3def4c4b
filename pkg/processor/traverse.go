package processor

import (
	"mercator-hq/relayscrub/pkg/types"
)

// MaxTraversalDepth is a hard ceiling on traversal depth. Nodes beyond it are
// dropped with a too_deep error without running any hook, so stack usage
// stays bounded even when no trimming stage is configured.
const MaxTraversalDepth = 256

// Traversable is implemented by typed structures. ProcessChildren visits the
// declared fields in declaration order, then any extension entries.
type Traversable interface {
	ValueType() ValueType
	ProcessChildren(p Processor, state *ProcessingState) error
}

// ValueTypeOf returns the type tags of the value held by a. Typed fields
// report their static type even when absent.
func ValueTypeOf[T any](a *types.Annotated[T]) ValueType {
	return valueTypeOf(a.Value())
}

func valueTypeOf(value any) ValueType {
	switch v := value.(type) {
	case *string:
		return TypeString
	case *int64, *float64:
		return TypeNumber
	case *bool:
		return TypeBoolean
	case *types.Value:
		if v == nil {
			return 0
		}
		return untypedValueType(v)
	case *types.PairList:
		return TypePairList | TypeArray
	case Traversable:
		return v.ValueType()
	case interface{ Keys() []string }:
		return TypeObject
	case types.Container:
		return TypeArray
	}
	return 0
}

func untypedValueType(v *types.Value) ValueType {
	switch v.Kind() {
	case types.KindString:
		return TypeString
	case types.KindInt, types.KindFloat:
		return TypeNumber
	case types.KindBool:
		return TypeBoolean
	case types.KindArray:
		return TypeArray
	case types.KindObject:
		return TypeObject
	}
	return 0
}

// ProcessValue runs p over a and its descendants. The only errors returned
// are traversal aborts; deletions are applied to a in place.
func ProcessValue[T any](a *types.Annotated[T], p Processor, state *ProcessingState) error {
	_, err := processNode(a, p, state, func(v *T) error {
		return processChildren(v, a.Meta(), p, state)
	})
	return err
}

// ProcessField enters key with attrs and processes a there.
func ProcessField[T any](a *types.Annotated[T], p Processor, state *ProcessingState, key string, attrs *FieldAttrs) error {
	child := state.EnterKey(key, attrs, ValueTypeOf(a))
	return ProcessValue(a, p, &child)
}

// ProcessArrayField enters key with attrs and processes a typed array there.
func ProcessArrayField[T any](a *types.Annotated[types.Array[T]], p Processor, state *ProcessingState, key string, attrs *FieldAttrs) error {
	child := state.EnterKey(key, attrs, TypeArray)
	_, err := processNode(a, p, &child, func(arr *types.Array[T]) error {
		return processItems(arr, a.Meta(), p, &child)
	})
	return err
}

// ProcessOther visits the extension entries of a typed structure. Entries
// inherit from the structure's attributes, or are marked undeclared when
// the structure denies unknown keys.
func ProcessOther(other *types.Object[types.Value], p Processor, state *ProcessingState) error {
	attrs := state.Attrs().Inner()
	if state.Attrs().DenyUnknown {
		attrs = &UndeclaredAttrs
	}
	return processEntries(other, p, state, attrs)
}

// processNode runs the hooks of one node and applies the resulting action.
// The returned action tells containers whether to drop the slot. A node
// past MaxTraversalDepth is cleared in place and keeps its slot so the
// too_deep error marks where processing stopped.
func processNode[T any](a *types.Annotated[T], p Processor, state *ProcessingState, children func(*T) error) (ProcessingAction, error) {
	if state.Depth() > MaxTraversalDepth {
		if a.IsPresent() {
			a.Clear()
			a.AddError(types.NewError(types.ErrorTooDeep))
		}
		return NoAction, nil
	}

	err := p.BeforeProcess(anyOf(a.Value()), a.Meta(), state)
	if err == nil {
		if v := a.Value(); v != nil {
			err = children(v)
		}
	}
	if err == nil {
		err = p.AfterProcess(anyOf(a.Value()), a.Meta(), state)
	}
	return applyAction(a, err)
}

// anyOf boxes v, keeping absent values as an untyped nil.
func anyOf[T any](v *T) any {
	if v == nil {
		return nil
	}
	return v
}

func applyAction[T any](a *types.Annotated[T], err error) (ProcessingAction, error) {
	if err == nil {
		return NoAction, nil
	}
	switch ActionOf(err) {
	case DeleteValueSoft:
		a.Clear()
		return DeleteValueSoft, nil
	case DeleteValueHard:
		a.Reset()
		return DeleteValueHard, nil
	}
	return NoAction, err
}

func processChildren(value any, meta *types.Meta, p Processor, state *ProcessingState) error {
	switch v := value.(type) {
	case *string:
		return p.ProcessString(v, meta, state)
	case *int64:
		return p.ProcessInt(v, meta, state)
	case *float64:
		return p.ProcessFloat(v, meta, state)
	case *bool:
		return p.ProcessBool(v, meta, state)
	case *types.Value:
		return processUntyped(v, meta, p, state)
	case *types.PairList:
		return processPairs(v, meta, p, state)
	case *types.Object[types.Value]:
		return processEntries(v, p, state, state.Attrs().Inner())
	case *types.Array[types.Value]:
		return processItems(v, meta, p, state)
	case Traversable:
		return v.ProcessChildren(p, state)
	}
	return nil
}

func processUntyped(v *types.Value, meta *types.Meta, p Processor, state *ProcessingState) error {
	switch v.Kind() {
	case types.KindString:
		return p.ProcessString(v.StringPtr(), meta, state)
	case types.KindInt:
		return p.ProcessInt(v.IntPtr(), meta, state)
	case types.KindFloat:
		return p.ProcessFloat(v.FloatPtr(), meta, state)
	case types.KindBool:
		return p.ProcessBool(v.BoolPtr(), meta, state)
	case types.KindArray:
		return processItems(v.Array(), meta, p, state)
	case types.KindObject:
		return processEntries(v.Object(), p, state, state.Attrs().Inner())
	}
	return nil
}

// processItems visits array items in order. Deleted items are removed and
// the array's original length is recorded in meta.
func processItems[T any](arr *types.Array[T], meta *types.Meta, p Processor, state *ProcessingState) error {
	inner := state.Attrs().Inner()
	items := *arr
	removed := make([]bool, len(items))
	anyRemoved := false

	for i := range items {
		item := &items[i]
		child := state.EnterIndex(i, inner, ValueTypeOf(item))
		action, err := processNode(item, p, &child, func(v *T) error {
			return processChildren(v, item.Meta(), p, &child)
		})
		if err != nil {
			return err
		}
		if action == DeleteValueSoft || action == DeleteValueHard {
			removed[i] = true
			anyRemoved = true
		}
	}

	if !anyRemoved {
		return nil
	}
	meta.SetOriginalLength(len(items))
	kept := 0
	for i := range items {
		if !removed[i] {
			items[kept] = items[i]
			kept++
		}
	}
	*arr = items
	arr.Truncate(kept)
	return nil
}

// processEntries visits object entries in insertion order. Hard deleted
// entries are removed; soft deleted entries keep their key.
func processEntries[T any](obj *types.Object[T], p Processor, state *ProcessingState, attrs *FieldAttrs) error {
	for _, key := range obj.Keys() {
		entry := obj.Get(key)
		child := state.EnterKey(key, attrs, ValueTypeOf(entry))
		action, err := processNode(entry, p, &child, func(v *T) error {
			return processChildren(v, entry.Meta(), p, &child)
		})
		if err != nil {
			return err
		}
		if action == DeleteValueHard {
			obj.Remove(key)
		}
	}
	return nil
}

// processPairs visits pair values. Hard deleted pairs are removed.
func processPairs(pairs *types.PairList, meta *types.Meta, p Processor, state *ProcessingState) error {
	inner := state.Attrs().Inner()
	list := *pairs
	kept := list[:0]
	removed := false

	for i := range list {
		value := &list[i].Value
		child := state.EnterPair(list[i].Key, i, inner, ValueTypeOf(value))
		action, err := processNode(value, p, &child, func(v *types.Value) error {
			return processChildren(v, value.Meta(), p, &child)
		})
		if err != nil {
			return err
		}
		if action == DeleteValueHard {
			removed = true
			continue
		}
		kept = append(kept, list[i])
	}

	if removed {
		meta.SetOriginalLength(len(list))
		*pairs = kept
	}
	return nil
}
