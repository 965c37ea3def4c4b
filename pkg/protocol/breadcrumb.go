package protocol

import (
	"mercator-hq/relayscrub/pkg/processor"
	"mercator-hq/relayscrub/pkg/types"
)

// Breadcrumb is a single entry of the event's trail of prior actions.
type Breadcrumb struct {
	Timestamp types.Annotated[float64]
	Type      types.Annotated[string]
	Category  types.Annotated[string]
	Level     types.Annotated[string]
	Message   types.Annotated[string]
	Data      types.Annotated[types.Object[types.Value]]
	Other     types.Object[types.Value]
}

// Breadcrumbs wraps the breadcrumb list.
type Breadcrumbs struct {
	Values types.Annotated[types.Array[Breadcrumb]]
	Other  types.Object[types.Value]
}

var (
	crumbTimestampAttrs = processor.FieldAttrs{Name: "timestamp", Required: true}
	crumbTypeAttrs      = processor.FieldAttrs{Name: "type", MaxChars: 64, TrimWhitespace: true}
	crumbCategoryAttrs  = processor.FieldAttrs{Name: "category", MaxChars: 64, TrimWhitespace: true}
	crumbLevelAttrs     = processor.FieldAttrs{Name: "level", MaxChars: 16, TrimWhitespace: true}
	crumbMessageAttrs   = processor.FieldAttrs{Name: "message", MaxChars: 8192, Pii: true}
	crumbDataAttrs      = processor.FieldAttrs{Name: "data", Pii: true}
	crumbValuesAttrs    = processor.FieldAttrs{Name: "values", MaxItems: 100}
)

// ValueType implements processor.Traversable.
func (b *Breadcrumb) ValueType() processor.ValueType {
	return processor.TypeBreadcrumb | processor.TypeObject
}

// ProcessChildren implements processor.Traversable.
func (b *Breadcrumb) ProcessChildren(p processor.Processor, state *processor.ProcessingState) error {
	if err := processor.ProcessField(&b.Timestamp, p, state, "timestamp", &crumbTimestampAttrs); err != nil {
		return err
	}
	if err := processor.ProcessField(&b.Type, p, state, "type", &crumbTypeAttrs); err != nil {
		return err
	}
	if err := processor.ProcessField(&b.Category, p, state, "category", &crumbCategoryAttrs); err != nil {
		return err
	}
	if err := processor.ProcessField(&b.Level, p, state, "level", &crumbLevelAttrs); err != nil {
		return err
	}
	if err := processor.ProcessField(&b.Message, p, state, "message", &crumbMessageAttrs); err != nil {
		return err
	}
	if err := processor.ProcessField(&b.Data, p, state, "data", &crumbDataAttrs); err != nil {
		return err
	}
	return processor.ProcessOther(&b.Other, p, state)
}

func breadcrumbFromObject(obj *types.Object[types.Value]) Breadcrumb {
	b := Breadcrumb{
		Timestamp: asTimestamp(take(obj, "timestamp")),
		Type:      asString(take(obj, "type")),
		Category:  asString(take(obj, "category")),
		Level:     asString(take(obj, "level")),
		Message:   asString(take(obj, "message")),
		Data:      asObject(take(obj, "data")),
	}
	b.Other = *obj
	return b
}

// ToValue converts the breadcrumb into an untyped object.
func (b *Breadcrumb) ToValue() types.Value {
	obj := types.NewObject[types.Value]()
	put(obj, "timestamp", liftFloat(b.Timestamp))
	put(obj, "type", liftString(b.Type))
	put(obj, "category", liftString(b.Category))
	put(obj, "level", liftString(b.Level))
	put(obj, "message", liftString(b.Message))
	put(obj, "data", liftObject(b.Data))
	appendOther(obj, &b.Other)
	return types.ObjectValue(obj)
}

// ValueType implements processor.Traversable.
func (b *Breadcrumbs) ValueType() processor.ValueType {
	return processor.TypeObject
}

// ProcessChildren implements processor.Traversable.
func (b *Breadcrumbs) ProcessChildren(p processor.Processor, state *processor.ProcessingState) error {
	if err := processor.ProcessArrayField(&b.Values, p, state, "values", &crumbValuesAttrs); err != nil {
		return err
	}
	return processor.ProcessOther(&b.Other, p, state)
}

// asBreadcrumbs accepts {"values": [...]} or a bare list.
func asBreadcrumbs(a types.Annotated[types.Value]) types.Annotated[Breadcrumbs] {
	return convert(a, "a breadcrumb list", func(v *types.Value) (Breadcrumbs, bool) {
		if v.Array() != nil {
			return Breadcrumbs{Values: asBreadcrumbList(types.New(*v))}, true
		}
		obj := v.Object()
		if obj == nil {
			return Breadcrumbs{}, false
		}
		b := Breadcrumbs{Values: asBreadcrumbList(take(obj, "values"))}
		b.Other = *obj
		return b, true
	})
}

func asBreadcrumbList(a types.Annotated[types.Value]) types.Annotated[types.Array[Breadcrumb]] {
	return convert(a, "a list", func(v *types.Value) (types.Array[Breadcrumb], bool) {
		items := v.Array()
		if items == nil {
			return nil, false
		}
		out := make(types.Array[Breadcrumb], 0, len(*items))
		for _, item := range *items {
			out = append(out, asStruct(item, "a breadcrumb object", breadcrumbFromObject))
		}
		return out, true
	})
}

// ToValue converts the breadcrumb list into an untyped object.
func (b *Breadcrumbs) ToValue() types.Value {
	obj := types.NewObject[types.Value]()
	put(obj, "values", lift(b.Values, func(items types.Array[Breadcrumb]) types.Value {
		out := make(types.Array[types.Value], 0, len(items))
		for _, item := range items {
			out = append(out, lift(item, func(c Breadcrumb) types.Value { return c.ToValue() }))
		}
		return types.ArrayValue(out)
	}))
	appendOther(obj, &b.Other)
	return types.ObjectValue(obj)
}
