package protocol

import (
	"net/url"
	"strings"
	"time"

	"mercator-hq/relayscrub/pkg/types"
)

// take removes key from obj and returns its entry.
func take(obj *types.Object[types.Value], key string) types.Annotated[types.Value] {
	entry := obj.Get(key)
	if entry == nil {
		return types.Empty[types.Value]()
	}
	out := *entry
	obj.Remove(key)
	return out
}

// convert turns an untyped entry into a typed one. Values of the wrong shape
// become absent with an invalid_data error carrying the original.
func convert[T any](a types.Annotated[types.Value], expected string, f func(*types.Value) (T, bool)) types.Annotated[T] {
	meta := *a.Meta()
	v := a.Value()
	if v == nil {
		return types.WithMeta[T](nil, meta)
	}
	out, ok := f(v)
	if !ok {
		meta.AddError(types.NewError(types.ErrorInvalidData).
			WithReason("expected %s", expected).
			WithOriginal(*v))
		return types.WithMeta[T](nil, meta)
	}
	return types.WithMeta(&out, meta)
}

// lift turns a typed entry back into an untyped one, keeping meta.
func lift[T any](a types.Annotated[T], f func(T) types.Value) types.Annotated[types.Value] {
	meta := *a.Meta()
	v := a.Value()
	if v == nil {
		return types.WithMeta[types.Value](nil, meta)
	}
	out := f(*v)
	return types.WithMeta(&out, meta)
}

// put writes a lifted field unless it carries nothing at all.
func put(obj *types.Object[types.Value], key string, a types.Annotated[types.Value]) {
	if a.IsEmpty() {
		return
	}
	obj.Insert(key, a)
}

func appendOther(obj *types.Object[types.Value], other *types.Object[types.Value]) {
	for _, key := range other.Keys() {
		obj.Insert(key, *other.Get(key))
	}
}

func asString(a types.Annotated[types.Value]) types.Annotated[string] {
	return convert(a, "a string", func(v *types.Value) (string, bool) {
		return v.AsString()
	})
}

func liftString(a types.Annotated[string]) types.Annotated[types.Value] {
	return lift(a, types.String)
}

// asTimestamp accepts unix seconds or an RFC 3339 string.
func asTimestamp(a types.Annotated[types.Value]) types.Annotated[float64] {
	return convert(a, "a timestamp", func(v *types.Value) (float64, bool) {
		if f, ok := v.AsFloat(); ok {
			return f, true
		}
		s, ok := v.AsString()
		if !ok {
			return 0, false
		}
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return 0, false
		}
		return float64(t.UnixNano()) / float64(time.Second), true
	})
}

func liftFloat(a types.Annotated[float64]) types.Annotated[types.Value] {
	return lift(a, types.Float)
}

func asObject(a types.Annotated[types.Value]) types.Annotated[types.Object[types.Value]] {
	return convert(a, "an object", func(v *types.Value) (types.Object[types.Value], bool) {
		obj := v.Object()
		if obj == nil {
			return types.Object[types.Value]{}, false
		}
		return *obj, true
	})
}

func liftObject(a types.Annotated[types.Object[types.Value]]) types.Annotated[types.Value] {
	return lift(a, func(obj types.Object[types.Value]) types.Value {
		return types.ObjectValue(&obj)
	})
}

// asStruct converts an object entry with the given constructor.
func asStruct[T any](a types.Annotated[types.Value], expected string, from func(*types.Object[types.Value]) T) types.Annotated[T] {
	return convert(a, expected, func(v *types.Value) (T, bool) {
		obj := v.Object()
		if obj == nil {
			var zero T
			return zero, false
		}
		return from(obj), true
	})
}

// pairSyntax selects how string-encoded pair lists are split.
type pairSyntax int

const (
	pairsNone pairSyntax = iota
	pairsQuery
	pairsCookie
)

// asPairList accepts [[key, value], ...], {key: value} or, for query strings
// and cookies, their string encoding.
func asPairList(a types.Annotated[types.Value], syntax pairSyntax) types.Annotated[types.PairList] {
	return convert(a, "a list of pairs", func(v *types.Value) (types.PairList, bool) {
		switch v.Kind() {
		case types.KindObject:
			obj := v.Object()
			pairs := make(types.PairList, 0, obj.Len())
			for _, key := range obj.Keys() {
				pairs = append(pairs, types.Pair{Key: key, Value: *obj.Get(key)})
			}
			return pairs, true
		case types.KindArray:
			items := *v.Array()
			pairs := make(types.PairList, 0, len(items))
			for i := range items {
				item := items[i].Value()
				if item == nil || item.Array() == nil || len(*item.Array()) != 2 {
					return nil, false
				}
				kv := *item.Array()
				if kv[0].Value() == nil {
					return nil, false
				}
				key, ok := kv[0].Value().AsString()
				if !ok {
					return nil, false
				}
				pairs = append(pairs, types.Pair{Key: key, Value: kv[1]})
			}
			return pairs, true
		case types.KindString:
			s, _ := v.AsString()
			switch syntax {
			case pairsQuery:
				return splitPairs(strings.TrimPrefix(s, "?"), "&", true), true
			case pairsCookie:
				return splitPairs(s, ";", false), true
			}
		}
		return nil, false
	})
}

func splitPairs(s, sep string, unescape bool) types.PairList {
	var pairs types.PairList
	for _, part := range strings.Split(s, sep) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, _ := strings.Cut(part, "=")
		if unescape {
			if k, err := url.QueryUnescape(key); err == nil {
				key = k
			}
			if v, err := url.QueryUnescape(value); err == nil {
				value = v
			}
		}
		pairs.Add(key, value)
	}
	return pairs
}

func liftPairList(a types.Annotated[types.PairList]) types.Annotated[types.Value] {
	return lift(a, func(pairs types.PairList) types.Value {
		items := make(types.Array[types.Value], 0, len(pairs))
		for _, p := range pairs {
			kv := types.Array[types.Value]{types.New(types.String(p.Key)), p.Value}
			items = append(items, types.New(types.ArrayValue(kv)))
		}
		return types.ArrayValue(items)
	})
}
