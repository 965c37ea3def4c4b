package types

import (
	"math"
	"strconv"
)

// ValueKind identifies the variant held by a Value.
type ValueKind uint8

const (
	// KindBool holds a boolean.
	KindBool ValueKind = iota + 1
	// KindInt holds a signed 64-bit integer.
	KindInt
	// KindFloat holds a 64-bit float.
	KindFloat
	// KindString holds a UTF-8 string.
	KindString
	// KindArray holds an ordered sequence of annotated values.
	KindArray
	// KindObject holds an insertion-ordered mapping of annotated values.
	KindObject
)

// String returns the lowercase name of the kind.
func (k ValueKind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Value is an untyped payload node. The zero Value is not valid; build
// values with the constructors below. Absence is expressed by the enclosing
// Annotated, never by the Value itself.
type Value struct {
	kind ValueKind
	b    bool
	i    int64
	f    float64
	s    string
	arr  Array[Value]
	obj  *Object[Value]
}

// Bool returns a boolean Value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Int returns an integer Value.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Float returns a float Value.
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// String returns a string Value.
func String(s string) Value { return Value{kind: KindString, s: s} }

// ArrayValue returns an array Value holding items.
func ArrayValue(items Array[Value]) Value {
	if items == nil {
		items = Array[Value]{}
	}
	return Value{kind: KindArray, arr: items}
}

// ObjectValue returns an object Value. A nil object is replaced by an empty one.
func ObjectValue(obj *Object[Value]) Value {
	if obj == nil {
		obj = NewObject[Value]()
	}
	return Value{kind: KindObject, obj: obj}
}

// Kind reports the variant held by v.
func (v *Value) Kind() ValueKind { return v.kind }

// AsBool returns the boolean held by v.
func (v *Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsInt returns the integer held by v.
func (v *Value) AsInt() (int64, bool) { return v.i, v.kind == KindInt }

// AsFloat returns the float held by v. Integers are widened.
func (v *Value) AsFloat() (float64, bool) {
	switch v.kind {
	case KindFloat:
		return v.f, true
	case KindInt:
		return float64(v.i), true
	}
	return 0, false
}

// AsString returns the string held by v.
func (v *Value) AsString() (string, bool) { return v.s, v.kind == KindString }

// BoolPtr returns a pointer to the boolean held by v, or nil.
func (v *Value) BoolPtr() *bool {
	if v.kind != KindBool {
		return nil
	}
	return &v.b
}

// IntPtr returns a pointer to the integer held by v, or nil.
func (v *Value) IntPtr() *int64 {
	if v.kind != KindInt {
		return nil
	}
	return &v.i
}

// FloatPtr returns a pointer to the float held by v, or nil.
func (v *Value) FloatPtr() *float64 {
	if v.kind != KindFloat {
		return nil
	}
	return &v.f
}

// StringPtr returns a pointer to the string held by v, or nil.
func (v *Value) StringPtr() *string {
	if v.kind != KindString {
		return nil
	}
	return &v.s
}

// Array returns the items of an array Value, or nil.
func (v *Value) Array() *Array[Value] {
	if v.kind != KindArray {
		return nil
	}
	return &v.arr
}

// Object returns the entries of an object Value, or nil.
func (v *Value) Object() *Object[Value] {
	if v.kind != KindObject {
		return nil
	}
	return v.obj
}

// Container returns v as a Container when it is an array or object.
func (v *Value) Container() Container {
	switch v.kind {
	case KindArray:
		return &v.arr
	case KindObject:
		return v.obj
	}
	return nil
}

// Text renders scalar values as text. Containers render as their JSON form.
func (v *Value) Text() string {
	switch v.kind {
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindString:
		return v.s
	}
	data, err := MarshalValue(*v)
	if err != nil {
		return ""
	}
	return string(data)
}

// Equal reports whether v and other hold equal values, including the meta of
// nested annotated values.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindBool:
		return v.b == other.b
	case KindInt:
		return v.i == other.i
	case KindFloat:
		return v.f == other.f || (math.IsNaN(v.f) && math.IsNaN(other.f))
	case KindString:
		return v.s == other.s
	case KindArray:
		return v.arr.Equal(other.arr)
	case KindObject:
		return v.obj.Equal(other.obj)
	}
	return true
}

// estimateSize returns an approximation of the serialized size of v. It stops
// counting once limit is exceeded.
func estimateSize(v *Value, limit int) int {
	size := 0
	var walk func(v *Value)
	walk = func(v *Value) {
		if size > limit {
			return
		}
		switch v.kind {
		case KindBool:
			size += 5
		case KindInt, KindFloat:
			size += 8
		case KindString:
			size += len(v.s) + 2
		case KindArray:
			size += 2
			for i := range v.arr {
				if item := v.arr[i].Value(); item != nil {
					walk(item)
				} else {
					size += 4
				}
				size++
			}
		case KindObject:
			size += 2
			for _, key := range v.obj.Keys() {
				size += len(key) + 3
				if item := v.obj.Get(key).Value(); item != nil {
					walk(item)
				} else {
					size += 4
				}
			}
		}
	}
	walk(v)
	return size
}
