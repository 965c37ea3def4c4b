package types

import "reflect"

// Annotated pairs an optional value with its provenance. The zero value is
// absent with empty meta. All accessors tolerate absence.
type Annotated[T any] struct {
	value *T
	meta  Meta
}

// New returns a present annotated value.
func New[T any](v T) Annotated[T] {
	return Annotated[T]{value: &v}
}

// Empty returns an absent annotated value with empty meta.
func Empty[T any]() Annotated[T] {
	return Annotated[T]{}
}

// FromError returns an absent annotated value whose meta explains why.
func FromError[T any](err Error) Annotated[T] {
	a := Annotated[T]{}
	a.meta.AddError(err)
	return a
}

// WithMeta returns an annotated value holding v (nil for absent) and meta.
func WithMeta[T any](v *T, meta Meta) Annotated[T] {
	return Annotated[T]{value: v, meta: meta}
}

// Value borrows the value. It returns nil when absent.
func (a *Annotated[T]) Value() *T {
	return a.value
}

// Get returns a copy of the value and whether it is present.
func (a *Annotated[T]) Get() (T, bool) {
	if a.value == nil {
		var zero T
		return zero, false
	}
	return *a.value, true
}

// IsPresent reports whether a value is held.
func (a *Annotated[T]) IsPresent() bool {
	return a.value != nil
}

// Set replaces the value. Meta is left untouched.
func (a *Annotated[T]) Set(v T) {
	a.value = &v
}

// Clear makes the value absent. Meta is left untouched.
func (a *Annotated[T]) Clear() {
	a.value = nil
}

// Take moves the value out, leaving the annotated value absent. Meta is
// left untouched.
func (a *Annotated[T]) Take() (T, bool) {
	v, ok := a.Get()
	a.value = nil
	return v, ok
}

// Map transforms a present value in place. Meta is preserved.
func (a *Annotated[T]) Map(f func(T) T) {
	if a.value == nil {
		return
	}
	v := f(*a.value)
	a.value = &v
}

// Meta borrows the meta record.
func (a *Annotated[T]) Meta() *Meta {
	return &a.meta
}

// AddError attaches an error to the meta.
func (a *Annotated[T]) AddError(err Error) {
	a.meta.AddError(err)
}

// AddRemark attaches a remark to the meta.
func (a *Annotated[T]) AddRemark(r Remark) {
	a.meta.AddRemark(r)
}

// IsEmpty reports whether the value is absent and the meta is empty.
func (a *Annotated[T]) IsEmpty() bool {
	return a.value == nil && a.meta.IsEmpty()
}

// Reset makes the value absent and clears the meta.
func (a *Annotated[T]) Reset() {
	a.value = nil
	a.meta.Reset()
}

// Equal reports whether a and other hold equal values and equal meta. An
// absent value with meta is distinct from an absent value without meta.
func (a *Annotated[T]) Equal(other *Annotated[T]) bool {
	if !a.meta.Equal(&other.meta) {
		return false
	}
	if a.value == nil || other.value == nil {
		return a.value == nil && other.value == nil
	}
	if eq, ok := any(*a.value).(interface{ Equal(T) bool }); ok {
		return eq.Equal(*other.value)
	}
	return reflect.DeepEqual(*a.value, *other.value)
}
