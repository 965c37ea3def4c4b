package types

// Container is implemented by collections whose size can be limited.
type Container interface {
	// Len returns the number of elements.
	Len() int

	// Truncate keeps the first n elements.
	Truncate(n int)
}

// Array is an ordered sequence of annotated values.
type Array[T any] []Annotated[T]

// Len returns the number of items.
func (a *Array[T]) Len() int { return len(*a) }

// Truncate keeps the first n items.
func (a *Array[T]) Truncate(n int) {
	if n < 0 {
		n = 0
	}
	if n < len(*a) {
		clear((*a)[n:])
		*a = (*a)[:n]
	}
}

// Append adds an item holding v.
func (a *Array[T]) Append(v T) {
	*a = append(*a, New(v))
}

// Equal reports whether both arrays hold equal items.
func (a Array[T]) Equal(other Array[T]) bool {
	if len(a) != len(other) {
		return false
	}
	for i := range a {
		if !a[i].Equal(&other[i]) {
			return false
		}
	}
	return true
}

// Object is a string-keyed mapping that preserves insertion order.
type Object[T any] struct {
	keys    []string
	entries map[string]*Annotated[T]
}

// NewObject creates an empty Object.
func NewObject[T any]() *Object[T] {
	return &Object[T]{entries: make(map[string]*Annotated[T])}
}

// Len returns the number of entries.
func (o *Object[T]) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

// Keys returns the keys in insertion order. The returned slice is a copy.
func (o *Object[T]) Keys() []string {
	if o == nil {
		return nil
	}
	return append([]string(nil), o.keys...)
}

// Get borrows the entry for key, or returns nil.
func (o *Object[T]) Get(key string) *Annotated[T] {
	if o == nil {
		return nil
	}
	return o.entries[key]
}

// Insert sets the entry for key. An existing key keeps its position.
func (o *Object[T]) Insert(key string, a Annotated[T]) {
	if o.entries == nil {
		o.entries = make(map[string]*Annotated[T])
	}
	if existing, ok := o.entries[key]; ok {
		*existing = a
		return
	}
	o.keys = append(o.keys, key)
	o.entries[key] = &a
}

// Set inserts a present value for key.
func (o *Object[T]) Set(key string, v T) {
	o.Insert(key, New(v))
}

// Remove deletes the entry for key and reports whether it existed.
func (o *Object[T]) Remove(key string) bool {
	if _, ok := o.entries[key]; !ok {
		return false
	}
	delete(o.entries, key)
	for i, k := range o.keys {
		if k == key {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)
			break
		}
	}
	return true
}

// Truncate keeps the first n entries in insertion order.
func (o *Object[T]) Truncate(n int) {
	if n < 0 {
		n = 0
	}
	if n >= len(o.keys) {
		return
	}
	for _, key := range o.keys[n:] {
		delete(o.entries, key)
	}
	o.keys = o.keys[:n]
}

// Equal reports whether both objects hold equal entries in the same order.
func (o *Object[T]) Equal(other *Object[T]) bool {
	if o.Len() != other.Len() {
		return false
	}
	if o.Len() == 0 {
		return true
	}
	for i, key := range o.keys {
		if other.keys[i] != key {
			return false
		}
		if !o.entries[key].Equal(other.entries[key]) {
			return false
		}
	}
	return true
}

// Pair is a key/value entry of a PairList.
type Pair struct {
	Key   string
	Value Annotated[Value]
}

// PairList is an ordered list of key/value pairs where keys may repeat.
// Headers, cookies and query strings are modeled as pair lists.
type PairList []Pair

// Len returns the number of pairs.
func (p *PairList) Len() int { return len(*p) }

// Truncate keeps the first n pairs.
func (p *PairList) Truncate(n int) {
	if n < 0 {
		n = 0
	}
	if n < len(*p) {
		clear((*p)[n:])
		*p = (*p)[:n]
	}
}

// Add appends a pair with a string value.
func (p *PairList) Add(key, value string) {
	*p = append(*p, Pair{Key: key, Value: New(String(value))})
}

// Get borrows the value of the first pair with the given key.
func (p *PairList) Get(key string) *Annotated[Value] {
	for i := range *p {
		if (*p)[i].Key == key {
			return &(*p)[i].Value
		}
	}
	return nil
}

// Equal reports whether both lists hold equal pairs in the same order.
func (p PairList) Equal(other PairList) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i].Key != other[i].Key || !p[i].Value.Equal(&other[i].Value) {
			return false
		}
	}
	return true
}
