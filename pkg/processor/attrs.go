package processor

import (
	"strings"
	"unicode"
)

// ValueType is a set of type tags describing a node. Selectors match nodes
// by these tags with the $name syntax.
type ValueType uint32

const (
	TypeString ValueType = 1 << iota
	TypeNumber
	TypeBoolean
	TypeArray
	TypeObject
	TypeEvent
	TypeUser
	TypeRequest
	TypeBreadcrumb
	TypePairList
)

var valueTypeNames = []struct {
	t    ValueType
	name string
}{
	{TypeString, "string"},
	{TypeNumber, "number"},
	{TypeBoolean, "boolean"},
	{TypeArray, "array"},
	{TypeObject, "object"},
	{TypeEvent, "event"},
	{TypeUser, "user"},
	{TypeRequest, "request"},
	{TypeBreadcrumb, "breadcrumb"},
	{TypePairList, "pairlist"},
}

// ParseValueType resolves a type tag name such as "string" or "user".
func ParseValueType(name string) (ValueType, bool) {
	name = strings.ToLower(name)
	for _, n := range valueTypeNames {
		if n.name == name {
			return n.t, true
		}
	}
	return 0, false
}

// Has reports whether every tag in other is set.
func (t ValueType) Has(other ValueType) bool {
	return other != 0 && t&other == other
}

// String returns the tag names joined by "|".
func (t ValueType) String() string {
	var names []string
	for _, n := range valueTypeNames {
		if t&n.t != 0 {
			names = append(names, n.name)
		}
	}
	return strings.Join(names, "|")
}

// CharacterSet restricts the characters a string field may contain.
type CharacterSet struct {
	// Name identifies the set in error reasons.
	Name string

	deny func(r rune) bool
}

// NewCharacterSet creates a set that rejects runes for which deny is true.
func NewCharacterSet(name string, deny func(r rune) bool) *CharacterSet {
	return &CharacterSet{Name: name, deny: deny}
}

// Allows reports whether every rune of s is permitted. On failure it returns
// the first offending rune.
func (c *CharacterSet) Allows(s string) (rune, bool) {
	for _, r := range s {
		if c.deny(r) {
			return r, false
		}
	}
	return 0, true
}

var (
	// ReleaseChars forbids control characters and path separators.
	ReleaseChars = NewCharacterSet("release", func(r rune) bool {
		return unicode.IsControl(r) || r == '/' || r == '\\'
	})

	// IdentifierChars forbids whitespace and control characters.
	IdentifierChars = NewCharacterSet("identifier", func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsControl(r)
	})
)

// FieldAttrs are the static attributes of a field. Typed structures declare
// one FieldAttrs per field; untyped children inherit from their container
// through Inner.
type FieldAttrs struct {
	// Name is the declared field name.
	Name string

	// Required marks fields that must be present.
	Required bool

	// NonEmpty rejects empty strings and empty containers.
	NonEmpty bool

	// TrimWhitespace strips leading and trailing whitespace.
	TrimWhitespace bool

	// Pii marks the field as carrying personal data. Fields without it are
	// only scrubbed by selectors that name them literally.
	Pii bool

	// MaxChars limits string length in characters. Zero means no limit.
	MaxChars int

	// MaxItems limits container size. Zero means no limit.
	MaxItems int

	// Characters restricts permitted characters. Nil allows all.
	Characters *CharacterSet

	// DenyUnknown rejects keys the structure does not declare.
	DenyUnknown bool

	// Undeclared is set on values found under keys their parent does not
	// declare and does not accept.
	Undeclared bool
}

var (
	// DefaultAttrs apply to nodes without declared attributes.
	DefaultAttrs = FieldAttrs{}

	// PiiAttrs apply to untyped children of personal-data fields.
	PiiAttrs = FieldAttrs{Pii: true}

	// UndeclaredAttrs apply to keys a structure does not accept.
	UndeclaredAttrs = FieldAttrs{Undeclared: true}
)

// Inner returns the attributes inherited by untyped children.
func (a *FieldAttrs) Inner() *FieldAttrs {
	if a != nil && a.Pii {
		return &PiiAttrs
	}
	return &DefaultAttrs
}
