package selector

import (
	"strconv"
	"strings"

	"mercator-hq/relayscrub/pkg/processor"
)

// ItemKind identifies the kind of a path item.
type ItemKind uint8

const (
	// ItemKey matches a key segment by name.
	ItemKey ItemKind = iota
	// ItemIndex matches an array index or a key with the same text.
	ItemIndex
	// ItemType matches any segment whose node carries a type tag.
	ItemType
	// ItemWildcard matches exactly one segment.
	ItemWildcard
	// ItemDeepWildcard matches zero or more segments.
	ItemDeepWildcard
)

// Item is one element of a Path.
type Item struct {
	Kind ItemKind

	// Key is the key name for ItemKey and the index text for ItemIndex.
	Key string

	// Index is set for ItemIndex.
	Index int

	// Type is set for ItemType.
	Type processor.ValueType
}

func (it Item) String() string {
	switch it.Kind {
	case ItemKey:
		if isBareKey(it.Key) {
			return it.Key
		}
		return "'" + strings.ReplaceAll(it.Key, "'", "''") + "'"
	case ItemIndex:
		return strconv.Itoa(it.Index)
	case ItemType:
		return "$" + it.Type.String()
	case ItemWildcard:
		return "*"
	case ItemDeepWildcard:
		return "**"
	}
	return ""
}

// Spec is a compiled selector.
type Spec interface {
	// Matches reports whether the node addressed by state is selected.
	Matches(state *processor.ProcessingState) bool

	// IsSpecific reports whether the selector names fields literally.
	// Only specific selectors apply to fields not marked as personal data.
	IsSpecific() bool

	// String renders the selector in canonical form. Parsing the result
	// yields an equivalent Spec.
	String() string
}

// Path is a sequence of items matched against the path of a node.
type Path []Item

// And matches when every operand matches.
type And []Spec

// Or matches when any operand matches.
type Or []Spec

// Not inverts its operand.
type Not struct {
	Inner Spec
}

// floating reports whether the first item may match any ancestor instead
// of the first segment below the root.
func (p Path) floating() bool {
	return len(p) > 0 && p[0].Kind == ItemType
}

// IsSpecific implements Spec. A path is specific when it holds at least one
// key or index, no wildcards, and no type tags except a leading one.
func (p Path) IsSpecific() bool {
	literal := false
	for i, it := range p {
		switch it.Kind {
		case ItemKey, ItemIndex:
			literal = true
		case ItemType:
			if i > 0 {
				return false
			}
		default:
			return false
		}
	}
	return literal
}

func (p Path) String() string {
	parts := make([]string, len(p))
	for i, it := range p {
		parts[i] = it.String()
	}
	return strings.Join(parts, ".")
}

// IsSpecific implements Spec. A conjunction is specific when any operand
// is.
func (a And) IsSpecific() bool {
	for _, s := range a {
		if s.IsSpecific() {
			return true
		}
	}
	return false
}

func (a And) String() string {
	parts := make([]string, len(a))
	for i, s := range a {
		if _, ok := s.(Or); ok {
			parts[i] = "(" + s.String() + ")"
		} else {
			parts[i] = s.String()
		}
	}
	return strings.Join(parts, " && ")
}

// IsSpecific implements Spec. A disjunction is specific when all operands
// are.
func (o Or) IsSpecific() bool {
	for _, s := range o {
		if !s.IsSpecific() {
			return false
		}
	}
	return len(o) > 0
}

func (o Or) String() string {
	parts := make([]string, len(o))
	for i, s := range o {
		parts[i] = s.String()
	}
	return strings.Join(parts, " || ")
}

// IsSpecific implements Spec. Negations never are.
func (n Not) IsSpecific() bool { return false }

func (n Not) String() string {
	switch n.Inner.(type) {
	case And, Or:
		return "!(" + n.Inner.String() + ")"
	}
	return "!" + n.Inner.String()
}

func isKeyChar(c byte) bool {
	return c == '_' || c == '-' ||
		('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9')
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}

func isBareKey(s string) bool {
	if s == "" || isDigits(s) {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isKeyChar(s[i]) {
			return false
		}
	}
	return true
}
