package processor

import (
	"strconv"
	"strings"
)

// SegmentKind tells how a frame was reached from its parent.
type SegmentKind uint8

const (
	// SegmentNone marks the root frame.
	SegmentNone SegmentKind = iota
	// SegmentKey marks a struct field or object key.
	SegmentKey
	// SegmentIndex marks an array index.
	SegmentIndex
	// SegmentPair marks a pair list entry, addressable by key and index.
	SegmentPair
)

// Segment is the path element that led to a frame.
type Segment struct {
	Kind  SegmentKind
	Key   string
	Index int
}

// String renders the segment as it appears in a dotted path.
func (s Segment) String() string {
	switch s.Kind {
	case SegmentKey, SegmentPair:
		return s.Key
	case SegmentIndex:
		return strconv.Itoa(s.Index)
	}
	return ""
}

// Frame is one level of the traversal stack. Frames are plain values and
// are never modified once pushed.
type Frame struct {
	Segment Segment
	Attrs   *FieldAttrs
	Types   ValueType
}

// Path is the frame stack shared by all states of one traversal.
type Path struct {
	frames []Frame
}

// ProcessingState addresses one frame of a Path. Entering a child pushes a
// frame above the state's depth, replacing any sibling frame left there.
type ProcessingState struct {
	path  *Path
	depth int
}

// NewRootState starts a traversal whose root node has the given attributes
// and types.
func NewRootState(attrs *FieldAttrs, types ValueType) ProcessingState {
	p := &Path{frames: make([]Frame, 1, 16)}
	p.frames[0] = Frame{Attrs: attrs, Types: types}
	return ProcessingState{path: p}
}

func (s *ProcessingState) enter(seg Segment, attrs *FieldAttrs, types ValueType) ProcessingState {
	s.path.frames = append(s.path.frames[:s.depth+1], Frame{Segment: seg, Attrs: attrs, Types: types})
	return ProcessingState{path: s.path, depth: s.depth + 1}
}

// EnterKey returns the state of a keyed child.
func (s *ProcessingState) EnterKey(key string, attrs *FieldAttrs, types ValueType) ProcessingState {
	return s.enter(Segment{Kind: SegmentKey, Key: key}, attrs, types)
}

// EnterIndex returns the state of an array item.
func (s *ProcessingState) EnterIndex(index int, attrs *FieldAttrs, types ValueType) ProcessingState {
	return s.enter(Segment{Kind: SegmentIndex, Index: index}, attrs, types)
}

// EnterPair returns the state of a pair list value.
func (s *ProcessingState) EnterPair(key string, index int, attrs *FieldAttrs, types ValueType) ProcessingState {
	return s.enter(Segment{Kind: SegmentPair, Key: key, Index: index}, attrs, types)
}

// Depth is the number of segments between the root and this state.
func (s *ProcessingState) Depth() int {
	return s.depth
}

// Frame returns the frame of this state.
func (s *ProcessingState) Frame() *Frame {
	return &s.path.frames[s.depth]
}

// Frames returns the frames from the root up to this state. The slice is a
// view and must not be retained past the current hook.
func (s *ProcessingState) Frames() []Frame {
	return s.path.frames[:s.depth+1]
}

// Attrs returns the attributes of this node.
func (s *ProcessingState) Attrs() *FieldAttrs {
	if attrs := s.Frame().Attrs; attrs != nil {
		return attrs
	}
	return &DefaultAttrs
}

// Types returns the type tags of this node.
func (s *ProcessingState) Types() ValueType {
	return s.Frame().Types
}

// Key returns the key segment of this node, if any.
func (s *ProcessingState) Key() (string, bool) {
	seg := s.Frame().Segment
	if seg.Kind == SegmentKey || seg.Kind == SegmentPair {
		return seg.Key, true
	}
	return "", false
}

// Index returns the index segment of this node, if any.
func (s *ProcessingState) Index() (int, bool) {
	seg := s.Frame().Segment
	if seg.Kind == SegmentIndex || seg.Kind == SegmentPair {
		return seg.Index, true
	}
	return 0, false
}

// Path renders the dotted path of this node, for example "user.email".
func (s *ProcessingState) Path() string {
	var b strings.Builder
	for i, f := range s.Frames() {
		if i == 0 {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(f.Segment.String())
	}
	return b.String()
}
