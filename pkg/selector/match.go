package selector

import (
	"strings"

	"mercator-hq/relayscrub/pkg/processor"
)

// Matches implements Spec.
func (a And) Matches(state *processor.ProcessingState) bool {
	for _, s := range a {
		if !s.Matches(state) {
			return false
		}
	}
	return true
}

// Matches implements Spec.
func (o Or) Matches(state *processor.ProcessingState) bool {
	for _, s := range o {
		if s.Matches(state) {
			return true
		}
	}
	return false
}

// Matches implements Spec.
func (n Not) Matches(state *processor.ProcessingState) bool {
	return !n.Inner.Matches(state)
}

// Matches implements Spec. The last item is matched against the node
// itself and earlier items against its ancestors, backtracking over the
// alignments a "**" allows.
func (p Path) Matches(state *processor.ProcessingState) bool {
	if len(p) == 0 {
		return false
	}
	m := matcher{path: p, frames: state.Frames(), lo: 1}
	if p.floating() {
		m.lo = 0
	} else if state.Depth() == 0 {
		// The root is only addressable by type.
		return false
	}
	if p.deepWildcards() > 1 {
		m.failed = make([]bool, (len(p)+1)*(len(m.frames)+1))
	}
	return m.match(len(p), len(m.frames))
}

func (p Path) deepWildcards() int {
	n := 0
	for _, it := range p {
		if it.Kind == ItemDeepWildcard {
			n++
		}
	}
	return n
}

type matcher struct {
	path   Path
	frames []processor.Frame
	// lo is the first frame an anchored path may consume.
	lo int
	// failed memoizes failed (i, j) pairs when several deep wildcards
	// could otherwise revisit them.
	failed []bool
}

// match reports whether path[:i] matches frames[lo:j]. A floating first
// item may match any frame and ignores those before it.
func (m *matcher) match(i, j int) bool {
	if m.failed == nil {
		return m.step(i, j)
	}
	idx := i*(len(m.frames)+1) + j
	if m.failed[idx] {
		return false
	}
	if m.step(i, j) {
		return true
	}
	m.failed[idx] = true
	return false
}

func (m *matcher) step(i, j int) bool {
	if i == 0 {
		return j == m.lo
	}
	item := m.path[i-1]
	if item.Kind == ItemDeepWildcard {
		if m.match(i-1, j) {
			return true
		}
		return j > m.lo && m.match(i, j-1)
	}
	if j <= m.lo {
		if !(i == 1 && m.path.floating() && j > 0) {
			return false
		}
	}
	if !matchItem(item, &m.frames[j-1]) {
		return false
	}
	if i == 1 && m.path.floating() {
		return true
	}
	return m.match(i-1, j-1)
}

func matchItem(item Item, f *processor.Frame) bool {
	seg := f.Segment
	switch item.Kind {
	case ItemKey:
		return (seg.Kind == processor.SegmentKey || seg.Kind == processor.SegmentPair) &&
			strings.EqualFold(seg.Key, item.Key)
	case ItemIndex:
		switch seg.Kind {
		case processor.SegmentIndex:
			return seg.Index == item.Index
		case processor.SegmentKey:
			return seg.Key == item.Key
		case processor.SegmentPair:
			return seg.Index == item.Index || seg.Key == item.Key
		}
		return false
	case ItemType:
		return f.Types.Has(item.Type)
	case ItemWildcard:
		return seg.Kind != processor.SegmentNone
	case ItemDeepWildcard:
		return true
	}
	return false
}
