package selector

import (
	"errors"
	"testing"

	"mercator-hq/relayscrub/pkg/processor"
)

func TestParse_Canonical(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"user.email", "user.email"},
		{"user email", "user.email"},
		{"  user.email  ", "user.email"},
		{"a && (b || c)", "a && (b || c)"},
		{"(a && b) || c", "a && b || c"},
		{"!(a || b)", "!(a || b)"},
		{"!!a", "!!a"},
		{"a,b", "a || b"},
		{"**.**.x", "**.x"},
		{"extra.'my.key'", "extra.'my.key'"},
		{"extra.'plain'", "extra.plain"},
		{"'it''s'", "'it''s'"},
		{"'12'", "'12'"},
		{"values.12", "values.12"},
		{"$STRING", "$string"},
		{"$user.*", "$user.*"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			spec, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("Parse(%q) error = %v", tt.input, err)
			}
			if got := spec.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
			again, err := Parse(spec.String())
			if err != nil {
				t.Fatalf("Parse(%q) error = %v", spec.String(), err)
			}
			if again.String() != spec.String() {
				t.Errorf("canonical form not stable: %q then %q", spec.String(), again.String())
			}
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		input string
		pos   int
	}{
		{"", 0},
		{"   ", 3},
		{"user.", 5},
		{"$nope", 0},
		{"$", 1},
		{"(a", 2},
		{"a &&", 4},
		{"'abc", 0},
		{"a b c)", 5},
		{"a.#", 2},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := Parse(tt.input)
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("Parse(%q) error = %v, want *ParseError", tt.input, err)
			}
			if pe.Pos != tt.pos {
				t.Errorf("Pos = %d, want %d (%v)", pe.Pos, tt.pos, err)
			}
			if pe.Selector != tt.input {
				t.Errorf("Selector = %q, want %q", pe.Selector, tt.input)
			}
		})
	}
}

func TestIsSpecific(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"user.email", true},
		{"$user.email", true},
		{"values.0", true},
		{"**.email", false},
		{"user.*", false},
		{"$string", false},
		{"user.$string", false},
		{"a && $string", true},
		{"a || b", true},
		{"a || **", false},
		{"!a", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := MustParse(tt.input).IsSpecific(); got != tt.want {
				t.Errorf("IsSpecific() = %v, want %v", got, tt.want)
			}
		})
	}
}

type step struct {
	key   string
	index int
	pair  bool
	types processor.ValueType
}

// stateAt builds the state reached by entering each step from an event
// root.
func stateAt(steps ...step) processor.ProcessingState {
	state := processor.NewRootState(nil, processor.TypeEvent|processor.TypeObject)
	for _, s := range steps {
		switch {
		case s.pair:
			state = state.EnterPair(s.key, s.index, nil, s.types)
		case s.key != "":
			state = state.EnterKey(s.key, nil, s.types)
		default:
			state = state.EnterIndex(s.index, nil, s.types)
		}
	}
	return state
}

func TestMatches(t *testing.T) {
	email := stateAt(
		step{key: "user", types: processor.TypeUser | processor.TypeObject},
		step{key: "email", types: processor.TypeString},
	)
	frame := stateAt(
		step{key: "exception", types: processor.TypeObject},
		step{key: "values", types: processor.TypeArray},
		step{index: 0, types: processor.TypeObject},
		step{key: "value", types: processor.TypeString},
	)
	header := stateAt(
		step{key: "request", types: processor.TypeRequest | processor.TypeObject},
		step{key: "headers", types: processor.TypePairList | processor.TypeArray},
		step{key: "Authorization", index: 2, pair: true, types: processor.TypeString},
	)
	root := stateAt()

	tests := []struct {
		name     string
		selector string
		state    processor.ProcessingState
		want     bool
	}{
		{"exact", "user.email", email, true},
		{"case insensitive", "USER.Email", email, true},
		{"anchored at root", "email", email, false},
		{"anchored at leaf", "user", email, false},
		{"deep prefix", "**.email", email, true},
		{"deep suffix", "user.email.**", email, true},
		{"deep middle", "user.**.email", email, true},
		{"deep alone", "**", email, true},
		{"leading type", "$user.email", email, true},
		{"leaf type", "$string", email, true},
		{"wrong leaf type", "$user", email, false},
		{"type reaches root", "$event.**", email, true},
		{"wildcard", "user.*", email, true},
		{"single wildcard too short", "*", email, false},
		{"two wildcards", "*.*", email, true},
		{"and not", "user.email && !$number", email, true},
		{"not", "!user.email", email, false},
		{"or", "user.name || user.email", email, true},
		{"comma", "user.name, user.email", email, true},
		{"index", "exception.values.0.value", frame, true},
		{"other index", "exception.values.1.value", frame, false},
		{"wildcard index", "exception.values.*.value", frame, true},
		{"pair by key", "request.headers.authorization", header, true},
		{"pair by index", "request.headers.2", header, true},
		{"pair type", "$request.**", header, true},
		{"root by deep wildcard", "**", root, false},
		{"root by type", "$event", root, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := MustParse(tt.selector)
			if got := spec.Matches(&tt.state); got != tt.want {
				t.Errorf("%q.Matches(%s) = %v, want %v", tt.selector, tt.state.Path(), got, tt.want)
			}
		})
	}
}

func TestMatches_DeepStack(t *testing.T) {
	steps := make([]step, 0, 200)
	for i := 0; i < 199; i++ {
		steps = append(steps, step{key: "a", types: processor.TypeObject})
	}
	steps = append(steps, step{key: "secret", types: processor.TypeString})
	state := stateAt(steps...)

	if !MustParse("**.a.**.a.**.secret").Matches(&state) {
		t.Error("deep selector did not match")
	}
	if MustParse("**.a.**.b.**.secret").Matches(&state) {
		t.Error("deep selector matched a missing key")
	}
}
