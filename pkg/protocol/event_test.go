package protocol

import (
	"testing"

	"mercator-hq/relayscrub/pkg/processor"
	"mercator-hq/relayscrub/pkg/types"
)

func roundTrip(t *testing.T, input string) string {
	t.Helper()
	a, err := types.ParseJSON([]byte(input))
	if err != nil {
		t.Fatalf("ParseJSON() error = %v", err)
	}
	event := EventFromValue(a)
	out := EventToValue(event)
	data, err := types.MarshalJSON(&out)
	if err != nil {
		t.Fatalf("MarshalJSON() error = %v", err)
	}
	return string(data)
}

func TestEventRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "declared fields come first",
			input: `{"zzz":1,"message":"hi","event_id":"abc"}`,
			want:  `{"event_id":"abc","message":"hi","zzz":1}`,
		},
		{
			name:  "user keeps unknown keys",
			input: `{"user":{"custom":"x","email":"a@b.com"}}`,
			want:  `{"user":{"email":"a@b.com","custom":"x"}}`,
		},
		{
			name:  "query string is split into pairs",
			input: `{"request":{"query_string":"?a=1&b=x%20y"}}`,
			want:  `{"request":{"query_string":[["a","1"],["b","x y"]]}}`,
		},
		{
			name:  "cookies are split into pairs",
			input: `{"request":{"cookies":"sid=1; theme=dark"}}`,
			want:  `{"request":{"cookies":[["sid","1"],["theme","dark"]]}}`,
		},
		{
			name:  "tags object becomes pairs",
			input: `{"tags":{"a":"1","b":"2"}}`,
			want:  `{"tags":[["a","1"],["b","2"]]}`,
		},
		{
			name:  "bare breadcrumb list",
			input: `{"breadcrumbs":[{"message":"m","level":"info"}]}`,
			want:  `{"breadcrumbs":{"values":[{"level":"info","message":"m"}]}}`,
		},
		{
			name:  "wrong shape keeps original",
			input: `{"message":42}`,
			want:  `{"message":null,"_meta":{"message":{"":{"err":[["invalid_data",{"reason":"expected a string","val":42}]]}}}}`,
		},
		{
			name:  "invalid pair list",
			input: `{"tags":[["a"]]}`,
			want:  `{"tags":null,"_meta":{"tags":{"":{"err":[["invalid_data",{"reason":"expected a list of pairs","val":[["a"]]}]]}}}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := roundTrip(t, tt.input); got != tt.want {
				t.Errorf("round trip = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestEventFromValue_Timestamps(t *testing.T) {
	a, err := types.ParseJSON([]byte(`{"type":"transaction","timestamp":"2024-01-01T00:00:10Z","start_timestamp":1704067200}`))
	if err != nil {
		t.Fatalf("ParseJSON() error = %v", err)
	}
	event := EventFromValue(a)
	e := event.Value()
	if e == nil {
		t.Fatal("EventFromValue() returned an absent event")
	}
	if !e.IsTransaction() {
		t.Error("IsTransaction() = false, want true")
	}
	if ts, _ := e.Timestamp.Get(); ts != 1704067210 {
		t.Errorf("Timestamp = %v, want 1704067210", ts)
	}
	if ts, _ := e.StartTimestamp.Get(); ts != 1704067200 {
		t.Errorf("StartTimestamp = %v, want 1704067200", ts)
	}
}

func TestEventFromValue_NotAnObject(t *testing.T) {
	a, err := types.ParseJSON([]byte(`"nope"`))
	if err != nil {
		t.Fatalf("ParseJSON() error = %v", err)
	}
	event := EventFromValue(a)
	if event.IsPresent() {
		t.Fatal("EventFromValue() present, want absent")
	}
	if !event.Meta().HasErrors() {
		t.Error("absent event has no error")
	}
}

// paths records the dotted path and type tags of every string visited.
type paths struct {
	processor.BaseProcessor
	seen  []string
	types map[string]processor.ValueType
	attrs map[string]*processor.FieldAttrs
}

func (p *paths) BeforeProcess(_ any, _ *types.Meta, state *processor.ProcessingState) error {
	if p.types == nil {
		p.types = map[string]processor.ValueType{}
		p.attrs = map[string]*processor.FieldAttrs{}
	}
	p.types[state.Path()] = state.Types()
	p.attrs[state.Path()] = state.Attrs()
	return nil
}

func (p *paths) ProcessString(_ *string, _ *types.Meta, state *processor.ProcessingState) error {
	p.seen = append(p.seen, state.Path())
	return nil
}

func TestEventTraversal(t *testing.T) {
	a, err := types.ParseJSON([]byte(`{
		"message": "m",
		"user": {"email": "e", "data": {"k": "v"}},
		"request": {"headers": [["Auth", "x"]], "extra_key": "u"},
		"breadcrumbs": {"values": [{"message": "b"}]},
		"other": "o"
	}`))
	if err != nil {
		t.Fatalf("ParseJSON() error = %v", err)
	}
	event := EventFromValue(a)
	p := &paths{}
	state := processor.NewRootState(&EventAttrs, processor.ValueTypeOf(&event))
	if err := processor.ProcessValue(&event, p, &state); err != nil {
		t.Fatalf("ProcessValue() error = %v", err)
	}

	// Request extension keys follow its declared fields.
	want := []string{
		"message",
		"user.email",
		"user.data.k",
		"request.headers.Auth",
		"request.extra_key",
		"breadcrumbs.values.0.message",
		"other",
	}
	if len(p.seen) != len(want) {
		t.Fatalf("visited %v, want %v", p.seen, want)
	}
	for i := range want {
		if p.seen[i] != want[i] {
			t.Errorf("visit %d = %s, want %s", i, p.seen[i], want[i])
		}
	}

	if got := p.types["user"]; !got.Has(processor.TypeUser) {
		t.Errorf("user types = %s, want user", got)
	}
	if got := p.types["breadcrumbs.values.0"]; !got.Has(processor.TypeBreadcrumb) {
		t.Errorf("breadcrumb types = %s, want breadcrumb", got)
	}
	if got := p.attrs["user.data.k"]; !got.Pii {
		t.Error("user.data.k is not pii")
	}
	if got := p.attrs["request.extra_key"]; !got.Undeclared {
		t.Error("request.extra_key is not undeclared")
	}
	if got := p.attrs["other"]; got.Pii || got.Undeclared {
		t.Errorf("other attrs = %+v, want defaults", got)
	}
}
