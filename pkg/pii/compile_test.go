package pii

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func mustCompile(t *testing.T, doc string) *CompiledConfig {
	t.Helper()
	cfg, err := ParseConfig([]byte(doc))
	if err != nil {
		t.Fatalf("ParseConfig() error = %v", err)
	}
	compiled, err := Compile(cfg)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	return compiled
}

func compileErr(t *testing.T, doc string) error {
	t.Helper()
	cfg, err := ParseConfig([]byte(doc))
	if err != nil {
		t.Fatalf("ParseConfig() error = %v", err)
	}
	_, err = Compile(cfg)
	if err == nil {
		t.Fatal("Compile() error = nil, want an error")
	}
	return err
}

func TestCompile_CycleRejected(t *testing.T) {
	err := compileErr(t, `
rules:
  a: {type: alias, rule: b}
  b: {type: alias, rule: a}
applications:
  message: [a]
`)
	if !errors.Is(err, ErrCyclicReference) {
		t.Fatalf("Compile() error = %v, want ErrCyclicReference", err)
	}
	var errs ConfigErrors
	if !errors.As(err, &errs) {
		t.Fatalf("Compile() error type = %T, want ConfigErrors", err)
	}
	if len(errs) != 1 {
		t.Errorf("got %d errors, want one per cycle: %v", len(errs), err)
	}
	if !strings.Contains(err.Error(), "a -> b -> a") {
		t.Errorf("error %q does not show the cycle", err)
	}
}

func TestCompile_NestedMultiplesShareMembers(t *testing.T) {
	var doc strings.Builder
	doc.WriteString("rules:\n  m0: {type: multiple, rules: [\"@email\", \"@ip\"]}\n")
	const levels = 40
	for i := 1; i <= levels; i++ {
		fmt.Fprintf(&doc, "  m%d: {type: multiple, rules: [m%d, m%d]}\n", i, i-1, i-1)
	}
	fmt.Fprintf(&doc, "applications:\n  message: [m%d, m0]\n", levels)

	compiled := mustCompile(t, doc.String())
	if got := len(compiled.applications[0].rules); got != 2 {
		t.Errorf("resolved chain has %d rules, want 2", got)
	}
}

func TestCompile_SelfReference(t *testing.T) {
	err := compileErr(t, `
rules:
  loop: {type: multiple, rules: ["@email", loop]}
`)
	if !errors.Is(err, ErrCyclicReference) {
		t.Errorf("Compile() error = %v, want ErrCyclicReference", err)
	}
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want error
	}{
		{
			name: "unknown rule type",
			doc:  "rules:\n  r: {type: phone}\n",
			want: ErrUnknownRuleType,
		},
		{
			name: "invalid pattern",
			doc:  "rules:\n  r: {type: pattern, pattern: '(['}\n",
			want: ErrInvalidPattern,
		},
		{
			name: "missing replace group",
			doc:  "rules:\n  r: {type: pattern, pattern: 'a(b)', replace_groups: [2]}\n",
			want: ErrInvalidPattern,
		},
		{
			name: "missing key pattern",
			doc:  "rules:\n  r: {type: redact_pair}\n",
			want: ErrInvalidPattern,
		},
		{
			name: "unknown alias target",
			doc:  "rules:\n  r: {type: alias, rule: nope}\n",
			want: ErrUnknownRule,
		},
		{
			name: "unknown applied rule",
			doc:  "applications:\n  message: [nope]\n",
			want: ErrUnknownRule,
		},
		{
			name: "invalid selector",
			doc:  "applications:\n  'user.': ['@email']\n",
			want: ErrInvalidSelector,
		},
		{
			name: "unknown redaction method",
			doc:  "rules:\n  r: {type: email, redaction: {method: explode}}\n",
			want: ErrInvalidRedaction,
		},
		{
			name: "unknown hash algorithm",
			doc:  "rules:\n  r: {type: email, redaction: {method: hash, algorithm: md5}}\n",
			want: ErrInvalidRedaction,
		},
		{
			name: "long mask char",
			doc:  "rules:\n  r: {type: email, redaction: {method: mask, mask_char: '##'}}\n",
			want: ErrInvalidRedaction,
		},
		{
			name: "reserved id",
			doc:  "rules:\n  '@mine': {type: email}\n",
			want: ErrReservedRuleID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := compileErr(t, tt.doc)
			if !errors.Is(err, tt.want) {
				t.Errorf("Compile() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestCompile_AccumulatesErrors(t *testing.T) {
	err := compileErr(t, `
rules:
  a: {type: phone}
  b: {type: pattern, pattern: '(['}
`)
	var errs ConfigErrors
	if !errors.As(err, &errs) {
		t.Fatalf("Compile() error type = %T, want ConfigErrors", err)
	}
	if len(errs) != 2 {
		t.Fatalf("got %d errors, want 2: %v", len(errs), err)
	}
	if errs[0].RuleID != "a" || errs[1].RuleID != "b" {
		t.Errorf("errors reported for %q and %q, want a and b", errs[0].RuleID, errs[1].RuleID)
	}
}

func TestCompile_ApplicationOrder(t *testing.T) {
	compiled := mustCompile(t, `
rules:
  secrets:
    type: multiple
    rules: ["@password", "@bearer"]
    hide_inner: true
  shown:
    type: multiple
    rules: ["@email", "@ip"]
applications:
  "user.email": [shown]
  "$string": [secrets, "@uuid"]
  "extra || tags": ["@common"]
`)

	apps := compiled.Applications()
	if len(apps) != 3 {
		t.Fatalf("got %d applications, want 3", len(apps))
	}
	want := []AppliedRules{
		{Selector: "user.email", Rules: []string{"@email", "@ip"}},
		{Selector: "$string", Rules: []string{"secrets", "secrets", "@uuid"}},
		{Selector: "extra || tags", Rules: []string{
			"@pemkey", "@urlauth", "@bearer", "@email", "@ip", "@creditcard",
			"@usssn", "@userpath", "@password",
		}},
	}
	for i := range want {
		if apps[i].Selector != want[i].Selector {
			t.Errorf("application %d selector = %q, want %q", i, apps[i].Selector, want[i].Selector)
		}
		if got := strings.Join(apps[i].Rules, ","); got != strings.Join(want[i].Rules, ",") {
			t.Errorf("application %d rules = %s, want %s", i, got, strings.Join(want[i].Rules, ","))
		}
	}
}

func TestCompile_Version(t *testing.T) {
	doc := "applications:\n  message: ['@email']\n"
	a := mustCompile(t, doc)
	b := mustCompile(t, doc)
	c := mustCompile(t, "applications:\n  message: ['@ip']\n")

	if a.Version() == "" {
		t.Fatal("Version() is empty")
	}
	if a.Version() != b.Version() {
		t.Errorf("equal configs have versions %s and %s", a.Version(), b.Version())
	}
	if a.Version() == c.Version() {
		t.Errorf("different configs share version %s", a.Version())
	}
}

func TestBuiltinRuleIDs(t *testing.T) {
	ids := BuiltinRuleIDs()
	for _, want := range []string{"@email", "@email:mask", "@anything:remove", "@common", "@common:filter", "@password", "@ip:hash"} {
		found := false
		for _, id := range ids {
			if id == want {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("builtin %s is missing", want)
		}
	}
}

func TestDataScrubbingConfig(t *testing.T) {
	tests := []struct {
		name     string
		legacy   DataScrubbingConfig
		selector string
		rules    string
	}{
		{
			name:     "defaults",
			legacy:   DataScrubbingConfig{ScrubData: true, ScrubDefaults: true},
			selector: "**",
			rules:    "@common:filter",
		},
		{
			name: "everything",
			legacy: DataScrubbingConfig{
				ScrubData:        true,
				ScrubDefaults:    true,
				ScrubIPAddresses: true,
				SensitiveFields:  []string{"foo", "b.r"},
				ExcludeFields:    []string{"safe", "it's"},
			},
			selector: "** && !(**.'safe'.** || **.'it''s'.**)",
			rules:    "strip-fields,@common:filter,@ip:replace",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.legacy.ToConfig()
			if cfg == nil {
				t.Fatal("ToConfig() = nil")
			}
			if len(cfg.Applications) != 1 {
				t.Fatalf("got %d applications, want 1", len(cfg.Applications))
			}
			app := cfg.Applications[0]
			if app.Selector != tt.selector {
				t.Errorf("selector = %q, want %q", app.Selector, tt.selector)
			}
			if got := strings.Join(app.Rules, ","); got != tt.rules {
				t.Errorf("rules = %s, want %s", got, tt.rules)
			}
			if _, err := Compile(cfg); err != nil {
				t.Errorf("Compile() error = %v", err)
			}
		})
	}

	if cfg := (&DataScrubbingConfig{ScrubData: false, ScrubDefaults: true}).ToConfig(); cfg != nil {
		t.Errorf("ToConfig() with scrubbing disabled = %+v, want nil", cfg)
	}
}
