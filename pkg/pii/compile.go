package pii

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"slices"
	"sort"
	"strings"
	"unicode/utf8"

	"mercator-hq/relayscrub/pkg/selector"
)

// matchKind tells how a resolved rule finds what to redact.
type matchKind uint8

const (
	matchPattern matchKind = iota
	matchAnything
	matchPair
)

// rule is a resolved leaf rule. Alias and multiple rules are flattened into
// ordered chains of leaf rules at compile time.
type rule struct {
	// id is reported in remarks.
	id         string
	match      matchKind
	pattern    *regexp.Regexp
	groups     []int
	keyPattern *regexp.Regexp
	redaction  Redaction
}

type application struct {
	selector selector.Spec
	rules    []*rule
}

// CompiledConfig is a validated configuration with selectors parsed and
// rule references resolved. It is immutable and safe for concurrent use.
type CompiledConfig struct {
	version      string
	hashKey      string
	applications []application
}

// AppliedRules describes one compiled application.
type AppliedRules struct {
	// Selector is the canonical form of the selector.
	Selector string
	// Rules are the ids reported by the resolved rule chain, in order.
	Rules []string
}

// Version identifies the configuration content. Equal configurations have
// equal versions.
func (c *CompiledConfig) Version() string {
	return c.version
}

// Applications describes the compiled applications in declaration order.
func (c *CompiledConfig) Applications() []AppliedRules {
	out := make([]AppliedRules, len(c.applications))
	for i, app := range c.applications {
		ids := make([]string, len(app.rules))
		for j, r := range app.rules {
			ids[j] = r.id
		}
		out[i] = AppliedRules{Selector: app.selector.String(), Rules: ids}
	}
	return out
}

// IsEmpty reports whether the configuration applies no rules.
func (c *CompiledConfig) IsEmpty() bool {
	return c == nil || len(c.applications) == 0
}

// Compile validates cfg and resolves it into a CompiledConfig. All problems
// found are returned together as ConfigErrors.
func Compile(cfg *Config) (*CompiledConfig, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	c := newCompiler(cfg, builtins)
	c.checkRules()
	if len(c.errs) > 0 {
		return nil, c.errs
	}

	compiled := &CompiledConfig{hashKey: cfg.Vars.HashKey}
	for _, app := range cfg.Applications {
		spec, err := selector.Parse(app.Selector)
		if err != nil {
			c.fail(&ConfigError{Kind: KindInvalidSelector, Selector: app.Selector, Message: err.Error(), Cause: err})
			continue
		}
		var chain []*rule
		for _, id := range app.Rules {
			if !c.exists(id) {
				c.fail(&ConfigError{Kind: KindUnknownRule, Selector: app.Selector, Message: fmt.Sprintf("rule %q is not defined", id)})
				continue
			}
			chain = appendUnique(chain, c.resolve(id))
		}
		compiled.applications = append(compiled.applications, application{selector: spec, rules: chain})
	}
	if len(c.errs) > 0 {
		return nil, c.errs
	}

	data, err := cfg.canonical()
	if err != nil {
		return nil, fmt.Errorf("failed to encode PII config: %w", err)
	}
	sum := sha256.Sum256(data)
	compiled.version = hex.EncodeToString(sum[:8])
	return compiled, nil
}

type compiler struct {
	cfg *Config
	// external resolves rule ids not defined in cfg.
	external map[string][]*rule
	// reserved allows ids starting with "@".
	reserved bool

	leaves   map[string]*rule
	resolved map[string][]*rule
	errs     ConfigErrors
}

func newCompiler(cfg *Config, external map[string][]*rule) *compiler {
	return &compiler{
		cfg:      cfg,
		external: external,
		leaves:   make(map[string]*rule),
		resolved: make(map[string][]*rule),
	}
}

func (c *compiler) fail(err *ConfigError) {
	c.errs = append(c.errs, err)
}

func (c *compiler) exists(id string) bool {
	if _, ok := c.cfg.Rules[id]; ok {
		return true
	}
	_, ok := c.external[id]
	return ok
}

func (c *compiler) sortedIDs() []string {
	ids := make([]string, 0, len(c.cfg.Rules))
	for id := range c.cfg.Rules {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// checkRules validates every rule, compiles leaf rules and rejects
// reference cycles.
func (c *compiler) checkRules() {
	for _, id := range c.sortedIDs() {
		spec := c.cfg.Rules[id]
		if !c.reserved && strings.HasPrefix(id, "@") {
			c.fail(&ConfigError{Kind: KindReservedRuleID, RuleID: id, Message: "ids starting with @ are reserved for builtin rules"})
			continue
		}
		c.checkRule(id, spec)
	}
	if len(c.errs) == 0 {
		c.checkCycles()
	}
}

func (c *compiler) checkRule(id string, spec RuleSpec) {
	if spec.Redaction != nil {
		if err := validateRedaction(spec.Redaction); err != nil {
			c.fail(&ConfigError{Kind: KindInvalidRedaction, RuleID: id, Message: err.Error()})
		}
	}
	redaction := defaultRedaction(spec.Type)
	if spec.Redaction != nil {
		redaction = *spec.Redaction
	}
	leaf := &rule{id: id, redaction: redaction}

	switch spec.Type {
	case RulePattern:
		re, err := regexp.Compile(spec.Pattern)
		if err != nil {
			c.fail(&ConfigError{Kind: KindInvalidPattern, RuleID: id, Message: err.Error(), Cause: err})
			return
		}
		for _, g := range spec.ReplaceGroups {
			if g < 0 || g > re.NumSubexp() {
				c.fail(&ConfigError{Kind: KindInvalidPattern, RuleID: id, Message: fmt.Sprintf("replace group %d does not exist", g)})
				return
			}
		}
		leaf.pattern = re
		leaf.groups = spec.ReplaceGroups
	case RuleRedactPair:
		if spec.KeyPattern == "" {
			c.fail(&ConfigError{Kind: KindInvalidPattern, RuleID: id, Message: "key_pattern is required"})
			return
		}
		re, err := regexp.Compile(spec.KeyPattern)
		if err != nil {
			c.fail(&ConfigError{Kind: KindInvalidPattern, RuleID: id, Message: err.Error(), Cause: err})
			return
		}
		leaf.match = matchPair
		leaf.keyPattern = re
	case RulePassword:
		leaf.match = matchPair
		leaf.keyPattern = passwordKeyRegex
	case RuleAnything:
		leaf.match = matchAnything
	case RuleAlias:
		c.checkReferences(id, []string{spec.Rule})
		return
	case RuleMultiple:
		c.checkReferences(id, spec.Rules)
		return
	default:
		bt, ok := builtinTypes[spec.Type]
		if !ok {
			c.fail(&ConfigError{Kind: KindUnknownRuleType, RuleID: id, Message: fmt.Sprintf("unknown rule type %q", spec.Type)})
			return
		}
		leaf.pattern = bt.pattern
		leaf.groups = bt.groups
	}
	c.leaves[id] = leaf
}

func (c *compiler) checkReferences(id string, refs []string) {
	for _, ref := range refs {
		if !c.exists(ref) {
			c.fail(&ConfigError{Kind: KindUnknownRule, RuleID: id, Message: fmt.Sprintf("references undefined rule %q", ref)})
		}
	}
}

func references(spec RuleSpec) []string {
	switch spec.Type {
	case RuleAlias:
		return []string{spec.Rule}
	case RuleMultiple:
		return spec.Rules
	}
	return nil
}

// checkCycles walks the reference graph depth first. A reference to a rule
// on the current stack closes a cycle.
func (c *compiler) checkCycles() {
	done := make(map[string]bool)
	var stack []string

	var visit func(id string)
	visit = func(id string) {
		for i, onStack := range stack {
			if onStack == id {
				cycle := append(append([]string(nil), stack[i:]...), id)
				c.fail(&ConfigError{
					Kind:    KindCyclicReference,
					RuleID:  id,
					Message: "reference cycle " + strings.Join(cycle, " -> "),
				})
				return
			}
		}
		if done[id] {
			return
		}
		spec, ok := c.cfg.Rules[id]
		if !ok {
			return
		}
		stack = append(stack, id)
		for _, ref := range references(spec) {
			visit(ref)
		}
		stack = stack[:len(stack)-1]
		done[id] = true
	}

	for _, id := range c.sortedIDs() {
		visit(id)
	}
}

// resolve returns the leaf rule chain of id. It must only be called once
// checkRules succeeded.
func (c *compiler) resolve(id string) []*rule {
	if chain, ok := c.resolved[id]; ok {
		return chain
	}
	spec, ok := c.cfg.Rules[id]
	if !ok {
		return c.external[id]
	}

	var chain []*rule
	switch spec.Type {
	case RuleAlias:
		chain = c.wrap(id, spec, c.resolve(spec.Rule))
	case RuleMultiple:
		var members []*rule
		for _, ref := range spec.Rules {
			members = appendUnique(members, c.resolve(ref))
		}
		chain = c.wrap(id, spec, members)
	default:
		chain = []*rule{c.leaves[id]}
	}
	c.resolved[id] = chain
	return chain
}

// appendUnique appends the rules of add not already in chain. Resolved
// chains are memoized, so a rule reached twice is the same pointer.
func appendUnique(chain, add []*rule) []*rule {
	for _, r := range add {
		if !slices.Contains(chain, r) {
			chain = append(chain, r)
		}
	}
	return chain
}

// wrap applies the reporting id and redaction override of an alias or
// multiple rule to its members.
func (c *compiler) wrap(id string, spec RuleSpec, members []*rule) []*rule {
	if !spec.HideInner && spec.Redaction == nil {
		return members
	}
	out := make([]*rule, len(members))
	for i, m := range members {
		copied := *m
		if spec.HideInner {
			copied.id = id
		}
		if spec.Redaction != nil {
			copied.redaction = *spec.Redaction
		}
		out[i] = &copied
	}
	return out
}

func validateRedaction(r *Redaction) error {
	switch r.Method {
	case MethodRemove, MethodReplace:
	case MethodMask:
		if r.MaskChar != "" && utf8.RuneCountInString(r.MaskChar) != 1 {
			return fmt.Errorf("mask_char must be a single character, got %q", r.MaskChar)
		}
		if r.KeepPrefix < 0 || r.KeepSuffix < 0 {
			return fmt.Errorf("keep_prefix and keep_suffix must not be negative")
		}
	case MethodHash:
		switch r.Algorithm {
		case "", HashSHA1, HashSHA256, HashSHA512, HashBLAKE2b:
		default:
			return fmt.Errorf("unknown hash algorithm %q", r.Algorithm)
		}
	default:
		return fmt.Errorf("unknown redaction method %q", r.Method)
	}
	if r.Hard && r.Method != MethodRemove {
		return fmt.Errorf("hard is only valid for the remove method")
	}
	return nil
}
