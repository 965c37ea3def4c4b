package pii

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// RuleType selects how a rule matches.
type RuleType string

const (
	// RulePattern matches a regular expression.
	RulePattern RuleType = "pattern"
	// RuleMultiple applies several rules in order.
	RuleMultiple RuleType = "multiple"
	// RuleAlias applies another rule.
	RuleAlias RuleType = "alias"
	// RuleRedactPair matches whole values whose key matches a pattern.
	RuleRedactPair RuleType = "redact_pair"
	// RuleAnything matches whole values.
	RuleAnything RuleType = "anything"

	RuleEmail      RuleType = "email"
	RuleIP         RuleType = "ip"
	RuleCreditCard RuleType = "creditcard"
	RuleIBAN       RuleType = "iban"
	RuleUUID       RuleType = "uuid"
	RuleMAC        RuleType = "mac"
	RuleIMSI       RuleType = "imsi"
	RulePEMKey     RuleType = "pemkey"
	RuleURLAuth    RuleType = "urlauth"
	RuleUSSSN      RuleType = "usssn"
	RuleUserPath   RuleType = "userpath"
	RulePassword   RuleType = "password"
	RuleBearer     RuleType = "bearer"
)

// RedactionMethod selects how matched text is rewritten.
type RedactionMethod string

const (
	MethodRemove  RedactionMethod = "remove"
	MethodReplace RedactionMethod = "replace"
	MethodMask    RedactionMethod = "mask"
	MethodHash    RedactionMethod = "hash"
)

// HashAlgorithm selects the digest used by hash redactions.
type HashAlgorithm string

const (
	HashSHA1    HashAlgorithm = "sha1"
	HashSHA256  HashAlgorithm = "sha256"
	HashSHA512  HashAlgorithm = "sha512"
	HashBLAKE2b HashAlgorithm = "blake2b"
)

// Redaction describes how a rule rewrites what it matched.
type Redaction struct {
	Method RedactionMethod `yaml:"method" json:"method"`

	// Text replaces the match for the replace method.
	Text string `yaml:"text,omitempty" json:"text,omitempty"`

	// MaskChar is the single mask character, "*" by default.
	MaskChar string `yaml:"mask_char,omitempty" json:"mask_char,omitempty"`

	// CharsToIgnore are left unmasked.
	CharsToIgnore string `yaml:"chars_to_ignore,omitempty" json:"chars_to_ignore,omitempty"`

	// KeepPrefix and KeepSuffix leave characters at either end unmasked.
	KeepPrefix int `yaml:"keep_prefix,omitempty" json:"keep_prefix,omitempty"`
	KeepSuffix int `yaml:"keep_suffix,omitempty" json:"keep_suffix,omitempty"`

	// Algorithm is the hash digest, sha1 by default.
	Algorithm HashAlgorithm `yaml:"algorithm,omitempty" json:"algorithm,omitempty"`

	// Key keys the digest. Empty falls back to vars.hash_key.
	Key string `yaml:"key,omitempty" json:"key,omitempty"`

	// Hard makes remove delete whole values together with their meta.
	Hard bool `yaml:"hard,omitempty" json:"hard,omitempty"`
}

// RuleSpec is a rule as written in a configuration.
type RuleSpec struct {
	Type RuleType `yaml:"type" json:"type"`

	// Pattern is the expression of pattern rules.
	Pattern string `yaml:"pattern,omitempty" json:"pattern,omitempty"`

	// ReplaceGroups limits a pattern rule to the listed capture groups.
	ReplaceGroups []int `yaml:"replace_groups,omitempty" json:"replace_groups,omitempty"`

	// KeyPattern is the key expression of redact_pair rules.
	KeyPattern string `yaml:"key_pattern,omitempty" json:"key_pattern,omitempty"`

	// Rule is the target of alias rules.
	Rule string `yaml:"rule,omitempty" json:"rule,omitempty"`

	// Rules are the members of multiple rules.
	Rules []string `yaml:"rules,omitempty" json:"rules,omitempty"`

	// HideInner reports matches of alias and multiple rules under their
	// own id instead of the id of the rule that matched.
	HideInner bool `yaml:"hide_inner,omitempty" json:"hide_inner,omitempty"`

	// Redaction overrides the default redaction of the rule type. On alias
	// and multiple rules it overrides the redaction of every member.
	Redaction *Redaction `yaml:"redaction,omitempty" json:"redaction,omitempty"`
}

// Vars are configuration-wide settings.
type Vars struct {
	// HashKey keys hash redactions that do not set their own key.
	HashKey string `yaml:"hash_key,omitempty" json:"hash_key,omitempty"`
}

// Application binds an ordered list of rules to a selector.
type Application struct {
	Selector string
	Rules    []string
}

// Applications is the ordered mapping from selectors to rule ids.
// Declaration order is the order rules run in.
type Applications []Application

// UnmarshalYAML reads a mapping while keeping its key order.
func (a *Applications) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: applications must be a mapping", node.Line)
	}
	out := make(Applications, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		var app Application
		if err := node.Content[i].Decode(&app.Selector); err != nil {
			return err
		}
		if err := node.Content[i+1].Decode(&app.Rules); err != nil {
			return fmt.Errorf("line %d: rules of %q: %w", node.Content[i+1].Line, app.Selector, err)
		}
		out = append(out, app)
	}
	*a = out
	return nil
}

// MarshalYAML writes a mapping in declaration order.
func (a Applications) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, app := range a {
		var key, value yaml.Node
		if err := key.Encode(app.Selector); err != nil {
			return nil, err
		}
		if err := value.Encode(app.Rules); err != nil {
			return nil, err
		}
		node.Content = append(node.Content, &key, &value)
	}
	return node, nil
}

// Config is a project's PII configuration as written by its authors.
type Config struct {
	Rules        map[string]RuleSpec `yaml:"rules,omitempty"`
	Vars         Vars                `yaml:"vars,omitempty"`
	Applications Applications        `yaml:"applications,omitempty"`
}

// ParseConfig decodes a YAML or JSON configuration document.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse PII config: %w", err)
	}
	return &cfg, nil
}

// canonical renders cfg deterministically. Rule maps are written in key
// order and applications in declaration order.
func (c *Config) canonical() ([]byte, error) {
	return yaml.Marshal(c)
}
