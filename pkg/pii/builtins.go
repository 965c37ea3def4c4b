package pii

import (
	"regexp"
	"sort"
)

// builtinType is the matcher behind a builtin rule type.
type builtinType struct {
	pattern *regexp.Regexp
	// groups limits redaction to capture groups. Nil redacts the match.
	groups []int
	// text replaces matches by default.
	text string
	// mask is the default mask redaction.
	mask Redaction
}

const filteredText = "[Filtered]"

var (
	emailRegex      = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	ipRegex         = regexp.MustCompile(`\b(?:(?:25[0-5]|2[0-4][0-9]|1[0-9][0-9]|[1-9]?[0-9])\.){3}(?:25[0-5]|2[0-4][0-9]|1[0-9][0-9]|[1-9]?[0-9])\b|\b(?:[0-9a-fA-F]{1,4}:){7}[0-9a-fA-F]{1,4}\b`)
	creditCardRegex = regexp.MustCompile(`\b(?:\d[ -]*?){13,16}\b`)
	ibanRegex       = regexp.MustCompile(`\b[A-Z]{2}[0-9]{2}(?: ?[A-Z0-9]{4}){2,7}(?: ?[A-Z0-9]{1,4})?\b`)
	uuidRegex       = regexp.MustCompile(`(?i)\b[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}\b`)
	macRegex        = regexp.MustCompile(`(?i)\b(?:[0-9a-f]{2}[:-]){5}[0-9a-f]{2}\b`)
	imsiRegex       = regexp.MustCompile(`\b[0-9]{15}\b`)
	pemKeyRegex     = regexp.MustCompile(`(?s)-----BEGIN[A-Z ]* PRIVATE KEY-----(.+?)-----END[A-Z ]* PRIVATE KEY-----`)
	urlAuthRegex    = regexp.MustCompile(`(?i)\b[a-z][a-z0-9+.-]*://([^/\s:@]+:[^/\s@]+)@`)
	usSSNRegex      = regexp.MustCompile(`\b[0-9]{3}-[0-9]{2}-[0-9]{4}\b`)
	userPathRegex   = regexp.MustCompile(`(?i)(?:/Users/|/home/|[a-z]:\\Users\\)([^/\\\s]+)`)
	bearerRegex     = regexp.MustCompile(`(?i)\b(?:Bearer)\s+([a-zA-Z0-9\-._~+/]+=*)`)

	// passwordKeyRegex matches keys whose values are secrets.
	passwordKeyRegex = regexp.MustCompile(`(?i)(password|passwd|pwd|secret|token|api_?key|auth|credentials|private_?key|session|csrf)`)
)

var builtinTypes = map[RuleType]builtinType{
	RuleEmail:      {pattern: emailRegex, text: "[email]", mask: Redaction{Method: MethodMask, CharsToIgnore: "@."}},
	RuleIP:         {pattern: ipRegex, text: "[ip]", mask: Redaction{Method: MethodMask, CharsToIgnore: ".:"}},
	RuleCreditCard: {pattern: creditCardRegex, text: "[creditcard]", mask: Redaction{Method: MethodMask, CharsToIgnore: " -", KeepSuffix: 4}},
	RuleIBAN:       {pattern: ibanRegex, text: "[iban]", mask: Redaction{Method: MethodMask, CharsToIgnore: " ", KeepPrefix: 4}},
	RuleUUID:       {pattern: uuidRegex, text: "[uuid]", mask: Redaction{Method: MethodMask, CharsToIgnore: "-"}},
	RuleMAC:        {pattern: macRegex, text: "[mac]", mask: Redaction{Method: MethodMask, CharsToIgnore: ":-", KeepPrefix: 8}},
	RuleIMSI:       {pattern: imsiRegex, text: "[imsi]", mask: Redaction{Method: MethodMask, KeepPrefix: 6}},
	RulePEMKey:     {pattern: pemKeyRegex, groups: []int{1}, text: "[pemkey]", mask: Redaction{Method: MethodMask, CharsToIgnore: "\n"}},
	RuleURLAuth:    {pattern: urlAuthRegex, groups: []int{1}, text: "[auth]", mask: Redaction{Method: MethodMask, CharsToIgnore: ":"}},
	RuleUSSSN:      {pattern: usSSNRegex, text: "[us-ssn]", mask: Redaction{Method: MethodMask, CharsToIgnore: "-"}},
	RuleUserPath:   {pattern: userPathRegex, groups: []int{1}, text: "[user]", mask: Redaction{Method: MethodMask}},
	RuleBearer:     {pattern: bearerRegex, groups: []int{1}, text: "[token]", mask: Redaction{Method: MethodMask}},
}

// commonTypes are the members of @common, in the order they run.
var commonTypes = []RuleType{
	RulePEMKey, RuleURLAuth, RuleBearer, RuleEmail, RuleIP, RuleCreditCard,
	RuleUSSSN, RuleUserPath, RulePassword,
}

// defaultRedaction is the redaction of a rule that does not set one.
func defaultRedaction(t RuleType) Redaction {
	if bt, ok := builtinTypes[t]; ok {
		return Redaction{Method: MethodReplace, Text: bt.text}
	}
	if t == RulePassword {
		return Redaction{Method: MethodRemove}
	}
	return Redaction{Method: MethodReplace, Text: filteredText}
}

func defaultMask(t RuleType) Redaction {
	if bt, ok := builtinTypes[t]; ok {
		return bt.mask
	}
	return Redaction{Method: MethodMask}
}

// builtinConfig declares the builtin rule library. Every type x is
// available as @x with its default redaction and as @x:remove, @x:replace,
// @x:mask, @x:hash and @x:filter.
func builtinConfig() *Config {
	rules := make(map[string]RuleSpec)
	addVariants := func(t RuleType) {
		id := "@" + string(t)
		mask := defaultMask(t)
		replace := defaultRedaction(t)
		if replace.Method != MethodReplace {
			replace = Redaction{Method: MethodReplace, Text: filteredText}
		}
		rules[id] = RuleSpec{Type: t}
		rules[id+":remove"] = RuleSpec{Type: t, Redaction: &Redaction{Method: MethodRemove}}
		rules[id+":replace"] = RuleSpec{Type: t, Redaction: &replace}
		rules[id+":mask"] = RuleSpec{Type: t, Redaction: &mask}
		rules[id+":hash"] = RuleSpec{Type: t, Redaction: &Redaction{Method: MethodHash}}
		rules[id+":filter"] = RuleSpec{Type: t, Redaction: &Redaction{Method: MethodReplace, Text: filteredText}}
	}

	typeNames := make([]RuleType, 0, len(builtinTypes)+2)
	for t := range builtinTypes {
		typeNames = append(typeNames, t)
	}
	typeNames = append(typeNames, RulePassword, RuleAnything)
	sort.Slice(typeNames, func(i, j int) bool { return typeNames[i] < typeNames[j] })
	for _, t := range typeNames {
		addVariants(t)
	}

	for _, suffix := range []string{"", ":remove", ":replace", ":mask", ":hash", ":filter"} {
		members := make([]string, len(commonTypes))
		for i, t := range commonTypes {
			members[i] = "@" + string(t) + suffix
		}
		rules["@common"+suffix] = RuleSpec{Type: RuleMultiple, Rules: members}
	}

	return &Config{Rules: rules}
}

// builtins maps builtin rule ids to their resolved rule chains. It is built
// once and shared read-only by every compiled configuration.
var builtins = compileBuiltins()

func compileBuiltins() map[string][]*rule {
	c := newCompiler(builtinConfig(), nil)
	c.reserved = true
	c.checkRules()
	if len(c.errs) > 0 {
		panic(c.errs)
	}
	out := make(map[string][]*rule, len(c.cfg.Rules))
	for id := range c.cfg.Rules {
		out[id] = c.resolve(id)
	}
	return out
}

// BuiltinRuleIDs lists the ids of the builtin rules in sorted order.
func BuiltinRuleIDs() []string {
	ids := make([]string, 0, len(builtins))
	for id := range builtins {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// BuiltinPatterns returns the expressions of the builtin string matchers
// keyed by type name, and the key expression of the password rule. They are
// shared with log field redaction.
func BuiltinPatterns() (patterns map[string]*regexp.Regexp, passwordKeys *regexp.Regexp) {
	patterns = make(map[string]*regexp.Regexp, len(builtinTypes))
	for t, bt := range builtinTypes {
		patterns[string(t)] = bt.pattern
	}
	return patterns, passwordKeyRegex
}
