package pii

import (
	"regexp"
	"strings"
)

// sensitiveFieldsRuleID is the id of the rule generated for sensitive
// fields.
const sensitiveFieldsRuleID = "strip-fields"

// DataScrubbingConfig holds the legacy project switches that predate rule
// configurations.
type DataScrubbingConfig struct {
	// ScrubData enables scrubbing at all.
	ScrubData bool `yaml:"scrub_data" json:"scrub_data"`

	// ScrubDefaults applies the @common rules.
	ScrubDefaults bool `yaml:"scrub_defaults" json:"scrub_defaults"`

	// ScrubIPAddresses replaces IP addresses.
	ScrubIPAddresses bool `yaml:"scrub_ip_addresses" json:"scrub_ip_addresses"`

	// SensitiveFields are key fragments whose values are always filtered.
	SensitiveFields []string `yaml:"sensitive_fields,omitempty" json:"sensitive_fields,omitempty"`

	// ExcludeFields are keys never scrubbed.
	ExcludeFields []string `yaml:"exclude_fields,omitempty" json:"exclude_fields,omitempty"`
}

// ToConfig converts the switches into an equivalent rule configuration. It
// returns nil when they scrub nothing.
func (d *DataScrubbingConfig) ToConfig() *Config {
	if d == nil || !d.ScrubData {
		return nil
	}

	cfg := &Config{Rules: make(map[string]RuleSpec)}
	var applied []string

	fields := make([]string, 0, len(d.SensitiveFields))
	for _, f := range d.SensitiveFields {
		if f = strings.TrimSpace(f); f != "" {
			fields = append(fields, regexp.QuoteMeta(f))
		}
	}
	if len(fields) > 0 {
		cfg.Rules[sensitiveFieldsRuleID] = RuleSpec{
			Type:       RuleRedactPair,
			KeyPattern: "(?i)" + strings.Join(fields, "|"),
			Redaction:  &Redaction{Method: MethodReplace, Text: filteredText},
		}
		applied = append(applied, sensitiveFieldsRuleID)
	}
	if d.ScrubDefaults {
		applied = append(applied, "@common:filter")
	}
	if d.ScrubIPAddresses {
		applied = append(applied, "@ip:replace")
	}
	if len(applied) == 0 {
		return nil
	}

	cfg.Applications = Applications{{Selector: d.selector(), Rules: applied}}
	return cfg
}

// selector selects every node except excluded keys and their children.
func (d *DataScrubbingConfig) selector() string {
	var excluded []string
	for _, f := range d.ExcludeFields {
		if f = strings.TrimSpace(f); f != "" {
			excluded = append(excluded, "**.'"+strings.ReplaceAll(f, "'", "''")+"'.**")
		}
	}
	if len(excluded) == 0 {
		return "**"
	}
	return "** && !(" + strings.Join(excluded, " || ") + ")"
}
