package pii

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies configuration errors.
type ErrorKind string

const (
	KindInvalidSelector  ErrorKind = "invalid_selector"
	KindUnknownRuleType  ErrorKind = "unknown_rule_type"
	KindInvalidPattern   ErrorKind = "invalid_pattern"
	KindCyclicReference  ErrorKind = "cyclic_reference"
	KindUnknownRule      ErrorKind = "unknown_rule"
	KindInvalidRedaction ErrorKind = "invalid_redaction"
	KindReservedRuleID   ErrorKind = "reserved_rule_id"
)

// Sentinel errors matched by ConfigError with errors.Is.
var (
	ErrInvalidSelector  = errors.New("invalid selector")
	ErrUnknownRuleType  = errors.New("unknown rule type")
	ErrInvalidPattern   = errors.New("invalid pattern")
	ErrCyclicReference  = errors.New("cyclic rule reference")
	ErrUnknownRule      = errors.New("unknown rule")
	ErrInvalidRedaction = errors.New("invalid redaction")
	ErrReservedRuleID   = errors.New("reserved rule id")
)

var sentinels = map[ErrorKind]error{
	KindInvalidSelector:  ErrInvalidSelector,
	KindUnknownRuleType:  ErrUnknownRuleType,
	KindInvalidPattern:   ErrInvalidPattern,
	KindCyclicReference:  ErrCyclicReference,
	KindUnknownRule:      ErrUnknownRule,
	KindInvalidRedaction: ErrInvalidRedaction,
	KindReservedRuleID:   ErrReservedRuleID,
}

// ConfigError describes one problem found while compiling a configuration.
type ConfigError struct {
	Kind ErrorKind

	// RuleID is the rule the error was found in, if any.
	RuleID string

	// Selector is the application the error was found in, if any.
	Selector string

	Message string

	// Cause is the underlying error (if any), such as a regexp or selector
	// parse error.
	Cause error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	switch {
	case e.RuleID != "":
		fmt.Fprintf(&b, " in rule %q", e.RuleID)
	case e.Selector != "":
		fmt.Fprintf(&b, " in application %q", e.Selector)
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	return b.String()
}

// Unwrap returns the underlying error for error chain support.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// Is matches the sentinel error of the error's kind.
func (e *ConfigError) Is(target error) bool {
	return sentinels[e.Kind] == target
}

// ConfigErrors is the list of errors that rejected a configuration.
type ConfigErrors []*ConfigError

// Error implements the error interface.
func (errs ConfigErrors) Error() string {
	if len(errs) == 1 {
		return errs[0].Error()
	}
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return fmt.Sprintf("%d configuration errors: %s", len(errs), strings.Join(msgs, "; "))
}

// Unwrap exposes every error to errors.Is and errors.As.
func (errs ConfigErrors) Unwrap() []error {
	out := make([]error, len(errs))
	for i, e := range errs {
		out[i] = e
	}
	return out
}
