package logging

import (
	"context"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"mercator-hq/relayscrub/pkg/config"
	"mercator-hq/relayscrub/pkg/pii"
)

// Redactor redacts personal data from log fields. It shares its matchers
// with the builtin scrubbing rules, so a value that an event scrubber would
// catch is also caught in the relay's own logs.
type Redactor struct {
	patterns     []*redactPattern
	sensitiveKey *regexp.Regexp
}

// redactPattern contains a compiled regex and replacement string.
type redactPattern struct {
	name        string
	regex       *regexp.Regexp
	replacement string
}

// redactedValue replaces the values of sensitive keys.
const redactedValue = "[Filtered]"

// NewRedactor creates a Redactor with the builtin patterns followed by the
// custom ones. Custom patterns that fail to compile are returned in skipped
// and not applied.
func NewRedactor(customPatterns []config.RedactPattern) (r *Redactor, skipped []string) {
	builtin, passwordKeys := pii.BuiltinPatterns()

	names := make([]string, 0, len(builtin))
	for name := range builtin {
		names = append(names, name)
	}
	sort.Strings(names)

	r = &Redactor{sensitiveKey: passwordKeys}
	for _, name := range names {
		r.patterns = append(r.patterns, &redactPattern{
			name:        name,
			regex:       builtin[name],
			replacement: "[" + name + "]",
		})
	}

	for _, p := range customPatterns {
		regex, err := regexp.Compile(p.Pattern)
		if err != nil {
			skipped = append(skipped, p.Name)
			continue
		}
		replacement := p.Replacement
		if replacement == "" {
			replacement = redactedValue
		}
		r.patterns = append(r.patterns, &redactPattern{
			name:        p.Name,
			regex:       regex,
			replacement: replacement,
		})
	}

	return r, skipped
}

// PatternNames returns the names of the active patterns in the order they
// are applied.
func (r *Redactor) PatternNames() []string {
	names := make([]string, len(r.patterns))
	for i, p := range r.patterns {
		names[i] = p.name
	}
	return names
}

// RedactString redacts personal data from a string value.
func (r *Redactor) RedactString(value string) string {
	if value == "" {
		return value
	}

	redacted := value
	for _, pattern := range r.patterns {
		redacted = pattern.regex.ReplaceAllLiteralString(redacted, pattern.replacement)
	}

	return redacted
}

// IsSensitiveKey reports whether a field name indicates a secret value.
func (r *Redactor) IsSensitiveKey(key string) bool {
	return key != "" && r.sensitiveKey.MatchString(strings.ToLower(key))
}

// RedactAttr redacts a single log attribute. Values of sensitive keys are
// replaced entirely; string values are matched against the patterns; groups
// are redacted recursively.
func (r *Redactor) RedactAttr(a slog.Attr) slog.Attr {
	a.Value = a.Value.Resolve()

	switch a.Value.Kind() {
	case slog.KindGroup:
		attrs := a.Value.Group()
		redacted := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			redacted[i] = r.RedactAttr(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(redacted...)}
	case slog.KindString:
		if r.IsSensitiveKey(a.Key) {
			if a.Value.String() == "" {
				return a
			}
			return slog.String(a.Key, redactedValue)
		}
		return slog.String(a.Key, r.RedactString(a.Value.String()))
	case slog.KindAny:
		if r.IsSensitiveKey(a.Key) {
			return slog.String(a.Key, redactedValue)
		}
		if err, ok := a.Value.Any().(error); ok {
			return slog.String(a.Key, r.RedactString(err.Error()))
		}
		return a
	default:
		if r.IsSensitiveKey(a.Key) {
			return slog.String(a.Key, redactedValue)
		}
		return a
	}
}

// redactingHandler redacts every attribute before passing records on.
type redactingHandler struct {
	inner    slog.Handler
	redactor *Redactor
}

func (h *redactingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *redactingHandler) Handle(ctx context.Context, rec slog.Record) error {
	out := slog.NewRecord(rec.Time, rec.Level, h.redactor.RedactString(rec.Message), rec.PC)
	rec.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(h.redactor.RedactAttr(a))
		return true
	})
	return h.inner.Handle(ctx, out)
}

func (h *redactingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	redacted := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		redacted[i] = h.redactor.RedactAttr(a)
	}
	return &redactingHandler{inner: h.inner.WithAttrs(redacted), redactor: h.redactor}
}

func (h *redactingHandler) WithGroup(name string) slog.Handler {
	return &redactingHandler{inner: h.inner.WithGroup(name), redactor: h.redactor}
}
