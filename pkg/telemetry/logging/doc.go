// Package logging provides structured logging with PII redaction.
//
// # Overview
//
// The logging package wraps Go's standard log/slog package to provide:
//   - Structured logging with JSON, text, and console formats
//   - Redaction of personal data in messages and fields
//   - Context-aware logging with project, event and run identifiers
//   - Async buffering for non-blocking writes
//
// # Usage
//
//	logger, err := logging.New(logging.FromConfig(&cfg.Telemetry.Logging))
//	if err != nil {
//	    return err
//	}
//	defer logger.Shutdown()
//
//	logger.Info("rule file loaded", "project", "acme", "version", v)
//
//	ctx = logging.WithProject(ctx, "acme")
//	logger.WithContext(ctx).Info("event scrubbed") // includes project
//
// Components that accept a *slog.Logger receive logger.Slog(); records
// logged through it pass the same redaction.
//
// # PII Redaction
//
// Redaction reuses the matchers of the builtin scrubbing rules (@email,
// @ip, @creditcard and so on). A match is replaced with the rule name in
// brackets:
//
//   - alice@example.com → [email]
//   - 10.1.2.3 → [ip]
//   - 4111 1111 1111 1111 → [creditcard]
//
// Fields whose key looks like a secret (password, token, api_key, ...)
// are replaced with [Filtered] regardless of their value.
package logging
