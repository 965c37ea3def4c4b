// Package pii compiles PII rule configurations and applies them to events.
//
// A [Config] declares rules and applies them to selectors:
//
//	rules:
//	  email-mask:
//	    type: email
//	    redaction:
//	      method: mask
//	  secrets:
//	    type: multiple
//	    rules: ["@password", "@bearer"]
//	    hide_inner: true
//	applications:
//	  "$string": ["@common"]
//	  "user.email": ["email-mask"]
//
// [Compile] validates the configuration and resolves alias and multiple
// rules into flat rule chains. Reference cycles, unknown rules and types,
// invalid patterns, redactions and selectors are reported together as
// [ConfigErrors]. The builtin rules (ids starting with "@") are compiled
// once and shared by every configuration.
//
// # Redaction
//
// Strings are split into chunks along the remarks they already carry, and
// every rule of the chain rewrites the matches it finds in chunks no earlier
// rule claimed. The result carries one remark per redacted run with its
// byte range in the new string, and the original length in characters when
// it changed. Running the same configuration again therefore changes
// nothing.
//
// Rules that match whole values (anything, redact_pair and password)
// delete numbers and containers, or replace untyped values with text.
// Booleans are never redacted. Fields not declared as personal data are
// only touched by selectors that name them literally.
package pii
