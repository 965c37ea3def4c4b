// relayscrub scrubs personal data from telemetry events before they are
// forwarded.
//
// It applies per-project PII rules, structural limits and normalization to
// every event and annotates each change in the event's _meta tree:
//   - Rule-based redaction (replace, mask, hash, remove)
//   - Truncation of oversized strings, collections and deep nesting
//   - Rejection of malformed transactions
//   - Hot reload of rule files
//
// Usage:
//
//	# Scrub a single event with the rules of project acme
//	relayscrub scrub --project acme event.json
//
//	# Relay a stream of events from stdin to stdout
//	relayscrub run --config /etc/relayscrub/config.yaml
//
//	# Validate rule files
//	relayscrub lint --dir ./pii
//
//	# Show version information
//	relayscrub version
package main

import "os"

func main() {
	os.Exit(Execute())
}
