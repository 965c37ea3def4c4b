// Package scrub runs events through the scrubbing pipeline and keeps the
// per-project rule configurations current.
//
// # Pipeline
//
// A Scrubber applies three traversals to each event, in order:
// normalization, trimming to the structural limits, and PII redaction with
// the project's compiled rules. Each run yields a Report counting the
// remarks and errors left on the event.
//
//	scrubber := scrub.NewScrubber(scrub.OptionsFromConfig(&cfg.Limits))
//	snap, err := manager.Snapshot("acme")
//	out, report, err := scrubber.ScrubJSON(ctx, payload, snap)
//
// # Rule files
//
// Each project has one rule file in the rule directory, named after the
// project: acme.yaml, acme.yml or acme.json. Events of projects without a
// file use the default project's rules.
//
// The Manager loads the directory into a ConfigStore. Reloads are
// triggered at startup, by file changes (fsnotify, debounced), by a cron
// resync schedule, or manually. A file that fails to load or compile
// leaves the project's previous snapshot active. Snapshots are immutable,
// so a scrub in progress finishes with the configuration it started with.
package scrub
