package scrub

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"mercator-hq/relayscrub/pkg/pii"
)

// ProjectConfig is the content of a project's rule file: a PII rule
// configuration, optionally accompanied by the legacy data scrubbing
// switches.
//
//	rules:
//	  device-id:
//	    type: pattern
//	    pattern: 'dev-[0-9a-f]{8}'
//	    redaction: {method: replace, text: "[device]"}
//	applications:
//	  "$string": ["device-id", "@email"]
//	datascrubbing:
//	  scrub_data: true
//	  scrub_ip_addresses: true
type ProjectConfig struct {
	pii.Config `yaml:",inline"`

	// DataScrubbing holds the legacy switches. They compile into a second
	// configuration applied after the rules above.
	DataScrubbing *pii.DataScrubbingConfig `yaml:"datascrubbing,omitempty"`
}

// ParseProjectConfig decodes a YAML or JSON rule file.
func ParseProjectConfig(data []byte) (*ProjectConfig, error) {
	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Snapshot is the compiled configuration of one project. Snapshots are
// immutable; a scrub keeps the snapshot it started with even when the
// project is reloaded meanwhile.
type Snapshot struct {
	// Project is the project name
	Project string

	// Version identifies the configuration content
	Version string

	// Configs are applied in order in a single PII stage
	Configs []*pii.CompiledConfig

	// Source is the rule file the snapshot was compiled from
	Source string

	// LoadedAt is when the snapshot was compiled
	LoadedAt time.Time
}

// Compile validates cfg and builds the project's snapshot. Every problem
// of the configuration is reported at once in a CompileError.
func Compile(project, source string, cfg *ProjectConfig) (*Snapshot, error) {
	if cfg == nil {
		cfg = &ProjectConfig{}
	}

	compiled, err := pii.Compile(&cfg.Config)
	if err != nil {
		return nil, &CompileError{Project: project, FilePath: source, Cause: err}
	}

	snap := &Snapshot{
		Project:  project,
		Source:   source,
		LoadedAt: time.Now(),
	}
	versions := []string{compiled.Version()}
	if !compiled.IsEmpty() {
		snap.Configs = append(snap.Configs, compiled)
	}

	if legacy := cfg.DataScrubbing.ToConfig(); legacy != nil {
		lc, err := pii.Compile(legacy)
		if err != nil {
			return nil, &CompileError{Project: project, FilePath: source, Cause: fmt.Errorf("datascrubbing: %w", err)}
		}
		versions = append(versions, lc.Version())
		if !lc.IsEmpty() {
			snap.Configs = append(snap.Configs, lc)
		}
	}

	snap.Version = strings.Join(versions, "+")
	return snap, nil
}

// RuleCount returns the number of compiled applications in the snapshot.
func (s *Snapshot) RuleCount() int {
	n := 0
	for _, c := range s.Configs {
		n += len(c.Applications())
	}
	return n
}
