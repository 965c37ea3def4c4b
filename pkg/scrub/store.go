package scrub

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"sync"
	"sync/atomic"

	"mercator-hq/relayscrub/pkg/telemetry/metrics"
)

// ConfigStore holds the current snapshot of every project. Readers load
// an immutable map without locking; writers build a new map and swap it
// in, so a reader never observes a half-applied reload.
type ConfigStore struct {
	snapshots atomic.Pointer[map[string]*Snapshot]

	// mu serializes writers
	mu      sync.Mutex
	metrics *metrics.Collector
}

// NewConfigStore creates an empty store. collector may be nil.
func NewConfigStore(collector *metrics.Collector) *ConfigStore {
	s := &ConfigStore{metrics: collector}
	empty := make(map[string]*Snapshot)
	s.snapshots.Store(&empty)
	return s
}

// Get returns the current snapshot of project.
func (s *ConfigStore) Get(project string) (*Snapshot, bool) {
	snap, ok := (*s.snapshots.Load())[project]
	return snap, ok
}

// Update compiles cfg and installs it for project. On failure the
// previous snapshot of the project stays in place and the error is
// returned.
func (s *ConfigStore) Update(project, source string, cfg *ProjectConfig) (*Snapshot, error) {
	snap, err := Compile(project, source, cfg)
	s.metrics.RecordConfigLoad(project, err)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.clone()
	next[project] = snap
	s.swap(next)
	return snap, nil
}

// Replace installs a complete set of snapshots, dropping projects not in
// snapshots.
func (s *ConfigStore) Replace(snapshots map[string]*Snapshot) {
	next := make(map[string]*Snapshot, len(snapshots))
	for project, snap := range snapshots {
		next[project] = snap
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.swap(next)
}

// Remove drops the snapshot of project. It reports whether one existed.
func (s *ConfigStore) Remove(project string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := (*s.snapshots.Load())[project]; !ok {
		return false
	}
	next := s.clone()
	delete(next, project)
	s.swap(next)
	return true
}

// Projects returns the names of all projects with a snapshot, sorted.
func (s *ConfigStore) Projects() []string {
	current := *s.snapshots.Load()
	names := make([]string, 0, len(current))
	for name := range current {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of projects with a snapshot.
func (s *ConfigStore) Len() int {
	return len(*s.snapshots.Load())
}

// Version digests the project names and snapshot versions. It changes
// whenever any project's configuration changes.
func (s *ConfigStore) Version() string {
	current := *s.snapshots.Load()
	names := make([]string, 0, len(current))
	for name := range current {
		names = append(names, name)
	}
	sort.Strings(names)

	h := sha256.New()
	for _, name := range names {
		h.Write([]byte(name))
		h.Write([]byte{0})
		h.Write([]byte(current[name].Version))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// clone copies the current map. Must be called with mu held.
func (s *ConfigStore) clone() map[string]*Snapshot {
	current := *s.snapshots.Load()
	next := make(map[string]*Snapshot, len(current)+1)
	for project, snap := range current {
		next[project] = snap
	}
	return next
}

// swap publishes next. Must be called with mu held.
func (s *ConfigStore) swap(next map[string]*Snapshot) {
	s.snapshots.Store(&next)
	s.metrics.SetActiveConfigs(len(next))
}
