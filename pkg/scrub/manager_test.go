package scrub

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"mercator-hq/relayscrub/pkg/config"
)

func newTestManager(t *testing.T, dir string) *Manager {
	t.Helper()
	m, err := NewManager(&config.PIIConfig{
		Dir:            dir,
		DefaultProject: "default",
		Debounce:       20 * time.Millisecond,
	}, nil, nil)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	return m
}

func TestNewManager_NilConfig(t *testing.T) {
	if _, err := NewManager(nil, nil, nil); err == nil {
		t.Error("NewManager(nil) succeeded, want error")
	}
}

func TestManager_Load(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "default.yaml", emailRules)
	writeFile(t, dir, "acme.yaml", "applications:\n  user.email: ['@email:mask']\n")

	m := newTestManager(t, dir)
	if err := m.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if got := m.Store().Len(); got != 2 {
		t.Errorf("Len() = %d, want 2", got)
	}
	if err := m.Ready(context.Background()); err != nil {
		t.Errorf("Ready() error = %v", err)
	}
	if at, err := m.LastLoad(); at.IsZero() || err != nil {
		t.Errorf("LastLoad() = %v, %v", at, err)
	}
}

func TestManager_Snapshot(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "default.yaml", emailRules)
	writeFile(t, dir, "acme.yaml", "applications:\n  user.email: ['@email:mask']\n")

	m := newTestManager(t, dir)
	if err := m.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	tests := []struct {
		project string
		want    string
	}{
		{"acme", "acme"},
		{"unknown", "default"},
		{"", "default"},
	}

	for _, tt := range tests {
		snap, err := m.Snapshot(tt.project)
		if err != nil {
			t.Errorf("Snapshot(%q) error = %v", tt.project, err)
			continue
		}
		if snap.Project != tt.want {
			t.Errorf("Snapshot(%q).Project = %q, want %q", tt.project, snap.Project, tt.want)
		}
	}
}

func TestManager_NoDefault(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "acme.yaml", emailRules)

	m := newTestManager(t, dir)
	if err := m.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if _, err := m.Snapshot("unknown"); !errors.Is(err, ErrNoConfig) {
		t.Errorf("Snapshot(unknown) error = %v, want ErrNoConfig", err)
	}
	if err := m.Ready(context.Background()); err == nil {
		t.Error("Ready() succeeded without a default project")
	}
}

func TestManager_ReloadKeepsLastGoodSnapshot(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "default.yaml", emailRules)
	path := writeFile(t, dir, "acme.yaml", emailRules)

	m := newTestManager(t, dir)
	if err := m.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	good, _ := m.Store().Get("acme")

	tests := []struct {
		name    string
		content string
	}{
		{"invalid yaml", "applications: [unclosed"},
		{"unknown rule", "applications:\n  user.email: [missing]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}
			if err := m.Reload(TriggerManual); err == nil {
				t.Fatal("Reload() error = nil, want error")
			}
			if got, ok := m.Store().Get("acme"); !ok || got != good {
				t.Error("acme snapshot was replaced by a broken file")
			}
			if _, ok := m.Store().Get("default"); !ok {
				t.Error("default project lost on partial failure")
			}
			if _, err := m.LastLoad(); err == nil {
				t.Error("LastLoad() error = nil after failed reload")
			}
		})
	}
}

func TestManager_ReloadUnchangedKeepsSnapshot(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "default.yaml", emailRules)

	m := newTestManager(t, dir)
	if err := m.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	before, _ := m.Store().Get("default")

	if err := m.Reload(TriggerManual); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if after, _ := m.Store().Get("default"); after != before {
		t.Error("unchanged file produced a new snapshot")
	}
}

func TestManager_ReloadDropsRemovedProject(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "default.yaml", emailRules)
	path := writeFile(t, dir, "acme.yaml", emailRules)

	m := newTestManager(t, dir)
	if err := m.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	if err := m.Reload(TriggerManual); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if _, ok := m.Store().Get("acme"); ok {
		t.Error("removed project is still loaded")
	}
}

func TestManager_ReloadMissingDirKeepsRules(t *testing.T) {
	dir := t.TempDir()
	rules := filepath.Join(dir, "rules")
	if err := os.Mkdir(rules, 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, rules, "default.yaml", emailRules)

	m := newTestManager(t, rules)
	if err := m.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if err := os.RemoveAll(rules); err != nil {
		t.Fatal(err)
	}
	if err := m.Reload(TriggerManual); err == nil {
		t.Fatal("Reload() of a missing directory succeeded")
	}
	if m.Store().Len() != 1 {
		t.Errorf("Len() = %d, want previous rules kept", m.Store().Len())
	}
}

func TestManager_Watch(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "default.yaml", emailRules)

	m, err := NewManager(&config.PIIConfig{
		Dir:            dir,
		DefaultProject: "default",
		Watch:          true,
		Debounce:       20 * time.Millisecond,
	}, nil, nil)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	if err := m.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- m.Watch(ctx) }()

	// The watcher registers asynchronously; keep writing until the
	// new project shows up.
	deadline := time.Now().Add(5 * time.Second)
	for {
		writeFile(t, dir, "acme.yaml", emailRules)
		time.Sleep(100 * time.Millisecond)
		if _, ok := m.Store().Get("acme"); ok {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("new rule file was not picked up within 5s")
		}
	}

	if err := m.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Watch() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Watch() did not return after Close")
	}
}

func TestManager_WatchDisabled(t *testing.T) {
	m := newTestManager(t, t.TempDir())
	if err := m.Watch(context.Background()); err == nil {
		t.Error("Watch() succeeded with watching and resync disabled")
	}
}
