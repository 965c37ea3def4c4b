package main

import (
	"io"
	"os"
	"path/filepath"
	"testing"
)

const replaceEmailRules = `
rules:
  replace-email:
    type: pattern
    pattern: '[a-z]+@[a-z]+\.[a-z]+'
    redaction:
      method: replace
      text: "[email]"
applications:
  user.email: [replace-email]
`

func writeRules(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}
	return dir
}

func newTestEnvironment(t *testing.T, dir string) *environment {
	t.Helper()
	env, err := newEnvironment(envOptions{rulesDir: dir, logWriter: io.Discard})
	if err != nil {
		t.Fatalf("newEnvironment() error = %v", err)
	}
	t.Cleanup(func() { env.Close() })
	return env
}
