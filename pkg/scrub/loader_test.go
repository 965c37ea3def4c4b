package scrub

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestLoader_LoadDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "acme.yaml", emailRules)
	writeFile(t, dir, "globex.json", `{"applications": {"user.email": ["@email:hash"]}}`)
	writeFile(t, dir, ".hidden.yaml", emailRules)
	writeFile(t, dir, "notes.txt", "not a rule file")
	if err := os.Mkdir(filepath.Join(dir, "nested"), 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(dir, "nested"), "inner.yaml", emailRules)

	files, err := NewLoader(nil).LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir() error = %v", err)
	}

	got := sortedProjects(files)
	if strings.Join(got, ",") != "acme,globex" {
		t.Errorf("projects = %v, want [acme globex]", got)
	}
	if files["acme"].Path != filepath.Join(dir, "acme.yaml") {
		t.Errorf("acme path = %q", files["acme"].Path)
	}
	if n := len(files["globex"].Config.Applications); n != 1 {
		t.Errorf("globex applications = %d, want 1", n)
	}
}

func TestLoader_LoadDir_PartialErrors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "good.yaml", emailRules)
	writeFile(t, dir, "broken.yaml", "applications: [unclosed")
	writeFile(t, dir, "dup.yaml", emailRules)
	writeFile(t, dir, "dup.yml", emailRules)

	files, err := NewLoader(nil).LoadDir(dir)
	if err == nil {
		t.Fatal("LoadDir() error = nil, want errors")
	}
	if files == nil {
		t.Fatal("LoadDir() returned nil map on partial failure")
	}
	if _, ok := files["good"]; !ok {
		t.Error("good project missing")
	}
	if _, ok := files["broken"]; ok {
		t.Error("broken project loaded")
	}
	if _, ok := files["dup"]; !ok {
		t.Error("first dup file missing")
	}

	var list *ErrorList
	if !errors.As(err, &list) {
		t.Fatalf("error type = %T, want *ErrorList", err)
	}
	if len(list.Errors) != 2 {
		t.Errorf("errors = %d, want 2: %v", len(list.Errors), err)
	}
	if !strings.Contains(err.Error(), `project "dup" is already defined`) {
		t.Errorf("error = %v, want duplicate project", err)
	}
}

func TestLoader_LoadDir_Missing(t *testing.T) {
	files, err := NewLoader(nil).LoadDir(filepath.Join(t.TempDir(), "missing"))
	if files != nil {
		t.Errorf("files = %v, want nil", files)
	}

	var le *LoadError
	if !errors.As(err, &le) || le.Message != "directory not found" {
		t.Errorf("error = %v, want directory not found", err)
	}
}

func TestLoader_LoadFile_Errors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		path    string
		loader  *Loader
		wantMsg string
	}{
		{
			name:    "missing file",
			path:    filepath.Join(dir, "missing.yaml"),
			loader:  NewLoader(nil),
			wantMsg: "file not found",
		},
		{
			name:    "directory",
			path:    dir,
			loader:  NewLoader(nil),
			wantMsg: "not a regular file",
		},
		{
			name: "too large",
			path: writeFile(t, dir, "large.yaml", emailRules),
			loader: NewLoader(&LoaderConfig{
				MaxFileSize: 10,
				Extensions:  []string{".yaml"},
			}),
			wantMsg: "exceeds maximum 10 bytes",
		},
		{
			name:    "invalid utf-8",
			path:    writeFile(t, dir, "binary.yaml", "\xff\xfe"),
			loader:  NewLoader(nil),
			wantMsg: "invalid UTF-8",
		},
		{
			name:    "invalid yaml",
			path:    writeFile(t, dir, "invalid.yaml", "rules: {unclosed"),
			loader:  NewLoader(nil),
			wantMsg: "YAML parsing failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.loader.LoadFile(tt.path)

			var le *LoadError
			if !errors.As(err, &le) {
				t.Fatalf("error = %v, want *LoadError", err)
			}
			if !strings.Contains(le.Message, tt.wantMsg) {
				t.Errorf("message = %q, want it to contain %q", le.Message, tt.wantMsg)
			}
			if le.FilePath != tt.path {
				t.Errorf("FilePath = %q, want %q", le.FilePath, tt.path)
			}
		})
	}
}

func TestLoader_IsRuleFile(t *testing.T) {
	loader := NewLoader(nil)

	tests := []struct {
		name string
		want bool
	}{
		{"acme.yaml", true},
		{"acme.YML", true},
		{"/etc/pii/acme.json", true},
		{".acme.yaml", false},
		{"acme.yaml.swp", false},
		{"acme", false},
	}

	for _, tt := range tests {
		if got := loader.IsRuleFile(tt.name); got != tt.want {
			t.Errorf("IsRuleFile(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestProjectName(t *testing.T) {
	if got := ProjectName("/etc/pii/acme.prod.yaml"); got != "acme.prod" {
		t.Errorf("ProjectName() = %q, want %q", got, "acme.prod")
	}
}
