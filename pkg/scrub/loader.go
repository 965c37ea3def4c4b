package scrub

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"
)

// LoaderConfig contains configuration for the rule file loader.
type LoaderConfig struct {
	// MaxFileSize is the maximum file size in bytes (default: 1MB)
	MaxFileSize int64

	// Extensions is the list of rule file extensions (default: .yaml, .yml, .json)
	Extensions []string

	// SkipHidden controls whether to skip hidden files (default: true)
	SkipHidden bool
}

// DefaultLoaderConfig returns the default loader configuration.
func DefaultLoaderConfig() *LoaderConfig {
	return &LoaderConfig{
		MaxFileSize: 1 << 20,
		Extensions:  []string{".yaml", ".yml", ".json"},
		SkipHidden:  true,
	}
}

// ProjectFile is a rule file read from disk.
type ProjectFile struct {
	// Project is the file name without extension
	Project string

	// Path is the file path
	Path string

	// Config is the decoded content
	Config *ProjectConfig
}

// Loader reads project rule files from the file system.
type Loader struct {
	config *LoaderConfig
}

// NewLoader creates a loader. A nil config uses DefaultLoaderConfig.
func NewLoader(config *LoaderConfig) *Loader {
	if config == nil {
		config = DefaultLoaderConfig()
	}
	return &Loader{config: config}
}

// LoadFile reads and decodes a single rule file. It performs file size
// validation, UTF-8 validation and YAML decoding.
func (l *Loader) LoadFile(path string) (*ProjectFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		switch {
		case os.IsNotExist(err):
			return nil, &LoadError{FilePath: path, Message: "file not found", Cause: err}
		case os.IsPermission(err):
			return nil, &LoadError{FilePath: path, Message: "permission denied", Cause: err}
		}
		return nil, &LoadError{FilePath: path, Message: "failed to access file", Cause: err}
	}

	if !info.Mode().IsRegular() {
		return nil, &LoadError{FilePath: path, Message: "not a regular file"}
	}

	if l.config.MaxFileSize > 0 && info.Size() > l.config.MaxFileSize {
		return nil, &LoadError{
			FilePath: path,
			Message:  fmt.Sprintf("file size %d bytes exceeds maximum %d bytes", info.Size(), l.config.MaxFileSize),
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{FilePath: path, Message: "failed to read file", Cause: err}
	}

	if !utf8.Valid(data) {
		return nil, &LoadError{FilePath: path, Message: "file contains invalid UTF-8 encoding"}
	}

	cfg, err := ParseProjectConfig(data)
	if err != nil {
		return nil, &LoadError{FilePath: path, Message: "YAML parsing failed", Cause: err}
	}

	return &ProjectFile{Project: ProjectName(path), Path: path, Config: cfg}, nil
}

// LoadDir reads every rule file directly inside dir. Subdirectories are
// not descended into. Files that fail to load are reported in an
// ErrorList next to the files that loaded; the map is nil only when the
// directory itself cannot be read.
func (l *Loader) LoadDir(dir string) (map[string]*ProjectFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &LoadError{FilePath: dir, Message: "directory not found", Cause: err}
		}
		return nil, &LoadError{FilePath: dir, Message: "failed to read directory", Cause: err}
	}

	files := make(map[string]*ProjectFile)
	errList := &ErrorList{}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !l.IsRuleFile(name) {
			continue
		}

		path := filepath.Join(dir, name)
		file, err := l.LoadFile(path)
		if err != nil {
			errList.Add(err)
			continue
		}

		if prev, ok := files[file.Project]; ok {
			errList.Add(&LoadError{
				FilePath: path,
				Message:  fmt.Sprintf("project %q is already defined in %q", file.Project, prev.Path),
			})
			continue
		}
		files[file.Project] = file
	}

	return files, errList.ToError()
}

// IsRuleFile reports whether name has a rule file extension and is not
// skipped as hidden.
func (l *Loader) IsRuleFile(name string) bool {
	base := filepath.Base(name)
	if l.config.SkipHidden && strings.HasPrefix(base, ".") {
		return false
	}
	ext := strings.ToLower(filepath.Ext(base))
	for _, valid := range l.config.Extensions {
		if ext == strings.ToLower(valid) {
			return true
		}
	}
	return false
}

// ProjectName derives the project name from a rule file path.
func ProjectName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// sortedProjects returns the keys of files in order.
func sortedProjects(files map[string]*ProjectFile) []string {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
