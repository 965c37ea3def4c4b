package scrub

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoConfig is returned when neither the requested project nor the
	// default project has a compiled configuration.
	ErrNoConfig = errors.New("no scrubbing configuration")

	// ErrEventTooLarge is returned for serialized events over the size limit.
	ErrEventTooLarge = errors.New("event exceeds size limit")
)

// LoadError represents an error that occurred while reading a project's
// rule file. This includes file system errors, size and encoding checks and
// YAML decoding.
type LoadError struct {
	// FilePath is the path to the file that failed to load
	FilePath string

	// Message describes the error
	Message string

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to load rule file %q: %s: %v", e.FilePath, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to load rule file %q: %s", e.FilePath, e.Message)
}

// Unwrap implements the errors.Unwrap interface for error chain support.
func (e *LoadError) Unwrap() error {
	return e.Cause
}

// CompileError wraps the compilation errors of one project.
type CompileError struct {
	// Project is the project whose configuration was rejected
	Project string

	// FilePath is the rule file the configuration was read from
	FilePath string

	// Cause holds the compiler errors, usually a pii.ConfigErrors
	Cause error
}

// Error implements the error interface.
func (e *CompileError) Error() string {
	if e.FilePath != "" {
		return fmt.Sprintf("invalid configuration for project %q in %q: %v", e.Project, e.FilePath, e.Cause)
	}
	return fmt.Sprintf("invalid configuration for project %q: %v", e.Project, e.Cause)
}

// Unwrap implements the errors.Unwrap interface for error chain support.
func (e *CompileError) Unwrap() error {
	return e.Cause
}

// ErrorList contains the errors of a reload that touched several projects.
// Projects that loaded fine are applied regardless.
type ErrorList struct {
	Errors []error
}

// Error implements the error interface.
func (e *ErrorList) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d errors occurred:\n", len(e.Errors))
	for i, err := range e.Errors {
		fmt.Fprintf(&sb, "  %d. %v\n", i+1, err)
	}
	return sb.String()
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (e *ErrorList) Unwrap() []error {
	return e.Errors
}

// Add adds an error to the list.
func (e *ErrorList) Add(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

// HasErrors returns true if the list contains any errors.
func (e *ErrorList) HasErrors() bool {
	return len(e.Errors) > 0
}

// ToError returns nil if there are no errors, the single error if there is one,
// or the ErrorList itself if there are multiple errors.
func (e *ErrorList) ToError() error {
	if len(e.Errors) == 0 {
		return nil
	}
	if len(e.Errors) == 1 {
		return e.Errors[0]
	}
	return e
}
