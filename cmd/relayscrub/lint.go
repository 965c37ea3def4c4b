package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"mercator-hq/relayscrub/pkg/cli"
	"mercator-hq/relayscrub/pkg/pii"
	"mercator-hq/relayscrub/pkg/scrub"
)

var lintFlags struct {
	file   string
	dir    string
	format string
}

var lintCmd = &cobra.Command{
	Use:   "lint",
	Short: "Validate rule files",
	Long: `Validate PII rule files without starting the relay.

The lint command loads and compiles every rule file:
  - File size, encoding and YAML/JSON syntax
  - Rule definitions (types, patterns, redaction methods)
  - Applications (selector syntax, references to defined rules)
  - Legacy datascrubbing switches

Examples:
  # Lint single file
  relayscrub lint --file pii/acme.yaml

  # Lint the rule directory
  relayscrub lint --dir pii/

  # JSON output for CI/CD
  relayscrub lint --dir pii/ --format json`,
	RunE: lintRules,
}

func init() {
	rootCmd.AddCommand(lintCmd)

	lintCmd.Flags().StringVarP(&lintFlags.file, "file", "f", "", "rule file to validate")
	lintCmd.Flags().StringVarP(&lintFlags.dir, "dir", "d", "", "directory of rule files")
	lintCmd.Flags().StringVar(&lintFlags.format, "format", "text", "output format: text, json")
}

func lintRules(cmd *cobra.Command, args []string) error {
	if lintFlags.file == "" && lintFlags.dir == "" {
		return fmt.Errorf("either --file or --dir must be specified")
	}

	loader := scrub.NewLoader(nil)

	var files []string
	if lintFlags.file != "" {
		files = append(files, lintFlags.file)
	}
	if lintFlags.dir != "" {
		entries, err := os.ReadDir(lintFlags.dir)
		if err != nil {
			return fmt.Errorf("failed to list rule files: %w", err)
		}
		for _, entry := range entries {
			if !entry.IsDir() && loader.IsRuleFile(entry.Name()) {
				files = append(files, filepath.Join(lintFlags.dir, entry.Name()))
			}
		}
	}

	if len(files) == 0 {
		return fmt.Errorf("no rule files found")
	}
	sort.Strings(files)

	results := make([]ValidationResult, 0, len(files))
	for _, file := range files {
		results = append(results, validateRuleFile(loader, file))
	}

	out := io.Writer(os.Stdout)
	if cmd != nil {
		out = cmd.OutOrStdout()
	}

	if lintFlags.format == "json" {
		formatter, _ := cli.NewFormatter(cli.FormatJSON)
		if err := formatter.FormatTo(out, results); err != nil {
			return err
		}
	} else {
		outputText(out, results)
	}

	for _, r := range results {
		if !r.Valid {
			return cli.NewCommandError("lint", fmt.Errorf("validation failed"))
		}
	}
	return nil
}

// ValidationResult represents the validation result for a single rule file.
type ValidationResult struct {
	File    string            `json:"file"`
	Project string            `json:"project"`
	Valid   bool              `json:"valid"`
	Version string            `json:"version,omitempty"`
	Rules   int               `json:"applications"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

// ValidationError represents a single problem found in a rule file.
type ValidationError struct {
	Rule     string `json:"rule,omitempty"`
	Selector string `json:"selector,omitempty"`
	Message  string `json:"message"`
	Type     string `json:"type,omitempty"`
}

func validateRuleFile(loader *scrub.Loader, path string) ValidationResult {
	result := ValidationResult{
		File:    path,
		Project: scrub.ProjectName(path),
		Valid:   true,
	}

	file, err := loader.LoadFile(path)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, ValidationError{Message: err.Error(), Type: "load"})
		return result
	}

	snap, err := scrub.Compile(file.Project, file.Path, file.Config)
	if err != nil {
		result.Valid = false
		result.Errors = toValidationErrors(err)
		return result
	}

	result.Version = snap.Version
	result.Rules = snap.RuleCount()
	return result
}

// toValidationErrors flattens the configuration errors in err.
func toValidationErrors(err error) []ValidationError {
	var errs pii.ConfigErrors
	if !errors.As(err, &errs) {
		return []ValidationError{{Message: err.Error()}}
	}

	out := make([]ValidationError, 0, len(errs))
	for _, e := range errs {
		out = append(out, ValidationError{
			Rule:     e.RuleID,
			Selector: e.Selector,
			Message:  e.Message,
			Type:     string(e.Kind),
		})
	}
	return out
}

func outputText(w io.Writer, results []ValidationResult) {
	totalErrors := 0

	for _, result := range results {
		fmt.Fprintf(w, "Validating %s...\n", result.File)

		if result.Valid {
			fmt.Fprintf(w, "✓ Project %s: %d application(s), version %s\n", result.Project, result.Rules, result.Version)
		}

		for _, err := range result.Errors {
			fmt.Fprintf(w, "✗ Error: %s", err.Message)
			switch {
			case err.Rule != "":
				fmt.Fprintf(w, " (rule %s)", err.Rule)
			case err.Selector != "":
				fmt.Fprintf(w, " (selector %s)", err.Selector)
			}
			if err.Type != "" {
				fmt.Fprintf(w, " [%s]", err.Type)
			}
			fmt.Fprintln(w)
			totalErrors++
		}

		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "Summary:")
	fmt.Fprintf(w, "  %d file(s), %d error(s)\n", len(results), totalErrors)
}
