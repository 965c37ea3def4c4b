package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/relayscrub/pkg/cli"
)

var scrubFlags struct {
	project   string
	rulesDir  string
	report    string
	assignIDs bool
}

var scrubCmd = &cobra.Command{
	Use:   "scrub [file...]",
	Short: "Scrub events from files or stdin",
	Long: `Scrub one or more events and print the results.

Each file holds one JSON event. Without arguments, or with "-", a single
event is read from stdin. Scrubbed events are written to stdout, one per
line, with their _meta tree. Rejected events are reported on stderr and
make the command exit with status 3.

Examples:
  # Scrub an event with the rules of project acme
  relayscrub scrub --project acme event.json

  # Use a different rule directory and print a report
  relayscrub scrub --rules ./pii --report text event.json

  # Read from stdin
  cat event.json | relayscrub scrub -p acme`,
	RunE: runScrub,
}

func init() {
	rootCmd.AddCommand(scrubCmd)

	scrubCmd.Flags().StringVarP(&scrubFlags.project, "project", "p", "", "project whose rules apply (default: pii.default_project)")
	scrubCmd.Flags().StringVarP(&scrubFlags.rulesDir, "rules", "r", "", "override the rule directory")
	scrubCmd.Flags().StringVar(&scrubFlags.report, "report", "", "print a scrub report to stderr: text, json")
	scrubCmd.Flags().BoolVar(&scrubFlags.assignIDs, "assign-ids", false, "assign an event_id to events without one")
}

func runScrub(cmd *cobra.Command, args []string) error {
	var report cli.Formatter
	if scrubFlags.report != "" {
		var err error
		if report, err = cli.NewFormatter(cli.OutputFormat(scrubFlags.report)); err != nil {
			return cli.NewConfigError("--report", err.Error())
		}
	}

	env, err := newEnvironment(envOptions{
		rulesDir:       scrubFlags.rulesDir,
		assignEventIDs: scrubFlags.assignIDs,
		logWriter:      cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}
	defer env.Close()

	if len(args) == 0 {
		args = []string{"-"}
	}
	return scrubFiles(cmd.Context(), env, scrubFlags.project, args, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr(), report)
}

// scrubFiles scrubs every named input with the rules of project. "-"
// reads from stdin.
func scrubFiles(ctx context.Context, env *environment, project string, names []string, stdin io.Reader, stdout, stderr io.Writer, report cli.Formatter) error {
	if ctx == nil {
		ctx = context.Background()
	}

	snap, err := env.manager.Snapshot(project)
	if err != nil {
		return cli.NewCommandError("scrub", err)
	}

	rejected := 0
	for _, name := range names {
		data, err := readInput(name, stdin)
		if err != nil {
			return cli.NewCommandError("scrub", err)
		}

		out, rep, err := env.scrubber.ScrubJSON(ctx, data, snap)
		if report != nil && rep != nil {
			if ferr := report.FormatTo(stderr, rep); ferr != nil {
				return ferr
			}
		}
		if err != nil {
			fmt.Fprintf(stderr, "✗ %s: %v\n", name, err)
			rejected++
			continue
		}

		if _, err := fmt.Fprintf(stdout, "%s\n", out); err != nil {
			return err
		}
	}

	if rejected > 0 {
		return &cli.RejectedError{Rejected: rejected, Total: len(names)}
	}
	return nil
}

func readInput(name string, stdin io.Reader) ([]byte, error) {
	if name == "-" {
		if stdin == nil {
			return nil, errors.New("no stdin available")
		}
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return data, nil
}
