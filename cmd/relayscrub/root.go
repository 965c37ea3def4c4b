package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/relayscrub/pkg/cli"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "relayscrub",
	Short: "relayscrub - PII scrubbing for telemetry relays",
	Long: `relayscrub removes personal data from telemetry events before they leave
the relay.

Each event is normalized, trimmed to the configured limits and scrubbed with
the PII rules of its project. Every change is recorded in the event's _meta
tree, so downstream consumers can tell what was removed and why.

Rules live in one file per project (<project>.yaml, .yml or .json) in the
configured rule directory.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return cli.ExitCode(err)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default: built-in defaults)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
