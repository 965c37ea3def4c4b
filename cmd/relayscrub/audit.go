package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/relayscrub/pkg/audit"
	"mercator-hq/relayscrub/pkg/cli"
)

var auditFlags struct {
	project string
	eventID string
	rule    string
	status  string
	since   time.Duration
	limit   int
	format  string
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Query stored scrub reports",
	Long: `Query the audit trail written by the run command.

Each record counts the remarks per rule and the meta errors per kind of one
event. Records never contain payload content.

Examples:
  # Latest reports
  relayscrub audit --config config.yaml

  # Events of one project where the email rule fired in the last day
  relayscrub audit --project acme --rule @email --since 24h

  # Rejected events as JSON
  relayscrub audit --status invalid --format json`,
	RunE: queryAudit,
}

func init() {
	rootCmd.AddCommand(auditCmd)

	auditCmd.Flags().StringVarP(&auditFlags.project, "project", "p", "", "only records of this project")
	auditCmd.Flags().StringVarP(&auditFlags.eventID, "event", "e", "", "only records of this event id")
	auditCmd.Flags().StringVar(&auditFlags.rule, "rule", "", "only records with remarks of this rule")
	auditCmd.Flags().StringVar(&auditFlags.status, "status", "", "only records with this status (scrubbed, invalid, failed)")
	auditCmd.Flags().DurationVar(&auditFlags.since, "since", 0, "only records newer than this duration")
	auditCmd.Flags().IntVarP(&auditFlags.limit, "limit", "n", audit.DefaultQueryLimit, "maximum number of records")
	auditCmd.Flags().StringVar(&auditFlags.format, "format", "text", "output format: text, json, ndjson")
}

func queryAudit(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.Audit.Enabled || cfg.Audit.Backend == "memory" {
		return cli.NewConfigError("audit", "no persistent audit trail is configured (set audit.enabled with the sqlite backend)")
	}

	formatter, err := cli.NewFormatter(cli.OutputFormat(auditFlags.format))
	if err != nil {
		return err
	}

	store, err := audit.Open(&cfg.Audit, nil)
	if err != nil {
		return cli.NewCommandError("audit", err)
	}
	defer store.Close()

	query := &audit.Query{
		Project: auditFlags.project,
		EventID: auditFlags.eventID,
		RuleID:  auditFlags.rule,
		Status:  auditFlags.status,
		Limit:   auditFlags.limit,
	}
	if auditFlags.since > 0 {
		start := time.Now().Add(-auditFlags.since)
		query.StartTime = &start
	}

	records, err := store.Query(cmd.Context(), query)
	if err != nil {
		return cli.NewCommandError("audit", err)
	}

	out := cmd.OutOrStdout()
	switch cli.OutputFormat(auditFlags.format) {
	case cli.FormatNDJSON:
		for _, r := range records {
			if err := formatter.FormatTo(out, r); err != nil {
				return err
			}
		}
		return nil
	case cli.FormatJSON:
		return formatter.FormatTo(out, records)
	}
	return writeAuditTable(out, records)
}

// writeAuditTable renders records as an aligned table.
func writeAuditTable(w io.Writer, records []*audit.Record) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "No audit records found")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tPROJECT\tEVENT\tSTATUS\tREMARKS\tERRORS")
	for _, r := range records {
		eventID := r.EventID
		if eventID == "" {
			eventID = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.RecordedAt.Local().Format(time.RFC3339),
			r.Project,
			eventID,
			r.Status,
			formatRuleCounts(r.Remarks),
			formatErrorCounts(r.Errors),
		)
	}
	return tw.Flush()
}

func formatRuleCounts(counts []audit.RuleCount) string {
	if len(counts) == 0 {
		return "-"
	}
	parts := make([]string, len(counts))
	for i, rc := range counts {
		parts[i] = fmt.Sprintf("%s/%s=%d", rc.RuleID, rc.Kind, rc.Count)
	}
	return strings.Join(parts, ",")
}

func formatErrorCounts(counts map[string]int) string {
	if len(counts) == 0 {
		return "-"
	}
	kinds := make([]string, 0, len(counts))
	for kind := range counts {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	parts := make([]string, len(kinds))
	for i, kind := range kinds {
		parts[i] = fmt.Sprintf("%s=%d", kind, counts[kind])
	}
	return strings.Join(parts, ",")
}
