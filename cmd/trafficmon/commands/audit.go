package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/trafficmon/trafficmon/internal/audit"
)

func newAuditCmd() *cobra.Command {
	var action, actor, since string
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Query the operator audit trail",
		Example: `  trafficmon audit
  trafficmon audit --action incident.close
  trafficmon audit --actor admin --since 24h
  trafficmon audit --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

			store, err := audit.Open(cfg.Audit.DSN, logger)
			if err != nil {
				return fmt.Errorf("opening audit trail: %w", err)
			}
			defer store.Close() //nolint:errcheck // best-effort cleanup

			var sinceTime string
			if since != "" {
				dur, err := time.ParseDuration(since)
				if err != nil {
					return fmt.Errorf("invalid duration %q: %w", since, err)
				}
				sinceTime = time.Now().Add(-dur).UTC().Format(audit.TimeLayout)
			}

			entries, err := store.Query(audit.QueryOpts{
				Action: action,
				Actor:  actor,
				Since:  sinceTime,
				Limit:  limit,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			}
			printAudit(out, entries)
			return nil
		},
	}

	cmd.Flags().StringVar(&action, "action", "", "filter by action (login, incident.close, rule.create, ...)")
	cmd.Flags().StringVar(&actor, "actor", "", "filter by operator")
	cmd.Flags().StringVar(&since, "since", "", "only entries newer than this duration (e.g. 1h, 24h)")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum entries")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print entries as JSON")
	return cmd
}

func printAudit(w io.Writer, entries []audit.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No audit entries found.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tACTOR\tACTION\tTARGET\tOUTCOME\tDETAIL")
	for _, e := range entries {
		ts := e.Timestamp
		if t, err := time.Parse(audit.TimeLayout, e.Timestamp); err == nil {
			ts = t.Local().Format(time.DateTime)
		}
		outcome := e.Outcome
		switch e.Outcome {
		case audit.OutcomeOK:
			outcome = color.GreenString(outcome)
		case audit.OutcomeFailed, audit.OutcomeLimited:
			outcome = color.RedString(outcome)
		case audit.OutcomeNotSupported:
			outcome = color.YellowString(outcome)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", ts, e.Actor, e.Action, e.Target, outcome, e.Detail)
	}
	_ = tw.Flush()
}
