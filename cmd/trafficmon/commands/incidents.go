package commands

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/trafficmon/trafficmon/internal/actions"
	"github.com/trafficmon/trafficmon/internal/i18n"
	"github.com/trafficmon/trafficmon/internal/view"
)

func newIncidentsCmd() *cobra.Command {
	var openOnly bool

	cmd := &cobra.Command{
		Use:   "incidents",
		Short: "List security incidents",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			env, err := openEnv(ctx, true)
			if err != nil {
				return err
			}
			lang := uiLang(env.cfg)
			incidents, err := env.api.Incidents(ctx)
			if err != nil {
				return explain(lang, err)
			}
			rows := view.IncidentRows(lang, incidents)
			if openOnly {
				kept := rows[:0]
				for _, r := range rows {
					if r.Closable {
						kept = append(kept, r)
					}
				}
				rows = kept
			}
			printIncidents(cmd.OutOrStdout(), lang, rows)
			return nil
		},
	}
	cmd.Flags().BoolVar(&openOnly, "open", false, "hide closed incidents")

	cmd.AddCommand(&cobra.Command{
		Use:   "close <id>",
		Short: "Close an incident",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid incident id %q", args[0])
			}
			ctx := cmd.Context()
			env, err := openEnv(ctx, true)
			if err != nil {
				return err
			}
			rec := recorder(openAudit(env.cfg, env.logger))
			defer closeRecorder(rec)

			cmds := &actions.Commands{API: env.api, Audit: rec, Actor: env.actor()}
			lang := uiLang(env.cfg)
			if err := cmds.Close(ctx, id); err != nil {
				return explain(lang, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "  %s %s (#%d)\n", color.GreenString("✓"), i18n.T(lang, i18n.MsgClosed), id)
			return nil
		},
	})
	return cmd
}

func printIncidents(w io.Writer, lang i18n.Lang, rows []view.IncidentRow) {
	if len(rows) == 0 {
		fmt.Fprintf(w, "  %s\n", i18n.T(lang, i18n.CellNoIncident))
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\tSEVERITY\tSRC IP\tDST IP\tSTATUS\tTIME")
	for _, r := range rows {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.Type, paint(r.Severity), r.SrcIP, r.DstIP, paint(r.Status), r.Time)
	}
	_ = tw.Flush()
}

// paint colors a badge label for the terminal.
func paint(b view.Badge) string {
	switch b.Class {
	case view.BadgeCritical, view.BadgeDanger:
		return color.RedString(b.Label)
	case view.BadgeWarning:
		return color.YellowString(b.Label)
	case view.BadgeSuccess:
		return color.GreenString(b.Label)
	}
	return color.CyanString(b.Label)
}
