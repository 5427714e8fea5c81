package commands

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/trafficmon/trafficmon/internal/actions"
	"github.com/trafficmon/trafficmon/internal/i18n"
	"github.com/trafficmon/trafficmon/internal/view"
)

func newTrafficCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "traffic",
		Short: "Show the top traffic pairs of the last hour",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			env, err := openEnv(ctx, true)
			if err != nil {
				return err
			}
			lang := uiLang(env.cfg)
			samples, err := env.api.TopTraffic(ctx)
			if err != nil {
				return explain(lang, err)
			}
			printTraffic(cmd.OutOrStdout(), lang, view.TrafficRows(samples))
			return nil
		},
	}
}

func newCaptureCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "capture",
		Short: "Run one capture and analysis batch on the backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			env, err := openEnv(ctx, true)
			if err != nil {
				return err
			}
			rec := recorder(openAudit(env.cfg, env.logger))
			defer closeRecorder(rec)

			lang := uiLang(env.cfg)
			cmds := &actions.Commands{API: env.api, Audit: rec, Actor: env.actor()}
			fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", i18n.T(lang, i18n.MsgLoading))
			res, err := cmds.Start(ctx)
			if err != nil {
				return explain(lang, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "  %s %s\n", color.GreenString("✓"),
				i18n.Tf(lang, i18n.MsgCaptureDone, res.Captured, res.Processed, res.Incidents))
			return nil
		},
	}
}

func printTraffic(w io.Writer, lang i18n.Lang, rows []view.TrafficRow) {
	if len(rows) == 0 {
		fmt.Fprintf(w, "  %s\n", i18n.T(lang, i18n.CellNoData))
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SRC IP\tDST IP\tMB")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.SrcIP, r.DstIP, r.MB)
	}
	_ = tw.Flush()
}
