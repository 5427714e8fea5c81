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
	"github.com/trafficmon/trafficmon/sdk"
)

func newRulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List filtering rules",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			env, err := openEnv(ctx, true)
			if err != nil {
				return err
			}
			lang := uiLang(env.cfg)
			rules, err := env.api.Rules(ctx)
			if err != nil {
				return explain(lang, err)
			}
			printRules(cmd.OutOrStdout(), lang, view.RuleRows(lang, rules))
			return nil
		},
	}
	cmd.AddCommand(newRuleCreateCmd())
	return cmd
}

func newRuleCreateCmd() *cobra.Command {
	var rule sdk.Rule

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a manual filtering rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rule.Name = args[0]
			ctx := cmd.Context()
			env, err := openEnv(ctx, true)
			if err != nil {
				return err
			}
			rec := recorder(openAudit(env.cfg, env.logger))
			defer closeRecorder(rec)

			lang := uiLang(env.cfg)
			cmds := &actions.Commands{API: env.api, Audit: rec, Actor: env.actor()}
			created, err := cmds.Create(ctx, rule)
			if err != nil {
				return explain(lang, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "  %s %s (#%d %s)\n", color.GreenString("✓"), i18n.T(lang, i18n.MsgRuleCreated), created.ID, created.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&rule.Category, "category", "custom", "rule category")
	cmd.Flags().IntVar(&rule.Severity, "severity", 2, "severity 1-5")
	cmd.Flags().StringVar(&rule.SrcIP, "src", "", "source address or CIDR (* for any)")
	cmd.Flags().StringVar(&rule.DstIP, "dst", "", "destination address or CIDR (* for any)")
	cmd.Flags().StringVar(&rule.Action, "action", sdk.ActionDrop, "DROP, REJECT or ACCEPT")
	return cmd
}

func printRules(w io.Writer, lang i18n.Lang, rows []view.RuleRow) {
	if len(rows) == 0 {
		fmt.Fprintf(w, "  %s\n", i18n.T(lang, i18n.CellNoRules))
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSRC IP\tDST IP\tPORT\tACTION\tEXPIRATION\tTYPE")
	for _, r := range rows {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.Name, r.SrcIP, r.DstIP, r.Port, paint(r.Action), r.Expiration, r.Type)
	}
	_ = tw.Flush()
}
