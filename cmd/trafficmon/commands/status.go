package commands

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/trafficmon/trafficmon/internal/i18n"
	"github.com/trafficmon/trafficmon/internal/view"
)

func newStatusCmd() *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the system summary from the backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			env, err := openEnv(ctx, !check)
			if err != nil {
				return err
			}
			lang := uiLang(env.cfg)
			out := cmd.OutOrStdout()

			if check {
				state, err := env.api.Health(ctx)
				if err != nil {
					fmt.Fprintf(out, "  %s %s  %s\n", color.RedString("✗"), env.cfg.API.BaseURL, err)
					return explain(lang, err)
				}
				fmt.Fprintf(out, "  %s %s  %s\n", color.GreenString("✓"), env.cfg.API.BaseURL, state)
				return nil
			}

			st, err := env.api.Status(ctx)
			if err != nil {
				return explain(lang, err)
			}
			cards := view.CardsOf(st)

			fmt.Fprintln(out)
			fmt.Fprintln(out, "  trafficmon status")
			fmt.Fprintln(out, "  ────────────────────────────────────────")
			fmt.Fprintf(out, "  %-22s %s\n", i18n.T(lang, i18n.CardIncidents)+":", cards.ActiveIncidents)
			critical := cards.CriticalEvents
			if st.CriticalEvents > 0 {
				critical = color.RedString(critical)
			}
			fmt.Fprintf(out, "  %-22s %s\n", i18n.T(lang, i18n.CardCritical)+":", critical)
			fmt.Fprintf(out, "  %-22s %s\n", i18n.T(lang, i18n.CardNetworkLoad)+":", cards.NetworkLoad)
			fmt.Fprintf(out, "  %-22s %s\n", "Backend:", cards.Status)
			fmt.Fprintf(out, "  %-22s %s (%s)\n", "Signed in:", env.actor(), env.store.Path())
			fmt.Fprintln(out)
			return nil
		},
	}

	cmd.Flags().BoolVar(&check, "check", false, "only probe backend reachability (no login needed)")
	return cmd
}
