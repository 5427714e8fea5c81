package commands

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/trafficmon/trafficmon/internal/tui"
	"github.com/trafficmon/trafficmon/sdk"
)

func newTUICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the terminal console",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			env, err := openEnv(ctx, true)
			if err != nil {
				return err
			}
			rec := recorder(openAudit(env.cfg, env.logger))
			defer closeRecorder(rec)

			m := tui.New(ctx, tui.Options{
				API:    tuiClient(env),
				Lang:   uiLang(env.cfg),
				Actor:  env.actor(),
				Audit:  rec,
				Logger: env.logger,
			})
			_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
			return err
		},
	}
}

// tuiClient drops the stderr expiry hint: the program owns the alternate
// screen and shows its own logged-out view after a 401.
func tuiClient(env *cliEnv) *sdk.Client {
	return env.api.OnUnauthorized(nil)
}
