package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/trafficmon/trafficmon/internal/actions"
	"github.com/trafficmon/trafficmon/internal/audit"
	"github.com/trafficmon/trafficmon/internal/i18n"
	"github.com/trafficmon/trafficmon/internal/session"
	"github.com/trafficmon/trafficmon/sdk"
)

func newLoginCmd() *cobra.Command {
	var username string
	var passwordStdin bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the monitoring backend and store the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			env, err := openEnv(ctx, false)
			if err != nil {
				return err
			}
			lang := uiLang(env.cfg)

			in := bufio.NewReader(cmd.InOrStdin())
			if username == "" {
				fmt.Fprint(cmd.OutOrStdout(), "Username: ")
				line, err := in.ReadString('\n')
				if err != nil && !errors.Is(err, io.EOF) {
					return err
				}
				username = strings.TrimSpace(line)
			}
			password, err := readPassword(cmd, in, passwordStdin)
			if err != nil {
				return err
			}
			if username == "" || password == "" {
				return errors.New(i18n.T(lang, i18n.ErrMissingCredentials))
			}

			rec := recorder(openAudit(env.cfg, env.logger))
			defer closeRecorder(rec)

			tok, err := env.api.Login(ctx, username, password)
			if err != nil {
				record(rec, username, audit.ActionLogin, "cli", audit.OutcomeFailed, err.Error())
				if errors.Is(err, sdk.ErrInvalidCredentials) {
					return errors.New(i18n.T(lang, i18n.ErrBadCredentials))
				}
				return explain(lang, err)
			}

			sess := session.New(tok.AccessToken, username, env.cfg.Session.TTL(), time.Now())
			if err := env.store.Put(ctx, sess); err != nil {
				return fmt.Errorf("storing session: %w", err)
			}
			record(rec, username, audit.ActionLogin, "cli", audit.OutcomeOK, "")

			fmt.Fprintf(cmd.OutOrStdout(), "  %s signed in as %s\n", color.GreenString("✓"), username)
			if !sess.ExpiresAt.IsZero() {
				fmt.Fprintf(cmd.OutOrStdout(), "  session expires %s\n", sess.ExpiresAt.Local().Format(time.DateTime))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "username (prompted when empty)")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the password from stdin")
	return cmd
}

// readPassword reads without echo from a terminal, or one line from in.
func readPassword(cmd *cobra.Command, in *bufio.Reader, fromStdin bool) (string, error) {
	if f, ok := cmd.InOrStdin().(*os.File); ok && !fromStdin && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.OutOrStdout(), "Password: ")
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.OutOrStdout())
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return string(b), nil
	}
	line, err := in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Delete the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			env, err := openEnv(ctx, false)
			if err != nil {
				return err
			}
			removed, err := env.store.Delete(ctx, "")
			if err != nil {
				return fmt.Errorf("removing session: %w", err)
			}
			if !removed {
				fmt.Fprintln(cmd.OutOrStdout(), "  not signed in")
				return nil
			}
			rec := recorder(openAudit(env.cfg, env.logger))
			defer closeRecorder(rec)
			record(rec, env.actor(), audit.ActionLogout, "cli", audit.OutcomeOK, "")
			fmt.Fprintf(cmd.OutOrStdout(), "  %s %s\n", color.GreenString("✓"), i18n.T(uiLang(env.cfg), i18n.MsgLoggedOut))
			return nil
		},
	}
}

// recorder adapts an optional audit store; a nil store records nothing.
func recorder(store *audit.Store) actions.Recorder {
	if store == nil {
		return nil
	}
	return store
}

func record(rec actions.Recorder, actor, action, target, outcome, detail string) {
	if rec != nil {
		rec.Record(actor, action, target, outcome, detail)
	}
}

// closeRecorder flushes pending entries; the CLI exits right after.
func closeRecorder(rec actions.Recorder) {
	if c, ok := rec.(interface{ Close() error }); ok {
		_ = c.Close()
	}
}
