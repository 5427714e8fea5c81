package commands

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/trafficmon/trafficmon/internal/audit"
	"github.com/trafficmon/trafficmon/internal/mcp"
)

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve trafficmon tools over MCP (stdio)",
		Long:  "Runs an MCP server on stdin/stdout with the CLI session. Sign in with `trafficmon login` first.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			env, err := openEnv(ctx, true)
			if err != nil {
				return err
			}
			// stdout carries the protocol; logs go to stderr only.
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

			opts := mcp.Options{API: env.api, Actor: env.actor(), Version: version, Logger: logger}
			store, err := audit.Open(env.cfg.Audit.DSN, logger)
			if err != nil {
				logger.Warn("audit trail unavailable", "error", err)
			} else {
				defer func() { _ = store.Close() }()
				opts.Audit = store
			}

			return mcp.Serve(ctx, mcp.NewServer(opts))
		},
	}
}
