package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/trafficmon/trafficmon/internal/audit"
	"github.com/trafficmon/trafficmon/internal/config"
	"github.com/trafficmon/trafficmon/internal/console"
	"github.com/trafficmon/trafficmon/internal/i18n"
	"github.com/trafficmon/trafficmon/internal/session"
	"github.com/trafficmon/trafficmon/internal/telemetry"
	"github.com/trafficmon/trafficmon/sdk"
)

func newServeCmd() *cobra.Command {
	var port int
	var bind string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web console",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if port != 0 {
				cfg.Server.Port = port
			}
			if bind != "" {
				cfg.Server.Bind = bind
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger := newLogger(os.Stderr)

			// Graceful shutdown on SIGINT/SIGTERM
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var traceOut io.Writer
			if cfg.Telemetry.TraceStdout {
				traceOut = os.Stdout
			}
			shutdownTracing, err := telemetry.SetupTracing(traceOut, "trafficmon", version)
			if err != nil {
				return fmt.Errorf("setting up tracing: %w", err)
			}
			defer func() { _ = shutdownTracing(context.Background()) }()

			sessions, closeSessions, err := openSessionStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeSessions()

			store, err := audit.Open(cfg.Audit.DSN, logger)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			api := sdk.NewClient(cfg.API.BaseURL,
				sdk.WithLogger(logger),
				sdk.WithObserver(telemetry.ObserveAPICall),
			)
			srv := console.NewServer(console.Options{
				API:               api,
				Sessions:          sessions,
				Audit:             store,
				Lang:              uiLang(cfg),
				SessionTTL:        cfg.Session.TTL(),
				CookieSecure:      cfg.Server.CookieSecure,
				AttemptsPerMinute: cfg.Login.AttemptsPerMinute,
				Burst:             cfg.Login.Burst,
				Metrics:           cfg.Telemetry.Metrics,
				Logger:            logger,
			})

			go func() {
				err := config.Watch(ctx, cfgFile, logger, func(c *config.Config) {
					logLevel.Set(parseLevel(c.Server.LogLevel))
					srv.SetLang(i18n.Lang(c.UI.Lang))
					logger.Info("config reloaded", "log_level", c.Server.LogLevel, "lang", c.UI.Lang)
				})
				if err != nil {
					logger.Debug("config watch stopped", "path", cfgFile, "error", err)
				}
			}()

			httpSrv := &http.Server{
				Addr:              net.JoinHostPort(cfg.Server.Bind, strconv.Itoa(cfg.Server.Port)),
				Handler:           srv.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
				ReadTimeout:       15 * time.Second,
				// Capture batches run inside the request.
				WriteTimeout: 5 * time.Minute,
				IdleTimeout:  60 * time.Second,
			}

			printBanner(cfg)

			errCh := make(chan error, 1)
			go func() {
				logger.Info("console listening", "addr", httpSrv.Addr, "api", cfg.API.BaseURL, "sessions", cfg.Session.Store)
				errCh <- httpSrv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				logger.Info("shutting down")
				return httpSrv.Shutdown(shutdownCtx)
			}
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "override server port")
	cmd.Flags().StringVar(&bind, "bind", "", "address to bind (default: 127.0.0.1)")
	return cmd
}

// openSessionStore returns the configured server-side session store and a
// function releasing it.
func openSessionStore(ctx context.Context, cfg *config.Config) (session.Store, func(), error) {
	if cfg.Session.Store == "redis" {
		rs, err := session.NewRedisStore(ctx, cfg.Session.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return rs, func() { _ = rs.Close() }, nil
	}
	return session.NewMemoryStore(), func() {}, nil
}

func printBanner(cfg *config.Config) {
	base := fmt.Sprintf("http://%s", net.JoinHostPort(cfg.Server.Bind, strconv.Itoa(cfg.Server.Port)))

	fmt.Println()
	fmt.Println("  trafficmon console")
	fmt.Println("  ────────────────────────────────────────")
	fmt.Printf("  Console:    %s/console\n", base)
	fmt.Printf("  Health:     %s/healthz\n", base)
	if cfg.Telemetry.Metrics {
		fmt.Printf("  Metrics:    %s/metrics\n", base)
	}
	fmt.Println("  ────────────────────────────────────────")
	fmt.Printf("  Backend:    %s\n", cfg.API.BaseURL)
	fmt.Printf("  Sessions:   %s  |  Lang: %s\n", cfg.Session.Store, cfg.UI.Lang)
	fmt.Println()
	fmt.Println("  Press Ctrl+C to stop.")
	fmt.Println()
}
