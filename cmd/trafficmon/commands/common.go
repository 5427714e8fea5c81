package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/trafficmon/trafficmon/internal/audit"
	"github.com/trafficmon/trafficmon/internal/config"
	"github.com/trafficmon/trafficmon/internal/i18n"
	"github.com/trafficmon/trafficmon/internal/session"
	"github.com/trafficmon/trafficmon/internal/telemetry"
	"github.com/trafficmon/trafficmon/sdk"
)

// errNotLoggedIn is returned by commands that need a stored token.
var errNotLoggedIn = errors.New("not logged in: run `trafficmon login` first")

var logLevel = new(slog.LevelVar)

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadOrDefault(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logLevel.Set(parseLevel(cfg.Server.LogLevel))
	return cfg, nil
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func newLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: logLevel}))
}

// quietLogger is for interactive commands whose output is a table: only
// errors reach stderr unless the config asks for debug.
func quietLogger() *slog.Logger {
	level := slog.LevelError
	if logLevel.Level() == slog.LevelDebug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func sessionFile(cfg *config.Config) *session.FileStore {
	path := cfg.Session.File
	if path == "" {
		path = session.DefaultFilePath()
	}
	return session.NewFileStore(path)
}

func uiLang(cfg *config.Config) i18n.Lang {
	return i18n.Lang(cfg.UI.Lang)
}

// cliEnv is what every backend-facing command needs: the config, the stored
// session and a client bound to it.
type cliEnv struct {
	cfg    *config.Config
	store  *session.FileStore
	sess   *session.Session
	api    *sdk.Client
	logger *slog.Logger
}

func (e *cliEnv) actor() string {
	if e.sess == nil {
		return ""
	}
	return e.sess.Username
}

// openEnv loads the config and binds a client to the CLI session file. A
// backend 401 deletes the file once and tells the operator to log in again.
func openEnv(ctx context.Context, requireLogin bool) (*cliEnv, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := quietLogger()
	store := sessionFile(cfg)

	sess, err := store.Current(ctx)
	switch {
	case errors.Is(err, session.ErrNotFound):
		sess = nil
	case err != nil:
		return nil, err
	}
	if requireLogin && sess == nil {
		return nil, errNotLoggedIn
	}

	api := sdk.NewClient(cfg.API.BaseURL,
		sdk.WithLogger(logger),
		sdk.WithObserver(telemetry.ObserveAPICall),
		sdk.WithTokenHolder(session.Bind(store, sess)),
		sdk.WithUnauthorizedHook(func(context.Context) {
			fmt.Fprintln(os.Stderr, color.YellowString("  session expired; run `trafficmon login`"))
		}),
	)
	return &cliEnv{cfg: cfg, store: store, sess: sess, api: api, logger: logger}, nil
}

// openAudit opens the audit trail for recording CLI actions. Failures are
// logged and yield nil: the command still runs without an audit record.
func openAudit(cfg *config.Config, logger *slog.Logger) *audit.Store {
	store, err := audit.Open(cfg.Audit.DSN, logger)
	if err != nil {
		logger.Warn("audit trail unavailable", "dsn", cfg.Audit.DSN, "error", err)
		return nil
	}
	return store
}

// explain turns a backend error into the message shown on the terminal.
func explain(lang i18n.Lang, err error) error {
	switch {
	case errors.Is(err, sdk.ErrUnauthorized):
		return errors.New(i18n.T(lang, i18n.ErrSessionExpired))
	case sdk.IsTransport(err):
		return fmt.Errorf("%s: %w", i18n.T(lang, i18n.ErrConnection), err)
	}
	return err
}
