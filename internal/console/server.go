// Package console serves the browser front-end of trafficmon: a login view,
// the four console pages and their row commands.
package console

import (
	"context"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/trafficmon/trafficmon/internal/actions"
	"github.com/trafficmon/trafficmon/internal/audit"
	"github.com/trafficmon/trafficmon/internal/i18n"
	"github.com/trafficmon/trafficmon/internal/session"
	"github.com/trafficmon/trafficmon/internal/telemetry"
	"github.com/trafficmon/trafficmon/sdk"
)

// Options configures a Server.
type Options struct {
	API               *sdk.Client
	Sessions          session.Store
	Audit             actions.Recorder
	Lang              i18n.Lang
	SessionTTL        time.Duration
	CookieSecure      bool
	AttemptsPerMinute int
	Burst             int
	Metrics           bool
	Logger            *slog.Logger
}

// Server serves the web console.
type Server struct {
	api     *sdk.Client
	auth    *Auth
	audit   actions.Recorder
	lang    atomic.Value // i18n.Lang
	metrics bool
	logger  *slog.Logger
	mux     *http.ServeMux
}

// NewServer creates a console server. Every backend 401 observed while
// serving a request clears that request's session.
func NewServer(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Sessions == nil {
		opts.Sessions = session.NewMemoryStore()
	}
	if opts.AttemptsPerMinute <= 0 {
		opts.AttemptsPerMinute = 10
	}
	if opts.Burst <= 0 {
		opts.Burst = 5
	}
	s := &Server{
		auth:    NewAuth(opts.Sessions, opts.SessionTTL, opts.CookieSecure, opts.AttemptsPerMinute, opts.Burst),
		audit:   opts.Audit,
		metrics: opts.Metrics,
		logger:  opts.Logger,
		mux:     http.NewServeMux(),
	}
	s.api = opts.API.OnUnauthorized(s.sessionExpired)
	s.SetLang(opts.Lang)
	s.routes()
	return s
}

// SetLang changes the default language for requests that do not ask for one.
func (s *Server) SetLang(lang i18n.Lang) {
	if !i18n.Supported(lang) {
		lang = i18n.Default
	}
	s.lang.Store(lang)
}

// Handler returns the console HTTP handler with middleware applied.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.mux
	h = securityHeaders(h)
	h = recovery(s.logger)(h)
	h = logging(s.logger)(h)
	h = requestID(h)
	return otelhttp.NewHandler(h, "console")
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/console", http.StatusFound)
	})
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	if s.metrics {
		s.mux.Handle("GET /metrics", promhttp.Handler())
	}

	s.mux.HandleFunc("GET /console/login", s.handleLoginPage)
	s.mux.HandleFunc("POST /console/login", s.handleLoginSubmit)
	s.mux.HandleFunc("POST /console/logout", s.handleLogout)

	protect := func(pattern string, h http.HandlerFunc) {
		s.mux.Handle(pattern, s.auth.Require(h))
	}
	protect("GET /console", s.handlePage)
	protect("GET /console/{page}", s.handlePage)

	// HTMX partial endpoints
	protect("GET /console/api/{page}", s.handlePartial)
	protect("GET /console/api/incidents/{id}", s.handleIncidentDetail)

	// Row commands
	protect("POST /console/incidents/{id}/close", s.handleIncidentClose)
	protect("POST /console/rules", s.handleRuleCreate)
	protect("POST /console/rules/{id}/edit", s.handleRuleEdit)
	protect("POST /console/rules/{id}/delete", s.handleRuleDelete)
	protect("POST /console/monitoring/block", s.handleFlowBlock)
	protect("POST /console/monitoring/capture", s.handleCapture)
}

func (s *Server) defaultLang() i18n.Lang {
	return s.lang.Load().(i18n.Lang)
}

func (s *Server) langFor(r *http.Request) i18n.Lang {
	return i18n.DetectLang(r, s.defaultLang())
}

// clientFor returns an API client bound to the request's session.
func (s *Server) clientFor(r *http.Request) *sdk.Client {
	return s.api.Bind(session.Bind(s.auth.store, sessionFrom(r.Context())))
}

func (s *Server) commandsFor(r *http.Request) *actions.Commands {
	return &actions.Commands{API: s.clientFor(r), Audit: s.audit, Actor: actorOf(r.Context())}
}

// sessionExpired runs once per session cleared by a backend 401.
func (s *Server) sessionExpired(ctx context.Context) {
	actor := actorOf(ctx)
	telemetry.SessionsExpired.Inc()
	s.logger.Info("session expired", "user", actor)
	s.record(actor, audit.ActionSessionExpired, "", audit.OutcomeOK, "")
}

func (s *Server) record(actor, action, target, outcome, detail string) {
	if s.audit != nil {
		s.audit.Record(actor, action, target, outcome, detail)
	}
}

func actorOf(ctx context.Context) string {
	if sess := sessionFrom(ctx); sess != nil {
		return sess.Username
	}
	return ""
}
