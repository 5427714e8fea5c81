package console

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/trafficmon/trafficmon/internal/actions"
	"github.com/trafficmon/trafficmon/internal/audit"
	"github.com/trafficmon/trafficmon/internal/i18n"
	"github.com/trafficmon/trafficmon/internal/router"
	"github.com/trafficmon/trafficmon/internal/telemetry"
	"github.com/trafficmon/trafficmon/internal/view"
	"github.com/trafficmon/trafficmon/sdk"
)

type navLink struct {
	Page   router.Page
	Href   string
	Label  string
	Active bool
}

type pageData struct {
	T        i18n.Translator
	Lang     i18n.Lang
	Page     router.Page
	Nav      []navLink
	Screen   view.Screen
	Username string
	Flash    string
	Error    string
}

type loginData struct {
	T        i18n.Translator
	Lang     i18n.Lang
	Username string
	Flash    string
	Error    string
}

var navLabels = map[router.Page]i18n.Key{
	router.Main:       i18n.NavMain,
	router.Incidents:  i18n.NavIncidents,
	router.Rules:      i18n.NavRules,
	router.Monitoring: i18n.NavMonitoring,
}

func pageHref(p router.Page) string {
	if p == router.Main {
		return "/console"
	}
	return "/console/" + string(p)
}

func navLinks(lang i18n.Lang, items []router.NavItem) []navLink {
	links := make([]navLink, len(items))
	for i, it := range items {
		links[i] = navLink{
			Page:   it.Page,
			Href:   pageHref(it.Page),
			Label:  i18n.T(lang, navLabels[it.Page]),
			Active: it.Active,
		}
	}
	return links
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	lang := s.langFor(r)
	data := loginData{T: i18n.Translator{Lang: lang}, Lang: lang}
	switch {
	case r.URL.Query().Get("expired") != "":
		data.Error = i18n.T(lang, i18n.ErrSessionExpired)
	case r.URL.Query().Get("out") != "":
		data.Flash = i18n.T(lang, i18n.MsgLoggedOut)
	}
	s.renderLogin(w, http.StatusOK, data)
}

func (s *Server) handleLoginSubmit(w http.ResponseWriter, r *http.Request) {
	ip := clientIP(r)
	lang := s.langFor(r)
	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")
	data := loginData{T: i18n.Translator{Lang: lang}, Lang: lang, Username: username}

	if !s.auth.limiter.Allow(ip) {
		s.logger.Warn("login rate-limited", "ip", ip, "user", username)
		telemetry.LoginAttempts.WithLabelValues("limited").Inc()
		s.record(username, audit.ActionLogin, ip, audit.OutcomeLimited, "")
		data.Error = i18n.T(lang, i18n.ErrTooManyAttempts)
		s.renderLogin(w, http.StatusTooManyRequests, data)
		return
	}
	if username == "" || password == "" {
		data.Error = i18n.T(lang, i18n.ErrMissingCredentials)
		s.renderLogin(w, http.StatusOK, data)
		return
	}

	tok, err := s.api.Login(r.Context(), username, password)
	if err != nil {
		result, key := "error", i18n.ErrConnection
		if errors.Is(err, sdk.ErrInvalidCredentials) {
			result, key = "invalid", i18n.ErrBadCredentials
			s.logger.Info("login failed", "ip", ip, "user", username)
		} else {
			s.logger.Error("login request failed", "ip", ip, "user", username, "error", err)
		}
		telemetry.LoginAttempts.WithLabelValues(result).Inc()
		s.record(username, audit.ActionLogin, ip, audit.OutcomeFailed, err.Error())
		data.Error = i18n.T(lang, key)
		s.renderLogin(w, http.StatusOK, data)
		return
	}

	if _, err := s.auth.start(r.Context(), w, tok.AccessToken, username); err != nil {
		s.logger.Error("storing session failed", "user", username, "error", err)
		data.Error = i18n.T(lang, i18n.ErrConnection)
		s.renderLogin(w, http.StatusInternalServerError, data)
		return
	}
	telemetry.LoginAttempts.WithLabelValues("ok").Inc()
	s.record(username, audit.ActionLogin, ip, audit.OutcomeOK, "")
	s.logger.Info("login success", "ip", ip, "user", username)
	http.Redirect(w, r, "/console", http.StatusFound)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess, err := s.auth.end(w, r)
	if err != nil {
		s.logger.Error("deleting session failed", "error", err)
	}
	if sess != nil {
		s.record(sess.Username, audit.ActionLogout, "", audit.OutcomeOK, "")
		s.logger.Info("logout", "ip", clientIP(r), "user", sess.Username)
	}
	http.Redirect(w, r, loginPath+"?out=1", http.StatusFound)
}

// navigate activates the requested page on a request-scoped router and runs
// its loader. ok is false for unknown pages.
func (s *Server) navigate(r *http.Request, id string) (view.Screen, []router.NavItem, bool) {
	lang := s.langFor(r)
	loaders := view.Loaders{API: s.clientFor(r), Lang: lang, Logger: s.logger}
	rt := router.New(loaders.Map())

	ctx, span := telemetry.StartSpan(r.Context(), "console.page", attribute.String("page", id))
	defer span.End()

	sc, ok := rt.Navigate(ctx, id)
	if !ok {
		return view.Screen{}, nil, false
	}
	result := "ok"
	if sc.Failed() {
		result = "error"
	}
	telemetry.PageLoads.WithLabelValues(string(sc.Page), result).Inc()
	return sc, rt.Nav(), true
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("page")
	if id == "" {
		id = string(router.Main)
	}
	s.renderPage(w, r, id, "", "")
}

// renderPage navigates to id and renders the full page with an optional
// flash or error banner.
func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, id, flash, errMsg string) {
	sc, nav, ok := s.navigate(r, id)
	if !ok {
		http.NotFound(w, r)
		return
	}
	if sc.Unauthorized {
		s.auth.clearCookie(w)
		redirectToLogin(w, r, "expired")
		return
	}
	lang := s.langFor(r)
	data := pageData{
		T:        i18n.Translator{Lang: lang},
		Lang:     lang,
		Page:     sc.Page,
		Nav:      navLinks(lang, nav),
		Screen:   sc,
		Username: actorOf(r.Context()),
		Flash:    flash,
		Error:    errMsg,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTmpl.Execute(w, data); err != nil {
		s.logger.Error("rendering page", "page", sc.Page, "error", err)
	}
}

// HTMX partial: one page's table body
func (s *Server) handlePartial(w http.ResponseWriter, r *http.Request) {
	sc, _, ok := s.navigate(r, r.PathValue("page"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	if sc.Unauthorized {
		s.auth.clearCookie(w)
		redirectToLogin(w, r, "expired")
		return
	}
	lang := s.langFor(r)
	data := pageData{T: i18n.Translator{Lang: lang}, Lang: lang, Page: sc.Page, Screen: sc}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTmpl.ExecuteTemplate(w, partialName(sc.Page), data); err != nil {
		s.logger.Error("rendering partial", "page", sc.Page, "error", err)
	}
}

func partialName(p router.Page) string {
	return string(p) + "-body"
}

func (s *Server) handleIncidentDetail(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	inc, err := s.commandsFor(r).Open(r.Context(), id)
	switch {
	case errors.Is(err, sdk.ErrUnauthorized):
		s.auth.clearCookie(w)
		redirectToLogin(w, r, "expired")
		return
	case errors.Is(err, actions.ErrNotFound):
		http.NotFound(w, r)
		return
	case err != nil:
		s.logger.Error("loading incident", "id", id, "error", err)
		http.Error(w, view.ErrorMessage(s.langFor(r), err, i18n.ErrLoadFailed), http.StatusBadGateway)
		return
	}

	lang := s.langFor(r)
	row := view.IncidentRows(lang, []sdk.Incident{*inc})[0]
	data := map[string]any{
		"T":   i18n.Translator{Lang: lang},
		"Row": row,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = incidentDetailTmpl.Execute(w, data)
}

// commandResult renders page after a row command: a flash on success, a
// localized error otherwise. A 401 ends the session instead.
func (s *Server) commandResult(w http.ResponseWriter, r *http.Request, page router.Page, err error, ok string, fallback i18n.Key) {
	if errors.Is(err, sdk.ErrUnauthorized) {
		s.auth.clearCookie(w)
		redirectToLogin(w, r, "expired")
		return
	}
	lang := s.langFor(r)
	if err != nil {
		if !errors.Is(err, actions.ErrNotSupported) {
			s.logger.Warn("command failed", "page", page, "error", err)
		}
		s.renderPage(w, r, string(page), "", view.ErrorMessage(lang, err, fallback))
		return
	}
	s.renderPage(w, r, string(page), ok, "")
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", r.PathValue("id"))
	}
	return id, nil
}

func (s *Server) handleIncidentClose(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	err = s.commandsFor(r).Close(r.Context(), id)
	s.commandResult(w, r, router.Incidents, err, i18n.T(s.langFor(r), i18n.MsgClosed), i18n.ErrCloseFailed)
}

func (s *Server) handleRuleCreate(w http.ResponseWriter, r *http.Request) {
	severity, err := actions.ParseSeverity(r.FormValue("severity"))
	if err != nil {
		err = s.commandsFor(r).Reject(audit.ActionRuleCreate, r.FormValue("name"), err)
		s.commandResult(w, r, router.Rules, err, "", i18n.ErrRuleFailed)
		return
	}
	rule := sdk.Rule{
		Name:     r.FormValue("name"),
		Category: r.FormValue("category"),
		Type:     r.FormValue("type"),
		Severity: severity,
		SrcIP:    r.FormValue("src_ip"),
		DstIP:    r.FormValue("dst_ip"),
		Action:   r.FormValue("action"),
	}
	_, err = s.commandsFor(r).Create(r.Context(), rule)
	s.commandResult(w, r, router.Rules, err, i18n.T(s.langFor(r), i18n.MsgRuleCreated), i18n.ErrRuleFailed)
}

func (s *Server) handleRuleEdit(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	err = s.commandsFor(r).Edit(r.Context(), id)
	s.commandResult(w, r, router.Rules, err, "", i18n.MsgNotSupported)
}

func (s *Server) handleRuleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	err = s.commandsFor(r).Delete(r.Context(), id)
	s.commandResult(w, r, router.Rules, err, "", i18n.MsgNotSupported)
}

func (s *Server) handleFlowBlock(w http.ResponseWriter, r *http.Request) {
	err := s.commandsFor(r).Block(r.Context(), r.FormValue("ip"))
	s.commandResult(w, r, router.Monitoring, err, "", i18n.MsgNotSupported)
}

func (s *Server) handleCapture(w http.ResponseWriter, r *http.Request) {
	res, err := s.commandsFor(r).Start(r.Context())
	var msg string
	if err == nil {
		msg = i18n.Tf(s.langFor(r), i18n.MsgCaptureDone, res.Captured, res.Processed, res.Incidents)
	}
	s.commandResult(w, r, router.Monitoring, err, msg, i18n.ErrCaptureFailed)
}

func (s *Server) renderLogin(w http.ResponseWriter, status int, data loginData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := loginTmpl.Execute(w, data); err != nil {
		s.logger.Error("rendering login", "error", err)
	}
}
