package console

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/trafficmon/trafficmon/internal/audit"
	"github.com/trafficmon/trafficmon/internal/i18n"
	"github.com/trafficmon/trafficmon/internal/session"
	"github.com/trafficmon/trafficmon/sdk"
)

// fakeBackend emulates the monitoring REST API.
type fakeBackend struct {
	mu        sync.Mutex
	token     string
	logins    int
	closed    []string
	created   []sdk.Rule
	incidents []sdk.Incident
	rules     []sdk.Rule
	traffic   []sdk.TrafficSample
}

func newFakeBackend(t *testing.T) (*fakeBackend, *httptest.Server) {
	t.Helper()
	b := &fakeBackend{
		token: "tok-1",
		incidents: []sdk.Incident{
			{ID: 7, Type: "Port scan", Severity: 5, SrcIP: "10.0.0.5", DstIP: "10.0.0.1", Status: sdk.StatusDetected,
				Time: sdk.Time{Time: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}, Description: "syn sweep"},
			{ID: 8, Type: "DDoS", Severity: 2, SrcIP: "10.0.0.6", DstIP: "10.0.0.1", Status: sdk.StatusClosed},
		},
		rules: []sdk.Rule{
			{ID: 1, Name: "block-scan", Category: "scan", Type: "auto", Severity: 3, SrcIP: "10.0.0.5", Action: sdk.ActionDrop},
		},
		traffic: []sdk.TrafficSample{
			{SrcIP: "10.0.0.5", DstIP: "10.0.0.1", Bytes: 3 * 1024 * 1024},
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /token", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.logins++
		b.mu.Unlock()
		if r.FormValue("username") != "admin" || r.FormValue("password") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail":"Incorrect username or password"}`))
			return
		}
		writeJSON(w, sdk.Token{AccessToken: b.currentToken(), TokenType: "bearer"})
	})
	mux.HandleFunc("GET /status", b.authed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, sdk.SystemStatus{ActiveIncidents: 1, CriticalEvents: 1, NetworkLoad: 42.4, Status: "OK"})
	}))
	mux.HandleFunc("GET /traffic/top", b.authed(func(w http.ResponseWriter, _ *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		writeJSON(w, b.traffic)
	}))
	mux.HandleFunc("GET /incidents", b.authed(func(w http.ResponseWriter, _ *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		writeJSON(w, b.incidents)
	}))
	mux.HandleFunc("POST /incidents/{id}/close", b.authed(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.closed = append(b.closed, r.PathValue("id"))
		b.mu.Unlock()
		writeJSON(w, sdk.CloseResult{Status: "success"})
	}))
	mux.HandleFunc("GET /rules", b.authed(func(w http.ResponseWriter, _ *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		writeJSON(w, b.rules)
	}))
	mux.HandleFunc("POST /rules", b.authed(func(w http.ResponseWriter, r *http.Request) {
		var rule sdk.Rule
		if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		b.mu.Lock()
		rule.ID = int64(len(b.rules) + 1)
		b.created = append(b.created, rule)
		b.rules = append(b.rules, rule)
		b.mu.Unlock()
		writeJSON(w, rule)
	}))
	mux.HandleFunc("POST /capture/start", b.authed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, sdk.CaptureResult{Captured: 3, Processed: 2, Incidents: 1})
	}))

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return b, srv
}

func (b *fakeBackend) currentToken() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.token
}

type backendCalls struct {
	logins  int
	closed  []string
	created []sdk.Rule
}

func (b *fakeBackend) calls() backendCalls {
	b.mu.Lock()
	defer b.mu.Unlock()
	return backendCalls{
		logins:  b.logins,
		closed:  append([]string(nil), b.closed...),
		created: append([]sdk.Rule(nil), b.created...),
	}
}

// revoke makes every token issued so far invalid.
func (b *fakeBackend) revoke() {
	b.mu.Lock()
	b.token = "tok-revoked"
	b.mu.Unlock()
}

func (b *fakeBackend) authed(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+b.currentToken() {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail":"Could not validate credentials"}`))
			return
		}
		h(w, r)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

type testConsole struct {
	srv      *Server
	handler  http.Handler
	sessions *session.MemoryStore
	audit    *audit.Store
}

func newTestConsole(t *testing.T, baseURL string, opts Options) *testConsole {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	store, err := audit.Open(filepath.Join(t.TempDir(), "audit.db"), logger)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })

	sessions := session.NewMemoryStore()
	opts.API = sdk.NewClient(baseURL, sdk.WithLogger(logger))
	opts.Sessions = sessions
	opts.Audit = store
	opts.Logger = logger
	opts.SessionTTL = 30 * time.Minute
	srv := NewServer(opts)
	return &testConsole{srv: srv, handler: srv.Handler(), sessions: sessions, audit: store}
}

func (c *testConsole) do(req *http.Request, cookie *http.Cookie) *httptest.ResponseRecorder {
	req.Header.Set("Accept-Language", "en-US")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	c.handler.ServeHTTP(w, req)
	return w
}

func postForm(path string, form url.Values) *http.Request {
	req := httptest.NewRequest("POST", path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func (c *testConsole) login(t *testing.T) *http.Cookie {
	t.Helper()
	w := c.do(postForm("/console/login", url.Values{"username": {"admin"}, "password": {"secret"}}), nil)
	if w.Code != http.StatusFound {
		t.Fatalf("login status = %d, body = %s", w.Code, w.Body.String())
	}
	for _, ck := range w.Result().Cookies() {
		if ck.Name == sessionCookieName {
			return ck
		}
	}
	t.Fatal("no session cookie after login")
	return nil
}

func (c *testConsole) entries(t *testing.T, action string) []audit.Entry {
	t.Helper()
	c.audit.Flush()
	entries, err := c.audit.Query(audit.QueryOpts{Action: action})
	if err != nil {
		t.Fatal(err)
	}
	return entries
}

func TestHealthz(t *testing.T) {
	_, backend := newFakeBackend(t)
	c := newTestConsole(t, backend.URL, Options{})

	w := c.do(httptest.NewRequest("GET", "/healthz", nil), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"ok"`) {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestRootRedirectsToConsole(t *testing.T) {
	_, backend := newFakeBackend(t)
	c := newTestConsole(t, backend.URL, Options{})

	w := c.do(httptest.NewRequest("GET", "/", nil), nil)
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/console" {
		t.Errorf("got %d %q", w.Code, w.Header().Get("Location"))
	}
}

func TestProtectedPagesRequireSession(t *testing.T) {
	_, backend := newFakeBackend(t)
	c := newTestConsole(t, backend.URL, Options{})

	for _, path := range []string{"/console", "/console/incidents", "/console/rules", "/console/monitoring"} {
		w := c.do(httptest.NewRequest("GET", path, nil), nil)
		if w.Code != http.StatusFound {
			t.Errorf("%s: status = %d, want 302", path, w.Code)
			continue
		}
		if loc := w.Header().Get("Location"); loc != loginPath {
			t.Errorf("%s: Location = %q", path, loc)
		}
	}
}

func TestHTMXRequestGetsHXRedirect(t *testing.T) {
	_, backend := newFakeBackend(t)
	c := newTestConsole(t, backend.URL, Options{})

	req := httptest.NewRequest("GET", "/console/api/incidents", nil)
	req.Header.Set("HX-Request", "true")
	w := c.do(req, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
	if got := w.Header().Get("HX-Redirect"); got != loginPath {
		t.Errorf("HX-Redirect = %q", got)
	}
}

func TestUnknownSessionCookieIsCleared(t *testing.T) {
	_, backend := newFakeBackend(t)
	c := newTestConsole(t, backend.URL, Options{})

	w := c.do(httptest.NewRequest("GET", "/console", nil), &http.Cookie{Name: sessionCookieName, Value: "forged"})
	if w.Code != http.StatusFound {
		t.Fatalf("status = %d", w.Code)
	}
	var cleared bool
	for _, ck := range w.Result().Cookies() {
		if ck.Name == sessionCookieName && ck.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("session cookie not cleared")
	}
}

func TestLoginSuccess(t *testing.T) {
	_, backend := newFakeBackend(t)
	c := newTestConsole(t, backend.URL, Options{})

	cookie := c.login(t)
	if cookie.Path != cookiePath || !cookie.HttpOnly {
		t.Errorf("cookie = %+v", cookie)
	}
	if c.sessions.Len() != 1 {
		t.Errorf("sessions = %d, want 1", c.sessions.Len())
	}
	sess, err := c.sessions.Get(t.Context(), cookie.Value)
	if err != nil {
		t.Fatal(err)
	}
	if sess.Token != "tok-1" || sess.Username != "admin" {
		t.Errorf("session = %+v", sess)
	}
	if got := c.entries(t, audit.ActionLogin); len(got) != 1 || got[0].Outcome != audit.OutcomeOK {
		t.Errorf("login audit = %+v", got)
	}
}

func TestLoginBadCredentials(t *testing.T) {
	_, backend := newFakeBackend(t)
	c := newTestConsole(t, backend.URL, Options{})

	w := c.do(postForm("/console/login", url.Values{"username": {"admin"}, "password": {"wrong"}}), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), i18n.T(i18n.EN_US, i18n.ErrBadCredentials)) {
		t.Error("missing bad-credentials message")
	}
	if !strings.Contains(w.Body.String(), `value="admin"`) {
		t.Error("username not kept in the form")
	}
	for _, ck := range w.Result().Cookies() {
		if ck.Name == sessionCookieName {
			t.Error("session cookie set after failed login")
		}
	}
	if c.sessions.Len() != 0 {
		t.Error("session stored after failed login")
	}
}

func TestLoginMissingCredentials(t *testing.T) {
	b, backend := newFakeBackend(t)
	c := newTestConsole(t, backend.URL, Options{})

	w := c.do(postForm("/console/login", url.Values{"username": {"admin"}}), nil)
	if !strings.Contains(w.Body.String(), i18n.T(i18n.EN_US, i18n.ErrMissingCredentials)) {
		t.Error("missing credentials message")
	}
	if n := b.calls().logins; n != 0 {
		t.Errorf("backend called %d times", n)
	}
}

func TestLoginBackendUnreachable(t *testing.T) {
	dead := httptest.NewServer(http.NotFoundHandler())
	deadURL := dead.URL
	dead.Close()

	c := newTestConsole(t, deadURL, Options{})
	w := c.do(postForm("/console/login", url.Values{"username": {"admin"}, "password": {"secret"}}), nil)
	if !strings.Contains(w.Body.String(), i18n.T(i18n.EN_US, i18n.ErrConnection)) {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestLoginRateLimited(t *testing.T) {
	b, backend := newFakeBackend(t)
	c := newTestConsole(t, backend.URL, Options{AttemptsPerMinute: 1, Burst: 1})

	form := url.Values{"username": {"admin"}, "password": {"wrong"}}
	c.do(postForm("/console/login", form), nil)
	w := c.do(postForm("/console/login", form), nil)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", w.Code)
	}
	if n := b.calls().logins; n != 1 {
		t.Errorf("backend logins = %d, want 1", n)
	}
	if got := c.entries(t, audit.ActionLogin); len(got) != 2 || got[0].Outcome != audit.OutcomeLimited {
		t.Errorf("login audit = %+v", got)
	}
}

func TestLoginPageMessages(t *testing.T) {
	_, backend := newFakeBackend(t)
	c := newTestConsole(t, backend.URL, Options{})

	w := c.do(httptest.NewRequest("GET", "/console/login?expired=1", nil), nil)
	if !strings.Contains(w.Body.String(), i18n.T(i18n.EN_US, i18n.ErrSessionExpired)) {
		t.Error("expired notice missing")
	}
	w = c.do(httptest.NewRequest("GET", "/console/login?out=1", nil), nil)
	if !strings.Contains(w.Body.String(), i18n.T(i18n.EN_US, i18n.MsgLoggedOut)) {
		t.Error("logged-out notice missing")
	}
}

func TestNavMarksExactlyOneActivePage(t *testing.T) {
	_, backend := newFakeBackend(t)
	c := newTestConsole(t, backend.URL, Options{})
	cookie := c.login(t)

	for _, page := range []string{"main", "incidents", "rules", "monitoring"} {
		path := "/console/" + page
		if page == "main" {
			path = "/console"
		}
		w := c.do(httptest.NewRequest("GET", path, nil), cookie)
		if w.Code != http.StatusOK {
			t.Fatalf("%s: status = %d", page, w.Code)
		}
		body := w.Body.String()
		if n := strings.Count(body, `class="nav-link active"`); n != 1 {
			t.Errorf("%s: %d active links, want 1", page, n)
		}
		if !strings.Contains(body, fmt.Sprintf(`class="nav-link active" data-page="%s"`, page)) {
			t.Errorf("%s: wrong link marked active", page)
		}
	}
}

func TestMainPageCards(t *testing.T) {
	_, backend := newFakeBackend(t)
	c := newTestConsole(t, backend.URL, Options{})
	cookie := c.login(t)

	body := c.do(httptest.NewRequest("GET", "/console", nil), cookie).Body.String()
	for _, want := range []string{`id="networkLoad">42%`, `id="activeIncidents">1`, "3.00", "10.0.0.5"} {
		if !strings.Contains(body, want) {
			t.Errorf("main page missing %q", want)
		}
	}
}

func TestIncidentsPageBadgesAndActions(t *testing.T) {
	_, backend := newFakeBackend(t)
	c := newTestConsole(t, backend.URL, Options{})
	cookie := c.login(t)

	body := c.do(httptest.NewRequest("GET", "/console/incidents", nil), cookie).Body.String()
	if !strings.Contains(body, "badge-critical") || !strings.Contains(body, "badge-success") {
		t.Error("severity/status badges missing")
	}
	if !strings.Contains(body, "/console/incidents/7/close") {
		t.Error("open incident has no close action")
	}
	if strings.Contains(body, "/console/incidents/8/close") {
		t.Error("closed incident offers close action")
	}
	want := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC).Local().Format("01/02/2006, 15:04:05")
	if !strings.Contains(body, want) {
		t.Error("incident time not localized")
	}
}

func TestEmptyTableRendersOneMessageRow(t *testing.T) {
	b, backend := newFakeBackend(t)
	b.incidents = nil
	c := newTestConsole(t, backend.URL, Options{})
	cookie := c.login(t)

	body := c.do(httptest.NewRequest("GET", "/console/api/incidents", nil), cookie).Body.String()
	if n := strings.Count(body, "<tr>"); n != 1 {
		t.Errorf("rows = %d, want 1", n)
	}
	if !strings.Contains(body, i18n.T(i18n.EN_US, i18n.CellNoIncident)) {
		t.Errorf("body = %s", body)
	}
}

func TestRulesPageRows(t *testing.T) {
	_, backend := newFakeBackend(t)
	c := newTestConsole(t, backend.URL, Options{})
	cookie := c.login(t)

	body := c.do(httptest.NewRequest("GET", "/console/api/rules", nil), cookie).Body.String()
	for _, want := range []string{"block-scan", "badge-danger", ">Auto<", ">None<", "<td>*</td>"} {
		if !strings.Contains(body, want) {
			t.Errorf("rules partial missing %q", want)
		}
	}
}

func TestUnknownPageNotFound(t *testing.T) {
	_, backend := newFakeBackend(t)
	c := newTestConsole(t, backend.URL, Options{})
	cookie := c.login(t)

	w := c.do(httptest.NewRequest("GET", "/console/settings", nil), cookie)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestBackend401EndsSessionOnce(t *testing.T) {
	b, backend := newFakeBackend(t)
	c := newTestConsole(t, backend.URL, Options{})
	cookie := c.login(t)
	b.revoke()

	w := c.do(httptest.NewRequest("GET", "/console/incidents", nil), cookie)
	if w.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != loginPath+"?expired=1" {
		t.Errorf("Location = %q", loc)
	}
	if c.sessions.Len() != 0 {
		t.Error("session still stored after 401")
	}

	// The stale cookie no longer resolves; no second expiry is recorded.
	w = c.do(httptest.NewRequest("GET", "/console/incidents", nil), cookie)
	if w.Header().Get("Location") != loginPath {
		t.Errorf("second request Location = %q", w.Header().Get("Location"))
	}
	if got := c.entries(t, audit.ActionSessionExpired); len(got) != 1 || got[0].Actor != "admin" {
		t.Errorf("session_expired audit = %+v", got)
	}
}

func TestBackend401OnPartialUsesHXRedirect(t *testing.T) {
	b, backend := newFakeBackend(t)
	c := newTestConsole(t, backend.URL, Options{})
	cookie := c.login(t)
	b.revoke()

	req := httptest.NewRequest("GET", "/console/api/rules", nil)
	req.Header.Set("HX-Request", "true")
	w := c.do(req, cookie)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", w.Code)
	}
	if got := w.Header().Get("HX-Redirect"); got != loginPath+"?expired=1" {
		t.Errorf("HX-Redirect = %q", got)
	}
}

func TestCloseIncident(t *testing.T) {
	b, backend := newFakeBackend(t)
	c := newTestConsole(t, backend.URL, Options{})
	cookie := c.login(t)

	w := c.do(postForm("/console/incidents/7/close", nil), cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), i18n.T(i18n.EN_US, i18n.MsgClosed)) {
		t.Error("missing closed flash")
	}
	if closed := b.calls().closed; len(closed) != 1 || closed[0] != "7" {
		t.Errorf("closed = %v", closed)
	}
	if got := c.entries(t, audit.ActionIncidentClose); len(got) != 1 || got[0].Target != "7" {
		t.Errorf("close audit = %+v", got)
	}
}

func TestIncidentDetailPanel(t *testing.T) {
	_, backend := newFakeBackend(t)
	c := newTestConsole(t, backend.URL, Options{})
	cookie := c.login(t)

	w := c.do(httptest.NewRequest("GET", "/console/api/incidents/7", nil), cookie)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "syn sweep") {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	w = c.do(httptest.NewRequest("GET", "/console/api/incidents/99", nil), cookie)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing incident status = %d", w.Code)
	}
}

func TestCreateRule(t *testing.T) {
	b, backend := newFakeBackend(t)
	c := newTestConsole(t, backend.URL, Options{})
	cookie := c.login(t)

	form := url.Values{
		"name": {"drop-bad"}, "category": {""}, "type": {"manual"}, "severity": {"2"},
		"src_ip": {"192.0.2.9"}, "dst_ip": {"*"}, "action": {"drop"},
	}
	w := c.do(postForm("/console/rules", form), cookie)
	if !strings.Contains(w.Body.String(), i18n.T(i18n.EN_US, i18n.MsgRuleCreated)) {
		t.Fatalf("body = %s", w.Body.String())
	}
	created := b.calls().created
	if len(created) != 1 {
		t.Fatalf("created = %d rules", len(created))
	}
	got := created[0]
	if got.Action != sdk.ActionDrop || got.DstIP != "" || got.Category != "custom" {
		t.Errorf("created rule = %+v", got)
	}
}

func TestCreateRuleInvalid(t *testing.T) {
	b, backend := newFakeBackend(t)
	c := newTestConsole(t, backend.URL, Options{})
	cookie := c.login(t)

	form := url.Values{"name": {"x"}, "severity": {"9"}, "action": {"DROP"}}
	w := c.do(postForm("/console/rules", form), cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `class="flash error"`) {
		t.Error("no error banner")
	}
	if len(b.calls().created) != 0 {
		t.Error("invalid rule reached the backend")
	}
}

func TestCreateRuleNonNumericSeverity(t *testing.T) {
	b, backend := newFakeBackend(t)
	c := newTestConsole(t, backend.URL, Options{})
	cookie := c.login(t)

	form := url.Values{"name": {"scanner"}, "severity": {"abc"}, "action": {"DROP"}}
	w := c.do(postForm("/console/rules", form), cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), i18n.T(i18n.EN_US, i18n.ErrRuleInvalid)) {
		t.Error("expected the invalid rule message")
	}
	if len(b.calls().created) != 0 {
		t.Error("unparsable rule reached the backend")
	}

	entries := c.entries(t, audit.ActionRuleCreate)
	if len(entries) != 1 {
		t.Fatalf("audit entries = %d, want 1", len(entries))
	}
	if entries[0].Outcome != audit.OutcomeFailed || !strings.Contains(entries[0].Detail, `severity "abc" is not a number`) {
		t.Errorf("entry = %+v", entries[0])
	}
}

func TestUnsupportedCommands(t *testing.T) {
	_, backend := newFakeBackend(t)
	c := newTestConsole(t, backend.URL, Options{})
	cookie := c.login(t)

	msg := i18n.T(i18n.EN_US, i18n.MsgNotSupported)
	for _, req := range []*http.Request{
		postForm("/console/rules/1/edit", nil),
		postForm("/console/rules/1/delete", nil),
		postForm("/console/monitoring/block", url.Values{"ip": {"10.0.0.5"}}),
	} {
		path := req.URL.Path
		w := c.do(req, cookie)
		if !strings.Contains(w.Body.String(), msg) {
			t.Errorf("%s: missing not-supported message", path)
		}
	}
	if got := c.entries(t, audit.ActionRuleDelete); len(got) != 1 || got[0].Outcome != audit.OutcomeNotSupported {
		t.Errorf("delete audit = %+v", got)
	}
}

func TestBlockInvalidIP(t *testing.T) {
	_, backend := newFakeBackend(t)
	c := newTestConsole(t, backend.URL, Options{})
	cookie := c.login(t)

	w := c.do(postForm("/console/monitoring/block", url.Values{"ip": {"not-an-ip"}}), cookie)
	if !strings.Contains(w.Body.String(), i18n.T(i18n.EN_US, i18n.ErrInvalidIP)) {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestStartCapture(t *testing.T) {
	_, backend := newFakeBackend(t)
	c := newTestConsole(t, backend.URL, Options{})
	cookie := c.login(t)

	w := c.do(postForm("/console/monitoring/capture", nil), cookie)
	want := i18n.Tf(i18n.EN_US, i18n.MsgCaptureDone, 3, 2, 1)
	if !strings.Contains(w.Body.String(), want) {
		t.Errorf("body missing %q", want)
	}
}

func TestLogout(t *testing.T) {
	_, backend := newFakeBackend(t)
	c := newTestConsole(t, backend.URL, Options{})
	cookie := c.login(t)

	w := c.do(postForm("/console/logout", nil), cookie)
	if w.Code != http.StatusFound || w.Header().Get("Location") != loginPath+"?out=1" {
		t.Fatalf("got %d %q", w.Code, w.Header().Get("Location"))
	}
	if c.sessions.Len() != 0 {
		t.Error("session still stored after logout")
	}
	w = c.do(httptest.NewRequest("GET", "/console", nil), cookie)
	if w.Code != http.StatusFound {
		t.Errorf("console after logout: status = %d", w.Code)
	}
}

func TestSecurityHeaders(t *testing.T) {
	_, backend := newFakeBackend(t)
	c := newTestConsole(t, backend.URL, Options{})

	w := c.do(httptest.NewRequest("GET", "/console/login", nil), nil)
	for _, h := range []string{"X-Content-Type-Options", "X-Frame-Options", "Content-Security-Policy", "X-Request-ID"} {
		if w.Header().Get(h) == "" {
			t.Errorf("missing %s", h)
		}
	}
}

func TestPanicIsLoggedWithStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	srv := NewServer(Options{API: sdk.NewClient("http://127.0.0.1:1"), Logger: logger})
	srv.mux.HandleFunc("GET /boom", func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	out := buf.String()
	if !strings.Contains(out, "panic recovered") {
		t.Errorf("panic not logged:\n%s", out)
	}
	if !strings.Contains(out, "msg=request") || !strings.Contains(out, "status=500") {
		t.Errorf("request line missing or without status 500:\n%s", out)
	}
}
