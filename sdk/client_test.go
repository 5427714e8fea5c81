package sdk

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeHolder struct {
	mu      sync.Mutex
	token   string
	cleared int
}

func (h *fakeHolder) Token() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.token
}

func (h *fakeHolder) Clear(context.Context) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.token == "" {
		return false
	}
	h.token = ""
	h.cleared++
	return true
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient("")
	if c.BaseURL() != DefaultBaseURL {
		t.Errorf("baseURL = %q", c.BaseURL())
	}
	if c.httpClient.Timeout != 0 {
		t.Errorf("client timeout = %v, want none", c.httpClient.Timeout)
	}
	if got := NewClient("http://x/api/").BaseURL(); got != "http://x/api" {
		t.Errorf("trailing slash kept: %q", got)
	}
}

func TestCall_AttachesBearer(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if r.URL.Path != "/api/incidents" {
			t.Errorf("path = %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`[{"id":7,"type":"PortScan","severity":3,"srcIP":"10.0.0.5","dstIP":"10.0.0.1","status":"Detected","time":"2024-05-01T12:30:00.123456","description":"scan"}]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/api").Bind(&fakeHolder{token: "abc"})
	incidents, err := c.Incidents(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if gotAuth != "Bearer abc" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if len(incidents) != 1 || incidents[0].ID != 7 || incidents[0].Severity != 3 {
		t.Fatalf("incidents = %+v", incidents)
	}
	want := time.Date(2024, 5, 1, 12, 30, 0, 123456000, time.UTC)
	if !incidents[0].Time.Equal(want) {
		t.Errorf("time = %v, want %v", incidents[0].Time, want)
	}
}

func TestCall_NoTokenNoHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h := r.Header.Get("Authorization"); h != "" {
			t.Errorf("unexpected Authorization %q", h)
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	rules, err := NewClient(srv.URL).Bind(&fakeHolder{}).Rules(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(rules) != 0 {
		t.Errorf("rules = %v", rules)
	}
}

func TestCall_UnauthorizedClearsOnce(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"Invalid token"}`))
	}))
	defer srv.Close()

	holder := &fakeHolder{token: "stale"}
	var hooks atomic.Int32
	c := NewClient(srv.URL, WithUnauthorizedHook(func(context.Context) { hooks.Add(1) })).Bind(holder)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Status(context.Background())
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if !errors.Is(err, ErrUnauthorized) {
			t.Errorf("err = %v, want ErrUnauthorized", err)
		}
	}
	if holder.cleared != 1 {
		t.Errorf("cleared %d times, want 1", holder.cleared)
	}
	if hooks.Load() != 1 {
		t.Errorf("hook fired %d times, want 1", hooks.Load())
	}
}

func TestCall_APIErrorDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail":"Incident not found"}`))
	}))
	defer srv.Close()

	holder := &fakeHolder{token: "t"}
	_, err := NewClient(srv.URL).Bind(holder).CloseIncident(context.Background(), 99)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if apiErr.StatusCode != 404 || apiErr.Detail != "Incident not found" {
		t.Errorf("apiErr = %+v", apiErr)
	}
	if holder.Token() != "t" {
		t.Error("non-401 error must not clear the session")
	}
}

func TestCall_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewClient(url).Bind(&fakeHolder{token: "t"}).Status(context.Background())
	if !IsTransport(err) {
		t.Fatalf("err = %v, want transport error", err)
	}
}

func TestCall_JSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		var rule Rule
		if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
			t.Fatal(err)
		}
		rule.ID = 12
		_ = json.NewEncoder(w).Encode(rule)
	}))
	defer srv.Close()

	c := NewClient(srv.URL).Bind(&fakeHolder{token: "t"})
	got, err := c.CreateRule(context.Background(), Rule{Name: "block scanner", Category: "scan", Type: "manual", Severity: 2, SrcIP: "10.0.0.5", Action: ActionDrop})
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != 12 || got.SrcIP != "10.0.0.5" || got.Expiration != nil {
		t.Errorf("rule = %+v", got)
	}
}

func TestLogin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/token" || r.Method != http.MethodPost {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
			t.Errorf("Content-Type = %q", ct)
		}
		if r.FormValue("username") != "admin" || r.FormValue("password") != "pw" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail":"Incorrect credentials"}`))
			return
		}
		_, _ = w.Write([]byte(`{"access_token":"jwt","token_type":"bearer"}`))
	}))
	defer srv.Close()

	holder := &fakeHolder{token: "old"}
	var hooks int
	c := NewClient(srv.URL, WithUnauthorizedHook(func(context.Context) { hooks++ })).Bind(holder)

	tok, err := c.Login(context.Background(), "admin", "pw")
	if err != nil {
		t.Fatal(err)
	}
	if tok.AccessToken != "jwt" || tok.TokenType != "bearer" {
		t.Errorf("token = %+v", tok)
	}

	_, err = c.Login(context.Background(), "admin", "wrong")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("err = %v, want ErrInvalidCredentials", err)
	}
	if hooks != 0 || holder.Token() != "old" {
		t.Error("failed login must not touch the session")
	}
}

func TestObserver(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"captured":50,"processed":48,"incidents":2}`))
	}))
	defer srv.Close()

	var gotEndpoint string
	var gotStatus int
	c := NewClient(srv.URL, WithObserver(func(method, endpoint string, status int, _ time.Duration) {
		gotEndpoint = method + " " + endpoint
		gotStatus = status
	})).Bind(&fakeHolder{token: "t"})

	res, err := c.StartCapture(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Captured != 50 || res.Incidents != 2 {
		t.Errorf("result = %+v", res)
	}
	if gotEndpoint != "POST /capture/start" || gotStatus != 200 {
		t.Errorf("observed %q %d", gotEndpoint, gotStatus)
	}
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	holder := &fakeHolder{}
	status, err := NewClient(srv.URL).Bind(holder).Health(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if status != "reachable" {
		t.Errorf("status = %q", status)
	}
}

func TestTime_Layouts(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{`"2024-05-01T12:30:00Z"`, time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)},
		{`"2024-05-01T12:30:00"`, time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)},
		{`"2024-05-01 12:30:00.5"`, time.Date(2024, 5, 1, 12, 30, 0, 500000000, time.UTC)},
		{`null`, time.Time{}},
	}
	for _, tt := range tests {
		var got Time
		if err := json.Unmarshal([]byte(tt.in), &got); err != nil {
			t.Errorf("%s: %v", tt.in, err)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("%s = %v, want %v", tt.in, got.Time, tt.want)
		}
	}
	var bad Time
	if err := json.Unmarshal([]byte(`"yesterday"`), &bad); err == nil {
		t.Error("expected error for unparseable timestamp")
	}
}
