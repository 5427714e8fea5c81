package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trafficmon.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
version: "1"
api:
  base_url: http://backend:8000/api
server:
  port: 9090
  log_level: debug
session:
  store: redis
  redis_url: redis://localhost:6379/0
ui:
  lang: en-US
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.API.BaseURL != "http://backend:8000/api" {
		t.Errorf("base_url = %q", cfg.API.BaseURL)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Server.LogLevel != "debug" {
		t.Errorf("log_level = %q, want debug", cfg.Server.LogLevel)
	}
	if cfg.Session.Store != "redis" || cfg.Session.TTLMinutes != 30 {
		t.Errorf("session = %+v", cfg.Session)
	}
	if cfg.Login.AttemptsPerMinute != 10 {
		t.Errorf("attempts = %d, want default 10", cfg.Login.AttemptsPerMinute)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("validate: %v", err)
	}
}

func TestLoad_NotFound(t *testing.T) {
	if _, err := Load("/nonexistent/trafficmon.yaml"); err == nil {
		t.Fatal("expected error")
	}
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 8090 {
		t.Errorf("port = %d, want default", cfg.Server.Port)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	if _, err := Load(writeConfig(t, "{{invalid yaml")); err == nil {
		t.Fatal("expected error for invalid yaml")
	}
}

func TestApplyEnv_OverridesFile(t *testing.T) {
	cfg := Defaults()
	env := map[string]string{
		"TRAFFICMON_API_URL":       "https://soc.example/api",
		"TRAFFICMON_PORT":          "9443",
		"TRAFFICMON_LANG":          "en-US",
		"TRAFFICMON_COOKIE_SECURE": "true",
	}
	if err := cfg.ApplyEnv(func(k string) string { return env[k] }); err != nil {
		t.Fatal(err)
	}
	if cfg.API.BaseURL != "https://soc.example/api" || cfg.Server.Port != 9443 || cfg.UI.Lang != "en-US" || !cfg.Server.CookieSecure {
		t.Errorf("cfg = %+v", cfg)
	}

	bad := Defaults()
	if err := bad.ApplyEnv(func(k string) string {
		if k == "TRAFFICMON_PORT" {
			return "eighty"
		}
		return ""
	}); err == nil {
		t.Error("expected error for non-numeric port")
	}
}

func TestLoad_EnvWins(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9090\n")
	t.Setenv("TRAFFICMON_PORT", "7000")
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 7000 {
		t.Errorf("port = %d, want env override 7000", cfg.Server.Port)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
		{"bad url", func(c *Config) { c.API.BaseURL = "ftp://x" }},
		{"bad level", func(c *Config) { c.Server.LogLevel = "loud" }},
		{"redis without url", func(c *Config) { c.Session.Store = "redis" }},
		{"unknown store", func(c *Config) { c.Session.Store = "etcd" }},
		{"bad lang", func(c *Config) { c.UI.Lang = "de-DE" }},
		{"no burst", func(c *Config) { c.Login.Burst = 0 }},
	}
	if err := Defaults().Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trafficmon.yaml")
	cfg := Defaults()
	cfg.UI.Lang = "en-US"
	if err := cfg.Save(path); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.UI.Lang != "en-US" || got.Server.Port != cfg.Server.Port {
		t.Errorf("loaded = %+v", got)
	}
}

func TestWatch_Reloads(t *testing.T) {
	path := writeConfig(t, "server:\n  log_level: info\n")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan *Config, 4)
	errc := make(chan error, 1)
	go func() {
		errc <- Watch(ctx, path, slog.New(slog.DiscardHandler), func(c *Config) {
			select {
			case reloaded <- c:
			default:
			}
		})
	}()

	// Give the watcher time to register before editing.
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(path, []byte("server:\n  log_level: debug\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	// A truncating write can surface as several events; wait for the final
	// content.
	deadline := time.After(5 * time.Second)
	for seen := false; !seen; {
		select {
		case cfg := <-reloaded:
			seen = cfg.Server.LogLevel == "debug"
		case <-deadline:
			t.Fatal("no reload with the new log level observed")
		}
	}

	cancel()
	if err := <-errc; err != nil {
		t.Errorf("watch: %v", err)
	}
}
