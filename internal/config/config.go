package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/trafficmon/trafficmon/internal/i18n"
	"github.com/trafficmon/trafficmon/internal/safefile"
)

// DefaultPath is the config file looked up when --config is not given.
const DefaultPath = "trafficmon.yaml"

const maxConfigSize = 1 << 20

// Config is the top-level trafficmon configuration.
type Config struct {
	Version   string          `yaml:"version"`
	API       APIConfig       `yaml:"api"`
	Server    ServerConfig    `yaml:"server"`
	Session   SessionConfig   `yaml:"session"`
	Login     LoginConfig     `yaml:"login"`
	Audit     AuditConfig     `yaml:"audit"`
	UI        UIConfig        `yaml:"ui"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// APIConfig points at the monitoring backend.
type APIConfig struct {
	BaseURL string `yaml:"base_url"`
}

// ServerConfig holds web console settings.
type ServerConfig struct {
	Port         int    `yaml:"port"`
	Bind         string `yaml:"bind"` // Address to bind (default: 127.0.0.1)
	LogLevel     string `yaml:"log_level"`
	CookieSecure bool   `yaml:"cookie_secure"`
}

// SessionConfig selects where console sessions live.
type SessionConfig struct {
	Store      string `yaml:"store"` // memory, redis
	RedisURL   string `yaml:"redis_url,omitempty"`
	TTLMinutes int    `yaml:"ttl_minutes"` // used when the token carries no exp claim
	File       string `yaml:"file,omitempty"` // CLI session file (default: user config dir)
}

// TTL returns the session TTL as a duration.
func (s SessionConfig) TTL() time.Duration {
	return time.Duration(s.TTLMinutes) * time.Minute
}

// LoginConfig throttles login attempts per client address.
type LoginConfig struct {
	AttemptsPerMinute int `yaml:"attempts_per_minute"`
	Burst             int `yaml:"burst"`
}

// AuditConfig locates the console audit trail.
type AuditConfig struct {
	DSN string `yaml:"dsn"` // SQLite path or postgres:// URL
}

// UIConfig holds presentation settings.
type UIConfig struct {
	Lang string `yaml:"lang"`
}

// TelemetryConfig toggles tracing and metrics.
type TelemetryConfig struct {
	TraceStdout bool `yaml:"trace_stdout"`
	Metrics     bool `yaml:"metrics"`
}

// Load reads and parses a trafficmon config file. Environment overrides are
// applied on top.
func Load(path string) (*Config, error) {
	data, err := safefile.ReadFileMax(path, maxConfigSize)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.fillZero()

	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads path, falling back to defaults (plus environment
// overrides) when the file does not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		cfg = Defaults()
		if err := cfg.ApplyEnv(os.Getenv); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	return cfg, err
}

// Defaults returns a config with sensible defaults.
func Defaults() *Config {
	return &Config{
		Version: "1",
		API: APIConfig{
			BaseURL: "http://127.0.0.1:8000/api",
		},
		Server: ServerConfig{
			Port:     8090,
			Bind:     "127.0.0.1",
			LogLevel: "info",
		},
		Session: SessionConfig{
			Store:      "memory",
			TTLMinutes: 30,
		},
		Login: LoginConfig{
			AttemptsPerMinute: 10,
			Burst:             5,
		},
		Audit: AuditConfig{
			DSN: "trafficmon-audit.db",
		},
		UI: UIConfig{
			Lang: string(i18n.Default),
		},
		Telemetry: TelemetryConfig{
			Metrics: true,
		},
	}
}

// fillZero restores defaults for fields a config file set to zero values.
func (c *Config) fillZero() {
	d := Defaults()
	if c.API.BaseURL == "" {
		c.API.BaseURL = d.API.BaseURL
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = d.Server.LogLevel
	}
	if c.Session.Store == "" {
		c.Session.Store = d.Session.Store
	}
	if c.Login.AttemptsPerMinute == 0 {
		c.Login.AttemptsPerMinute = d.Login.AttemptsPerMinute
	}
	if c.Login.Burst == 0 {
		c.Login.Burst = d.Login.Burst
	}
	if c.UI.Lang == "" {
		c.UI.Lang = d.UI.Lang
	}
}

// ApplyEnv overrides settings from TRAFFICMON_* variables read via getenv.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	str := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v := getenv(key)
		if v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = n
		return nil
	}
	flag := func(key string, dst *bool) error {
		v := getenv(key)
		if v == "" {
			return nil
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = b
		return nil
	}

	str("TRAFFICMON_API_URL", &c.API.BaseURL)
	str("TRAFFICMON_BIND", &c.Server.Bind)
	str("TRAFFICMON_LOG_LEVEL", &c.Server.LogLevel)
	str("TRAFFICMON_SESSION_STORE", &c.Session.Store)
	str("TRAFFICMON_REDIS_URL", &c.Session.RedisURL)
	str("TRAFFICMON_SESSION_FILE", &c.Session.File)
	str("TRAFFICMON_AUDIT_DSN", &c.Audit.DSN)
	str("TRAFFICMON_LANG", &c.UI.Lang)

	for _, err := range []error{
		num("TRAFFICMON_PORT", &c.Server.Port),
		num("TRAFFICMON_SESSION_TTL_MINUTES", &c.Session.TTLMinutes),
		flag("TRAFFICMON_COOKIE_SECURE", &c.Server.CookieSecure),
		flag("TRAFFICMON_TRACE_STDOUT", &c.Telemetry.TraceStdout),
	} {
		if err != nil {
			return fmt.Errorf("environment override: %w", err)
		}
	}
	return nil
}

// Save writes the config to a YAML file at the given path.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Validate checks that the config is consistent.
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid api.base_url: %q", c.API.BaseURL)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	switch strings.ToLower(c.Server.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level %q", c.Server.LogLevel)
	}
	switch c.Session.Store {
	case "memory":
	case "redis":
		if c.Session.RedisURL == "" {
			return fmt.Errorf("session.redis_url is required when session.store is redis")
		}
	default:
		return fmt.Errorf("invalid session.store %q (want memory or redis)", c.Session.Store)
	}
	if c.Session.TTLMinutes < 0 {
		return fmt.Errorf("session.ttl_minutes must not be negative")
	}
	if c.Login.AttemptsPerMinute < 1 || c.Login.Burst < 1 {
		return fmt.Errorf("login.attempts_per_minute and login.burst must be positive")
	}
	if !i18n.Supported(i18n.Lang(c.UI.Lang)) {
		return fmt.Errorf("unsupported ui.lang %q", c.UI.Lang)
	}
	return nil
}
