package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Config holds runtime settings for the chat client.
//
// Fields:
//   - APIBaseURL: http(s) root of the backend API; the live channel URL is derived from it.
//   - DatabasePath: SQLite file holding client-local state (the persisted credential).
//   - SessionCheckInterval: fallback period of the session guard's polling trigger.
//   - GuardBand: delay past credential expiry before the scheduled re-check (at least 1s).
//   - RequestTimeout: per-request timeout of the HTTP client.
//   - HandshakeTimeout: websocket handshake timeout.
//   - LogLevel: debug, info, warn or error.
type Config struct {
	APIBaseURL           string        `env:"ROOMCHAT_API_URL"`
	DatabasePath         string        `env:"ROOMCHAT_DB_PATH"`
	SessionCheckInterval time.Duration `env:"ROOMCHAT_SESSION_CHECK_INTERVAL"`
	GuardBand            time.Duration `env:"ROOMCHAT_GUARD_BAND"`
	RequestTimeout       time.Duration `env:"ROOMCHAT_REQUEST_TIMEOUT"`
	HandshakeTimeout     time.Duration `env:"ROOMCHAT_HANDSHAKE_TIMEOUT"`
	LogLevel             string        `env:"ROOMCHAT_LOG_LEVEL"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIBaseURL = "http://localhost:8000"
	c.DatabasePath = "chat.db"
	c.SessionCheckInterval = 30 * time.Second
	c.GuardBand = time.Second
	c.RequestTimeout = 10 * time.Second
	c.HandshakeTimeout = 10 * time.Second
	c.LogLevel = "info"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// the environment (and .env), JSON (if present) and command-line flags (if
// present). Later sources take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}

// Validate normalises and checks the loaded values.
func (c *Config) Validate() error {
	if _, err := c.WebsocketURL(); err != nil {
		return err
	}
	if c.SessionCheckInterval <= 0 {
		return fmt.Errorf("session check interval must be positive, got %s", c.SessionCheckInterval)
	}
	if c.RequestTimeout <= 0 || c.HandshakeTimeout <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}
	if c.GuardBand < time.Second {
		c.GuardBand = time.Second
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("database path is required")
	}
	return nil
}

// WebsocketURL derives the live channel base URL from APIBaseURL:
// http becomes ws and https becomes wss.
func (c *Config) WebsocketURL() (string, error) {
	u, err := url.Parse(c.APIBaseURL)
	if err != nil {
		return "", fmt.Errorf("parse api url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("api url must be http or https, got %q", c.APIBaseURL)
	}
	if u.Host == "" {
		return "", fmt.Errorf("api url has no host: %q", c.APIBaseURL)
	}
	return strings.TrimRight(u.String(), "/"), nil
}
