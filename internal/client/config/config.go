package config

import (
	"os"
	"time"
)

// Config holds runtime settings for the ImpactHands client.
//
// Fields:
//   - ServerBaseURL: base URL of the backend API.
//   - RedirectOrigin: origin sent as the redirect target of emailed codes.
//   - SessionCheckInterval: how often the client asks the backend whether
//     the session is still valid. Zero disables the check.
type Config struct {
	ServerBaseURL        string
	RedirectOrigin       string
	SessionCheckInterval time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerBaseURL = "http://localhost:8080"
	c.RedirectOrigin = "http://localhost:5173"
	c.SessionCheckInterval = 30 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg, os.Args[1:])
	parseFlags(cfg, os.Args[1:])
	return cfg
}
