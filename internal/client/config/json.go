package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/impacthands/internal/flagx"
	"github.com/dmitrijs2005/impacthands/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Intervals are
// timex.Duration so the file may say "30s" or give integer nanoseconds.
type JsonConfig struct {
	ServerBaseURL        string          `json:"server_base_url"`
	RedirectOrigin       string          `json:"redirect_origin"`
	SessionCheckInterval *timex.Duration `json:"session_check_interval"`
}

// parseJson overlays cfg with the file named by -c or -config. Keys absent
// from the file keep their current value. Read or decode errors panic.
func parseJson(cfg *Config, args []string) {
	path := flagx.ConfigPath(args)
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}
	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.ServerBaseURL != "" {
		cfg.ServerBaseURL = jc.ServerBaseURL
	}
	if jc.RedirectOrigin != "" {
		cfg.RedirectOrigin = jc.RedirectOrigin
	}
	if jc.SessionCheckInterval != nil {
		cfg.SessionCheckInterval = jc.SessionCheckInterval.Duration
	}
}
