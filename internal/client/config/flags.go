package config

import (
	"flag"
	"time"

	"github.com/dmitrijs2005/impacthands/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
//	-a string   backend base URL
//	-o string   redirect origin for emailed codes
//	-i int      session check interval in seconds, 0 disables
//
// Unknown flags are filtered out with flagx.FilterArgs first.
func parseFlags(cfg *Config, args []string) {
	args = flagx.FilterArgs(args, []string{"-a", "-o", "-i"})

	fs := flag.NewFlagSet("client", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerBaseURL, "a", cfg.ServerBaseURL, "backend base URL")
	fs.StringVar(&cfg.RedirectOrigin, "o", cfg.RedirectOrigin, "redirect origin for emailed codes")
	sessionCheckInterval := fs.Int("i", int(cfg.SessionCheckInterval.Seconds()), "session check interval (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.SessionCheckInterval = time.Duration(*sessionCheckInterval) * time.Second
}
