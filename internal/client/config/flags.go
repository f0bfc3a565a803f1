package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/rainwise/internal/flagx"
)

var knownFlags = []string{"-a", "-store", "-dsn", "-lead", "-buffer", "-ttl", "-timeout", "-ping", "-log-level", "-log-format"}

// parseFlags overlays cfg with command-line flags.
//
//	-a string          API base URL
//	-store string      credential store: sqlite or memory
//	-dsn string        SQLite file for the session
//	-lead duration     refresh this long before token expiry
//	-buffer duration   treat tokens as expired this long before expiry
//	-ttl duration      token lifetime assumed when the API omits it
//	-timeout duration  per-request timeout
//	-ping duration     how often to check that the API is reachable
//	-log-level string  debug, info, warn or error
//	-log-format string text or json
//
// Only the flags above are looked at; everything else in args is ignored.
func parseFlags(cfg *Config, args []string) error {
	fs := flag.NewFlagSet("rainwise", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.APIBaseURL, "a", cfg.APIBaseURL, "API base URL")
	fs.StringVar(&cfg.StoreKind, "store", cfg.StoreKind, "credential store: sqlite or memory")
	fs.StringVar(&cfg.StoreDSN, "dsn", cfg.StoreDSN, "SQLite file for the session")
	fs.DurationVar(&cfg.RefreshLeadTime, "lead", cfg.RefreshLeadTime, "refresh lead time")
	fs.DurationVar(&cfg.ValidityBuffer, "buffer", cfg.ValidityBuffer, "token validity buffer")
	fs.DurationVar(&cfg.DefaultTokenTTL, "ttl", cfg.DefaultTokenTTL, "default token lifetime")
	fs.DurationVar(&cfg.RequestTimeout, "timeout", cfg.RequestTimeout, "request timeout")
	fs.DurationVar(&cfg.OnlineCheckInterval, "ping", cfg.OnlineCheckInterval, "online check interval")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "log format")

	return fs.Parse(flagx.FilterArgs(args, knownFlags))
}
