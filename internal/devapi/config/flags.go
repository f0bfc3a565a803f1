package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/rainwise/internal/flagx"
)

// parseFlags overlays cfg with command-line flags.
//
//	-a string          address and port to listen on
//	-s string          JWT HMAC secret key
//	-t int             access token validity, minutes
//	-r int             refresh token validity, minutes
//	-log-level string  debug, info, warn or error
//
// Token lifetimes are given in whole minutes.
func parseFlags(cfg *Config, args []string) error {
	fs := flag.NewFlagSet("devapi", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.Addr, "a", cfg.Addr, "address and port to run server")
	fs.StringVar(&cfg.SecretKey, "s", cfg.SecretKey, "secret key")
	access := fs.Int("t", int(cfg.AccessTokenTTL.Minutes()), "access token validity (in minutes)")
	refresh := fs.Int("r", int(cfg.RefreshTokenTTL.Minutes()), "refresh token validity (in minutes)")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level")

	filtered := flagx.FilterArgs(args, []string{"-a", "-s", "-t", "-r", "-log-level"})
	if err := fs.Parse(filtered); err != nil {
		return err
	}

	// Only touch durations that were given, so sub-minute values from
	// earlier layers survive.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			cfg.AccessTokenTTL = time.Duration(*access) * time.Minute
		case "r":
			cfg.RefreshTokenTTL = time.Duration(*refresh) * time.Minute
		}
	})
	return nil
}
