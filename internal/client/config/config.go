package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/dmitrijs2005/rainwise/internal/client/transport"
)

const (
	StoreSQLite = "sqlite"
	StoreMemory = "memory"
)

// Config holds runtime settings for the rainwise CLI.
//
// StoreDSN may be empty, in which case the CLI keeps the session database
// in the user's config directory.
type Config struct {
	APIBaseURL          string        `env:"RAINWISE_API_URL"`
	StoreKind           string        `env:"RAINWISE_STORE"`
	StoreDSN            string        `env:"RAINWISE_STORE_DSN"`
	RefreshLeadTime     time.Duration `env:"RAINWISE_REFRESH_LEAD_TIME"`
	ValidityBuffer      time.Duration `env:"RAINWISE_VALIDITY_BUFFER"`
	DefaultTokenTTL     time.Duration `env:"RAINWISE_DEFAULT_TOKEN_TTL"`
	RequestTimeout      time.Duration `env:"RAINWISE_REQUEST_TIMEOUT"`
	OnlineCheckInterval time.Duration `env:"RAINWISE_ONLINE_CHECK_INTERVAL"`
	PublicEndpoints     []string      `env:"RAINWISE_PUBLIC_ENDPOINTS" env-separator:","`
	LogLevel            string        `env:"RAINWISE_LOG_LEVEL"`
	LogFormat           string        `env:"RAINWISE_LOG_FORMAT"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIBaseURL = "http://localhost:4000"
	c.StoreKind = StoreSQLite
	c.StoreDSN = ""
	c.RefreshLeadTime = 10 * time.Minute
	c.ValidityBuffer = 5 * time.Minute
	c.DefaultTokenTTL = 24 * time.Hour
	c.RequestTimeout = 15 * time.Second
	c.OnlineCheckInterval = 30 * time.Second
	c.PublicEndpoints = append([]string(nil), transport.DefaultPublicEndpoints...)
	c.LogLevel = "warn"
	c.LogFormat = "text"
}

// Validate reports the first setting that cannot work.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("api url %q must be an absolute URL", c.APIBaseURL)
	}
	switch c.StoreKind {
	case StoreSQLite, StoreMemory:
	default:
		return fmt.Errorf("unknown store %q (want %s or %s)", c.StoreKind, StoreSQLite, StoreMemory)
	}
	for name, d := range map[string]time.Duration{
		"refresh lead time":     c.RefreshLeadTime,
		"validity buffer":       c.ValidityBuffer,
		"default token ttl":     c.DefaultTokenTTL,
		"request timeout":       c.RequestTimeout,
		"online check interval": c.OnlineCheckInterval,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", name, d)
		}
	}
	return nil
}

// Load builds a Config from defaults, the JSON file, the environment and
// args (without the program name), then validates it.
func Load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfig is Load over os.Args. It panics on error.
func LoadConfig() *Config {
	cfg, err := Load(os.Args[1:])
	if err != nil {
		panic(err)
	}
	return cfg
}
