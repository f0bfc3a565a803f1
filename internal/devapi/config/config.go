// Package config handles configuration for the development API server:
// defaults, an optional JSON overlay, RAINWISE_DEVAPI_* environment
// variables and command-line flags, applied in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"
)

// Config holds runtime settings for the development API.
//
// SecretKey signs HS256 access tokens. The default is for local use only.
type Config struct {
	Addr            string        `env:"RAINWISE_DEVAPI_ADDR"`
	SecretKey       string        `env:"RAINWISE_DEVAPI_SECRET"`
	AccessTokenTTL  time.Duration `env:"RAINWISE_DEVAPI_ACCESS_TTL"`
	RefreshTokenTTL time.Duration `env:"RAINWISE_DEVAPI_REFRESH_TTL"`
	AdminEmail      string        `env:"RAINWISE_DEVAPI_ADMIN_EMAIL"`
	AdminPassword   string        `env:"RAINWISE_DEVAPI_ADMIN_PASSWORD"`
	ShutdownTimeout time.Duration `env:"RAINWISE_DEVAPI_SHUTDOWN_TIMEOUT"`
	LogLevel        string        `env:"RAINWISE_DEVAPI_LOG_LEVEL"`
	LogFormat       string        `env:"RAINWISE_DEVAPI_LOG_FORMAT"`
}

// LoadDefaults populates Config with development defaults.
// NOTE: These values are insecure and must not leave a developer machine.
func (c *Config) LoadDefaults() {
	c.Addr = ":4000"
	c.SecretKey = "secretKey"
	c.AccessTokenTTL = 15 * time.Minute
	c.RefreshTokenTTL = 7 * 24 * time.Hour
	c.AdminEmail = "admin@rainwise.local"
	c.AdminPassword = "admin"
	c.ShutdownTimeout = 5 * time.Second
	c.LogLevel = "info"
	c.LogFormat = "json"
}

func (c *Config) Validate() error {
	if c.Addr == "" {
		return errors.New("listen address must not be empty")
	}
	if c.SecretKey == "" {
		return errors.New("secret key must not be empty")
	}
	if c.AccessTokenTTL <= 0 {
		return fmt.Errorf("access token ttl must be positive, got %s", c.AccessTokenTTL)
	}
	if c.RefreshTokenTTL <= 0 {
		return fmt.Errorf("refresh token ttl must be positive, got %s", c.RefreshTokenTTL)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown timeout must be positive, got %s", c.ShutdownTimeout)
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
