package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/rainwise/internal/flagx"
	"github.com/dmitrijs2005/rainwise/internal/timex"
)

// JsonConfig mirrors Config for the optional JSON file. Absent fields keep
// the defaults.
type JsonConfig struct {
	Addr            *string         `json:"addr"`
	SecretKey       *string         `json:"secret_key"`
	AccessTokenTTL  *timex.Duration `json:"access_token_ttl"`
	RefreshTokenTTL *timex.Duration `json:"refresh_token_ttl"`
	AdminEmail      *string         `json:"admin_email"`
	AdminPassword   *string         `json:"admin_password"`
	ShutdownTimeout *timex.Duration `json:"shutdown_timeout"`
	LogLevel        *string         `json:"log_level"`
	LogFormat       *string         `json:"log_format"`
}

func parseJson(cfg *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	for dst, v := range map[*string]*string{
		&cfg.Addr:          jc.Addr,
		&cfg.SecretKey:     jc.SecretKey,
		&cfg.AdminEmail:    jc.AdminEmail,
		&cfg.AdminPassword: jc.AdminPassword,
		&cfg.LogLevel:      jc.LogLevel,
		&cfg.LogFormat:     jc.LogFormat,
	} {
		if v != nil {
			*dst = *v
		}
	}
	if jc.AccessTokenTTL != nil {
		cfg.AccessTokenTTL = jc.AccessTokenTTL.Duration
	}
	if jc.RefreshTokenTTL != nil {
		cfg.RefreshTokenTTL = jc.RefreshTokenTTL.Duration
	}
	if jc.ShutdownTimeout != nil {
		cfg.ShutdownTimeout = jc.ShutdownTimeout.Duration
	}
	return nil
}
