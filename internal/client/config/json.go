package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/rainwise/internal/flagx"
	"github.com/dmitrijs2005/rainwise/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Durations
// accept strings like "10m" or integer nanoseconds. Absent fields keep
// the value from the previous layer.
type JsonConfig struct {
	APIBaseURL          *string         `json:"api_base_url"`
	StoreKind           *string         `json:"store"`
	StoreDSN            *string         `json:"store_dsn"`
	RefreshLeadTime     *timex.Duration `json:"refresh_lead_time"`
	ValidityBuffer      *timex.Duration `json:"validity_buffer"`
	DefaultTokenTTL     *timex.Duration `json:"default_token_ttl"`
	RequestTimeout      *timex.Duration `json:"request_timeout"`
	OnlineCheckInterval *timex.Duration `json:"online_check_interval"`
	PublicEndpoints     []string        `json:"public_endpoints"`
	LogLevel            *string         `json:"log_level"`
	LogFormat           *string         `json:"log_format"`
}

// parseJson overlays cfg with the file named by -c/-config, if any.
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

	setString(&cfg.APIBaseURL, jc.APIBaseURL)
	setString(&cfg.StoreKind, jc.StoreKind)
	setString(&cfg.StoreDSN, jc.StoreDSN)
	setDuration(&cfg.RefreshLeadTime, jc.RefreshLeadTime)
	setDuration(&cfg.ValidityBuffer, jc.ValidityBuffer)
	setDuration(&cfg.DefaultTokenTTL, jc.DefaultTokenTTL)
	setDuration(&cfg.RequestTimeout, jc.RequestTimeout)
	setDuration(&cfg.OnlineCheckInterval, jc.OnlineCheckInterval)
	if jc.PublicEndpoints != nil {
		cfg.PublicEndpoints = jc.PublicEndpoints
	}
	setString(&cfg.LogLevel, jc.LogLevel)
	setString(&cfg.LogFormat, jc.LogFormat)
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v *timex.Duration) {
	if v != nil {
		*dst = v.Duration
	}
}
