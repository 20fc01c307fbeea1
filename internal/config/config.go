// Package config loads server settings from defaults, an optional YAML file,
// and SMARTDASH_* environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config is the full server configuration.
type Config struct {
	ListenAddr     string   `mapstructure:"listen_addr"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`

	MaxUploadBytes int64         `mapstructure:"max_upload_bytes"`
	SessionTTL     time.Duration `mapstructure:"session_ttl"`
	PreviewRows    int           `mapstructure:"preview_rows"`

	// CurrencySymbol prefixes monetary values in reports.
	CurrencySymbol string `mapstructure:"currency_symbol"`
	// KeywordsFile optionally overrides the role keyword lists used by
	// column inference.
	KeywordsFile string `mapstructure:"keywords_file"`

	// DBRowLimit caps rows pulled from a database table.
	DBRowLimit int `mapstructure:"db_row_limit"`

	LogLevel string `mapstructure:"log_level"`
}

// Load loads configuration with precedence env > config file > defaults.
// cfgFile may be empty, in which case only defaults and env apply.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SMARTDASH")
	v.AutomaticEnv()

	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("allowed_origins", []string{"http://localhost:5173", "http://localhost:3000"})
	v.SetDefault("max_upload_bytes", int64(25<<20))
	v.SetDefault("session_ttl", "2h")
	v.SetDefault("preview_rows", 10)
	v.SetDefault("currency_symbol", "₹")
	v.SetDefault("keywords_file", "")
	v.SetDefault("db_row_limit", 10000)
	v.SetDefault("log_level", "info")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.MaxUploadBytes <= 0 {
		return nil, fmt.Errorf("max_upload_bytes must be positive")
	}
	if c.SessionTTL < 0 {
		return nil, fmt.Errorf("session_ttl must not be negative")
	}
	return &c, nil
}
