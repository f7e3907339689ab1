// Package config provides Viper-based configuration management for conduit
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config represents the complete conduit configuration
type Config struct {
	API    APIConfig    `mapstructure:"api"`
	Redis  RedisConfig  `mapstructure:"redis"`
	Badger BadgerConfig `mapstructure:"badger"`
	Output OutputConfig `mapstructure:"output"`
	Log    LogConfig    `mapstructure:"log"`
	Import ImportConfig `mapstructure:"import"`
}

// APIConfig points at the Conduit REST API. BaseURL is the only place the host
// is configured.
type APIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// RedisConfig is optional; drafts, imports and the cross-process gesture lock
// need it.
type RedisConfig struct {
	Addr string `mapstructure:"addr"`
}

type BadgerConfig struct {
	Path string `mapstructure:"path"`
}

type OutputConfig struct {
	Colors bool   `mapstructure:"colors"`
	Color  string `mapstructure:"color"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type ImportConfig struct {
	// Rate is articles created per second by the import worker.
	Rate float64 `mapstructure:"rate"`
}

// flagKeys maps CLI flag names to config keys.
var flagKeys = map[string]string{
	"api-url":    "api.base_url",
	"timeout":    "api.timeout",
	"redis":      "redis.addr",
	"badger":     "badger.path",
	"color":      "output.color",
	"log-format": "log.format",
	"log-level":  "log.level",
}

// Load reads configuration from file, environment variables and flags.
// flags may be nil.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(".conduit")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/conduit")
	}

	// CONDUIT_API_BASE_URL -> api.base_url
	v.SetEnvPrefix("CONDUIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("binding flag %s: %w", name, err)
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	cfg.API.BaseURL = strings.TrimRight(cfg.API.BaseURL, "/")

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "")
	v.SetDefault("api.timeout", 10*time.Second)

	v.SetDefault("redis.addr", "")
	v.SetDefault("badger.path", "")

	v.SetDefault("output.colors", true)
	v.SetDefault("output.color", "auto")

	// The user is told about failures by the printer; the log is for debugging.
	v.SetDefault("log.level", "error")
	v.SetDefault("log.format", "text")

	v.SetDefault("import.rate", 1.0)
}

func validate(cfg *Config) error {
	if cfg.API.BaseURL == "" {
		return errors.New("api.base_url is required (set it in .conduit.yaml, CONDUIT_API_BASE_URL or --api-url)")
	}
	u, err := url.Parse(cfg.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid api.base_url %q: must be an http or https URL", cfg.API.BaseURL)
	}

	if cfg.API.Timeout <= 0 {
		return fmt.Errorf("invalid api.timeout %s: must be positive", cfg.API.Timeout)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Log.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", cfg.Log.Level)
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[cfg.Log.Format] {
		return fmt.Errorf("invalid log format: %s (must be text or json)", cfg.Log.Format)
	}

	if cfg.Import.Rate < 0 {
		return fmt.Errorf("invalid import.rate %v: must not be negative", cfg.Import.Rate)
	}

	return nil
}

// Persistent reports whether drafts and imports can be stored.
func (c *Config) Persistent() bool {
	return c.Redis.Addr != ""
}
