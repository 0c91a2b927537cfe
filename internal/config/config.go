// Package config loads and validates application configuration from
// config files and environment variables via viper.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Base cadence names accepted for the global run schedule.
const (
	CadenceHourly     = "hourly"
	CadenceTwiceDaily = "twicedaily"
	CadenceDaily      = "daily"
)

// Default harvest settings.
const (
	DefaultSourceLimit   = 50
	DefaultConcurrency   = 5
	DefaultRetryCount    = 1
	DefaultFetchTimeout  = 25 * time.Second
	DefaultMetricsWindow = 7 * 24 * time.Hour
	DefaultMinRunGap     = 30 * time.Minute
	DefaultMaxRunGap     = 48 * time.Hour
	DefaultUserAgent     = "goharvest/1.0 (+https://github.com/jonesrussell/goharvest)"
)

// AppConfig identifies the running application.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
}

// LoggerConfig controls log output.
type LoggerConfig struct {
	Level       string `mapstructure:"level"`
	Encoding    string `mapstructure:"encoding"`
	Development bool   `mapstructure:"development"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Address      string        `mapstructure:"address"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// RedisConfig holds the optional fingerprint-cache settings.
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// HarvestConfig controls the crawl orchestrator.
type HarvestConfig struct {
	// SourceLimit bounds how many due sources one run picks up.
	SourceLimit int `mapstructure:"source_limit"`
	// Concurrency is the fetch worker pool size.
	Concurrency int `mapstructure:"concurrency"`
	// RetryCount is how many retry passes failed sources get.
	RetryCount int `mapstructure:"retry_count"`
	// FetchTimeout bounds each adapter fetch.
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"`
	// BaseCadence is the nominal global run schedule.
	BaseCadence string `mapstructure:"base_cadence"`
	// MetricsWindow is the rolling window the rescheduler reads.
	MetricsWindow time.Duration `mapstructure:"metrics_window"`
	// RenderServiceURL, when set, enables the external JS-rendering hop
	// for scraper sources that request it.
	RenderServiceURL string `mapstructure:"render_service_url"`
	UserAgent        string `mapstructure:"user_agent"`
}

// BaseInterval returns the duration of the configured cadence.
func (h HarvestConfig) BaseInterval() time.Duration {
	switch h.BaseCadence {
	case CadenceTwiceDaily:
		return 12 * time.Hour
	case CadenceDaily:
		return 24 * time.Hour
	default:
		return time.Hour
	}
}

// Config is the root configuration object.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Logger   LoggerConfig   `mapstructure:"logger"`
	Database DatabaseConfig `mapstructure:"database"`
	Server   ServerConfig   `mapstructure:"server"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Harvest  HarvestConfig  `mapstructure:"harvest"`
}

// Load unmarshals the root config from viper and validates it.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks configuration invariants and fills safe defaults.
func (c *Config) Validate() error {
	if c.Harvest.SourceLimit <= 0 {
		c.Harvest.SourceLimit = DefaultSourceLimit
	}
	if c.Harvest.Concurrency <= 0 {
		c.Harvest.Concurrency = DefaultConcurrency
	}
	if c.Harvest.RetryCount < 0 {
		c.Harvest.RetryCount = DefaultRetryCount
	}
	if c.Harvest.FetchTimeout <= 0 {
		c.Harvest.FetchTimeout = DefaultFetchTimeout
	}
	if c.Harvest.MetricsWindow <= 0 {
		c.Harvest.MetricsWindow = DefaultMetricsWindow
	}
	if c.Harvest.UserAgent == "" {
		c.Harvest.UserAgent = DefaultUserAgent
	}

	switch c.Harvest.BaseCadence {
	case "", CadenceHourly, CadenceTwiceDaily, CadenceDaily:
	default:
		return fmt.Errorf("unknown base cadence %q", c.Harvest.BaseCadence)
	}
	if c.Harvest.BaseCadence == "" {
		c.Harvest.BaseCadence = CadenceHourly
	}

	if c.Database.Host != "" && c.Database.Name == "" {
		return errors.New("database name is required when database host is set")
	}

	return nil
}

// SetDefaults registers production-safe defaults on a viper instance.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("app", map[string]any{
		"name":        "goharvest",
		"environment": "production",
		"debug":       false,
	})
	v.SetDefault("logger", map[string]any{
		"level":       "info",
		"encoding":    "json",
		"development": false,
	})
	v.SetDefault("server", map[string]any{
		"address":       ":8080",
		"read_timeout":  "15s",
		"write_timeout": "15s",
		"idle_timeout":  "60s",
	})
	v.SetDefault("database", map[string]any{
		"host":    "127.0.0.1",
		"port":    "5432",
		"user":    "goharvest",
		"name":    "goharvest",
		"sslmode": "disable",
	})
	v.SetDefault("redis", map[string]any{
		"enabled": false,
		"addr":    "127.0.0.1:6379",
		"db":      0,
	})
	v.SetDefault("harvest", map[string]any{
		"source_limit":   DefaultSourceLimit,
		"concurrency":    DefaultConcurrency,
		"retry_count":    DefaultRetryCount,
		"fetch_timeout":  DefaultFetchTimeout.String(),
		"base_cadence":   CadenceHourly,
		"metrics_window": DefaultMetricsWindow.String(),
		"user_agent":     DefaultUserAgent,
	})
}
