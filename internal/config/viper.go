// Package config provides Viper-based hierarchical configuration management
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"yamo/treasury/internal/backend"
	"yamo/treasury/internal/export"
	"yamo/treasury/internal/logging"
	"yamo/treasury/internal/models"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by the configuration.
const EnvPrefix = "YAMO"

// Config represents the complete application configuration
type Config struct {
	Log struct {
		Level  string `mapstructure:"level" yaml:"level"`
		Format string `mapstructure:"format" yaml:"format"`
	} `mapstructure:"log" yaml:"log"`

	Backend struct {
		BaseURL        string            `mapstructure:"base_url" yaml:"base_url"`
		TimeoutSeconds int               `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
		MaxRetries     int               `mapstructure:"max_retries" yaml:"max_retries"`
		Endpoints      map[string]string `mapstructure:"endpoints" yaml:"endpoints"`
	} `mapstructure:"backend" yaml:"backend"`

	Filter struct {
		DebounceMS   int    `mapstructure:"debounce_ms" yaml:"debounce_ms"`
		SectionsFile string `mapstructure:"sections_file" yaml:"sections_file"`
	} `mapstructure:"filter" yaml:"filter"`

	Display struct {
		Currency string `mapstructure:"currency" yaml:"currency"`
	} `mapstructure:"display" yaml:"display"`

	Export struct {
		Delimiter string `mapstructure:"delimiter" yaml:"delimiter"`
	} `mapstructure:"export" yaml:"export"`

	Serve struct {
		Addr              string `mapstructure:"addr" yaml:"addr"`
		RequestsPerMinute int    `mapstructure:"requests_per_minute" yaml:"requests_per_minute"`
	} `mapstructure:"serve" yaml:"serve"`
}

// InitializeConfig loads the configuration: defaults, then config.yaml from $HOME/.yamo,
// ./.yamo or the working directory (or configFile when set), then YAMO_* environment
// variables.
func InitializeConfig(configFile string) (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Config file locations
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("$HOME/.yamo")
		v.AddConfigPath(".yamo")
		v.AddConfigPath(".")
	}

	// 3. Environment variables
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 4. Read config file (optional unless named explicitly)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 5. Validate configuration
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	// Backend defaults
	v.SetDefault("backend.base_url", "http://localhost/yamo")
	v.SetDefault("backend.timeout_seconds", 10)
	v.SetDefault("backend.max_retries", 2)
	for r, endpoint := range backend.DefaultEndpoints {
		v.SetDefault("backend.endpoints."+string(r), endpoint)
	}

	// Filter defaults
	v.SetDefault("filter.debounce_ms", 300)
	v.SetDefault("filter.sections_file", "")

	// Display and export defaults
	v.SetDefault("display.currency", "EUR")
	v.SetDefault("export.delimiter", ",")

	// HTTP server defaults
	v.SetDefault("serve.addr", ":8080")
	v.SetDefault("serve.requests_per_minute", 120)
}

// validateConfig validates the configuration values
func validateConfig(config *Config) error {
	if _, err := logrus.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %s", config.Log.Level)
	}

	if config.Log.Format != "text" && config.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be 'text' or 'json')", config.Log.Format)
	}

	if config.Backend.BaseURL != "" {
		u, err := url.Parse(config.Backend.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https" && u.Scheme != "file") {
			return fmt.Errorf("backend.base_url must be an http(s) or file URL, got: %s", config.Backend.BaseURL)
		}
	}

	if config.Backend.TimeoutSeconds < 1 || config.Backend.TimeoutSeconds > 300 {
		return fmt.Errorf("backend.timeout_seconds must be between 1 and 300, got: %d", config.Backend.TimeoutSeconds)
	}

	if config.Backend.MaxRetries < 0 || config.Backend.MaxRetries > 10 {
		return fmt.Errorf("backend.max_retries must be between 0 and 10, got: %d", config.Backend.MaxRetries)
	}

	for name := range config.Backend.Endpoints {
		if _, err := models.ParseResource(name); err != nil {
			return fmt.Errorf("backend.endpoints: %w", err)
		}
	}

	if config.Filter.DebounceMS < 0 || config.Filter.DebounceMS > 5000 {
		return fmt.Errorf("filter.debounce_ms must be between 0 and 5000, got: %d", config.Filter.DebounceMS)
	}

	if strings.TrimSpace(config.Display.Currency) == "" {
		return fmt.Errorf("display.currency must not be empty")
	}

	if _, err := export.ParseDelimiter(config.Export.Delimiter); err != nil {
		return fmt.Errorf("export.delimiter must be a single character, got: %s", config.Export.Delimiter)
	}

	if config.Serve.RequestsPerMinute < 1 || config.Serve.RequestsPerMinute > 100000 {
		return fmt.Errorf("serve.requests_per_minute must be between 1 and 100000, got: %d", config.Serve.RequestsPerMinute)
	}

	return nil
}

// DebounceDelay returns the search debounce delay.
func (c *Config) DebounceDelay() time.Duration {
	return time.Duration(c.Filter.DebounceMS) * time.Millisecond
}

// BackendTimeout returns the HTTP timeout of backend reads.
func (c *Config) BackendTimeout() time.Duration {
	return time.Duration(c.Backend.TimeoutSeconds) * time.Second
}

// Delimiter returns the CSV export delimiter.
func (c *Config) Delimiter() rune {
	d, err := export.ParseDelimiter(c.Export.Delimiter)
	if err != nil {
		return export.DefaultDelimiter
	}
	return d
}

// BackendEndpoints returns the configured endpoints keyed by resource.
func (c *Config) BackendEndpoints() map[models.Resource]string {
	out := make(map[models.Resource]string, len(c.Backend.Endpoints))
	for name, endpoint := range c.Backend.Endpoints {
		out[models.Resource(name)] = endpoint
	}
	return out
}

// ConfigureLoggingFromConfig returns the logger described by the log section.
func ConfigureLoggingFromConfig(config *Config) logging.Logger {
	return logging.NewLogrusAdapter(config.Log.Level, config.Log.Format)
}
