// Package config loads and validates watcher configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/sigeo-niteroi/dowatch/internal/gazette"
)

// Config captures all watcher configuration knobs loaded via Viper.
// Credentials are expected to arrive through DOWATCH_-prefixed environment
// variables; everything else usually lives in the YAML file.
type Config struct {
	Gazette GazetteConfig `mapstructure:"gazette"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	SMTP    SMTPConfig    `mapstructure:"smtp"`
	Search  SearchConfig  `mapstructure:"search"`
	Retry   RetryConfig   `mapstructure:"retry"`
	Serve   ServeConfig   `mapstructure:"serve"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// GazetteConfig points the watcher at the publication source.
type GazetteConfig struct {
	BaseURL            string `mapstructure:"base_url"`
	UserAgent          string `mapstructure:"user_agent"`
	StrictAvailability bool   `mapstructure:"strict_availability"`
}

// HTTPConfig bounds the document fetch.
type HTTPConfig struct {
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

// SMTPConfig configures the mail relay session and addressing.
type SMTPConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Username       string `mapstructure:"username"`
	Password       string `mapstructure:"password"`
	Sender         string `mapstructure:"sender"`
	Operations     string `mapstructure:"operations"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// SearchConfig supplies the term registry. Exactly one of Terms (flat mode)
// or Directory (name→address mode) must be set. Directory is an ordered
// list because match results preserve registry order. Terms may also be
// given as a comma-separated DOWATCH_SEARCH_TERMS environment value;
// Directory entries are structured and only load from the config file.
type SearchConfig struct {
	Terms     []string                `mapstructure:"terms"`
	Directory []gazette.RegistryEntry `mapstructure:"directory"`
}

// RetryConfig bounds the whole-pipeline retry loop.
type RetryConfig struct {
	Attempts        int `mapstructure:"attempts"`
	IntervalMinutes int `mapstructure:"interval_minutes"`
}

// ServeConfig controls the optional daemon mode.
type ServeConfig struct {
	Port    int    `mapstructure:"port"`
	DailyAt string `mapstructure:"daily_at"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("DOWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("gazette.base_url", gazette.DefaultBaseURL)
	v.SetDefault("gazette.user_agent", "dowatch/1.0 (+https://github.com/sigeo-niteroi/dowatch)")
	v.SetDefault("gazette.strict_availability", false)
	v.SetDefault("http.timeout_seconds", 30)
	v.SetDefault("smtp.host", "smtp.gmail.com")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.username", "")
	v.SetDefault("smtp.password", "")
	v.SetDefault("smtp.sender", "")
	v.SetDefault("smtp.operations", "")
	v.SetDefault("smtp.timeout_seconds", 30)
	// Registered so DOWATCH_SEARCH_TERMS works without a config file; the
	// env value is split on commas during unmarshal. Directory mode has no
	// env form and must come from the config file.
	v.SetDefault("search.terms", []string{})
	v.SetDefault("retry.attempts", 4)
	v.SetDefault("retry.interval_minutes", 60)
	v.SetDefault("serve.port", 8080)
	v.SetDefault("serve.daily_at", "08:00")
	v.SetDefault("logging.development", false)
}

// Validate enforces required values. Violations surface as
// ConfigurationError: fatal, never retried.
func (c Config) Validate() error {
	if c.SMTP.Host == "" {
		return &gazette.ConfigurationError{Reason: "smtp.host must be set"}
	}
	if c.SMTP.Sender == "" {
		return &gazette.ConfigurationError{Reason: "smtp.sender must be set"}
	}
	if c.SMTP.Operations == "" {
		return &gazette.ConfigurationError{Reason: "smtp.operations must be set"}
	}
	if c.SMTP.Port <= 0 {
		return &gazette.ConfigurationError{Reason: "smtp.port must be > 0"}
	}
	if len(c.Search.Terms) == 0 && len(c.Search.Directory) == 0 {
		return &gazette.ConfigurationError{Reason: "search.terms or search.directory must be set"}
	}
	if len(c.Search.Terms) > 0 && len(c.Search.Directory) > 0 {
		return &gazette.ConfigurationError{Reason: "search.terms and search.directory are mutually exclusive"}
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return &gazette.ConfigurationError{Reason: "http.timeout_seconds must be > 0"}
	}
	if c.Retry.Attempts <= 0 {
		return &gazette.ConfigurationError{Reason: "retry.attempts must be > 0"}
	}
	if c.Retry.IntervalMinutes <= 0 {
		return &gazette.ConfigurationError{Reason: "retry.interval_minutes must be > 0"}
	}
	if c.Serve.Port <= 0 {
		return &gazette.ConfigurationError{Reason: "serve.port must be > 0"}
	}
	if _, err := time.Parse("15:04", c.Serve.DailyAt); err != nil {
		return &gazette.ConfigurationError{Reason: "serve.daily_at must be hh:mm"}
	}
	return nil
}

// Registry builds the term registry in the mode the search section implies.
func (c Config) Registry() gazette.TermRegistry {
	if len(c.Search.Directory) > 0 {
		return gazette.NewDirectory(c.Search.Directory)
	}
	return gazette.NewFlatRegistry(c.Search.Terms)
}

// FetchTimeout bounds one document fetch attempt.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// MailTimeout bounds one mail delivery attempt.
func (c Config) MailTimeout() time.Duration {
	return time.Duration(c.SMTP.TimeoutSeconds) * time.Second
}

// RetryInterval is the spacing between whole-pipeline attempts.
func (c Config) RetryInterval() time.Duration {
	return time.Duration(c.Retry.IntervalMinutes) * time.Minute
}
