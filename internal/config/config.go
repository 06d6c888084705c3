// Package config loads settings for the bufferdebounce command.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/zoobzio/debouncez"
)

// EnvPrefix is prepended to every environment override, e.g.
// BUFFERDEBOUNCE_DEBOUNCE_TIMEOUT=2s.
const EnvPrefix = "BUFFERDEBOUNCE"

// Config represents the application configuration
type Config struct {
	Debounce DebounceConfig `mapstructure:"debounce"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// DebounceConfig configures the operator
type DebounceConfig struct {
	Timeout       time.Duration `mapstructure:"timeout" validate:"gt=0"`
	MaxAge        time.Duration `mapstructure:"maxAge" validate:"gt=0"`
	SuppressEmpty bool          `mapstructure:"suppressEmpty"`
}

// LoggingConfig configures the zap logger
type LoggingConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
}

// MetricsConfig configures the Prometheus endpoint and the periodic batch report
type MetricsConfig struct {
	Address        string        `mapstructure:"address" validate:"omitempty,hostname_port"`
	ReportInterval time.Duration `mapstructure:"reportInterval" validate:"gte=0"`
}

// Operator converts the debounce section to the library's Config.
func (c DebounceConfig) Operator() debouncez.Config {
	return debouncez.Config{
		DebounceTimeout: c.Timeout,
		MaxBufferAge:    c.MaxAge,
		SuppressEmpty:   c.SuppressEmpty,
	}
}

// Default returns the settings used when nothing else is configured:
// a one second debounce capped at five seconds.
func Default() Config {
	return Config{
		Debounce: DebounceConfig{
			Timeout: time.Second,
			MaxAge:  5 * time.Second,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load loads configuration from defaults, an optional file and the environment,
// in increasing order of precedence, then validates the result.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	defaults := Default()
	v.SetDefault("debounce.timeout", defaults.Debounce.Timeout)
	v.SetDefault("debounce.maxAge", defaults.Debounce.MaxAge)
	v.SetDefault("debounce.suppressEmpty", defaults.Debounce.SuppressEmpty)
	v.SetDefault("logging.level", defaults.Logging.Level)
	v.SetDefault("metrics.address", defaults.Metrics.Address)
	v.SetDefault("metrics.reportInterval", defaults.Metrics.ReportInterval)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the struct tags on cfg.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
