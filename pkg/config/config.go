package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Config holds all configuration settings for the application
type Config struct {
	Environment  string             `mapstructure:"environment"`
	LogLevel     string             `mapstructure:"log_level"`
	Verification VerificationConfig `mapstructure:"verification"`
	Payload      PayloadConfig      `mapstructure:"payload"`
}

// VerificationConfig holds the policy knobs for payload verification
type VerificationConfig struct {
	SignerThreshold   int           `mapstructure:"signer_threshold"`
	AuthorizedSigners []string      `mapstructure:"authorized_signers"`
	Aggregation       string        `mapstructure:"aggregation"`
	MaxFutureDrift    time.Duration `mapstructure:"max_future_drift"`
	MaxPastDrift      time.Duration `mapstructure:"max_past_drift"`
}

// PayloadConfig holds settings for reading payload buffers from disk
type PayloadConfig struct {
	File string `mapstructure:"file"`
	Hex  bool   `mapstructure:"hex"`
}

// Load reads the configuration file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set default configuration values
	setDefaults(v)

	// Read the config file
	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, will rely on defaults and env vars
	}

	// Override with environment variables
	v.SetEnvPrefix("ORACLE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Parse the configuration
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setDefaults sets default values for all configuration options
func setDefaults(v *viper.Viper) {
	// General defaults
	v.SetDefault("environment", "development")
	v.SetDefault("log_level", "info")

	// Verification defaults
	v.SetDefault("verification.signer_threshold", 1)
	v.SetDefault("verification.aggregation", "median")
	v.SetDefault("verification.max_future_drift", "60s")
	v.SetDefault("verification.max_past_drift", "180s")

	// Payload defaults
	v.SetDefault("payload.hex", true)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if err := c.validateVerification(); err != nil {
		return fmt.Errorf("verification config: %w", err)
	}
	return nil
}

func (c *Config) validateVerification() error {
	if c.Verification.SignerThreshold < 1 {
		return fmt.Errorf("signer_threshold must be at least 1, got %d", c.Verification.SignerThreshold)
	}

	if len(c.Verification.AuthorizedSigners) == 0 {
		return fmt.Errorf("at least one authorized signer is required")
	}

	if c.Verification.SignerThreshold > len(c.Verification.AuthorizedSigners) {
		return fmt.Errorf("signer_threshold (%d) cannot exceed the number of authorized signers (%d)",
			c.Verification.SignerThreshold, len(c.Verification.AuthorizedSigners))
	}

	switch strings.ToLower(c.Verification.Aggregation) {
	case "median", "mean", "min":
	default:
		return fmt.Errorf("unknown aggregation %q", c.Verification.Aggregation)
	}

	if c.Verification.MaxFutureDrift <= 0 {
		return fmt.Errorf("max_future_drift must be positive")
	}

	if c.Verification.MaxPastDrift <= 0 {
		return fmt.Errorf("max_past_drift must be positive")
	}

	return nil
}

// GetLogLevel returns a zap log level based on the configured string
func (c *Config) GetLogLevel() zap.AtomicLevel {
	level := zap.NewAtomicLevel()
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		level.SetLevel(zap.DebugLevel)
	case "info":
		level.SetLevel(zap.InfoLevel)
	case "warn":
		level.SetLevel(zap.WarnLevel)
	case "error":
		level.SetLevel(zap.ErrorLevel)
	default:
		level.SetLevel(zap.InfoLevel)
	}
	return level
}

// IsDevelopment returns true if the environment is set to development
func (c *Config) IsDevelopment() bool {
	return strings.ToLower(c.Environment) == "development"
}
