// Package config loads schemagen configuration from schemagen.yml,
// environment variables, and defaults.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config represents the schemagen configuration.
type Config struct {
	LogLevel          string   `mapstructure:"log_level"`
	SchemaPath        string   `mapstructure:"schema_path"`
	OutputPath        string   `mapstructure:"output_path"`
	Include           []string `mapstructure:"include"`
	Exclude           []string `mapstructure:"exclude"`
	ValidateSchema    bool     `mapstructure:"validate_schema"`
	ValidateRelations bool     `mapstructure:"validate_relations"`
	DefaultSchema     string   `mapstructure:"default_schema"`
}

// Load loads the configuration from schemagen.yml or schemagen.yaml in the
// working directory, falling back to defaults when no file exists.
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("log_level", "info")
	v.SetDefault("schema_path", "schema.json")
	v.SetDefault("output_path", "schema.prisma")
	v.SetDefault("validate_schema", true)
	v.SetDefault("validate_relations", true)
	v.SetDefault("default_schema", "")

	// Set config name and paths
	v.SetConfigName("schemagen")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Enable environment variable support
	v.SetEnvPrefix("SCHEMAGEN")
	v.AutomaticEnv()

	// Read config file if it exists
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found - use defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// validateConfig validates the configuration.
func validateConfig(cfg *Config) error {
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be one of debug, info, warn, error; got %q", cfg.LogLevel)
	}
	if cfg.SchemaPath == "" {
		return fmt.Errorf("schema_path must not be empty")
	}
	if cfg.OutputPath == "" {
		return fmt.Errorf("output_path must not be empty")
	}
	return nil
}
