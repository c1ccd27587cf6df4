// Package config provides configuration management for the polyrecover CLI
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Davincible/polyrecover/pkg/crypto/radix"
	"github.com/spf13/viper"
)

const envPrefix = "POLYRECOVER"

// Config represents the main configuration structure
type Config struct {
	Output   OutputConfig   `mapstructure:"output"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Generate GenerateConfig `mapstructure:"generate"`
}

// OutputConfig controls how recovered values are printed
type OutputConfig struct {
	Format string `mapstructure:"format"` // decimal, hex, json
	Color  bool   `mapstructure:"color"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json or text
	Output string `mapstructure:"output"` // stdout, stderr, or file path
}

// GenerateConfig holds defaults for the generate command
type GenerateConfig struct {
	Parts     int   `mapstructure:"parts"`
	Threshold int   `mapstructure:"threshold"`
	Bits      int   `mapstructure:"bits"`
	Bases     []int `mapstructure:"bases"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Output: OutputConfig{
			Format: "decimal",
			Color:  true,
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "text",
			Output: "stderr",
		},
		Generate: GenerateConfig{
			Parts:     4,
			Threshold: 3,
			Bits:      64,
			Bases:     []int{10, 16, 2, 8},
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("output.format", d.Output.Format)
	v.SetDefault("output.color", d.Output.Color)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.output", d.Logging.Output)
	v.SetDefault("generate.parts", d.Generate.Parts)
	v.SetDefault("generate.threshold", d.Generate.Threshold)
	v.SetDefault("generate.bits", d.Generate.Bits)
	v.SetDefault("generate.bases", d.Generate.Bases)
}

// Load reads configuration from path. An empty path falls back to the
// default location, which may be absent. Environment variables such as
// POLYRECOVER_LOGGING_LEVEL override file values.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	explicit := path != ""
	if !explicit {
		var err error
		path, err = getConfigPath()
		if err != nil {
			return nil, err
		}
		explicit = os.Getenv(envPrefix+"_CONFIG") != ""
	}

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit || !(errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return LoadFromViper(v)
}

// LoadFromViper creates a Config from an existing Viper instance.
func LoadFromViper(v *viper.Viper) (*Config, error) {
	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks option values.
func (c *Config) Validate() error {
	switch c.Output.Format {
	case "decimal", "hex", "json":
	default:
		return fmt.Errorf("output.format must be decimal, hex or json, got %q", c.Output.Format)
	}

	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}

	g := c.Generate
	if g.Threshold < 1 || g.Threshold > g.Parts {
		return fmt.Errorf("generate.threshold must be between 1 and generate.parts (%d), got %d", g.Parts, g.Threshold)
	}
	if g.Bits < 1 {
		return fmt.Errorf("generate.bits must be positive, got %d", g.Bits)
	}
	if len(g.Bases) == 0 {
		return fmt.Errorf("generate.bases cannot be empty")
	}
	for _, b := range g.Bases {
		if !radix.ValidBase(b) {
			return fmt.Errorf("generate.bases: %d is outside [%d, %d]", b, radix.MinBase, radix.MaxBase)
		}
	}

	return nil
}

// getConfigPath returns the configuration file path
func getConfigPath() (string, error) {
	if customPath := os.Getenv(envPrefix + "_CONFIG"); customPath != "" {
		return customPath, nil
	}

	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "polyrecover", "config.yaml"), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(homeDir, ".config", "polyrecover", "config.yaml"), nil
}
