// Package config loads jpmcoord settings from .jpmcoord.yaml, JPMCOORD_* env
// vars and command line flags.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/viper"

	gojpm "github.com/albertocavalcante/go-jpm"
)

// Output formats.
const (
	OutputText = "text"
	OutputYAML = "yaml"
	OutputJSON = "json"
)

// EnvPrefix prefixes environment overrides, e.g. JPMCOORD_REPO.
const EnvPrefix = "JPMCOORD"

// Config holds the runtime configuration of the CLI.
type Config struct {
	// Repo is a YAML repository fixture to resolve against.
	Repo        string `mapstructure:"repo"`
	Strategy    string `mapstructure:"strategy"`
	Output      string `mapstructure:"output"`
	Verbose     bool   `mapstructure:"verbose"`
	Concurrency int    `mapstructure:"concurrency"`
	// AllowWithdrawnPins lets SHA coordinates resolve WITHDRAWN revisions.
	AllowWithdrawnPins bool `mapstructure:"allow_withdrawn_pins"`
}

// Init points v at the config file and environment. An explicit file must
// exist; the default .jpmcoord.yaml in the working or home directory is
// optional.
func Init(v *viper.Viper, file string) error {
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(".jpmcoord")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// Load reads configuration from v, applying built-in defaults for any values
// not set by config file, environment, or flags.
func Load(v *viper.Viper) (Config, error) {
	v.SetDefault("repo", "")
	v.SetDefault("strategy", gojpm.StrategyHighest.String())
	v.SetDefault("output", OutputText)
	v.SetDefault("verbose", false)
	v.SetDefault("concurrency", 8)
	v.SetDefault("allow_withdrawn_pins", false)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks enumerated settings.
func (c Config) Validate() error {
	switch c.Output {
	case OutputText, OutputYAML, OutputJSON:
	default:
		return fmt.Errorf("output must be text, yaml or json, got %q", c.Output)
	}
	if _, err := gojpm.ParseStrategy(c.Strategy); err != nil {
		return err
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be positive, got %d", c.Concurrency)
	}
	return nil
}

// ResolverOptions turns the settings into resolver options.
func (c Config) ResolverOptions() ([]gojpm.Option, error) {
	strategy, err := gojpm.ParseStrategy(c.Strategy)
	if err != nil {
		return nil, err
	}
	return []gojpm.Option{
		gojpm.WithStrategy(strategy),
		gojpm.WithConcurrency(c.Concurrency),
		gojpm.WithAllowWithdrawnPins(c.AllowWithdrawnPins),
	}, nil
}
