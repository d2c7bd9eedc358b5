// Package config provides configuration loading from YAML files.
package config

import (
	"os"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Logging LoggingConfig `yaml:"logging"`
	Player  PlayerConfig  `yaml:"player"`
	Library LibraryConfig `yaml:"library"`
	Output  OutputConfig  `yaml:"output"`
}

// LoggingConfig represents logger configuration.
type LoggingConfig struct {
	Output string `yaml:"output" default:"stdout"`
	Level  string `yaml:"level" default:"info" validate:"omitempty,oneof=debug info warn warning error"`
	File   string `yaml:"file"`
}

// PlayerConfig represents playback defaults applied when no persisted
// state exists.
type PlayerConfig struct {
	// Volume is a pointer so an explicit 0 survives defaulting.
	Volume    *float64 `yaml:"volume" default:"0.8" validate:"omitempty,gte=0,lte=1"`
	Repeat    string   `yaml:"repeat" default:"off" validate:"oneof=off one all"`
	Shuffle   bool     `yaml:"shuffle"`
	StateFile string   `yaml:"state_file"` // empty resolves to the user config dir
}

// LibraryConfig represents the local music library.
type LibraryConfig struct {
	Path       string   `yaml:"path"`
	Extensions []string `yaml:"extensions"`
}

// OutputConfig represents the audio output backend. Settings are decoded
// per backend type.
type OutputConfig struct {
	Type     string         `yaml:"type" default:"beep" validate:"required,oneof=beep"`
	Settings map[string]any `yaml:"settings"`
}

// DecodeSettings decodes the backend settings map into the given struct.
func (c *OutputConfig) DecodeSettings(out any) error {
	if err := mapstructure.Decode(c.Settings, out); err != nil {
		return errors.Wrap(err, "failed to decode output settings")
	}
	return nil
}

// Load loads configuration from a YAML file. An empty path yields the
// defaults. Environment variables take precedence over file values.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "failed to read config file")
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, errors.Wrap(err, "failed to parse config file")
		}
	}

	// Override with environment variables
	cfg.overrideFromEnv()

	// Set defaults using creasty/defaults
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("MUSILA_LIBRARY_PATH"); v != "" {
		c.Library.Path = v
	}
	if v := os.Getenv("MUSILA_STATE_FILE"); v != "" {
		c.Player.StateFile = v
	}
	if v := os.Getenv("MUSILA_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}
	return nil
}
