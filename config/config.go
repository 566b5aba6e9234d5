// Package config loads raug settings from YAML files.
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/pipelined/raug"
	"github.com/pipelined/raug/signal"
)

var validate = validator.New()

// Config holds the settings shared by the command line tools.
type Config struct {
	// SampleRate and BlockSize override the values of a patch.
	SampleRate float64 `yaml:"sample_rate" validate:"gt=0"`
	BlockSize  int     `yaml:"block_size" validate:"gt=0"`
	BitDepth   int     `yaml:"bit_depth" validate:"oneof=8 16 24 32"`
	MP3        MP3     `yaml:"mp3"`
	// Control is the listen address of the HTTP control server.
	Control string `yaml:"control" validate:"omitempty,hostname_port"`
	// Watch is a YAML file of parameter values applied on every write.
	Watch string `yaml:"watch"`
}

// MP3 holds lame encoder settings.
type MP3 struct {
	BitRate int `yaml:"bit_rate" validate:"min=8,max=320"`
	Quality int `yaml:"quality" validate:"min=0,max=9"`
}

// Default returns the settings used when no file is given.
func Default() Config {
	return Config{
		SampleRate: raug.DefaultSampleRate,
		BlockSize:  raug.DefaultBlockSize,
		BitDepth:   int(signal.BitDepth16),
		MP3: MP3{
			BitRate: 192,
			Quality: 2,
		},
	}
}

// Load reads the file at path over the defaults and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the field constraints.
func (c Config) Validate() error {
	return validate.Struct(c)
}

// BuilderOptions returns the graph settings as builder options.
func (c Config) BuilderOptions() []raug.BuilderOption {
	return []raug.BuilderOption{
		raug.WithSampleRate(c.SampleRate),
		raug.WithBlockSize(c.BlockSize),
	}
}

// Depth returns the bit depth of rendered files.
func (c Config) Depth() signal.BitDepth {
	return signal.BitDepth(c.BitDepth)
}
