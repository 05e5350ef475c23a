// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

// Package config loads ovlinject configuration.
//
// Configuration is loaded from a single YAML file specified by:
//   - the OVLINJECT_CONFIG environment variable, or
//   - the --config flag passed to the command
//
// There is no automatic discovery. Without a file the built-in defaults
// apply; command-line flags override file values.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// EnvVar names the environment variable holding the config file path.
const EnvVar = "OVLINJECT_CONFIG"

// ErrNoConfig is returned by Load when EnvVar is not set.
var ErrNoConfig = errors.New(EnvVar + " environment variable not set")

// Config is the ovlinject configuration.
type Config struct {
	// Texconv is the texconv executable used for PNG input.
	// Default: texconv (looked up on PATH)
	Texconv string `yaml:"texconv" validate:"required"`

	// WorkDir is the parent of per-session work directories.
	// Default: the system temp directory
	WorkDir string `yaml:"work_dir"`

	// KeepIntermediate keeps DDS files converted from PNG input next to
	// their source.
	KeepIntermediate bool `yaml:"keep_intermediate"`

	Log       LogConfig       `yaml:"log"`
	Container ContainerConfig `yaml:"container"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is one of trace, debug, info, warn, error.
	// Default: info
	Level string `yaml:"level" validate:"oneof=trace debug info warn error"`

	// Format is console or json.
	// Default: console
	Format string `yaml:"format" validate:"oneof=console json"`
}

// ContainerConfig configures how archives are saved.
type ContainerConfig struct {
	// Compression is the body compression: none, lz4 or zstd.
	// Default: zstd
	Compression string `yaml:"compression" validate:"oneof=none lz4 zstd"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Texconv: "texconv",
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Container: ContainerConfig{
			Compression: "zstd",
		},
	}
}

// Load loads the file named by the OVLINJECT_CONFIG environment variable.
func Load() (*Config, error) {
	path := os.Getenv(EnvVar)
	if path == "" {
		return nil, ErrNoConfig
	}
	return LoadFile(path)
}

// LoadFile loads configuration from path over the defaults and validates
// the result. ${VAR} references in paths are expanded.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.expandVariables()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) expandVariables() {
	c.Texconv = os.ExpandEnv(c.Texconv)
	c.WorkDir = os.ExpandEnv(c.WorkDir)
}

var validate = validator.New()

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	var invalid validator.ValidationErrors
	if !errors.As(err, &invalid) {
		return err
	}
	errs := make([]error, len(invalid))
	for i, fe := range invalid {
		errs[i] = fmt.Errorf("%s: failed %q (value %q)", fe.Namespace(), fe.Tag(), fmt.Sprint(fe.Value()))
	}
	return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
}
