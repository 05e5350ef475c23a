// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

// Command ovlinject injects edited assets into OVL containers.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/suprsokr/go-ovl/internal/config"
)

var cmdMain = &cobra.Command{
	Use:           "ovlinject",
	Short:         "Inject edited assets into OVL containers",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var flagMain struct {
	Config   string
	LogLevel string
	JSONLog  bool
}

func init() {
	addGlobalFlags(cmdMain.PersistentFlags())
}

func addGlobalFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&flagMain.Config, "config", "c", "", "Config file (default $"+config.EnvVar+")")
	fs.StringVar(&flagMain.LogLevel, "log-level", "", "Log level: trace, debug, info, warn, error")
	fs.BoolVar(&flagMain.JSONLog, "json-log", false, "Log as JSON lines")
}

func main() {
	if err := cmdMain.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig resolves the configuration from --config, then the
// environment, then the defaults, and applies the global flags.
func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error
	switch {
	case flagMain.Config != "":
		cfg, err = config.LoadFile(flagMain.Config)
	default:
		cfg, err = config.Load()
		if errors.Is(err, config.ErrNoConfig) {
			cfg, err = config.Default(), nil
		}
	}
	if err != nil {
		return nil, err
	}

	if flagMain.LogLevel != "" {
		cfg.Log.Level = flagMain.LogLevel
	}
	if flagMain.JSONLog {
		cfg.Log.Format = "json"
	}
	return cfg, cfg.Validate()
}
