// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ovlinject.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestLoadFile(t *testing.T) {
	t.Setenv("TOOLS", "/opt/tools")
	path := writeConfig(t, `
texconv: ${TOOLS}/texconv.exe
keep_intermediate: true
log:
  level: debug
container:
  compression: lz4
`)

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "/opt/tools/texconv.exe", cfg.Texconv)
	assert.True(t, cfg.KeepIntermediate)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format, "unset fields keep their defaults")
	assert.Equal(t, "lz4", cfg.Container.Compression)
}

func TestLoadFileRejectsInvalidValues(t *testing.T) {
	path := writeConfig(t, `
log:
  level: loud
container:
  compression: bzip2
`)

	_, err := LoadFile(path)
	require.Error(t, err)
	assert.ErrorContains(t, err, "Config.Log.Level")
	assert.ErrorContains(t, err, "Config.Container.Compression")
}

func TestLoadFileRejectsBadYAML(t *testing.T) {
	_, err := LoadFile(writeConfig(t, "log: [unclosed"))
	assert.Error(t, err)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv(EnvVar, "")
	_, err := Load()
	assert.ErrorIs(t, err, ErrNoConfig)

	t.Setenv(EnvVar, writeConfig(t, "work_dir: /scratch\n"))
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/scratch", cfg.WorkDir)
}
