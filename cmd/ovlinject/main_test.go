// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ovl "github.com/suprsokr/go-ovl"
	"github.com/suprsokr/go-ovl/container"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	color.NoColor = true
	flagMain.Config, flagMain.LogLevel, flagMain.JSONLog = "", "", false
	flagInject.Out, flagInject.Texconv, flagInject.KeepDDS, flagInject.Compression = "", "", false, ""
	var out, errOut bytes.Buffer
	cmdMain.SetOut(&out)
	cmdMain.SetErr(&errOut)
	cmdMain.SetArgs(args)
	err := cmdMain.Execute()
	return out.String(), err
}

func writeArchive(t *testing.T, dir string) string {
	t.Helper()
	a := container.New()
	e := ovl.NewEntry("readme.txt", a.Layout())
	e.Pointers = []*ovl.Pointer{a.Layout().AddPointer(ovl.Address{}, 3, ovl.NewCopy([]byte("old"), nil))}
	require.NoError(t, a.Add(e))
	tex := ovl.NewEntry("rock.tex", a.Layout())
	tex.Data = ovl.NewDataEntry(make([]byte, 2048))
	require.NoError(t, a.Add(tex))

	path := filepath.Join(dir, "base.ovlc")
	require.NoError(t, a.Save(path))
	return path
}

func TestInjectAndList(t *testing.T) {
	dir := t.TempDir()
	archive := writeArchive(t, dir)
	txt := filepath.Join(dir, "readme.txt")
	require.NoError(t, os.WriteFile(txt, []byte("hello"), 0644))
	bad := filepath.Join(dir, "rock.dds")
	require.NoError(t, os.WriteFile(bad, []byte("not a dds"), 0644))
	patched := filepath.Join(dir, "patched.ovlc")

	out, err := execute(t, "inject", archive, txt, bad, "--out", patched, "--compression", "lz4", "--json-log")
	require.Error(t, err, "a failed file makes the command fail")
	assert.Contains(t, out, "OK    readme.txt -> readme.txt")
	assert.Contains(t, out, "FAIL  rock.dds")

	a, err := container.Open(patched)
	require.NoError(t, err)
	defer a.Close()
	e, err := a.Entry("readme.txt")
	require.NoError(t, err)
	assert.Equal(t, []byte("\x05\x00\x00\x00hello"), e.Pointers[0].Data())

	out, err = execute(t, "list", archive, patched)
	require.NoError(t, err)
	assert.Contains(t, out, "readme.txt")
	assert.Contains(t, out, "2.0 KiB")
	assert.Contains(t, out, "patched.ovlc")
}

func TestInjectRejectsBadConfig(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "ovlinject.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("log:\n  level: loud\n"), 0644))

	_, err := execute(t, "inject", writeArchive(t, dir), filepath.Join(dir, "x.txt"), "--config", cfg)
	assert.ErrorContains(t, err, "invalid configuration")
}

func TestInjectHelpNamesMissingDecoders(t *testing.T) {
	t.Cleanup(func() { _ = cmdInject.Flags().Set("help", "false") })
	out, err := execute(t, "inject", "--help")
	require.NoError(t, err)
	for _, ext := range []string{".mdl2", ".fgm", ".matcol"} {
		assert.Contains(t, out, ext)
	}
	assert.Contains(t, out, "need\ndecoders that this command does not include")
}
