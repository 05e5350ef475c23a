// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package inject

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// ConvertRequest describes one image to DDS conversion.
type ConvertRequest struct {
	Source string // input image
	OutDir string // directory receiving the DDS file
	Codec  string // DXGI codec name without the DXGI_FORMAT_ prefix
	Height int    // output height; array layers are stacked vertically
	Mips   int
}

// Transcoder converts images to DDS files.
type Transcoder interface {
	Convert(ctx context.Context, req ConvertRequest) (string, error)
}

// Texconv runs Microsoft's texconv tool.
type Texconv struct {
	// Path is the texconv executable. Empty means "texconv" on PATH.
	Path string
}

// Convert runs texconv and returns the path of the DDS file it wrote.
func (t Texconv) Convert(ctx context.Context, req ConvertRequest) (string, error) {
	bin := t.Path
	if bin == "" {
		bin = "texconv"
	}
	args := []string{
		"-y",
		"-ft", "dds",
		"-f", req.Codec,
		"-m", strconv.Itoa(req.Mips),
		"-h", strconv.Itoa(req.Height),
		"-o", req.OutDir,
		req.Source,
	}
	cmd := exec.CommandContext(ctx, bin, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("texconv %s: %w: %s", filepath.Base(req.Source), err, strings.TrimSpace(string(out)))
	}

	stem := strings.TrimSuffix(filepath.Base(req.Source), filepath.Ext(req.Source))
	for _, ext := range []string{".dds", ".DDS"} {
		path := filepath.Join(req.OutDir, stem+ext)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("texconv %s: no DDS written to %s: %w", filepath.Base(req.Source), req.OutDir, os.ErrNotExist)
}

var _ Transcoder = Texconv{}

// errNoTranscoder is returned for PNG input when the session has no
// transcoder.
var errNoTranscoder = errors.New("no transcoder configured for PNG input")
