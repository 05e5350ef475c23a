// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package inject

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"

	ovl "github.com/suprsokr/go-ovl"
	"github.com/suprsokr/go-ovl/texture"
)

// injectPNG converts the image to a DDS file matching the archive
// texture's codec, height and mip count, then injects that file.
func injectPNG(s *Session, j *job) error {
	if s.opts.Transcoder == nil {
		return fmt.Errorf("%s: %w", errNoTranscoder, ErrNoCodec)
	}
	hdrs, err := texture.ReadHeaders(j.entry)
	if err != nil {
		return err
	}

	outDir := s.workDir
	if s.opts.KeepIntermediate {
		outDir = filepath.Dir(j.path)
	}
	req := ConvertRequest{
		Source: j.path,
		OutDir: outDir,
		Codec:  hdrs.H30.Format().Codec(),
		Height: int(hdrs.H7.Height) * max(int(hdrs.H7.ArraySize), 1),
		Mips:   int(hdrs.H7.NumMips),
	}
	j.log.Debug().Str("codec", req.Codec).Int("height", req.Height).Int("mips", req.Mips).Msg("converting")
	ddsPath, err := s.opts.Transcoder.Convert(j.ctx, req)
	if err != nil {
		return err
	}
	if !s.opts.KeepIntermediate {
		defer os.Remove(ddsPath)
	}
	return injectTexture(j, ddsPath, hdrs)
}

func injectDDS(_ *Session, j *job) error {
	hdrs, err := texture.ReadHeaders(j.entry)
	if err != nil {
		return err
	}
	return injectTexture(j, j.path, hdrs)
}

// injectTexture repacks the mip chain of a DDS file into the archive
// layout and fills the entry's buffers with it.
func injectTexture(j *job, ddsPath string, hdrs texture.Headers) error {
	f, err := os.Open(ddsPath)
	if err != nil {
		return err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	dds, err := texture.ReadDDS(r)
	if err != nil {
		return fmt.Errorf("%s: %w", filepath.Base(ddsPath), err)
	}

	name := filepath.Base(ddsPath)
	if err := texture.EnsureSizeMatch(name, dds, hdrs.H7, hdrs.H30.Format()); err != nil {
		return err
	}
	layout, err := texture.LayoutForFormat(dds.Format)
	if err != nil {
		return err
	}
	chain, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read mip chain: %w", err)
	}

	packed, err := texture.PackMips(chain, texture.Geometry{
		Width:     int(dds.Width),
		Height:    int(dds.Height),
		ArraySize: int(dds.ArraySize),
		Layout:    layout,
	}, int(hdrs.H7.NumMips))
	if err != nil {
		return fmt.Errorf("pack mips of %s: %w", name, err)
	}
	j.log.Debug().
		Str("format", dds.Format.String()).
		Int("normal", packed.Normal).
		Int("packed", packed.Packed).
		Str("size", humanize.IBytes(uint64(len(packed.Data)))).
		Msg("mips packed")

	if want := j.entry.Data.Size(); len(packed.Data) != want {
		j.warn(&ovl.SizeMismatchError{File: name, What: "packed mip chain", Declared: want, Computed: len(packed.Data)})
	}
	j.patch.FillBuffers(j.entry.Data, packed.Data)
	return nil
}
