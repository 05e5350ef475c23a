// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package texture

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ErrNotDDS is returned when a stream does not start with a DDS header.
var ErrNotDDS = errors.New("not a DDS file")

const (
	ddsMagic      = 0x20534444 // "DDS "
	ddsHeaderSize = 124
	ddsPFSize     = 32

	ddsFlagsTexture   = 0x1 | 0x2 | 0x4 | 0x1000 // caps, height, width, pixel format
	ddsFlagMipCount   = 0x20000
	ddsFlagLinearSize = 0x80000
	ddsFlagDepth      = 0x800000
	ddsPFFourCC       = 0x4
	ddsCapsTexture    = 0x1000
	ddsCapsMipMap     = 0x400000
	ddsCapsComplex    = 0x8

	dx10Texture2D = 3
)

func fourCC(s string) uint32 {
	return uint32(s[0]) | uint32(s[1])<<8 | uint32(s[2])<<16 | uint32(s[3])<<24
}

var fourCCDX10 = fourCC("DX10")

// legacyFourCC maps pre-DX10 compressed pixel formats to DXGI codes.
var legacyFourCC = map[uint32]DXGIFormat{
	fourCC("DXT1"): FormatBC1UNorm,
	fourCC("DXT3"): FormatBC2UNorm,
	fourCC("DXT5"): FormatBC3UNorm,
	fourCC("ATI1"): FormatBC4UNorm,
	fourCC("BC4U"): FormatBC4UNorm,
	fourCC("ATI2"): FormatBC5UNorm,
	fourCC("BC5U"): FormatBC5UNorm,
}

type ddsPixelFormat struct {
	Size        uint32
	Flags       uint32
	FourCC      uint32
	RGBBitCount uint32
	RBitMask    uint32
	GBitMask    uint32
	BBitMask    uint32
	ABitMask    uint32
}

type ddsRawHeader struct {
	Size              uint32
	Flags             uint32
	Height            uint32
	Width             uint32
	PitchOrLinearSize uint32
	Depth             uint32
	MipMapCount       uint32
	Reserved1         [11]uint32
	PixelFormat       ddsPixelFormat
	Caps              uint32
	Caps2             uint32
	Caps3             uint32
	Caps4             uint32
	Reserved2         uint32
}

type ddsDX10Header struct {
	DXGIFormat        uint32
	ResourceDimension uint32
	MiscFlag          uint32
	ArraySize         uint32
	MiscFlags2        uint32
}

// DDSHeader is the subset of a DDS header the injector needs.
type DDSHeader struct {
	Width     uint32
	Height    uint32
	Depth     uint32
	MipCount  uint32
	ArraySize uint32
	Format    DXGIFormat
}

// ReadDDS reads a DDS header and leaves r positioned at the first byte of
// the mip chain. A depth of zero is reported as one.
func ReadDDS(r io.Reader) (DDSHeader, error) {
	var magic uint32
	if err := binary.Read(r, binary.LittleEndian, &magic); err != nil {
		return DDSHeader{}, fmt.Errorf("read magic: %w", err)
	}
	if magic != ddsMagic {
		return DDSHeader{}, fmt.Errorf("magic 0x%08X: %w", magic, ErrNotDDS)
	}

	var raw ddsRawHeader
	if err := binary.Read(r, binary.LittleEndian, &raw); err != nil {
		return DDSHeader{}, fmt.Errorf("read header: %w", err)
	}
	if raw.Size != ddsHeaderSize {
		return DDSHeader{}, fmt.Errorf("header size %d: %w", raw.Size, ErrNotDDS)
	}

	h := DDSHeader{
		Width:     raw.Width,
		Height:    raw.Height,
		Depth:     max(raw.Depth, 1),
		MipCount:  max(raw.MipMapCount, 1),
		ArraySize: 1,
	}

	pf := raw.PixelFormat
	switch {
	case pf.Flags&ddsPFFourCC != 0 && pf.FourCC == fourCCDX10:
		var dx10 ddsDX10Header
		if err := binary.Read(r, binary.LittleEndian, &dx10); err != nil {
			return DDSHeader{}, fmt.Errorf("read dx10 header: %w", err)
		}
		h.Format = DXGIFormat(dx10.DXGIFormat)
		h.ArraySize = max(dx10.ArraySize, 1)
	case pf.Flags&ddsPFFourCC != 0:
		f, ok := legacyFourCC[pf.FourCC]
		if !ok {
			return DDSHeader{}, fmt.Errorf("fourcc 0x%08X: %w", pf.FourCC, ErrUnsupportedCodec)
		}
		h.Format = f
	case pf.RGBBitCount == 32:
		h.Format = FormatR8G8B8A8UNorm
	default:
		return DDSHeader{}, fmt.Errorf("pixel format flags 0x%X: %w", pf.Flags, ErrUnsupportedCodec)
	}
	return h, nil
}

// WriteDDS writes a DX10 DDS header for h. The mip chain is written by the
// caller.
func WriteDDS(w io.Writer, h DDSHeader) error {
	raw := ddsRawHeader{
		Size:        ddsHeaderSize,
		Flags:       ddsFlagsTexture | ddsFlagMipCount | ddsFlagLinearSize,
		Height:      h.Height,
		Width:       h.Width,
		Depth:       h.Depth,
		MipMapCount: h.MipCount,
		PixelFormat: ddsPixelFormat{Size: ddsPFSize, Flags: ddsPFFourCC, FourCC: fourCCDX10},
		Caps:        ddsCapsTexture,
	}
	if h.Depth > 1 {
		raw.Flags |= ddsFlagDepth
	}
	if h.MipCount > 1 {
		raw.Caps |= ddsCapsMipMap | ddsCapsComplex
	}
	dx10 := ddsDX10Header{
		DXGIFormat:        uint32(h.Format),
		ResourceDimension: dx10Texture2D,
		ArraySize:         max(h.ArraySize, 1),
	}

	if err := binary.Write(w, binary.LittleEndian, uint32(ddsMagic)); err != nil {
		return fmt.Errorf("write magic: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, &raw); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, &dx10); err != nil {
		return fmt.Errorf("write dx10 header: %w", err)
	}
	return nil
}
