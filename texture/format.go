// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

// Package texture reads DDS files and texture headers and repacks mip
// chains into the archive's packed-tail layout.
package texture

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedCodec is returned for codecs whose packed-tail geometry is
// not known.
var ErrUnsupportedCodec = errors.New("unsupported texture codec")

// DXGIFormat is a DXGI pixel format code as stored in DDS DX10 headers and
// in the archive's texture headers.
type DXGIFormat uint32

// Formats used by archive textures.
const (
	FormatUnknown           DXGIFormat = 0
	FormatR8G8B8A8UNorm     DXGIFormat = 28
	FormatR8G8B8A8UNormSRGB DXGIFormat = 29
	FormatBC1UNorm          DXGIFormat = 71
	FormatBC1UNormSRGB      DXGIFormat = 72
	FormatBC2UNorm          DXGIFormat = 74
	FormatBC2UNormSRGB      DXGIFormat = 75
	FormatBC3UNorm          DXGIFormat = 77
	FormatBC3UNormSRGB      DXGIFormat = 78
	FormatBC4UNorm          DXGIFormat = 80
	FormatBC4SNorm          DXGIFormat = 81
	FormatBC5UNorm          DXGIFormat = 83
	FormatBC5SNorm          DXGIFormat = 84
	FormatBC6HUF16          DXGIFormat = 95
	FormatBC6HSF16          DXGIFormat = 96
	FormatBC7UNorm          DXGIFormat = 98
	FormatBC7UNormSRGB      DXGIFormat = 99
)

const dxgiPrefix = "DXGI_FORMAT_"

type formatInfo struct {
	name string
	// pixelsPerByte is zero for formats without a packed-tail layout.
	pixelsPerByte int
}

var formats = map[DXGIFormat]formatInfo{
	FormatR8G8B8A8UNorm:     {"R8G8B8A8_UNORM", 0},
	FormatR8G8B8A8UNormSRGB: {"R8G8B8A8_UNORM_SRGB", 0},
	FormatBC1UNorm:          {"BC1_UNORM", 2},
	FormatBC1UNormSRGB:      {"BC1_UNORM_SRGB", 2},
	FormatBC2UNorm:          {"BC2_UNORM", 1},
	FormatBC2UNormSRGB:      {"BC2_UNORM_SRGB", 1},
	FormatBC3UNorm:          {"BC3_UNORM", 1},
	FormatBC3UNormSRGB:      {"BC3_UNORM_SRGB", 1},
	FormatBC4UNorm:          {"BC4_UNORM", 2},
	FormatBC4SNorm:          {"BC4_SNORM", 2},
	FormatBC5UNorm:          {"BC5_UNORM", 1},
	FormatBC5SNorm:          {"BC5_SNORM", 1},
	FormatBC6HUF16:          {"BC6H_UF16", 1},
	FormatBC6HSF16:          {"BC6H_SF16", 1},
	FormatBC7UNorm:          {"BC7_UNORM", 1},
	FormatBC7UNormSRGB:      {"BC7_UNORM_SRGB", 1},
}

// String returns the DXGI name, e.g. "DXGI_FORMAT_BC7_UNORM".
func (f DXGIFormat) String() string {
	if info, ok := formats[f]; ok {
		return dxgiPrefix + info.name
	}
	return fmt.Sprintf("DXGI_FORMAT(%d)", uint32(f))
}

// Codec returns the name texconv expects, without the DXGI_FORMAT_ prefix.
func (f DXGIFormat) Codec() string {
	return strings.TrimPrefix(f.String(), dxgiPrefix)
}

// BlockCompressed reports whether f encodes 4x4 pixel blocks.
func (f DXGIFormat) BlockCompressed() bool {
	return formats[f].pixelsPerByte > 0
}

// ParseFormat parses a DXGI name with or without the DXGI_FORMAT_ prefix.
func ParseFormat(name string) (DXGIFormat, error) {
	name = strings.TrimPrefix(strings.ToUpper(name), dxgiPrefix)
	for f, info := range formats {
		if info.name == name {
			return f, nil
		}
	}
	return FormatUnknown, fmt.Errorf("%q: %w", name, ErrUnsupportedCodec)
}

// blockEdge is the pixel edge of a compression block.
const blockEdge = 4

// AlignTo rounds a pixel extent up to the compression block edge of f.
func AlignTo(value uint32, f DXGIFormat) uint32 {
	if !f.BlockCompressed() {
		return value
	}
	return (value + blockEdge - 1) / blockEdge * blockEdge
}

// Layout describes how one pixel-density class is laid out in the packed
// tail: pixels per byte, bytes per 4x4 block, and whether the class keeps a
// second copy of the smallest level in its own coordinate space.
type Layout struct {
	PixelsPerByte int
	BlockBytes    int
	ExtraLOD      bool
}

var layouts = map[int]Layout{
	1: {PixelsPerByte: 1, BlockBytes: 16},
	2: {PixelsPerByte: 2, BlockBytes: 8, ExtraLOD: true},
	4: {PixelsPerByte: 4, BlockBytes: 4},
}

// LayoutFor returns the packed-tail layout of a pixel-density class.
func LayoutFor(pixelsPerByte int) (Layout, error) {
	l, ok := layouts[pixelsPerByte]
	if !ok {
		return Layout{}, fmt.Errorf("%d pixels per byte: %w", pixelsPerByte, ErrUnsupportedCodec)
	}
	return l, nil
}

// LayoutForFormat returns the packed-tail layout used by f.
func LayoutForFormat(f DXGIFormat) (Layout, error) {
	info, ok := formats[f]
	if !ok || info.pixelsPerByte == 0 {
		return Layout{}, fmt.Errorf("%s: %w", f, ErrUnsupportedCodec)
	}
	return LayoutFor(info.pixelsPerByte)
}
