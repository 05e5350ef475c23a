// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package texture

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ovl "github.com/suprsokr/go-ovl"
)

func TestDDSRoundTrip(t *testing.T) {
	want := DDSHeader{Width: 256, Height: 128, Depth: 1, MipCount: 9, ArraySize: 3, Format: FormatBC7UNorm}

	var buf bytes.Buffer
	require.NoError(t, WriteDDS(&buf, want))
	buf.Write([]byte{0xAA, 0xBB})

	got, err := ReadDDS(&buf)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	rest, err := io.ReadAll(&buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xAA, 0xBB}, rest, "reader must stop at the mip chain")
}

func TestReadDDSLegacyFourCC(t *testing.T) {
	raw := ddsRawHeader{
		Size:        ddsHeaderSize,
		Height:      64,
		Width:       32,
		PixelFormat: ddsPixelFormat{Size: ddsPFSize, Flags: ddsPFFourCC, FourCC: fourCC("DXT1")},
	}
	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint32(ddsMagic)))
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, &raw))

	got, err := ReadDDS(&buf)
	require.NoError(t, err)
	assert.Equal(t, FormatBC1UNorm, got.Format)
	assert.EqualValues(t, 1, got.Depth)
	assert.EqualValues(t, 1, got.ArraySize)
	assert.EqualValues(t, 1, got.MipCount)
}

func TestReadDDSRejectsOtherFiles(t *testing.T) {
	_, err := ReadDDS(bytes.NewReader([]byte("\x89PNG\r\n\x1a\n")))
	require.ErrorIs(t, err, ErrNotDDS)

	_, err = ReadDDS(bytes.NewReader([]byte("DDS ")))
	require.Error(t, err)
}

func TestFormatNames(t *testing.T) {
	assert.Equal(t, "DXGI_FORMAT_BC7_UNORM_SRGB", FormatBC7UNormSRGB.String())
	assert.Equal(t, "BC1_UNORM", FormatBC1UNorm.Codec())
	assert.Equal(t, "DXGI_FORMAT(7)", DXGIFormat(7).String())

	f, err := ParseFormat("DXGI_FORMAT_BC5_UNORM")
	require.NoError(t, err)
	assert.Equal(t, FormatBC5UNorm, f)
	f, err = ParseFormat("bc4_unorm")
	require.NoError(t, err)
	assert.Equal(t, FormatBC4UNorm, f)
	_, err = ParseFormat("ASTC_4X4")
	assert.ErrorIs(t, err, ErrUnsupportedCodec)
}

func TestAlignTo(t *testing.T) {
	assert.EqualValues(t, 8, AlignTo(5, FormatBC1UNorm))
	assert.EqualValues(t, 64, AlignTo(64, FormatBC7UNorm))
	assert.EqualValues(t, 5, AlignTo(5, FormatR8G8B8A8UNorm))
}

func TestEnsureSizeMatch(t *testing.T) {
	tex := Header7{Width: 32, Height: 32, Depth: 1, ArraySize: 1}

	err := EnsureSizeMatch("big.dds", DDSHeader{Width: 64, Height: 64, Depth: 1, ArraySize: 1}, tex, FormatBC7UNorm)
	require.ErrorIs(t, err, ovl.ErrSizeMismatch)
	var mismatch *ovl.SizeMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "big.dds", mismatch.File)
	assert.Equal(t, 1024, mismatch.Declared)
	assert.Equal(t, 4096, mismatch.Computed)

	err = EnsureSizeMatch("same.dds", DDSHeader{Width: 32, Height: 32, Depth: 1, ArraySize: 1}, tex, FormatBC7UNorm)
	assert.NoError(t, err)
}

func TestEnsureSizeMatchAlignsWidth(t *testing.T) {
	tex := Header7{Width: 30, Height: 16, Depth: 1, ArraySize: 2}
	dds := DDSHeader{Width: 32, Height: 32, Depth: 1, ArraySize: 1}

	assert.NoError(t, EnsureSizeMatch("stacked.dds", dds, tex, FormatBC1UNorm))
}

func TestReadHeaders(t *testing.T) {
	l := ovl.NewLayout()
	entry := ovl.NewEntry("rock.tex", l)

	h30 := Header30{Compression: uint8(FormatBC1UNorm), One0: 1, NumMips: 8, Width: 128, Height: 128}
	h31 := Header31{DataSize: 17408}
	h7 := Header7{DataSize: 17408, Width: 128, Height: 128, Depth: 1, ArraySize: 1, NumMips: 8}

	entry.Pointers = []*ovl.Pointer{l.AddPointer(ovl.Address{Offset: 0}, 24, ovl.NewCopy(EncodeHeader(&h30), nil))}
	entry.Fragments = []*ovl.Fragment{
		ovl.NewFragment(l.AddPointer(ovl.Address{Offset: 24}, 8), l.AddPointer(ovl.Address{Offset: 32}, 16, ovl.NewCopy(EncodeHeader(&h31), nil))),
		ovl.NewFragment(l.AddPointer(ovl.Address{Offset: 48}, 8), l.AddPointer(ovl.Address{Offset: 56}, 28, ovl.NewCopy(EncodeHeader(&h7), nil))),
	}

	got, err := ReadHeaders(entry)
	require.NoError(t, err)
	assert.Equal(t, h30, got.H30)
	assert.Equal(t, h31, got.H31)
	assert.Equal(t, h7, got.H7)
	assert.Equal(t, FormatBC1UNorm, got.H30.Format())
}

func TestReadHeadersShape(t *testing.T) {
	l := ovl.NewLayout()
	entry := ovl.NewEntry("broken.tex", l)
	entry.Pointers = []*ovl.Pointer{l.AddPointer(ovl.Address{}, 4, ovl.NewCopy([]byte{1, 2, 3, 4}, nil))}

	_, err := ReadHeaders(entry)
	require.ErrorIs(t, err, ovl.ErrShapeMismatch)
}
