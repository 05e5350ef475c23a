// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package texture

import (
	"bytes"
	"fmt"

	ovl "github.com/suprsokr/go-ovl"
)

// Packed-tail geometry. Widths are in pixels at one pixel per byte and
// scale with the layout's pixel density.
const (
	normalRowBytes    = 32 // levels with wider rows are stored linearly
	packedWidth       = 64 // width of a packed line
	emptyLineBlocks   = packedWidth / blockEdge
	lodPadBlocks      = (packedWidth - blockEdge) / blockEdge
	extraLODPadBlocks = 63
)

// Geometry describes a standard mip chain: the size of level 0, the number
// of array layers stored per level, and the codec's packed-tail layout.
type Geometry struct {
	Width     int
	Height    int
	ArraySize int
	Layout    Layout
}

// Packed is the archive-layout form of a mip chain.
type Packed struct {
	Data []byte

	// Normal is the number of levels stored linearly; Packed is the number
	// interleaved into the tail block. Packed is zero when the requested
	// mip count was reached before the packing threshold.
	Normal int
	Packed int
}

type mipLevel struct {
	height int
	width  int
	data   []byte
}

type chainReader struct {
	chain []byte
	pos   int
}

func (r *chainReader) next(n int) ([]byte, error) {
	if n > len(r.chain)-r.pos {
		return nil, fmt.Errorf("mip chain has %d bytes left at offset %d, level needs %d: %w",
			len(r.chain)-r.pos, r.pos, n, ovl.ErrSizeMismatch)
	}
	level := r.chain[r.pos : r.pos+n]
	r.pos += n
	return level, nil
}

// PackMips converts a standard largest-to-smallest mip chain into the
// archive's layout. Levels whose rows are wider than 32 bytes are copied
// as they are; if numMips is reached among them the result holds only
// those levels. The remaining levels down to 4x4 are cut into 4 pixel
// tall strips, each padded with empty blocks to one packed line, and
// followed by the fixed tail that repeats the smallest level.
func PackMips(chain []byte, geom Geometry, numMips int) (*Packed, error) {
	lay := geom.Layout
	if lay.PixelsPerByte <= 0 || lay.BlockBytes <= 0 {
		return nil, fmt.Errorf("layout %+v: %w", lay, ErrUnsupportedCodec)
	}
	ppb := lay.PixelsPerByte
	arraySize := max(geom.ArraySize, 1)

	r := &chainReader{chain: chain}
	res := &Packed{}
	var out bytes.Buffer

	h, w := geom.Height, geom.Width
	for w/ppb > normalRowBytes {
		level, err := r.next(h * w * arraySize / ppb)
		if err != nil {
			return nil, fmt.Errorf("normal level %d: %w", res.Normal, err)
		}
		out.Write(level)
		h /= 2
		w /= 2
		res.Normal++
		if res.Normal == numMips {
			res.Data = out.Bytes()
			return res, nil
		}
	}

	var levels []mipLevel
	for h > 2 && w > 2 {
		level, err := r.next(h * w * arraySize / ppb)
		if err != nil {
			return nil, fmt.Errorf("packed level %d: %w", res.Normal+len(levels), err)
		}
		levels = append(levels, mipLevel{height: h, width: w, data: level})
		h /= 2
		w /= 2
	}
	if len(levels) == 0 {
		return nil, fmt.Errorf("no level between %dx%d and 4x4 to pack: %w", h, w, ovl.ErrSizeMismatch)
	}

	empty := make([]byte, lay.BlockBytes)
	pad := func(blocks int) {
		for i := 0; i < blocks; i++ {
			out.Write(empty)
		}
	}

	lineWidth := packedWidth * ppb
	for _, level := range levels {
		strips := level.height / blockEdge
		if strips == 0 || level.width > lineWidth {
			return nil, fmt.Errorf("level %dx%d does not fit a %d px packed line: %w",
				level.height, level.width, lineWidth, ovl.ErrSizeMismatch)
		}
		stripBytes := len(level.data) / strips
		padBlocks := (lineWidth - level.width) / blockEdge
		for i := 0; i < strips; i++ {
			out.Write(level.data[i*stripBytes : (i+1)*stripBytes])
			pad(padBlocks)
		}
	}

	smallest := levels[len(levels)-1].data
	for i := 0; i < 2; i++ {
		pad(emptyLineBlocks)
		out.Write(smallest)
		pad(lodPadBlocks)
	}
	pad(emptyLineBlocks)

	if lay.ExtraLOD {
		pad(emptyLineBlocks)
		out.Write(smallest)
		pad(extraLODPadBlocks)
	}

	res.Packed = len(levels)
	res.Data = out.Bytes()
	return res, nil
}
