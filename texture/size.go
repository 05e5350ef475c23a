// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package texture

import (
	"fmt"

	ovl "github.com/suprsokr/go-ovl"
)

// EnsureSizeMatch checks that an injected texture covers the same number
// of pixels as the archive texture: height x width x depth x array size,
// with the archive width aligned to the codec's block edge.
func EnsureSizeMatch(name string, dds DDSHeader, tex Header7, f DXGIFormat) error {
	texW := AlignTo(tex.Width, f)
	texD := max(uint32(tex.Depth), 1)
	texA := max(uint32(tex.ArraySize), 1)
	ddsD := max(dds.Depth, 1)
	ddsA := max(dds.ArraySize, 1)

	want := uint64(tex.Height) * uint64(texW) * uint64(texD) * uint64(texA)
	got := uint64(dds.Height) * uint64(dds.Width) * uint64(ddsD) * uint64(ddsA)
	if want == got {
		return nil
	}
	return fmt.Errorf("archive texture %d x %d x %d [%d], injected texture %d x %d x %d [%d]: %w",
		tex.Height, texW, texD, texA, dds.Height, dds.Width, ddsD, ddsA,
		&ovl.SizeMismatchError{File: name, What: "dimensions", Declared: int(want), Computed: int(got)})
}
