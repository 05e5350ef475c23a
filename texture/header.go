// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package texture

import (
	"bytes"
	"encoding/binary"
	"fmt"

	ovl "github.com/suprsokr/go-ovl"
)

// Header30 is the texture entry's own pointer (24 bytes).
type Header30 struct {
	Zero0       uint64
	Zero1       uint64
	Compression uint8 // DXGI format code
	One0        uint8
	NumMips     uint16
	Width       uint16
	Height      uint16
}

// Format returns the texture's codec.
func (h Header30) Format() DXGIFormat {
	return DXGIFormat(h.Compression)
}

// Header31 is the payload of the first fragment (16 bytes).
type Header31 struct {
	Zero0    uint64
	DataSize uint32
	Unknown  uint32
}

// Header7 is the payload of the second fragment (28 bytes). It carries
// the dimensions the injected texture has to match.
type Header7 struct {
	Zero0     uint64
	DataSize  uint32
	Width     uint32
	Height    uint32
	Depth     uint16
	ArraySize uint16
	NumMips   uint16
	Pad       uint16
}

// Headers groups the three header records of a texture entry.
type Headers struct {
	H30 Header30
	H31 Header31
	H7  Header7
}

// ReadHeaders decodes the texture headers of entry. The headers are read
// from the entry's first pointer and from the payload pointers of its
// first two fragments.
func ReadHeaders(entry *ovl.Entry) (Headers, error) {
	var h Headers

	p30, err := entry.Pointer(0)
	if err != nil {
		return h, fmt.Errorf("texture header 3.0: %w", err)
	}
	if err := decodeHeader(p30.Data(), &h.H30); err != nil {
		return h, fmt.Errorf("texture header 3.0 of %s: %w", entry.Name, err)
	}

	p31, err := entry.FragmentPointer(0, 1)
	if err != nil {
		return h, fmt.Errorf("texture header 3.1: %w", err)
	}
	if err := decodeHeader(p31.Data(), &h.H31); err != nil {
		return h, fmt.Errorf("texture header 3.1 of %s: %w", entry.Name, err)
	}

	p7, err := entry.FragmentPointer(1, 1)
	if err != nil {
		return h, fmt.Errorf("texture header 7: %w", err)
	}
	if err := decodeHeader(p7.Data(), &h.H7); err != nil {
		return h, fmt.Errorf("texture header 7 of %s: %w", entry.Name, err)
	}
	return h, nil
}

func decodeHeader(data []byte, v any) error {
	if size := binary.Size(v); len(data) < size {
		return fmt.Errorf("%d bytes, want %d: %w", len(data), size, ovl.ErrShapeMismatch)
	}
	return binary.Read(bytes.NewReader(data), binary.LittleEndian, v)
}

// EncodeHeader returns the little-endian encoding of a header record.
func EncodeHeader(v any) []byte {
	var buf bytes.Buffer
	// Writes to a bytes.Buffer of fixed-size structs cannot fail.
	_ = binary.Write(&buf, binary.LittleEndian, v)
	return buf.Bytes()
}
