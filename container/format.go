// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package container

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Container format constants
const (
	// Magic signature "OVLC" in little-endian
	containerMagic = 0x434C564F

	formatVersion1 = 1

	// headerSize is the size of fileHeader on disk
	headerSize = 0x58

	// nameSlotSize is the size of one name index slot on disk
	nameSlotSize = 12

	// maxRawSize bounds the uncompressed body
	maxRawSize = 1 << 32

	// lz4MaxRatio is the largest expansion of an LZ4 block
	lz4MaxRatio = 255
)

var (
	// ErrCorrupt is returned when an archive's body does not match its
	// header.
	ErrCorrupt = errors.New("container: archive is corrupt")

	// ErrExists is returned when an entry name is added twice.
	ErrExists = errors.New("container: entry already exists")

	// ErrClosed is returned by methods of a closed archive.
	ErrClosed = errors.New("container: archive is closed")

	// ErrForeignEntry is returned when an entry's pointers live in
	// another archive's layout.
	ErrForeignEntry = errors.New("container: entry belongs to another layout")
)

// fileHeader is the container header (88 bytes)
type fileHeader struct {
	Magic         uint32   // "OVLC"
	HeaderSize    uint32   // Size of this header
	FormatVersion uint16   // Format version
	Compression   uint16   // Body compression
	EntryCount    uint32   // Number of entries
	BodyOffset    uint64   // Offset of the stored body
	BodySize      uint64   // Stored body size
	RawSize       uint64   // Uncompressed body size
	IndexOffset   uint64   // Offset of the name index
	IndexSize     uint32   // Number of name index slots
	Reserved      uint32   // Always zero
	Digest        [32]byte // BLAKE3-256 of the uncompressed body
}

// readFileHeader reads the container header from a reader
func readFileHeader(r io.Reader) (*fileHeader, error) {
	h := &fileHeader{}
	if err := binary.Read(r, binary.LittleEndian, h); err != nil {
		return nil, err
	}
	return h, nil
}

// checkBounds verifies that the body and the name index lie inside a file
// of fileSize bytes before anything is allocated for them.
func (h *fileHeader) checkBounds(fileSize uint64) error {
	if h.BodyOffset < headerSize || h.BodyOffset > fileSize || h.BodySize > fileSize-h.BodyOffset {
		return fmt.Errorf("body at %d (%d bytes) outside %d byte file: %w", h.BodyOffset, h.BodySize, fileSize, ErrCorrupt)
	}
	indexBytes := uint64(h.IndexSize) * nameSlotSize
	if h.IndexOffset > fileSize || indexBytes > fileSize-h.IndexOffset {
		return fmt.Errorf("name index at %d (%d slots) outside %d byte file: %w", h.IndexOffset, h.IndexSize, fileSize, ErrCorrupt)
	}
	if h.RawSize > maxRawSize {
		return fmt.Errorf("raw body size %d exceeds %d: %w", h.RawSize, uint64(maxRawSize), ErrCorrupt)
	}
	return nil
}

// writeFileHeader writes the container header to a writer
func writeFileHeader(w io.Writer, h *fileHeader) error {
	return binary.Write(w, binary.LittleEndian, h)
}

// readNameIndex reads n name slots
func readNameIndex(r io.Reader, n uint32) (nameIndex, error) {
	idx := make(nameIndex, n)
	if err := binary.Read(r, binary.LittleEndian, []nameSlot(idx)); err != nil {
		return nil, err
	}
	return idx, nil
}

// writeNameIndex writes every name slot
func writeNameIndex(w io.Writer, idx nameIndex) error {
	return binary.Write(w, binary.LittleEndian, []nameSlot(idx))
}
