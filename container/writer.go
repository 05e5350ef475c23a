// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package container

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/zeebo/blake3"
)

// Save writes the archive to path. The archive is written to a temporary
// file in the same directory and renamed over path, so a failed save
// leaves any existing file untouched.
func (a *Archive) Save(path string) (err error) {
	if a.closed {
		return ErrClosed
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	file, err := os.CreateTemp(dir, "ovl_*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tempPath := file.Name()
	defer func() {
		if err != nil {
			file.Close()
			os.Remove(tempPath)
		}
	}()

	if err := a.writeArchive(file); err != nil {
		return err
	}
	if err := file.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	a.path = path
	return nil
}

// writeArchive writes the header, the body and the name index.
func (a *Archive) writeArchive(w io.Writer) error {
	raw, err := encodeBody(a.layout, a.entries)
	if err != nil {
		return fmt.Errorf("encode body: %w", err)
	}

	compression := a.compression
	stored, err := compressBody(raw, compression)
	if errors.Is(err, errIncompressible) {
		compression, stored = CompressionNone, raw
	} else if err != nil {
		return fmt.Errorf("compress body: %w", err)
	}

	index := newNameIndex(len(a.entries))
	for i, e := range a.entries {
		if err := index.insert(e.Name, uint32(i)); err != nil {
			return fmt.Errorf("add %s to name index: %w", e.Name, err)
		}
	}

	header := &fileHeader{
		Magic:         containerMagic,
		HeaderSize:    headerSize,
		FormatVersion: formatVersion1,
		Compression:   uint16(compression),
		EntryCount:    uint32(len(a.entries)),
		BodyOffset:    headerSize,
		BodySize:      uint64(len(stored)),
		RawSize:       uint64(len(raw)),
		IndexOffset:   headerSize + uint64(len(stored)),
		IndexSize:     uint32(len(index)),
		Digest:        blake3.Sum256(raw),
	}

	if err := writeFileHeader(w, header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if _, err := w.Write(stored); err != nil {
		return fmt.Errorf("write body: %w", err)
	}
	if err := writeNameIndex(w, index); err != nil {
		return fmt.Errorf("write name index: %w", err)
	}
	return nil
}
