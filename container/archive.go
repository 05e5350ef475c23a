// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package container

import (
	"fmt"
	"io"
	"os"

	"github.com/zeebo/blake3"

	ovl "github.com/suprsokr/go-ovl"
)

// Archive is an OVL container held in memory. Entries share one layout,
// so a patch applied to any entry is saved with the archive.
type Archive struct {
	path        string
	layout      *ovl.Layout
	entries     []*ovl.Entry
	index       nameIndex
	compression Compression
	closed      bool
}

// New returns an empty archive that compresses its body with zstd.
func New() *Archive {
	return &Archive{
		layout:      ovl.NewLayout(),
		index:       newNameIndex(0),
		compression: CompressionZstd,
	}
}

// Open reads the archive at path. The file is not kept open.
func Open(path string) (*Archive, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	header, err := readFileHeader(file)
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if header.Magic != containerMagic {
		return nil, fmt.Errorf("invalid magic 0x%08X: %w", header.Magic, ErrCorrupt)
	}
	if header.FormatVersion != formatVersion1 {
		return nil, fmt.Errorf("unsupported format version %d", header.FormatVersion)
	}
	if header.HeaderSize != headerSize {
		return nil, fmt.Errorf("header size %d: %w", header.HeaderSize, ErrCorrupt)
	}
	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}
	if err := header.checkBounds(uint64(info.Size())); err != nil {
		return nil, err
	}

	if _, err := file.Seek(int64(header.BodyOffset), io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek to body: %w", err)
	}
	stored := make([]byte, header.BodySize)
	if _, err := io.ReadFull(file, stored); err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	compression := Compression(header.Compression)
	raw, err := decompressBody(stored, compression, int(header.RawSize))
	if err != nil {
		return nil, fmt.Errorf("body: %w", err)
	}
	if blake3.Sum256(raw) != header.Digest {
		return nil, fmt.Errorf("body digest mismatch: %w", ErrCorrupt)
	}

	layout, entries, err := decodeBody(raw)
	if err != nil {
		return nil, err
	}
	if uint32(len(entries)) != header.EntryCount {
		return nil, fmt.Errorf("body holds %d entries, header declares %d: %w", len(entries), header.EntryCount, ErrCorrupt)
	}

	if _, err := file.Seek(int64(header.IndexOffset), io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek to name index: %w", err)
	}
	index, err := readNameIndex(file, header.IndexSize)
	if err != nil {
		return nil, fmt.Errorf("read name index: %w", err)
	}

	a := &Archive{
		path:        path,
		layout:      layout,
		entries:     entries,
		index:       index,
		compression: compression,
	}
	for _, e := range entries {
		if _, ok := a.find(e.Name); !ok {
			return nil, fmt.Errorf("entry %q missing from name index: %w", e.Name, ErrCorrupt)
		}
	}
	return a, nil
}

// Path returns the path the archive was opened from or last saved to.
func (a *Archive) Path() string { return a.path }

// Layout returns the layout shared by every entry of the archive. New
// entries must be built on it.
func (a *Archive) Layout() *ovl.Layout { return a.layout }

// Compression returns the body compression used by Save.
func (a *Archive) Compression() Compression { return a.compression }

// SetCompression sets the body compression used by Save.
func (a *Archive) SetCompression(c Compression) { a.compression = c }

// Len returns the number of entries.
func (a *Archive) Len() int { return len(a.entries) }

// Add appends an entry. Its name must be unique, compared
// case-insensitively.
func (a *Archive) Add(e *ovl.Entry) error {
	if a.closed {
		return ErrClosed
	}
	if e.Layout() != a.layout {
		return fmt.Errorf("%s: %w", e.Name, ErrForeignEntry)
	}
	if _, ok := a.find(e.Name); ok {
		return fmt.Errorf("%s: %w", e.Name, ErrExists)
	}

	pos := uint32(len(a.entries))
	a.entries = append(a.entries, e)
	if 2*len(a.index) < 3*len(a.entries) {
		return a.reindex()
	}
	return a.index.insert(e.Name, pos)
}

// Entry returns the entry named name. Lookup ignores case.
func (a *Archive) Entry(name string) (*ovl.Entry, error) {
	if a.closed {
		return nil, ErrClosed
	}
	pos, ok := a.find(name)
	if !ok {
		return nil, fmt.Errorf("entry %q: %w", name, ovl.ErrNotFound)
	}
	return a.entries[pos], nil
}

// HasEntry reports whether an entry named name exists.
func (a *Archive) HasEntry(name string) bool {
	_, ok := a.find(name)
	return ok
}

// Entries returns the entries in insertion order.
func (a *Archive) Entries() []*ovl.Entry {
	out := make([]*ovl.Entry, len(a.entries))
	copy(out, a.entries)
	return out
}

// Close releases the archive. Unsaved changes are discarded.
func (a *Archive) Close() error {
	if a.closed {
		return nil
	}
	a.closed = true
	a.entries = nil
	a.index = nil
	return nil
}

func (a *Archive) find(name string) (uint32, bool) {
	return a.index.lookup(name, func(pos uint32) bool {
		return int(pos) < len(a.entries) && sameName(a.entries[pos].Name, name)
	})
}

// sameName compares entry names the way the name index hashes them.
func sameName(a, b string) bool {
	return normalizeName(a) == normalizeName(b)
}

// reindex rebuilds the name index for the current entry count.
func (a *Archive) reindex() error {
	idx := newNameIndex(len(a.entries))
	for i, e := range a.entries {
		if err := idx.insert(e.Name, uint32(i)); err != nil {
			return err
		}
	}
	a.index = idx
	return nil
}
