// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package ovl

import (
	"bytes"
	"fmt"
)

// Fragment is an ordered group of pointers forming one sub-record,
// commonly a small info pointer followed by a variable-length payload.
type Fragment struct {
	Pointers []*Pointer

	// Children are the nested fragments of a material-collection info or
	// attribute group.
	Children []*Fragment
}

// NewFragment returns a fragment over the given pointers.
func NewFragment(pointers ...*Pointer) *Fragment {
	return &Fragment{Pointers: pointers}
}

// Pointer returns the i-th pointer of the fragment.
func (f *Fragment) Pointer(i int) (*Pointer, error) {
	if i < 0 || i >= len(f.Pointers) {
		return nil, fmt.Errorf("fragment has %d pointers, want index %d: %w", len(f.Pointers), i, ErrShapeMismatch)
	}
	return f.Pointers[i], nil
}

// Buffer is a bulk payload of an entry, such as a run of mip levels or a
// vertex stream.
type Buffer struct {
	index int
	data  []byte
}

// Index returns the buffer's position in its DataEntry.
func (b *Buffer) Index() int { return b.index }

// Size returns the buffer's declared size in bytes.
func (b *Buffer) Size() int { return len(b.data) }

// Data returns a copy of the buffer's bytes.
func (b *Buffer) Data() []byte { return bytes.Clone(b.data) }

// DataEntry is the ordered list of buffers holding an entry's bulk data.
type DataEntry struct {
	Buffers []*Buffer
}

// NewDataEntry returns a data entry with one buffer per blob.
func NewDataEntry(blobs ...[]byte) *DataEntry {
	d := &DataEntry{Buffers: make([]*Buffer, len(blobs))}
	for i, blob := range blobs {
		d.Buffers[i] = &Buffer{index: i, data: bytes.Clone(blob)}
	}
	return d
}

// Size returns the sum of the declared buffer sizes.
func (d *DataEntry) Size() int {
	if d == nil {
		return 0
	}
	total := 0
	for _, b := range d.Buffers {
		total += b.Size()
	}
	return total
}

// MaterialGroup is one material of a material collection. Variant
// collections only carry Name; layered collections also carry the info
// and attribute fragments whose Children hold per-layer records.
type MaterialGroup struct {
	Name   *Fragment
	Info   *Fragment
	Attrib *Fragment
}

// Entry is one named record of the archive.
type Entry struct {
	Name      string
	Pointers  []*Pointer
	Fragments []*Fragment
	Data      *DataEntry

	// ModelData holds the per-model fragments of a model (.mdl2) record.
	ModelData []*Fragment

	// HasTextureList is set on material collections carrying a texture
	// list; TextureList holds one fragment per emitted name.
	HasTextureList bool
	TextureList    []*Fragment

	// Materials holds the material groups of a material collection.
	// Exactly one of Variant and Layered is set when it is non-empty.
	Materials []MaterialGroup
	Variant   bool
	Layered   bool

	layout *Layout
}

// NewEntry returns an empty entry whose pointers live in layout.
func NewEntry(name string, layout *Layout) *Entry {
	return &Entry{Name: name, Data: &DataEntry{}, layout: layout}
}

// Layout returns the layout holding the entry's pointer bytes.
func (e *Entry) Layout() *Layout { return e.layout }

// Pointer returns the i-th top-level pointer.
func (e *Entry) Pointer(i int) (*Pointer, error) {
	if i < 0 || i >= len(e.Pointers) {
		return nil, fmt.Errorf("%s has %d pointers, want index %d: %w", e.Name, len(e.Pointers), i, ErrShapeMismatch)
	}
	return e.Pointers[i], nil
}

// Fragment returns the i-th fragment.
func (e *Entry) Fragment(i int) (*Fragment, error) {
	if i < 0 || i >= len(e.Fragments) {
		return nil, fmt.Errorf("%s has %d fragments, want index %d: %w", e.Name, len(e.Fragments), i, ErrShapeMismatch)
	}
	return e.Fragments[i], nil
}

// FragmentPointer returns pointer ptr of fragment frag.
func (e *Entry) FragmentPointer(frag, ptr int) (*Pointer, error) {
	f, err := e.Fragment(frag)
	if err != nil {
		return nil, err
	}
	p, err := f.Pointer(ptr)
	if err != nil {
		return nil, fmt.Errorf("%s fragment %d: %w", e.Name, frag, err)
	}
	return p, nil
}
