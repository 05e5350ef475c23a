// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package ovl

import (
	"bytes"
	"cmp"
	"fmt"
)

// PointerID identifies a logical pointer within a Layout.
type PointerID uint32

// Address is the physical location of a pointer's region: a memory pool
// and a byte offset inside it.
type Address struct {
	Pool   uint32
	Offset uint32
}

// Compare orders addresses by pool, then by offset.
func (a Address) Compare(b Address) int {
	if c := cmp.Compare(a.Pool, b.Pool); c != 0 {
		return c
	}
	return cmp.Compare(a.Offset, b.Offset)
}

func (a Address) String() string {
	return fmt.Sprintf("%d:0x%X", a.Pool, a.Offset)
}

// Copy is one physical placement of a pointer's value. Copies are values;
// the bytes they return are private clones.
type Copy struct {
	data    []byte
	padding []byte
}

// NewCopy returns a placement holding data followed by padding.
func NewCopy(data, padding []byte) Copy {
	return Copy{data: bytes.Clone(data), padding: bytes.Clone(padding)}
}

// Data returns the placement's payload.
func (c Copy) Data() []byte { return bytes.Clone(c.data) }

// Padding returns the zero bytes written after the payload.
func (c Copy) Padding() []byte { return bytes.Clone(c.padding) }

// Len returns the payload length plus the padding length.
func (c Copy) Len() int { return len(c.data) + len(c.padding) }

// Layout is the archive-wide table from PointerID to the physical
// placements of that pointer.
type Layout struct {
	slots    [][]Copy
	pointers []*Pointer
	aliases  map[Address][]PointerID
}

// NewLayout returns an empty layout.
func NewLayout() *Layout {
	return &Layout{aliases: make(map[Address][]PointerID)}
}

// AddPointer registers a pointer at addr with the given placements. A
// pointer always has at least its primary placement; when no copies are
// given an empty one is created.
func (l *Layout) AddPointer(addr Address, dataSize uint32, copies ...Copy) *Pointer {
	if len(copies) == 0 {
		copies = []Copy{{}}
	}
	id := PointerID(len(l.slots))
	slots := make([]Copy, len(copies))
	copy(slots, copies)
	l.slots = append(l.slots, slots)

	p := &Pointer{ID: id, Address: addr, dataSize: dataSize, layout: l}
	l.pointers = append(l.pointers, p)
	l.aliases[addr] = append(l.aliases[addr], id)
	return p
}

// Len returns the number of registered pointers.
func (l *Layout) Len() int { return len(l.pointers) }

// Pointer returns the pointer with the given id, or nil.
func (l *Layout) Pointer(id PointerID) *Pointer {
	if int(id) >= len(l.pointers) {
		return nil
	}
	return l.pointers[id]
}

// Pointers returns all pointers in id order.
func (l *Layout) Pointers() []*Pointer {
	out := make([]*Pointer, len(l.pointers))
	copy(out, l.pointers)
	return out
}

// Copies returns a snapshot of the placements of pointer id.
func (l *Layout) Copies(id PointerID) []Copy {
	if int(id) >= len(l.slots) {
		return nil
	}
	out := make([]Copy, len(l.slots[id]))
	copy(out, l.slots[id])
	return out
}

// Aliases returns every pointer placed at addr, in id order.
func (l *Layout) Aliases(addr Address) []*Pointer {
	ids := l.aliases[addr]
	out := make([]*Pointer, 0, len(ids))
	for _, id := range ids {
		out = append(out, l.pointers[id])
	}
	return out
}

// write is the single mutation entry point for pointer bytes. With
// allCopies it rewrites every placement of id and carries the payload to
// the placements of its aliases, which get no padding of their own.
func (l *Layout) write(id PointerID, data, padding []byte, allCopies bool) {
	slots := l.slots[id]
	l.pointers[id].dataSize = uint32(len(data))
	if !allCopies {
		slots[0] = Copy{data: data, padding: padding}
		return
	}
	for i := range slots {
		slots[i] = Copy{data: data, padding: padding}
	}
	for _, alias := range l.aliases[l.pointers[id].Address] {
		if alias == id {
			continue
		}
		l.pointers[alias].dataSize = uint32(len(data))
		for i := range l.slots[alias] {
			l.slots[alias][i] = Copy{data: data}
		}
	}
}

// Pointer references a byte region of the archive. Its bytes live in the
// Layout that created it.
type Pointer struct {
	ID      PointerID
	Address Address

	dataSize uint32
	layout   *Layout
}

// DataSize returns the payload length the archive currently declares for
// this pointer.
func (p *Pointer) DataSize() uint32 { return p.dataSize }

// Data returns the payload of the primary placement.
func (p *Pointer) Data() []byte { return p.layout.slots[p.ID][0].Data() }

// Padding returns the padding of the primary placement.
func (p *Pointer) Padding() []byte { return p.layout.slots[p.ID][0].Padding() }

// Copies returns a snapshot of every placement of this pointer.
func (p *Pointer) Copies() []Copy { return p.layout.Copies(p.ID) }

func (p *Pointer) String() string {
	return fmt.Sprintf("pointer %d @ %s (%d bytes, %d copies)", p.ID, p.Address, p.dataSize, len(p.layout.slots[p.ID]))
}
