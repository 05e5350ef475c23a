// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package ovl

import (
	"bytes"
	"fmt"
)

// Padding returns the zero bytes that extend n to the next multiple of
// padTo. padTo <= 0 means no alignment requirement.
func Padding(n, padTo int) []byte {
	if padTo <= 0 {
		return nil
	}
	return make([]byte, (padTo-n%padTo)%padTo)
}

type pointerWrite struct {
	ptr       *Pointer
	data      []byte
	padding   []byte
	allCopies bool
}

type bufferWrite struct {
	buf  *Buffer
	data []byte
}

// Patch stages new bytes for pointers and buffers. Nothing is written
// until Commit, so an abandoned patch leaves every entry as it was.
type Patch struct {
	pointers   []pointerWrite
	buffers    []bufferWrite
	underflows []Underflow
	committed  bool
}

// NewPatch returns an empty patch.
func NewPatch() *Patch {
	return &Patch{}
}

// UpdatePointer stages data for ptr. With copies set every placement of
// the pointer receives the same bytes, otherwise only the primary one.
// When padTo is positive the placement is padded with zeros to a multiple
// of padTo.
func (p *Patch) UpdatePointer(ptr *Pointer, data []byte, copies bool, padTo int) {
	p.stagePointer(ptr, bytes.Clone(data), Padding(len(data), padTo), copies)
}

func (p *Patch) stagePointer(ptr *Pointer, data, padding []byte, allCopies bool) {
	p.pointers = append(p.pointers, pointerWrite{ptr: ptr, data: data, padding: padding, allCopies: allCopies})
}

// UpdateBuffers stages one blob per buffer, in order. Buffers beyond the
// supplied blobs are left untouched; the buffers take the blob lengths as
// their new sizes.
func (p *Patch) UpdateBuffers(d *DataEntry, blobs ...[]byte) error {
	if len(blobs) > len(d.Buffers) {
		return fmt.Errorf("update %d buffers with %d blobs: %w", len(d.Buffers), len(blobs), ErrShapeMismatch)
	}
	for i, blob := range blobs {
		p.buffers = append(p.buffers, bufferWrite{buf: d.Buffers[i], data: bytes.Clone(blob)})
	}
	return nil
}

// FillBuffers stages payload across the buffers of d at their declared
// sizes. A buffer that receives fewer bytes than it declares keeps its
// previous tail and is reported as an Underflow. Payload beyond the
// declared total is dropped.
func (p *Patch) FillBuffers(d *DataEntry, payload []byte) []Underflow {
	var underflows []Underflow
	for _, b := range d.Buffers {
		size := b.Size()
		n := min(size, len(payload))
		data := make([]byte, size)
		copy(data, payload[:n])
		payload = payload[n:]
		if n < size {
			copy(data[n:], b.data[n:])
			underflows = append(underflows, Underflow{Buffer: b.index, Declared: size, Written: n})
		}
		p.buffers = append(p.buffers, bufferWrite{buf: b, data: data})
	}
	p.underflows = append(p.underflows, underflows...)
	return underflows
}

// Underflows returns the shortfalls recorded by FillBuffers.
func (p *Patch) Underflows() []Underflow {
	return append([]Underflow(nil), p.underflows...)
}

// Staged returns the pointers written by this patch in staging order.
func (p *Patch) Staged() []*Pointer {
	out := make([]*Pointer, len(p.pointers))
	for i, w := range p.pointers {
		out[i] = w.ptr
	}
	return out
}

// Len returns the number of staged writes.
func (p *Patch) Len() int {
	return len(p.pointers) + len(p.buffers)
}

// Commit applies every staged write in staging order. Later calls do
// nothing.
func (p *Patch) Commit() {
	if p.committed {
		return
	}
	p.committed = true
	for _, w := range p.pointers {
		w.ptr.layout.write(w.ptr.ID, w.data, w.padding, w.allCopies)
	}
	for _, w := range p.buffers {
		w.buf.data = w.data
	}
}
