// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

/*
Package ovl models the records of a compiled OVL archive and patches their
contents in place without re-linking the archive's offset tables.

An archive stores named records ([Entry]) whose payloads are reached
through pointers. A single logical [Pointer] may be placed at several
physical locations ([Copy]); the archive-wide [Layout] owns every
placement and is the only place bytes change. Bulk payloads such as mip
levels or vertex streams live in the entry's [DataEntry] buffers.

# Patching

All writes go through a [Patch]. A patch stages new bytes for pointers and
buffers and applies them together on [Patch.Commit], so a failure while an
asset is being prepared leaves the entry untouched:

	p := ovl.NewPatch()
	p.UpdatePointer(entry.Pointers[0], payload, true, 8)
	if err := p.UpdateBuffers(entry.Data, body); err != nil {
		return err
	}
	p.Commit()

Writes that update copies keep every placement of a pointer, and of every
pointer sharing its address, byte-identical. Padding is recomputed from
the new length, never copied.

# Shared names

Material collections emit each distinct name once per address while many
fragments reference it. [Patch.UnionPointers] rewrites such names in
address order and attributes the trailing 64-byte alignment to the last
allocation only.

# Concurrency

A Layout and the entries built on it are not safe for concurrent use.
Callers embedding this package in a concurrent host must serialize all
patches against one archive.
*/
package ovl
