// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package container

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	ovl "github.com/suprsokr/go-ovl"
)

// noFragment marks an absent optional fragment reference
const noFragment = -1

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("container: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("container: CBOR decoder initialization failed: " + err.Error())
	}
}

// bodyDoc is the archive body. Pointers are listed in id order so that
// rebuilding the layout reproduces every PointerID.
type bodyDoc struct {
	Pointers  []pointerRecord  `cbor:"pointers"`
	Fragments []fragmentRecord `cbor:"fragments"`
	Entries   []entryRecord    `cbor:"entries"`
}

type copyRecord struct {
	Data    []byte `cbor:"data"`
	Padding []byte `cbor:"padding,omitempty"`
}

type pointerRecord struct {
	Pool     uint32       `cbor:"pool"`
	Offset   uint32       `cbor:"offset"`
	DataSize uint32       `cbor:"data_size"`
	Copies   []copyRecord `cbor:"copies"`
}

type fragmentRecord struct {
	Pointers []uint32 `cbor:"pointers"`
	Children []int    `cbor:"children,omitempty"`
}

type materialRecord struct {
	Name   int `cbor:"name"`
	Info   int `cbor:"info"`
	Attrib int `cbor:"attrib"`
}

type entryRecord struct {
	Name           string           `cbor:"name"`
	Pointers       []uint32         `cbor:"pointers"`
	Fragments      []int            `cbor:"fragments"`
	Buffers        [][]byte         `cbor:"buffers,omitempty"`
	ModelData      []int            `cbor:"model_data,omitempty"`
	HasTextureList bool             `cbor:"has_texture_list,omitempty"`
	TextureList    []int            `cbor:"texture_list,omitempty"`
	Materials      []materialRecord `cbor:"materials,omitempty"`
	Variant        bool             `cbor:"variant,omitempty"`
	Layered        bool             `cbor:"layered,omitempty"`
}

// bodyEncoder flattens entries into a bodyDoc, giving every distinct
// fragment one record.
type bodyEncoder struct {
	doc       bodyDoc
	fragments map[*ovl.Fragment]int
}

func encodeBody(layout *ovl.Layout, entries []*ovl.Entry) ([]byte, error) {
	enc := &bodyEncoder{fragments: make(map[*ovl.Fragment]int)}

	for _, p := range layout.Pointers() {
		rec := pointerRecord{Pool: p.Address.Pool, Offset: p.Address.Offset, DataSize: p.DataSize()}
		for _, c := range p.Copies() {
			rec.Copies = append(rec.Copies, copyRecord{Data: c.Data(), Padding: c.Padding()})
		}
		enc.doc.Pointers = append(enc.doc.Pointers, rec)
	}

	for _, e := range entries {
		rec := entryRecord{
			Name:           e.Name,
			Pointers:       pointerIDs(e.Pointers),
			Fragments:      enc.fragmentList(e.Fragments),
			ModelData:      enc.fragmentList(e.ModelData),
			HasTextureList: e.HasTextureList,
			TextureList:    enc.fragmentList(e.TextureList),
			Variant:        e.Variant,
			Layered:        e.Layered,
		}
		if e.Data != nil {
			for _, b := range e.Data.Buffers {
				rec.Buffers = append(rec.Buffers, b.Data())
			}
		}
		for _, m := range e.Materials {
			rec.Materials = append(rec.Materials, materialRecord{
				Name:   enc.fragment(m.Name),
				Info:   enc.fragment(m.Info),
				Attrib: enc.fragment(m.Attrib),
			})
		}
		enc.doc.Entries = append(enc.doc.Entries, rec)
	}

	return encMode.Marshal(&enc.doc)
}

func pointerIDs(pointers []*ovl.Pointer) []uint32 {
	ids := make([]uint32, len(pointers))
	for i, p := range pointers {
		ids[i] = uint32(p.ID)
	}
	return ids
}

func (enc *bodyEncoder) fragmentList(frags []*ovl.Fragment) []int {
	if len(frags) == 0 {
		return nil
	}
	out := make([]int, len(frags))
	for i, f := range frags {
		out[i] = enc.fragment(f)
	}
	return out
}

func (enc *bodyEncoder) fragment(f *ovl.Fragment) int {
	if f == nil {
		return noFragment
	}
	if id, ok := enc.fragments[f]; ok {
		return id
	}
	id := len(enc.doc.Fragments)
	enc.fragments[f] = id
	enc.doc.Fragments = append(enc.doc.Fragments, fragmentRecord{Pointers: pointerIDs(f.Pointers)})
	children := enc.fragmentList(f.Children)
	enc.doc.Fragments[id].Children = children
	return id
}

// bodyDecoder rebuilds entries from a bodyDoc.
type bodyDecoder struct {
	layout    *ovl.Layout
	pointers  []*ovl.Pointer
	fragments []*ovl.Fragment
}

func decodeBody(raw []byte) (*ovl.Layout, []*ovl.Entry, error) {
	var doc bodyDoc
	if err := decMode.Unmarshal(raw, &doc); err != nil {
		return nil, nil, fmt.Errorf("decode body: %w", err)
	}

	dec := &bodyDecoder{layout: ovl.NewLayout()}
	for _, rec := range doc.Pointers {
		copies := make([]ovl.Copy, len(rec.Copies))
		for i, c := range rec.Copies {
			copies[i] = ovl.NewCopy(c.Data, c.Padding)
		}
		addr := ovl.Address{Pool: rec.Pool, Offset: rec.Offset}
		dec.pointers = append(dec.pointers, dec.layout.AddPointer(addr, rec.DataSize, copies...))
	}

	dec.fragments = make([]*ovl.Fragment, len(doc.Fragments))
	for i, rec := range doc.Fragments {
		ptrs, err := dec.pointerList(rec.Pointers)
		if err != nil {
			return nil, nil, fmt.Errorf("fragment %d: %w", i, err)
		}
		dec.fragments[i] = ovl.NewFragment(ptrs...)
	}
	for i, rec := range doc.Fragments {
		children, err := dec.fragmentList(rec.Children)
		if err != nil {
			return nil, nil, fmt.Errorf("fragment %d children: %w", i, err)
		}
		dec.fragments[i].Children = children
	}

	entries := make([]*ovl.Entry, 0, len(doc.Entries))
	for _, rec := range doc.Entries {
		e, err := dec.entry(rec)
		if err != nil {
			return nil, nil, fmt.Errorf("entry %q: %w", rec.Name, err)
		}
		entries = append(entries, e)
	}
	return dec.layout, entries, nil
}

func (dec *bodyDecoder) entry(rec entryRecord) (*ovl.Entry, error) {
	e := ovl.NewEntry(rec.Name, dec.layout)
	var err error
	if e.Pointers, err = dec.pointerList(rec.Pointers); err != nil {
		return nil, err
	}
	if e.Fragments, err = dec.fragmentList(rec.Fragments); err != nil {
		return nil, err
	}
	if e.ModelData, err = dec.fragmentList(rec.ModelData); err != nil {
		return nil, err
	}
	if e.TextureList, err = dec.fragmentList(rec.TextureList); err != nil {
		return nil, err
	}
	e.Data = ovl.NewDataEntry(rec.Buffers...)
	e.HasTextureList = rec.HasTextureList
	e.Variant = rec.Variant
	e.Layered = rec.Layered

	for i, m := range rec.Materials {
		var g ovl.MaterialGroup
		if g.Name, err = dec.optionalFragment(m.Name); err != nil {
			return nil, fmt.Errorf("material %d: %w", i, err)
		}
		if g.Info, err = dec.optionalFragment(m.Info); err != nil {
			return nil, fmt.Errorf("material %d: %w", i, err)
		}
		if g.Attrib, err = dec.optionalFragment(m.Attrib); err != nil {
			return nil, fmt.Errorf("material %d: %w", i, err)
		}
		e.Materials = append(e.Materials, g)
	}
	return e, nil
}

func (dec *bodyDecoder) pointerList(ids []uint32) ([]*ovl.Pointer, error) {
	out := make([]*ovl.Pointer, len(ids))
	for i, id := range ids {
		if int(id) >= len(dec.pointers) {
			return nil, fmt.Errorf("pointer %d of %d: %w", id, len(dec.pointers), ErrCorrupt)
		}
		out[i] = dec.pointers[id]
	}
	return out, nil
}

func (dec *bodyDecoder) fragmentList(ids []int) ([]*ovl.Fragment, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	out := make([]*ovl.Fragment, len(ids))
	for i, id := range ids {
		f, err := dec.optionalFragment(id)
		if err != nil {
			return nil, err
		}
		if f == nil {
			return nil, fmt.Errorf("missing fragment in list: %w", ErrCorrupt)
		}
		out[i] = f
	}
	return out, nil
}

func (dec *bodyDecoder) optionalFragment(id int) (*ovl.Fragment, error) {
	if id == noFragment {
		return nil, nil
	}
	if id < 0 || id >= len(dec.fragments) {
		return nil, fmt.Errorf("fragment %d of %d: %w", id, len(dec.fragments), ErrCorrupt)
	}
	return dec.fragments[id], nil
}
