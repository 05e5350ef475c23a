// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package inject

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	ovl "github.com/suprsokr/go-ovl"
)

const (
	textPadTo     = 8
	xmlPadTo      = 8
	assetPkgPadTo = 64

	fdbHeaderWords = 8
	luaStringSize  = 16
	luaFrag0Skip   = 8
	luaFrag1Skip   = 24
)

type handler func(s *Session, j *job) error

var handlers = map[Kind]handler{
	KindPNG:                injectPNG,
	KindDDS:                injectDDS,
	KindModel:              injectModel,
	KindMaterial:           injectMaterial,
	KindMaterialCollection: injectMaterialCollection,
	KindText:               injectText,
	KindXMLConfig:          injectXMLConfig,
	KindDatabase:           injectDatabase,
	KindLua:                injectLua,
	KindAssetPackage:       injectAssetPackage,
}

func zeroTerminated(b []byte) []byte {
	out := make([]byte, len(b)+1)
	copy(out, b)
	return out
}

// injectText stores the file behind a u32 length prefix.
func injectText(_ *Session, j *job) error {
	raw, err := os.ReadFile(j.path)
	if err != nil {
		return err
	}
	ptr, err := j.entry.Pointer(0)
	if err != nil {
		return err
	}
	data := binary.LittleEndian.AppendUint32(make([]byte, 0, 4+len(raw)), uint32(len(raw)))
	data = append(data, raw...)
	j.patch.UpdatePointer(ptr, data, true, textPadTo)
	return nil
}

func injectXMLConfig(_ *Session, j *job) error {
	raw, err := os.ReadFile(j.path)
	if err != nil {
		return err
	}
	ptr, err := j.entry.FragmentPointer(0, 1)
	if err != nil {
		return err
	}
	j.patch.UpdatePointer(ptr, zeroTerminated(raw), true, xmlPadTo)
	return nil
}

func injectAssetPackage(_ *Session, j *job) error {
	raw, err := os.ReadFile(j.path)
	if err != nil {
		return err
	}
	ptr, err := j.entry.FragmentPointer(0, 1)
	if err != nil {
		return err
	}
	j.patch.UpdatePointer(ptr, zeroTerminated(raw), true, assetPkgPadTo)
	return nil
}

// injectDatabase replaces the name and database buffers and stores the
// database size in the entry header.
func injectDatabase(_ *Session, j *job) error {
	raw, err := os.ReadFile(j.path)
	if err != nil {
		return err
	}
	ptr, err := j.entry.Pointer(0)
	if err != nil {
		return err
	}
	base := filepath.Base(j.path)
	name := base[:len(base)-len(filepath.Ext(base))]
	if len(j.entry.Data.Buffers) < 2 {
		return fmt.Errorf("%s has %d buffers, want 2: %w", j.entry.Name, len(j.entry.Data.Buffers), ovl.ErrShapeMismatch)
	}
	if err := j.patch.UpdateBuffers(j.entry.Data, []byte(name), raw); err != nil {
		return err
	}
	header := make([]uint32, fdbHeaderWords)
	header[0] = uint32(len(raw))
	j.patch.UpdatePointer(ptr, encodeWords(header), true, 0)
	return nil
}

func encodeWords(words []uint32) []byte {
	out := make([]byte, 0, 4*len(words))
	for _, w := range words {
		out = binary.LittleEndian.AppendUint32(out, w)
	}
	return out
}

// injectLua replaces the script buffer and copies the header fields from
// the sidecar "<file>meta" written on extraction.
func injectLua(_ *Session, j *job) error {
	raw, err := os.ReadFile(j.path)
	if err != nil {
		return err
	}
	meta, err := os.ReadFile(j.path + "meta")
	if err != nil {
		return fmt.Errorf("lua metadata: %w", err)
	}

	strPtr, err := j.entry.Pointer(0)
	if err != nil {
		return err
	}
	frag0, err := j.entry.FragmentPointer(0, 1)
	if err != nil {
		return err
	}
	frag1, err := j.entry.FragmentPointer(1, 1)
	if err != nil {
		return err
	}

	sizes := []int{luaStringSize, luaFrag0Skip, int(frag0.DataSize()), luaFrag1Skip, int(frag1.DataSize())}
	need := 0
	for _, n := range sizes {
		need += n
	}
	if len(meta) < need {
		return &ovl.SizeMismatchError{File: filepath.Base(j.path) + "meta", What: "lua metadata", Declared: need, Computed: len(meta)}
	}
	fields := make([][]byte, len(sizes))
	off := 0
	for i, n := range sizes {
		fields[i] = meta[off : off+n]
		off += n
	}

	if err := j.patch.UpdateBuffers(j.entry.Data, raw); err != nil {
		return err
	}
	j.patch.UpdatePointer(strPtr, fields[0], true, 0)
	j.patch.UpdatePointer(frag0, fields[2], true, 0)
	j.patch.UpdatePointer(frag1, fields[4], true, 0)
	return nil
}

// injectModel replaces the geometry buffers of the sibling ms2 entry and
// the model, LOD and buffer info fragments of both entries.
func injectModel(s *Session, j *job) error {
	if s.opts.Models == nil {
		return fmt.Errorf("%s: %w", KindModel, ErrNoCodec)
	}
	raw, err := os.ReadFile(j.path)
	if err != nil {
		return err
	}
	model, err := s.opts.Models.DecodeModel(raw)
	if err != nil {
		return fmt.Errorf("decode %s: %w", filepath.Base(j.path), err)
	}

	ms2Path := filepath.Join(filepath.Dir(j.path), model.MS2Name)
	ms2Raw, err := os.ReadFile(ms2Path)
	if err != nil {
		return err
	}
	buffers, err := s.opts.Models.DecodeModelBuffers(ms2Raw)
	if err != nil {
		return fmt.Errorf("decode %s: %w", model.MS2Name, err)
	}
	ms2, err := s.opts.Archive.Entry(model.MS2Name)
	if err != nil {
		return fmt.Errorf("look up %s: %w", model.MS2Name, err)
	}
	j.log.Debug().Str("ms2", ms2.Name).Int("models", len(model.Models)).Msg("model decoded")

	if len(model.Models) != len(j.entry.ModelData) {
		return fmt.Errorf("%s has %d model fragments, file has %d models: %w",
			j.entry.Name, len(j.entry.ModelData), len(model.Models), ovl.ErrShapeMismatch)
	}
	if err := j.patch.UpdateBuffers(ms2.Data, buffers.Buffers[:]...); err != nil {
		return fmt.Errorf("%s: %w", ms2.Name, err)
	}
	for i, frag := range j.entry.ModelData {
		ptr, err := frag.Pointer(0)
		if err != nil {
			return fmt.Errorf("model %d: %w", i, err)
		}
		j.patch.UpdatePointer(ptr, model.Models[i], true, 0)
	}
	lods, err := j.entry.FragmentPointer(1, 1)
	if err != nil {
		return err
	}
	j.patch.UpdatePointer(lods, model.LODs, true, 0)
	info, err := ms2.FragmentPointer(0, 1)
	if err != nil {
		return err
	}
	j.patch.UpdatePointer(info, buffers.BufferInfo, true, 0)
	return nil
}

// injectMaterial replaces the material buffer, its info pointer and the
// fragment payloads of whichever material shape the entry has.
func injectMaterial(s *Session, j *job) error {
	if s.opts.Materials == nil {
		return fmt.Errorf("%s: %w", KindMaterial, ErrNoCodec)
	}
	raw, err := os.ReadFile(j.path)
	if err != nil {
		return err
	}
	m, err := s.opts.Materials.DecodeMaterial(raw)
	if err != nil {
		return fmt.Errorf("decode %s: %w", filepath.Base(j.path), err)
	}

	var payloads [][]byte
	switch len(j.entry.Fragments) {
	case 4:
		payloads = [][]byte{m.Textures, m.Attributes, m.Zeros, m.DataLib}
	case 3: // no zeros
		payloads = [][]byte{m.Textures, m.Attributes, m.DataLib}
	case 2: // variants
		payloads = [][]byte{m.Attributes, m.DataLib}
	default:
		return fmt.Errorf("%s has %d fragments, want 2, 3 or 4: %w", j.entry.Name, len(j.entry.Fragments), ovl.ErrShapeMismatch)
	}

	info, err := j.entry.Pointer(0)
	if err != nil {
		return err
	}
	if err := j.patch.UpdateBuffers(j.entry.Data, m.Buffer); err != nil {
		return err
	}
	j.patch.UpdatePointer(info, m.Info, true, 0)
	for i, data := range payloads {
		ptr, err := j.entry.FragmentPointer(i, 1)
		if err != nil {
			return err
		}
		j.patch.UpdatePointer(ptr, data, true, 0)
	}
	return nil
}

// injectMaterialCollection renames the texture list and material records
// of a collection. Names may share storage, so they are written together
// through UnionPointers.
func injectMaterialCollection(s *Session, j *job) error {
	if s.opts.Collections == nil {
		return fmt.Errorf("%s: %w", KindMaterialCollection, ErrNoCodec)
	}
	raw, err := os.ReadFile(j.path)
	if err != nil {
		return err
	}
	mc, err := s.opts.Collections.DecodeMaterialCollection(raw)
	if err != nil {
		return fmt.Errorf("decode %s: %w", filepath.Base(j.path), err)
	}

	e := j.entry
	var pointers []*ovl.Pointer
	var names []string

	if e.HasTextureList {
		for i, frag := range e.TextureList {
			ptr, err := frag.Pointer(1)
			if err != nil {
				return fmt.Errorf("texture %d: %w", i, err)
			}
			pointers = append(pointers, ptr)
		}
		for _, t := range mc.Textures {
			names = append(names, t.FGMName, t.Suffix, t.Type)
		}
	}

	switch {
	case e.Variant:
		if len(e.Materials) != len(mc.Variants) {
			return fmt.Errorf("%s has %d variants, file has %d: %w", e.Name, len(e.Materials), len(mc.Variants), ovl.ErrShapeMismatch)
		}
		for i, m := range e.Materials {
			ptr, err := materialName(m, i)
			if err != nil {
				return err
			}
			pointers = append(pointers, ptr)
			names = append(names, mc.Variants[i])
		}
	case e.Layered:
		if len(e.Materials) != len(mc.Layers) {
			return fmt.Errorf("%s has %d layers, file has %d: %w", e.Name, len(e.Materials), len(mc.Layers), ovl.ErrShapeMismatch)
		}
		for i, m := range e.Materials {
			ptr, err := materialName(m, i)
			if err != nil {
				return err
			}
			layer := mc.Layers[i]
			pointers = append(pointers, ptr)
			names = append(names, layer.Name)

			for _, group := range []struct {
				frag  *ovl.Fragment
				blobs []NamedBlob
			}{{m.Info, layer.Infos}, {m.Attrib, layer.Attribs}} {
				ptrs, err := layerRecords(j.patch, group.frag, group.blobs)
				if err != nil {
					return fmt.Errorf("layer %q: %w", layer.Name, err)
				}
				pointers = append(pointers, ptrs...)
				for _, b := range group.blobs {
					names = append(names, b.Name)
				}
			}
		}
	}

	j.log.Debug().Int("names", len(names)).Msg("material collection decoded")
	return j.patch.UnionPointers(pointers, names)
}

func materialName(m ovl.MaterialGroup, i int) (*ovl.Pointer, error) {
	if m.Name == nil {
		return nil, fmt.Errorf("material %d has no name fragment: %w", i, ovl.ErrShapeMismatch)
	}
	ptr, err := m.Name.Pointer(1)
	if err != nil {
		return nil, fmt.Errorf("material %d: %w", i, err)
	}
	return ptr, nil
}

// layerRecords stages the info or attribute blobs of one layer and
// returns the name pointers of its records.
func layerRecords(p *ovl.Patch, frag *ovl.Fragment, blobs []NamedBlob) ([]*ovl.Pointer, error) {
	if frag == nil {
		if len(blobs) > 0 {
			return nil, fmt.Errorf("%d records without a fragment: %w", len(blobs), ovl.ErrShapeMismatch)
		}
		return nil, nil
	}
	if len(frag.Children) != len(blobs) {
		return nil, fmt.Errorf("fragment has %d records, file has %d: %w", len(frag.Children), len(blobs), ovl.ErrShapeMismatch)
	}
	names := make([]*ovl.Pointer, len(blobs))
	for i, child := range frag.Children {
		blobPtr, err := child.Pointer(0)
		if err != nil {
			return nil, err
		}
		namePtr, err := child.Pointer(1)
		if err != nil {
			return nil, err
		}
		p.UpdatePointer(blobPtr, blobs[i].Blob, true, 0)
		p.UpdatePointer(namePtr, zeroTerminated([]byte(blobs[i].Name)), true, 0)
		names[i] = namePtr
	}
	return names, nil
}
