// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package inject

import "errors"

// ErrNoCodec is returned when a file needs a structured-format codec that
// the session was not given.
var ErrNoCodec = errors.New("no codec for file type")

// ModelRecord is a decoded .mdl2 file.
type ModelRecord struct {
	// MS2Name names the sibling .ms2 file holding the geometry buffers.
	// It is also the name of the ms2 entry in the archive.
	MS2Name string

	// Models holds the serialized model data, one per model fragment.
	Models [][]byte

	// LODs is the serialized LOD info.
	LODs []byte
}

// ModelBuffers is a decoded .ms2 file.
type ModelBuffers struct {
	// BufferInfo is the serialized buffer info fragment.
	BufferInfo []byte

	// Buffers are the name table, the bone info and the vertex and
	// index data, in archive order.
	Buffers [3][]byte
}

// MaterialRecord is a decoded .fgm file.
type MaterialRecord struct {
	Info       []byte // material info followed by its fragment padding
	Textures   []byte // texture table followed by its padding
	Attributes []byte
	Zeros      []byte
	DataLib    []byte
	Buffer     []byte
}

// TextureRef is one texture-list record of a material collection.
type TextureRef struct {
	FGMName string
	Suffix  string
	Type    string
}

// NamedBlob is a serialized layer info or attribute and its name.
type NamedBlob struct {
	Name string
	Blob []byte
}

// Layer is one material layer of a layered material collection.
type Layer struct {
	Name    string
	Infos   []NamedBlob
	Attribs []NamedBlob
}

// MaterialCollectionRecord is a decoded .matcol file. Variants is set
// for variant collections and Layers for layered ones.
type MaterialCollectionRecord struct {
	Textures []TextureRef
	Variants []string
	Layers   []Layer
}

// ModelCodec decodes model files.
type ModelCodec interface {
	DecodeModel(data []byte) (*ModelRecord, error)
	DecodeModelBuffers(data []byte) (*ModelBuffers, error)
}

// MaterialCodec decodes material files.
type MaterialCodec interface {
	DecodeMaterial(data []byte) (*MaterialRecord, error)
}

// MaterialCollectionCodec decodes material collection files.
type MaterialCollectionCodec interface {
	DecodeMaterialCollection(data []byte) (*MaterialCollectionRecord, error)
}
