// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package inject

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrUnsupportedKind is returned for files whose extension has no handler.
var ErrUnsupportedKind = errors.New("unsupported file type")

// Kind is the type of an input file, decided by its extension.
type Kind int

const (
	KindPNG Kind = iota + 1
	KindDDS
	KindModel
	KindMaterial
	KindMaterialCollection
	KindText
	KindXMLConfig
	KindDatabase
	KindLua
	KindAssetPackage
)

var kindExt = map[string]Kind{
	".png":       KindPNG,
	".dds":       KindDDS,
	".mdl2":      KindModel,
	".fgm":       KindMaterial,
	".matcol":    KindMaterialCollection,
	".txt":       KindText,
	".xmlconfig": KindXMLConfig,
	".fdb":       KindDatabase,
	".lua":       KindLua,
	".assetpkg":  KindAssetPackage,
}

var kindNames = map[Kind]string{
	KindPNG:                "png",
	KindDDS:                "dds",
	KindModel:              "mdl2",
	KindMaterial:           "fgm",
	KindMaterialCollection: "matcol",
	KindText:               "txt",
	KindXMLConfig:          "xmlconfig",
	KindDatabase:           "fdb",
	KindLua:                "lua",
	KindAssetPackage:       "assetpkg",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// KindFromPath returns the kind of path from its extension, ignoring case.
func KindFromPath(path string) (Kind, error) {
	ext := strings.ToLower(filepath.Ext(path))
	k, ok := kindExt[ext]
	if !ok {
		return 0, fmt.Errorf("%s: extension %q: %w", filepath.Base(path), ext, ErrUnsupportedKind)
	}
	return k, nil
}

// EntryName returns the archive entry name for an input file. Images are
// stored as .tex entries and material collections under their full
// extension; every other kind keeps its file name.
func (k Kind) EntryName(path string) string {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	switch k {
	case KindPNG, KindDDS:
		return stem + ".tex"
	case KindMaterialCollection:
		return stem + ".materialcollection"
	default:
		return base
	}
}
