// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package inject

import (
	"bytes"
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ovl "github.com/suprsokr/go-ovl"
)

func TestKindFromPath(t *testing.T) {
	tests := []struct {
		path  string
		kind  Kind
		entry string
	}{
		{"a/Rock.PNG", KindPNG, "Rock.tex"},
		{"rock.dds", KindDDS, "rock.tex"},
		{"horse.mdl2", KindModel, "horse.mdl2"},
		{"horse.fgm", KindMaterial, "horse.fgm"},
		{"cliffs.matcol", KindMaterialCollection, "cliffs.materialcollection"},
		{"readme.TXT", KindText, "readme.TXT"},
		{"park.xmlconfig", KindXMLConfig, "park.xmlconfig"},
		{"names.fdb", KindDatabase, "names.fdb"},
		{"logic.lua", KindLua, "logic.lua"},
		{"pack.assetpkg", KindAssetPackage, "pack.assetpkg"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			k, err := KindFromPath(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, k)
			assert.Equal(t, tt.entry, k.EntryName(tt.path))
		})
	}

	_, err := KindFromPath("sound.wem")
	assert.ErrorIs(t, err, ErrUnsupportedKind)
	_, err = KindFromPath("noext")
	assert.ErrorIs(t, err, ErrUnsupportedKind)
	assert.Equal(t, "Kind(99)", Kind(99).String())
}

func TestInjectText(t *testing.T) {
	f := newFixture(t)
	e := f.entry("readme.txt")
	e.Pointers = []*ovl.Pointer{f.pointer("old text", 3)}

	res := f.inject(f.session(), f.file("readme.txt", []byte("hello")))
	require.NoError(t, res.Err)
	assert.True(t, res.OK())
	assert.Equal(t, "readme.txt", res.Entry)

	want := []byte{5, 0, 0, 0, 'h', 'e', 'l', 'l', 'o'}
	for _, c := range e.Pointers[0].Copies() {
		assert.Equal(t, want, c.Data())
		assert.Equal(t, make([]byte, 7), c.Padding())
	}
	assert.EqualValues(t, len(want), e.Pointers[0].DataSize())
}

func TestInjectXMLConfigAndAssetPackage(t *testing.T) {
	f := newFixture(t)
	xml := f.entry("park.xmlconfig")
	xml.Fragments = []*ovl.Fragment{f.fragment("<old/>")}
	pkg := f.entry("pack.assetpkg")
	pkg.Fragments = []*ovl.Fragment{f.fragment("old")}

	s := f.session()
	require.NoError(t, f.inject(s, f.file("park.xmlconfig", []byte("<park/>"))).Err)
	require.NoError(t, f.inject(s, f.file("pack.assetpkg", []byte("Content0"))).Err)

	ptr := xml.Fragments[0].Pointers[1]
	for _, c := range ptr.Copies() {
		assert.Equal(t, []byte("<park/>\x00"), c.Data())
		assert.Empty(t, c.Padding())
	}
	ptr = pkg.Fragments[0].Pointers[1]
	for _, c := range ptr.Copies() {
		assert.Equal(t, []byte("Content0\x00"), c.Data())
		assert.Len(t, c.Padding(), 55)
	}
	assert.Equal(t, []byte("info"), xml.Fragments[0].Pointers[0].Data(), "info pointer must not change")
}

func TestInjectDatabase(t *testing.T) {
	f := newFixture(t)
	e := f.entry("names.fdb")
	e.Pointers = []*ovl.Pointer{f.pointer(string(make([]byte, 32)), 2)}
	e.Data = ovl.NewDataEntry([]byte("names"), []byte("old database"))

	raw := bytes.Repeat([]byte{0x5A}, 1000)
	res := f.inject(f.session(), f.file("names.fdb", raw))
	require.NoError(t, res.Err)

	want := binary.LittleEndian.AppendUint32(nil, 1000)
	want = append(want, make([]byte, 28)...)
	assert.Equal(t, [][]byte{want, want}, allCopies(e.Pointers[0]))
	assert.Equal(t, []byte("names"), e.Data.Buffers[0].Data())
	assert.Equal(t, raw, e.Data.Buffers[1].Data())
}

func TestInjectDatabaseNeedsTwoBuffers(t *testing.T) {
	f := newFixture(t)
	e := f.entry("names.fdb")
	e.Pointers = []*ovl.Pointer{f.pointer("header", 1)}
	e.Data = ovl.NewDataEntry([]byte("only"))

	res := f.inject(f.session(), f.file("names.fdb", []byte("db")))
	require.ErrorIs(t, res.Err, ovl.ErrShapeMismatch)
	assert.Equal(t, []byte("header"), e.Pointers[0].Data())
}

func TestInjectLua(t *testing.T) {
	f := newFixture(t)
	e := f.entry("logic.lua")
	e.Pointers = []*ovl.Pointer{f.pointer(string(make([]byte, 16)), 2)}
	e.Fragments = []*ovl.Fragment{f.fragment("12345"), f.fragment("abc")}
	e.Data = ovl.NewDataEntry([]byte("old bytecode"))

	var meta []byte
	meta = append(meta, bytes.Repeat([]byte{1}, 16)...)
	meta = append(meta, bytes.Repeat([]byte{9}, 8)...)
	meta = append(meta, []byte("frag0")...)
	meta = append(meta, bytes.Repeat([]byte{9}, 24)...)
	meta = append(meta, []byte("FR1")...)

	path := f.file("logic.lua", []byte("new bytecode"))
	f.file("logic.luameta", meta)

	res := f.inject(f.session(), path)
	require.NoError(t, res.Err)

	assert.Equal(t, []byte("new bytecode"), e.Data.Buffers[0].Data())
	assert.Equal(t, bytes.Repeat([]byte{1}, 16), e.Pointers[0].Data())
	assert.Equal(t, [][]byte{[]byte("frag0"), []byte("frag0")}, allCopies(e.Fragments[0].Pointers[1]))
	assert.Equal(t, [][]byte{[]byte("FR1"), []byte("FR1")}, allCopies(e.Fragments[1].Pointers[1]))
}

func TestInjectLuaShortMetadata(t *testing.T) {
	f := newFixture(t)
	e := f.entry("logic.lua")
	e.Pointers = []*ovl.Pointer{f.pointer("string", 1)}
	e.Fragments = []*ovl.Fragment{f.fragment("12345"), f.fragment("abc")}
	e.Data = ovl.NewDataEntry([]byte("old bytecode"))

	path := f.file("logic.lua", []byte("new bytecode"))
	f.file("logic.luameta", make([]byte, 20))

	res := f.inject(f.session(), path)
	require.ErrorIs(t, res.Err, ovl.ErrSizeMismatch)
	var mismatch *ovl.SizeMismatchError
	require.ErrorAs(t, res.Err, &mismatch)
	assert.Equal(t, 16+8+5+24+3, mismatch.Declared)
	assert.Equal(t, []byte("old bytecode"), e.Data.Buffers[0].Data(), "failed file must leave the entry unchanged")
}

func TestInjectFileErrors(t *testing.T) {
	f := newFixture(t)
	s := f.session()

	res := f.inject(s, f.file("missing.txt", []byte("x")))
	assert.ErrorIs(t, res.Err, ovl.ErrNotFound)
	assert.Equal(t, KindText, res.Kind)

	res = f.inject(s, f.file("sound.wem", []byte("x")))
	assert.ErrorIs(t, res.Err, ErrUnsupportedKind)

	f.entry("shape.txt")
	res = f.inject(s, f.file("shape.txt", []byte("x")))
	assert.ErrorIs(t, res.Err, ovl.ErrShapeMismatch)

	for _, name := range []string{"horse.mdl2", "horse.fgm", "cliffs.matcol", "rock.png"} {
		k, err := KindFromPath(name)
		require.NoError(t, err)
		f.entry(k.EntryName(name))
		res = f.inject(s, f.file(name, []byte("x")))
		assert.ErrorIs(t, res.Err, ErrNoCodec, name)
	}
}

func TestInjectBatchContinuesAfterFailure(t *testing.T) {
	f := newFixture(t)
	tex := f.texEntry("rock.tex", 4096, 5120)
	txt := f.entry("readme.txt")
	txt.Pointers = []*ovl.Pointer{f.pointer("old", 1)}

	// 128x128 against a 64x64 archive texture.
	bad := filepath.Join(f.dir, "rock.dds")
	ddsFile(t, bad, 2*texSize)
	good := f.file("readme.txt", []byte("hello"))

	report := f.session().Inject(context.Background(), []string{bad, good})
	require.Len(t, report.Results, 2)
	assert.ErrorIs(t, report.Results[0].Err, ovl.ErrSizeMismatch)
	assert.NoError(t, report.Results[1].Err)
	assert.Len(t, report.Failed(), 1)
	assert.ErrorContains(t, report.Err(), "rock.dds")

	assert.Equal(t, bytes.Repeat([]byte{0xEE}, 4096), tex.Data.Buffers[0].Data())
	assert.Equal(t, []byte("\x05\x00\x00\x00hello"), txt.Pointers[0].Data())
}

func TestInjectSkipsDuplicateEntries(t *testing.T) {
	f := newFixture(t)
	e := f.entry("readme.txt")
	e.Pointers = []*ovl.Pointer{f.pointer("old", 1)}

	first := f.file("readme.txt", []byte("first"))
	require.NoError(t, os.MkdirAll(filepath.Join(f.dir, "other"), 0755))
	second := f.file(filepath.Join("other", "README.txt"), []byte("second"))

	report := f.session().Inject(context.Background(), []string{first, second})
	assert.True(t, report.Results[0].OK())
	assert.True(t, report.Results[1].Skipped)
	assert.NoError(t, report.Err())
	assert.Equal(t, []byte("\x05\x00\x00\x00first"), e.Pointers[0].Data())
}

func TestInjectStopsOnCancel(t *testing.T) {
	f := newFixture(t)
	e := f.entry("readme.txt")
	e.Pointers = []*ovl.Pointer{f.pointer("old", 1)}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report := f.session().Inject(ctx, []string{f.file("readme.txt", []byte("new"))})
	require.Len(t, report.Results, 1)
	assert.ErrorIs(t, report.Results[0].Err, context.Canceled)
	assert.Equal(t, []byte("old"), e.Pointers[0].Data())
}

func TestSessionWorkDir(t *testing.T) {
	f := newFixture(t)
	s := f.session()
	dir := s.WorkDir()
	assert.DirExists(t, dir)
	assert.NotEqual(t, [16]byte{}, [16]byte(s.ID()))

	require.NoError(t, s.Close())
	assert.NoDirExists(t, dir)
	require.NoError(t, s.Close())

	_, err := NewSession(Options{})
	assert.Error(t, err)
}
