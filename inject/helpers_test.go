// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package inject

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	ovl "github.com/suprsokr/go-ovl"
	"github.com/suprsokr/go-ovl/container"
)

// fixture is an archive plus a directory for input files.
type fixture struct {
	t       *testing.T
	archive *container.Archive
	dir     string
	next    uint32
}

func newFixture(t *testing.T) *fixture {
	return &fixture{t: t, archive: container.New(), dir: t.TempDir()}
}

func (f *fixture) layout() *ovl.Layout { return f.archive.Layout() }

// pointer adds a pointer at a fresh address holding data in n placements.
func (f *fixture) pointer(data string, n int) *ovl.Pointer {
	copies := make([]ovl.Copy, n)
	for i := range copies {
		copies[i] = ovl.NewCopy([]byte(data), nil)
	}
	addr := ovl.Address{Offset: f.next}
	f.next += 0x100
	return f.layout().AddPointer(addr, uint32(len(data)), copies...)
}

// fragment returns a fragment of an info pointer and a payload pointer.
func (f *fixture) fragment(payload string) *ovl.Fragment {
	return ovl.NewFragment(f.pointer("info", 1), f.pointer(payload, 2))
}

func (f *fixture) entry(name string) *ovl.Entry {
	f.t.Helper()
	e := ovl.NewEntry(name, f.layout())
	require.NoError(f.t, f.archive.Add(e))
	return e
}

func (f *fixture) file(name string, data []byte) string {
	f.t.Helper()
	path := filepath.Join(f.dir, name)
	require.NoError(f.t, os.WriteFile(path, data, 0644))
	return path
}

func (f *fixture) session(mod ...func(*Options)) *Session {
	f.t.Helper()
	opts := Options{Archive: f.archive, WorkDir: f.t.TempDir(), Logger: zerolog.Nop()}
	for _, m := range mod {
		m(&opts)
	}
	s, err := NewSession(opts)
	require.NoError(f.t, err)
	f.t.Cleanup(func() { s.Close() })
	return s
}

func (f *fixture) inject(s *Session, path string) Result {
	return s.InjectFile(context.Background(), path)
}

func allCopies(p *ovl.Pointer) [][]byte {
	var out [][]byte
	for _, c := range p.Copies() {
		out = append(out, c.Data())
	}
	return out
}
