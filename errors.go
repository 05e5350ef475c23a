// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package ovl

import (
	"errors"
	"fmt"
)

var (
	// ErrShapeMismatch is returned when an entry's fragment or pointer
	// layout does not match any known variant for its record type.
	ErrShapeMismatch = errors.New("record shape mismatch")

	// ErrSizeMismatch is returned when decoded or repacked sizes disagree
	// with the sizes declared by the archive.
	ErrSizeMismatch = errors.New("size mismatch")

	// ErrNotFound is returned when a named entry is absent from the archive.
	ErrNotFound = errors.New("entry not found")
)

// SizeMismatchError reports a declared size and the size that was actually
// computed for one input file. It matches ErrSizeMismatch with errors.Is.
type SizeMismatchError struct {
	File     string
	What     string
	Declared int
	Computed int
}

func (e *SizeMismatchError) Error() string {
	return fmt.Sprintf("%s: %s mismatch: archive declares %d, got %d", e.File, e.What, e.Declared, e.Computed)
}

// Is reports whether target is ErrSizeMismatch.
func (e *SizeMismatchError) Is(target error) bool {
	return target == ErrSizeMismatch
}

// Underflow records a buffer that received fewer bytes than its declared
// size. The missing tail keeps the buffer's previous bytes.
type Underflow struct {
	Buffer   int
	Declared int
	Written  int
}

// Missing returns the number of bytes that were not overwritten.
func (u Underflow) Missing() int {
	return u.Declared - u.Written
}

func (u Underflow) String() string {
	return fmt.Sprintf("buffer %d: last %d of %d bytes not overwritten", u.Buffer, u.Missing(), u.Declared)
}
