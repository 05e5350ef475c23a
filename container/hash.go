// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package container

import (
	"fmt"
	"strings"
)

// Hash types for the name hash
const (
	hashTypeTableOffset = 0
	hashTypeNameA       = 1
	hashTypeNameB       = 2
)

const (
	slotEmpty   = 0xFFFFFFFF
	minIndexLen = 16
)

// cryptTable is the lookup table behind hashString
var cryptTable [0x300]uint32

func init() {
	seed := uint32(0x00100001)

	for index1 := 0; index1 < 0x100; index1++ {
		index2 := index1
		for i := 0; i < 3; i++ {
			seed = (seed*125 + 3) % 0x2AAAAB
			temp1 := (seed & 0xFFFF) << 0x10

			seed = (seed*125 + 3) % 0x2AAAAB
			temp2 := seed & 0xFFFF

			cryptTable[index2] = temp1 | temp2
			index2 += 0x100
		}
	}
}

// normalizeName is the form entry names are hashed and compared in:
// lower case, forward slashes, no empty path elements.
func normalizeName(name string) string {
	normalized := strings.ReplaceAll(name, "\\", "/")
	for strings.Contains(normalized, "//") {
		normalized = strings.ReplaceAll(normalized, "//", "/")
	}
	return strings.ToLower(normalized)
}

// hashString hashes an entry name. Names compare case-insensitively and
// both path separators hash the same.
func hashString(s string, hashType uint32) uint32 {
	seed1 := uint32(0x7FED7FED)
	seed2 := uint32(0xEEEEEEEE)

	for i := 0; i < len(s); i++ {
		ch := uint32(s[i])
		if ch >= 'a' && ch <= 'z' {
			ch -= 0x20
		}
		if ch == '/' {
			ch = '\\'
		}

		seed1 = cryptTable[hashType*0x100+ch] ^ (seed1 + seed2)
		seed2 = ch + seed1 + seed2 + (seed2 << 5) + 3
	}

	return seed1
}

// nameSlot is one slot of the open-addressed name index
type nameSlot struct {
	HashA uint32
	HashB uint32
	Entry uint32
}

// nameIndex maps entry names to entry positions.
type nameIndex []nameSlot

// newNameIndex returns an empty index sized for n entries.
func newNameIndex(n int) nameIndex {
	size := nextPowerOf2(uint32(float64(n) * 1.5))
	if size < minIndexLen {
		size = minIndexLen
	}
	idx := make(nameIndex, size)
	for i := range idx {
		idx[i] = nameSlot{HashA: slotEmpty, HashB: slotEmpty, Entry: slotEmpty}
	}
	return idx
}

// insert places name in the first free slot of its probe sequence.
func (idx nameIndex) insert(name string, entry uint32) error {
	size := uint32(len(idx))
	name = normalizeName(name)
	hashA := hashString(name, hashTypeNameA)
	hashB := hashString(name, hashTypeNameB)
	start := hashString(name, hashTypeTableOffset) % size

	for i := uint32(0); i < size; i++ {
		slot := &idx[(start+i)%size]
		if slot.Entry == slotEmpty {
			*slot = nameSlot{HashA: hashA, HashB: hashB, Entry: entry}
			return nil
		}
	}
	return fmt.Errorf("name index full (%d slots)", size)
}

// lookup calls match for every slot whose hashes equal name's, stopping
// at the first empty slot or when match reports true.
func (idx nameIndex) lookup(name string, match func(entry uint32) bool) (uint32, bool) {
	size := uint32(len(idx))
	if size == 0 {
		return 0, false
	}
	name = normalizeName(name)
	hashA := hashString(name, hashTypeNameA)
	hashB := hashString(name, hashTypeNameB)
	start := hashString(name, hashTypeTableOffset) % size

	for i := uint32(0); i < size; i++ {
		slot := idx[(start+i)%size]
		if slot.Entry == slotEmpty {
			return 0, false
		}
		if slot.HashA == hashA && slot.HashB == hashB && match(slot.Entry) {
			return slot.Entry, true
		}
	}
	return 0, false
}

// nextPowerOf2 returns the next power of 2 >= n
func nextPowerOf2(n uint32) uint32 {
	if n == 0 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	return n + 1
}
