// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package ovl

import (
	"fmt"
	"slices"
)

// unionAlignment is the alignment of a shared-name allocation run.
const unionAlignment = 64

// UnionPointers stages zero-terminated names for pointers whose regions
// may be shared. Pointers at the same address form one allocation and the
// last one given represents it. Allocations are written in ascending
// address order with no padding, except the last, which is padded so the
// whole run ends on a 64-byte boundary.
func (p *Patch) UnionPointers(pointers []*Pointer, names []string) error {
	if len(pointers) != len(names) {
		return fmt.Errorf("union %d pointers with %d names: %w", len(pointers), len(names), ErrShapeMismatch)
	}
	if len(pointers) == 0 {
		return nil
	}

	type allocation struct {
		ptr  *Pointer
		data []byte
	}
	byAddress := make(map[Address]allocation, len(pointers))
	for i, ptr := range pointers {
		data := make([]byte, len(names[i])+1)
		copy(data, names[i])
		byAddress[ptr.Address] = allocation{ptr: ptr, data: data}
	}

	addresses := make([]Address, 0, len(byAddress))
	for addr := range byAddress {
		addresses = append(addresses, addr)
	}
	slices.SortFunc(addresses, Address.Compare)

	total := 0
	for i, addr := range addresses {
		a := byAddress[addr]
		total += len(a.data)
		var padding []byte
		if i == len(addresses)-1 {
			padding = Padding(total, unionAlignment)
		}
		p.stagePointer(a.ptr, a.data, padding, true)
	}
	return nil
}
