// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package container

import (
	"fmt"

	ovl "github.com/suprsokr/go-ovl"
)

// Chain is a prioritized list of archives, such as a base archive
// followed by its patch archives.
type Chain struct {
	archives []*Archive
	paths    []string
	entryMap map[string]int // normalized name -> archive index
}

// OpenChain opens archives in order of increasing priority. The last
// archive in the list has the highest priority.
func OpenChain(paths []string) (*Chain, error) {
	archives := make([]*Archive, 0, len(paths))
	for _, path := range paths {
		archive, err := Open(path)
		if err != nil {
			for _, opened := range archives {
				_ = opened.Close()
			}
			return nil, fmt.Errorf("open archive %s: %w", path, err)
		}
		archives = append(archives, archive)
	}

	chain := &Chain{archives: archives, paths: paths}
	chain.rebuildEntryMap()
	return chain, nil
}

// Close closes all archives in the chain.
func (c *Chain) Close() error {
	var firstErr error
	for _, archive := range c.archives {
		if err := archive.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Len returns the number of archives in the chain.
func (c *Chain) Len() int { return len(c.archives) }

// Entry returns the highest-priority entry named name.
func (c *Chain) Entry(name string) (*ovl.Entry, error) {
	i, ok := c.entryMap[normalizeName(name)]
	if !ok {
		return nil, fmt.Errorf("entry %q not found in chain: %w", name, ovl.ErrNotFound)
	}
	return c.archives[i].Entry(name)
}

// Source returns the path of the archive providing name.
func (c *Chain) Source(name string) (string, bool) {
	i, ok := c.entryMap[normalizeName(name)]
	if !ok {
		return "", false
	}
	return c.paths[i], true
}

// Names returns the effective entry names: every name of the
// highest-priority archive first, then names only lower archives provide.
func (c *Chain) Names() []string {
	seen := make(map[string]struct{})
	var result []string
	for i := len(c.archives) - 1; i >= 0; i-- {
		for _, e := range c.archives[i].Entries() {
			key := normalizeName(e.Name)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			result = append(result, e.Name)
		}
	}
	return result
}

// rebuildEntryMap processes archives from the highest priority down so
// that higher-priority archives override lower-priority ones.
func (c *Chain) rebuildEntryMap() {
	c.entryMap = make(map[string]int)
	for i := len(c.archives) - 1; i >= 0; i-- {
		for _, e := range c.archives[i].Entries() {
			key := normalizeName(e.Name)
			if _, exists := c.entryMap[key]; !exists {
				c.entryMap[key] = i
			}
		}
	}
}
