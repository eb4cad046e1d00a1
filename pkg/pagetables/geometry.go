// Copyright 2026 The gVisor Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package pagetables

import (
	"errors"
	"fmt"

	"github.com/pagewalk/mlpt/pkg/hostarch"
)

const (
	// pteShift is the binary log of the size of a stored PTE.
	pteShift = 3

	// maxPageShift bounds a single page so that it can be allocated.
	maxPageShift = 30

	// addressBits is the width of hostarch.Addr.
	addressBits = 64
)

// ErrInvalidGeometry is returned by NewGeometry for unusable configurations.
var ErrInvalidGeometry = errors.New("invalid page table geometry")

// Geometry describes the shape of a page table hierarchy: the page size, the
// size of one entry and the number of levels.
//
// Each table occupies exactly one page, so a table holds
// 1<<(pageShift-entryShift) entries and every level consumes IndexBits bits
// of the virtual address. Level 0 is the root and selects the most
// significant index field; level Levels()-1 is the leaf.
type Geometry struct {
	pageShift  uint
	entryShift uint
	levels     int
}

// DefaultGeometry is 4K pages with 8-byte entries and four levels, i.e. a
// 48-bit virtual address space.
var DefaultGeometry = MustNewGeometry(12, 3, 4)

// NewGeometry validates and returns a Geometry.
func NewGeometry(pageShift, entryShift uint, levels int) (Geometry, error) {
	switch {
	case levels < 1:
		return Geometry{}, fmt.Errorf("%w: levels must be at least 1, got %d", ErrInvalidGeometry, levels)
	case entryShift < pteShift:
		return Geometry{}, fmt.Errorf("%w: entry size log2 must be at least %d to hold a 64-bit entry, got %d", ErrInvalidGeometry, pteShift, entryShift)
	case pageShift <= entryShift:
		return Geometry{}, fmt.Errorf("%w: page offset bits (%d) must exceed entry size log2 (%d)", ErrInvalidGeometry, pageShift, entryShift)
	case pageShift > maxPageShift:
		return Geometry{}, fmt.Errorf("%w: page offset bits must be at most %d, got %d", ErrInvalidGeometry, maxPageShift, pageShift)
	}
	indexBits := pageShift - entryShift
	if uint64(indexBits)*uint64(levels) > uint64(addressBits-pageShift) {
		return Geometry{}, fmt.Errorf("%w: %d levels of %d index bits plus %d offset bits exceed %d address bits", ErrInvalidGeometry, levels, indexBits, pageShift, addressBits)
	}
	return Geometry{pageShift: pageShift, entryShift: entryShift, levels: levels}, nil
}

// MustNewGeometry calls NewGeometry and panics on error.
func MustNewGeometry(pageShift, entryShift uint, levels int) Geometry {
	g, err := NewGeometry(pageShift, entryShift, levels)
	if err != nil {
		panic(err)
	}
	return g
}

// PageShift returns the number of page offset bits.
func (g Geometry) PageShift() uint { return g.pageShift }

// EntryShift returns the binary log of the size of one entry.
func (g Geometry) EntryShift() uint { return g.entryShift }

// Levels returns the number of levels, root through leaf.
func (g Geometry) Levels() int { return g.levels }

// PageSize returns the size of a page and of a table, in bytes.
func (g Geometry) PageSize() uint64 { return 1 << g.pageShift }

// IndexBits returns the number of virtual address bits consumed per level.
func (g Geometry) IndexBits() uint { return g.pageShift - g.entryShift }

// EntriesPerTable returns the number of entries in one table.
func (g Geometry) EntriesPerTable() int { return 1 << g.IndexBits() }

// VirtualBits returns the number of significant virtual address bits. Bits
// above are ignored by translation.
func (g Geometry) VirtualBits() uint {
	return g.pageShift + g.IndexBits()*uint(g.levels)
}

// Shift returns the position of the lowest bit of the index field for the
// given level.
func (g Geometry) Shift(level int) uint {
	if level < 0 || level >= g.levels {
		panic(fmt.Sprintf("level %d out of range [0, %d)", level, g.levels))
	}
	return g.pageShift + g.IndexBits()*uint(g.levels-level-1)
}

// Index returns the entry index that va selects in the table at level.
//
// Map and Translate both derive every index through this function.
func (g Geometry) Index(va hostarch.Addr, level int) int {
	return int((va >> g.Shift(level)) & hostarch.Addr(g.EntriesPerTable()-1))
}

// PageOffset returns the offset of va within its page.
func (g Geometry) PageOffset(va hostarch.Addr) hostarch.Addr {
	return va.PageOffset(g.pageShift)
}

// PageBase returns va rounded down to its page.
func (g Geometry) PageBase(va hostarch.Addr) hostarch.Addr {
	return va.RoundDown(g.pageShift)
}

// String implements fmt.Stringer.String.
func (g Geometry) String() string {
	return fmt.Sprintf("%d levels x %d index bits + %d offset bits (%d-byte pages, %d entries per table, %d-bit virtual addresses)",
		g.levels, g.IndexBits(), g.pageShift, g.PageSize(), g.EntriesPerTable(), g.VirtualBits())
}
