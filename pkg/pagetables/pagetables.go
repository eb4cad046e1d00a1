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

// Package pagetables simulates a multi-level hierarchical page table.
//
// A PageTables maps virtual pages to physical pages through a tree of table
// nodes, each one page in size. Map allocates whatever part of the path to a
// virtual page is missing, and Translate walks the same path read-only.
//
// A PageTables is not safe for concurrent use. Independent instances share
// nothing but the package metrics and may be used from separate goroutines.
package pagetables

import (
	"errors"
	"fmt"

	"github.com/pagewalk/mlpt/pkg/hostarch"
	"github.com/pagewalk/mlpt/pkg/log"
	"github.com/pagewalk/mlpt/pkg/metric"
)

// ErrAllocationFailed is returned by Map when the allocator could not supply
// a table node or data page.
var ErrAllocationFailed = errors.New("page allocation failed")

var (
	tablesAllocated    = metric.MustCreateNewUint64Metric("/pagetables/tables_allocated", "Number of page table nodes allocated.")
	pagesAllocated     = metric.MustCreateNewUint64Metric("/pagetables/pages_allocated", "Number of leaf data pages allocated.")
	allocationFailures = metric.MustCreateNewUint64Metric("/pagetables/allocation_failures", "Number of failed table or page allocations.")
	translations       = metric.MustCreateNewUint64Metric("/pagetables/translations", "Number of virtual address translations.", metric.NewField("result", "hit", "miss"))
)

// Stats are the counters of a single PageTables.
type Stats struct {
	// Tables is the number of table nodes, including the root.
	Tables uint64 `json:"tables" yaml:"tables"`

	// Pages is the number of leaf data pages.
	Pages uint64 `json:"pages" yaml:"pages"`

	// Translations is the number of Translate calls.
	Translations uint64 `json:"translations" yaml:"translations"`

	// Misses is the number of Translate calls that found no mapping.
	Misses uint64 `json:"misses" yaml:"misses"`
}

// PageTables is a page table hierarchy: a root register and, transitively,
// every table node it roots.
type PageTables struct {
	// Allocator is used to allocate nodes and pages.
	Allocator Allocator

	geom Geometry

	// root is nil until the first Map.
	root         PTEs
	rootPhysical hostarch.Addr

	stats Stats
}

// New returns new, empty PageTables. No memory is allocated until the first
// call to Map.
func New(g Geometry, a Allocator) *PageTables {
	return &PageTables{Allocator: a, geom: g}
}

// Geometry returns the geometry of p.
func (p *PageTables) Geometry() Geometry {
	return p.geom
}

// Root returns the physical address of the root table. ok is false if no
// mapping was ever established.
func (p *PageTables) Root() (physical hostarch.Addr, ok bool) {
	return p.rootPhysical, p.root != nil
}

// Stats returns the counters of p.
func (p *PageTables) Stats() Stats {
	return p.stats
}

// Map ensures that va is mapped, allocating the root, any missing
// intermediate tables and the leaf data page.
//
// Map is idempotent: tables and pages already on the path of va are reused.
// On failure the returned error wraps ErrAllocationFailed and the allocator's
// error; tables allocated before the failure remain installed and no entry
// refers to an unallocated child.
func (p *PageTables) Map(va hostarch.Addr) error {
	w := walker{pageTables: p, visitor: mapVisitor{}}
	return w.iterate(va)
}

// Translate returns the physical address va maps to. ok is false if any
// level of va's path is not mapped.
func (p *PageTables) Translate(va hostarch.Addr) (physical hostarch.Addr, ok bool) {
	v := lookupVisitor{last: p.geom.levels - 1}
	w := walker{pageTables: p, visitor: &v}
	// A read-only walk never allocates and so never fails.
	_ = w.iterate(va)

	p.stats.Translations++
	if !v.found {
		p.stats.Misses++
		translations.Increment("miss")
		return 0, false
	}
	translations.Increment("hit")
	return p.geom.PageBase(v.physical) + p.geom.PageOffset(va), true
}

// Path returns the entries visited while translating va, from the root
// down. The walk stops after the first invalid entry, which is included. The
// result is empty if the root is not allocated.
func (p *PageTables) Path(va hostarch.Addr) []Entry {
	v := pathVisitor{}
	w := walker{pageTables: p, visitor: &v}
	_ = w.iterate(va)
	return v.entries
}

// allocRoot installs a new root table.
func (p *PageTables) allocRoot() error {
	ptes, physical, err := p.Allocator.NewPTEs()
	if err != nil {
		allocationFailures.Increment()
		return fmt.Errorf("%w: root table: %w", ErrAllocationFailed, err)
	}
	p.root, p.rootPhysical = ptes, physical
	p.stats.Tables++
	tablesAllocated.Increment()
	log.Debugf("Installed root table at %v", physical)
	return nil
}

// allocEntry allocates the child of an invalid entry at level and installs
// it. Leaf entries get a data page and all others a table node.
func (p *PageTables) allocEntry(va hostarch.Addr, level int, entry *PTE) error {
	var (
		physical hostarch.Addr
		err      error
	)
	if level == p.geom.levels-1 {
		physical, err = p.Allocator.NewPage()
	} else {
		_, physical, err = p.Allocator.NewPTEs()
	}
	if err != nil {
		allocationFailures.Increment()
		return fmt.Errorf("%w: level %d for %v: %w", ErrAllocationFailed, level, va, err)
	}
	if !physical.IsPageAligned(p.geom.pageShift) {
		panic(fmt.Sprintf("allocator returned unaligned page %v", physical))
	}

	entry.Set(physical)
	if level == p.geom.levels-1 {
		p.stats.Pages++
		pagesAllocated.Increment()
	} else {
		p.stats.Tables++
		tablesAllocated.Increment()
	}
	return nil
}
