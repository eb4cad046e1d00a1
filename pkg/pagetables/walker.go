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
	"github.com/pagewalk/mlpt/pkg/hostarch"
)

// visitor is called for each entry on the path of a virtual address.
type visitor interface {
	// requiresAlloc returns true if missing tables and pages should be
	// allocated before the entry is visited.
	requiresAlloc() bool

	// visit is called for the entry at level. If it returns false, the walk
	// is aborted.
	visit(level int, entry *PTE) bool
}

// walker walks the path of a single virtual address.
type walker struct {
	// pageTables are the tables to walk.
	pageTables *PageTables

	// visitor is the visitor.
	visitor visitor
}

// iterate walks from the root towards the leaf of va. The walk ends at the
// leaf level, at the first invalid entry, or when the visitor aborts it.
//
// An error is returned only if an allocation failed.
func (w *walker) iterate(va hostarch.Addr) error {
	p := w.pageTables
	if p.root == nil {
		if !w.visitor.requiresAlloc() {
			return nil
		}
		if err := p.allocRoot(); err != nil {
			return err
		}
	}

	table := p.root
	last := p.geom.levels - 1
	for level := 0; ; level++ {
		entry := &table[p.geom.Index(va, level)]
		if !entry.Valid() && w.visitor.requiresAlloc() {
			if err := p.allocEntry(va, level, entry); err != nil {
				return err
			}
		}
		if !w.visitor.visit(level, entry) {
			return nil
		}
		if level == last || !entry.Valid() {
			return nil
		}
		table = p.Allocator.LookupPTEs(entry.Address())
	}
}

// mapVisitor is used for Map.
type mapVisitor struct{}

// requiresAlloc implements visitor.requiresAlloc.
func (mapVisitor) requiresAlloc() bool { return true }

// visit implements visitor.visit.
func (mapVisitor) visit(int, *PTE) bool { return true }

// lookupVisitor is used for Translate.
type lookupVisitor struct {
	last     int
	found    bool
	physical hostarch.Addr
}

// requiresAlloc implements visitor.requiresAlloc.
func (*lookupVisitor) requiresAlloc() bool { return false }

// visit implements visitor.visit.
func (v *lookupVisitor) visit(level int, entry *PTE) bool {
	if !entry.Valid() {
		return false
	}
	if level == v.last {
		v.found = true
		v.physical = entry.Address()
	}
	return true
}

// pathVisitor is used for Path.
type pathVisitor struct {
	entries []Entry
}

// requiresAlloc implements visitor.requiresAlloc.
func (*pathVisitor) requiresAlloc() bool { return false }

// visit implements visitor.visit.
func (v *pathVisitor) visit(_ int, entry *PTE) bool {
	v.entries = append(v.entries, entry.Entry())
	return entry.Valid()
}
