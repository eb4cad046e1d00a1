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
	"fmt"

	"github.com/pagewalk/mlpt/pkg/hostarch"
)

// validBit marks an entry as pointing to an allocated child.
const validBit PTE = 1 << 0

// PTE is a stored page table entry: the page-aligned address of a child
// table (non-leaf levels) or data page (leaf level) with validBit set. The
// zero PTE is the only invalid entry.
type PTE uint64

// PTEs is a single table node.
type PTEs []PTE

// Entry is the decoded form of a PTE.
type Entry struct {
	Valid   bool          `json:"valid" yaml:"valid"`
	Address hostarch.Addr `json:"address" yaml:"address"`
}

// Valid returns true iff this entry points to an allocated child.
func (p *PTE) Valid() bool {
	return *p&validBit != 0
}

// Address returns the child address. It is meaningful only if Valid.
func (p *PTE) Address() hostarch.Addr {
	return hostarch.Addr(*p &^ validBit)
}

// Set points the entry at the child at addr and marks it valid.
//
// addr must be at least two-byte aligned; every page is.
func (p *PTE) Set(addr hostarch.Addr) {
	if PTE(addr)&validBit != 0 {
		panic(fmt.Sprintf("child address %v is not aligned", addr))
	}
	*p = PTE(addr) | validBit
}

// Entry decodes the entry.
func (p *PTE) Entry() Entry {
	if !p.Valid() {
		return Entry{}
	}
	return Entry{Valid: true, Address: p.Address()}
}
