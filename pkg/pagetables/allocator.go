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

	"github.com/pagewalk/mlpt/pkg/hostarch"
)

// ErrNoMemory is returned by allocators that cannot supply another page.
var ErrNoMemory = errors.New("out of page frames")

// Allocator is used to allocate and map table nodes and data pages.
//
// Every page returned is zero-filled and aligned to the geometry's page size.
// Pages are never freed.
type Allocator interface {
	// NewPTEs returns a new, zeroed table node and its physical address.
	NewPTEs() (PTEs, hostarch.Addr, error)

	// NewPage returns the physical address of a new, zeroed data page.
	NewPage() (hostarch.Addr, error)

	// LookupPTEs looks up the table node at a physical address previously
	// returned by NewPTEs.
	LookupPTEs(physical hostarch.Addr) PTEs
}

// FrameKind is the use of an allocated page frame.
type FrameKind int

const (
	// TableFrame holds a table node.
	TableFrame FrameKind = iota

	// DataFrame is a leaf data page.
	DataFrame
)

// String implements fmt.Stringer.String.
func (k FrameKind) String() string {
	switch k {
	case TableFrame:
		return "table"
	case DataFrame:
		return "data"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.MarshalText.
func (k FrameKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Frame describes an allocated page frame.
type Frame struct {
	Address hostarch.Addr `json:"address" yaml:"address"`
	Kind    FrameKind     `json:"kind" yaml:"kind"`
}
