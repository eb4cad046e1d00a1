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

//go:build !unix

package pagetables

import (
	"errors"

	"github.com/pagewalk/mlpt/pkg/hostarch"
)

// MmapAllocator is not available on this platform.
type MmapAllocator struct{}

// NewMmapAllocator always fails on this platform.
func NewMmapAllocator(Geometry, int) (*MmapAllocator, error) {
	return nil, errors.New("mmap allocator is not supported on this platform")
}

// NewPTEs implements Allocator.NewPTEs.
func (*MmapAllocator) NewPTEs() (PTEs, hostarch.Addr, error) { return nil, 0, ErrNoMemory }

// NewPage implements Allocator.NewPage.
func (*MmapAllocator) NewPage() (hostarch.Addr, error) { return 0, ErrNoMemory }

// LookupPTEs implements Allocator.LookupPTEs.
func (*MmapAllocator) LookupPTEs(hostarch.Addr) PTEs { return nil }

// Len returns zero.
func (*MmapAllocator) Len() int { return 0 }

// Close is a no-op.
func (*MmapAllocator) Close() error { return nil }
