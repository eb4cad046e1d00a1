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

//go:build unix

package pagetables

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/pagewalk/mlpt/pkg/hostarch"
	"github.com/pagewalk/mlpt/pkg/log"
	"golang.org/x/sys/unix"
)

// MmapAllocator allocates pages from anonymous host memory.
//
// Physical addresses are the host addresses of the backing memory, so table
// entries hold real pointers. Pages larger than the host page are aligned by
// over-allocating the mapping.
type MmapAllocator struct {
	geom      Geometry
	maxFrames int
	frames    int
	mappings  [][]byte
	tables    map[hostarch.Addr]PTEs
}

// NewMmapAllocator returns an allocator for the given geometry. maxFrames
// limits the number of frames; zero means no limit.
func NewMmapAllocator(g Geometry, maxFrames int) (*MmapAllocator, error) {
	return &MmapAllocator{
		geom:      g,
		maxFrames: maxFrames,
		tables:    make(map[hostarch.Addr]PTEs),
	}, nil
}

// alloc maps a new page-aligned, zeroed page.
func (m *MmapAllocator) alloc() ([]byte, hostarch.Addr, error) {
	if m.maxFrames > 0 && m.frames >= m.maxFrames {
		return nil, 0, fmt.Errorf("%w: limit of %d frames reached", ErrNoMemory, m.maxFrames)
	}
	size := int(m.geom.PageSize())
	length := size
	if host := unix.Getpagesize(); size > host {
		length += size - host
	}
	mem, err := unix.Mmap(-1, 0, length, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: mmap of %d bytes: %v", ErrNoMemory, length, err)
	}
	base := hostarch.Addr(uintptr(unsafe.Pointer(&mem[0])))
	aligned, _ := base.RoundUp(m.geom.pageShift)
	off := int(aligned - base)

	m.mappings = append(m.mappings, mem)
	m.frames++
	return mem[off : off+size : off+size], aligned, nil
}

// NewPTEs implements Allocator.NewPTEs.
func (m *MmapAllocator) NewPTEs() (PTEs, hostarch.Addr, error) {
	page, addr, err := m.alloc()
	if err != nil {
		return nil, 0, err
	}
	ptes := PTEs(unsafe.Slice((*PTE)(unsafe.Pointer(&page[0])), m.geom.EntriesPerTable()))
	m.tables[addr] = ptes
	log.Debugf("Mapped table node at %v", addr)
	return ptes, addr, nil
}

// NewPage implements Allocator.NewPage.
func (m *MmapAllocator) NewPage() (hostarch.Addr, error) {
	_, addr, err := m.alloc()
	if err != nil {
		return 0, err
	}
	log.Debugf("Mapped data page at %v", addr)
	return addr, nil
}

// LookupPTEs implements Allocator.LookupPTEs.
func (m *MmapAllocator) LookupPTEs(physical hostarch.Addr) PTEs {
	ptes, ok := m.tables[physical]
	if !ok {
		panic(fmt.Sprintf("no table node at physical address %v", physical))
	}
	return ptes
}

// Len returns the number of allocated frames.
func (m *MmapAllocator) Len() int {
	return m.frames
}

// Close unmaps all memory. Tables built on this allocator must not be used
// afterwards.
func (m *MmapAllocator) Close() error {
	var errs []error
	for _, mem := range m.mappings {
		if err := unix.Munmap(mem); err != nil {
			errs = append(errs, err)
		}
	}
	m.mappings = nil
	m.tables = make(map[hostarch.Addr]PTEs)
	return errors.Join(errs...)
}
