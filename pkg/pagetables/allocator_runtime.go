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

	"github.com/google/btree"
	"github.com/pagewalk/mlpt/pkg/hostarch"
	"github.com/pagewalk/mlpt/pkg/log"
)

// frame is an entry in the RuntimeAllocator registry.
type frame struct {
	Frame
	ptes PTEs
}

func frameLess(a, b *frame) bool {
	return a.Address < b.Address
}

// RuntimeAllocatorOpts configures a RuntimeAllocator.
type RuntimeAllocatorOpts struct {
	// BaseFrame is the frame number of the first allocation. Zero means 1,
	// so that physical address 0 is never handed out.
	BaseFrame uint64

	// MaxFrames limits the number of frames. Zero means no limit.
	MaxFrames int
}

// RuntimeAllocator simulates physical memory on the Go heap.
//
// Frames are handed out at increasing physical addresses starting at
// BaseFrame. Only table nodes have backing storage; the contents of data
// pages are not modeled.
type RuntimeAllocator struct {
	geom   Geometry
	opts   RuntimeAllocatorOpts
	next   uint64
	frames *btree.BTreeG[*frame]
}

// NewRuntimeAllocator returns an allocator for the given geometry.
func NewRuntimeAllocator(g Geometry, opts RuntimeAllocatorOpts) *RuntimeAllocator {
	if opts.BaseFrame == 0 {
		opts.BaseFrame = 1
	}
	return &RuntimeAllocator{
		geom:   g,
		opts:   opts,
		next:   opts.BaseFrame,
		frames: btree.NewG(16, frameLess),
	}
}

func (r *RuntimeAllocator) alloc(kind FrameKind) (*frame, error) {
	if r.opts.MaxFrames > 0 && r.frames.Len() >= r.opts.MaxFrames {
		return nil, fmt.Errorf("%w: limit of %d frames reached", ErrNoMemory, r.opts.MaxFrames)
	}
	if r.next > (^uint64(0))>>r.geom.pageShift {
		return nil, fmt.Errorf("%w: physical address space exhausted", ErrNoMemory)
	}
	f := &frame{Frame: Frame{Address: hostarch.Addr(r.next << r.geom.pageShift), Kind: kind}}
	r.next++
	if kind == TableFrame {
		f.ptes = make(PTEs, r.geom.EntriesPerTable())
	}
	r.frames.ReplaceOrInsert(f)
	if log.IsLogging(log.Debug) {
		log.Debugf("Allocated %v frame at %v", kind, f.Address)
	}
	return f, nil
}

// NewPTEs implements Allocator.NewPTEs.
func (r *RuntimeAllocator) NewPTEs() (PTEs, hostarch.Addr, error) {
	f, err := r.alloc(TableFrame)
	if err != nil {
		return nil, 0, err
	}
	return f.ptes, f.Address, nil
}

// NewPage implements Allocator.NewPage.
func (r *RuntimeAllocator) NewPage() (hostarch.Addr, error) {
	f, err := r.alloc(DataFrame)
	if err != nil {
		return 0, err
	}
	return f.Address, nil
}

// LookupPTEs implements Allocator.LookupPTEs.
func (r *RuntimeAllocator) LookupPTEs(physical hostarch.Addr) PTEs {
	f, ok := r.frames.Get(&frame{Frame: Frame{Address: physical}})
	if !ok || f.Kind != TableFrame {
		panic(fmt.Sprintf("no table node at physical address %v", physical))
	}
	return f.ptes
}

// FrameAt returns the frame containing the physical address pa.
func (r *RuntimeAllocator) FrameAt(pa hostarch.Addr) (Frame, bool) {
	var found *frame
	r.frames.DescendLessOrEqual(&frame{Frame: Frame{Address: pa}}, func(f *frame) bool {
		found = f
		return false
	})
	if found == nil || pa-found.Address >= hostarch.Addr(r.geom.PageSize()) {
		return Frame{}, false
	}
	return found.Frame, true
}

// Frames returns every allocated frame in ascending address order.
func (r *RuntimeAllocator) Frames() []Frame {
	frames := make([]Frame, 0, r.frames.Len())
	r.frames.Ascend(func(f *frame) bool {
		frames = append(frames, f.Frame)
		return true
	})
	return frames
}

// Len returns the number of allocated frames.
func (r *RuntimeAllocator) Len() int {
	return r.frames.Len()
}
