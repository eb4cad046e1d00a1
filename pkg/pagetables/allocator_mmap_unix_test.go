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
	"testing"

	"github.com/pagewalk/mlpt/pkg/hostarch"
)

func TestMmapAllocator(t *testing.T) {
	for _, g := range []Geometry{
		MustNewGeometry(12, 3, 2),
		MustNewGeometry(10, 3, 3),
		// Larger than the host page, so alignment needs over-allocation.
		MustNewGeometry(16, 4, 3),
	} {
		a, err := NewMmapAllocator(g, 0)
		if err != nil {
			t.Fatalf("NewMmapAllocator failed: %v", err)
		}
		pt := New(g, a)
		for _, va := range []hostarch.Addr{0x1000, 0x1234_5678, 0x7f_0000_0042} {
			if err := pt.Map(va); err != nil {
				t.Fatalf("%v: Map(%v) failed: %v", g, va, err)
			}
			pa, ok := pt.Translate(va)
			if !ok {
				t.Fatalf("%v: Translate(%v) unmapped", g, va)
			}
			if pa.PageOffset(g.PageShift()) != g.PageOffset(va) {
				t.Errorf("%v: Translate(%v) = %v has the wrong offset", g, va, pa)
			}
		}
		root, ok := pt.Root()
		if !ok || !root.IsPageAligned(g.PageShift()) {
			t.Errorf("%v: root %v, %t is not page aligned", g, root, ok)
		}
		for _, m := range pt.Mappings() {
			if !m.Physical.IsPageAligned(g.PageShift()) {
				t.Errorf("%v: page %v is not aligned", g, m.Physical)
			}
		}
		if err := a.Close(); err != nil {
			t.Errorf("Close failed: %v", err)
		}
	}
}

func TestMmapAllocatorLimit(t *testing.T) {
	g := MustNewGeometry(12, 3, 2)
	a, err := NewMmapAllocator(g, 2)
	if err != nil {
		t.Fatalf("NewMmapAllocator failed: %v", err)
	}
	defer a.Close()
	pt := New(g, a)
	if err := pt.Map(0x1000); !errors.Is(err, ErrAllocationFailed) || !errors.Is(err, ErrNoMemory) {
		t.Errorf("Map got err %v, want %v", err, ErrNoMemory)
	}
	if a.Len() != 2 {
		t.Errorf("allocated %d frames, want 2", a.Len())
	}
}
