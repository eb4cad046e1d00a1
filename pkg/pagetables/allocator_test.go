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
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pagewalk/mlpt/pkg/hostarch"
)

func TestRuntimeAllocatorBase(t *testing.T) {
	g := MustNewGeometry(12, 3, 2)
	a := NewRuntimeAllocator(g, RuntimeAllocatorOpts{BaseFrame: 0x100})
	ptes, addr, err := a.NewPTEs()
	if err != nil {
		t.Fatalf("NewPTEs failed: %v", err)
	}
	if addr != 0x100000 {
		t.Errorf("first frame at %v, want 0x100000", addr)
	}
	if len(ptes) != g.EntriesPerTable() {
		t.Errorf("table has %d entries, want %d", len(ptes), g.EntriesPerTable())
	}
	for i := range ptes {
		if ptes[i] != 0 {
			t.Fatalf("entry %d of a new table is %#x", i, uint64(ptes[i]))
		}
	}
	page, err := a.NewPage()
	if err != nil {
		t.Fatalf("NewPage failed: %v", err)
	}
	if page != 0x101000 {
		t.Errorf("second frame at %v, want 0x101000", page)
	}
}

func TestRuntimeAllocatorLimit(t *testing.T) {
	a := NewRuntimeAllocator(DefaultGeometry, RuntimeAllocatorOpts{MaxFrames: 2})
	if _, _, err := a.NewPTEs(); err != nil {
		t.Fatalf("NewPTEs failed: %v", err)
	}
	if _, err := a.NewPage(); err != nil {
		t.Fatalf("NewPage failed: %v", err)
	}
	if _, err := a.NewPage(); !errors.Is(err, ErrNoMemory) {
		t.Errorf("NewPage beyond the limit got %v, want %v", err, ErrNoMemory)
	}
	if _, _, err := a.NewPTEs(); !errors.Is(err, ErrNoMemory) {
		t.Errorf("NewPTEs beyond the limit got %v, want %v", err, ErrNoMemory)
	}
}

func TestRuntimeAllocatorExhausted(t *testing.T) {
	g := MustNewGeometry(12, 3, 1)
	a := NewRuntimeAllocator(g, RuntimeAllocatorOpts{BaseFrame: ^uint64(0) >> 12})
	if _, err := a.NewPage(); err != nil {
		t.Fatalf("last frame: %v", err)
	}
	if _, err := a.NewPage(); !errors.Is(err, ErrNoMemory) {
		t.Errorf("NewPage past the end got %v, want %v", err, ErrNoMemory)
	}
}

func TestFrameAt(t *testing.T) {
	g := MustNewGeometry(12, 3, 2)
	a := NewRuntimeAllocator(g, RuntimeAllocatorOpts{})
	a.NewPTEs()
	a.NewPage()

	for _, tc := range []struct {
		pa   hostarch.Addr
		want Frame
		ok   bool
	}{
		{pa: 0x0fff},
		{pa: 0x1000, want: Frame{Address: 0x1000, Kind: TableFrame}, ok: true},
		{pa: 0x1abc, want: Frame{Address: 0x1000, Kind: TableFrame}, ok: true},
		{pa: 0x2fff, want: Frame{Address: 0x2000, Kind: DataFrame}, ok: true},
		{pa: 0x3000},
	} {
		got, ok := a.FrameAt(tc.pa)
		if ok != tc.ok {
			t.Errorf("FrameAt(%v) ok = %t, want %t", tc.pa, ok, tc.ok)
			continue
		}
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Errorf("FrameAt(%v) mismatch (-want +got):\n%s", tc.pa, diff)
		}
	}
}

func TestLookupDataFramePanics(t *testing.T) {
	a := NewRuntimeAllocator(DefaultGeometry, RuntimeAllocatorOpts{})
	page, err := a.NewPage()
	if err != nil {
		t.Fatalf("NewPage failed: %v", err)
	}
	defer func() {
		if recover() == nil {
			t.Errorf("LookupPTEs of a data page did not panic")
		}
	}()
	a.LookupPTEs(page)
}

func TestEntry(t *testing.T) {
	var p PTE
	if p.Valid() {
		t.Errorf("zero PTE is valid")
	}
	if got := p.Entry(); got != (Entry{}) {
		t.Errorf("zero PTE decodes to %+v", got)
	}
	p.Set(0x7000)
	if got, want := p.Entry(), (Entry{Valid: true, Address: 0x7000}); got != want {
		t.Errorf("Entry got %+v, want %+v", got, want)
	}
	if uint64(p) != 0x7001 {
		t.Errorf("stored PTE %#x, want 0x7001", uint64(p))
	}
}

func TestSetUnalignedPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("Set with an odd address did not panic")
		}
	}()
	var p PTE
	p.Set(0x1001)
}
