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
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pagewalk/mlpt/pkg/hostarch"
)

func TestTree(t *testing.T) {
	pt, _ := newTestTables(t, MustNewGeometry(12, 3, 2), 0)
	if pt.Tree() != nil {
		t.Errorf("Tree of empty tables is not nil")
	}
	if err := pt.Map(0x1000); err != nil {
		t.Fatalf("Map failed: %v", err)
	}

	want := &Node{
		Level:   0,
		Address: 0x1000,
		Children: []Child{{
			Index:   0,
			Address: 0x2000,
			Table: &Node{
				Level:    1,
				Address:  0x2000,
				Children: []Child{{Index: 1, Address: 0x3000}},
			},
		}},
	}
	if diff := cmp.Diff(want, pt.Tree()); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}
}

func TestMappings(t *testing.T) {
	g := MustNewGeometry(12, 3, 3)
	pt, _ := newTestTables(t, g, 0)
	if got := pt.Mappings(); got != nil {
		t.Errorf("Mappings of empty tables = %v", got)
	}

	// Map out of order and with offsets; Mappings is sorted and page aligned.
	vas := []hostarch.Addr{0x40_0000_0123, 0x3000, 0x1fff, 0x20_0000}
	for _, va := range vas {
		if err := pt.Map(va); err != nil {
			t.Fatalf("Map(%v) failed: %v", va, err)
		}
	}
	got := pt.Mappings()
	var virtuals []hostarch.Addr
	for _, m := range got {
		virtuals = append(virtuals, m.Virtual)
		pa, ok := pt.Translate(m.Virtual)
		if !ok || pa != m.Physical {
			t.Errorf("mapping %+v does not match Translate = %v, %t", m, pa, ok)
		}
	}
	want := []hostarch.Addr{0x1000, 0x3000, 0x20_0000, 0x40_0000_0000}
	if diff := cmp.Diff(want, virtuals); diff != "" {
		t.Errorf("virtual pages mismatch (-want +got):\n%s", diff)
	}
}
