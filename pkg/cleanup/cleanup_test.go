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


package cleanup

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

// recorder records the order in which named cleaners run.
type recorder struct {
	ran []string
}

func (r *recorder) cleaner(name string) func() {
	return func() { r.ran = append(r.ran, name) }
}

func TestClean(t *testing.T) {
	var r recorder
	func() {
		cu := Make(r.cleaner("allocator"))
		defer cu.Clean()
		cu.Add(r.cleaner("log file"))
		cu.Add(r.cleaner("metrics file"))
	}()
	want := []string{"metrics file", "log file", "allocator"}
	if diff := cmp.Diff(want, r.ran); diff != "" {
		t.Errorf("cleaners ran out of order (-want +got):\n%s", diff)
	}
}

func TestCleanTwice(t *testing.T) {
	var r recorder
	cu := Make(r.cleaner("allocator"))
	cu.Clean()
	cu.Clean()
	if diff := cmp.Diff([]string{"allocator"}, r.ran); diff != "" {
		t.Errorf("second Clean ran cleaners (-want +got):\n%s", diff)
	}
}

func TestZeroValue(t *testing.T) {
	var r recorder
	var cu Cleanup
	cu.Clean()
	cu.Add(r.cleaner("log file"))
	cu.Clean()
	if diff := cmp.Diff([]string{"log file"}, r.ran); diff != "" {
		t.Errorf("cleaners mismatch (-want +got):\n%s", diff)
	}
}

func TestRelease(t *testing.T) {
	var r recorder
	cleaner := func() func() {
		cu := Make(r.cleaner("allocator"))
		defer cu.Clean()
		cu.Add(r.cleaner("tables"))
		return cu.Release()
	}()

	// Nothing runs after release.
	if len(r.ran) != 0 {
		t.Fatalf("released cleaners ran: %v", r.ran)
	}

	// The returned function still runs every cleaner.
	cleaner()
	if diff := cmp.Diff([]string{"tables", "allocator"}, r.ran); diff != "" {
		t.Errorf("cleaners mismatch (-want +got):\n%s", diff)
	}
}
