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

package hostarch

import "testing"

func TestRounding(t *testing.T) {
	for _, tc := range []struct {
		addr  Addr
		shift uint
		down  Addr
		up    Addr
		upOK  bool
	}{
		{addr: 0, shift: 12, down: 0, up: 0, upOK: true},
		{addr: 0x1000, shift: 12, down: 0x1000, up: 0x1000, upOK: true},
		{addr: 0x1fff, shift: 12, down: 0x1000, up: 0x2000, upOK: true},
		{addr: 0x1001, shift: 16, down: 0, up: 0x10000, upOK: true},
		{addr: ^Addr(0), shift: 12, down: ^Addr(0xfff), up: 0, upOK: false},
	} {
		if got := tc.addr.RoundDown(tc.shift); got != tc.down {
			t.Errorf("%v.RoundDown(%d) = %v, want %v", tc.addr, tc.shift, got, tc.down)
		}
		got, ok := tc.addr.RoundUp(tc.shift)
		if ok != tc.upOK || (ok && got != tc.up) {
			t.Errorf("%v.RoundUp(%d) = %v, %t, want %v, %t", tc.addr, tc.shift, got, ok, tc.up, tc.upOK)
		}
	}
}

func TestPageOffset(t *testing.T) {
	if got, want := Addr(0x12345).PageOffset(12), Addr(0x345); got != want {
		t.Errorf("PageOffset got %v, want %v", got, want)
	}
	if !Addr(0x4000).IsPageAligned(14) {
		t.Errorf("0x4000 should be aligned to 16K")
	}
	if Addr(0x4000).IsPageAligned(15) {
		t.Errorf("0x4000 should not be aligned to 32K")
	}
}

func TestParseAddr(t *testing.T) {
	for s, want := range map[string]Addr{
		"0x1000":      0x1000,
		"4096":        4096,
		"0o17":        0o17,
		"0b101":       5,
		"0xffff_f000": 0xfffff000,
	} {
		got, err := ParseAddr(s)
		if err != nil {
			t.Errorf("ParseAddr(%q) failed: %v", s, err)
			continue
		}
		if got != want {
			t.Errorf("ParseAddr(%q) = %v, want %v", s, got, want)
		}
	}
	for _, s := range []string{"", "0x", "-1", "page", "0x10000000000000000"} {
		if _, err := ParseAddr(s); err == nil {
			t.Errorf("ParseAddr(%q) succeeded, want error", s)
		}
	}
}

func TestTextRoundTrip(t *testing.T) {
	b, err := Addr(0xdead000).MarshalText()
	if err != nil {
		t.Fatalf("MarshalText failed: %v", err)
	}
	if string(b) != "0xdead000" {
		t.Errorf("MarshalText got %q", b)
	}
	var v Addr
	if err := v.UnmarshalText(b); err != nil {
		t.Fatalf("UnmarshalText failed: %v", err)
	}
	if v != 0xdead000 {
		t.Errorf("UnmarshalText got %v", v)
	}
}
