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

// Package hostarch contains address arithmetic for simulated address spaces.
//
// Unlike a host address, the page size here is not a constant: every helper
// takes the binary log of the page size in use.
package hostarch

import (
	"fmt"
	"strconv"
)

// Addr represents a virtual or physical address in a simulated 64-bit address
// space.
type Addr uint64

// String implements fmt.Stringer.String.
func (v Addr) String() string {
	return fmt.Sprintf("%#x", uint64(v))
}

// PageMask returns the mask covering the offset bits of a page of size
// 1<<shift.
func PageMask(shift uint) Addr {
	return Addr(1)<<shift - 1
}

// RoundDown returns the address rounded down to the nearest page boundary.
func (v Addr) RoundDown(shift uint) Addr {
	return v &^ PageMask(shift)
}

// RoundUp returns the address rounded up to the nearest page boundary. ok is
// true iff rounding up did not wrap around.
func (v Addr) RoundUp(shift uint) (addr Addr, ok bool) {
	addr = Addr(v + PageMask(shift)).RoundDown(shift)
	ok = addr >= v
	return
}

// PageOffset returns the offset of v within its page.
func (v Addr) PageOffset(shift uint) Addr {
	return v & PageMask(shift)
}

// IsPageAligned returns true if v is a multiple of the page size.
func (v Addr) IsPageAligned(shift uint) bool {
	return v.PageOffset(shift) == 0
}

// ParseAddr parses an address written as any Go integer literal, e.g.
// "0x1000", "0o17", "4096" or "0x_ffff_0000".
func ParseAddr(s string) (Addr, error) {
	v, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q: %w", s, err)
	}
	return Addr(v), nil
}

// MarshalText implements encoding.TextMarshaler.MarshalText.
func (v Addr) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.UnmarshalText.
func (v *Addr) UnmarshalText(text []byte) error {
	a, err := ParseAddr(string(text))
	if err != nil {
		return err
	}
	*v = a
	return nil
}
