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

// Package config provides basic infrastructure to set configuration settings
// for mlpt. Each setting that can be changed from the command line must be
// added to Config, registered in RegisterFlags and may also be set from a
// TOML file named by --config.
package config

import (
	"fmt"
	"io"

	"github.com/pagewalk/mlpt/pkg/log"
	"github.com/pagewalk/mlpt/pkg/pagetables"
)

// Config holds configuration that is not part of a trace.
//
// Follow these steps to add a new flag:
//  1. Create a new field in Config.
//  2. Add a field tag with the flag name and, if it may be set from a
//     file, a toml tag.
//  3. Register a new flag in flags.go, with name and description.
//  4. Add any additional validation into validate().
type Config struct {
	// PageOffsetBits is the number of low-order address bits that index
	// within a page.
	PageOffsetBits uint `flag:"page-offset-bits" toml:"page_offset_bits"`

	// EntrySizeLog2 is the binary log of the size of a table entry.
	EntrySizeLog2 uint `flag:"entry-size-log2" toml:"entry_size_log2"`

	// Levels is the number of table levels, root through leaf.
	Levels int `flag:"levels" toml:"levels"`

	// Allocator selects the page provider.
	Allocator AllocatorType `flag:"allocator" toml:"allocator"`

	// MaxFrames limits the number of frames the allocator hands out. Zero
	// means no limit.
	MaxFrames int `flag:"max-frames" toml:"max_frames"`

	// BaseFrame is the frame number of the first simulated frame for the
	// runtime allocator. Zero means the allocator default.
	BaseFrame uint64 `flag:"base-frame" toml:"base_frame"`

	// ConfigFile is the TOML file overlaid on the flag defaults.
	ConfigFile string `flag:"config"`

	// Debug indicates that debug logging should be enabled.
	Debug bool `flag:"debug" toml:"debug"`

	// LogFilename is the filename to log to, if not empty. It may contain
	// %COMMAND%, %TIMESTAMP% and %PID%.
	LogFilename string `flag:"log" toml:"log"`

	// LogFormat is the log format.
	LogFormat string `flag:"log-format" toml:"log_format"`

	// MetricsFile is the file metrics are written to after the command, in
	// the Prometheus text format.
	MetricsFile string `flag:"metrics-file" toml:"metrics_file"`
}

func (c *Config) validate() error {
	if _, err := c.Geometry(); err != nil {
		return err
	}
	if c.MaxFrames < 0 {
		return fmt.Errorf("max-frames must not be negative, got %d", c.MaxFrames)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("invalid log format %q, must be 'text' or 'json'", c.LogFormat)
	}
	return nil
}

// Geometry returns the page table geometry described by c.
func (c *Config) Geometry() (pagetables.Geometry, error) {
	return pagetables.NewGeometry(c.PageOffsetBits, c.EntrySizeLog2, c.Levels)
}

// NewAllocator returns a new page provider for g. Allocators that hold host
// resources implement io.Closer.
func (c *Config) NewAllocator(g pagetables.Geometry) (pagetables.Allocator, error) {
	switch c.Allocator {
	case AllocatorRuntime:
		return pagetables.NewRuntimeAllocator(g, pagetables.RuntimeAllocatorOpts{
			BaseFrame: c.BaseFrame,
			MaxFrames: c.MaxFrames,
		}), nil
	case AllocatorMmap:
		return pagetables.NewMmapAllocator(g, c.MaxFrames)
	default:
		panic(fmt.Sprintf("Invalid allocator type %d", c.Allocator))
	}
}

// CloseAllocator releases a if it holds host resources.
func CloseAllocator(a pagetables.Allocator) error {
	if c, ok := a.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Log logs important aspects of the configuration to the given log function.
func (c *Config) Log() {
	log.Infof("Config:")
	for _, f := range c.ToFlags() {
		log.Infof("\t%s", f)
	}
}

// AllocatorType tells which page provider to use.
type AllocatorType int

const (
	// AllocatorRuntime simulates physical memory on the Go heap.
	AllocatorRuntime AllocatorType = iota

	// AllocatorMmap backs pages with anonymous host memory.
	AllocatorMmap
)

func allocatorTypePtr(v AllocatorType) *AllocatorType {
	return &v
}

// Set implements flag.Value.Set.
func (a *AllocatorType) Set(v string) error {
	switch v {
	case "runtime":
		*a = AllocatorRuntime
	case "mmap":
		*a = AllocatorMmap
	default:
		return fmt.Errorf("invalid allocator type %q", v)
	}
	return nil
}

// Get implements flag.Getter.Get.
func (a *AllocatorType) Get() any {
	return *a
}

// String implements flag.Value.String.
func (a AllocatorType) String() string {
	switch a {
	case AllocatorRuntime:
		return "runtime"
	case AllocatorMmap:
		return "mmap"
	default:
		panic(fmt.Sprintf("Invalid allocator type %d", a))
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.UnmarshalText.
func (a *AllocatorType) UnmarshalText(text []byte) error {
	return a.Set(string(text))
}
