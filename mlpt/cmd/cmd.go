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


// Package cmd holds implementations of the mlpt commands.
package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pagewalk/mlpt/mlpt/config"
	"github.com/pagewalk/mlpt/pkg/cleanup"
	"github.com/pagewalk/mlpt/pkg/log"
	"github.com/pagewalk/mlpt/pkg/pagetables"
)

// output is embedded by commands that print results. A nil w means stdout.
type output struct {
	w io.Writer
}

func (o *output) writer() io.Writer {
	if o.w == nil {
		return os.Stdout
	}
	return o.w
}

// encode writes v to w in the given structured format.
func encode(w io.Writer, format string, v any) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

// newPageTables creates an empty PageTables as configured by conf. Cleaning
// the returned Cleanup releases the allocator.
func newPageTables(conf *config.Config) (*pagetables.PageTables, cleanup.Cleanup, error) {
	g, err := conf.Geometry()
	if err != nil {
		return nil, cleanup.Cleanup{}, err
	}
	a, err := conf.NewAllocator(g)
	if err != nil {
		return nil, cleanup.Cleanup{}, fmt.Errorf("creating %v allocator: %w", conf.Allocator, err)
	}
	cu := cleanup.Make(func() {
		if err := config.CloseAllocator(a); err != nil {
			log.Warningf("Error releasing %v allocator: %v", conf.Allocator, err)
		}
	})
	return pagetables.New(g, a), cu, nil
}

// levelInfo describes the index field of one level.
type levelInfo struct {
	Level   int  `json:"level" yaml:"level"`
	Shift   uint `json:"shift" yaml:"shift"`
	HighBit uint `json:"high_bit" yaml:"high_bit"`
}

// geometryInfo is the printable form of a pagetables.Geometry.
type geometryInfo struct {
	PageOffsetBits  uint        `json:"page_offset_bits" yaml:"page_offset_bits"`
	EntrySizeLog2   uint        `json:"entry_size_log2" yaml:"entry_size_log2"`
	IndexBits       uint        `json:"index_bits" yaml:"index_bits"`
	EntriesPerTable int         `json:"entries_per_table" yaml:"entries_per_table"`
	VirtualBits     uint        `json:"virtual_bits" yaml:"virtual_bits"`
	Levels          []levelInfo `json:"levels" yaml:"levels"`
}

func newGeometryInfo(g pagetables.Geometry) geometryInfo {
	info := geometryInfo{
		PageOffsetBits:  g.PageShift(),
		EntrySizeLog2:   g.EntryShift(),
		IndexBits:       g.IndexBits(),
		EntriesPerTable: g.EntriesPerTable(),
		VirtualBits:     g.VirtualBits(),
	}
	for level := 0; level < g.Levels(); level++ {
		shift := g.Shift(level)
		info.Levels = append(info.Levels, levelInfo{
			Level:   level,
			Shift:   shift,
			HighBit: shift + g.IndexBits() - 1,
		})
	}
	return info
}
