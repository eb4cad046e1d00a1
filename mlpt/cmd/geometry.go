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


package cmd

import (
	"context"
	"flag"
	"fmt"
	"text/tabwriter"

	"github.com/google/subcommands"
	"github.com/pagewalk/mlpt/mlpt/cmd/util"
	"github.com/pagewalk/mlpt/mlpt/config"
)

// Geometry implements subcommands.Command for the "geometry" command.
type Geometry struct {
	output
	format string
}

// Name implements subcommands.Command.Name.
func (*Geometry) Name() string {
	return "geometry"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*Geometry) Synopsis() string {
	return "print the address layout derived from the configured geometry"
}

// Usage implements subcommands.Command.Usage.
func (*Geometry) Usage() string {
	return `geometry [flags] - print the address layout derived from the configured geometry.
`
}

// SetFlags implements subcommands.Command.SetFlags.
func (g *Geometry) SetFlags(f *flag.FlagSet) {
	f.StringVar(&g.format, "format", "text", "output format (text, json, yaml).")
}

// Execute implements subcommands.Command.Execute.
func (g *Geometry) Execute(_ context.Context, f *flag.FlagSet, args ...any) subcommands.ExitStatus {
	if f.NArg() != 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	conf := args[0].(*config.Config)

	geom, err := conf.Geometry()
	if err != nil {
		return util.Errorf("%v", err)
	}
	info := newGeometryInfo(geom)
	if g.format != "text" {
		if err := encode(g.writer(), g.format, info); err != nil {
			return util.Errorf("Error writing output: %v", err)
		}
		return subcommands.ExitSuccess
	}

	w := tabwriter.NewWriter(g.writer(), 0, 8, 2, ' ', 0)
	fmt.Fprintf(w, "Page offset bits:\t%d\n", info.PageOffsetBits)
	fmt.Fprintf(w, "Entry size:\t%d bytes\n", 1<<info.EntrySizeLog2)
	fmt.Fprintf(w, "Index bits:\t%d\n", info.IndexBits)
	fmt.Fprintf(w, "Entries per table:\t%d\n", info.EntriesPerTable)
	fmt.Fprintf(w, "Virtual address bits:\t%d\n", info.VirtualBits)
	fmt.Fprintf(w, "\nLEVEL\tBITS\n")
	for _, l := range info.Levels {
		fmt.Fprintf(w, "%d\t%d:%d\n", l.Level, l.HighBit, l.Shift)
	}
	fmt.Fprintf(w, "offset\t%d:0\n", info.PageOffsetBits-1)
	if err := w.Flush(); err != nil {
		return util.Errorf("Error writing output: %v", err)
	}
	return subcommands.ExitSuccess
}
