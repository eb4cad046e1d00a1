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

	"github.com/google/subcommands"
	"github.com/pagewalk/mlpt/mlpt/cmd/util"
	"github.com/pagewalk/mlpt/mlpt/config"
	"github.com/pagewalk/mlpt/pkg/hostarch"
	"github.com/pagewalk/mlpt/pkg/pagetables"
)

// Walk implements subcommands.Command for the "walk" command.
type Walk struct {
	output
	noMap bool
}

// Name implements subcommands.Command.Name.
func (*Walk) Name() string {
	return "walk"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*Walk) Synopsis() string {
	return "map virtual addresses and print their translation and table path"
}

// Usage implements subcommands.Command.Usage.
func (*Walk) Usage() string {
	return `walk [flags] <va>... - map each virtual address in order, then print
its translation and the entry visited at every level.
`
}

// SetFlags implements subcommands.Command.SetFlags.
func (w *Walk) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&w.noMap, "no-map", false, "only translate, without mapping first.")
}

// Execute implements subcommands.Command.Execute.
func (w *Walk) Execute(_ context.Context, f *flag.FlagSet, args ...any) subcommands.ExitStatus {
	if f.NArg() == 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	conf := args[0].(*config.Config)

	vas := make([]hostarch.Addr, 0, f.NArg())
	for _, arg := range f.Args() {
		va, err := hostarch.ParseAddr(arg)
		if err != nil {
			return util.Errorf("%v", err)
		}
		vas = append(vas, va)
	}

	pt, cu, err := newPageTables(conf)
	if err != nil {
		return util.Errorf("%v", err)
	}
	defer cu.Clean()

	if !w.noMap {
		for _, va := range vas {
			if err := pt.Map(va); err != nil {
				return util.Errorf("Error mapping %v: %v", va, err)
			}
		}
	}

	out := w.writer()
	g := pt.Geometry()
	for _, va := range vas {
		if pa, ok := pt.Translate(va); ok {
			fmt.Fprintf(out, "%v -> %v\n", va, pa)
		} else {
			fmt.Fprintf(out, "%v -> unmapped\n", va)
		}
		for level, e := range pt.Path(va) {
			fmt.Fprintf(out, "\tlevel %d [%d]: %s\n", level, g.Index(va, level), describeEntry(e))
		}
	}
	return subcommands.ExitSuccess
}

func describeEntry(e pagetables.Entry) string {
	if !e.Valid {
		return "invalid"
	}
	return e.Address.String()
}
