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

	"github.com/google/subcommands"
	"github.com/pagewalk/mlpt/mlpt/cmd/util"
	"github.com/pagewalk/mlpt/mlpt/config"
	"github.com/pagewalk/mlpt/mlpt/trace"
	"github.com/pagewalk/mlpt/pkg/pagetables"
)

// Dump implements subcommands.Command for the "dump" command.
type Dump struct {
	output
	format string
}

// Name implements subcommands.Command.Name.
func (*Dump) Name() string {
	return "dump"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*Dump) Synopsis() string {
	return "replay a trace and dump the resulting page tables"
}

// Usage implements subcommands.Command.Usage.
func (*Dump) Usage() string {
	return `dump [flags] <trace> - replay a trace without printing results, then
print the table hierarchy and every mapped page.
`
}

// SetFlags implements subcommands.Command.SetFlags.
func (d *Dump) SetFlags(f *flag.FlagSet) {
	f.StringVar(&d.format, "format", "yaml", "output format (json, yaml).")
}

// tablesDump is the structured form of a PageTables.
type tablesDump struct {
	Name     string               `json:"name" yaml:"name"`
	Geometry geometryInfo         `json:"geometry" yaml:"geometry"`
	Stats    pagetables.Stats     `json:"stats" yaml:"stats"`
	Root     *pagetables.Node     `json:"root" yaml:"root"`
	Mappings []pagetables.Mapping `json:"mappings" yaml:"mappings"`
}

// Execute implements subcommands.Command.Execute.
func (d *Dump) Execute(_ context.Context, f *flag.FlagSet, args ...any) subcommands.ExitStatus {
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	if d.format != "json" && d.format != "yaml" {
		return util.Errorf("Unsupported output format %q", d.format)
	}
	conf := args[0].(*config.Config)

	t, err := trace.Load(f.Arg(0))
	if err != nil {
		return util.Errorf("%v", err)
	}
	pt, cu, err := newPageTables(conf)
	if err != nil {
		return util.Errorf("%v", err)
	}
	defer cu.Clean()

	if _, err := trace.Run(pt, t.Ops); err != nil {
		return util.Errorf("trace %q: %v", t.Name, err)
	}
	dump := tablesDump{
		Name:     t.Name,
		Geometry: newGeometryInfo(pt.Geometry()),
		Stats:    pt.Stats(),
		Root:     pt.Tree(),
		Mappings: pt.Mappings(),
	}
	if err := encode(d.writer(), d.format, dump); err != nil {
		return util.Errorf("Error writing output: %v", err)
	}
	return subcommands.ExitSuccess
}
