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
	"io"
	"runtime"
	"time"

	"github.com/google/subcommands"
	"golang.org/x/sync/errgroup"

	"github.com/pagewalk/mlpt/mlpt/cmd/util"
	"github.com/pagewalk/mlpt/mlpt/config"
	"github.com/pagewalk/mlpt/mlpt/trace"
	"github.com/pagewalk/mlpt/pkg/log"
	"github.com/pagewalk/mlpt/pkg/pagetables"
)

// missesLogInterval bounds how often unmapped translations are reported.
const missesLogInterval = time.Second

// Replay implements subcommands.Command for the "replay" command.
type Replay struct {
	output
	format   string
	parallel int
}

// Name implements subcommands.Command.Name.
func (*Replay) Name() string {
	return "replay"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*Replay) Synopsis() string {
	return "run traces of map and translate operations"
}

// Usage implements subcommands.Command.Usage.
func (*Replay) Usage() string {
	return `replay [flags] <trace>... - run each trace against its own empty page
tables and print the result of every operation.
`
}

// SetFlags implements subcommands.Command.SetFlags.
func (r *Replay) SetFlags(f *flag.FlagSet) {
	f.StringVar(&r.format, "format", "text", "output format (text, json, yaml).")
	f.IntVar(&r.parallel, "parallel", runtime.GOMAXPROCS(0), "maximum number of traces replayed concurrently.")
}

// report is the outcome of replaying one trace.
type report struct {
	Name    string           `json:"name" yaml:"name"`
	Results []trace.Result   `json:"results" yaml:"results"`
	Stats   pagetables.Stats `json:"stats" yaml:"stats"`
}

// Execute implements subcommands.Command.Execute.
func (r *Replay) Execute(ctx context.Context, f *flag.FlagSet, args ...any) subcommands.ExitStatus {
	if f.NArg() == 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	if r.parallel < 1 {
		return util.Errorf("--parallel must be at least 1, got %d", r.parallel)
	}
	switch r.format {
	case "text", "json", "yaml":
	default:
		return util.Errorf("Unsupported output format %q", r.format)
	}
	conf := args[0].(*config.Config)

	misses := log.BasicRateLimitedLogger(missesLogInterval)
	reports := make([]report, f.NArg())
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(r.parallel)
	for i, path := range f.Args() {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rep, err := replayFile(conf, path, misses)
			if err != nil {
				return err
			}
			reports[i] = *rep
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return util.Errorf("%v", err)
	}
	if n := misses.Suppressed(); n > 0 {
		log.Infof("Suppressed %d unmapped translation warnings", n)
	}

	if err := r.write(reports); err != nil {
		return util.Errorf("Error writing output: %v", err)
	}
	return subcommands.ExitSuccess
}

func (r *Replay) write(reports []report) error {
	if r.format != "text" {
		return encode(r.writer(), r.format, reports)
	}
	return writeText(r.writer(), reports)
}

func writeText(w io.Writer, reports []report) error {
	for _, rep := range reports {
		if _, err := fmt.Fprintf(w, "# %s\n", rep.Name); err != nil {
			return err
		}
		for _, res := range rep.Results {
			if _, err := fmt.Fprintln(w, res); err != nil {
				return err
			}
		}
		s := rep.Stats
		if _, err := fmt.Fprintf(w, "# %d tables, %d pages, %d translations, %d unmapped\n", s.Tables, s.Pages, s.Translations, s.Misses); err != nil {
			return err
		}
	}
	return nil
}

// replayFile runs the trace at path against fresh page tables.
func replayFile(conf *config.Config, path string, misses log.Logger) (*report, error) {
	t, err := trace.Load(path)
	if err != nil {
		return nil, err
	}
	pt, cu, err := newPageTables(conf)
	if err != nil {
		return nil, err
	}
	defer cu.Clean()

	log.Infof("Replaying trace %q: %d operations", t.Name, len(t.Ops))
	results, err := trace.Run(pt, t.Ops)
	if err != nil {
		return nil, fmt.Errorf("trace %q: %w", t.Name, err)
	}
	for _, res := range results {
		if res.Kind == trace.Translate && !res.Mapped {
			misses.Warningf("Trace %q: %v is unmapped", t.Name, res.VA)
		}
	}
	return &report{Name: t.Name, Results: results, Stats: pt.Stats()}, nil
}
