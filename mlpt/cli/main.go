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


// Package cli is the main entrypoint for mlpt.
package cli

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/google/subcommands"
	"github.com/pagewalk/mlpt/mlpt/cmd"
	"github.com/pagewalk/mlpt/mlpt/cmd/util"
	"github.com/pagewalk/mlpt/mlpt/config"
	"github.com/pagewalk/mlpt/pkg/cleanup"
	"github.com/pagewalk/mlpt/pkg/log"
	"github.com/pagewalk/mlpt/pkg/metric"
)

// Main is the main entrypoint.
func Main() {
	os.Exit(int(run()))
}

func run() subcommands.ExitStatus {
	// Register all commands.
	forEachCmd(subcommands.Register)

	// Register with the main command line.
	config.RegisterFlags(flag.CommandLine)

	// All subcommands must be registered before flag parsing.
	flag.Parse()

	// Create a new Config from the flags.
	conf, err := config.NewFromFlags(flag.CommandLine)
	if err != nil {
		util.Fatalf("%v", err)
	}

	subcommand := flag.CommandLine.Arg(0)
	startTime := time.Now()

	var cu cleanup.Cleanup
	defer cu.Clean()

	// Set up logging.
	if conf.Debug {
		log.SetLevel(log.Debug)
	}
	logFile := os.Stderr
	if conf.LogFilename != "" {
		f, err := log.OpenFile(conf.LogFilename, log.FileOpts{
			Command:   subcommand,
			Timestamp: startTime,
			PID:       os.Getpid(),
		})
		if err != nil {
			util.Fatalf("error opening log file %q: %v", conf.LogFilename, err)
		}
		cu.Add(func() { _ = f.Close() })
		logFile = f
		util.ErrorLogger = f
	}
	emitter, err := log.NewEmitter(conf.LogFormat, &log.Writer{Next: logFile})
	if err != nil {
		util.Fatalf("%v", err)
	}
	log.SetTarget(emitter)

	const delimString = `**************** mlpt ****************`
	log.Infof(delimString)
	log.Infof("%s, %s, %d CPUs, %s, PID %d", runtime.Version(), runtime.GOARCH, runtime.NumCPU(), runtime.GOOS, os.Getpid())
	log.Debugf("Host page size: 0x%x (%d bytes)", os.Getpagesize(), os.Getpagesize())
	log.Infof("Args: %v", os.Args)
	conf.Log()
	log.Infof(delimString)

	// Call the subcommand and pass in the configuration.
	subcmdCode := subcommands.Execute(context.Background(), conf)
	if conf.MetricsFile != "" {
		if err := writeMetrics(conf.MetricsFile); err != nil {
			log.Warningf("Error writing metrics to %q: %v", conf.MetricsFile, err)
			if subcmdCode == subcommands.ExitSuccess {
				subcmdCode = subcommands.ExitFailure
			}
		}
	}
	if subcmdCode != subcommands.ExitSuccess {
		log.Warningf("Failure to execute command, err: %v", subcmdCode)
	} else {
		log.Infof("Command %q completed in %v", subcommand, time.Since(startTime))
	}
	return subcmdCode
}

// writeMetrics writes every metric to path in the Prometheus text format.
func writeMetrics(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := metric.WriteText(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// forEachCmd invokes the passed callback for each command supported by mlpt.
func forEachCmd(cb func(cmd subcommands.Command, group string)) {
	// Help and flags commands are generated automatically.
	cb(subcommands.HelpCommand(), "")
	cb(subcommands.FlagsCommand(), "")
	cb(subcommands.CommandsCommand(), "")

	cb(new(cmd.Geometry), "")
	cb(new(cmd.Walk), "")
	cb(new(cmd.Replay), "")
	cb(new(cmd.Dump), "")
}
