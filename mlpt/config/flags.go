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

package config

import (
	"flag"
	"fmt"
	"reflect"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/mohae/deepcopy"
)

// RegisterFlags registers flags used to populate Config.
func RegisterFlags(flagSet *flag.FlagSet) {
	// Geometry flags.
	flagSet.Uint("page-offset-bits", 12, "number of low-order address bits that index within a page.")
	flagSet.Uint("entry-size-log2", 3, "binary log of the size of a page table entry, in bytes. Must be at least 3.")
	flagSet.Int("levels", 4, "number of page table levels, root through leaf.")

	// Allocator flags.
	flagSet.Var(allocatorTypePtr(AllocatorRuntime), "allocator", "page provider: runtime (default) simulates physical memory, mmap uses anonymous host memory.")
	flagSet.Int("max-frames", 0, "maximum number of page frames to allocate. 0 means no limit.")
	flagSet.Uint64("base-frame", 0, "frame number of the first frame handed out by the runtime allocator. 0 means 1.")

	flagSet.String("config", "", "TOML file with configuration settings. Flags set on the command line take precedence.")

	// Debugging flags.
	flagSet.Bool("debug", false, "enable debug logging.")
	flagSet.String("log", "", "file path where internal debug information is written, default is stderr. The following variables are available: %TIMESTAMP%, %COMMAND%, %PID%.")
	flagSet.String("log-format", "text", "log format: text (default) or json.")
	flagSet.String("metrics-file", "", "file path where metrics are written in the Prometheus text format after the command completes.")
}

// get returns the value of a flag.
func get(fl *flag.Flag) any {
	return fl.Value.(flag.Getter).Get()
}

// NewFromFlags creates a new Config with values coming from command line
// flags and, if --config is set, the named file.
func NewFromFlags(flagSet *flag.FlagSet) (*Config, error) {
	conf := &Config{}

	obj := reflect.ValueOf(conf).Elem()
	st := obj.Type()
	for i := 0; i < st.NumField(); i++ {
		f := st.Field(i)
		name, ok := f.Tag.Lookup("flag")
		if !ok {
			// No flag set for this field.
			continue
		}
		fl := flagSet.Lookup(name)
		if fl == nil {
			panic(fmt.Sprintf("Flag %q not found", name))
		}
		obj.Field(i).Set(reflect.ValueOf(get(fl)))
	}

	if conf.ConfigFile != "" {
		var err error
		if conf, err = conf.overlayFile(flagSet); err != nil {
			return nil, err
		}
	}

	if err := conf.validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

// overlayFile returns a copy of c with the settings of c.ConfigFile applied,
// except for flags that were explicitly set in flagSet.
func (c *Config) overlayFile(flagSet *flag.FlagSet) (*Config, error) {
	fromFile := deepcopy.Copy(c).(*Config)
	md, err := toml.DecodeFile(c.ConfigFile, fromFile)
	if err != nil {
		return nil, fmt.Errorf("error reading config file %q: %w", c.ConfigFile, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown settings in config file %q: %v", c.ConfigFile, undecoded)
	}

	set := make(map[string]bool)
	flagSet.Visit(func(fl *flag.Flag) {
		set[fl.Name] = true
	})

	from := reflect.ValueOf(c).Elem()
	to := reflect.ValueOf(fromFile).Elem()
	st := to.Type()
	for i := 0; i < st.NumField(); i++ {
		if name, ok := st.Field(i).Tag.Lookup("flag"); ok && set[name] {
			to.Field(i).Set(from.Field(i))
		}
	}
	return fromFile, nil
}

// ToFlags returns a slice of flags that correspond to the given Config.
func (c *Config) ToFlags() []string {
	var rv []string

	// Construct a temporary set for default plumbing.
	flagSet := flag.NewFlagSet("tmp", flag.ContinueOnError)
	RegisterFlags(flagSet)

	obj := reflect.ValueOf(c).Elem()
	st := obj.Type()
	for i := 0; i < st.NumField(); i++ {
		f := st.Field(i)
		name, ok := f.Tag.Lookup("flag")
		if !ok {
			// No flag set for this field.
			continue
		}
		val := getVal(obj.Field(i))

		flag := flagSet.Lookup(name)
		if flag == nil {
			panic(fmt.Sprintf("Flag %q not found", name))
		}
		if val == flag.DefValue {
			continue
		}
		rv = append(rv, fmt.Sprintf("--%s=%s", flag.Name, val))
	}
	return rv
}

func getVal(field reflect.Value) string {
	if str, ok := field.Addr().Interface().(fmt.Stringer); ok {
		return str.String()
	}
	switch field.Kind() {
	case reflect.Bool:
		return strconv.FormatBool(field.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(field.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(field.Uint(), 10)
	case reflect.String:
		return field.String()
	default:
		panic("unknown type " + field.Kind().String())
	}
}
