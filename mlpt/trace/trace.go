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


// Package trace reads and executes traces of page table operations.
//
// A trace is a YAML document naming an ordered list of operations:
//
//	name: example
//	ops:
//	  - {op: map, va: 0x1000}
//	  - {op: translate, va: 0x1fff}
//
// Addresses accept any Go integer literal.
package trace

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/pagewalk/mlpt/pkg/hostarch"
	"github.com/pagewalk/mlpt/pkg/log"
	"github.com/pagewalk/mlpt/pkg/pagetables"
)

// ErrUnknownOp is returned when a trace names an operation other than map or
// translate.
var ErrUnknownOp = errors.New("unknown operation")

// Kind is the type of an operation.
type Kind int

const (
	// Map ensures the page containing VA is mapped.
	Map Kind = iota

	// Translate looks up the physical address of VA.
	Translate
)

// String implements fmt.Stringer.String.
func (k Kind) String() string {
	switch k {
	case Map:
		return "map"
	case Translate:
		return "translate"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// MarshalText implements encoding.TextMarshaler.MarshalText.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.UnmarshalText.
func (k *Kind) UnmarshalText(text []byte) error {
	kind, err := parseKind(string(text))
	if err != nil {
		return err
	}
	*k = kind
	return nil
}

func parseKind(s string) (Kind, error) {
	switch s {
	case "map":
		return Map, nil
	case "translate":
		return Translate, nil
	default:
		return 0, fmt.Errorf("%w %q", ErrUnknownOp, s)
	}
}

// Op is a single operation of a trace.
type Op struct {
	Kind Kind          `yaml:"op"`
	VA   hostarch.Addr `yaml:"va"`
}

// String implements fmt.Stringer.String.
func (o Op) String() string {
	return fmt.Sprintf("%v %v", o.Kind, o.VA)
}

// UnmarshalYAML implements yaml.Unmarshaler.UnmarshalYAML.
func (o *Op) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Op string    `yaml:"op"`
		VA yaml.Node `yaml:"va"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	kind, err := parseKind(raw.Op)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	if raw.VA.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: %v requires a scalar va", value.Line, kind)
	}
	va, err := hostarch.ParseAddr(raw.VA.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", raw.VA.Line, err)
	}
	*o = Op{Kind: kind, VA: va}
	return nil
}

// Trace is a named sequence of operations.
type Trace struct {
	Name string `yaml:"name"`
	Ops  []Op   `yaml:"ops"`
}

// Parse decodes a trace. Unknown fields are rejected.
func Parse(data []byte) (*Trace, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var t Trace
	if err := dec.Decode(&t); err != nil {
		return nil, err
	}
	return &t, nil
}

// Load reads the trace at path. A trace without a name is named after its
// file.
func Load(path string) (*Trace, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing trace %q: %w", path, err)
	}
	if t.Name == "" {
		t.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return t, nil
}

// Result is the outcome of an Op.
type Result struct {
	Kind Kind          `json:"op" yaml:"op"`
	VA   hostarch.Addr `json:"va" yaml:"va"`

	// Mapped is true if a map succeeded or a translate found a mapping.
	Mapped bool `json:"mapped" yaml:"mapped"`

	// Physical is the translated address. It is set only for translations
	// of mapped addresses.
	Physical hostarch.Addr `json:"physical,omitempty" yaml:"physical,omitempty"`
}

// String implements fmt.Stringer.String.
func (r Result) String() string {
	switch {
	case r.Kind == Map:
		return fmt.Sprintf("map %v", r.VA)
	case r.Mapped:
		return fmt.Sprintf("translate %v -> %v", r.VA, r.Physical)
	default:
		return fmt.Sprintf("translate %v -> unmapped", r.VA)
	}
}

// Run executes ops in order against pt. It stops at the first map that
// fails and returns the results up to that point along with the error.
func Run(pt *pagetables.PageTables, ops []Op) ([]Result, error) {
	results := make([]Result, 0, len(ops))
	for i, op := range ops {
		r := Result{Kind: op.Kind, VA: op.VA}
		switch op.Kind {
		case Map:
			if err := pt.Map(op.VA); err != nil {
				return results, fmt.Errorf("op %d (%v): %w", i, op, err)
			}
			r.Mapped = true
		case Translate:
			r.Physical, r.Mapped = pt.Translate(op.VA)
		default:
			return results, fmt.Errorf("op %d: %w %v", i, ErrUnknownOp, op.Kind)
		}
		log.Debugf("Trace op %d: %v", i, r)
		results = append(results, r)
	}
	return results, nil
}
