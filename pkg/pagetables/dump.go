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

package pagetables

import (
	"github.com/pagewalk/mlpt/pkg/hostarch"
)

// Mapping is a mapped virtual page.
type Mapping struct {
	// Virtual is the page-aligned virtual address.
	Virtual hostarch.Addr `json:"virtual" yaml:"virtual"`

	// Physical is the address of the data page.
	Physical hostarch.Addr `json:"physical" yaml:"physical"`
}

// Node is a snapshot of a table node.
type Node struct {
	Level    int           `json:"level" yaml:"level"`
	Address  hostarch.Addr `json:"address" yaml:"address"`
	Children []Child       `json:"children,omitempty" yaml:"children,omitempty"`
}

// Child is a valid entry of a Node. Table is nil for entries of the leaf
// level, whose Address is a data page.
type Child struct {
	Index   int           `json:"index" yaml:"index"`
	Address hostarch.Addr `json:"address" yaml:"address"`
	Table   *Node         `json:"table,omitempty" yaml:"table,omitempty"`
}

// Mappings returns every mapped page in ascending virtual address order.
func (p *PageTables) Mappings() []Mapping {
	var mappings []Mapping
	if p.root == nil {
		return nil
	}
	p.visitMappings(p.root, 0, 0, func(m Mapping) {
		mappings = append(mappings, m)
	})
	return mappings
}

func (p *PageTables) visitMappings(table PTEs, level int, prefix hostarch.Addr, fn func(Mapping)) {
	shift := p.geom.Shift(level)
	for i := range table {
		entry := &table[i]
		if !entry.Valid() {
			continue
		}
		va := prefix | hostarch.Addr(i)<<shift
		if level == p.geom.levels-1 {
			fn(Mapping{Virtual: va, Physical: entry.Address()})
			continue
		}
		p.visitMappings(p.Allocator.LookupPTEs(entry.Address()), level+1, va, fn)
	}
}

// Tree returns a snapshot of the whole hierarchy, or nil if the root is not
// allocated.
func (p *PageTables) Tree() *Node {
	if p.root == nil {
		return nil
	}
	return p.node(p.root, p.rootPhysical, 0)
}

func (p *PageTables) node(table PTEs, physical hostarch.Addr, level int) *Node {
	n := &Node{Level: level, Address: physical}
	for i := range table {
		entry := &table[i]
		if !entry.Valid() {
			continue
		}
		c := Child{Index: i, Address: entry.Address()}
		if level < p.geom.levels-1 {
			c.Table = p.node(p.Allocator.LookupPTEs(entry.Address()), entry.Address(), level+1)
		}
		n.Children = append(n.Children, c)
	}
	return n
}
