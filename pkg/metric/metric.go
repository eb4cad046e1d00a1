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

// Package metric provides primitives for collecting metrics.
//
// Metrics are process-wide. They are created at package initialization and
// exported in the Prometheus text format.
package metric

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/protobuf/proto"
)

var (
	// ErrNameInUse indicates that another metric is already defined for
	// the given name.
	ErrNameInUse = errors.New("metric name already in use")

	// ErrInvalidName indicates that a metric name does not have the form
	// "/component/name".
	ErrInvalidName = errors.New("metric name must start with '/' and contain only [a-z0-9_/]")

	// ErrFieldHasNoAllowedValues indicates that the field needs to define some
	// allowed values to be a valid and useful field.
	ErrFieldHasNoAllowedValues = errors.New("metric field does not define any allowed values")

	// ErrFieldValueContainsIllegalChar indicates that the value of a metric
	// field had an invalid character in it.
	ErrFieldValueContainsIllegalChar = errors.New("metric field value contains illegal character")

	// ErrUnknownFieldValue indicates a field value outside the allowed
	// values was used.
	ErrUnknownFieldValue = errors.New("metric field value is not allowed")
)

// Field contains the field name and allowed values for the metric which is
// used in registration of the metric.
type Field struct {
	name          string
	allowedValues []string
}

// NewField defines a new Field that can be used to break down a metric.
func NewField(name string, allowedValues ...string) Field {
	return Field{name: name, allowedValues: allowedValues}
}

// Uint64Metric encapsulates a uint64 that represents some kind of metric to be
// monitored.
//
// Metrics with fields keep one counter per combination of field values.
type Uint64Metric struct {
	name        string
	description string
	fields      []Field

	// values maps the joined field values to a counter. It is fully
	// populated at creation, so lookups need no lock.
	values map[string]*atomic.Uint64
}

var (
	// registeredMu protects registered.
	registeredMu sync.Mutex

	// registered contains every metric by name.
	registered = make(map[string]*Uint64Metric)
)

func validName(name string) bool {
	if !strings.HasPrefix(name, "/") || len(name) < 2 {
		return false
	}
	for _, c := range name {
		if !(c >= 'a' && c <= 'z') && !(c >= '0' && c <= '9') && c != '_' && c != '/' {
			return false
		}
	}
	return true
}

// combinations returns every joined combination of the fields' allowed
// values.
func combinations(fields []Field) []string {
	keys := []string{""}
	for i, f := range fields {
		var next []string
		for _, k := range keys {
			for _, v := range f.allowedValues {
				if i == 0 {
					next = append(next, v)
				} else {
					next = append(next, k+","+v)
				}
			}
		}
		keys = next
	}
	return keys
}

// NewUint64Metric creates and registers a new cumulative metric with the
// given name.
func NewUint64Metric(name, description string, fields ...Field) (*Uint64Metric, error) {
	if !validName(name) {
		return nil, fmt.Errorf("%q: %w", name, ErrInvalidName)
	}
	for _, f := range fields {
		if len(f.allowedValues) == 0 {
			return nil, fmt.Errorf("%q field %q: %w", name, f.name, ErrFieldHasNoAllowedValues)
		}
		for _, v := range f.allowedValues {
			if strings.ContainsAny(v, ",\"\n") {
				return nil, fmt.Errorf("%q field %q value %q: %w", name, f.name, v, ErrFieldValueContainsIllegalChar)
			}
		}
	}

	registeredMu.Lock()
	defer registeredMu.Unlock()
	if _, ok := registered[name]; ok {
		return nil, fmt.Errorf("%q: %w", name, ErrNameInUse)
	}
	m := &Uint64Metric{
		name:        name,
		description: description,
		fields:      fields,
		values:      make(map[string]*atomic.Uint64),
	}
	for _, k := range combinations(fields) {
		m.values[k] = new(atomic.Uint64)
	}
	registered[name] = m
	return m, nil
}

// MustCreateNewUint64Metric calls NewUint64Metric and panics if it returns
// an error.
func MustCreateNewUint64Metric(name, description string, fields ...Field) *Uint64Metric {
	m, err := NewUint64Metric(name, description, fields...)
	if err != nil {
		panic(fmt.Sprintf("Unable to create metric %q: %s", name, err))
	}
	return m
}

func (m *Uint64Metric) counter(fieldValues []string) *atomic.Uint64 {
	if len(fieldValues) != len(m.fields) {
		panic(fmt.Sprintf("metric %q: got %d field values, want %d", m.name, len(fieldValues), len(m.fields)))
	}
	c, ok := m.values[strings.Join(fieldValues, ",")]
	if !ok {
		panic(fmt.Sprintf("metric %q: %v: %v", m.name, fieldValues, ErrUnknownFieldValue))
	}
	return c
}

// Value returns the current value of the metric for the given set of fields.
func (m *Uint64Metric) Value(fieldValues ...string) uint64 {
	return m.counter(fieldValues).Load()
}

// Increment increments the metric by 1.
func (m *Uint64Metric) Increment(fieldValues ...string) {
	m.counter(fieldValues).Add(1)
}

// IncrementBy increments the metric by v.
func (m *Uint64Metric) IncrementBy(v uint64, fieldValues ...string) {
	m.counter(fieldValues).Add(v)
}

// promName converts "/pagetables/pages_allocated" into
// "pagetables_pages_allocated".
func promName(name string) string {
	return strings.ReplaceAll(strings.TrimPrefix(name, "/"), "/", "_")
}

func (m *Uint64Metric) family() *dto.MetricFamily {
	mf := &dto.MetricFamily{
		Name: proto.String(promName(m.name)),
		Help: proto.String(m.description),
		Type: dto.MetricType_COUNTER.Enum(),
	}
	for _, key := range combinations(m.fields) {
		var values []string
		if len(m.fields) > 0 {
			values = strings.Split(key, ",")
		}
		pm := &dto.Metric{
			Counter: &dto.Counter{Value: proto.Float64(float64(m.values[key].Load()))},
		}
		for i, f := range m.fields {
			pm.Label = append(pm.Label, &dto.LabelPair{
				Name:  proto.String(f.name),
				Value: proto.String(values[i]),
			})
		}
		mf.Metric = append(mf.Metric, pm)
	}
	return mf
}

// WriteText writes every registered metric to w in the Prometheus text
// exposition format, sorted by name.
func WriteText(w io.Writer) error {
	registeredMu.Lock()
	names := make([]string, 0, len(registered))
	for name := range registered {
		names = append(names, name)
	}
	metrics := make([]*Uint64Metric, 0, len(names))
	sort.Strings(names)
	for _, name := range names {
		metrics = append(metrics, registered[name])
	}
	registeredMu.Unlock()

	for _, m := range metrics {
		if _, err := expfmt.MetricFamilyToText(w, m.family()); err != nil {
			return fmt.Errorf("writing metric %q: %w", m.name, err)
		}
	}
	return nil
}
