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

package metric

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/common/expfmt"
)

func TestCreateValidation(t *testing.T) {
	for _, tc := range []struct {
		name   string
		fields []Field
		want   error
	}{
		{name: "no_slash", want: ErrInvalidName},
		{name: "/Upper", want: ErrInvalidName},
		{name: "/", want: ErrInvalidName},
		{name: "/test/empty_field", fields: []Field{NewField("f")}, want: ErrFieldHasNoAllowedValues},
		{name: "/test/comma_field", fields: []Field{NewField("f", "a,b")}, want: ErrFieldValueContainsIllegalChar},
	} {
		if _, err := NewUint64Metric(tc.name, "", tc.fields...); !errors.Is(err, tc.want) {
			t.Errorf("NewUint64Metric(%q) got err %v, want %v", tc.name, err, tc.want)
		}
	}
}

func TestNameInUse(t *testing.T) {
	if _, err := NewUint64Metric("/test/dup", "first"); err != nil {
		t.Fatalf("NewUint64Metric failed: %v", err)
	}
	if _, err := NewUint64Metric("/test/dup", "second"); !errors.Is(err, ErrNameInUse) {
		t.Errorf("second registration got %v, want %v", err, ErrNameInUse)
	}
}

func TestIncrement(t *testing.T) {
	m := MustCreateNewUint64Metric("/test/fielded", "a fielded counter",
		NewField("result", "hit", "miss"), NewField("kind", "a", "b"))
	m.Increment("hit", "a")
	m.IncrementBy(4, "miss", "b")
	m.Increment("miss", "b")

	got := map[string]uint64{
		"hit,a":  m.Value("hit", "a"),
		"hit,b":  m.Value("hit", "b"),
		"miss,a": m.Value("miss", "a"),
		"miss,b": m.Value("miss", "b"),
	}
	want := map[string]uint64{"hit,a": 1, "hit,b": 0, "miss,a": 0, "miss,b": 5}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestUnknownFieldValuePanics(t *testing.T) {
	m := MustCreateNewUint64Metric("/test/strict", "", NewField("result", "hit"))
	defer func() {
		if recover() == nil {
			t.Errorf("Increment with an unknown value did not panic")
		}
	}()
	m.Increment("miss")
}

func TestWriteText(t *testing.T) {
	m := MustCreateNewUint64Metric("/test/exported", "Exported counter.", NewField("result", "hit", "miss"))
	m.IncrementBy(3, "hit")
	plain := MustCreateNewUint64Metric("/test/exported_plain", "Plain counter.")
	plain.Increment()

	var buf bytes.Buffer
	if err := WriteText(&buf); err != nil {
		t.Fatalf("WriteText failed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"# HELP test_exported Exported counter.",
		"# TYPE test_exported counter",
		`test_exported{result="hit"} 3`,
		`test_exported{result="miss"} 0`,
		"test_exported_plain 1",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteTextParses(t *testing.T) {
	m := MustCreateNewUint64Metric("/test/parsed", "Parsed counter.", NewField("result", "hit", "miss"))
	m.IncrementBy(2, "miss")

	var buf bytes.Buffer
	if err := WriteText(&buf); err != nil {
		t.Fatalf("WriteText failed: %v", err)
	}
	families, err := (&expfmt.TextParser{}).TextToMetricFamilies(&buf)
	if err != nil {
		t.Fatalf("TextToMetricFamilies failed: %v", err)
	}
	mf, ok := families["test_parsed"]
	if !ok {
		t.Fatalf("test_parsed not exported, got %d families", len(families))
	}
	got := make(map[string]float64)
	for _, pm := range mf.GetMetric() {
		for _, l := range pm.GetLabel() {
			got[l.GetName()+"="+l.GetValue()] = pm.GetCounter().GetValue()
		}
	}
	want := map[string]float64{"result=hit": 0, "result=miss": 2}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("parsed values mismatch (-want +got):\n%s", diff)
	}
}
