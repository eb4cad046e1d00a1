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

package log

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestLevelText(t *testing.T) {
	for _, tc := range []struct {
		level Level
		name  string
	}{
		{Warning, "warning"},
		{Info, "info"},
		{Debug, "debug"},
	} {
		b, err := tc.level.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%v) failed: %v", tc.level, err)
		}
		if string(b) != tc.name {
			t.Errorf("MarshalText(%v) = %q, want %q", tc.level, b, tc.name)
		}
		var got Level
		if err := got.UnmarshalText(b); err != nil || got != tc.level {
			t.Errorf("UnmarshalText(%q) = %v, %v, want %v", b, got, err, tc.level)
		}
	}
	if _, err := Level(7).MarshalText(); err == nil {
		t.Errorf("MarshalText of an unknown level should fail")
	}
	var lv Level
	if err := lv.UnmarshalText([]byte("fatal")); err == nil {
		t.Errorf("UnmarshalText of an unknown name should fail")
	}
}

func TestLevelUnmarshalJSON(t *testing.T) {
	for _, tc := range []struct {
		json string
		want Level
	}{
		{`0`, Warning},
		{`1`, Info},
		{`2`, Debug},
		{`"warning"`, Warning},
		{`"debug"`, Debug},
	} {
		var lv Level
		if err := json.Unmarshal([]byte(tc.json), &lv); err != nil {
			t.Errorf("Unmarshal(%s) failed: %v", tc.json, err)
		}
		if lv != tc.want {
			t.Errorf("Unmarshal(%s) = %v, want %v", tc.json, lv, tc.want)
		}
	}
	for _, bad := range []string{`3`, `"fatal"`, `true`} {
		var lv Level
		if err := json.Unmarshal([]byte(bad), &lv); err == nil {
			t.Errorf("Unmarshal(%s) should fail", bad)
		}
	}
}

func TestJSONEmitter(t *testing.T) {
	tw := &testWriter{}
	l := BasicLogger{Level: Info, Emitter: JSONEmitter{&Writer{Next: tw}}}
	l.Warningf("va %#x unmapped", 0x1000)
	if len(tw.lines) != 1 {
		t.Fatalf("got lines %q, want a single line", tw.lines)
	}
	if !strings.HasSuffix(tw.lines[0], "}\n") {
		t.Errorf("line %q does not end with a newline", tw.lines[0])
	}
	var got jsonLog
	if err := json.Unmarshal([]byte(tw.lines[0]), &got); err != nil {
		t.Fatalf("invalid JSON %q: %v", tw.lines[0], err)
	}
	if got.Level != Warning {
		t.Errorf("level got %v, want %v", got.Level, Warning)
	}
	if got.Msg != "va 0x1000 unmapped" {
		t.Errorf("msg got %q, want %q", got.Msg, "va 0x1000 unmapped")
	}
	if !strings.HasPrefix(got.Caller, "json_test.go:") {
		t.Errorf("caller got %q, want json_test.go", got.Caller)
	}
	if !strings.Contains(tw.lines[0], `"level":"warning"`) {
		t.Errorf("line %q does not name the level", tw.lines[0])
	}
}

func TestNewEmitter(t *testing.T) {
	w := &Writer{Next: &testWriter{}}
	for _, format := range []string{"text", "json"} {
		if _, err := NewEmitter(format, w); err != nil {
			t.Errorf("NewEmitter(%q) failed: %v", format, err)
		}
	}
	if _, err := NewEmitter("xml", w); err == nil {
		t.Errorf("NewEmitter(xml) should fail")
	}
}
