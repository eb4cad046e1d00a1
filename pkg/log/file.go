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
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// timestampFormat is the layout %TIMESTAMP% expands to.
const timestampFormat = "20060102-150405.000000"

// FileOpts names the values substituted into a log file pattern:
//
//	%COMMAND%   the subcommand being run
//	%TIMESTAMP% the start time of the command
//	%PID%       the process ID
type FileOpts struct {
	Command   string
	Timestamp time.Time
	PID       int
}

// Path returns pattern with every variable expanded.
func (o FileOpts) Path(pattern string) string {
	return strings.NewReplacer(
		"%COMMAND%", o.Command,
		"%TIMESTAMP%", o.Timestamp.Format(timestampFormat),
		"%PID%", strconv.Itoa(o.PID),
	).Replace(pattern)
}

// OpenFile opens the log file named by pattern for appending, creating it and
// its parent directory as needed. It returns nil if pattern is empty.
func OpenFile(pattern string, opts FileOpts) (*os.File, error) {
	if pattern == "" {
		return nil, nil
	}
	path := opts.Path(pattern)
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0775); err != nil {
			return nil, fmt.Errorf("error creating dir %q: %w", dir, err)
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0664)
	if err != nil {
		return nil, fmt.Errorf("error opening file %q: %w", path, err)
	}
	return f, nil
}
