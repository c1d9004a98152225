// MIT License
//
// Copyright (c) 2022-2026 GoAkt Team
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package watchdog

import "strings"

// JvmArgs is an ordered list of JVM arguments. The flags are updated as each
// argument is added, since they decide which default arguments the launcher
// appends.
type JvmArgs struct {
	args    []string
	hasXss  bool
	hasXmx  bool
	is64Bit bool
}

// Add appends args.
func (j *JvmArgs) Add(args ...string) {
	for _, arg := range args {
		j.args = append(j.args, arg)
		switch {
		case arg == "-d64":
			j.is64Bit = true
		case strings.HasPrefix(arg, "-Xss"):
			j.hasXss = true
		case strings.HasPrefix(arg, "-Xmx"):
			j.hasXmx = true
		}
	}
}

// Args returns a copy of the arguments.
func (j *JvmArgs) Args() []string {
	out := make([]string, len(j.args))
	copy(out, j.args)
	return out
}

// Len returns the number of arguments.
func (j *JvmArgs) Len() int {
	return len(j.args)
}

// HasXss reports whether a thread stack size was given.
func (j *JvmArgs) HasXss() bool {
	return j.hasXss
}

// HasXmx reports whether a maximum heap size was given.
func (j *JvmArgs) HasXmx() bool {
	return j.hasXmx
}

// Is64Bit reports whether -d64 was given.
func (j *JvmArgs) Is64Bit() bool {
	return j.is64Bit
}
