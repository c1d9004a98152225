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

package validation

import "fmt"

type port struct {
	field     string
	port      int
	allowZero bool
}

var _ Validator = (*port)(nil)

// NewPort fails when value is outside the TCP port range. A zero port is
// accepted when allowZero is set, meaning "use the default".
func NewPort(field string, value int, allowZero bool) Validator {
	return &port{field: field, port: value, allowZero: allowZero}
}

// Validate implements Validator.
func (p *port) Validate() error {
	if p.port == 0 && p.allowZero {
		return nil
	}
	if p.port <= 0 || p.port > 65535 {
		return &Violation{Field: p.field, Reason: fmt.Sprintf("must be between 1 and 65535, got %d", p.port)}
	}
	return nil
}
