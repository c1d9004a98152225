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

// Package validation checks configuration fields and reports every failed
// check as a Violation naming the offending field.
package validation

import (
	"errors"
	"strings"

	"go.uber.org/multierr"
)

// Validator checks one field.
type Validator interface {
	Validate() error
}

// Violation is a failed check. Field is the dotted path of the offending
// field within the chain scope; it is empty for checks spanning fields.
type Violation struct {
	Field  string
	Reason string
}

var _ error = (*Violation)(nil)

// Error renders "<field> <reason>".
func (v *Violation) Error() string {
	if v.Field == "" {
		return v.Reason
	}
	return v.Field + " " + v.Reason
}

// Violations extracts the violations found anywhere in the tree of err, in
// the order the checks ran.
func Violations(err error) []*Violation {
	switch e := err.(type) {
	case nil:
		return nil
	case *Violation:
		return []*Violation{e}
	case interface{ Unwrap() []error }:
		var violations []*Violation
		for _, inner := range e.Unwrap() {
			violations = append(violations, Violations(inner)...)
		}
		return violations
	case interface{ Unwrap() error }:
		return Violations(e.Unwrap())
	}
	return nil
}

// Chain runs validators in the order they were added.
type Chain struct {
	scope      string
	failFast   bool
	validators []Validator
}

// ChainOption configures a validation chain at creation time.
type ChainOption func(*Chain)

// New creates a validation chain reporting every violation.
func New(opts ...ChainOption) *Chain {
	chain := &Chain{}
	for _, opt := range opts {
		opt(chain)
	}
	return chain
}

// FailFast stops the chain at the first violation.
func FailFast() ChainOption {
	return func(c *Chain) { c.failFast = true }
}

// AllErrors makes the chain report every violation. This is the default.
func AllErrors() ChainOption {
	return func(c *Chain) { c.failFast = false }
}

// Scope prefixes the field of every violation with path, as in
// "servers[app1].watchdog-port".
func Scope(path string) ChainOption {
	return func(c *Chain) { c.scope = path }
}

// AddValidator adds v to the chain.
func (c *Chain) AddValidator(v Validator) *Chain {
	c.validators = append(c.validators, v)
	return c
}

// AddAssertion adds a check on field that fails with reason when ok is false.
func (c *Chain) AddAssertion(field string, ok bool, reason string) *Chain {
	return c.AddValidator(NewAssertion(field, ok, reason))
}

// Validate runs the chain. The violations are combined with multierr; use
// Violations to take them apart. A chain can be validated more than once.
func (c *Chain) Validate() error {
	var violations error
	for _, v := range c.validators {
		err := v.Validate()
		if err == nil {
			continue
		}

		err = c.scoped(err)
		if c.failFast {
			return err
		}
		violations = multierr.Append(violations, err)
	}
	return violations
}

func (c *Chain) scoped(err error) error {
	var violation *Violation
	if c.scope == "" || !errors.As(err, &violation) {
		return err
	}

	field := c.scope
	if violation.Field != "" {
		field = strings.Join([]string{c.scope, violation.Field}, ".")
	}
	return &Violation{Field: field, Reason: violation.Reason}
}
