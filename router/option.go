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

package router

import (
	"time"

	"github.com/tochemey/gobam/log"
)

// DefaultTimeout bounds every sub-query a router issues.
const DefaultTimeout = 5 * time.Second

// Option configures a router.
type Option interface {
	// Apply sets the Option value of a config.
	Apply(*config)
}

var _ Option = OptionFunc(nil)

// OptionFunc implements the Option interface.
type OptionFunc func(*config)

// Apply implements Option.
func (f OptionFunc) Apply(c *config) {
	f(c)
}

type config struct {
	timeout time.Duration
	logger  log.Logger
	user    string
}

func newConfig(opts ...Option) *config {
	c := &config{
		timeout: DefaultTimeout,
		logger:  log.DefaultLogger,
		user:    "router",
	}
	for _, opt := range opts {
		opt.Apply(c)
	}
	return c
}

// WithTimeout sets the timeout applied to each sub-query.
func WithTimeout(timeout time.Duration) Option {
	return OptionFunc(func(c *config) {
		if timeout > 0 {
			c.timeout = timeout
		}
	})
}

// WithLogger sets the router logger.
func WithLogger(logger log.Logger) Option {
	return OptionFunc(func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	})
}

// WithUser sets the user part of the address the router issues sub-queries from.
func WithUser(user string) Option {
	return OptionFunc(func(c *config) {
		c.user = user
	})
}
