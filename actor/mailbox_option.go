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

package actor

import (
	"github.com/tochemey/gobam/log"
)

// MailboxOption configures a mailbox created by Broker.Register or one of the
// mailbox constructors.
type MailboxOption interface {
	// Apply sets the Option value of a config.
	Apply(*mailboxConfig)
}

var _ MailboxOption = MailboxOptionFunc(nil)

// MailboxOptionFunc implements the MailboxOption interface.
type MailboxOptionFunc func(*mailboxConfig)

// Apply implements MailboxOption.
func (f MailboxOptionFunc) Apply(c *mailboxConfig) {
	f(c)
}

type mailboxConfig struct {
	logger   log.Logger
	workers  int
	capacity int
}

func newMailboxConfig(opts ...MailboxOption) *mailboxConfig {
	config := &mailboxConfig{logger: log.DefaultLogger}
	for _, opt := range opts {
		opt.Apply(config)
	}
	return config
}

// WithMailboxLogger sets the mailbox logger.
func WithMailboxLogger(logger log.Logger) MailboxOption {
	return MailboxOptionFunc(func(c *mailboxConfig) {
		if logger != nil {
			c.logger = logger
		}
	})
}

// WithWorkers makes Broker.Register create a QueueMailbox dispatching on up to
// n goroutines instead of a PassthroughMailbox.
func WithWorkers(n int) MailboxOption {
	return MailboxOptionFunc(func(c *mailboxConfig) {
		c.workers = n
	})
}

// WithCapacity bounds every worker lane of a QueueMailbox to n packets.
// Zero means unbounded.
func WithCapacity(n int) MailboxOption {
	return MailboxOptionFunc(func(c *mailboxConfig) {
		if n >= 0 {
			c.capacity = n
		}
	})
}
