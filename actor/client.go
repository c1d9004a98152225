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
	"context"
	"fmt"
	"time"

	"go.uber.org/atomic"

	gerrors "github.com/tochemey/gobam/errors"
	"github.com/tochemey/gobam/future"
	"github.com/tochemey/gobam/internal/xsync"
	"github.com/tochemey/gobam/log"
)

// DefaultQueryTimeout bounds a query issued by a Client.
const DefaultQueryTimeout = future.DefaultTimeout

// ClientOption configures a Client.
type ClientOption interface {
	// Apply sets the Option value of a config.
	Apply(*Client)
}

var _ ClientOption = ClientOptionFunc(nil)

// ClientOptionFunc implements the ClientOption interface.
type ClientOptionFunc func(*Client)

// Apply implements ClientOption.
func (f ClientOptionFunc) Apply(c *Client) {
	f(c)
}

// WithAddress registers the client under addr instead of a generated address.
func WithAddress(addr string) ClientOption {
	return ClientOptionFunc(func(c *Client) {
		c.address = addr
	})
}

// WithUser sets the user part of the generated address.
func WithUser(user string) ClientOption {
	return ClientOptionFunc(func(c *Client) {
		c.user = user
	})
}

// WithQueryTimeout sets the default timeout of the queries issued by the client.
func WithQueryTimeout(timeout time.Duration) ClientOption {
	return ClientOptionFunc(func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	})
}

// WithHandler sets the stream receiving the messages and queries addressed to
// the client. Results and errors of the client's own queries never reach it.
func WithHandler(handler Stream) ClientOption {
	return ClientOptionFunc(func(c *Client) {
		c.handler = handler
	})
}

// WithClientLogger sets the client logger.
func WithClientLogger(logger log.Logger) ClientOption {
	return ClientOptionFunc(func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	})
}

// WithClientMailbox passes options to the mailbox the client registers.
func WithClientMailbox(opts ...MailboxOption) ClientOption {
	return ClientOptionFunc(func(c *Client) {
		c.mailboxOpts = append(c.mailboxOpts, opts...)
	})
}

// Client is an addressable actor able to issue queries. It keeps the pending
// queries keyed by id and resolves them when the matching result or error
// comes back.
type Client struct {
	address     string
	user        string
	broker      *Broker
	mailbox     Mailbox
	handler     Stream
	timeout     time.Duration
	logger      log.Logger
	mailboxOpts []MailboxOption

	ids     *atomic.Uint64
	pending *xsync.Map[uint64, *future.Future]
	closed  *atomic.Bool
}

var _ Stream = (*Client)(nil)

// NewClient creates a Client and registers it with broker.
func NewClient(broker *Broker, opts ...ClientOption) (*Client, error) {
	client := &Client{
		broker:  broker,
		timeout: DefaultQueryTimeout,
		logger:  broker.logger,
		ids:     atomic.NewUint64(0),
		pending: xsync.NewMap[uint64, *future.Future](),
		closed:  atomic.NewBool(false),
	}

	for _, opt := range opts {
		opt.Apply(client)
	}

	if client.address == "" {
		client.address = broker.NewAddress(client.user)
	}

	mailboxOpts := append([]MailboxOption{WithMailboxLogger(client.logger)}, client.mailboxOpts...)
	mailbox, err := broker.Register(client.address, client, mailboxOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to register client %s: %w", client.address, err)
	}

	client.address = mailbox.Address()
	client.mailbox = mailbox
	return client, nil
}

// Address returns the client address.
func (c *Client) Address() string {
	return c.address
}

// Broker returns the broker the client is registered with.
func (c *Client) Broker() *Broker {
	return c.broker
}

// Pending returns the number of outstanding queries.
func (c *Client) Pending() int {
	return c.pending.Len()
}

// Tell sends a one-way message from the client.
func (c *Client) Tell(to string, payload any) {
	c.broker.Message(to, c.address, payload)
}

// Ask queries to and blocks until the answer, the client timeout or ctx.
func (c *Client) Ask(ctx context.Context, to string, payload any) (any, error) {
	return c.AskWithTimeout(ctx, to, payload, c.timeout)
}

// AskWithTimeout is Ask with an explicit timeout.
func (c *Client) AskWithTimeout(ctx context.Context, to string, payload any, timeout time.Duration) (any, error) {
	id, f := c.query(to, payload, timeout)
	value, err := f.Await(ctx)
	if ctxErr := ctx.Err(); ctxErr != nil && err == ctxErr {
		c.cancel(id, ctxErr)
	}
	return value, err
}

// AskFuture issues a query and returns its future without blocking.
func (c *Client) AskFuture(to string, payload any) *future.Future {
	_, f := c.query(to, payload, c.timeout)
	return f
}

// AskCallback issues a query and calls cb once with the outcome.
func (c *Client) AskCallback(to string, payload any, cb func(future.Result)) {
	c.AskFuture(to, payload).OnComplete(cb)
}

// Close fails the pending queries with ErrMailboxClosed and unregisters the
// client. It is idempotent.
func (c *Client) Close() {
	if !c.closed.CompareAndSwap(false, true) {
		return
	}

	c.broker.Unregister(c.mailbox)
	for _, id := range c.pending.Keys() {
		c.cancel(id, gerrors.ErrMailboxClosed)
	}
}

func (c *Client) query(to string, payload any, timeout time.Duration) (uint64, *future.Future) {
	id := c.ids.Inc()
	f := future.New(timeout)

	if c.closed.Load() {
		f.Cancel(gerrors.ErrMailboxClosed)
		return id, f
	}

	c.pending.Set(id, f)
	f.OnComplete(func(future.Result) {
		c.pending.Delete(id)
	})

	c.broker.Query(id, to, c.address, payload)
	return id, f
}

func (c *Client) cancel(id uint64, err error) {
	if f, ok := c.pending.GetAndDelete(id); ok {
		f.Cancel(err)
	}
}

// Message implements Stream.
func (c *Client) Message(to, from string, payload any) {
	if c.handler != nil {
		c.handler.Message(to, from, payload)
		return
	}
	c.logger.Debugf("client %s ignoring message from %s", c.address, from)
}

// MessageError implements Stream.
func (c *Client) MessageError(to, from string, payload any, err error) {
	if c.handler != nil {
		c.handler.MessageError(to, from, payload, err)
		return
	}
	c.logger.Debugf("client %s: message to %s failed: %v", c.address, from, err)
}

// Query implements Stream. Without a handler every query is answered with
// feature-not-implemented.
func (c *Client) Query(id uint64, to, from string, payload any) {
	if c.handler != nil {
		c.handler.Query(id, to, from, payload)
		return
	}
	c.broker.QueryError(id, from, to, payload, gerrors.FeatureNotImplemented(payload))
}

// QueryResult implements Stream.
func (c *Client) QueryResult(id uint64, to, from string, payload any) {
	f, ok := c.pending.GetAndDelete(id)
	if !ok {
		c.logger.Debugf("client %s: dropping result of unknown or expired query %d from %s", c.address, id, from)
		return
	}
	f.OnQueryResult(to, from, payload)
}

// QueryError implements Stream.
func (c *Client) QueryError(id uint64, to, from string, payload any, err error) {
	f, ok := c.pending.GetAndDelete(id)
	if !ok {
		c.logger.Debugf("client %s: dropping error of unknown or expired query %d from %s: %v", c.address, id, from, err)
		return
	}
	f.OnQueryError(to, from, payload, err)
}
