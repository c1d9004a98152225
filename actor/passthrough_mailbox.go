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
	"go.uber.org/atomic"

	gerrors "github.com/tochemey/gobam/errors"
	"github.com/tochemey/gobam/log"
)

// PassthroughMailbox dispatches every packet synchronously on the calling
// goroutine. Ordering is the caller's ordering.
type PassthroughMailbox struct {
	address string
	target  Stream
	replies Stream
	logger  log.Logger
	closed  *atomic.Bool
}

var _ Mailbox = (*PassthroughMailbox)(nil)

// NewPassthroughMailbox creates a mailbox for address delivering to target.
// Failure replies are sent through replies, usually the broker.
func NewPassthroughMailbox(address string, target Stream, replies Stream, opts ...MailboxOption) *PassthroughMailbox {
	config := newMailboxConfig(opts...)
	return &PassthroughMailbox{
		address: address,
		target:  target,
		replies: replies,
		logger:  config.logger,
		closed:  atomic.NewBool(false),
	}
}

// Address implements Mailbox.
func (m *PassthroughMailbox) Address() string {
	return m.address
}

// Len is always zero: nothing is ever queued.
func (m *PassthroughMailbox) Len() int64 {
	return 0
}

// IsClosed implements Mailbox.
func (m *PassthroughMailbox) IsClosed() bool {
	return m.closed.Load()
}

// Close implements Mailbox.
func (m *PassthroughMailbox) Close() {
	if m.closed.CompareAndSwap(false, true) {
		m.logger.Debugf("mailbox %s closed", m.address)
	}
}

// Message implements Stream.
func (m *PassthroughMailbox) Message(to, from string, payload any) {
	m.handle(&packet{kind: kindMessage, to: to, from: from, payload: payload})
}

// MessageError implements Stream.
func (m *PassthroughMailbox) MessageError(to, from string, payload any, err error) {
	m.handle(&packet{kind: kindMessageError, to: to, from: from, payload: payload, err: err})
}

// Query implements Stream.
func (m *PassthroughMailbox) Query(id uint64, to, from string, payload any) {
	m.handle(&packet{kind: kindQuery, id: id, to: to, from: from, payload: payload})
}

// QueryResult implements Stream.
func (m *PassthroughMailbox) QueryResult(id uint64, to, from string, payload any) {
	m.handle(&packet{kind: kindQueryResult, id: id, to: to, from: from, payload: payload})
}

// QueryError implements Stream.
func (m *PassthroughMailbox) QueryError(id uint64, to, from string, payload any, err error) {
	m.handle(&packet{kind: kindQueryError, id: id, to: to, from: from, payload: payload, err: err})
}

func (m *PassthroughMailbox) handle(p *packet) {
	if m.closed.Load() {
		p.reject(m.replies, gerrors.ServiceUnavailable(m.address), m.logger)
		return
	}
	deliver(m.target, p, m.replies, m.logger)
}
