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
	"github.com/zeebo/xxh3"
	"go.uber.org/atomic"

	gerrors "github.com/tochemey/gobam/errors"
	"github.com/tochemey/gobam/internal/queue"
	"github.com/tochemey/gobam/log"
)

const (
	idle int32 = iota
	busy
)

// lane is one FIFO drained by at most one goroutine at a time.
type lane struct {
	owner      *QueueMailbox
	queue      queue.Queue[*packet]
	processing *atomic.Int32
}

// QueueMailbox queues packets and dispatches them asynchronously on up to
// one goroutine per lane. A packet's lane is picked by hashing its sender, so
// packets from one sender are dispatched in the order they were sent.
type QueueMailbox struct {
	address string
	target  Stream
	replies Stream
	logger  log.Logger
	lanes   []*lane
	closed  *atomic.Bool
}

var _ Mailbox = (*QueueMailbox)(nil)

// NewQueueMailbox creates a queueing mailbox for address delivering to target.
// WithWorkers sets the number of lanes (default 1) and WithCapacity bounds
// each lane.
func NewQueueMailbox(address string, target Stream, replies Stream, opts ...MailboxOption) *QueueMailbox {
	config := newMailboxConfig(opts...)
	workers := max(config.workers, 1)

	mailbox := &QueueMailbox{
		address: address,
		target:  target,
		replies: replies,
		logger:  config.logger,
		lanes:   make([]*lane, workers),
		closed:  atomic.NewBool(false),
	}

	for i := range mailbox.lanes {
		var q queue.Queue[*packet]
		if config.capacity > 0 {
			q = queue.NewBounded[*packet](config.capacity)
		} else {
			q = queue.NewUnbounded[*packet]()
		}
		mailbox.lanes[i] = &lane{owner: mailbox, queue: q, processing: atomic.NewInt32(idle)}
	}
	return mailbox
}

// Address implements Mailbox.
func (m *QueueMailbox) Address() string {
	return m.address
}

// Len returns the number of queued packets across all lanes.
func (m *QueueMailbox) Len() int64 {
	var total int64
	for _, l := range m.lanes {
		total += l.queue.Len()
	}
	return total
}

// IsClosed implements Mailbox.
func (m *QueueMailbox) IsClosed() bool {
	return m.closed.Load()
}

// Close stops dispatching. Queued queries are answered with service-unavailable
// and queued messages are dropped.
func (m *QueueMailbox) Close() {
	if !m.closed.CompareAndSwap(false, true) {
		return
	}
	m.logger.Debugf("mailbox %s closed", m.address)
	for _, l := range m.lanes {
		l.process()
	}
}

// Message implements Stream.
func (m *QueueMailbox) Message(to, from string, payload any) {
	m.enqueue(&packet{kind: kindMessage, to: to, from: from, payload: payload})
}

// MessageError implements Stream.
func (m *QueueMailbox) MessageError(to, from string, payload any, err error) {
	m.enqueue(&packet{kind: kindMessageError, to: to, from: from, payload: payload, err: err})
}

// Query implements Stream.
func (m *QueueMailbox) Query(id uint64, to, from string, payload any) {
	m.enqueue(&packet{kind: kindQuery, id: id, to: to, from: from, payload: payload})
}

// QueryResult implements Stream.
func (m *QueueMailbox) QueryResult(id uint64, to, from string, payload any) {
	m.enqueue(&packet{kind: kindQueryResult, id: id, to: to, from: from, payload: payload})
}

// QueryError implements Stream.
func (m *QueueMailbox) QueryError(id uint64, to, from string, payload any, err error) {
	m.enqueue(&packet{kind: kindQueryError, id: id, to: to, from: from, payload: payload, err: err})
}

func (m *QueueMailbox) enqueue(p *packet) {
	if m.closed.Load() {
		p.reject(m.replies, gerrors.ServiceUnavailable(m.address), m.logger)
		return
	}

	l := m.lanes[0]
	if n := uint64(len(m.lanes)); n > 1 {
		l = m.lanes[xxh3.HashString(p.from)%n]
	}

	if !l.queue.Push(p) {
		m.logger.Warnf("mailbox %s is full, rejecting %s from %s", m.address, p.kind, p.from)
		p.reject(m.replies, gerrors.ErrMailboxFull, m.logger)
		return
	}
	l.process()
}

// process starts a drain loop when the lane goes from idle to busy.
// Once the lane is empty it goes back to idle and re-checks the queue to
// pick up a push that raced with the transition.
func (l *lane) process() {
	if !l.processing.CompareAndSwap(idle, busy) {
		return
	}

	go func() {
		for {
			if p, ok := l.queue.Pop(); ok {
				l.owner.dispatch(p)
				continue
			}

			l.processing.Store(idle)
			if !l.queue.IsEmpty() && l.processing.CompareAndSwap(idle, busy) {
				continue
			}
			return
		}
	}()
}

func (m *QueueMailbox) dispatch(p *packet) {
	if m.closed.Load() {
		if p.kind == kindQuery {
			p.reject(m.replies, gerrors.ServiceUnavailable(m.address), m.logger)
			return
		}
		m.logger.Debugf("mailbox %s closed, dropping %s from %s", m.address, p.kind, p.from)
		return
	}
	deliver(m.target, p, m.replies, m.logger)
}
