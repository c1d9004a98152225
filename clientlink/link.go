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

package clientlink

import (
	"fmt"

	"go.uber.org/atomic"

	"github.com/tochemey/gobam/actor"
	gerrors "github.com/tochemey/gobam/errors"
	"github.com/tochemey/gobam/log"
)

// Writer sends frames to the remote client.
type Writer interface {
	WriteFrame(frame *Frame) error
}

// WriterFunc adapts a function to Writer.
type WriterFunc func(frame *Frame) error

// WriteFrame implements Writer.
func (f WriterFunc) WriteFrame(frame *Frame) error {
	return f(frame)
}

// LinkOption configures a Link.
type LinkOption interface {
	// Apply sets the Option value of a config.
	Apply(*Link)
}

var _ LinkOption = LinkOptionFunc(nil)

// LinkOptionFunc implements the LinkOption interface.
type LinkOptionFunc func(*Link)

// Apply implements LinkOption.
func (f LinkOptionFunc) Apply(l *Link) {
	f(l)
}

// WithUser derives the link address from user instead of "anon".
func WithUser(user string) LinkOption {
	return LinkOptionFunc(func(l *Link) {
		l.user = user
	})
}

// WithLinkAddress registers the link under an address allocated beforehand.
func WithLinkAddress(addr string) LinkOption {
	return LinkOptionFunc(func(l *Link) {
		l.address = addr
	})
}

// WithLinkLogger sets the link logger.
func WithLinkLogger(logger log.Logger) LinkOption {
	return LinkOptionFunc(func(l *Link) {
		if logger != nil {
			l.logger = logger
		}
	})
}

// Link makes a remote client an actor of the broker. Traffic addressed to the
// link is queued and written to the client in order by a single goroutine, so
// a slow client does not hold up the sender. Frames decoded from the client are
// dispatched into the broker with the link address as sender, whatever the
// client claims.
type Link struct {
	broker  *actor.Broker
	writer  Writer
	user    string
	address string
	mailbox actor.Mailbox
	logger  log.Logger
	closed  *atomic.Bool
}

var _ actor.Stream = (*Link)(nil)

// NewLink allocates an address for a new client session and registers it with broker.
func NewLink(broker *actor.Broker, writer Writer, opts ...LinkOption) (*Link, error) {
	link := &Link{
		broker: broker,
		writer: writer,
		logger: broker.Logger(),
		closed: atomic.NewBool(false),
	}
	for _, opt := range opts {
		opt.Apply(link)
	}

	if link.address == "" {
		link.address = broker.NewAddress(link.user)
	}

	// writes to the client happen on the mailbox goroutine, never on the sender's
	mailbox, err := broker.Register(link.address, &outbound{link: link},
		actor.WithWorkers(1),
		actor.WithMailboxLogger(link.logger))
	if err != nil {
		return nil, fmt.Errorf("failed to register link %s: %w", link.address, err)
	}
	link.mailbox = mailbox
	link.address = mailbox.Address()

	link.logger.Infof("link %s opened", link.address)
	return link, nil
}

// Address returns the address allocated to the client.
func (l *Link) Address() string {
	return l.address
}

// IsClosed reports whether the link has been closed.
func (l *Link) IsClosed() bool {
	return l.closed.Load()
}

// Close unregisters the link. It is idempotent.
func (l *Link) Close() {
	if !l.closed.CompareAndSwap(false, true) {
		return
	}
	l.broker.Unregister(l.mailbox)
	l.logger.Infof("link %s closed", l.address)
}

// Dispatch forwards a frame decoded from the client.
func (l *Link) Dispatch(frame *Frame) error {
	if l.closed.Load() {
		return gerrors.ErrMailboxClosed
	}

	switch frame.Kind {
	case KindMessage:
		l.Message(frame.To, frame.From, frame.Payload)
	case KindMessageError:
		l.MessageError(frame.To, frame.From, frame.Payload, frameError(frame))
	case KindQuery:
		l.Query(frame.ID, frame.To, frame.From, frame.Payload)
	case KindQueryResult:
		l.QueryResult(frame.ID, frame.To, frame.From, frame.Payload)
	case KindQueryError:
		l.QueryError(frame.ID, frame.To, frame.From, frame.Payload, frameError(frame))
	default:
		return fmt.Errorf("%w: unknown kind %d", ErrMalformedFrame, frame.Kind)
	}
	return nil
}

// Message implements actor.Stream.
func (l *Link) Message(to, _ string, payload any) {
	l.broker.Message(to, l.address, payload)
}

// MessageError implements actor.Stream.
func (l *Link) MessageError(to, _ string, payload any, err error) {
	l.broker.MessageError(to, l.address, payload, err)
}

// Query implements actor.Stream.
func (l *Link) Query(id uint64, to, _ string, payload any) {
	l.broker.Query(id, to, l.address, payload)
}

// QueryResult implements actor.Stream.
func (l *Link) QueryResult(id uint64, to, _ string, payload any) {
	l.broker.QueryResult(id, to, l.address, payload)
}

// QueryError implements actor.Stream.
func (l *Link) QueryError(id uint64, to, _ string, payload any, err error) {
	l.broker.QueryError(id, to, l.address, payload, err)
}

func frameError(frame *Frame) error {
	if frame.Err == nil {
		return gerrors.NewActorError(gerrors.TypeCancel, gerrors.ConditionInternalServerError, "")
	}
	return frame.Err
}

// outbound is the mailbox target of a Link: it writes broker traffic to the client.
type outbound struct {
	link *Link
}

var _ actor.Stream = (*outbound)(nil)

func (o *outbound) Message(to, from string, payload any) {
	if err := o.write(&Frame{Kind: KindMessage, To: to, From: from, Payload: payload}); err != nil {
		o.link.broker.MessageError(from, to, payload, gerrors.ServiceUnavailable(to))
	}
}

func (o *outbound) MessageError(to, from string, payload any, err error) {
	_ = o.write(&Frame{Kind: KindMessageError, To: to, From: from, Payload: payload, Err: gerrors.FromError(err)})
}

func (o *outbound) Query(id uint64, to, from string, payload any) {
	if err := o.write(&Frame{Kind: KindQuery, ID: id, To: to, From: from, Payload: payload}); err != nil {
		o.link.broker.QueryError(id, from, to, payload, gerrors.ServiceUnavailable(to))
	}
}

func (o *outbound) QueryResult(id uint64, to, from string, payload any) {
	_ = o.write(&Frame{Kind: KindQueryResult, ID: id, To: to, From: from, Payload: payload})
}

func (o *outbound) QueryError(id uint64, to, from string, payload any, err error) {
	_ = o.write(&Frame{Kind: KindQueryError, ID: id, To: to, From: from, Payload: payload, Err: gerrors.FromError(err)})
}

func (o *outbound) write(frame *Frame) error {
	if err := o.link.writer.WriteFrame(frame); err != nil {
		o.link.logger.Warnf("link %s: failed to write %s: %v", o.link.address, frame, err)
		return err
	}
	return nil
}
