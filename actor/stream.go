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

// Stream is the capability set of every message endpoint: actors, mailboxes,
// the broker, its fallback handler, routers and client links.
//
// Implementations must not return errors to the caller. A failure is either
// reported in-band through MessageError/QueryError addressed to the sender, or
// surfaces as a panic that the mailbox recovers at its boundary.
type Stream interface {
	// Message delivers a one-way message.
	Message(to, from string, payload any)
	// MessageError reports that a message sent by to failed.
	MessageError(to, from string, payload any, err error)
	// Query delivers a request. The answer is a QueryResult or a QueryError
	// carrying the same id, addressed to from.
	Query(id uint64, to, from string, payload any)
	// QueryResult answers query id.
	QueryResult(id uint64, to, from string, payload any)
	// QueryError fails query id.
	QueryError(id uint64, to, from string, payload any, err error)
}

// StreamFuncs adapts plain functions to a Stream. Nil functions drop the
// corresponding traffic.
type StreamFuncs struct {
	OnMessage      func(to, from string, payload any)
	OnMessageError func(to, from string, payload any, err error)
	OnQuery        func(id uint64, to, from string, payload any)
	OnQueryResult  func(id uint64, to, from string, payload any)
	OnQueryError   func(id uint64, to, from string, payload any, err error)
}

var _ Stream = (*StreamFuncs)(nil)

// Message implements Stream.
func (s *StreamFuncs) Message(to, from string, payload any) {
	if s.OnMessage != nil {
		s.OnMessage(to, from, payload)
	}
}

// MessageError implements Stream.
func (s *StreamFuncs) MessageError(to, from string, payload any, err error) {
	if s.OnMessageError != nil {
		s.OnMessageError(to, from, payload, err)
	}
}

// Query implements Stream.
func (s *StreamFuncs) Query(id uint64, to, from string, payload any) {
	if s.OnQuery != nil {
		s.OnQuery(id, to, from, payload)
	}
}

// QueryResult implements Stream.
func (s *StreamFuncs) QueryResult(id uint64, to, from string, payload any) {
	if s.OnQueryResult != nil {
		s.OnQueryResult(id, to, from, payload)
	}
}

// QueryError implements Stream.
func (s *StreamFuncs) QueryError(id uint64, to, from string, payload any, err error) {
	if s.OnQueryError != nil {
		s.OnQueryError(id, to, from, payload, err)
	}
}
