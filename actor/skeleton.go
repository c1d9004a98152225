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
	gerrors "github.com/tochemey/gobam/errors"
	"github.com/tochemey/gobam/log"
)

type messageHandler func(to, from string, payload any) bool
type messageErrorHandler func(to, from string, payload any, err error) bool
type queryHandler func(from string, payload any) (handled bool, result any, err error)

// Skeleton is a Stream dispatching on the payload type. Handlers are tried in
// registration order and the first one accepting the payload type wins.
//
// Unhandled queries are answered with feature-not-implemented, unhandled
// messages are logged. A query handler returning an error answers with a
// QueryError built from it.
type Skeleton struct {
	replies       Stream
	logger        log.Logger
	messages      []messageHandler
	messageErrors []messageErrorHandler
	queries       []queryHandler
}

var _ Stream = (*Skeleton)(nil)

// NewSkeleton creates a Skeleton sending its answers through replies.
func NewSkeleton(replies Stream, logger log.Logger) *Skeleton {
	if logger == nil {
		logger = log.DefaultLogger
	}
	return &Skeleton{replies: replies, logger: logger}
}

// OnMessage handles messages whose payload is a T.
func OnMessage[T any](s *Skeleton, fn func(to, from string, payload T)) {
	s.messages = append(s.messages, func(to, from string, payload any) bool {
		typed, ok := payload.(T)
		if ok {
			fn(to, from, typed)
		}
		return ok
	})
}

// OnMessageError handles message errors whose payload is a T.
func OnMessageError[T any](s *Skeleton, fn func(to, from string, payload T, err error)) {
	s.messageErrors = append(s.messageErrors, func(to, from string, payload any, err error) bool {
		typed, ok := payload.(T)
		if ok {
			fn(to, from, typed, err)
		}
		return ok
	})
}

// OnQuery answers queries whose payload is a T with the value returned by fn.
func OnQuery[T any](s *Skeleton, fn func(from string, payload T) (any, error)) {
	s.queries = append(s.queries, func(from string, payload any) (bool, any, error) {
		typed, ok := payload.(T)
		if !ok {
			return false, nil, nil
		}
		result, err := fn(from, typed)
		return true, result, err
	})
}

// Message implements Stream.
func (s *Skeleton) Message(to, from string, payload any) {
	for _, handle := range s.messages {
		if handle(to, from, payload) {
			return
		}
	}
	s.logger.Debugf("%s: unhandled message %T from %s", to, payload, from)
}

// MessageError implements Stream.
func (s *Skeleton) MessageError(to, from string, payload any, err error) {
	for _, handle := range s.messageErrors {
		if handle(to, from, payload, err) {
			return
		}
	}
	s.logger.Debugf("%s: unhandled message error %T from %s: %v", to, payload, from, err)
}

// Query implements Stream.
func (s *Skeleton) Query(id uint64, to, from string, payload any) {
	for _, handle := range s.queries {
		handled, result, err := handle(from, payload)
		if !handled {
			continue
		}
		if err != nil {
			s.replies.QueryError(id, from, to, payload, gerrors.FromError(err))
			return
		}
		s.replies.QueryResult(id, from, to, result)
		return
	}
	s.replies.QueryError(id, from, to, payload, gerrors.FeatureNotImplemented(payload))
}

// QueryResult implements Stream. Results are expected to be consumed by the
// Client hosting the skeleton.
func (s *Skeleton) QueryResult(id uint64, to, from string, payload any) {
	s.logger.Debugf("%s: unexpected query result %d from %s", to, id, from)
}

// QueryError implements Stream.
func (s *Skeleton) QueryError(id uint64, to, from string, payload any, err error) {
	s.logger.Debugf("%s: unexpected query error %d from %s: %v", to, id, from, err)
}
