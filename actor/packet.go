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

type packetKind uint8

const (
	kindMessage packetKind = iota
	kindMessageError
	kindQuery
	kindQueryResult
	kindQueryError
)

func (k packetKind) String() string {
	switch k {
	case kindMessage:
		return "message"
	case kindMessageError:
		return "message-error"
	case kindQuery:
		return "query"
	case kindQueryResult:
		return "query-result"
	case kindQueryError:
		return "query-error"
	default:
		return "unknown"
	}
}

// packet is one Stream call captured so it can be queued or replayed.
type packet struct {
	kind    packetKind
	id      uint64
	to      string
	from    string
	payload any
	err     error
}

func (p *packet) dispatch(target Stream) {
	switch p.kind {
	case kindMessage:
		target.Message(p.to, p.from, p.payload)
	case kindMessageError:
		target.MessageError(p.to, p.from, p.payload, p.err)
	case kindQuery:
		target.Query(p.id, p.to, p.from, p.payload)
	case kindQueryResult:
		target.QueryResult(p.id, p.to, p.from, p.payload)
	case kindQueryError:
		target.QueryError(p.id, p.to, p.from, p.payload, p.err)
	}
}

// reject answers the sender of p with err. Only messages and queries are
// answered: replying to an error or a result could bounce forever.
func (p *packet) reject(replies Stream, err error, logger log.Logger) {
	actorErr := gerrors.FromError(err)
	switch p.kind {
	case kindMessage:
		replies.MessageError(p.from, p.to, p.payload, actorErr)
	case kindQuery:
		replies.QueryError(p.id, p.from, p.to, p.payload, actorErr)
	default:
		logger.Warnf("dropping %s from=%s to=%s: %v", p.kind, p.from, p.to, err)
	}
}

// deliver dispatches p to target and turns a panic into an error reply to the
// sender, so that a failing actor never unwinds its caller.
func deliver(target Stream, p *packet, replies Stream, logger log.Logger) (failed bool) {
	defer func() {
		if r := recover(); r != nil {
			failed = true
			pe := gerrors.Recovered(r, 2)
			logger.Errorf("%s from=%s to=%s failed: %v", p.kind, p.from, p.to, pe)
			p.reject(replies, pe, logger)
		}
	}()
	p.dispatch(target)
	return false
}
