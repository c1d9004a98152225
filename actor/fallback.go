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

// fallback receives the traffic whose destination is unknown. Messages and
// queries are answered with item-not-found; errors and results are dropped,
// since answering them could bounce between two unknown addresses forever.
type fallback struct {
	replies Stream
	logger  log.Logger
}

var _ Stream = (*fallback)(nil)

func newFallback(replies Stream, logger log.Logger) *fallback {
	return &fallback{replies: replies, logger: logger}
}

func (f *fallback) Message(to, from string, payload any) {
	f.logger.Debugf("message from=%s to unknown actor %s", from, to)
	if from == "" {
		return
	}
	f.replies.MessageError(from, to, payload, gerrors.AddressNotFound(to))
}

func (f *fallback) MessageError(to, from string, _ any, err error) {
	f.logger.Warnf("dropping message-error from=%s to unknown actor %s: %v", from, to, err)
}

func (f *fallback) Query(id uint64, to, from string, payload any) {
	f.logger.Debugf("query %d from=%s to unknown actor %s", id, from, to)
	f.replies.QueryError(id, from, to, payload, gerrors.AddressNotFound(to))
}

func (f *fallback) QueryResult(id uint64, to, from string, _ any) {
	f.logger.Warnf("dropping query-result %d from=%s to unknown actor %s", id, from, to)
}

func (f *fallback) QueryError(id uint64, to, from string, _ any, err error) {
	f.logger.Warnf("dropping query-error %d from=%s to unknown actor %s: %v", id, from, to, err)
}
